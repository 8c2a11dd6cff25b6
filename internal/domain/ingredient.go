package domain

// Ingredient name bounds enforced at the write boundary.
const (
	IngredientNameMinLen = 2
	IngredientNameMaxLen = 100
)

// Ingredient is a shared catalog entity referenced by recipe ingredient
// lines. Names are stored normalized (trimmed, lowercase). Category is
// optional ("produce", "dairy", ...). UsageCount follows the same advisory
// reference-count rules as Tag.
type Ingredient struct {
	Model
	Name       string `json:"name"`
	Category   string `json:"category,omitempty"`
	UsageCount int    `json:"usage_count"`
}

// InUse reports whether any recipe currently references the ingredient.
func (i *Ingredient) InUse() bool {
	return i.UsageCount > 0
}
