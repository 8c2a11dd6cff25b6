package domain

// Difficulty is the fixed difficulty scale for recipes.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the allowed difficulty values.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Recipe scalar bounds enforced at the write boundary.
const (
	RecipeTitleMinLen        = 3
	RecipeTitleMaxLen        = 200
	RecipeInstructionsMinLen = 10
	RecipeTimeMinutesMin     = 1
	RecipeTimeMinutesMax     = 1440
	RecipeServingsMin        = 1
	RecipeServingsMax        = 50
	RecipeQuantityMaxLen     = 100
)

// Recipe is a user-owned recipe. Titles are unique per owner
// (case-insensitive); visibility is controlled by IsPublic.
type Recipe struct {
	Model
	OwnerID      string     `json:"owner_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Instructions string     `json:"instructions"`
	TimeMinutes  int        `json:"time_minutes"`
	Difficulty   Difficulty `json:"difficulty"`
	Servings     int        `json:"servings"`
	IsPublic     bool       `json:"is_public"`

	ImagePath     string `json:"-"`
	ImageBlurhash string `json:"image_blurhash,omitempty"`

	// Associations, populated on read.
	Tags        []*Tag              `json:"tags"`
	Ingredients []*RecipeIngredient `json:"ingredients"`
}

// HasImage reports whether an image has been uploaded for this recipe.
func (r *Recipe) HasImage() bool {
	return r.ImagePath != ""
}

// VisibleTo reports whether the caller may read this recipe.
// A nil caller is an anonymous request.
func (r *Recipe) VisibleTo(caller *User) bool {
	if r.IsPublic {
		return true
	}
	if caller == nil {
		return false
	}
	return caller.IsSuperuser || caller.ID == r.OwnerID
}

// WritableBy reports whether the caller may update or delete this recipe.
func (r *Recipe) WritableBy(caller *User) bool {
	if caller == nil {
		return false
	}
	return caller.IsSuperuser || caller.ID == r.OwnerID
}

// RecipeIngredient is one ingredient line on a recipe: a shared Ingredient
// plus the recipe-specific quantity and optional notes.
type RecipeIngredient struct {
	IngredientID string `json:"ingredient_id"`
	Name         string `json:"name"`
	Quantity     string `json:"quantity"`
	Notes        string `json:"notes,omitempty"`
}
