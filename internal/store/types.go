package store

// Caller identifies the requesting user for visibility scoping.
// The zero value is an anonymous caller.
type Caller struct {
	UserID      string
	IsSuperuser bool
}

// Anonymous reports whether the caller is unauthenticated.
func (c Caller) Anonymous() bool {
	return c.UserID == ""
}

// Pagination bounds for recipe listings.
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// RecipeFilter holds the optional filters for ListRecipes.
// All fields combine with AND semantics; the name lists use OR semantics
// within themselves (any match). Names are expected pre-normalized.
type RecipeFilter struct {
	Tags        []string
	Ingredients []string
	Difficulty  string
	MaxTime     int    // 0 = unset
	MinServings int    // 0 = unset
	OwnerID     string // restrict to one owner's recipes
	PublicOnly  bool   // force is_public, used for cross-user lookups
	Search      string // substring match on title/description/instructions

	// Ordering is one of "title", "time_minutes", "created_at", optionally
	// prefixed with "-" for descending. Empty means "-created_at".
	Ordering string

	Limit  int
	Offset int
}

// IngredientLine is one ingredient row to attach to a recipe on write.
type IngredientLine struct {
	Name     string
	Quantity string
	Notes    string
}

// AssociationReplay describes which recipe associations an update replaces.
// The Provided flags distinguish "omitted" (keep current associations) from
// "explicitly empty" (clear them). When provided, the store decrements usage
// on every current association, removes it, and re-creates from the new list
// with fresh get-or-create increments.
type AssociationReplay struct {
	Tags         []string
	TagsProvided bool

	Ingredients         []IngredientLine
	IngredientsProvided bool
}

// CatalogFilter holds the optional filters for tag and ingredient listings.
type CatalogFilter struct {
	UsedOnly bool
	Category string // ingredients only
	Search   string // substring match on name

	// Ordering is one of "name", "usage_count", "created_at" (plus
	// "category" for ingredients), optionally "-" prefixed.
	// Empty means "-usage_count".
	Ordering string
}
