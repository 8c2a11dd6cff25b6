package store

import (
	"context"
	"time"

	"github.com/platefulapp/plateful-server/internal/domain"
)

// Store is the persistence contract consumed by the service layer.
// Implementations must enforce unique constraints on normalized values and
// run multi-row mutations (recipe create/update/delete) inside a single
// transaction so partial failures leave no visible inconsistency.
type Store interface {
	// Users

	// CreateUser inserts a new user.
	// Returns ErrAlreadyExists if the email is already registered.
	CreateUser(ctx context.Context, user *domain.User) error
	// GetUser retrieves a user by ID. Returns ErrNotFound if missing.
	GetUser(ctx context.Context, id string) (*domain.User, error)
	// GetUserByEmail retrieves a user by case-insensitive email match.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetUserByVerificationToken retrieves an inactive user by exact token match.
	GetUserByVerificationToken(ctx context.Context, token string) (*domain.User, error)
	// UpdateUser performs a full row update on an existing user.
	UpdateUser(ctx context.Context, user *domain.User) error
	// DeleteUser removes a user; recipes and their rows cascade.
	DeleteUser(ctx context.Context, id string) error
	// DeleteExpiredUnverifiedUsers removes inactive users whose verification
	// was sent before the cutoff (or never). Returns the number deleted.
	DeleteExpiredUnverifiedUsers(ctx context.Context, cutoff time.Time) (int, error)

	// Sessions

	CreateSession(ctx context.Context, session *domain.Session) error
	// GetSessionByTokenID retrieves a session by the access token's jti.
	GetSessionByTokenID(ctx context.Context, tokenID string) (*domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
	// DeleteExpiredSessions removes sessions past their expiry. Returns the
	// number deleted.
	DeleteExpiredSessions(ctx context.Context) (int, error)
	// TouchSession updates the session's last seen timestamp.
	TouchSession(ctx context.Context, id string, seenAt time.Time) error

	// Tag/Ingredient catalog

	ListTags(ctx context.Context, filter CatalogFilter) ([]*domain.Tag, error)
	// GetTagByName retrieves a tag by normalized name.
	GetTagByName(ctx context.Context, name string) (*domain.Tag, error)
	// CreateTag inserts a tag with usage_count 0 (moderator-created, not yet
	// referenced). Returns ErrAlreadyExists on a normalized-name collision.
	CreateTag(ctx context.Context, tag *domain.Tag) error
	ListIngredients(ctx context.Context, filter CatalogFilter) ([]*domain.Ingredient, error)
	// GetIngredientByName retrieves an ingredient by normalized name.
	GetIngredientByName(ctx context.Context, name string) (*domain.Ingredient, error)

	// Recipes

	// CreateRecipe persists the recipe row, its tag associations, and its
	// ingredient lines in one transaction. Shared tags/ingredients are
	// get-or-created with usage increments inside the same transaction.
	// Returns ErrAlreadyExists if the owner already has a recipe with the
	// same title (case-insensitive).
	CreateRecipe(ctx context.Context, recipe *domain.Recipe, tags []string, lines []IngredientLine) error
	// GetRecipe retrieves a recipe with its tags and ingredient lines.
	GetRecipe(ctx context.Context, id string) (*domain.Recipe, error)
	// ListRecipes returns the recipes visible to the caller, filtered and
	// ordered, with associations populated.
	ListRecipes(ctx context.Context, caller Caller, filter RecipeFilter) ([]*domain.Recipe, error)
	// UpdateRecipe writes the recipe's scalar fields and replays the
	// provided associations in one transaction.
	UpdateRecipe(ctx context.Context, recipe *domain.Recipe, replay AssociationReplay) error
	// DeleteRecipe removes the recipe, decrementing usage on every
	// associated tag and ingredient in the same transaction.
	DeleteRecipe(ctx context.Context, id string) error
	// SetRecipeImage records the stored image path and blurhash placeholder.
	SetRecipeImage(ctx context.Context, id, path, blurhash string) error

	// Close releases the underlying database handle.
	Close() error
}
