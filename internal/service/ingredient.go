package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/platefulapp/plateful-server/internal/domain"
	"github.com/platefulapp/plateful-server/internal/store"
)

// IngredientService exposes the shared ingredient catalog.
// Ingredients only enter the catalog through recipe writes; there is no
// direct creation endpoint.
type IngredientService struct {
	store  store.Store
	logger *slog.Logger
}

// NewIngredientService creates a new ingredient service.
func NewIngredientService(store store.Store, logger *slog.Logger) *IngredientService {
	return &IngredientService{
		store:  store,
		logger: logger,
	}
}

// ListIngredientsRequest holds the query parameters for ingredient listings.
type ListIngredientsRequest struct {
	UsedOnly bool
	Category string
	Search   string
	Ordering string
}

// ingredientOrderings is the whitelist of sortable ingredient fields.
var ingredientOrderings = map[string]bool{
	"name":        true,
	"usage_count": true,
	"created_at":  true,
	"category":    true,
}

// List returns ingredients matching the filter. Public, no authentication
// needed.
func (s *IngredientService) List(ctx context.Context, req ListIngredientsRequest) ([]*domain.Ingredient, error) {
	if err := checkOrdering(req.Ordering, ingredientOrderings); err != nil {
		return nil, err
	}

	ingredients, err := s.store.ListIngredients(ctx, store.CatalogFilter{
		UsedOnly: req.UsedOnly,
		Category: req.Category,
		Search:   req.Search,
		Ordering: req.Ordering,
	})
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return ingredients, nil
}
