package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/platefulapp/plateful-server/internal/service"
)

func (s *Server) registerCatalogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns the shared tag catalog. Public.",
		Tags:        []string{"Catalog"},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "createTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags",
		Summary:     "Create tag",
		Description: "Adds a tag to the catalog ahead of any recipe using it. Superusers only.",
		Tags:        []string{"Catalog"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "listIngredients",
		Method:      http.MethodGet,
		Path:        "/api/v1/ingredients",
		Summary:     "List ingredients",
		Description: "Returns the shared ingredient catalog. Public.",
		Tags:        []string{"Catalog"},
	}, s.handleListIngredients)
}

// === DTOs ===

// ListTagsInput holds the tag list query parameters.
type ListTagsInput struct {
	UsedOnly bool   `query:"used_only" doc:"Only tags referenced by at least one recipe"`
	Search   string `query:"search" doc:"Substring match on tag name"`
	Ordering string `query:"ordering" doc:"Sort field: name, usage_count, or created_at; prefix with - for descending"`
}

// ListTagsResponse contains the matching tags.
type ListTagsResponse struct {
	Tags  []TagResponse `json:"tags" doc:"Matching tags"`
	Count int           `json:"count" doc:"Number of tags"`
}

// ListTagsOutput wraps the tag list for huma.
type ListTagsOutput struct {
	Body ListTagsResponse
}

// CreateTagInput wraps the tag creation request for huma.
type CreateTagInput struct {
	Body service.CreateTagRequest
}

// TagOutput wraps a single tag for huma.
type TagOutput struct {
	Body TagResponse
}

// ListIngredientsInput holds the ingredient list query parameters.
type ListIngredientsInput struct {
	UsedOnly bool   `query:"used_only" doc:"Only ingredients referenced by at least one recipe"`
	Category string `query:"category" doc:"Filter by category"`
	Search   string `query:"search" doc:"Substring match on ingredient name"`
	Ordering string `query:"ordering" doc:"Sort field: name, category, usage_count, or created_at; prefix with - for descending"`
}

// ListIngredientsResponse contains the matching ingredients.
type ListIngredientsResponse struct {
	Ingredients []IngredientResponse `json:"ingredients" doc:"Matching ingredients"`
	Count       int                  `json:"count" doc:"Number of ingredients"`
}

// ListIngredientsOutput wraps the ingredient list for huma.
type ListIngredientsOutput struct {
	Body ListIngredientsResponse
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, input *ListTagsInput) (*ListTagsOutput, error) {
	tags, err := s.services.Tag.List(ctx, service.ListTagsRequest{
		UsedOnly: input.UsedOnly,
		Search:   input.Search,
		Ordering: input.Ordering,
	})
	if err != nil {
		return nil, err
	}

	mapped := make([]TagResponse, 0, len(tags))
	for _, t := range tags {
		mapped = append(mapped, mapTag(t))
	}
	return &ListTagsOutput{
		Body: ListTagsResponse{Tags: mapped, Count: len(mapped)},
	}, nil
}

func (s *Server) handleCreateTag(ctx context.Context, input *CreateTagInput) (*TagOutput, error) {
	tag, err := s.services.Tag.Create(ctx, currentUser(ctx), input.Body)
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: mapTag(tag)}, nil
}

func (s *Server) handleListIngredients(ctx context.Context, input *ListIngredientsInput) (*ListIngredientsOutput, error) {
	ingredients, err := s.services.Ingredient.List(ctx, service.ListIngredientsRequest{
		UsedOnly: input.UsedOnly,
		Category: input.Category,
		Search:   input.Search,
		Ordering: input.Ordering,
	})
	if err != nil {
		return nil, err
	}

	mapped := make([]IngredientResponse, 0, len(ingredients))
	for _, ing := range ingredients {
		mapped = append(mapped, mapIngredient(ing))
	}
	return &ListIngredientsOutput{
		Body: ListIngredientsResponse{Ingredients: mapped, Count: len(mapped)},
	}, nil
}
