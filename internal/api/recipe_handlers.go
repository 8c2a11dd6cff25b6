package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/platefulapp/plateful-server/internal/http/response"
	"github.com/platefulapp/plateful-server/internal/service"
)

func (s *Server) registerRecipeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listRecipes",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes",
		Summary:     "List recipes",
		Description: "Returns recipes visible to the caller: public ones plus, when authenticated, the caller's private ones. Superusers see everything.",
		Tags:        []string{"Recipes"},
	}, s.handleListRecipes)

	huma.Register(s.api, huma.Operation{
		OperationID: "createRecipe",
		Method:      http.MethodPost,
		Path:        "/api/v1/recipes",
		Summary:     "Create recipe",
		Description: "Creates a recipe with its tags and ingredient lines in one transaction",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecipe",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Get recipe",
		Description: "Returns a single recipe. Private recipes are reported as missing to anyone but the owner or a superuser.",
		Tags:        []string{"Recipes"},
	}, s.handleGetRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateRecipe",
		Method:      http.MethodPatch,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Update recipe",
		Description: "Applies partial updates. Providing tags or ingredients replaces those associations entirely.",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteRecipe",
		Method:      http.MethodDelete,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Delete recipe",
		Description: "Deletes a recipe, releasing its tag and ingredient usage",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "uploadRecipeImage",
		Method:      http.MethodPost,
		Path:        "/api/v1/recipes/{id}/image",
		Summary:     "Upload recipe image",
		Description: "Accepts a JPEG or PNG up to 5 MiB, stores it as JPEG, and records a blurhash placeholder",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUploadRecipeImage)

	// Image serving uses chi directly for raw bytes and conditional GETs.
	s.router.Get("/api/v1/recipes/{id}/image", s.handleServeRecipeImage)
}

// === DTOs ===

// ListRecipesInput holds the recipe list query parameters.
// Numeric values stay strings so malformed input is rejected with an error
// naming the parameter.
type ListRecipesInput struct {
	Tags        string `query:"tags" doc:"CSV of tag names, any-match"`
	Ingredients string `query:"ingredients" doc:"CSV of ingredient names, any-match"`
	Difficulty  string `query:"difficulty" doc:"Filter by difficulty"`
	MaxTime     string `query:"max_time" doc:"Maximum preparation time in minutes"`
	MinServings string `query:"min_servings" doc:"Minimum number of servings"`
	MyRecipes   bool   `query:"my_recipes" doc:"Only the caller's recipes (requires authentication)"`
	UserID      string `query:"user_id" doc:"Only recipes owned by this user"`
	Search      string `query:"search" doc:"Substring match on title, description, and instructions"`
	Ordering    string `query:"ordering" doc:"Sort field: title, time_minutes, or created_at; prefix with - for descending"`
	Limit       string `query:"limit" doc:"Page size (default 50, max 100)"`
	Offset      string `query:"offset" doc:"Page offset"`
}

// ListRecipesResponse contains a page of recipes.
type ListRecipesResponse struct {
	Recipes []RecipeResponse `json:"recipes" doc:"Matching recipes"`
	Count   int              `json:"count" doc:"Number of recipes in this page"`
}

// ListRecipesOutput wraps the list response for huma.
type ListRecipesOutput struct {
	Body ListRecipesResponse
}

// CreateRecipeInput wraps the creation request for huma.
type CreateRecipeInput struct {
	Body service.CreateRecipeRequest
}

// RecipeInput identifies a recipe by path.
type RecipeInput struct {
	ID string `path:"id" doc:"Recipe ID"`
}

// UpdateRecipeInput wraps a partial update for huma.
type UpdateRecipeInput struct {
	ID   string `path:"id" doc:"Recipe ID"`
	Body service.UpdateRecipeRequest
}

// UploadRecipeImageInput carries the raw image bytes.
type UploadRecipeImageInput struct {
	ID      string `path:"id" doc:"Recipe ID"`
	RawBody []byte
}

// RecipeOutput wraps a single recipe for huma.
type RecipeOutput struct {
	Body RecipeResponse
}

// === Handlers ===

func (s *Server) handleListRecipes(ctx context.Context, input *ListRecipesInput) (*ListRecipesOutput, error) {
	recipes, err := s.services.Recipe.List(ctx, currentUser(ctx), service.ListRecipesRequest{
		Tags:        input.Tags,
		Ingredients: input.Ingredients,
		Difficulty:  input.Difficulty,
		MaxTime:     input.MaxTime,
		MinServings: input.MinServings,
		MyRecipes:   input.MyRecipes,
		UserID:      input.UserID,
		Search:      input.Search,
		Ordering:    input.Ordering,
		Limit:       input.Limit,
		Offset:      input.Offset,
	})
	if err != nil {
		return nil, err
	}

	mapped := mapRecipes(recipes)
	return &ListRecipesOutput{
		Body: ListRecipesResponse{
			Recipes: mapped,
			Count:   len(mapped),
		},
	}, nil
}

func (s *Server) handleCreateRecipe(ctx context.Context, input *CreateRecipeInput) (*RecipeOutput, error) {
	caller, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.Create(ctx, caller, input.Body)
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipe(recipe)}, nil
}

func (s *Server) handleGetRecipe(ctx context.Context, input *RecipeInput) (*RecipeOutput, error) {
	recipe, err := s.services.Recipe.Get(ctx, currentUser(ctx), input.ID)
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipe(recipe)}, nil
}

func (s *Server) handleUpdateRecipe(ctx context.Context, input *UpdateRecipeInput) (*RecipeOutput, error) {
	recipe, err := s.services.Recipe.Update(ctx, currentUser(ctx), input.ID, input.Body)
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipe(recipe)}, nil
}

func (s *Server) handleDeleteRecipe(ctx context.Context, input *RecipeInput) (*MessageOutput, error) {
	if err := s.services.Recipe.Delete(ctx, currentUser(ctx), input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Recipe deleted."}}, nil
}

func (s *Server) handleUploadRecipeImage(ctx context.Context, input *UploadRecipeImageInput) (*RecipeOutput, error) {
	caller, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.UploadImage(ctx, caller, input.ID, input.RawBody)
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipe(recipe)}, nil
}

// handleServeRecipeImage streams the stored JPEG with an ETag for
// conditional requests. Visibility rules match the recipe itself.
func (s *Server) handleServeRecipeImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	data, etag, err := s.services.Recipe.GetImage(r.Context(), currentUser(r.Context()), id)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	quoted := `"` + etag + `"`
	if r.Header.Get("If-None-Match") == quoted {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.Header().Set("ETag", quoted)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("Failed to write image response", "recipe_id", id, "error", err)
	}
}
