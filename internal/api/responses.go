package api

import (
	"time"

	"github.com/platefulapp/plateful-server/internal/domain"
)

// MessageResponse carries a bare success message in the envelope.
type MessageResponse struct {
	Message string `json:"-"`
}

func (m MessageResponse) envelopeMessage() string { return m.Message }

// MessageOutput wraps the message response for huma.
type MessageOutput struct {
	Body MessageResponse
}

// UserResponse contains account information in API responses.
type UserResponse struct {
	ID          string     `json:"id" doc:"User ID"`
	Email       string     `json:"email" doc:"Email address"`
	Name        string     `json:"name" doc:"Display name"`
	IsActive    bool       `json:"is_active" doc:"Whether the email is verified"`
	IsStaff     bool       `json:"is_staff" doc:"Whether the user is staff"`
	IsSuperuser bool       `json:"is_superuser" doc:"Whether the user is a superuser"`
	CreatedAt   time.Time  `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt   time.Time  `json:"updated_at" doc:"Last update timestamp"`
	LastLoginAt *time.Time `json:"last_login_at,omitzero" doc:"Last login timestamp"`
}

func mapUser(user *domain.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		IsActive:    user.IsActive,
		IsStaff:     user.IsStaff,
		IsSuperuser: user.IsSuperuser,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
		LastLoginAt: user.LastLoginAt,
	}
}

// TagResponse contains one catalog tag.
type TagResponse struct {
	ID         string    `json:"id" doc:"Tag ID"`
	Name       string    `json:"name" doc:"Normalized tag name"`
	Slug       string    `json:"slug" doc:"URL-safe slug"`
	UsageCount int       `json:"usage_count" doc:"Number of recipes using this tag"`
	CreatedAt  time.Time `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt  time.Time `json:"updated_at" doc:"Last update timestamp"`
}

func mapTag(tag *domain.Tag) TagResponse {
	return TagResponse{
		ID:         tag.ID,
		Name:       tag.Name,
		Slug:       tag.Slug,
		UsageCount: tag.UsageCount,
		CreatedAt:  tag.CreatedAt,
		UpdatedAt:  tag.UpdatedAt,
	}
}

// IngredientResponse contains one catalog ingredient.
type IngredientResponse struct {
	ID         string    `json:"id" doc:"Ingredient ID"`
	Name       string    `json:"name" doc:"Normalized ingredient name"`
	Category   string    `json:"category,omitzero" doc:"Optional category"`
	UsageCount int       `json:"usage_count" doc:"Number of recipes using this ingredient"`
	CreatedAt  time.Time `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt  time.Time `json:"updated_at" doc:"Last update timestamp"`
}

func mapIngredient(ing *domain.Ingredient) IngredientResponse {
	return IngredientResponse{
		ID:         ing.ID,
		Name:       ing.Name,
		Category:   ing.Category,
		UsageCount: ing.UsageCount,
		CreatedAt:  ing.CreatedAt,
		UpdatedAt:  ing.UpdatedAt,
	}
}

// IngredientLineResponse is one ingredient line on a recipe.
type IngredientLineResponse struct {
	IngredientID string `json:"ingredient_id" doc:"Catalog ingredient ID"`
	Name         string `json:"name" doc:"Ingredient name"`
	Quantity     string `json:"quantity" doc:"Free-text amount"`
	Notes        string `json:"notes,omitzero" doc:"Optional preparation notes"`
}

// RecipeResponse contains a full recipe with its associations.
type RecipeResponse struct {
	ID            string                   `json:"id" doc:"Recipe ID"`
	OwnerID       string                   `json:"owner_id" doc:"Owning user ID"`
	Title         string                   `json:"title" doc:"Recipe title"`
	Description   string                   `json:"description" doc:"Short description"`
	Instructions  string                   `json:"instructions" doc:"Preparation instructions"`
	TimeMinutes   int                      `json:"time_minutes" doc:"Total preparation time in minutes"`
	Difficulty    string                   `json:"difficulty" doc:"One of easy, medium, hard"`
	Servings      int                      `json:"servings" doc:"Number of servings"`
	IsPublic      bool                     `json:"is_public" doc:"Whether the recipe is publicly visible"`
	HasImage      bool                     `json:"has_image" doc:"Whether an image has been uploaded"`
	ImageBlurhash string                   `json:"image_blurhash,omitzero" doc:"Blurhash placeholder for the image"`
	Tags          []TagResponse            `json:"tags" doc:"Associated tags"`
	Ingredients   []IngredientLineResponse `json:"ingredients" doc:"Ingredient lines"`
	CreatedAt     time.Time                `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt     time.Time                `json:"updated_at" doc:"Last update timestamp"`
}

func mapRecipe(recipe *domain.Recipe) RecipeResponse {
	tags := make([]TagResponse, 0, len(recipe.Tags))
	for _, t := range recipe.Tags {
		tags = append(tags, mapTag(t))
	}
	lines := make([]IngredientLineResponse, 0, len(recipe.Ingredients))
	for _, l := range recipe.Ingredients {
		lines = append(lines, IngredientLineResponse{
			IngredientID: l.IngredientID,
			Name:         l.Name,
			Quantity:     l.Quantity,
			Notes:        l.Notes,
		})
	}
	return RecipeResponse{
		ID:            recipe.ID,
		OwnerID:       recipe.OwnerID,
		Title:         recipe.Title,
		Description:   recipe.Description,
		Instructions:  recipe.Instructions,
		TimeMinutes:   recipe.TimeMinutes,
		Difficulty:    string(recipe.Difficulty),
		Servings:      recipe.Servings,
		IsPublic:      recipe.IsPublic,
		HasImage:      recipe.HasImage(),
		ImageBlurhash: recipe.ImageBlurhash,
		Tags:          tags,
		Ingredients:   lines,
		CreatedAt:     recipe.CreatedAt,
		UpdatedAt:     recipe.UpdatedAt,
	}
}

func mapRecipes(recipes []*domain.Recipe) []RecipeResponse {
	out := make([]RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, mapRecipe(r))
	}
	return out
}
