package api

import (
	"github.com/platefulapp/plateful-server/internal/service"
)

// Services groups the business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth       *service.AuthService
	Profile    *service.ProfileService
	Recipe     *service.RecipeService
	Tag        *service.TagService
	Ingredient *service.IngredientService
}
