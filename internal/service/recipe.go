package service

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/platefulapp/plateful-server/internal/domain"
	domainerrors "github.com/platefulapp/plateful-server/internal/errors"
	"github.com/platefulapp/plateful-server/internal/id"
	"github.com/platefulapp/plateful-server/internal/media/images"
	"github.com/platefulapp/plateful-server/internal/normalize"
	"github.com/platefulapp/plateful-server/internal/store"
)

// Quantity strings are free text but constrained: they must contain an
// actual amount (digit or vulgar fraction) and stick to a safe charset.
var (
	quantityCharset = regexp.MustCompile(`^[0-9a-zA-Z\s.,/()\-\x{00BC}-\x{00BE}\x{2150}-\x{215E}]+$`)
	quantityAmount  = regexp.MustCompile(`[0-9\x{00BC}-\x{00BE}\x{2150}-\x{215E}]`)
)

// RecipeService manages the recipe aggregate: scalar fields, tag
// associations, ingredient lines, and the uploaded image.
type RecipeService struct {
	store  store.Store
	images *images.Storage
	logger *slog.Logger
}

// NewRecipeService creates a new recipe service.
func NewRecipeService(store store.Store, imageStorage *images.Storage, logger *slog.Logger) *RecipeService {
	return &RecipeService{
		store:  store,
		images: imageStorage,
		logger: logger,
	}
}

// IngredientLineRequest is one ingredient entry in a recipe payload.
type IngredientLineRequest struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Notes    string `json:"notes,omitempty"`
}

// IngredientLines accepts either a JSON array of ingredient lines or a JSON
// string containing the encoded array. Multipart/form clients can only send
// strings, so both encodings converge on the same representation here.
type IngredientLines []IngredientLineRequest

// UnmarshalJSON implements the dual decoding described above.
func (l *IngredientLines) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "\"") {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		var lines []IngredientLineRequest
		if err := json.Unmarshal([]byte(encoded), &lines); err != nil {
			return fmt.Errorf("ingredients string is not a valid JSON array: %w", err)
		}
		*l = lines
		return nil
	}

	var lines []IngredientLineRequest
	if err := json.Unmarshal(data, &lines); err != nil {
		return err
	}
	*l = lines
	return nil
}

// CreateRecipeRequest is the payload for recipe creation.
type CreateRecipeRequest struct {
	Title        string          `json:"title" validate:"required,min=3,max=200"`
	Description  string          `json:"description"`
	Instructions string          `json:"instructions" validate:"required,min=10"`
	TimeMinutes  int             `json:"time_minutes" validate:"required,gte=1,lte=1440"`
	Difficulty   string          `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Servings     int             `json:"servings" validate:"required,gte=1,lte=50"`
	IsPublic     bool            `json:"is_public"`
	Tags         []string        `json:"tags"`
	Ingredients  IngredientLines `json:"ingredients"`
}

// UpdateRecipeRequest carries partial recipe updates. Nil fields are left
// unchanged; providing tags or ingredients replaces those associations
// entirely.
type UpdateRecipeRequest struct {
	Title        *string          `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Description  *string          `json:"description,omitempty"`
	Instructions *string          `json:"instructions,omitempty" validate:"omitempty,min=10"`
	TimeMinutes  *int             `json:"time_minutes,omitempty" validate:"omitempty,gte=1,lte=1440"`
	Difficulty   *string          `json:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard"`
	Servings     *int             `json:"servings,omitempty" validate:"omitempty,gte=1,lte=50"`
	IsPublic     *bool            `json:"is_public,omitempty"`
	Tags         *[]string        `json:"tags,omitempty"`
	Ingredients  *IngredientLines `json:"ingredients,omitempty"`
}

// Create validates and persists a new recipe with its associations.
// Everything lands in one store transaction; a failed tag or ingredient
// write rolls the recipe back too.
func (s *RecipeService) Create(ctx context.Context, caller *domain.User, req CreateRecipeRequest) (*domain.Recipe, error) {
	if caller == nil {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	tags, err := normalizeTagNames(req.Tags)
	if err != nil {
		return nil, err
	}

	if len(req.Ingredients) == 0 {
		return nil, domainerrors.Validation("at least one ingredient is required")
	}
	lines, err := normalizeIngredientLines(req.Ingredients)
	if err != nil {
		return nil, err
	}

	recipeID, err := id.Generate("recipe")
	if err != nil {
		return nil, fmt.Errorf("generate recipe ID: %w", err)
	}

	recipe := &domain.Recipe{
		Model:        domain.Model{ID: recipeID},
		OwnerID:      caller.ID,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Instructions: req.Instructions,
		TimeMinutes:  req.TimeMinutes,
		Difficulty:   domain.Difficulty(req.Difficulty),
		Servings:     req.Servings,
		IsPublic:     req.IsPublic,
	}
	recipe.InitTimestamps()

	if err := s.store.CreateRecipe(ctx, recipe, tags, lines); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("you already have a recipe with this title")
		}
		return nil, fmt.Errorf("create recipe: %w", err)
	}

	created, err := s.store.GetRecipe(ctx, recipe.ID)
	if err != nil {
		return nil, fmt.Errorf("reload recipe: %w", err)
	}

	s.logger.Info("Recipe created",
		"recipe_id", recipe.ID,
		"owner_id", caller.ID,
		"title", recipe.Title,
	)
	return created, nil
}

// Get returns a single recipe. Private recipes are reported as missing to
// anyone but the owner or a superuser so their existence doesn't leak.
func (s *RecipeService) Get(ctx context.Context, caller *domain.User, recipeID string) (*domain.Recipe, error) {
	recipe, err := s.loadVisible(ctx, caller, recipeID)
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// ListRecipesRequest holds the raw query parameters for recipe listings.
// Numeric fields arrive as strings so malformed values can be rejected with
// an error naming the offending parameter.
type ListRecipesRequest struct {
	Tags        string // CSV of tag names, any-match
	Ingredients string // CSV of ingredient names, any-match
	Difficulty  string
	MaxTime     string
	MinServings string
	MyRecipes   bool
	UserID      string
	Search      string
	Ordering    string
	Limit       string
	Offset      string
}

// recipeOrderings is the whitelist of sortable recipe fields.
var recipeOrderings = map[string]bool{
	"title":        true,
	"time_minutes": true,
	"created_at":   true,
}

// List returns the recipes visible to the caller, filtered and ordered.
func (s *RecipeService) List(ctx context.Context, caller *domain.User, req ListRecipesRequest) ([]*domain.Recipe, error) {
	filter := store.RecipeFilter{
		Tags:        splitNames(req.Tags),
		Ingredients: splitNames(req.Ingredients),
		Search:      strings.TrimSpace(req.Search),
		Ordering:    req.Ordering,
	}

	if req.Difficulty != "" {
		if !domain.Difficulty(req.Difficulty).Valid() {
			return nil, domainerrors.Validationf("invalid difficulty %q", req.Difficulty)
		}
		filter.Difficulty = req.Difficulty
	}

	var err error
	if filter.MaxTime, err = parseQueryInt("max_time", req.MaxTime, 1); err != nil {
		return nil, err
	}
	if filter.MinServings, err = parseQueryInt("min_servings", req.MinServings, 1); err != nil {
		return nil, err
	}
	if filter.Limit, err = parseQueryInt("limit", req.Limit, 1); err != nil {
		return nil, err
	}
	if filter.Offset, err = parseQueryInt("offset", req.Offset, 0); err != nil {
		return nil, err
	}

	if err := checkOrdering(req.Ordering, recipeOrderings); err != nil {
		return nil, err
	}

	if req.MyRecipes {
		if caller == nil {
			return nil, domainerrors.Validation("my_recipes requires authentication")
		}
		filter.OwnerID = caller.ID
	} else if req.UserID != "" {
		filter.OwnerID = req.UserID
		// Browsing another user's recipes only ever shows their public ones,
		// unless the caller is that user or a superuser.
		if caller == nil || (!caller.IsSuperuser && caller.ID != req.UserID) {
			filter.PublicOnly = true
		}
	}

	recipes, err := s.store.ListRecipes(ctx, callerOf(caller), filter)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

// Update applies partial changes to a recipe the caller may write.
// Provided tag/ingredient lists replace the current associations wholesale:
// current usage counts are decremented, associations dropped, and the new
// lists re-associated through get-or-create.
func (s *RecipeService) Update(ctx context.Context, caller *domain.User, recipeID string, req UpdateRecipeRequest) (*domain.Recipe, error) {
	recipe, err := s.loadWritable(ctx, caller, recipeID)
	if err != nil {
		return nil, err
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	if req.Title != nil {
		recipe.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		recipe.Description = *req.Description
	}
	if req.Instructions != nil {
		recipe.Instructions = *req.Instructions
	}
	if req.TimeMinutes != nil {
		recipe.TimeMinutes = *req.TimeMinutes
	}
	if req.Difficulty != nil {
		recipe.Difficulty = domain.Difficulty(*req.Difficulty)
	}
	if req.Servings != nil {
		recipe.Servings = *req.Servings
	}
	if req.IsPublic != nil {
		recipe.IsPublic = *req.IsPublic
	}
	recipe.Touch()

	var replay store.AssociationReplay
	if req.Tags != nil {
		tags, err := normalizeTagNames(*req.Tags)
		if err != nil {
			return nil, err
		}
		replay.Tags = tags
		replay.TagsProvided = true
	}
	if req.Ingredients != nil {
		lines, err := normalizeIngredientLines(*req.Ingredients)
		if err != nil {
			return nil, err
		}
		replay.Ingredients = lines
		replay.IngredientsProvided = true
	}

	if err := s.store.UpdateRecipe(ctx, recipe, replay); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("you already have a recipe with this title")
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("update recipe: %w", err)
	}

	updated, err := s.store.GetRecipe(ctx, recipe.ID)
	if err != nil {
		return nil, fmt.Errorf("reload recipe: %w", err)
	}

	s.logger.Info("Recipe updated", "recipe_id", recipe.ID, "by", caller.ID)
	return updated, nil
}

// Delete removes a recipe the caller may write, releasing its tag and
// ingredient usage. The stored image is removed best-effort afterwards.
func (s *RecipeService) Delete(ctx context.Context, caller *domain.User, recipeID string) error {
	recipe, err := s.loadWritable(ctx, caller, recipeID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteRecipe(ctx, recipe.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("recipe not found")
		}
		return fmt.Errorf("delete recipe: %w", err)
	}

	if recipe.HasImage() {
		if err := s.images.Delete(recipe.ID); err != nil {
			s.logger.Warn("Failed to delete recipe image",
				"recipe_id", recipe.ID,
				"error", err,
			)
		}
	}

	s.logger.Info("Recipe deleted", "recipe_id", recipe.ID, "by", caller.ID)
	return nil
}

// UploadImage stores an image for the recipe and records its blurhash
// placeholder. JPEG and PNG are accepted; everything is stored as JPEG.
func (s *RecipeService) UploadImage(ctx context.Context, caller *domain.User, recipeID string, data []byte) (*domain.Recipe, error) {
	recipe, err := s.loadWritable(ctx, caller, recipeID)
	if err != nil {
		return nil, err
	}

	format, err := images.Validate(data)
	if err != nil {
		return nil, domainerrors.Validationf("invalid image: %v", err)
	}

	jpegData, err := images.NormalizeToJPEG(data, format)
	if err != nil {
		return nil, fmt.Errorf("normalize image: %w", err)
	}

	hash, err := images.ComputeBlurHash(jpegData)
	if err != nil {
		return nil, fmt.Errorf("compute blurhash: %w", err)
	}

	if err := s.images.Save(recipe.ID, jpegData); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	if err := s.store.SetRecipeImage(ctx, recipe.ID, s.images.Path(recipe.ID), hash); err != nil {
		return nil, fmt.Errorf("record image: %w", err)
	}

	updated, err := s.store.GetRecipe(ctx, recipe.ID)
	if err != nil {
		return nil, fmt.Errorf("reload recipe: %w", err)
	}

	s.logger.Info("Recipe image uploaded", "recipe_id", recipe.ID, "by", caller.ID)
	return updated, nil
}

// GetImage returns the stored image bytes and a content hash usable as an
// ETag. Visibility rules match Get.
func (s *RecipeService) GetImage(ctx context.Context, caller *domain.User, recipeID string) (data []byte, etag string, err error) {
	recipe, err := s.loadVisible(ctx, caller, recipeID)
	if err != nil {
		return nil, "", err
	}
	if !recipe.HasImage() {
		return nil, "", domainerrors.NotFound("recipe has no image")
	}

	data, err = s.images.Get(recipe.ID)
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	etag, err = s.images.Hash(recipe.ID)
	if err != nil {
		return nil, "", fmt.Errorf("hash image: %w", err)
	}
	return data, etag, nil
}

// loadVisible fetches a recipe and enforces read visibility.
func (s *RecipeService) loadVisible(ctx context.Context, caller *domain.User, recipeID string) (*domain.Recipe, error) {
	recipe, err := s.store.GetRecipe(ctx, recipeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	if !recipe.VisibleTo(caller) {
		// Hidden, not forbidden: existence of private recipes doesn't leak.
		return nil, domainerrors.NotFound("recipe not found")
	}
	return recipe, nil
}

// loadWritable fetches a recipe and enforces write access.
func (s *RecipeService) loadWritable(ctx context.Context, caller *domain.User, recipeID string) (*domain.Recipe, error) {
	if caller == nil {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	recipe, err := s.loadVisible(ctx, caller, recipeID)
	if err != nil {
		return nil, err
	}
	if !recipe.WritableBy(caller) {
		return nil, domainerrors.Forbidden("you may only modify your own recipes")
	}
	return recipe, nil
}

// callerOf converts an optional user into the store's caller identity.
func callerOf(user *domain.User) store.Caller {
	if user == nil {
		return store.Caller{}
	}
	return store.Caller{UserID: user.ID, IsSuperuser: user.IsSuperuser}
}

// normalizeTagNames normalizes, validates, and de-duplicates tag names.
func normalizeTagNames(raw []string) ([]string, error) {
	seen := make(map[string]bool, len(raw))
	tags := make([]string, 0, len(raw))
	for _, name := range raw {
		n := normalize.Name(name)
		if len(n) < domain.TagNameMinLen || len(n) > domain.TagNameMaxLen {
			return nil, domainerrors.Validationf("tag name %q must be between %d and %d characters",
				name, domain.TagNameMinLen, domain.TagNameMaxLen)
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		tags = append(tags, n)
	}
	return tags, nil
}

// normalizeIngredientLines normalizes names and validates each line.
// Duplicate ingredient names within one submission are rejected rather than
// silently merged, since their quantities would conflict.
func normalizeIngredientLines(raw IngredientLines) ([]store.IngredientLine, error) {
	seen := make(map[string]bool, len(raw))
	lines := make([]store.IngredientLine, 0, len(raw))
	for _, line := range raw {
		n := normalize.Name(line.Name)
		if len(n) < domain.IngredientNameMinLen || len(n) > domain.IngredientNameMaxLen {
			return nil, domainerrors.Validationf("ingredient name %q must be between %d and %d characters",
				line.Name, domain.IngredientNameMinLen, domain.IngredientNameMaxLen)
		}
		if seen[n] {
			return nil, domainerrors.Validationf("duplicate ingredient %q in submission", n)
		}
		seen[n] = true

		if err := validateQuantity(n, line.Quantity); err != nil {
			return nil, err
		}

		lines = append(lines, store.IngredientLine{
			Name:     n,
			Quantity: strings.TrimSpace(line.Quantity),
			Notes:    strings.TrimSpace(line.Notes),
		})
	}
	return lines, nil
}

// validateQuantity enforces the quantity format rules for one line.
func validateQuantity(ingredient, quantity string) error {
	q := strings.TrimSpace(quantity)
	if q == "" {
		return domainerrors.Validationf("quantity is required for ingredient %q", ingredient)
	}
	if len(q) > domain.RecipeQuantityMaxLen {
		return domainerrors.Validationf("quantity for %q exceeds %d characters", ingredient, domain.RecipeQuantityMaxLen)
	}
	if !quantityCharset.MatchString(q) {
		return domainerrors.Validationf("quantity for %q contains invalid characters", ingredient)
	}
	if !quantityAmount.MatchString(q) {
		return domainerrors.Validationf("quantity for %q must include an amount", ingredient)
	}
	return nil
}

// splitNames splits a CSV parameter into normalized, non-empty names.
func splitNames(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if n := normalize.Name(p); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// parseQueryInt parses an optional integer query parameter, rejecting
// malformed or out-of-range values with the parameter's name.
func parseQueryInt(name, value string, minimum int) (int, error) {
	if strings.TrimSpace(value) == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, domainerrors.Validationf("%s must be an integer", name)
	}
	if n < minimum {
		return 0, domainerrors.Validationf("%s must be at least %d", name, minimum)
	}
	return n, nil
}
