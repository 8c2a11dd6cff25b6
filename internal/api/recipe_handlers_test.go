package api

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validRecipeBody returns a creation payload that passes all validation.
func validRecipeBody() map[string]any {
	return map[string]any{
		"title":        "Lentil Soup",
		"description":  "A weeknight staple.",
		"instructions": "Soften the onions, add lentils and stock, simmer 30 minutes.",
		"time_minutes": 45,
		"difficulty":   "easy",
		"servings":     4,
		"is_public":    true,
		"tags":         []string{"Soup", "Comfort Food"},
		"ingredients": []map[string]any{
			{"name": "Red Lentils", "quantity": "200 g"},
			{"name": "Onion", "quantity": "1", "notes": "finely diced"},
		},
	}
}

// createRecipe posts a recipe and returns its ID.
func createRecipe(t *testing.T, ts *testServer, token string, body map[string]any) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/recipes", body, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var env testEnvelope[RecipeResponse]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &env))
	require.NotEmpty(t, env.Data.ID)
	return env.Data.ID
}

// testJPEG encodes a small two-tone JPEG for upload tests.
func testJPEG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			c := color.RGBA{R: 200, G: 80, B: 40, A: 255}
			if x > 16 {
				c = color.RGBA{R: 40, G: 80, B: 200, A: 255}
			}
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestCreateRecipe(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerAndVerify(t, "cook@example.com")
	token := ts.login(t, "cook@example.com")

	resp := ts.api.Post("/api/v1/recipes", validRecipeBody(), "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var env testEnvelope[RecipeResponse]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &env))
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, "Lentil Soup", env.Data.Title)
	assert.Equal(t, "easy", env.Data.Difficulty)
	assert.False(t, env.Data.HasImage)

	// Tags come back normalized.
	require.Len(t, env.Data.Tags, 2)
	names := []string{env.Data.Tags[0].Name, env.Data.Tags[1].Name}
	assert.ElementsMatch(t, []string{"soup", "comfort food"}, names)

	// Ingredient lines keep their order and notes.
	require.Len(t, env.Data.Ingredients, 2)
	assert.Equal(t, "red lentils", env.Data.Ingredients[0].Name)
	assert.Equal(t, "200 g", env.Data.Ingredients[0].Quantity)
	assert.Equal(t, "finely diced", env.Data.Ingredients[1].Notes)
}

func TestCreateRecipe_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/recipes", validRecipeBody())
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	var env testEnvelope[struct{}]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &env))
	assert.Equal(t, "authentication_required", env.Error)
}

func TestCreateRecipe_ValidationErrors(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerAndVerify(t, "cook@example.com")
	token := ts.login(t, "cook@example.com")

	body := validRecipeBody()
	body["ingredients"] = []map[string]any{}
	resp := ts.api.Post("/api/v1/recipes", body, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	body = validRecipeBody()
	body["difficulty"] = "impossible"
	resp = ts.api.Post("/api/v1/recipes", body, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	var env testEnvelope[struct{}]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &env))
	assert.Equal(t, "validation_failed", env.Error)
}

func TestCreateRecipe_DuplicateTitle(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerAndVerify(t, "cook@example.com")
	token := ts.login(t, "cook@example.com")
	createRecipe(t, ts, token, validRecipeBody())

	body := validRecipeBody()
	body["title"] = "LENTIL SOUP"
	resp := ts.api.Post("/api/v1/recipes", body, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusConflict, resp.Code)

	var env testEnvelope[struct{}]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &env))
	assert.Equal(t, "conflict", env.Error)
}

func TestRecipeVisibility(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerAndVerify(t, "owner@example.com")
	ownerToken := ts.login(t, "owner@example.com")
	ts.registerAndVerify(t, "viewer@example.com")
	viewerToken := ts.login(t, "viewer@example.com")

	publicID := createRecipe(t, ts, ownerToken, validRecipeBody())

	privateBody := validRecipeBody()
	privateBody["title"] = "Secret Stew"
	privateBody["is_public"] = false
	privateID := createRecipe(t, ts, ownerToken, privateBody)

	// Anonymous list sees only the public recipe.
	resp := ts.api.Get("/api/v1/recipes")
	require.Equal(t, http.StatusOK, resp.Code)

	var listEnv testEnvelope[ListRecipesResponse]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &listEnv))
	require.Equal(t, 1, listEnv.Data.Count)
	assert.Equal(t, publicID, listEnv.Data.Recipes[0].ID)

	// The owner sees both.
	resp = ts.api.Get("/api/v1/recipes", "Authorization: Bearer "+ownerToken)
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &listEnv))
	assert.Equal(t, 2, listEnv.Data.Count)

	// A private recipe reads as missing to everyone else.
	for _, headers := range [][]string{
		nil,
		{"Authorization: Bearer " + viewerToken},
	} {
		args := make([]any, 0, len(headers))
		for _, h := range headers {
			args = append(args, h)
		}
		resp = ts.api.Get("/api/v1/recipes/"+privateID, args...)
		assert.Equal(t, http.StatusNotFound, resp.Code)

		var env testEnvelope[struct{}]
		require.NoError(t, unmarshalBody(resp.Body.Bytes(), &env))
		assert.Equal(t, "not_found", env.Error)
	}

	// The owner still reads it.
	resp = ts.api.Get("/api/v1/recipes/"+privateID, "Authorization: Bearer "+ownerToken)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestListRecipes_Filters(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerAndVerify(t, "cook@example.com")
	token := ts.login(t, "cook@example.com")

	createRecipe(t, ts, token, validRecipeBody())

	quick := validRecipeBody()
	quick["title"] = "Five Minute Salad"
	quick["time_minutes"] = 5
	quick["tags"] = []string{"Salad"}
	quick["ingredients"] = []map[string]any{
		{"name": "Lettuce", "quantity": "1 head"},
	}
	createRecipe(t, ts, token, quick)

	resp := ts.api.Get("/api/v1/recipes?max_time=10")
	require.Equal(t, http.StatusOK, resp.Code)

	var listEnv testEnvelope[ListRecipesResponse]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &listEnv))
	require.Equal(t, 1, listEnv.Data.Count)
	assert.Equal(t, "Five Minute Salad", listEnv.Data.Recipes[0].Title)

	resp = ts.api.Get("/api/v1/recipes?tags=Soup")
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &listEnv))
	require.Equal(t, 1, listEnv.Data.Count)
	assert.Equal(t, "Lentil Soup", listEnv.Data.Recipes[0].Title)

	// Malformed numeric filters name the offending parameter.
	resp = ts.api.Get("/api/v1/recipes?max_time=soon")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	var errEnv testEnvelope[struct{}]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &errEnv))
	assert.Equal(t, "validation_failed", errEnv.Error)
	assert.Contains(t, errEnv.Message, "max_time")

	// my_recipes requires authentication.
	resp = ts.api.Get("/api/v1/recipes?my_recipes=true")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &errEnv))
	assert.Contains(t, errEnv.Message, "my_recipes")

	resp = ts.api.Get("/api/v1/recipes?my_recipes=true", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestUpdateRecipe_Permissions(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerAndVerify(t, "owner@example.com")
	ownerToken := ts.login(t, "owner@example.com")
	ts.registerAndVerify(t, "other@example.com")
	otherToken := ts.login(t, "other@example.com")
	superToken := ts.createSuperuser(t, "admin@example.com")

	recipeID := createRecipe(t, ts, ownerToken, validRecipeBody())

	// Anonymous update is unauthorized.
	resp := ts.api.Patch("/api/v1/recipes/"+recipeID, map[string]any{"title": "Hijacked"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	// Another public-recipe reader may not modify it.
	resp = ts.api.Patch("/api/v1/recipes/"+recipeID,
		map[string]any{"title": "Hijacked"},
		"Authorization: Bearer "+otherToken)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	var env testEnvelope[struct{}]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &env))
	assert.Equal(t, "permission_denied", env.Error)

	// The owner can update; tags provided replace the association.
	resp = ts.api.Patch("/api/v1/recipes/"+recipeID,
		map[string]any{"title": "Winter Lentil Soup", "tags": []string{"Soup", "Winter"}},
		"Authorization: Bearer "+ownerToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var recipeEnv testEnvelope[RecipeResponse]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &recipeEnv))
	assert.Equal(t, "Winter Lentil Soup", recipeEnv.Data.Title)
	names := make([]string, 0, len(recipeEnv.Data.Tags))
	for _, tag := range recipeEnv.Data.Tags {
		names = append(names, tag.Name)
	}
	assert.ElementsMatch(t, []string{"soup", "winter"}, names)

	// Superusers can modify anyone's recipe.
	resp = ts.api.Patch("/api/v1/recipes/"+recipeID,
		map[string]any{"servings": 6},
		"Authorization: Bearer "+superToken)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestDeleteRecipe_ReleasesCatalogUsage(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerAndVerify(t, "cook@example.com")
	token := ts.login(t, "cook@example.com")

	recipeID := createRecipe(t, ts, token, validRecipeBody())

	resp := ts.api.Get("/api/v1/tags?used_only=true")
	var tagsEnv testEnvelope[ListTagsResponse]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &tagsEnv))
	assert.Equal(t, 2, tagsEnv.Data.Count)

	resp = ts.api.Delete("/api/v1/recipes/"+recipeID, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/recipes/" + recipeID)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	// Tags remain in the catalog but are no longer in use.
	resp = ts.api.Get("/api/v1/tags?used_only=true")
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &tagsEnv))
	assert.Equal(t, 0, tagsEnv.Data.Count)

	resp = ts.api.Get("/api/v1/tags")
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &tagsEnv))
	assert.Equal(t, 2, tagsEnv.Data.Count)
}

func TestRecipeImageLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerAndVerify(t, "owner@example.com")
	ownerToken := ts.login(t, "owner@example.com")
	ts.registerAndVerify(t, "other@example.com")
	otherToken := ts.login(t, "other@example.com")

	recipeID := createRecipe(t, ts, ownerToken, validRecipeBody())

	// No image yet.
	resp := ts.api.Get("/api/v1/recipes/" + recipeID + "/image")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	// Only the owner may upload.
	resp = ts.api.Post("/api/v1/recipes/"+recipeID+"/image",
		bytes.NewReader(testJPEG(t)),
		"Content-Type: image/jpeg",
		"Authorization: Bearer "+otherToken)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	// Garbage bytes are rejected.
	resp = ts.api.Post("/api/v1/recipes/"+recipeID+"/image",
		bytes.NewReader([]byte("not an image")),
		"Content-Type: image/jpeg",
		"Authorization: Bearer "+ownerToken)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// A valid upload records the blurhash placeholder.
	resp = ts.api.Post("/api/v1/recipes/"+recipeID+"/image",
		bytes.NewReader(testJPEG(t)),
		"Content-Type: image/jpeg",
		"Authorization: Bearer "+ownerToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var env testEnvelope[RecipeResponse]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &env))
	assert.True(t, env.Data.HasImage)
	assert.NotEmpty(t, env.Data.ImageBlurhash)

	// Anyone can fetch a public recipe's image; the ETag enables caching.
	resp = ts.api.Get("/api/v1/recipes/" + recipeID + "/image")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "image/jpeg", resp.Header().Get("Content-Type"))
	etag := resp.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.NotEmpty(t, resp.Body.Bytes())

	resp = ts.api.Get("/api/v1/recipes/"+recipeID+"/image", "If-None-Match: "+etag)
	assert.Equal(t, http.StatusNotModified, resp.Code)
}

func TestCreateTag_Permissions(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerAndVerify(t, "cook@example.com")
	token := ts.login(t, "cook@example.com")
	superToken := ts.createSuperuser(t, "admin@example.com")

	// Anonymous and regular users may not create tags directly.
	resp := ts.api.Post("/api/v1/tags", map[string]any{"name": "Vegan"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Post("/api/v1/tags",
		map[string]any{"name": "Vegan"},
		"Authorization: Bearer "+token)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	var errEnv testEnvelope[struct{}]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &errEnv))
	assert.Equal(t, "permission_denied", errEnv.Error)

	// Superusers can, and the name is normalized.
	resp = ts.api.Post("/api/v1/tags",
		map[string]any{"name": "  Vegan  "},
		"Authorization: Bearer "+superToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var tagEnv testEnvelope[TagResponse]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &tagEnv))
	assert.Equal(t, "vegan", tagEnv.Data.Name)
	assert.Equal(t, "vegan", tagEnv.Data.Slug)
	assert.Equal(t, 0, tagEnv.Data.UsageCount)
}

func TestListIngredients(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerAndVerify(t, "cook@example.com")
	token := ts.login(t, "cook@example.com")
	createRecipe(t, ts, token, validRecipeBody())

	resp := ts.api.Get("/api/v1/ingredients")
	require.Equal(t, http.StatusOK, resp.Code)

	var env testEnvelope[ListIngredientsResponse]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &env))
	assert.Equal(t, 2, env.Data.Count)

	resp = ts.api.Get("/api/v1/ingredients?search=lentil")
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &env))
	require.Equal(t, 1, env.Data.Count)
	assert.Equal(t, "red lentils", env.Data.Ingredients[0].Name)

	// Ordering is whitelisted.
	resp = ts.api.Get("/api/v1/ingredients?ordering=sneaky")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
