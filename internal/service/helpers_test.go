package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/platefulapp/plateful-server/internal/auth"
	"github.com/platefulapp/plateful-server/internal/domain"
	"github.com/platefulapp/plateful-server/internal/id"
	"github.com/platefulapp/plateful-server/internal/mail"
	"github.com/platefulapp/plateful-server/internal/media/images"
	"github.com/platefulapp/plateful-server/internal/store"
	"github.com/platefulapp/plateful-server/internal/store/sqlite"
	"github.com/stretchr/testify/require"
)

// fakeMailer records dispatched messages and can simulate delivery failure.
type fakeMailer struct {
	sent []mail.Message
	fail bool
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

// testEnv bundles the real store and services for service-level tests.
type testEnv struct {
	store   store.Store
	auth    *AuthService
	profile *ProfileService
	recipes *RecipeService
	tags    *TagService
	ingred  *IngredientService
	mailer  *fakeMailer
	tokens  *auth.TokenService
	images  *images.Storage
}

// newTestEnv wires services against a temporary sqlite database.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	tmpDir := t.TempDir()
	s, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	key := make([]byte, 32)
	_, err = rand.Read(key)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(hex.EncodeToString(key), time.Hour)
	require.NoError(t, err)

	imageStorage, err := images.NewStorage(tmpDir)
	require.NoError(t, err)

	mailer := &fakeMailer{}

	return &testEnv{
		store:   s,
		auth:    NewAuthService(s, tokens, mailer, "https://app.test", logger),
		profile: NewProfileService(s, logger),
		recipes: NewRecipeService(s, imageStorage, logger),
		tags:    NewTagService(s, logger),
		ingred:  NewIngredientService(s, logger),
		mailer:  mailer,
		tokens:  tokens,
		images:  imageStorage,
	}
}

// createActiveUser registers a user directly in the store, already verified.
func createActiveUser(t *testing.T, s store.Store, email string, superuser bool) *domain.User {
	t.Helper()

	userID, err := id.Generate("user")
	require.NoError(t, err)

	hash, err := auth.HashPassword("correct-horse-battery")
	require.NoError(t, err)

	user := &domain.User{
		Model:        domain.Model{ID: userID},
		Email:        email,
		Name:         "Test User",
		PasswordHash: hash,
		IsActive:     true,
		IsSuperuser:  superuser,
		IsStaff:      superuser,
	}
	user.InitTimestamps()
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

// backdateVerification rewrites the user's verification timestamp so the
// window appears to have closed.
func backdateVerification(t *testing.T, s store.Store, user *domain.User, age time.Duration) {
	t.Helper()

	sentAt := time.Now().Add(-age)
	user.VerificationSentAt = &sentAt
	require.NoError(t, s.UpdateUser(context.Background(), user))
}

// validCreateRecipeRequest returns a request that passes all validation.
func validCreateRecipeRequest() CreateRecipeRequest {
	return CreateRecipeRequest{
		Title:        "Lentil Soup",
		Description:  "A weeknight staple.",
		Instructions: "Soften the onions, add lentils and stock, simmer 30 minutes.",
		TimeMinutes:  45,
		Difficulty:   "easy",
		Servings:     4,
		IsPublic:     true,
		Tags:         []string{"Soup", "Comfort Food"},
		Ingredients: IngredientLines{
			{Name: "Red Lentils", Quantity: "200 g"},
			{Name: "Onion", Quantity: "1", Notes: "finely diced"},
		},
	}
}
