package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json/v2"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platefulapp/plateful-server/internal/auth"
	"github.com/platefulapp/plateful-server/internal/config"
	"github.com/platefulapp/plateful-server/internal/domain"
	"github.com/platefulapp/plateful-server/internal/id"
	"github.com/platefulapp/plateful-server/internal/mail"
	"github.com/platefulapp/plateful-server/internal/media/images"
	"github.com/platefulapp/plateful-server/internal/service"
	"github.com/platefulapp/plateful-server/internal/store"
	"github.com/platefulapp/plateful-server/internal/store/sqlite"
)

// testEnvelope mirrors the response envelope for decoding in tests.
type testEnvelope[T any] struct {
	Status      string            `json:"status"`
	Message     string            `json:"message"`
	Data        T                 `json:"data"`
	Error       string            `json:"error"`
	FieldErrors map[string]string `json:"field_errors"`
}

// unmarshalBody decodes a recorded response body into the envelope.
func unmarshalBody(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// capturingMailer records dispatched messages and can simulate failure.
type capturingMailer struct {
	sent []mail.Message
	fail bool
}

func (m *capturingMailer) Send(_ context.Context, msg mail.Message) error {
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

// testServer bundles the API server with its backing pieces for tests.
type testServer struct {
	*Server
	api    humatest.TestAPI
	st     store.Store
	mailer *capturingMailer
}

// setupTestServer wires a server against a temporary sqlite database with a
// rate limit high enough to stay out of the way.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServer(t, 600, 100)
}

func newTestServer(t *testing.T, authRatePerMinute, authBurst int) *testServer {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	tmpDir := t.TempDir()
	st, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	key := make([]byte, 32)
	_, err = rand.Read(key)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(hex.EncodeToString(key), time.Hour)
	require.NoError(t, err)

	imageStorage, err := images.NewStorage(tmpDir)
	require.NoError(t, err)

	mailer := &capturingMailer{}

	services := &Services{
		Auth:       service.NewAuthService(st, tokens, mailer, "https://app.test", logger),
		Profile:    service.NewProfileService(st, logger),
		Recipe:     service.NewRecipeService(st, imageStorage, logger),
		Tag:        service.NewTagService(st, logger),
		Ingredient: service.NewIngredientService(st, logger),
	}

	cfg := &config.Config{
		App: config.AppConfig{
			Environment: "development",
			FrontendURL: "https://app.test",
		},
		RateLimit: config.RateLimitConfig{
			RequestsPerMinute: authRatePerMinute,
			Burst:             authBurst,
		},
	}

	srv := NewServer(cfg, st, services, logger)

	return &testServer{
		Server: srv,
		api:    humatest.Wrap(t, srv.api),
		st:     st,
		mailer: mailer,
	}
}

// registerAndVerify runs the registration flow through the API and returns
// once the account is active.
func (ts *testServer) registerAndVerify(t *testing.T, email string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":    email,
		"password":         "plenty-secure-1",
		"password_confirm": "plenty-secure-1",
		"name":     "Test Cook",
	})
	require.Equal(t, http.StatusOK, resp.Code, "register failed: %s", resp.Body.String())

	user, err := ts.st.GetUserByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, user.VerificationToken)

	resp = ts.api.Post("/api/v1/auth/verify-email", map[string]any{
		"token": *user.VerificationToken,
	})
	require.Equal(t, http.StatusOK, resp.Code, "verify failed: %s", resp.Body.String())
}

// login returns an access token for an already-verified account.
func (ts *testServer) login(t *testing.T, email string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    email,
		"password": "plenty-secure-1",
	})
	require.Equal(t, http.StatusOK, resp.Code, "login failed: %s", resp.Body.String())

	var env testEnvelope[AuthResponse]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &env))
	require.NotEmpty(t, env.Data.Token)
	return env.Data.Token
}

// createSuperuser inserts an active superuser directly and returns a token.
func (ts *testServer) createSuperuser(t *testing.T, email string) string {
	t.Helper()

	userID, err := id.Generate("user")
	require.NoError(t, err)
	hash, err := auth.HashPassword("plenty-secure-1")
	require.NoError(t, err)

	user := &domain.User{
		Model:        domain.Model{ID: userID},
		Email:        email,
		Name:         "Super User",
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      true,
		IsSuperuser:  true,
	}
	user.InitTimestamps()
	require.NoError(t, ts.st.CreateUser(context.Background(), user))

	return ts.login(t, email)
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)

	var env testEnvelope[HealthResponse]
	require.NoError(t, unmarshalBody(resp.Body.Bytes(), &env))
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, "healthy", env.Data.Status)
	assert.Equal(t, "healthy", env.Data.Components["database"].Status)
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/nonsense")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
