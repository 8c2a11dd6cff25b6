package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/platefulapp/plateful-server/internal/domain"
	"github.com/platefulapp/plateful-server/internal/service"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	// callerKey holds the authenticated *domain.User.
	callerKey ctxKey = "caller"
	// tokenIDKey holds the access token ID backing the current session.
	tokenIDKey ctxKey = "tokenID"
)

// envelope is the uniform response shape every endpoint produces.
// Success responses carry data (and sometimes a message); error responses
// carry a stable error kind, a message, and optional per-field details.
type envelope struct {
	Status      string            `json:"status"`
	Message     string            `json:"message,omitzero"`
	Data        any               `json:"data,omitzero"`
	Error       string            `json:"error,omitzero"`
	FieldErrors map[string]string `json:"field_errors,omitzero"`
}

// messageCarrier lets response bodies surface a top-level envelope message.
type messageCarrier interface {
	envelopeMessage() string
}

// EnvelopeTransformer wraps every huma response body in the envelope.
// Registered on the huma config so handlers return plain bodies.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch body := v.(type) {
	case nil:
		return v, nil
	case []byte:
		// Raw payloads (images) bypass the envelope.
		return v, nil
	case *APIError:
		return &envelope{
			Status:      "error",
			Error:       body.Kind,
			Message:     body.Message,
			FieldErrors: body.FieldErrors,
		}, nil
	case error:
		return &envelope{
			Status:  "error",
			Error:   "service_error",
			Message: body.Error(),
		}, nil
	case MessageResponse:
		return &envelope{Status: "success", Message: body.Message}, nil
	}

	env := &envelope{Status: "success", Data: v}
	if m, ok := v.(messageCarrier); ok {
		env.Message = m.envelopeMessage()
	}
	return env, nil
}

// authMiddleware validates Bearer tokens and stores the caller in context.
// Requests without a token (or with an invalid one) continue anonymously;
// handlers that need authentication reject them via requireUser.
func authMiddleware(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			user, session, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				// Invalid or revoked token: continue anonymously.
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), callerKey, user)
			ctx = context.WithValue(ctx, tokenIDKey, session.TokenID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// currentUser returns the authenticated user, or nil for anonymous requests.
func currentUser(ctx context.Context) *domain.User {
	if user, ok := ctx.Value(callerKey).(*domain.User); ok {
		return user
	}
	return nil
}

// requireUser returns the authenticated user or a 401 error.
func requireUser(ctx context.Context) (*domain.User, error) {
	user := currentUser(ctx)
	if user == nil {
		return nil, huma.Error401Unauthorized("Authentication required")
	}
	return user, nil
}

// sessionTokenID returns the token ID of the current session, if any.
func sessionTokenID(ctx context.Context) string {
	if tokenID, ok := ctx.Value(tokenIDKey).(string); ok {
		return tokenID
	}
	return ""
}

// limitAuthRoutes applies the per-IP rate limiter to the auth endpoints.
// Credential guessing and registration spam are the abuse vectors; the rest
// of the API stays unthrottled.
func (s *Server) limitAuthRoutes(next http.Handler) http.Handler {
	limited := RateLimitMiddleware(s.authRateLimiter, s.logger)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/v1/auth/") {
			limited.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
