package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/platefulapp/plateful-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/register",
		Summary:     "Register new user",
		Description: "Creates a new account and sends a verification email. The account stays inactive until the email is verified within one hour.",
		Tags:        []string{"Authentication"},
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "User login",
		Description: "Authenticates a verified user and returns an access token",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Logout",
		Description: "Revokes the session behind the presented access token",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "verifyEmail",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/verify-email",
		Summary:     "Verify email address",
		Description: "Activates the account belonging to the verification token",
		Tags:        []string{"Authentication"},
	}, s.handleVerifyEmail)

	huma.Register(s.api, huma.Operation{
		OperationID: "resendVerification",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/resend-verification",
		Summary:     "Resend verification email",
		Description: "Requests a fresh verification email. The response never reveals whether the address is registered.",
		Tags:        []string{"Authentication"},
	}, s.handleResendVerification)
}

// === DTOs ===

// RegisterInput wraps the registration request for huma.
type RegisterInput struct {
	Body service.RegisterRequest
}

// RegisterResponse contains the result of a registration.
type RegisterResponse struct {
	UserID  string `json:"user_id" doc:"Created user ID"`
	Email   string `json:"email" doc:"Registered email address"`
	Message string `json:"-"`
}

func (r RegisterResponse) envelopeMessage() string { return r.Message }

// RegisterOutput wraps the register response for huma.
type RegisterOutput struct {
	Body RegisterResponse
}

// LoginInput wraps the login request with headers for huma.
type LoginInput struct {
	Body          service.LoginRequest
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
	UserAgent     string `header:"User-Agent"`
}

// AuthResponse contains the access token and user info.
type AuthResponse struct {
	User      UserResponse `json:"user" doc:"Authenticated user"`
	Token     string       `json:"token" doc:"PASETO access token"`
	ExpiresAt time.Time    `json:"expires_at" doc:"Token expiry timestamp"`
}

// AuthOutput wraps the auth response for huma.
type AuthOutput struct {
	Body AuthResponse
}

// VerifyEmailInput wraps the verification request for huma.
type VerifyEmailInput struct {
	Body struct {
		Token string `json:"token" doc:"Verification token from the email link"`
	}
}

// ResendVerificationInput wraps the resend request for huma.
type ResendVerificationInput struct {
	Body struct {
		Email string `json:"email" doc:"Email address to resend the verification to"`
	}
}

// === Handlers ===

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*RegisterOutput, error) {
	resp, err := s.services.Auth.Register(ctx, input.Body)
	if err != nil {
		return nil, err
	}

	return &RegisterOutput{
		Body: RegisterResponse{
			UserID:  resp.UserID,
			Email:   resp.Email,
			Message: resp.Message,
		},
	}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	req := input.Body
	req.IPAddress = extractIP(input.XForwardedFor, input.XRealIP)
	req.UserAgent = input.UserAgent

	resp, err := s.services.Auth.Login(ctx, req)
	if err != nil {
		return nil, err
	}

	return &AuthOutput{
		Body: AuthResponse{
			User:      mapUser(resp.User),
			Token:     resp.Token,
			ExpiresAt: resp.ExpiresAt,
		},
	}, nil
}

func (s *Server) handleLogout(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}

	if err := s.services.Auth.Logout(ctx, sessionTokenID(ctx)); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Logged out successfully."}}, nil
}

func (s *Server) handleVerifyEmail(ctx context.Context, input *VerifyEmailInput) (*MessageOutput, error) {
	if _, err := s.services.Auth.VerifyEmail(ctx, input.Body.Token); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Email verified. You can now log in."}}, nil
}

func (s *Server) handleResendVerification(ctx context.Context, input *ResendVerificationInput) (*MessageOutput, error) {
	message, err := s.services.Auth.ResendVerification(ctx, input.Body.Email)
	if err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: message}}, nil
}

// extractIP returns the originating client IP from proxy headers.
func extractIP(xForwardedFor, xRealIP string) string {
	if xForwardedFor != "" {
		for i := 0; i < len(xForwardedFor); i++ {
			if xForwardedFor[i] == ',' {
				return xForwardedFor[:i]
			}
		}
		return xForwardedFor
	}
	return xRealIP
}
