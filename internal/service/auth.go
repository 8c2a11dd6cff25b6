// Package service implements the business operations behind the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/platefulapp/plateful-server/internal/auth"
	"github.com/platefulapp/plateful-server/internal/domain"
	domainerrors "github.com/platefulapp/plateful-server/internal/errors"
	"github.com/platefulapp/plateful-server/internal/id"
	"github.com/platefulapp/plateful-server/internal/mail"
	"github.com/platefulapp/plateful-server/internal/store"
	"github.com/platefulapp/plateful-server/internal/validation"
)

// validate is the shared request validator for all services.
var validate = validation.New()

// AuthService handles the account lifecycle: registration with email
// verification, login/logout, and access token verification.
type AuthService struct {
	store        store.Store
	tokenService *auth.TokenService
	mailer       mail.Dispatcher
	frontendURL  string
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store store.Store,
	tokenService *auth.TokenService,
	mailer mail.Dispatcher,
	frontendURL string,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:        store,
		tokenService: tokenService,
		mailer:       mailer,
		frontendURL:  frontendURL,
		logger:       logger,
	}
}

// RegisterRequest contains user registration data. The password must be
// typed twice; registration fails when the confirmation differs.
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=1024"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Name            string `json:"name" validate:"required,min=2,max=100"`
}

// RegisterResponse contains the result of a registration request.
type RegisterResponse struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// LoginRequest contains user credentials plus request metadata.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`

	// Extracted from the request by the handler.
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// AuthResponse contains the access token and user data.
type AuthResponse struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Register creates a new inactive user and dispatches the verification email.
// If the email cannot be sent the user is deleted again so no unreachable
// account lingers.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if isEntirelyNumeric(req.Password) {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"password": "cannot be entirely numeric",
		})
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		Model:        domain.Model{ID: userID},
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: passwordHash,
	}
	user.InitTimestamps()
	user.SetVerificationToken(uuid.NewString())

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("email already in use")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	msg := mail.VerificationEmail(user.Email, user.Name, *user.VerificationToken, s.frontendURL)
	if err := s.mailer.Send(ctx, msg); err != nil {
		// Compensate: the account is unreachable without its email, so
		// remove it and let the client retry registration.
		if delErr := s.store.DeleteUser(ctx, user.ID); delErr != nil {
			s.logger.Error("Failed to delete user after mail failure",
				"user_id", user.ID,
				"error", delErr,
			)
		}
		s.logger.Error("Verification email dispatch failed",
			"user_id", user.ID,
			"error", err,
		)
		return nil, domainerrors.Internal("could not send verification email, please try again")
	}

	s.logger.Info("User registered",
		"user_id", user.ID,
		"email", user.Email,
	)

	return &RegisterResponse{
		UserID:  user.ID,
		Email:   user.Email,
		Message: "Registration successful. Check your email to verify your account.",
	}, nil
}

// Login authenticates a user and creates a new session.
// Unverified accounts are rejected; accounts whose verification window has
// closed are deleted on the spot (lazy expiry).
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Don't leak whether email exists
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	if !user.IsActive {
		if user.IsVerificationExpired() {
			if err := s.store.DeleteUser(ctx, user.ID); err != nil {
				return nil, fmt.Errorf("delete expired user: %w", err)
			}
			s.logger.Info("Expired unverified account deleted at login",
				"user_id", user.ID,
			)
			return nil, domainerrors.VerificationExpired("verification window expired, please register again")
		}
		return nil, domainerrors.VerificationRequired("please verify your email before logging in")
	}

	// Record last login. Failure here must not block the login.
	now := time.Now()
	user.LastLoginAt = &now
	user.Touch()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		s.logger.Warn("Failed to update last login time",
			"user_id", user.ID,
			"error", err,
		)
	}

	resp, err := s.createSession(ctx, user, req.IPAddress, req.UserAgent)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", "user_id", user.ID)
	return resp, nil
}

// createSession issues an access token and persists the session row that
// backs its revocation check.
func (s *AuthService) createSession(ctx context.Context, user *domain.User, ipAddress, userAgent string) (*AuthResponse, error) {
	token, tokenID, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	sessionID, err := id.Generate("sess")
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	now := time.Now()
	session := &domain.Session{
		ID:         sessionID,
		UserID:     user.ID,
		TokenID:    tokenID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.tokenService.AccessTokenDuration()),
		LastSeenAt: now,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &AuthResponse{
		User:      user,
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// VerifyEmail activates the account belonging to the given token.
// An expired token deletes the account so the email can be re-registered.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domainerrors.Validation("token is required")
	}

	user, err := s.store.GetUserByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Validation("invalid verification token")
		}
		return nil, fmt.Errorf("lookup verification token: %w", err)
	}

	if user.IsVerificationExpired() {
		if err := s.store.DeleteUser(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("delete expired user: %w", err)
		}
		s.logger.Info("Expired unverified account deleted at verification",
			"user_id", user.ID,
		)
		return nil, domainerrors.VerificationExpired("verification window expired, please register again")
	}

	user.MarkVerified()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("activate user: %w", err)
	}

	s.logger.Info("Email verified", "user_id", user.ID)
	return user, nil
}

// ResendVerification handles a resend request for the given email.
// The success message never reveals whether the address is registered. An
// expired window deletes the account; an unexpired one is a no-op since the
// original email was sent recently.
func (s *AuthService) ResendVerification(ctx context.Context, email string) (string, error) {
	const genericMessage = "If the address is registered and unverified, a verification email was sent recently."

	if email == "" {
		return "", domainerrors.Validation("email is required")
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return genericMessage, nil
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if user.IsActive {
		return genericMessage, nil
	}

	if user.IsVerificationExpired() {
		if err := s.store.DeleteUser(ctx, user.ID); err != nil {
			return "", fmt.Errorf("delete expired user: %w", err)
		}
		s.logger.Info("Expired unverified account deleted at resend",
			"user_id", user.ID,
		)
		return "", domainerrors.VerificationExpired("verification window expired, please register again")
	}

	// Token still valid: the previous email was sent within the window.
	return genericMessage, nil
}

// Logout revokes the session bound to the given access token ID.
// Deleting an already-deleted session is not an error.
func (s *AuthService) Logout(ctx context.Context, tokenID string) error {
	session, err := s.store.GetSessionByTokenID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup session: %w", err)
	}

	if err := s.store.DeleteSession(ctx, session.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}

	s.logger.Info("User logged out", "user_id", session.UserID)
	return nil
}

// Authenticate validates a bearer token and returns the associated user and
// session. Used by the authentication middleware. The session row must still
// exist (logout revokes it) and be unexpired.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*domain.User, *domain.Session, error) {
	claims, err := s.tokenService.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, nil, domainerrors.Unauthorized("invalid or expired token")
	}

	session, err := s.store.GetSessionByTokenID(ctx, claims.TokenID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, domainerrors.Unauthorized("session revoked")
		}
		return nil, nil, fmt.Errorf("lookup session: %w", err)
	}

	if session.IsExpired() {
		if err := s.store.DeleteSession(ctx, session.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("Failed to delete expired session",
				"session_id", session.ID,
				"error", err,
			)
		}
		return nil, nil, domainerrors.Unauthorized("session expired")
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, domainerrors.Unauthorized("user no longer exists")
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	// Best-effort activity tracking.
	if err := s.store.TouchSession(ctx, session.ID, time.Now()); err != nil {
		s.logger.Debug("Failed to touch session", "session_id", session.ID, "error", err)
	}

	return user, session, nil
}

// isEntirelyNumeric reports whether the password consists only of digits.
func isEntirelyNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
