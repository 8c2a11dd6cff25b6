package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/platefulapp/plateful-server/internal/auth"
	"github.com/platefulapp/plateful-server/internal/domain"
	domainerrors "github.com/platefulapp/plateful-server/internal/errors"
	"github.com/platefulapp/plateful-server/internal/store"
)

// ProfileService handles the authenticated user's own account data.
type ProfileService struct {
	store  store.Store
	logger *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(store store.Store, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		store:  store,
		logger: logger,
	}
}

// UpdateProfileRequest carries partial profile updates. Nil fields are left
// unchanged.
type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8,max=1024"`
}

// GetProfile returns the caller's account. An inactive account whose
// verification window has closed is deleted here (lazy expiry) and reported
// as missing.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if expired, err := s.deleteIfExpired(ctx, user); err != nil {
		return nil, err
	} else if expired {
		return nil, domainerrors.NotFound("user not found")
	}

	return user, nil
}

// UpdateProfile applies partial updates to the caller's account.
// Email changes re-check case-insensitive uniqueness.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*domain.User, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if req.Password != nil && isEntirelyNumeric(*req.Password) {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"password": "cannot be entirely numeric",
		})
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if expired, err := s.deleteIfExpired(ctx, user); err != nil {
		return nil, err
	} else if expired {
		return nil, domainerrors.NotFound("user not found")
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	user.Touch()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("email already in use")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("Profile updated", "user_id", user.ID)
	return user, nil
}

// deleteIfExpired removes an inactive account past its verification window.
func (s *ProfileService) deleteIfExpired(ctx context.Context, user *domain.User) (bool, error) {
	if user.IsActive || !user.IsVerificationExpired() {
		return false, nil
	}
	if err := s.store.DeleteUser(ctx, user.ID); err != nil {
		return false, fmt.Errorf("delete expired user: %w", err)
	}
	s.logger.Info("Expired unverified account deleted at profile access",
		"user_id", user.ID,
	)
	return true, nil
}
