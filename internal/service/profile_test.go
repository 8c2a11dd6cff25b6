package service

import (
	"context"
	"testing"
	"time"

	domainerrors "github.com/platefulapp/plateful-server/internal/errors"
	"github.com/platefulapp/plateful-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService_GetProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := createActiveUser(t, env.store, "cook@example.com", false)

	got, err := env.profile.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	_, err = env.profile.GetProfile(ctx, "user-missing")
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestProfileService_GetProfile_ExpiredAccountDeleted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{
		Email:           "stale@example.com",
		Password:        "plenty-secure-1",
		PasswordConfirm: "plenty-secure-1",
		Name:            "Cook",
	})
	require.NoError(t, err)

	user, err := env.store.GetUser(ctx, resp.UserID)
	require.NoError(t, err)
	backdateVerification(t, env.store, user, 2*time.Hour)

	_, err = env.profile.GetProfile(ctx, user.ID)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))

	_, err = env.store.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestProfileService_UpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := createActiveUser(t, env.store, "cook@example.com", false)

	name := "Renamed Cook"
	email := "renamed@example.com"
	updated, err := env.profile.UpdateProfile(ctx, user.ID, UpdateProfileRequest{
		Name:  &name,
		Email: &email,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed Cook", updated.Name)
	assert.Equal(t, "renamed@example.com", updated.Email)

	// Partial update leaves the other fields alone.
	name2 := "Cook Again"
	updated, err = env.profile.UpdateProfile(ctx, user.ID, UpdateProfileRequest{Name: &name2})
	require.NoError(t, err)
	assert.Equal(t, "Cook Again", updated.Name)
	assert.Equal(t, "renamed@example.com", updated.Email)
}

func TestProfileService_UpdateProfile_EmailConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	createActiveUser(t, env.store, "taken@example.com", false)
	user := createActiveUser(t, env.store, "cook@example.com", false)

	email := "TAKEN@example.com"
	_, err := env.profile.UpdateProfile(ctx, user.ID, UpdateProfileRequest{Email: &email})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyExists))
}

func TestProfileService_UpdateProfile_PasswordPolicy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := createActiveUser(t, env.store, "cook@example.com", false)

	short := "short"
	_, err := env.profile.UpdateProfile(ctx, user.ID, UpdateProfileRequest{Password: &short})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	numeric := "123456789012"
	_, err = env.profile.UpdateProfile(ctx, user.ID, UpdateProfileRequest{Password: &numeric})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	// A valid password change allows login with the new secret.
	fresh := "fresh-password-1"
	_, err = env.profile.UpdateProfile(ctx, user.ID, UpdateProfileRequest{Password: &fresh})
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, LoginRequest{Email: "cook@example.com", Password: fresh})
	assert.NoError(t, err)
}
