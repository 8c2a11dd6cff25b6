package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/platefulapp/plateful-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupService_Sweep(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	// An expired unverified account, a fresh unverified one, and an active
	// user with an expired session.
	stale, err := env.auth.Register(ctx, RegisterRequest{
		Email:           "stale@example.com",
		Password:        "plenty-secure-1",
		PasswordConfirm: "plenty-secure-1",
		Name:            "Stale",
	})
	require.NoError(t, err)
	staleUser, err := env.store.GetUser(ctx, stale.UserID)
	require.NoError(t, err)
	backdateVerification(t, env.store, staleUser, 2*time.Hour)

	fresh, err := env.auth.Register(ctx, RegisterRequest{
		Email:           "fresh@example.com",
		Password:        "plenty-secure-1",
		PasswordConfirm: "plenty-secure-1",
		Name:            "Fresh",
	})
	require.NoError(t, err)

	registerAndVerify(t, env, "active@example.com")
	resp, err := env.auth.Login(ctx, LoginRequest{Email: "active@example.com", Password: "plenty-secure-1"})
	require.NoError(t, err)

	_, session, err := env.auth.Authenticate(ctx, resp.Token)
	require.NoError(t, err)
	session.ExpiresAt = time.Now().Add(-time.Minute)
	// Expire the session directly; the sweep should remove it.
	require.NoError(t, env.store.DeleteSession(ctx, session.ID))
	expired := *session
	expired.ID = session.ID
	require.NoError(t, env.store.CreateSession(ctx, &expired))

	cleanup := NewCleanupService(env.store, time.Hour, logger)
	cleanup.Sweep(ctx)

	// Expired unverified account is gone, fresh one survives.
	_, err = env.store.GetUser(ctx, stale.UserID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = env.store.GetUser(ctx, fresh.UserID)
	assert.NoError(t, err)

	// Expired session is gone.
	_, err = env.store.GetSessionByTokenID(ctx, expired.TokenID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCleanupService_StartStop(t *testing.T) {
	env := newTestEnv(t)
	logger := slog.New(slog.DiscardHandler)

	cleanup := NewCleanupService(env.store, 50*time.Millisecond, logger)
	cleanup.Start()

	// Let at least one tick fire against an empty database.
	time.Sleep(120 * time.Millisecond)

	cleanup.Stop()
	// Stop is idempotent.
	cleanup.Stop()
}
