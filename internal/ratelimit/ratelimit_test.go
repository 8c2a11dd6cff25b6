package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow_BurstThenBlocked(t *testing.T) {
	rl := New(1, 3)
	defer rl.Stop()

	for i := range 3 {
		assert.True(t, rl.Allow("198.51.100.7"), "request %d should fit in the burst", i+1)
	}
	assert.False(t, rl.Allow("198.51.100.7"), "burst is spent")
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	require.True(t, rl.Allow("198.51.100.7"))
	require.False(t, rl.Allow("198.51.100.7"))

	// A different client still has its full budget.
	assert.True(t, rl.Allow("203.0.113.9"))
}

func TestAllow_RefillsOverTime(t *testing.T) {
	rl := New(50, 1)
	defer rl.Stop()

	require.True(t, rl.Allow("198.51.100.7"))
	require.False(t, rl.Allow("198.51.100.7"))

	// At 50 rps a token returns after 20ms.
	assert.Eventually(t, func() bool {
		return rl.Allow("198.51.100.7")
	}, time.Second, 5*time.Millisecond)
}

func TestWait_BlocksUntilToken(t *testing.T) {
	rl := New(20, 1)
	defer rl.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, rl.Wait(ctx, "198.51.100.7"))

	// The bucket is empty; the second call has to wait roughly one period.
	start := time.Now()
	require.NoError(t, rl.Wait(ctx, "198.51.100.7"))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestWait_ContextCanceled(t *testing.T) {
	rl := New(0.01, 1)
	defer rl.Stop()

	require.True(t, rl.Allow("198.51.100.7"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.Error(t, rl.Wait(ctx, "198.51.100.7"))
}

func TestStop_Idempotent(t *testing.T) {
	rl := New(1, 1)
	rl.Stop()
	rl.Stop()
}
