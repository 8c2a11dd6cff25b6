package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/platefulapp/plateful-server/internal/domain"
	"github.com/platefulapp/plateful-server/internal/store"
)

// CleanupService periodically removes accounts that never verified within
// the token window and sessions past their expiry. It complements the lazy
// expiry checks performed on login/profile/verify paths.
type CleanupService struct {
	store    store.Store
	interval time.Duration
	logger   *slog.Logger

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// NewCleanupService creates a cleanup service sweeping at the given interval.
func NewCleanupService(store store.Store, interval time.Duration, logger *slog.Logger) *CleanupService {
	return &CleanupService{
		store:    store,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the background sweep loop. The first sweep runs after one
// interval, not immediately.
func (s *CleanupService) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()

	s.logger.Info("Cleanup worker started", "interval", s.interval)
}

// Stop terminates the sweep loop and waits for it to finish.
func (s *CleanupService) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
			<-s.done
		}
		s.logger.Info("Cleanup worker stopped")
	})
}

// Sweep runs one cleanup pass. Exposed for tests and for running a pass at
// startup.
func (s *CleanupService) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-domain.VerificationTokenTTL)

	users, err := s.store.DeleteExpiredUnverifiedUsers(ctx, cutoff)
	if err != nil {
		s.logger.Error("Failed to sweep expired unverified users", "error", err)
	} else if users > 0 {
		s.logger.Info("Swept expired unverified users", "count", users)
	}

	sessions, err := s.store.DeleteExpiredSessions(ctx)
	if err != nil {
		s.logger.Error("Failed to sweep expired sessions", "error", err)
	} else if sessions > 0 {
		s.logger.Info("Swept expired sessions", "count", sessions)
	}
}
