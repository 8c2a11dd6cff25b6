package providers

import (
	"github.com/samber/do/v2"

	"github.com/platefulapp/plateful-server/internal/config"
	"github.com/platefulapp/plateful-server/internal/logger"
	"github.com/platefulapp/plateful-server/internal/service"
)

// CleanupJobHandle wraps the cleanup worker with shutdown capability.
type CleanupJobHandle struct {
	*service.CleanupService
}

// Shutdown implements do.Shutdownable.
func (h *CleanupJobHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideCleanupJob provides the background sweep for expired unverified
// accounts and expired sessions.
func ProvideCleanupJob(i do.Injector) (*CleanupJobHandle, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewCleanupService(storeHandle.Store, cfg.Cleanup.Interval, log.Logger)
	svc.Start()

	return &CleanupJobHandle{CleanupService: svc}, nil
}
