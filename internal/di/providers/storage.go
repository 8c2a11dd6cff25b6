package providers

import (
	"github.com/samber/do/v2"

	"github.com/platefulapp/plateful-server/internal/config"
	"github.com/platefulapp/plateful-server/internal/logger"
	"github.com/platefulapp/plateful-server/internal/media/images"
)

// ProvideImageStorage provides the recipe image storage rooted under the
// media directory.
func ProvideImageStorage(i do.Injector) (*images.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	storage, err := images.NewStorage(cfg.MediaPath())
	if err != nil {
		return nil, err
	}

	log.Info("Image storage initialized", "path", cfg.MediaPath())

	return storage, nil
}
