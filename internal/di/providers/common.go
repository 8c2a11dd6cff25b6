package providers

import "time"

// shutdownTimeout bounds graceful shutdown of provided services.
const shutdownTimeout = 30 * time.Second
