package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// startupTaskTimeout bounds one-off work done while the container boots,
	// such as rebuilding the search index or backfilling sequence numbers.
	startupTaskTimeout = 2 * time.Minute
)
