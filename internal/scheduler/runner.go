package scheduler

import "context"

// Runner drives a periodic step at a fixed period.
type Runner interface {
	// Start begins the periodic loop. Blocks until ctx is cancelled,
	// Stop is called, or the configured tick limit is reached.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the loop.
	Stop() error

	// Tick runs a single period. Used for testing.
	Tick(ctx context.Context) error
}
