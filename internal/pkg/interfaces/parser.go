package interfaces

import (
	"context"
	"time"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
)

// Worker is a long-running analysis job the service drives.
type Worker interface {
	// Start starts the worker (may run in background or just wait for context)
	Start(ctx context.Context) error

	// Stop stops the worker
	Stop() error

	// GetName returns the worker name
	GetName() string

	// RunOnce runs a single analysis cycle (on-demand)
	RunOnce(ctx context.Context) error
}

// CycleWorker runs analysis cycles in its own loop and accepts triggers.
type CycleWorker interface {
	Worker

	// StartCycles starts the cycle loop in background; timeout bounds one cycle.
	StartCycles(ctx context.Context, timeout time.Duration) error

	// TriggerNewCycle signals the worker to start a new cycle. It never blocks.
	TriggerNewCycle() error
}

// MarkupFetcher downloads match page markup.
type MarkupFetcher interface {
	FetchMarkup(ctx context.Context, url string) (string, error)
}

// MomentumSource downloads a provider momentum series.
type MomentumSource interface {
	FetchMomentum(ctx context.Context, url string) ([]models.MomentumPoint, error)
}

// Fetcher is everything a cycle needs from the network.
type Fetcher interface {
	MarkupFetcher
	MomentumSource
}
