package driving

import (
	"context"

	"github.com/custodia-labs/notewatch/internal/core/domain"
)

// Poller runs the detection → evaluation → dispatch pipeline.
type Poller interface {
	// Start runs a cycle immediately and then on every tick.
	// Blocks until Stop is called or ctx is cancelled.
	Start(ctx context.Context) error

	// Stop lets in-flight documents finish and prevents new ones from starting.
	Stop() error

	// RunCycle performs exactly one full pass over the notes.
	RunCycle(ctx context.Context) (*domain.CycleReport, error)

	// State returns the current phase of the loop.
	State() domain.CycleState
}
