package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/notewatch/internal/core/domain"
)

// RunLog is the append-only record of every dispatch attempt.
type RunLog interface {
	// Append writes a run. Runs are never updated or deleted.
	Append(ctx context.Context, run domain.Run) error

	// FindSuccess returns the most recent successful run with the given
	// input hash that started at or after since.
	// Returns nil and no error if none exists.
	FindSuccess(ctx context.Context, inputHash string, since time.Time) (*domain.Run, error)

	// List returns the most recent matching runs, oldest first.
	List(ctx context.Context, filter domain.RunFilter) ([]domain.Run, error)
}

// ArtifactStore records side-effect references produced by handlers.
type ArtifactStore interface {
	// Save appends an artifact.
	Save(ctx context.Context, artifact domain.Artifact) error

	// List returns the most recent artifacts, oldest first. Zero limit means no limit.
	List(ctx context.Context, limit int) ([]domain.Artifact, error)

	// ListByRun returns the artifacts of one run.
	ListByRun(ctx context.Context, runID string) ([]domain.Artifact, error)
}
