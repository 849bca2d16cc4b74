package driving

import (
	"context"

	"github.com/custodia-labs/notewatch/internal/core/domain"
)

// AuditService answers "what changed, what fired, what failed, and why"
// from the durable tables.
type AuditService interface {
	// Events lists the most recent detected changes, oldest first.
	Events(ctx context.Context, filter domain.EventFilter) ([]domain.Change, error)

	// Runs lists the most recent dispatch attempts, oldest first.
	Runs(ctx context.Context, filter domain.RunFilter) ([]domain.Run, error)

	// Artifacts lists the most recent recorded side effects, oldest first.
	Artifacts(ctx context.Context, limit int) ([]domain.Artifact, error)
}

// RuleCatalog exposes the loaded rule set.
type RuleCatalog interface {
	// Rules returns the rules in registration order.
	Rules() []domain.Rule
}
