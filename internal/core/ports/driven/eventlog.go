package driven

import (
	"context"

	"github.com/custodia-labs/notewatch/internal/core/domain"
)

// EventLog is the append-only record of every detected change.
type EventLog interface {
	// Append writes a change. Changes are never updated or deleted.
	Append(ctx context.Context, change domain.Change) error

	// LatestValues returns, per field, the new value of the most recent
	// change recorded for a document. It is used to recover raw old values
	// after a restart, when the snapshot store only holds hashes.
	LatestValues(ctx context.Context, documentID string) (map[string]any, error)

	// List returns the most recent matching changes, oldest first.
	List(ctx context.Context, filter domain.EventFilter) ([]domain.Change, error)
}
