package driven

import (
	"context"

	"github.com/custodia-labs/notewatch/internal/core/domain"
)

// DocumentSource enumerates and reads the watched notes.
type DocumentSource interface {
	// Root returns the location being watched.
	Root() string

	// List returns every note currently present, in a stable order.
	List(ctx context.Context) ([]domain.Document, error)

	// Read returns the raw bytes of a note.
	Read(ctx context.Context, doc domain.Document) ([]byte, error)
}

// ChangeTrigger emits hints that the watched tree may have changed.
// Hints only wake the poll loop early; the scan remains the source of truth.
type ChangeTrigger interface {
	// Events returns a channel that receives one value per debounced burst
	// of filesystem activity. The channel is closed when ctx is done.
	Events(ctx context.Context) (<-chan struct{}, error)

	// Close releases resources.
	Close() error
}
