package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/notewatch/internal/core/domain"
)

// SnapshotStore persists the last-known hashed state of tracked fields.
type SnapshotStore interface {
	// Get returns all records for a document. An unknown document yields
	// an empty snapshot and no error.
	Get(ctx context.Context, documentID string) (domain.Snapshot, error)

	// Put creates or overwrites the record for (DocumentID, Field).
	Put(ctx context.Context, record domain.SnapshotRecord) error

	// Touch refreshes LastSeen for records whose hash did not change.
	Touch(ctx context.Context, documentID string, fields []string, seenAt time.Time) error

	// ListDocuments returns the ids of every document with at least one record.
	ListDocuments(ctx context.Context) ([]string, error)

	// DeleteDocument removes all records for a document.
	DeleteDocument(ctx context.Context, documentID string) error
}
