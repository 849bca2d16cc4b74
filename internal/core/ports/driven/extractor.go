package driven

import (
	"context"

	"github.com/custodia-labs/notewatch/internal/core/domain"
)

// MetadataExtractor reads the structured fields of one note.
// Implementations are fail-open: malformed input yields an empty map,
// never an error or a panic visible to the caller.
type MetadataExtractor interface {
	Extract(ctx context.Context, doc domain.Document, content []byte) domain.FieldMap
}
