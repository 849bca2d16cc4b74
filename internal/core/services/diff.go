package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/notewatch/internal/core/domain"
)

// Diff compares the current tracked fields of a document with its snapshot
// and returns one Change per field whose hash differs, in tracked order.
//
// A field missing from the snapshot counts as the empty sentinel, so the
// first observation of a non-empty field is a change. prior carries the raw
// values last seen for the document; when it cannot vouch for the stored
// hash the change is reported hash-only (OldKnown false).
//
// Diff does not mutate any state. Committing the new hashes is the caller's job.
func Diff(
	doc domain.Document,
	fields domain.FieldMap,
	tracked []string,
	snapshot domain.Snapshot,
	prior map[string]any,
	now time.Time,
) []domain.Change {
	var changes []domain.Change
	seen := make(map[string]bool, len(tracked))

	for _, field := range tracked {
		if seen[field] {
			continue
		}
		seen[field] = true

		newValue := fields.Get(field)
		newHash := HashValue(newValue)

		oldHash, ok := snapshot.Hash(field)
		if !ok {
			oldHash = EmptyHash
		}
		if oldHash == newHash {
			continue
		}

		oldValue, oldKnown := resolveOldValue(field, oldHash, prior)

		changes = append(changes, domain.Change{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Path:       doc.Path,
			Field:      field,
			OldValue:   oldValue,
			NewValue:   newValue,
			OldHash:    oldHash,
			NewHash:    newHash,
			OldKnown:   oldKnown,
			DetectedAt: now,
		})
	}

	return changes
}

// resolveOldValue finds the raw value behind oldHash.
func resolveOldValue(field, oldHash string, prior map[string]any) (any, bool) {
	if oldHash == EmptyHash {
		return nil, true
	}
	if v, ok := prior[field]; ok && HashValue(v) == oldHash {
		return v, true
	}
	return nil, false
}

// Unchanged returns the tracked fields whose hash matches the snapshot.
func Unchanged(fields domain.FieldMap, tracked []string, snapshot domain.Snapshot) []string {
	var out []string
	for _, field := range tracked {
		h, ok := snapshot.Hash(field)
		if ok && h == HashValue(fields.Get(field)) {
			out = append(out, field)
		}
	}
	return out
}
