package domain

import "time"

// SnapshotRecord is the last-known hashed state of one field on one document.
// There is at most one record per (DocumentID, Field).
type SnapshotRecord struct {
	DocumentID string
	Path       string
	Field      string

	// ValueHash is the canonical hash of the value; raw values are not kept.
	ValueHash string

	// LastSeen is when the field was last observed with this hash.
	LastSeen time.Time
}

// Snapshot is the set of records for one document keyed by field name.
type Snapshot map[string]SnapshotRecord

// Hash returns the stored hash for a field and whether it exists.
func (s Snapshot) Hash(field string) (string, bool) {
	rec, ok := s[field]
	if !ok {
		return "", false
	}
	return rec.ValueHash, true
}
