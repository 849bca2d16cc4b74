package domain

import "time"

// Change is a single field transition observed in one poll cycle.
// Changes are immutable and appended to the event log.
type Change struct {
	ID         string
	DocumentID string
	Path       string
	Field      string

	// OldValue is the previous raw value. It is nil when OldKnown is false.
	OldValue any

	// NewValue is the value extracted in this cycle.
	NewValue any

	OldHash string
	NewHash string

	// OldKnown is false when only the previous hash survived (cold start).
	OldKnown bool

	DetectedAt time.Time
}

// EventFilter narrows event log queries.
type EventFilter struct {
	// DocumentID restricts results to one document when non-empty.
	DocumentID string

	// Field restricts results to one field when non-empty.
	Field string

	// Limit caps the number of results. Zero means no limit.
	Limit int
}
