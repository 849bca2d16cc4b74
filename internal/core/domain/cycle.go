package domain

import "time"

// CycleState is the phase the poll loop is currently in.
type CycleState string

// Poll loop states. A cycle moves Idle → Scanning → Diffing →
// Evaluating → Dispatching and back to Idle.
const (
	StateIdle        CycleState = "idle"
	StateScanning    CycleState = "scanning"
	StateDiffing     CycleState = "diffing"
	StateEvaluating  CycleState = "evaluating"
	StateDispatching CycleState = "dispatching"
)

// CycleReport summarises one poll cycle.
type CycleReport struct {
	// StartedAt is when the cycle started.
	StartedAt time.Time

	// EndedAt is when the cycle completed.
	EndedAt time.Time

	// Documents is the number of documents scanned.
	Documents int

	// Changes is the number of changes detected.
	Changes int

	// Dispatched is the number of handler invocations.
	Dispatched int

	// Succeeded is the number of successful runs.
	Succeeded int

	// Failed is the number of error runs.
	Failed int

	// Skipped is the number of suppressed duplicates.
	Skipped int

	// Removed is the number of vanished documents whose snapshots were pruned.
	Removed int

	// Errors is the number of per-document processing errors.
	Errors int

	// Interrupted is true when a stop signal cut the cycle short.
	Interrupted bool
}

// Duration returns the wall time of the cycle.
func (r CycleReport) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// Add merges per-document counters into the report.
func (r *CycleReport) Add(other CycleReport) {
	r.Documents += other.Documents
	r.Changes += other.Changes
	r.Dispatched += other.Dispatched
	r.Succeeded += other.Succeeded
	r.Failed += other.Failed
	r.Skipped += other.Skipped
	r.Removed += other.Removed
	r.Errors += other.Errors
}
