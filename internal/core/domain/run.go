package domain

import "time"

// RunStatus is the outcome of a dispatch attempt.
type RunStatus string

// Run statuses.
const (
	// RunSuccess means the handler reported success.
	RunSuccess RunStatus = "success"

	// RunError means the handler failed, panicked, timed out or was missing.
	RunError RunStatus = "error"

	// RunSkipped means the dispatch was suppressed as a duplicate.
	RunSkipped RunStatus = "skipped"
)

// IsValid returns true if the status is recognised.
func (s RunStatus) IsValid() bool {
	switch s {
	case RunSuccess, RunError, RunSkipped:
		return true
	default:
		return false
	}
}

// Run is an immutable record of one dispatch attempt.
type Run struct {
	ID           string
	WorkflowName string
	RuleName     string

	// InputHash is the idempotency key for the dispatch.
	InputHash string

	ChangeID     string
	DocumentPath string
	Field        string

	StartedAt  time.Time
	FinishedAt time.Time

	Status  RunStatus
	Message string
}

// Duration returns how long the attempt took.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunFilter narrows run log queries.
type RunFilter struct {
	// Status restricts results to one status when non-empty.
	Status RunStatus

	// WorkflowName restricts results to one workflow when non-empty.
	WorkflowName string

	// Limit caps the number of results. Zero means no limit.
	Limit int
}

// RunResult is what the dispatcher returns for one (rule, change) pair.
type RunResult struct {
	Run Run

	// Invoked reports whether the handler was actually called.
	Invoked bool

	// Artifact is set when the handler produced a side-effect reference.
	Artifact *Artifact
}

// Artifact records a side effect produced by a successful run,
// such as the reference of a created ticket.
type Artifact struct {
	ID           string
	RunID        string
	WorkflowName string
	DocumentPath string
	Kind         string
	Reference    string
	CreatedAt    time.Time
}
