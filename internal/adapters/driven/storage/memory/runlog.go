package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/notewatch/internal/core/domain"
	"github.com/custodia-labs/notewatch/internal/core/ports/driven"
)

// Ensure RunLog implements the interface.
var _ driven.RunLog = (*RunLog)(nil)

// RunLog is an in-memory implementation of driven.RunLog.
type RunLog struct {
	mu   sync.RWMutex
	runs []domain.Run
	ids  map[string]bool
}

// NewRunLog creates a new in-memory run log.
func NewRunLog() *RunLog {
	return &RunLog{
		ids: make(map[string]bool),
	}
}

// Append records a dispatch attempt.
func (l *RunLog) Append(_ context.Context, run domain.Run) error {
	if run.ID == "" || run.InputHash == "" || !run.Status.IsValid() {
		return domain.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ids[run.ID] {
		return domain.ErrInvalidInput
	}
	l.ids[run.ID] = true
	l.runs = append(l.runs, run)
	return nil
}

// FindSuccess returns the latest successful run with the input hash that
// started at or after since. Returns nil and no error if there is none.
func (l *RunLog) FindSuccess(_ context.Context, inputHash string, since time.Time) (*domain.Run, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for i := len(l.runs) - 1; i >= 0; i-- {
		r := l.runs[i]
		if r.InputHash == inputHash && r.Status == domain.RunSuccess && !r.StartedAt.Before(since) {
			return &r, nil
		}
	}
	return nil, nil
}

// List returns runs oldest first. With a limit, the most recent matching
// runs are returned.
func (l *RunLog) List(_ context.Context, filter domain.RunFilter) ([]domain.Run, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []domain.Run
	for _, r := range l.runs {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.WorkflowName != "" && r.WorkflowName != filter.WorkflowName {
			continue
		}
		out = append(out, r)
	}
	return tail(out, filter.Limit), nil
}
