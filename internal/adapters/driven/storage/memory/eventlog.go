package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/notewatch/internal/core/domain"
	"github.com/custodia-labs/notewatch/internal/core/ports/driven"
)

// Ensure EventLog implements the interface.
var _ driven.EventLog = (*EventLog)(nil)

// EventLog is an in-memory implementation of driven.EventLog.
type EventLog struct {
	mu     sync.RWMutex
	events []domain.Change
	ids    map[string]bool
}

// NewEventLog creates a new in-memory event log.
func NewEventLog() *EventLog {
	return &EventLog{
		ids: make(map[string]bool),
	}
}

// Append records a detected change.
func (l *EventLog) Append(_ context.Context, change domain.Change) error {
	if change.ID == "" || change.DocumentID == "" || change.Field == "" {
		return domain.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ids[change.ID] {
		return domain.ErrInvalidInput
	}
	if !change.OldKnown {
		change.OldValue = nil
	}
	l.ids[change.ID] = true
	l.events = append(l.events, change)
	return nil
}

// LatestValues returns the new value of the most recent event per field.
func (l *EventLog) LatestValues(_ context.Context, documentID string) (map[string]any, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	values := make(map[string]any)
	for _, e := range l.events {
		if e.DocumentID == documentID {
			values[e.Field] = e.NewValue
		}
	}
	return values, nil
}

// List returns events oldest first. With a limit, the most recent matching
// events are returned.
func (l *EventLog) List(_ context.Context, filter domain.EventFilter) ([]domain.Change, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []domain.Change
	for _, e := range l.events {
		if filter.DocumentID != "" && e.DocumentID != filter.DocumentID {
			continue
		}
		if filter.Field != "" && e.Field != filter.Field {
			continue
		}
		out = append(out, e)
	}
	return tail(out, filter.Limit), nil
}

// tail returns the last n items, or all of them when n is not positive.
func tail[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[len(items)-n:]
	}
	return items
}
