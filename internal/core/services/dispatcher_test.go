package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/notewatch/internal/core/domain"
	"github.com/custodia-labs/notewatch/internal/core/ports/driven"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestDispatcher(handlers map[string]driven.WorkflowHandler) (*Dispatcher, *mockRunLog, *mockArtifactStore, *fakeClock) {
	reg := NewWorkflowRegistry()
	for name, h := range handlers {
		if err := reg.Register(name, h); err != nil {
			panic(err)
		}
	}
	runs := newMockRunLog()
	artifacts := &mockArtifactStore{}
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	d := NewDispatcher(DispatcherConfig{
		RunLog:    runs,
		Workflows: reg,
		Artifacts: artifacts,
		Timeout:   200 * time.Millisecond,
		Now:       clock.Now,
	})
	return d, runs, artifacts, clock
}

func assigneeChange(oldValue, newValue any) domain.Change {
	return domain.Change{
		ID:         "change-1",
		DocumentID: "doc-1",
		Path:       "projects/alpha.md",
		Field:      "assignee",
		OldValue:   oldValue,
		NewValue:   newValue,
		OldHash:    HashValue(oldValue),
		NewHash:    HashValue(newValue),
		OldKnown:   true,
	}
}

var notifyRule = domain.Rule{Name: "agent_assignment", Field: "assignee", Predicate: ChangedTo("agent"), WorkflowName: "notify"}

func TestNewDispatcher_Defaults(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{})

	assert.Equal(t, 24*time.Hour, d.window)
	assert.Equal(t, 30*time.Second, d.timeout)
	assert.NotNil(t, d.now)
}

func TestDispatcher_Success(t *testing.T) {
	h := newRecordingHandler()
	d, runs, _, _ := newTestDispatcher(map[string]driven.WorkflowHandler{"notify": h})
	fields := domain.FieldMap{"assignee": "agent", "status": "todo"}

	res := d.Dispatch(context.Background(), notifyRule, assigneeChange(nil, "agent"), fields)

	assert.True(t, res.Invoked)
	assert.Equal(t, domain.RunSuccess, res.Run.Status)
	assert.Equal(t, "agent_assignment", res.Run.RuleName)
	assert.Equal(t, "change-1", res.Run.ChangeID)
	assert.Equal(t, InputHash("notify", "projects/alpha.md", "assignee", EmptyHash, HashValue("agent")), res.Run.InputHash)

	calls := h.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "projects/alpha.md", calls[0].Path)
	assert.Equal(t, "assignee", calls[0].Field)
	assert.Nil(t, calls[0].OldValue)
	assert.Equal(t, "agent", calls[0].NewValue)
	assert.Equal(t, fields, calls[0].Fields)

	recorded := runs.all()
	require.Len(t, recorded, 1)
	assert.Equal(t, res.Run.ID, recorded[0].ID)
}

func TestDispatcher_PayloadFieldsAreCopied(t *testing.T) {
	var got domain.Payload
	h := driven.WorkflowHandlerFunc(func(_ context.Context, p domain.Payload) (domain.WorkflowResult, error) {
		got = p
		p.Fields["assignee"] = "mutated"
		return domain.WorkflowResult{Success: true}, nil
	})
	d, _, _, _ := newTestDispatcher(map[string]driven.WorkflowHandler{"notify": h})
	fields := domain.FieldMap{"assignee": "agent"}

	d.Dispatch(context.Background(), notifyRule, assigneeChange(nil, "agent"), fields)

	assert.Equal(t, "agent", fields["assignee"])
	assert.Equal(t, "mutated", got.Fields["assignee"])
}

func TestDispatcher_DuplicateSuppressed(t *testing.T) {
	h := newRecordingHandler()
	d, runs, _, clock := newTestDispatcher(map[string]driven.WorkflowHandler{"notify": h})
	change := assigneeChange(nil, "agent")

	first := d.Dispatch(context.Background(), notifyRule, change, nil)
	clock.Advance(time.Hour)
	second := d.Dispatch(context.Background(), notifyRule, change, nil)

	assert.True(t, first.Invoked)
	assert.False(t, second.Invoked)
	assert.Equal(t, domain.RunSkipped, second.Run.Status)
	assert.Contains(t, second.Run.Message, first.Run.ID)
	assert.Len(t, h.calls(), 1)
	assert.Len(t, runs.byStatus(domain.RunSuccess), 1)
	assert.Len(t, runs.byStatus(domain.RunSkipped), 1)
}

func TestDispatcher_WindowExpired(t *testing.T) {
	h := newRecordingHandler()
	d, runs, _, clock := newTestDispatcher(map[string]driven.WorkflowHandler{"notify": h})
	change := assigneeChange(nil, "agent")

	d.Dispatch(context.Background(), notifyRule, change, nil)
	clock.Advance(25 * time.Hour)
	res := d.Dispatch(context.Background(), notifyRule, change, nil)

	assert.True(t, res.Invoked)
	assert.Len(t, h.calls(), 2)
	assert.Len(t, runs.byStatus(domain.RunSuccess), 2)
}

func TestDispatcher_DistinctTransitionsAreNotDuplicates(t *testing.T) {
	h := newRecordingHandler()
	d, _, _, _ := newTestDispatcher(map[string]driven.WorkflowHandler{"notify": h})

	d.Dispatch(context.Background(), notifyRule, assigneeChange(nil, "agent"), nil)
	d.Dispatch(context.Background(), notifyRule, assigneeChange("bob", "agent"), nil)

	assert.Len(t, h.calls(), 2)
}

func TestDispatcher_FailedRunDoesNotSuppress(t *testing.T) {
	h := newRecordingHandler()
	h.err = errors.New("webhook down")
	d, runs, _, _ := newTestDispatcher(map[string]driven.WorkflowHandler{"notify": h})
	change := assigneeChange(nil, "agent")

	d.Dispatch(context.Background(), notifyRule, change, nil)
	d.Dispatch(context.Background(), notifyRule, change, nil)

	assert.Len(t, h.calls(), 2)
	assert.Len(t, runs.byStatus(domain.RunError), 2)
}

func TestDispatcher_HandlerFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler driven.WorkflowHandler
		want    string
	}{
		{
			name: "error",
			handler: driven.WorkflowHandlerFunc(func(context.Context, domain.Payload) (domain.WorkflowResult, error) {
				return domain.WorkflowResult{}, errors.New("boom")
			}),
			want: "boom",
		},
		{
			name: "reported failure with message",
			handler: driven.WorkflowHandlerFunc(func(context.Context, domain.Payload) (domain.WorkflowResult, error) {
				return domain.WorkflowResult{Success: false, Message: "ticket rejected"}, nil
			}),
			want: "ticket rejected",
		},
		{
			name: "reported failure without message",
			handler: driven.WorkflowHandlerFunc(func(context.Context, domain.Payload) (domain.WorkflowResult, error) {
				return domain.WorkflowResult{}, nil
			}),
			want: "handler reported failure",
		},
		{
			name: "panic",
			handler: driven.WorkflowHandlerFunc(func(context.Context, domain.Payload) (domain.WorkflowResult, error) {
				panic("nil map")
			}),
			want: "nil map",
		},
		{
			name: "timeout",
			handler: driven.WorkflowHandlerFunc(func(ctx context.Context, _ domain.Payload) (domain.WorkflowResult, error) {
				<-ctx.Done()
				return domain.WorkflowResult{}, ctx.Err()
			}),
			want: "timed out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, runs, _, _ := newTestDispatcher(map[string]driven.WorkflowHandler{"notify": tt.handler})

			res := d.Dispatch(context.Background(), notifyRule, assigneeChange(nil, "agent"), nil)

			assert.True(t, res.Invoked)
			assert.Equal(t, domain.RunError, res.Run.Status)
			assert.Contains(t, res.Run.Message, tt.want)
			require.Len(t, runs.all(), 1)
			assert.Equal(t, domain.RunError, runs.all()[0].Status)
		})
	}
}

func TestDispatcher_TimeoutAbandonsStuckHandler(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	h := driven.WorkflowHandlerFunc(func(context.Context, domain.Payload) (domain.WorkflowResult, error) {
		<-release
		return domain.WorkflowResult{Success: true}, nil
	})
	d, _, _, _ := newTestDispatcher(map[string]driven.WorkflowHandler{"notify": h})

	start := time.Now()
	res := d.Dispatch(context.Background(), notifyRule, assigneeChange(nil, "agent"), nil)

	assert.Equal(t, domain.RunError, res.Run.Status)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDispatcher_UnknownWorkflow(t *testing.T) {
	d, runs, _, _ := newTestDispatcher(nil)
	rule := notifyRule
	rule.WorkflowName = "ghost"

	res := d.Dispatch(context.Background(), rule, assigneeChange(nil, "agent"), nil)

	assert.False(t, res.Invoked)
	assert.Equal(t, domain.RunError, res.Run.Status)
	assert.Contains(t, res.Run.Message, "ghost")
	assert.Len(t, runs.all(), 1)
}

func TestDispatcher_LookupFailureDoesNotInvoke(t *testing.T) {
	h := newRecordingHandler()
	d, runs, _, _ := newTestDispatcher(map[string]driven.WorkflowHandler{"notify": h})
	runs.findErr = errStoreDown

	res := d.Dispatch(context.Background(), notifyRule, assigneeChange(nil, "agent"), nil)

	assert.False(t, res.Invoked)
	assert.Equal(t, domain.RunError, res.Run.Status)
	assert.Contains(t, res.Run.Message, "idempotency check failed")
	assert.Empty(t, h.calls())
}

func TestDispatcher_RunLogAppendFailureIsNotFatal(t *testing.T) {
	h := newRecordingHandler()
	d, runs, _, _ := newTestDispatcher(map[string]driven.WorkflowHandler{"notify": h})
	runs.appendErr = errStoreDown

	res := d.Dispatch(context.Background(), notifyRule, assigneeChange(nil, "agent"), nil)

	assert.True(t, res.Invoked)
	assert.Equal(t, domain.RunSuccess, res.Run.Status)
	assert.Empty(t, runs.all())
}

func TestDispatcher_Artifacts(t *testing.T) {
	tests := []struct {
		name     string
		data     map[string]any
		wantKind string
		wantRef  string
	}{
		{"explicit kind", map[string]any{"reference": "TICKET-42", "kind": "ticket"}, "ticket", "TICKET-42"},
		{"default kind", map[string]any{"reference": "msg-7"}, "notify", "msg-7"},
		{"no reference", map[string]any{"kind": "ticket"}, "", ""},
		{"non-string reference", map[string]any{"reference": 42}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRecordingHandler()
			h.result = domain.WorkflowResult{Success: true, Data: tt.data}
			d, _, artifacts, _ := newTestDispatcher(map[string]driven.WorkflowHandler{"notify": h})

			res := d.Dispatch(context.Background(), notifyRule, assigneeChange(nil, "agent"), nil)

			stored, err := artifacts.ListByRun(context.Background(), res.Run.ID)
			require.NoError(t, err)
			if tt.wantRef == "" {
				assert.Nil(t, res.Artifact)
				assert.Empty(t, stored)
				return
			}
			require.NotNil(t, res.Artifact)
			require.Len(t, stored, 1)
			assert.Equal(t, tt.wantKind, stored[0].Kind)
			assert.Equal(t, tt.wantRef, stored[0].Reference)
			assert.Equal(t, "projects/alpha.md", stored[0].DocumentPath)
		})
	}
}

func TestDispatcher_NoArtifactOnFailure(t *testing.T) {
	h := newRecordingHandler()
	h.result = domain.WorkflowResult{Success: false, Data: map[string]any{"reference": "TICKET-1"}}
	d, _, artifacts, _ := newTestDispatcher(map[string]driven.WorkflowHandler{"notify": h})

	res := d.Dispatch(context.Background(), notifyRule, assigneeChange(nil, "agent"), nil)

	assert.Nil(t, res.Artifact)
	stored, err := artifacts.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestDispatcher_ThrottleCancelled(t *testing.T) {
	h := newRecordingHandler()
	d, _, _, _ := newTestDispatcher(map[string]driven.WorkflowHandler{"notify": h})
	d.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	first := d.Dispatch(context.Background(), notifyRule, assigneeChange(nil, "agent"), nil)
	require.Equal(t, domain.RunSuccess, first.Run.Status)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	second := d.Dispatch(ctx, notifyRule, assigneeChange("bob", "agent"), nil)

	assert.False(t, second.Invoked)
	assert.Equal(t, domain.RunError, second.Run.Status)
	assert.Contains(t, second.Run.Message, "dispatch throttled")
	assert.Len(t, h.calls(), 1)
}
