package driven

import (
	"context"

	"github.com/custodia-labs/notewatch/internal/core/domain"
)

// WorkflowHandler executes one workflow for a change.
// Any external side effect is the handler's responsibility. A handler
// should honour ctx cancellation; the dispatcher enforces its deadline
// regardless.
type WorkflowHandler interface {
	Run(ctx context.Context, payload domain.Payload) (domain.WorkflowResult, error)
}

// WorkflowHandlerFunc adapts a function to WorkflowHandler.
type WorkflowHandlerFunc func(ctx context.Context, payload domain.Payload) (domain.WorkflowResult, error)

// Run calls f.
func (f WorkflowHandlerFunc) Run(ctx context.Context, payload domain.Payload) (domain.WorkflowResult, error) {
	return f(ctx, payload)
}

// WorkflowRegistry resolves workflow names to handlers.
type WorkflowRegistry interface {
	// Lookup returns the handler registered under name.
	Lookup(name string) (WorkflowHandler, bool)

	// Names returns the registered workflow names, sorted.
	Names() []string
}
