package services

import (
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/notewatch/internal/core/domain"
	"github.com/custodia-labs/notewatch/internal/core/ports/driven"
)

// Ensure WorkflowRegistry implements the interface.
var _ driven.WorkflowRegistry = (*WorkflowRegistry)(nil)

// WorkflowRegistry maps workflow names to handlers.
// Handlers are registered during startup, before the poll loop runs.
type WorkflowRegistry struct {
	mu     sync.RWMutex
	byName map[string]driven.WorkflowHandler
}

// NewWorkflowRegistry creates an empty registry.
func NewWorkflowRegistry() *WorkflowRegistry {
	return &WorkflowRegistry{
		byName: make(map[string]driven.WorkflowHandler),
	}
}

// Register adds a handler under name.
func (r *WorkflowRegistry) Register(name string, handler driven.WorkflowHandler) error {
	if name == "" || handler == nil {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("workflow %q already registered", name)
	}
	r.byName[name] = handler
	return nil
}

// Lookup returns the handler registered under name.
func (r *WorkflowRegistry) Lookup(name string) (driven.WorkflowHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.byName[name]
	return h, ok
}

// Names returns the registered workflow names, sorted.
func (r *WorkflowRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
