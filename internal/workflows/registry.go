package workflows

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/notewatch/internal/core/ports/driven"
)

// BuilderFunc creates a WorkflowHandler from generic config.
// Config is a map of workflow-specific settings parsed from user config.
type BuilderFunc func(cfg map[string]any) (driven.WorkflowHandler, error)

// Registry maps workflow names to their builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates a new builder registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a workflow builder to the registry.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates a handler by name with the given config.
// Returns error if the workflow name is not registered.
func (r *Registry) Build(name string, cfg map[string]any) (driven.WorkflowHandler, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown workflow: %s", name)
	}
	return builder(cfg)
}

// Has returns true if a workflow with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered workflow names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
