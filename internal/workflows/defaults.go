package workflows

import (
	"fmt"

	"github.com/custodia-labs/notewatch/internal/core/domain"
	"github.com/custodia-labs/notewatch/internal/core/ports/driven"
	"github.com/custodia-labs/notewatch/internal/core/services"
	"github.com/custodia-labs/notewatch/internal/workflows/command"
	"github.com/custodia-labs/notewatch/internal/workflows/journal"
)

// Built-in workflow names.
const (
	LogWorkflow     = "log"
	CommandWorkflow = "command"
)

// RegisterDefaults registers all built-in workflows with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(LogWorkflow, buildJournal)
	r.Register(CommandWorkflow, buildCommand)
}

// Install builds the configured workflows and registers them with target.
// The log workflow is always available; the command workflow only when an
// argv is configured.
func Install(r *Registry, target *services.WorkflowRegistry, cfg domain.Config) error {
	enabled := map[string]map[string]any{
		LogWorkflow: nil,
	}
	if len(cfg.CommandArgv) > 0 {
		enabled[CommandWorkflow] = map[string]any{"argv": cfg.CommandArgv}
	}

	for _, name := range r.Names() {
		settings, ok := enabled[name]
		if !ok {
			continue
		}
		handler, err := r.Build(name, settings)
		if err != nil {
			return fmt.Errorf("build workflow %s: %w", name, err)
		}
		if err := target.Register(name, handler); err != nil {
			return fmt.Errorf("register workflow %s: %w", name, err)
		}
	}
	return nil
}

func buildJournal(_ map[string]any) (driven.WorkflowHandler, error) {
	return journal.New(), nil
}

// buildCommand creates the command workflow from generic config.
// Supported config keys:
//   - argv ([]string or []any): program and arguments (required)
func buildCommand(cfg map[string]any) (driven.WorkflowHandler, error) {
	argv := getStringsFromConfig(cfg, "argv")
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: command workflow needs argv", domain.ErrInvalidConfig)
	}
	return command.New(argv), nil
}

// getStringsFromConfig extracts a string list from a generic config map.
// Handles []string and the []any produced by TOML parsing.
func getStringsFromConfig(cfg map[string]any, key string) []string {
	val, ok := cfg[key]
	if !ok {
		return nil
	}

	switch v := val.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil
			}
			out = append(out, s)
		}
		return out
	default:
		return nil
	}
}
