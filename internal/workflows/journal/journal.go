// Package journal provides the "log" workflow, which records each change
// in the diagnostic log and has no other side effect.
package journal

import (
	"context"
	"fmt"

	"github.com/custodia-labs/notewatch/internal/core/domain"
	"github.com/custodia-labs/notewatch/internal/core/ports/driven"
	"github.com/custodia-labs/notewatch/internal/logger"
)

// Ensure Handler implements the interface.
var _ driven.WorkflowHandler = (*Handler)(nil)

// Handler logs changes.
type Handler struct{}

// New creates a log workflow handler.
func New() *Handler {
	return &Handler{}
}

// Run logs the transition and reports success.
func (h *Handler) Run(ctx context.Context, payload domain.Payload) (domain.WorkflowResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.WorkflowResult{}, err
	}

	msg := fmt.Sprintf("%s#%s: %s -> %s", payload.Path, payload.Field, display(payload.OldValue), display(payload.NewValue))
	logger.Info("change %s", msg)
	return domain.WorkflowResult{Success: true, Message: msg}, nil
}

func display(v any) string {
	if v == nil {
		return "(none)"
	}
	return fmt.Sprintf("%v", v)
}
