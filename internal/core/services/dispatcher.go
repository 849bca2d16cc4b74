package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/notewatch/internal/core/domain"
	"github.com/custodia-labs/notewatch/internal/core/ports/driven"
	"github.com/custodia-labs/notewatch/internal/logger"
)

// DispatcherConfig holds the collaborators and limits of a Dispatcher.
type DispatcherConfig struct {
	RunLog    driven.RunLog
	Workflows driven.WorkflowRegistry

	// Artifacts is optional; without it references are only logged.
	Artifacts driven.ArtifactStore

	// Window is the idempotency window. Defaults to 24h.
	Window time.Duration

	// Timeout bounds one handler invocation. Defaults to 30s.
	Timeout time.Duration

	// Limiter optionally throttles handler invocations.
	Limiter *rate.Limiter

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Dispatcher runs the workflow of a matched rule at most once per logical
// change within the idempotency window, and records every attempt.
type Dispatcher struct {
	runLog    driven.RunLog
	workflows driven.WorkflowRegistry
	artifacts driven.ArtifactStore
	window    time.Duration
	timeout   time.Duration
	limiter   *rate.Limiter
	now       func() time.Time
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	d := &Dispatcher{
		runLog:    cfg.RunLog,
		workflows: cfg.Workflows,
		artifacts: cfg.Artifacts,
		window:    cfg.Window,
		timeout:   cfg.Timeout,
		limiter:   cfg.Limiter,
		now:       cfg.Now,
	}
	if d.window <= 0 {
		d.window = 24 * time.Hour
	}
	if d.timeout <= 0 {
		d.timeout = 30 * time.Second
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d
}

// Dispatch decides whether to run the rule's workflow for a change, runs it,
// and records the outcome. It never returns an error: every failure becomes
// an error run so one bad handler cannot abort the cycle.
func (d *Dispatcher) Dispatch(ctx context.Context, rule domain.Rule, change domain.Change, fields domain.FieldMap) domain.RunResult {
	run := domain.Run{
		ID:           uuid.NewString(),
		WorkflowName: rule.WorkflowName,
		RuleName:     rule.Name,
		InputHash:    InputHash(rule.WorkflowName, change.Path, change.Field, change.OldHash, change.NewHash),
		ChangeID:     change.ID,
		DocumentPath: change.Path,
		Field:        change.Field,
	}

	// Checked before dispatch, not enforced at write time.
	prev, err := d.runLog.FindSuccess(ctx, run.InputHash, d.now().Add(-d.window))
	if err != nil {
		logger.Error(logger.KindStore, "idempotency check for %s on %s: %v", rule.WorkflowName, change.Path, err)
		return d.finish(ctx, run, domain.RunError, fmt.Sprintf("idempotency check failed: %v", err))
	}
	if prev != nil {
		logger.Info("duplicate suppressed: rule=%s workflow=%s path=%s field=%s previous_run=%s",
			rule.Name, rule.WorkflowName, change.Path, change.Field, prev.ID)
		return d.finish(ctx, run, domain.RunSkipped, "duplicate of run "+prev.ID)
	}

	handler, ok := d.workflows.Lookup(rule.WorkflowName)
	if !ok {
		logger.Error(logger.KindHandler, "rule %s: %v %q", rule.Name, domain.ErrUnknownWorkflow, rule.WorkflowName)
		return d.finish(ctx, run, domain.RunError, fmt.Sprintf("%v: %s", domain.ErrUnknownWorkflow, rule.WorkflowName))
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			logger.Error(logger.KindHandler, "throttling %s on %s: %v", rule.WorkflowName, change.Path, err)
			return d.finish(ctx, run, domain.RunError, fmt.Sprintf("dispatch throttled: %v", err))
		}
	}

	payload := domain.Payload{
		Path:     change.Path,
		Field:    change.Field,
		OldValue: change.OldValue,
		NewValue: change.NewValue,
		Fields:   fields.Clone(),
	}

	run.StartedAt = d.now()
	res, err := d.invoke(ctx, handler, payload)
	run.FinishedAt = d.now()

	switch {
	case err != nil:
		logger.Error(logger.KindHandler, "workflow %s for %s#%s: %v", rule.WorkflowName, change.Path, change.Field, err)
		run.Status, run.Message = domain.RunError, err.Error()
	case !res.Success:
		msg := res.Message
		if msg == "" {
			msg = "handler reported failure"
		}
		logger.Error(logger.KindHandler, "workflow %s for %s#%s: %s", rule.WorkflowName, change.Path, change.Field, msg)
		run.Status, run.Message = domain.RunError, msg
	default:
		logger.Info("workflow %s ran for %s#%s (rule %s)", rule.WorkflowName, change.Path, change.Field, rule.Name)
		run.Status, run.Message = domain.RunSuccess, res.Message
	}

	result := domain.RunResult{Run: run, Invoked: true}
	d.record(ctx, run)
	if run.Status == domain.RunSuccess {
		result.Artifact = d.recordArtifact(ctx, run, res)
	}
	return result
}

// finish stamps and records a run that never reached the handler.
func (d *Dispatcher) finish(ctx context.Context, run domain.Run, status domain.RunStatus, msg string) domain.RunResult {
	now := d.now()
	run.StartedAt, run.FinishedAt = now, now
	run.Status, run.Message = status, msg
	d.record(ctx, run)
	return domain.RunResult{Run: run}
}

func (d *Dispatcher) record(ctx context.Context, run domain.Run) {
	if err := d.runLog.Append(ctx, run); err != nil {
		logger.Error(logger.KindStore, "recording run %s (%s, %s): %v", run.ID, run.WorkflowName, run.Status, err)
	}
}

// recordArtifact saves the side-effect reference of a successful run, if any.
func (d *Dispatcher) recordArtifact(ctx context.Context, run domain.Run, res domain.WorkflowResult) *domain.Artifact {
	ref, _ := res.Data[domain.DataReference].(string)
	if ref == "" {
		return nil
	}
	kind, _ := res.Data[domain.DataKind].(string)
	if kind == "" {
		kind = run.WorkflowName
	}

	artifact := domain.Artifact{
		ID:           uuid.NewString(),
		RunID:        run.ID,
		WorkflowName: run.WorkflowName,
		DocumentPath: run.DocumentPath,
		Kind:         kind,
		Reference:    ref,
		CreatedAt:    run.FinishedAt,
	}
	if d.artifacts == nil {
		logger.Info("artifact %s=%s from run %s (no artifact store)", kind, ref, run.ID)
		return &artifact
	}
	if err := d.artifacts.Save(ctx, artifact); err != nil {
		logger.Error(logger.KindStore, "recording artifact for run %s: %v", run.ID, err)
	}
	return &artifact
}

type invokeOutcome struct {
	res domain.WorkflowResult
	err error
}

// invoke calls the handler under the dispatcher's deadline. A handler that
// ignores its context is abandoned when the deadline passes.
func (d *Dispatcher) invoke(ctx context.Context, h driven.WorkflowHandler, payload domain.Payload) (domain.WorkflowResult, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan invokeOutcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- invokeOutcome{err: fmt.Errorf("%w: %v", domain.ErrHandlerPanic, rec)}
			}
		}()
		res, err := h.Run(ctx, payload)
		done <- invokeOutcome{res: res, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil && errors.Is(out.err, context.DeadlineExceeded) {
			return out.res, fmt.Errorf("%w after %s", domain.ErrHandlerTimeout, d.timeout)
		}
		return out.res, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return domain.WorkflowResult{}, fmt.Errorf("%w after %s", domain.ErrHandlerTimeout, d.timeout)
		}
		return domain.WorkflowResult{}, ctx.Err()
	}
}
