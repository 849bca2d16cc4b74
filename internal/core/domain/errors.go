package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates the runtime configuration cannot be used.
	ErrInvalidConfig = errors.New("invalid configuration")

	// Rule Errors.

	// ErrInvalidRule indicates a rule definition could not be compiled.
	ErrInvalidRule = errors.New("invalid rule")

	// ErrDuplicateRule indicates two rules share the same name.
	ErrDuplicateRule = errors.New("duplicate rule")

	// Workflow Errors.

	// ErrUnknownWorkflow indicates a rule names a workflow with no registered handler.
	ErrUnknownWorkflow = errors.New("unknown workflow")

	// ErrHandlerTimeout indicates a workflow handler did not finish within its deadline.
	ErrHandlerTimeout = errors.New("workflow handler timed out")

	// ErrHandlerPanic indicates a workflow handler panicked.
	ErrHandlerPanic = errors.New("workflow handler panicked")

	// ErrPollerRunning indicates the poll loop has already been started.
	ErrPollerRunning = errors.New("poller already running")
)
