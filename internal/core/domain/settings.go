package domain

import (
	"fmt"
	"time"
)

// StorageBackend selects where the durable tables live.
type StorageBackend string

// Available storage backends.
const (
	// StorageSQLite keeps all tables in a single SQLite database.
	StorageSQLite StorageBackend = "sqlite"

	// StorageMemory keeps tables in process memory (dry runs and tests).
	StorageMemory StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	return b == StorageSQLite || b == StorageMemory
}

// Config is the runtime configuration of notewatch.
type Config struct {
	// NotesDir is the root of the watched tree.
	NotesDir string

	// DataDir holds the SQLite database.
	DataDir string

	// Storage selects the durable store backend.
	Storage StorageBackend

	// PollInterval is the time between two cycle starts.
	PollInterval time.Duration

	// TrackedFields lists the frontmatter fields that are diffed.
	TrackedFields []string

	// Extensions restricts which files are treated as notes.
	Extensions []string

	// IdempotencyWindow bounds duplicate suppression.
	IdempotencyWindow time.Duration

	// HandlerTimeout bounds one workflow handler invocation.
	HandlerTimeout time.Duration

	// Workers is the number of documents processed in parallel.
	Workers int

	// DispatchRate caps handler invocations per second. Zero disables the cap.
	DispatchRate float64

	// DispatchBurst is the token bucket size used with DispatchRate.
	DispatchBurst int

	// Watch enables filesystem notifications that wake the loop early.
	Watch bool

	// Verbose enables debug diagnostics.
	Verbose bool

	// CommandArgv is the argv of the "command" workflow. Empty disables it.
	CommandArgv []string

	// Rules are the declarative rule definitions, in order.
	Rules []RuleDefinition
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Storage:           StorageSQLite,
		PollInterval:      time.Minute,
		TrackedFields:     []string{"assignee", "status"},
		Extensions:        []string{".md", ".markdown", ".txt"},
		IdempotencyWindow: 24 * time.Hour,
		HandlerTimeout:    30 * time.Second,
		Workers:           4,
		DispatchBurst:     1,
	}
}

// Validate checks the configuration for values the poll loop cannot run with.
func (c Config) Validate() error {
	if c.NotesDir == "" {
		return fmt.Errorf("%w: notes_dir is required", ErrInvalidConfig)
	}
	if !c.Storage.IsValid() {
		return fmt.Errorf("%w: unknown storage %q", ErrInvalidConfig, c.Storage)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll_interval must be positive", ErrInvalidConfig)
	}
	if len(c.TrackedFields) == 0 {
		return fmt.Errorf("%w: tracked_fields must not be empty", ErrInvalidConfig)
	}
	if c.IdempotencyWindow <= 0 {
		return fmt.Errorf("%w: idempotency_window must be positive", ErrInvalidConfig)
	}
	if c.HandlerTimeout <= 0 {
		return fmt.Errorf("%w: handler_timeout must be positive", ErrInvalidConfig)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1", ErrInvalidConfig)
	}
	if c.DispatchRate < 0 {
		return fmt.Errorf("%w: dispatch_rate must not be negative", ErrInvalidConfig)
	}
	return nil
}

// IsTracked reports whether a field is in the tracked list.
func (c Config) IsTracked(field string) bool {
	for _, f := range c.TrackedFields {
		if f == field {
			return true
		}
	}
	return false
}
