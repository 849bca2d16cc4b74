package file

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/notewatch/internal/core/domain"
	"github.com/custodia-labs/notewatch/internal/core/ports/driven"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NOTEWATCH_"

// Ensure Loader implements the interface.
var _ driven.ConfigLoader = (*Loader)(nil)

// Loader is a file-based implementation of driven.ConfigLoader using TOML.
type Loader struct {
	filePath string
	lookup   func(string) (string, bool)

	// notesDir overrides notes_dir after file and environment.
	notesDir string
}

// NewLoader creates a loader for the given file.
// If path is empty, defaults to ~/.notewatch/config.toml.
func NewLoader(path string) (*Loader, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".notewatch", "config.toml")
	}

	return &Loader{
		filePath: path,
		lookup:   os.LookupEnv,
	}, nil
}

// SetNotesDir makes Load use dir as notes_dir regardless of the file and
// environment. An empty dir clears the override.
func (l *Loader) SetNotesDir(dir string) {
	l.notesDir = dir
}

// Path returns the configuration file path.
func (l *Loader) Path() string {
	return l.filePath
}

// fileConfig mirrors the TOML layout. Pointers tell unset keys from zero values.
type fileConfig struct {
	NotesDir          *string                 `toml:"notes_dir"`
	DataDir           *string                 `toml:"data_dir"`
	Storage           *string                 `toml:"storage"`
	PollInterval      *string                 `toml:"poll_interval"`
	TrackedFields     []string                `toml:"tracked_fields"`
	Extensions        []string                `toml:"extensions"`
	IdempotencyWindow *string                 `toml:"idempotency_window"`
	HandlerTimeout    *string                 `toml:"handler_timeout"`
	Workers           *int                    `toml:"workers"`
	DispatchRate      *float64                `toml:"dispatch_rate"`
	DispatchBurst     *int                    `toml:"dispatch_burst"`
	Watch             *bool                   `toml:"watch"`
	Verbose           *bool                   `toml:"verbose"`
	Workflows         map[string]workflowFile `toml:"workflows"`
	Rules             []ruleFile              `toml:"rules"`
}

type workflowFile struct {
	Argv []string `toml:"argv"`
}

type ruleFile struct {
	Name        string `toml:"name"`
	Field       string `toml:"field"`
	When        string `toml:"when"`
	Value       any    `toml:"value"`
	From        any    `toml:"from"`
	Pattern     string `toml:"pattern"`
	Workflow    string `toml:"workflow"`
	Description string `toml:"description"`
	Stop        bool   `toml:"stop"`
}

// Load reads the configuration file, applies NOTEWATCH_* overrides and
// validates the result.
func (l *Loader) Load() (domain.Config, error) {
	cfg := domain.DefaultConfig()
	cfg.DataDir = filepath.Join(filepath.Dir(l.filePath), "data")

	data, err := os.ReadFile(l.filePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// No config file yet - defaults and environment only
	case err != nil:
		return domain.Config{}, fmt.Errorf("reading config: %w", err)
	default:
		var fc fileConfig
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&fc); err != nil {
			return domain.Config{}, fmt.Errorf("%w: %s: %v", domain.ErrInvalidConfig, l.filePath, describe(err))
		}
		if err := fc.apply(&cfg); err != nil {
			return domain.Config{}, err
		}
	}

	if err := l.applyEnv(&cfg); err != nil {
		return domain.Config{}, err
	}

	if l.notesDir != "" {
		cfg.NotesDir = l.notesDir
	}
	cfg.NotesDir = expandHome(cfg.NotesDir)
	cfg.DataDir = expandHome(cfg.DataDir)

	if err := cfg.Validate(); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// describe renders TOML decode errors with their position when available.
func describe(err error) string {
	var decErr *toml.DecodeError
	if errors.As(err, &decErr) {
		row, col := decErr.Position()
		return fmt.Sprintf("line %d, column %d: %s", row, col, decErr.Error())
	}
	var strictErr *toml.StrictMissingError
	if errors.As(err, &strictErr) {
		return strings.TrimSpace(strictErr.String())
	}
	return err.Error()
}

func (fc fileConfig) apply(cfg *domain.Config) error {
	if fc.NotesDir != nil {
		cfg.NotesDir = *fc.NotesDir
	}
	if fc.DataDir != nil {
		cfg.DataDir = *fc.DataDir
	}
	if fc.Storage != nil {
		cfg.Storage = domain.StorageBackend(*fc.Storage)
	}
	if err := setDuration(&cfg.PollInterval, "poll_interval", fc.PollInterval); err != nil {
		return err
	}
	if err := setDuration(&cfg.IdempotencyWindow, "idempotency_window", fc.IdempotencyWindow); err != nil {
		return err
	}
	if err := setDuration(&cfg.HandlerTimeout, "handler_timeout", fc.HandlerTimeout); err != nil {
		return err
	}
	if fc.TrackedFields != nil {
		cfg.TrackedFields = fc.TrackedFields
	}
	if fc.Extensions != nil {
		cfg.Extensions = normaliseExtensions(fc.Extensions)
	}
	if fc.Workers != nil {
		cfg.Workers = *fc.Workers
	}
	if fc.DispatchRate != nil {
		cfg.DispatchRate = *fc.DispatchRate
	}
	if fc.DispatchBurst != nil {
		cfg.DispatchBurst = *fc.DispatchBurst
	}
	if fc.Watch != nil {
		cfg.Watch = *fc.Watch
	}
	if fc.Verbose != nil {
		cfg.Verbose = *fc.Verbose
	}
	if wf, ok := fc.Workflows["command"]; ok {
		cfg.CommandArgv = wf.Argv
	}
	for name := range fc.Workflows {
		if name != "command" {
			return fmt.Errorf("%w: unknown workflow section [workflows.%s]", domain.ErrInvalidConfig, name)
		}
	}

	cfg.Rules = make([]domain.RuleDefinition, 0, len(fc.Rules))
	for _, r := range fc.Rules {
		cfg.Rules = append(cfg.Rules, domain.RuleDefinition{
			Name:        r.Name,
			Field:       r.Field,
			When:        domain.Condition(r.When),
			Value:       r.Value,
			From:        r.From,
			Pattern:     r.Pattern,
			Workflow:    r.Workflow,
			Description: r.Description,
			Stop:        r.Stop,
		})
	}
	return nil
}

// applyEnv overrides scalar keys from NOTEWATCH_* variables.
func (l *Loader) applyEnv(cfg *domain.Config) error {
	if v, ok := l.env("NOTES_DIR"); ok {
		cfg.NotesDir = v
	}
	if v, ok := l.env("DATA_DIR"); ok {
		cfg.DataDir = v
	}
	if v, ok := l.env("STORAGE"); ok {
		cfg.Storage = domain.StorageBackend(v)
	}
	for key, dst := range map[string]*time.Duration{
		"POLL_INTERVAL":      &cfg.PollInterval,
		"IDEMPOTENCY_WINDOW": &cfg.IdempotencyWindow,
		"HANDLER_TIMEOUT":    &cfg.HandlerTimeout,
	} {
		if v, ok := l.env(key); ok {
			if err := setDuration(dst, EnvPrefix+key, &v); err != nil {
				return err
			}
		}
	}
	if v, ok := l.env("TRACKED_FIELDS"); ok {
		cfg.TrackedFields = splitList(v)
	}
	if v, ok := l.env("EXTENSIONS"); ok {
		cfg.Extensions = normaliseExtensions(splitList(v))
	}
	for key, dst := range map[string]*int{
		"WORKERS":        &cfg.Workers,
		"DISPATCH_BURST": &cfg.DispatchBurst,
	} {
		if v, ok := l.env(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s: %v", domain.ErrInvalidConfig, EnvPrefix, key, err)
			}
			*dst = n
		}
	}
	if v, ok := l.env("DISPATCH_RATE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %sDISPATCH_RATE: %v", domain.ErrInvalidConfig, EnvPrefix, err)
		}
		cfg.DispatchRate = f
	}
	for key, dst := range map[string]*bool{
		"WATCH":   &cfg.Watch,
		"VERBOSE": &cfg.Verbose,
	} {
		if v, ok := l.env(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s: %v", domain.ErrInvalidConfig, EnvPrefix, key, err)
			}
			*dst = b
		}
	}
	return nil
}

func (l *Loader) env(key string) (string, bool) {
	v, ok := l.lookup(EnvPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func setDuration(dst *time.Duration, key string, raw *string) error {
	if raw == nil {
		return nil
	}
	d, err := time.ParseDuration(*raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidConfig, key, err)
	}
	*dst = d
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normaliseExtensions lowercases extensions and adds the leading dot.
func normaliseExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
