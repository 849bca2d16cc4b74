// Package command provides the "command" workflow, which runs an external
// program once per change.
//
// The program receives the change as a JSON document on stdin and as
// NOTEWATCH_* environment variables. A zero exit status is success; the
// first non-empty line of stdout, if any, is reported as the run's
// reference (for example a ticket id).
package command

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/custodia-labs/notewatch/internal/core/domain"
	"github.com/custodia-labs/notewatch/internal/core/ports/driven"
)

// Ensure Handler implements the interface.
var _ driven.WorkflowHandler = (*Handler)(nil)

// DefaultWaitDelay bounds how long the handler waits for output pipes
// after the context kills the process.
const DefaultWaitDelay = 2 * time.Second

// maxOutput caps how much stdout and stderr is retained per run.
const maxOutput = 64 << 10

// Handler runs an external program.
type Handler struct {
	argv      []string
	dir       string
	env       []string
	waitDelay time.Duration
}

// Option configures the command handler.
type Option func(*Handler)

// WithDir sets the working directory of the program.
func WithDir(dir string) Option {
	return func(h *Handler) {
		h.dir = dir
	}
}

// WithEnv appends environment variables ("KEY=value") to the program's
// environment.
func WithEnv(env ...string) Option {
	return func(h *Handler) {
		h.env = append(h.env, env...)
	}
}

// WithWaitDelay overrides DefaultWaitDelay.
func WithWaitDelay(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.waitDelay = d
		}
	}
}

// New creates a command handler for argv.
func New(argv []string, opts ...Option) *Handler {
	h := &Handler{
		argv:      append([]string(nil), argv...),
		waitDelay: DefaultWaitDelay,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// input is the JSON document written to the program's stdin.
type input struct {
	Path     string         `json:"path"`
	Field    string         `json:"field"`
	OldValue any            `json:"old_value"`
	NewValue any            `json:"new_value"`
	Fields   map[string]any `json:"fields"`
}

// Run executes the program and waits for it to exit.
func (h *Handler) Run(ctx context.Context, payload domain.Payload) (domain.WorkflowResult, error) {
	if len(h.argv) == 0 {
		return domain.WorkflowResult{}, errors.New("command: empty argv")
	}

	stdin, err := json.Marshal(input{
		Path:     payload.Path,
		Field:    payload.Field,
		OldValue: payload.OldValue,
		NewValue: payload.NewValue,
		Fields:   payload.Fields,
	})
	if err != nil {
		return domain.WorkflowResult{}, fmt.Errorf("command: encode payload: %w", err)
	}

	cmd := exec.CommandContext(ctx, h.argv[0], h.argv[1:]...)
	cmd.Dir = h.dir
	cmd.Env = append(os.Environ(), h.env...)
	cmd.Env = append(cmd.Env,
		"NOTEWATCH_PATH="+payload.Path,
		"NOTEWATCH_FIELD="+payload.Field,
	)
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.WaitDelay = h.waitDelay

	var stdout, stderr limitedBuffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.WorkflowResult{}, fmt.Errorf("command %s: %w", h.argv[0], ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg := fmt.Sprintf("%s exited with status %d", h.argv[0], exitErr.ExitCode())
			if tail := lastLine(stderr.String()); tail != "" {
				msg += ": " + tail
			}
			return domain.WorkflowResult{Success: false, Message: msg}, nil
		}
		return domain.WorkflowResult{}, fmt.Errorf("command %s: %w", h.argv[0], err)
	}

	res := domain.WorkflowResult{Success: true, Message: h.argv[0] + " exited with status 0"}
	if ref := firstLine(stdout.String()); ref != "" {
		res.Data = map[string]any{
			domain.DataReference: ref,
			domain.DataKind:      "command",
		}
	}
	return res, nil
}

func firstLine(s string) string {
	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line
		}
	}
	return ""
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// limitedBuffer keeps the first maxOutput bytes written to it and discards
// the rest.
type limitedBuffer struct {
	buf bytes.Buffer
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := maxOutput - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	return b.buf.String()
}
