// Package logger provides diagnostics for notewatch.
// Debug messages are printed only in verbose mode (--verbose or verbose = true).
// Errors from the error taxonomy (extraction, predicate, handler, store, scan)
// always go to a separate error writer so they never mix with the audit trail.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Kind classifies an error so operators can tell failures apart.
type Kind string

// Error kinds.
const (
	KindExtraction Kind = "extraction"
	KindPredicate  Kind = "predicate"
	KindHandler    Kind = "handler"
	KindStore      Kind = "store"
	KindScan       Kind = "scan"
)

var (
	mu        sync.RWMutex
	verbose   bool
	output    io.Writer = os.Stderr
	errOutput io.Writer = os.Stderr
	level               = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	diag      *zap.SugaredLogger
	errs      *zap.Logger
)

func init() {
	rebuild()
}

// rebuild recreates the cores for the current writers (caller must hold lock).
func rebuild() {
	diag = zap.New(zapcore.NewCore(newEncoder(), zapcore.AddSync(output), level)).Sugar()
	errs = zap.New(zapcore.NewCore(newEncoder(), zapcore.AddSync(errOutput), zapcore.ErrorLevel))
}

func newEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.CallerKey = zapcore.OmitKey
	cfg.StacktraceKey = zapcore.OmitKey
	return zapcore.NewConsoleEncoder(cfg)
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		level.SetLevel(zapcore.DebugLevel)
	} else {
		level.SetLevel(zapcore.InfoLevel)
	}
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the writer for diagnostic logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	rebuild()
}

// SetErrorOutput sets the writer for the error channel.
// Defaults to os.Stderr.
func SetErrorOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	errOutput = w
	rebuild()
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	diag.Debugf(format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	diag.Debugf("=== %s ===", name)
}

// Info prints an informational message.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	diag.Infof(format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	diag.Warnf(format, args...)
}

// Error prints a classified error to the error channel. It is never
// suppressed by the verbose toggle.
func Error(kind Kind, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	errs.Error(fmt.Sprintf(format, args...), zap.String("kind", string(kind)))
}

// Sync flushes buffered log entries.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	_ = diag.Sync()
	return errs.Sync()
}
