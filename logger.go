package extcomp

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/extcomp/registry"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// sinkMu guards sinks.
var sinkMu sync.RWMutex

// sinks are per-package logger setters registered by sub-packages that
// this package cannot import without a cycle.
var sinks []func(*slog.Logger)

// SetLogger configures the logger for extcomp and all its sub-packages.
// By default, extcomp produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger
// atomically. Pass nil to disable logging (restore default silent
// behavior).
//
// Log levels used by extcomp:
//   - [slog.LevelDebug]: internal diagnostics (dispatch parameters, cache fills)
//   - [slog.LevelWarn]: non-fatal issues (unresolved bindings, skipped groups)
//   - [slog.LevelError]: configuration errors (unsupported input layouts)
//
// Example:
//
//	// Enable debug-level logging for full diagnostics:
//	extcomp.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	registry.SetLogger(l)

	sinkMu.RLock()
	defer sinkMu.RUnlock()
	for _, sink := range sinks {
		sink(l)
	}
}

// Logger returns the current logger used by extcomp.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// RegisterLoggerSink registers a per-package logger setter so SetLogger
// reaches packages that depend on this one (the compute package registers
// its setter at init). The sink immediately receives the current logger.
func RegisterLoggerSink(sink func(*slog.Logger)) {
	sinkMu.Lock()
	sinks = append(sinks, sink)
	sinkMu.Unlock()

	sink(loggerPtr.Load())
}
