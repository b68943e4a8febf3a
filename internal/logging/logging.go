// Package logging wires logr on top of zap for the DEA engine and its CLI.
package logging

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbosity levels passed to logr's V().
const (
	INFO  = 0
	DEBUG = 1
	TRACE = 2
)

// Log is the process-wide fallback logger returned by FromContext when the
// context carries none. It discards everything until SetLogger is called.
var Log = logr.Discard()

// SetLogger replaces the fallback logger. Call it once during start-up.
func SetLogger(l logr.Logger) {
	Log = l
}

// FromContext returns the logger stored in ctx, or Log.
func FromContext(ctx context.Context) logr.Logger {
	if l, err := logr.FromContext(ctx); err == nil {
		return l
	}
	return Log
}

// IntoContext stores l in ctx.
func IntoContext(ctx context.Context, l logr.Logger) context.Context {
	return logr.NewContext(ctx, l)
}

// Options controls NewLogger.
type Options struct {
	// Verbosity is the highest logr V-level that is emitted.
	Verbosity int
	// Development switches to zap's human-readable console encoder.
	Development bool
}

// NewLogger builds a zap-backed logr.Logger. The returned function flushes
// buffered entries and should be deferred by the caller.
func NewLogger(opts Options) (logr.Logger, func(), error) {
	cfg := zap.NewProductionConfig()
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	}
	// zapr maps V(n) to zap level -n.
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-opts.Verbosity))
	cfg.DisableStacktrace = !opts.Development

	z, err := cfg.Build()
	if err != nil {
		return logr.Discard(), func() {}, fmt.Errorf("failed to build zap logger: %w", err)
	}
	return zapr.NewLogger(z), func() { _ = z.Sync() }, nil
}

// NewTestLogger installs a development logger at TRACE verbosity as Log and
// returns it. Test suites call it from their entry point.
func NewTestLogger() logr.Logger {
	l, _, err := NewLogger(Options{Verbosity: TRACE, Development: true})
	if err != nil {
		l = logr.Discard()
	}
	SetLogger(l)
	return l
}
