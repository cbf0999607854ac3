// Package logging builds the zap-backed logr.Logger shared by the binaries.
package logging

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the logger's encoding and verbosity.
type Options struct {
	// Verbosity enables logr V(n) records up to n
	Verbosity int

	// Development switches to console output with caller and stack traces
	Development bool
}

// New returns a logger and a flush function to defer.
func New(opts Options) (logr.Logger, func(), error) {
	if opts.Verbosity < 0 {
		return logr.Discard(), func() {}, fmt.Errorf("verbosity must be >= 0, got %d", opts.Verbosity)
	}

	cfg := zap.NewProductionConfig()
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	}
	// logr V(n) maps to zap level -n
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-opts.Verbosity))

	zapLog, err := cfg.Build()
	if err != nil {
		return logr.Discard(), func() {}, fmt.Errorf("failed to build zap logger: %w", err)
	}

	return zapr.NewLogger(zapLog), func() { _ = zapLog.Sync() }, nil
}
