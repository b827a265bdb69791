// Package logging builds the zap.Logger the rest of the system logs
// through, mapping an integer screen verbosity onto zap's level
// scheme.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger whose level is derived from screen:
// 0 silences everything but warnings and errors, 1 is the default (info),
// 2 and above enable debug-level node/iteration tracing.
func New(screen int) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	switch {
	case screen <= 0:
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case screen == 1:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	return cfg.Build()
}
