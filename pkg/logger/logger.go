package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	KeyResult   = "result"
	KeyError    = "error"
	KeyRetry    = "retry"
	KeyProvider = "provider"
	KeyRegion   = "region"
	KeyInstance = "instance_type"
	KeyCount    = "count"
	KeyRunID    = "run_id"

	ValueFail    = "fail"
	ValueSuccess = "success"
	ValueTrue    = "true"
)

// NewLogger returns a JSON sugared logger writing to stderr at the given level.
// stdout is left to the report preview.
func NewLogger(level zapcore.Level) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		// the production config only fails on bad sinks, fall back to the example logger
		return zap.NewExample().Sugar()
	}

	return l.Sugar()
}
