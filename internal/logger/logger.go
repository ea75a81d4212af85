package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the output format and the fields stamped on every entry.
type Config struct {
	JSON    bool
	Debug   bool
	Command string
	Version string
}

// New builds the process logger. Console output is the default; JSON output is
// sampled unless debug is on.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Debug {
		level = zapcore.DebugLevel
	}

	zc := zap.Config{
		Encoding:         "console",
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    encoderConfig(cfg.JSON),
		InitialFields:    initialFields(cfg),
	}
	if cfg.JSON {
		zc.Encoding = "json"
		if !cfg.Debug {
			zc.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}
		}
	}

	return zc.Build()
}

func encoderConfig(json bool) zapcore.EncoderConfig {
	ec := zapcore.EncoderConfig{
		MessageKey:     "step",
		LevelKey:       "level",
		TimeKey:        "time",
		CallerKey:      "caller",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	if json {
		ec.EncodeDuration = zapcore.MillisDurationEncoder
		ec.StacktraceKey = "stacktrace"
	} else {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return ec
}

func initialFields(cfg Config) map[string]any {
	fields := map[string]any{}
	for _, f := range StringFields(
		StringField{Key: FieldCommand, Value: cfg.Command},
		StringField{Key: FieldVersion, Value: cfg.Version},
	) {
		fields[f.Key] = f.String
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
