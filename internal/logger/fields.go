package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured field keys shared across packages.
const (
	FieldProvider     = "ai_provider"
	FieldModel        = "ai_model"
	FieldRequestID    = "request_id"
	FieldCallID       = "call_id"
	FieldEvaluationID = "evaluation_id"
	FieldCommand      = "command"
	FieldVersion      = "version"
)

type StringField struct {
	Key   string
	Value string
}

// StringFields converts key/value pairs into zap fields. Pairs with a blank
// key or value are dropped.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		value := strings.TrimSpace(field.Value)
		if key == "" || value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to logger. A nil logger becomes a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields describes the AI provider and model of a call.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model)...)
}

// WithRequest tags every entry with the HTTP request id.
func WithRequest(logger *zap.Logger, requestID string) *zap.Logger {
	return WithFields(logger, StringFields(StringField{Key: FieldRequestID, Value: requestID})...)
}

// WithEvaluation tags entries of one evaluation run.
func WithEvaluation(logger *zap.Logger, evaluationID, requestID string) *zap.Logger {
	return WithFields(logger, StringFields(
		StringField{Key: FieldEvaluationID, Value: evaluationID},
		StringField{Key: FieldRequestID, Value: requestID},
	)...)
}

func WithCall(logger *zap.Logger, callID string) *zap.Logger {
	return WithFields(logger, StringFields(StringField{Key: FieldCallID, Value: callID})...)
}
