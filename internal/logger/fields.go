package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured log keys shared by the completion, interview and performance packages.
const (
	FieldProvider  = "ai_provider"
	FieldModel     = "ai_model"
	FieldSession   = "session_id"
	FieldCandidate = "candidate_id"
)

// StringField is a key/value pair that becomes a zap string field.
type StringField struct {
	Key   string
	Value string
}

// StringFields trims every pair and drops the ones with a blank key or value,
// so callers can pass optional identifiers without checking them first.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key, value := strings.TrimSpace(field.Key), strings.TrimSpace(field.Value)
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

// CommonFields describes the completion provider and model.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model)...)
}

// SessionFields identifies an interview session and its candidate.
func SessionFields(sessionID, candidateID string) []zap.Field {
	return StringFields(
		StringField{Key: FieldSession, Value: sessionID},
		StringField{Key: FieldCandidate, Value: candidateID},
	)
}

func WithSessionFields(logger *zap.Logger, sessionID, candidateID string) *zap.Logger {
	return WithFields(logger, SessionFields(sessionID, candidateID)...)
}
