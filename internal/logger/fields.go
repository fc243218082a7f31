package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured field keys shared by completion and discovery logs.
const (
	FieldProvider       = "ai_provider"
	FieldModel          = "ai_model"
	FieldSearchProvider = "search_provider"
	FieldQuery          = "query"
	FieldURL            = "url"
)

// StringFields turns alternating key, value arguments into zap string fields.
// Pairs with a blank key or value are dropped, as is a trailing odd key.
func StringFields(pairs ...string) []zap.Field {
	fields := make([]zap.Field, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		key, value := strings.TrimSpace(pairs[i]), strings.TrimSpace(pairs[i+1])
		if key == "" || value == "" {
			continue
		}
		fields = append(fields, zap.String(key, value))
	}
	return fields
}

// WithFields attaches fields to log. A nil log becomes a no-op logger.
func WithFields(log *zap.Logger, fields ...zap.Field) *zap.Logger {
	if log == nil {
		log = zap.NewNop()
	}
	if len(fields) == 0 {
		return log
	}
	return log.With(fields...)
}

// CommonFields names the completion provider and model.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(FieldProvider, provider, FieldModel, model)
}

func WithCommonFields(log *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(log, CommonFields(provider, model)...)
}

// DiscoveryFields names the search backend, the query and the page being processed.
func DiscoveryFields(searchProvider, query, url string) []zap.Field {
	return StringFields(FieldSearchProvider, searchProvider, FieldQuery, query, FieldURL, url)
}
