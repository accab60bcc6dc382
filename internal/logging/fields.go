package logging

import (
	"context"
	"maps"
	"strings"

	"github.com/goliatone/go-translatable/pkg/interfaces"
)

const (
	fieldModelType = "model_type"
	fieldModelKey  = "model_id"
	fieldLocale    = "locale"
)

type fieldsKey struct{}

// Subject names the record and locale a log entry is about.
type Subject struct {
	ModelType string
	ModelID   string
	Locale    string
}

// Fields renders the subject as structured fields, skipping blank parts.
func (s Subject) Fields() map[string]any {
	fields := make(map[string]any, 3)
	if v := strings.TrimSpace(s.ModelType); v != "" {
		fields[fieldModelType] = v
	}
	if v := strings.TrimSpace(s.ModelID); v != "" {
		fields[fieldModelKey] = v
	}
	if v := strings.TrimSpace(s.Locale); v != "" {
		fields[fieldLocale] = v
	}
	return fields
}

// ContextWithSubject annotates ctx with the subject fields so any logger
// bound to it through FromContext reports them.
func ContextWithSubject(ctx context.Context, subject Subject) context.Context {
	return ContextWithFields(ctx, subject.Fields())
}

// ContextWithFields returns ctx carrying fields merged over the ones it
// already holds.
func ContextWithFields(ctx context.Context, fields map[string]any) context.Context {
	if ctx == nil || len(fields) == 0 {
		return ctx
	}
	merged := ContextFields(ctx)
	if merged == nil {
		merged = make(map[string]any, len(fields))
	}
	maps.Copy(merged, fields)
	return context.WithValue(ctx, fieldsKey{}, merged)
}

// ContextFields returns a copy of the fields stored on ctx, or nil.
func ContextFields(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(fieldsKey{}).(map[string]any)
	if len(fields) == 0 {
		return nil
	}
	return maps.Clone(fields)
}

// FromContext binds logger to ctx. Providers that read ContextFields at
// write time pick up the subject; the nil logger becomes a no-op.
func FromContext(logger interfaces.Logger, ctx context.Context) interfaces.Logger {
	logger = Ensure(logger)
	if ctx == nil {
		return logger
	}
	return logger.WithContext(ctx)
}

// WithFields attaches fields when logger implements interfaces.FieldsLogger
// and returns it unchanged otherwise.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(maps.Clone(fields))
	}
	return logger
}
