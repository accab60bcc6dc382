package logging

import (
	"context"
	"testing"

	"github.com/goliatone/go-translatable/pkg/interfaces"
)

type recordingLogger struct {
	fields   []map[string]any
	contexts []context.Context
}

func (r *recordingLogger) Trace(string, ...any) {}
func (r *recordingLogger) Debug(string, ...any) {}
func (r *recordingLogger) Info(string, ...any)  {}
func (r *recordingLogger) Warn(string, ...any)  {}
func (r *recordingLogger) Error(string, ...any) {}
func (r *recordingLogger) Fatal(string, ...any) {}

func (r *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	r.fields = append(r.fields, copied)
	return r
}

func (r *recordingLogger) WithContext(ctx context.Context) interfaces.Logger {
	r.contexts = append(r.contexts, ctx)
	return r
}

type stubProvider struct {
	requested []string
	logger    interfaces.Logger
}

func (s *stubProvider) GetLogger(name string) interfaces.Logger {
	s.requested = append(s.requested, name)
	return s.logger
}

func TestModuleLoggerFallsBackToNoOp(t *testing.T) {
	logger := ModuleLogger(nil, "translatable.test")
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noopLogger fallback, got %T", logger)
	}
	logger = logger.WithContext(context.Background())
	logger.Debug("noop")
}

func TestModuleLoggerUsesProviderAndAnnotatesFields(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	logger := ModuleLogger(provider, syncModule)

	if len(provider.requested) != 1 || provider.requested[0] != syncModule {
		t.Fatalf("expected module %s, got %v", syncModule, provider.requested)
	}
	if len(rec.fields) != 1 {
		t.Fatalf("expected module fields to be applied once, got %d", len(rec.fields))
	}
	if got := rec.fields[0]["module"]; got != syncModule {
		t.Fatalf("expected module field %s, got %v", syncModule, got)
	}
	logger.Info("with provider")
}

func TestModuleLoggerDefaultsToRootModule(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	_ = ModuleLogger(provider, "")

	if len(provider.requested) != 1 || provider.requested[0] != rootModule {
		t.Fatalf("expected default module %s, got %v", rootModule, provider.requested)
	}
}

func TestQueryLoggerRequestsQueryModule(t *testing.T) {
	provider := &stubProvider{logger: &recordingLogger{}}
	_ = QueryLogger(provider)
	if len(provider.requested) == 0 || provider.requested[0] != queryModule {
		t.Fatalf("expected query module request, got %v", provider.requested)
	}
}

func TestSubjectFieldsSkipEmptyValues(t *testing.T) {
	rec := &recordingLogger{}
	_ = WithFields(rec, Subject{ModelType: "country", Locale: " fr "}.Fields())

	if len(rec.fields) != 1 {
		t.Fatalf("expected a single WithFields call, got %d", len(rec.fields))
	}
	fields := rec.fields[0]
	if fields[fieldModelType] != "country" || fields[fieldLocale] != "fr" {
		t.Fatalf("unexpected fields %v", fields)
	}
	if _, ok := fields[fieldModelKey]; ok {
		t.Fatalf("expected empty model key to be skipped, got %v", fields)
	}
}
