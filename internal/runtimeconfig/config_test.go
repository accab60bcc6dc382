package runtimeconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-translatable/internal/runtimeconfig"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
	if !cfg.UseFallback {
		t.Fatal("expected fallback enabled by default")
	}
	if cfg.Storage.Provider != runtimeconfig.StorageMemory {
		t.Fatalf("expected memory storage by default, got %q", cfg.Storage.Provider)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*runtimeconfig.Config)
		want   error
	}{
		{
			name:   "missing default locale",
			mutate: func(cfg *runtimeconfig.Config) { cfg.DefaultLocale = " " },
			want:   runtimeconfig.ErrDefaultLocaleRequired,
		},
		{
			name:   "default locale not listed",
			mutate: func(cfg *runtimeconfig.Config) { cfg.Locales = []string{"fr", "de"} },
			want:   runtimeconfig.ErrDefaultLocaleNotListed,
		},
		{
			name:   "unknown storage provider",
			mutate: func(cfg *runtimeconfig.Config) { cfg.Storage.Provider = "redis" },
			want:   runtimeconfig.ErrStorageProviderUnknown,
		},
		{
			name: "bun without dsn",
			mutate: func(cfg *runtimeconfig.Config) {
				cfg.Storage.Provider = runtimeconfig.StorageBun
				cfg.Storage.DSN = ""
			},
			want: runtimeconfig.ErrStorageDSNRequired,
		},
		{
			name: "bun with unknown dialect",
			mutate: func(cfg *runtimeconfig.Config) {
				cfg.Storage.Provider = runtimeconfig.StorageBun
				cfg.Storage.Dialect = "oracle"
				cfg.Storage.DSN = "x"
			},
			want: runtimeconfig.ErrStorageDialectUnknown,
		},
		{
			name:   "cache on memory storage",
			mutate: func(cfg *runtimeconfig.Config) { cfg.Cache.Enabled = true },
			want:   runtimeconfig.ErrCacheRequiresBunStorage,
		},
		{
			name:   "negative ttl",
			mutate: func(cfg *runtimeconfig.Config) { cfg.Cache.DefaultTTL = -time.Second },
			want:   runtimeconfig.ErrCacheTTLInvalid,
		},
		{
			name:   "empty model declaration",
			mutate: func(cfg *runtimeconfig.Config) { cfg.Models["country"] = nil },
			want:   runtimeconfig.ErrModelDeclarationRequired,
		},
		{
			name:   "unknown logging provider",
			mutate: func(cfg *runtimeconfig.Config) { cfg.Logging.Provider = "syslog" },
			want:   runtimeconfig.ErrLoggingProviderUnknown,
		},
		{
			name:   "invalid logging level",
			mutate: func(cfg *runtimeconfig.Config) { cfg.Logging.Level = "loud" },
			want:   runtimeconfig.ErrLoggingLevelInvalid,
		},
		{
			name: "invalid gologger format",
			mutate: func(cfg *runtimeconfig.Config) {
				cfg.Logging.Provider = "gologger"
				cfg.Logging.Format = "xml"
			},
			want: runtimeconfig.ErrLoggingFormatInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := runtimeconfig.DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	doc := `
default_locale: " en "
locales: [en, fr, fr, de]
use_fallback: false
storage:
  provider: bun
  dialect: sqlite3
  dsn: "file:translations.db?_fk=1"
cache:
  enabled: true
  default_ttl: 30s
logging:
  provider: gologger
  level: debug
  format: json
models:
  country:
    - [name, {index: true}]
    - capital
    - {name: motto, fallback: false}
`
	path := filepath.Join(t.TempDir(), "translatable.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := runtimeconfig.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.DefaultLocale != "en" {
		t.Fatalf("expected normalized default locale, got %q", cfg.DefaultLocale)
	}
	if len(cfg.Locales) != 3 {
		t.Fatalf("expected deduplicated locales, got %v", cfg.Locales)
	}
	if cfg.UseFallback {
		t.Fatal("expected fallback disabled")
	}
	if cfg.Cache.DefaultTTL != 30*time.Second {
		t.Fatalf("expected 30s ttl, got %s", cfg.Cache.DefaultTTL)
	}
	if len(cfg.Models["country"]) != 3 {
		t.Fatalf("expected three country declarations, got %v", cfg.Models["country"])
	}
	opts := cfg.StorageOptions()
	if !opts.Migrate || opts.DSN != "file:translations.db?_fk=1" {
		t.Fatalf("unexpected storage options %+v", opts)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	if _, err := runtimeconfig.Parse([]byte("theme: dark\n")); err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestParseEmptyDocumentUsesDefaults(t *testing.T) {
	cfg, err := runtimeconfig.Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.DefaultLocale != "en" || !cfg.UseFallback {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}
