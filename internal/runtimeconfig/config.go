package runtimeconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-translatable/internal/locale"
	"github.com/goliatone/go-translatable/internal/storage"
)

var (
	ErrDefaultLocaleRequired    = errors.New("translatable config: default locale is required")
	ErrDefaultLocaleNotListed   = errors.New("translatable config: default locale must be listed in locales")
	ErrStorageProviderUnknown   = errors.New("translatable config: storage provider is invalid")
	ErrStorageDialectUnknown    = errors.New("translatable config: storage dialect is invalid")
	ErrStorageDSNRequired       = errors.New("translatable config: storage dsn is required for the bun provider")
	ErrCacheRequiresBunStorage  = errors.New("translatable config: cache requires the bun storage provider")
	ErrCacheTTLInvalid          = errors.New("translatable config: cache ttl must be zero or positive")
	ErrLoggingProviderUnknown   = errors.New("translatable config: logging provider is invalid")
	ErrLoggingLevelInvalid      = errors.New("translatable config: logging level is invalid")
	ErrLoggingFormatInvalid     = errors.New("translatable config: logging format is invalid")
	ErrModelDeclarationRequired = errors.New("translatable config: model declares no attributes")
)

const (
	StorageMemory = "memory"
	StorageBun    = "bun"
)

// Config aggregates runtime settings for the translation module.
type Config struct {
	DefaultLocale string           `yaml:"default_locale"`
	Locales       []string         `yaml:"locales"`
	UseFallback   bool             `yaml:"use_fallback"`
	Storage       StorageConfig    `yaml:"storage"`
	Cache         CacheConfig      `yaml:"cache"`
	Logging       LoggingConfig    `yaml:"logging"`
	Models        map[string][]any `yaml:"models"`
}

// StorageConfig selects where blobs and index rows live.
type StorageConfig struct {
	Provider string `yaml:"provider"`
	Dialect  string `yaml:"dialect"`
	DSN      string `yaml:"dsn"`
	Debug    bool   `yaml:"debug"`
}

// CacheConfig captures cache behaviour toggles for the blob repository.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `yaml:"provider"`
	Level     string   `yaml:"level"`
	Format    string   `yaml:"format"`
	AddSource bool     `yaml:"add_source"`
	Focus     []string `yaml:"focus"`
}

// DefaultConfig returns an in-memory setup with fallback enabled.
func DefaultConfig() Config {
	return Config{
		DefaultLocale: "en",
		Locales:       []string{"en"},
		UseFallback:   true,
		Storage: StorageConfig{
			Provider: StorageMemory,
			Dialect:  storage.DialectSQLite,
		},
		Cache: CacheConfig{
			Enabled:    false,
			DefaultTTL: time.Minute,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		Models: map[string][]any{},
	}
}

// LoadFile reads a YAML document on top of DefaultConfig.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("translatable config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of DefaultConfig and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("translatable config: decode: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) normalize() {
	cfg.DefaultLocale = locale.Normalize(cfg.DefaultLocale)
	seen := make([]string, 0, len(cfg.Locales))
	for _, code := range cfg.Locales {
		code = locale.Normalize(code)
		if code != "" && !slices.Contains(seen, code) {
			seen = append(seen, code)
		}
	}
	cfg.Locales = seen
	cfg.Storage.Provider = normalizeProvider(cfg.Storage.Provider)
	cfg.Logging.Provider = normalizeProvider(cfg.Logging.Provider)
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	defaultLocale := locale.Normalize(cfg.DefaultLocale)
	if defaultLocale == "" {
		return ErrDefaultLocaleRequired
	}
	if len(cfg.Locales) > 0 && !slices.ContainsFunc(cfg.Locales, func(code string) bool {
		return locale.Normalize(code) == defaultLocale
	}) {
		return fmt.Errorf("%w: %s", ErrDefaultLocaleNotListed, defaultLocale)
	}

	provider := normalizeProvider(cfg.Storage.Provider)
	switch provider {
	case StorageMemory:
		if cfg.Cache.Enabled {
			return ErrCacheRequiresBunStorage
		}
	case StorageBun:
		if !storage.ValidDialect(cfg.Storage.Dialect) {
			return fmt.Errorf("%w: %s", ErrStorageDialectUnknown, cfg.Storage.Dialect)
		}
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return ErrStorageDSNRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, cfg.Storage.Provider)
	}
	if cfg.Cache.DefaultTTL < 0 {
		return ErrCacheTTLInvalid
	}

	for modelType, decl := range cfg.Models {
		if len(decl) == 0 {
			return fmt.Errorf("%w: %s", ErrModelDeclarationRequired, modelType)
		}
	}

	logProvider := normalizeProvider(cfg.Logging.Provider)
	if logProvider != "" && !isSupportedLogProvider(logProvider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, logProvider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if logProvider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

// StorageOptions converts the storage section into storage.Options.
func (cfg Config) StorageOptions() storage.Options {
	return storage.Options{
		Dialect: cfg.Storage.Dialect,
		DSN:     cfg.Storage.DSN,
		Debug:   cfg.Storage.Debug,
		Migrate: true,
	}
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedLogProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
