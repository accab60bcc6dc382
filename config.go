package translatable

import "github.com/goliatone/go-translatable/internal/runtimeconfig"

var (
	ErrDefaultLocaleRequired    = runtimeconfig.ErrDefaultLocaleRequired
	ErrDefaultLocaleNotListed   = runtimeconfig.ErrDefaultLocaleNotListed
	ErrStorageProviderUnknown   = runtimeconfig.ErrStorageProviderUnknown
	ErrStorageDialectUnknown    = runtimeconfig.ErrStorageDialectUnknown
	ErrStorageDSNRequired       = runtimeconfig.ErrStorageDSNRequired
	ErrCacheRequiresBunStorage  = runtimeconfig.ErrCacheRequiresBunStorage
	ErrCacheTTLInvalid          = runtimeconfig.ErrCacheTTLInvalid
	ErrLoggingProviderUnknown   = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid      = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid     = runtimeconfig.ErrLoggingFormatInvalid
	ErrModelDeclarationRequired = runtimeconfig.ErrModelDeclarationRequired
)

const (
	StorageMemory = runtimeconfig.StorageMemory
	StorageBun    = runtimeconfig.StorageBun
)

type (
	Config        = runtimeconfig.Config
	StorageConfig = runtimeconfig.StorageConfig
	CacheConfig   = runtimeconfig.CacheConfig
	LoggingConfig = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.LoadFile(path)
}
