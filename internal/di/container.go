package di

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-translatable/internal/blobs"
	"github.com/goliatone/go-translatable/internal/commands"
	"github.com/goliatone/go-translatable/internal/indexes"
	"github.com/goliatone/go-translatable/internal/locale"
	"github.com/goliatone/go-translatable/internal/logging"
	"github.com/goliatone/go-translatable/internal/logging/console"
	"github.com/goliatone/go-translatable/internal/logging/gologger"
	"github.com/goliatone/go-translatable/internal/runtimeconfig"
	"github.com/goliatone/go-translatable/internal/storage"
	"github.com/goliatone/go-translatable/internal/translate"
	"github.com/goliatone/go-translatable/pkg/interfaces"
)

// Container wires the translation manager with its repositories, logging and
// maintenance commands.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	locales        interfaces.LocaleService

	bunDB         *bun.DB
	ownsDB        bool
	cacheTTL      time.Duration
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	blobRepo  blobs.Repository
	indexRepo indexes.Repository

	manager *translate.Manager

	purgeHandler   *commands.PurgeHandler
	reindexHandler *commands.ReindexHandler
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithBunDB supplies an existing database handle. The container does not
// close handles it did not open.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the default cache service.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithLoggerProvider overrides the provider selected by the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithLocaleService overrides the static locale service built from config.
func WithLocaleService(svc interfaces.LocaleService) Option {
	return func(c *Container) {
		c.locales = svc
	}
}

// WithBlobRepository overrides the blob repository.
func WithBlobRepository(repo blobs.Repository) Option {
	return func(c *Container) {
		c.blobRepo = repo
	}
}

// WithIndexRepository overrides the index repository.
func WithIndexRepository(repo indexes.Repository) Option {
	return func(c *Container) {
		c.indexRepo = repo
	}
}

// NewContainer creates a container with the provided configuration.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	return NewContainerContext(context.Background(), cfg, opts...)
}

// NewContainerContext is NewContainer with a context for connecting to
// storage and applying migrations.
func NewContainerContext(ctx context.Context, cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cacheTTL := cfg.Cache.DefaultTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}

	c := &Container{
		Config:   cfg,
		cacheTTL: cacheTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	if c.locales == nil {
		c.locales = locale.NewStaticService(cfg.DefaultLocale, cfg.DefaultLocale)
	}
	if err := c.configureStorage(ctx); err != nil {
		return nil, err
	}
	c.configureCacheDefaults()
	c.configureRepositories()
	if err := c.configureManager(); err != nil {
		_ = c.Close()
		return nil, err
	}
	c.configureCommands()

	logging.RootLogger(c.loggerProvider).Debug("translatable.container.ready",
		"storage", cfg.Storage.Provider,
		"cache", c.cacheService != nil,
		"models", len(cfg.Models),
	)
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(c.Config.Logging.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     c.Config.Logging.Level,
			Format:    c.Config.Logging.Format,
			AddSource: c.Config.Logging.AddSource,
			Focus:     c.Config.Logging.Focus,
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	case "", "console":
		level := console.ParseLevel(c.Config.Logging.Level)
		c.loggerProvider = console.NewProvider(console.Options{MinLevel: &level})
	default:
		return fmt.Errorf("%w: %s", runtimeconfig.ErrLoggingProviderUnknown, c.Config.Logging.Provider)
	}
	return nil
}

func (c *Container) configureStorage(ctx context.Context) error {
	if c.bunDB != nil || c.Config.Storage.Provider != runtimeconfig.StorageBun {
		return nil
	}
	db, err := storage.Open(ctx, c.Config.StorageOptions())
	if err != nil {
		return err
	}
	c.bunDB = db
	c.ownsDB = true
	logging.StorageLogger(c.loggerProvider).Debug("storage.opened", "dialect", c.Config.Storage.Dialect)
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled || c.bunDB == nil {
		c.cacheService = nil
		c.keySerializer = nil
		return
	}
	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.cacheTTL > 0 {
			cfg.TTL = c.cacheTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		}
	}
	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureRepositories() {
	if c.bunDB != nil {
		if c.blobRepo == nil {
			c.blobRepo = blobs.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
		}
		if c.indexRepo == nil {
			c.indexRepo = indexes.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
		}
		return
	}
	if c.blobRepo == nil {
		c.blobRepo = blobs.NewMemoryRepository()
	}
	if c.indexRepo == nil {
		c.indexRepo = indexes.NewMemoryRepository()
	}
}

func (c *Container) configureManager() error {
	manager, err := translate.NewManager(c.blobRepo, c.indexRepo, c.locales,
		translate.WithFallback(c.Config.UseFallback),
		translate.WithLoggerProvider(c.loggerProvider),
	)
	if err != nil {
		return err
	}
	for modelType, decl := range c.Config.Models {
		if _, err := manager.Register(modelType, decl...); err != nil {
			return fmt.Errorf("translatable: register %s: %w", modelType, err)
		}
	}
	c.manager = manager
	return nil
}

func (c *Container) configureCommands() {
	c.purgeHandler = commands.NewPurgeHandler(c.manager, commands.CommandLogger(c.loggerProvider, "purge"))
	c.reindexHandler = commands.NewReindexHandler(c.manager, commands.CommandLogger(c.loggerProvider, "reindex"))
}

// SubscribeCommands registers the maintenance handlers with the go-command
// dispatcher, retrying failed executions up to maxRetries times. The returned
// func removes the subscriptions.
func (c *Container) SubscribeCommands(maxRetries int) func() {
	subs := []interface{ Unsubscribe() }{
		dispatcher.SubscribeCommand(c.purgeHandler, runner.WithMaxRetries(maxRetries)),
		dispatcher.SubscribeCommand(c.reindexHandler, runner.WithMaxRetries(maxRetries)),
	}
	return func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}
}

// Close releases the database handle when the container opened it.
func (c *Container) Close() error {
	if c.bunDB == nil || !c.ownsDB {
		return nil
	}
	err := c.bunDB.Close()
	c.bunDB = nil
	return err
}

func (c *Container) Manager() *translate.Manager               { return c.manager }
func (c *Container) BlobRepository() blobs.Repository          { return c.blobRepo }
func (c *Container) IndexRepository() indexes.Repository       { return c.indexRepo }
func (c *Container) LocaleService() interfaces.LocaleService   { return c.locales }
func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }
func (c *Container) DB() *bun.DB                               { return c.bunDB }
func (c *Container) PurgeHandler() *commands.PurgeHandler      { return c.purgeHandler }
func (c *Container) ReindexHandler() *commands.ReindexHandler  { return c.reindexHandler }
func (c *Container) CacheService() repocache.CacheService      { return c.cacheService }
