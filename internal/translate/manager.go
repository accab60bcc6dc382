package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-translatable/internal/attributes"
	"github.com/goliatone/go-translatable/internal/attrpath"
	"github.com/goliatone/go-translatable/internal/blobs"
	"github.com/goliatone/go-translatable/internal/identity"
	"github.com/goliatone/go-translatable/internal/indexes"
	"github.com/goliatone/go-translatable/internal/locale"
	"github.com/goliatone/go-translatable/internal/logging"
	"github.com/goliatone/go-translatable/internal/values"
	"github.com/goliatone/go-translatable/pkg/interfaces"
)

// Manager wires the repositories, the locale service and the attribute
// registry shared by every Model.
type Manager struct {
	registry    *attributes.Registry
	blobs       blobs.Repository
	indexes     indexes.Repository
	locales     interfaces.LocaleService
	useFallback bool
	computed    ComputedFieldsResolver
	logger      interfaces.Logger
	syncLogger  interfaces.Logger
	queryLogger interfaces.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithRegistry shares an existing attribute registry.
func WithRegistry(registry *attributes.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// WithFallback toggles default-locale fallback for every model.
func WithFallback(enabled bool) Option {
	return func(m *Manager) {
		m.useFallback = enabled
	}
}

// WithComputedFields installs the resolver merged into blobs on save.
func WithComputedFields(resolver ComputedFieldsResolver) Option {
	return func(m *Manager) {
		m.computed = resolver
	}
}

// WithLoggerProvider derives the module loggers from provider.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(m *Manager) {
		if provider == nil {
			return
		}
		m.logger = logging.RootLogger(provider)
		m.syncLogger = logging.SyncLogger(provider)
		m.queryLogger = logging.QueryLogger(provider)
	}
}

// WithLogger uses logger for every module.
func WithLogger(logger interfaces.Logger) Option {
	return func(m *Manager) {
		if logger == nil {
			return
		}
		m.logger = logger
		m.syncLogger = logger
		m.queryLogger = logger
	}
}

// NewManager constructs a manager. Fallback is enabled unless disabled by
// WithFallback.
func NewManager(blobRepo blobs.Repository, indexRepo indexes.Repository, locales interfaces.LocaleService, opts ...Option) (*Manager, error) {
	if blobRepo == nil {
		return nil, ErrBlobRepositoryRequired
	}
	if indexRepo == nil {
		return nil, ErrIndexRepositoryRequired
	}
	if locales == nil {
		return nil, ErrLocaleServiceRequired
	}
	m := &Manager{
		registry:    attributes.NewRegistry(),
		blobs:       blobRepo,
		indexes:     indexRepo,
		locales:     locales,
		useFallback: true,
		logger:      logging.NoOp(),
		syncLogger:  logging.NoOp(),
		queryLogger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

func (m *Manager) Registry() *attributes.Registry    { return m.registry }
func (m *Manager) Blobs() blobs.Repository           { return m.blobs }
func (m *Manager) Indexes() indexes.Repository       { return m.indexes }
func (m *Manager) Locales() interfaces.LocaleService { return m.locales }
func (m *Manager) FallbackEnabled() bool             { return m.useFallback }
func (m *Manager) Logger() interfaces.Logger         { return m.logger }
func (m *Manager) Definition(modelType string) (*attributes.Definition, bool) {
	return m.registry.Lookup(modelType)
}

// Register resolves and caches the translatable declaration of modelType.
func (m *Manager) Register(modelType string, decl ...any) (*attributes.Definition, error) {
	def, err := m.registry.Register(modelType, decl...)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("translate.manager.registered", "model_type", def.ModelType(), "attributes", def.Len())
	return def, nil
}

// Model wraps record with translation state. The record type must be
// registered or implement attributes.Declarer.
func (m *Manager) Model(record Record) (*Model, error) {
	if record == nil {
		return nil, ErrRecordRequired
	}
	def, err := m.registry.Resolve(record.ModelType(), record)
	if err != nil {
		if _, ok := record.(attributes.Declarer); ok {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrModelNotRegistered, record.ModelType())
	}
	return newModel(m, record, def), nil
}

// MustModel is Model that panics on error.
func (m *Manager) MustModel(record Record) *Model {
	model, err := m.Model(record)
	if err != nil {
		panic(err)
	}
	return model
}

// Preload batch-fetches the blobs of models so later reads skip the per-locale
// lookup. Without locales every stored locale is primed; with locales, the
// requested locales missing from storage are primed as empty.
func (m *Manager) Preload(ctx context.Context, models []*Model, locales ...string) error {
	grouped := make(map[string][]*Model)
	order := make([]string, 0)
	for _, model := range models {
		if model == nil || !model.key().Persisted() {
			continue
		}
		modelType := model.key().Type
		if _, ok := grouped[modelType]; !ok {
			order = append(order, modelType)
		}
		grouped[modelType] = append(grouped[modelType], model)
	}

	for _, modelType := range order {
		batch := grouped[modelType]
		byID := make(map[string][]*Model, len(batch))
		ids := make([]string, 0, len(batch))
		for _, model := range batch {
			id := model.key().ID
			if _, ok := byID[id]; !ok {
				ids = append(ids, id)
			}
			byID[id] = append(byID[id], model)
		}

		found, err := m.blobs.ListForModels(ctx, modelType, ids, locales...)
		if err != nil {
			return fmt.Errorf("translate: preload %s: %w", modelType, err)
		}
		for _, model := range batch {
			for _, code := range locales {
				model.primeEager(code, map[string]any{})
			}
		}
		for _, blob := range found {
			doc, err := blob.Document()
			if err != nil {
				return fmt.Errorf("translate: preload %s: %w", blob.Key().String(), err)
			}
			for _, model := range byID[blob.ModelID] {
				model.primeEager(blob.Locale, doc)
			}
		}
		m.logger.Debug("translate.manager.preloaded", "model_type", modelType, "records", len(ids), "blobs", len(found))
	}
	return nil
}

// PurgeResult reports the rows removed for a record.
type PurgeResult struct {
	Blobs   int
	Indexes int
}

// Purge deletes every blob and index row of key.
func (m *Manager) Purge(ctx context.Context, key identity.ModelKey) (PurgeResult, error) {
	var result PurgeResult
	ctx = logging.ContextWithSubject(ctx, logging.Subject{ModelType: key.Type, ModelID: key.ID})
	removed, err := m.blobs.DeleteForModel(ctx, key)
	if err != nil {
		return result, fmt.Errorf("translate: purge blobs %s: %w", key.String(), err)
	}
	result.Blobs = removed

	removed, err = m.indexes.DeleteForModel(ctx, key)
	if err != nil {
		return result, fmt.Errorf("translate: purge indexes %s: %w", key.String(), err)
	}
	result.Indexes = removed

	logging.FromContext(m.syncLogger, ctx).
		Debug("translate.sync.purged", "blobs", result.Blobs, "indexes", result.Indexes)
	return result, nil
}

// ReindexResult reports the work done by Reindex.
type ReindexResult struct {
	Blobs   int
	Entries int
	Cleared int
}

// Reindex rebuilds index rows of modelType from stored blobs. Indexed
// attributes stored in a blob are written; empty values clear their row.
// Attributes absent from a blob keep their existing rows.
func (m *Manager) Reindex(ctx context.Context, modelType string) (ReindexResult, error) {
	var result ReindexResult
	def, ok := m.registry.Lookup(modelType)
	if !ok {
		return result, fmt.Errorf("%w: %s", ErrModelNotRegistered, modelType)
	}
	indexed := def.Indexed()
	if len(indexed) == 0 {
		return result, nil
	}

	stored, err := m.blobs.ListByType(ctx, def.ModelType())
	if err != nil {
		return result, fmt.Errorf("translate: reindex %s: %w", modelType, err)
	}
	for _, blob := range stored {
		doc, err := blob.Document()
		if err != nil {
			return result, err
		}
		result.Blobs++
		key := blob.Key()
		for _, attr := range indexed {
			value, present := attrpath.Get(doc, attr.Name)
			if !present {
				continue
			}
			scalar, err := indexValue(attr.Name, value)
			if err != nil {
				return result, err
			}
			if err := m.indexes.Upsert(ctx, key, blob.Locale, attr.Name, scalar); err != nil {
				return result, fmt.Errorf("translate: reindex %s/%s: %w", key.String(), blob.Locale, err)
			}
			if scalar == "" {
				result.Cleared++
			} else {
				result.Entries++
			}
		}
	}
	m.logger.Info("translate.manager.reindexed", "model_type", modelType, "blobs", result.Blobs, "entries", result.Entries, "cleared", result.Cleared)
	return result, nil
}

func (m *Manager) newLocaleContext() *locale.Context {
	return locale.NewContext(m.locales.DefaultLocale(), m.locales.CurrentLocale())
}

func indexValue(attribute string, value any) (string, error) {
	scalar, err := values.Scalar(value)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrUnsupportedIndexValue, strings.TrimSpace(attribute), err)
	}
	return scalar, nil
}
