package translatable

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-translatable/internal/attributes"
	"github.com/goliatone/go-translatable/internal/commands"
	"github.com/goliatone/go-translatable/internal/di"
	"github.com/goliatone/go-translatable/internal/identity"
	"github.com/goliatone/go-translatable/internal/indexes"
	"github.com/goliatone/go-translatable/internal/translate"
	"github.com/goliatone/go-translatable/pkg/interfaces"
)

type (
	// Manager owns the attribute registry and the translation repositories.
	Manager = translate.Manager
	// Model binds a record to its translation overlay.
	Model = translate.Model
	// Record is implemented by host models that carry translatable attributes.
	Record = translate.Record
	// MapRecord is a map-backed Record.
	MapRecord = translate.MapRecord
	// JSONAttributes marks attributes whose values are decoded from JSON.
	JSONAttributes = translate.JSONAttributes
	// RelationInvalidator is implemented by records caching locale-dependent relations.
	RelationInvalidator = translate.RelationInvalidator
	// ComputedFieldsResolver contributes extra blob fields at save time.
	ComputedFieldsResolver = translate.ComputedFieldsResolver
	// Scope builds translated filters and ordering for one model type.
	Scope = translate.Scope
	// Query wraps a bun select query with join bookkeeping.
	Query = translate.Query
	// PurgeResult reports rows removed by Purge.
	PurgeResult = translate.PurgeResult
	// ReindexResult reports the work done by Reindex.
	ReindexResult = translate.ReindexResult
	// ManagerOption configures a Manager.
	ManagerOption = translate.Option

	// Definition is the resolved set of translatable attributes of a model type.
	Definition = attributes.Definition
	// Attribute describes one translatable attribute.
	Attribute = attributes.Attribute
	// Declarer is implemented by records that declare their own attributes.
	Declarer = attributes.Declarer

	// ModelKey identifies a persisted record.
	ModelKey = identity.ModelKey
	// Operator is a comparison used by translated filters.
	Operator = indexes.Operator

	// PurgeCommand deletes every translation row of a record.
	PurgeCommand = commands.PurgeTranslationsCommand
	// ReindexCommand rebuilds index rows of model types.
	ReindexCommand = commands.ReindexTranslationsCommand
)

const (
	OpEqual        = indexes.OpEqual
	OpNotEqual     = indexes.OpNotEqual
	OpLess         = indexes.OpLess
	OpLessEqual    = indexes.OpLessEqual
	OpGreater      = indexes.OpGreater
	OpGreaterEqual = indexes.OpGreaterEqual
	OpLike         = indexes.OpLike
)

var (
	ErrRecordRequired        = translate.ErrRecordRequired
	ErrModelNotRegistered    = translate.ErrModelNotRegistered
	ErrAttributeRequired     = translate.ErrAttributeRequired
	ErrInvalidDirection      = translate.ErrInvalidDirection
	ErrUnsupportedIndexValue = translate.ErrUnsupportedIndexValue
	ErrUnsupportedOperator   = indexes.ErrUnsupportedOperator
)

// NewMapRecord builds a map-backed record. A non-empty key marks it persisted.
func NewMapRecord(modelType, key string, attrs map[string]any) *MapRecord {
	return translate.NewMapRecord(modelType, key, attrs)
}

// NewQuery wraps a bun select query for translated filters and ordering.
func NewQuery(q *bun.SelectQuery) *Query {
	return translate.NewQuery(q)
}

// NewModelKey builds a trimmed model key.
func NewModelKey(modelType, id string) ModelKey {
	return identity.NewModelKey(modelType, id)
}

// Module represents the top level translation runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	return NewContext(context.Background(), cfg, opts...)
}

// NewContext is New with a context used while connecting to storage.
func NewContext(ctx context.Context, cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainerContext(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Manager returns the configured translation manager.
func (m *Module) Manager() *Manager {
	return m.container.Manager()
}

// Locales returns the locale service consulted for new models.
func (m *Module) Locales() interfaces.LocaleService {
	return m.container.LocaleService()
}

// Register declares the translatable attributes of a model type.
func (m *Module) Register(modelType string, decl ...any) (*Definition, error) {
	return m.Manager().Register(modelType, decl...)
}

// Model binds record to its translation overlay.
func (m *Module) Model(record Record) (*Model, error) {
	return m.Manager().Model(record)
}

// Scope returns query helpers for modelType.
func (m *Module) Scope(modelType string) *Scope {
	return m.Manager().Scope(modelType)
}

// Purge removes every translation row of a record through the purge command.
func (m *Module) Purge(ctx context.Context, modelType, id string) (PurgeResult, error) {
	return m.container.PurgeHandler().Run(ctx, PurgeCommand{ModelType: modelType, ModelID: id})
}

// Reindex rebuilds index rows of the given model types from stored blobs.
func (m *Module) Reindex(ctx context.Context, modelTypes ...string) (map[string]ReindexResult, error) {
	return m.container.ReindexHandler().Run(ctx, ReindexCommand{ModelTypes: modelTypes})
}

// Close releases storage opened by the module.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}
