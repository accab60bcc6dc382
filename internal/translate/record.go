package translate

import (
	"context"
	"slices"
	"sort"

	"github.com/goliatone/go-translatable/internal/values"
)

// Record is the host record whose attributes carry default-locale values.
//
// Attributes returns the live attribute set and must not be mutated by the
// caller; SetRawAttributes replaces it wholesale. Original returns the
// attributes as they were when the record was last synced with the host store.
type Record interface {
	ModelType() string
	ModelKey() string
	Attributes() map[string]any
	SetRawAttributes(attrs map[string]any)
	Original() map[string]any
}

// JSONAttributes is implemented by records whose listed attributes hold JSON
// documents. Their string values are decoded when read under a non-default
// locale.
type JSONAttributes interface {
	JSONAttributes() []string
}

// RelationInvalidator is implemented by records that keep loaded relations in
// memory. Switching the active locale drops relations named like a
// translatable attribute.
type RelationInvalidator interface {
	LoadedRelations() []string
	UnsetRelation(name string)
}

// ComputedFieldsResolver returns values merged into a locale's blob right
// before it is written.
type ComputedFieldsResolver func(ctx context.Context, record Record, locale string, data map[string]any) (map[string]any, error)

// MapRecord is a Record backed by plain maps, used by hosts without their own
// model layer and throughout the tests.
type MapRecord struct {
	modelType string
	key       string
	attrs     map[string]any
	original  map[string]any
	jsonAttrs []string
	relations map[string]any
}

var (
	_ Record              = (*MapRecord)(nil)
	_ JSONAttributes      = (*MapRecord)(nil)
	_ RelationInvalidator = (*MapRecord)(nil)
)

// NewMapRecord builds a record of modelType. An empty key marks a record that
// has not been created yet.
func NewMapRecord(modelType, key string, attrs map[string]any) *MapRecord {
	r := &MapRecord{
		modelType: modelType,
		key:       key,
		attrs:     values.Clone(attrs),
		relations: make(map[string]any),
	}
	if r.attrs == nil {
		r.attrs = map[string]any{}
	}
	if key != "" {
		r.original = values.Clone(r.attrs)
	}
	return r
}

func (r *MapRecord) ModelType() string { return r.modelType }
func (r *MapRecord) ModelKey() string  { return r.key }

func (r *MapRecord) Attributes() map[string]any { return r.attrs }

func (r *MapRecord) SetRawAttributes(attrs map[string]any) {
	if attrs == nil {
		attrs = map[string]any{}
	}
	r.attrs = attrs
}

func (r *MapRecord) Original() map[string]any { return values.Clone(r.original) }

// SetKey assigns the durable key, as the host store does on insert.
func (r *MapRecord) SetKey(key string) { r.key = key }

// SyncOriginal marks the current attributes as persisted.
func (r *MapRecord) SyncOriginal() { r.original = values.Clone(r.attrs) }

// WithJSONAttributes declares attributes holding JSON documents.
func (r *MapRecord) WithJSONAttributes(names ...string) *MapRecord {
	r.jsonAttrs = append(r.jsonAttrs, names...)
	return r
}

func (r *MapRecord) JSONAttributes() []string { return slices.Clone(r.jsonAttrs) }

// SetRelation stores a loaded relation.
func (r *MapRecord) SetRelation(name string, value any) { r.relations[name] = value }

// Relation returns a loaded relation.
func (r *MapRecord) Relation(name string) (any, bool) {
	value, ok := r.relations[name]
	return value, ok
}

func (r *MapRecord) LoadedRelations() []string {
	names := make([]string, 0, len(r.relations))
	for name := range r.relations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *MapRecord) UnsetRelation(name string) { delete(r.relations, name) }
