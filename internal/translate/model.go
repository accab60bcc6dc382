package translate

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"

	"github.com/goliatone/go-translatable/internal/attributes"
	"github.com/goliatone/go-translatable/internal/attrpath"
	"github.com/goliatone/go-translatable/internal/blobs"
	"github.com/goliatone/go-translatable/internal/identity"
	"github.com/goliatone/go-translatable/internal/locale"
	"github.com/goliatone/go-translatable/internal/overlay"
	"github.com/goliatone/go-translatable/internal/values"
)

// Model carries the translation state of one record instance. A Model is
// owned by a single goroutine.
type Model struct {
	manager  *Manager
	record   Record
	def      *attributes.Definition
	locale   *locale.Context
	overlays *overlay.Store
	eager    map[string]map[string]any
	fallback bool
	pending  map[string]struct{}
	queue    []string
}

func newModel(manager *Manager, record Record, def *attributes.Definition) *Model {
	return &Model{
		manager:  manager,
		record:   record,
		def:      def,
		locale:   manager.newLocaleContext(),
		overlays: overlay.NewStore(),
		eager:    make(map[string]map[string]any),
		fallback: manager.useFallback,
		pending:  make(map[string]struct{}),
	}
}

func (m *Model) Record() Record                     { return m.record }
func (m *Model) Definition() *attributes.Definition { return m.def }
func (m *Model) ActiveLocale() string               { return m.locale.Active() }
func (m *Model) DefaultLocale() string              { return m.locale.Default() }

// SetActiveLocale switches the locale used by reads and writes and returns the
// previous one. Loaded relations named like a translatable attribute are
// dropped when the locale changes.
func (m *Model) SetActiveLocale(code string) string {
	previous := m.locale.SetActive(code)
	if previous != m.locale.Active() {
		m.invalidateRelations()
	}
	return previous
}

// Lang switches the active locale and returns the model for chaining.
func (m *Model) Lang(code string) *Model {
	m.SetActiveLocale(code)
	return m
}

// NoFallback disables default-locale fallback for this instance.
func (m *Model) NoFallback() *Model {
	m.fallback = false
	return m
}

// WithFallback re-enables default-locale fallback for this instance.
func (m *Model) WithFallback() *Model {
	m.fallback = true
	return m
}

// IsTranslatable reports whether name is routed through the overlay under the
// active locale.
func (m *Model) IsTranslatable(name string) bool {
	if !m.locale.ShouldTranslate() {
		return false
	}
	name = attributes.NormalizeName(name)
	if name == attributes.ReservedName {
		return false
	}
	_, ok := m.options(name)
	return ok
}

// GetTranslated resolves name in locale, or in the active locale when locale
// is empty. Missing translations fall back to the default-locale value when
// allowed, otherwise they read as "".
func (m *Model) GetTranslated(ctx context.Context, name, code string) (any, error) {
	code = m.locale.Resolve(code)
	if m.locale.IsDefault(code) {
		value, _ := attrpath.Get(m.record.Attributes(), name)
		return value, nil
	}
	if err := m.ensure(ctx, code); err != nil {
		return nil, err
	}

	value, _ := m.overlays.Get(code, name)
	if !values.IsPresent(value) {
		if !m.fallbackEnabled(name) {
			return "", nil
		}
		value, _ = attrpath.Get(m.record.Attributes(), name)
	}
	return m.decode(name, values.CloneValue(value)), nil
}

// SetTranslated writes value for name in locale, or in the active locale when
// locale is empty. The default locale writes through to the record.
func (m *Model) SetTranslated(ctx context.Context, name string, value any, code string) error {
	if strings.TrimSpace(name) == "" {
		return ErrAttributeRequired
	}
	code = m.locale.Resolve(code)
	if m.locale.IsDefault(code) {
		m.setBase(name, value)
		return nil
	}
	if err := m.ensure(ctx, code); err != nil {
		return err
	}
	m.overlays.Set(code, name, value)
	return nil
}

// Attribute reads name through the overlay when it is translatable under the
// active locale and straight from the record otherwise.
func (m *Model) Attribute(ctx context.Context, name string) (any, error) {
	if m.IsTranslatable(name) {
		return m.GetTranslated(ctx, name, "")
	}
	value, _ := attrpath.Get(m.record.Attributes(), name)
	return value, nil
}

// SetAttribute is the write counterpart of Attribute.
func (m *Model) SetAttribute(ctx context.Context, name string, value any) error {
	if m.IsTranslatable(name) {
		return m.SetTranslated(ctx, name, value, "")
	}
	if strings.TrimSpace(name) == "" {
		return ErrAttributeRequired
	}
	m.setBase(name, value)
	return nil
}

// HasTranslation reports whether name holds a present value in locale without
// applying fallback.
func (m *Model) HasTranslation(ctx context.Context, name, code string) (bool, error) {
	code = m.locale.Resolve(code)
	if m.locale.IsDefault(code) {
		value, _ := attrpath.Get(m.record.Attributes(), name)
		return values.IsPresent(value), nil
	}
	if err := m.ensure(ctx, code); err != nil {
		return false, err
	}
	value, _ := m.overlays.Get(code, name)
	return values.IsPresent(value), nil
}

// DirtyLocales lists locales with unsaved overlay changes in first-access
// order.
func (m *Model) DirtyLocales() []string {
	dirty := make([]string, 0)
	for _, code := range m.overlays.Locales() {
		if m.overlays.IsDirty(code, "") {
			dirty = append(dirty, code)
		}
	}
	return dirty
}

// IsTranslateDirty reports whether locale has unsaved changes. An empty
// locale checks the active one.
func (m *Model) IsTranslateDirty(code string) bool {
	return m.overlays.IsDirty(m.locale.Resolve(code), "")
}

// TranslateDirty reports whether attribute changed in locale. An empty
// attribute checks the whole overlay; an empty locale checks every locale.
func (m *Model) TranslateDirty(attribute, code string) bool {
	if strings.TrimSpace(code) != "" {
		return m.overlays.IsDirty(locale.Normalize(code), attribute)
	}
	for _, loaded := range m.overlays.Locales() {
		if m.overlays.IsDirty(loaded, attribute) {
			return true
		}
	}
	return false
}

// OverlayState reports the lifecycle state of locale.
func (m *Model) OverlayState(code string) overlay.State {
	return m.overlays.State(m.locale.Resolve(code))
}

func (m *Model) key() identity.ModelKey {
	return identity.NewModelKey(m.record.ModelType(), m.record.ModelKey())
}

func (m *Model) options(name string) (attributes.Attribute, bool) {
	if attr, ok := m.def.Options(name); ok {
		return attr, true
	}
	return m.def.Options(attrpath.Root(name))
}

func (m *Model) fallbackEnabled(name string) bool {
	if !m.fallback {
		return false
	}
	attr, ok := m.options(name)
	return !ok || attr.FallbackToDefault
}

func (m *Model) ensure(ctx context.Context, code string) error {
	return m.overlays.Ensure(ctx, code, m.load)
}

// load returns the stored overlay of locale. Unsaved records have none; eager
// data primed by Manager.Preload wins over a repository lookup.
func (m *Model) load(ctx context.Context, code string) (map[string]any, error) {
	key := m.key()
	if !key.Persisted() {
		return map[string]any{}, nil
	}
	if doc, ok := m.eager[code]; ok {
		return values.Clone(doc), nil
	}
	doc, err := m.manager.blobs.Get(ctx, key, code)
	if errors.Is(err, blobs.ErrNotFound) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (m *Model) primeEager(code string, doc map[string]any) {
	m.eager[code] = values.Clone(doc)
}

func (m *Model) setBase(name string, value any) {
	attrs := values.Clone(m.record.Attributes())
	if attrs == nil {
		attrs = map[string]any{}
	}
	attrpath.Set(attrs, name, value)
	m.record.SetRawAttributes(attrs)
}

func (m *Model) decode(name string, value any) any {
	raw, ok := value.(string)
	if !ok || raw == "" {
		return value
	}
	structured, ok := m.record.(JSONAttributes)
	if !ok || !slices.Contains(structured.JSONAttributes(), attributes.NormalizeName(name)) {
		return value
	}
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return value
	}
	return decoded
}

func (m *Model) invalidateRelations() {
	invalidator, ok := m.record.(RelationInvalidator)
	if !ok {
		return
	}
	for _, name := range invalidator.LoadedRelations() {
		if m.def.Has(name) {
			invalidator.UnsetRelation(name)
		}
	}
}

func (m *Model) reset() {
	m.overlays.Reset()
	m.eager = make(map[string]map[string]any)
	m.pending = make(map[string]struct{})
	m.queue = nil
}
