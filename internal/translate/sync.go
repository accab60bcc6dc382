package translate

import (
	"context"
	"fmt"

	"github.com/goliatone/go-translatable/internal/attrpath"
	"github.com/goliatone/go-translatable/internal/logging"
	"github.com/goliatone/go-translatable/internal/values"
)

// BeforeSave flushes every dirty locale and restores the default-locale
// attributes on the record. Hosts call it right before persisting the record.
func (m *Model) BeforeSave(ctx context.Context) error {
	for _, code := range m.overlays.Locales() {
		if !m.overlays.IsDirty(code, "") {
			continue
		}
		if err := m.storeTranslatableData(ctx, code); err != nil {
			return err
		}
	}
	m.restoreDefaultAttributes()
	return nil
}

// AfterCreate runs the writes deferred while the record had no key. Each
// deferred locale is written once.
func (m *Model) AfterCreate(ctx context.Context) error {
	queue := m.queue
	m.queue = nil
	m.pending = make(map[string]struct{})
	for i, code := range queue {
		if err := m.storeTranslatableData(ctx, code); err != nil {
			for _, remaining := range queue[i:] {
				m.pending[remaining] = struct{}{}
				m.queue = append(m.queue, remaining)
			}
			return err
		}
	}
	return nil
}

// AfterDelete removes every translation row of the record and discards the
// in-memory state.
func (m *Model) AfterDelete(ctx context.Context) error {
	key := m.key()
	if key.Persisted() {
		if _, err := m.manager.Purge(ctx, key); err != nil {
			return err
		}
	}
	m.reset()
	return nil
}

// PendingLocales lists locales waiting for AfterCreate.
func (m *Model) PendingLocales() []string {
	return append([]string(nil), m.queue...)
}

// UniqueTranslatableData returns the overlay attributes of locale that must be
// stored: those differing from the default-locale value plus those declared
// without fallback. The active locale is switched for the computation and
// restored afterwards.
func (m *Model) UniqueTranslatableData(code string) map[string]any {
	previous := m.locale.SetActive(code)
	defer m.locale.SetActive(previous)

	base := m.record.Attributes()
	scratch := values.Clone(base)
	if scratch == nil {
		scratch = map[string]any{}
	}
	current := m.overlays.Map(code)

	unique := map[string]any{}
	for _, attr := range m.def.Attributes() {
		value, ok := attrpath.Get(current, attr.Name)
		if !ok {
			continue
		}
		attrpath.Set(scratch, attr.Name, value)
		original, _ := attrpath.Get(base, attr.Name)
		changed, _ := attrpath.Get(scratch, attr.Name)
		if !attr.FallbackToDefault || !values.Equivalent(changed, original) {
			attrpath.Set(unique, attr.Name, values.CloneValue(value))
		}
	}
	return unique
}

func (m *Model) storeTranslatableData(ctx context.Context, code string) error {
	key := m.key()
	ctx = logging.ContextWithSubject(ctx, logging.Subject{ModelType: key.Type, ModelID: key.ID, Locale: code})
	logger := logging.FromContext(m.manager.syncLogger, ctx)
	if !key.Persisted() {
		if _, queued := m.pending[code]; !queued {
			m.pending[code] = struct{}{}
			m.queue = append(m.queue, code)
			logger.Debug("translate.sync.deferred")
		}
		return nil
	}

	data := m.UniqueTranslatableData(code)
	if m.manager.computed != nil {
		computed, err := m.manager.computed(ctx, m.record, code, values.Clone(data))
		if err != nil {
			logger.Error("translate.sync.computed_failed", "error", err)
			return fmt.Errorf("translate: computed fields %s/%s: %w", key.String(), code, err)
		}
		for name, value := range computed {
			attrpath.Set(data, name, value)
		}
	}

	entries, err := m.indexEntries(code)
	if err != nil {
		logger.Error("translate.sync.index_failed", "error", err)
		return err
	}
	if err := m.manager.blobs.Upsert(ctx, key, code, data); err != nil {
		logger.Error("translate.sync.store_failed", "error", err)
		return fmt.Errorf("translate: store %s/%s: %w", key.String(), code, err)
	}
	if err := m.storeIndexData(ctx, code, entries); err != nil {
		logger.Error("translate.sync.index_failed", "error", err)
		return err
	}
	m.overlays.Commit(code)
	logger.Debug("translate.sync.store", "attributes", len(data))
	return nil
}

type indexEntry struct {
	item  string
	value string
}

// indexEntries converts the indexed attributes of the code overlay to their
// stored text form. It runs before any write so an unsupported value leaves
// both tables untouched.
func (m *Model) indexEntries(code string) ([]indexEntry, error) {
	current := m.overlays.Map(code)
	indexed := m.def.Indexed()
	entries := make([]indexEntry, 0, len(indexed))
	for _, attr := range indexed {
		value, _ := attrpath.Get(current, attr.Name)
		scalar, err := indexValue(attr.Name, value)
		if err != nil {
			return nil, err
		}
		entries = append(entries, indexEntry{item: attr.Name, value: scalar})
	}
	return entries, nil
}

func (m *Model) storeIndexData(ctx context.Context, code string, entries []indexEntry) error {
	key := m.key()
	for _, entry := range entries {
		if err := m.manager.indexes.Upsert(ctx, key, code, entry.item, entry.value); err != nil {
			return fmt.Errorf("translate: index %s/%s/%s: %w", key.String(), code, entry.item, err)
		}
	}
	return nil
}

// restoreDefaultAttributes merges the persisted translatable values back onto
// the record when a foreign locale is active, so the host never writes that
// locale into the canonical row.
func (m *Model) restoreDefaultAttributes() {
	if !m.locale.ShouldTranslate() {
		return
	}
	original := m.record.Original()
	if len(original) == 0 {
		return
	}
	attrs := values.Clone(m.record.Attributes())
	if attrs == nil {
		attrs = map[string]any{}
	}
	for _, name := range m.def.Names() {
		if value, ok := attrpath.Get(original, name); ok {
			attrpath.Set(attrs, name, value)
		}
	}
	m.record.SetRawAttributes(attrs)
}
