// Package overlay keeps the per-locale attribute overrides of a single record
// instance together with the as-loaded snapshot used for dirty tracking.
package overlay

import (
	"context"
	"slices"

	"github.com/goliatone/go-translatable/internal/attrpath"
	"github.com/goliatone/go-translatable/internal/values"
)

// Loader fetches the persisted overlay of a locale.
type Loader func(ctx context.Context, locale string) (map[string]any, error)

// State describes where a locale overlay is in its lifecycle.
type State string

const (
	StateUnloaded State = "unloaded"
	StateClean    State = "clean"
	StateDirty    State = "dirty"
)

// Store holds overlays keyed by locale. Locales keep the order in which they
// were first touched. A Store is owned by one record instance and is not safe
// for concurrent use.
type Store struct {
	order     []string
	overlays  map[string]map[string]any
	snapshots map[string]map[string]any
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		overlays:  make(map[string]map[string]any),
		snapshots: make(map[string]map[string]any),
	}
}

// Loaded reports whether locale already has an overlay in memory.
func (s *Store) Loaded(locale string) bool {
	_, ok := s.overlays[locale]
	return ok
}

// Ensure loads the overlay of locale once. The loaded data becomes both the
// live overlay and its snapshot.
func (s *Store) Ensure(ctx context.Context, locale string, load Loader) error {
	if s.Loaded(locale) {
		return nil
	}
	var data map[string]any
	if load != nil {
		loaded, err := load(ctx, locale)
		if err != nil {
			return err
		}
		data = loaded
	}
	s.Prime(locale, data)
	return nil
}

// Prime installs data as the loaded overlay and snapshot of locale.
func (s *Store) Prime(locale string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	s.track(locale)
	s.overlays[locale] = values.Clone(data)
	s.snapshots[locale] = values.Clone(data)
}

// Get returns the overlay value at path for locale.
func (s *Store) Get(locale, path string) (any, bool) {
	return attrpath.Get(s.overlays[locale], path)
}

// Set writes value at path into the overlay of locale, creating the overlay
// without a snapshot when it was never loaded.
func (s *Store) Set(locale, path string, value any) {
	overlay, ok := s.overlays[locale]
	if !ok {
		overlay = map[string]any{}
		s.track(locale)
		s.overlays[locale] = overlay
	}
	attrpath.Set(overlay, path, value)
}

// Map returns a deep copy of the overlay of locale.
func (s *Store) Map(locale string) map[string]any {
	return values.Clone(s.overlays[locale])
}

// Snapshot returns a deep copy of the as-loaded overlay and whether one exists.
func (s *Store) Snapshot(locale string) (map[string]any, bool) {
	snapshot, ok := s.snapshots[locale]
	if !ok {
		return nil, false
	}
	return values.Clone(snapshot), true
}

// Locales returns the locales with an overlay in first-access order.
func (s *Store) Locales() []string {
	return slices.Clone(s.order)
}

// Dirty returns the overlay entries that differ from the snapshot. Without a
// snapshot every entry is dirty.
func (s *Store) Dirty(locale string) map[string]any {
	overlay, ok := s.overlays[locale]
	if !ok {
		return map[string]any{}
	}
	snapshot, hasSnapshot := s.snapshots[locale]
	if !hasSnapshot {
		return values.Clone(overlay)
	}
	dirty := map[string]any{}
	for key, value := range overlay {
		original, exists := snapshot[key]
		if !exists || !values.Equivalent(value, original) {
			dirty[key] = values.CloneValue(value)
		}
	}
	return dirty
}

// IsDirty reports whether locale has pending changes. A non-empty attribute
// narrows the check to the top-level key holding that attribute.
func (s *Store) IsDirty(locale, attribute string) bool {
	dirty := s.Dirty(locale)
	if attribute == "" {
		return len(dirty) > 0
	}
	_, ok := dirty[attrpath.Root(attribute)]
	return ok
}

// State reports the lifecycle state of locale.
func (s *Store) State(locale string) State {
	if !s.Loaded(locale) {
		return StateUnloaded
	}
	if s.IsDirty(locale, "") {
		return StateDirty
	}
	return StateClean
}

// Commit refreshes the snapshot of locale from its live overlay, marking it
// clean after a flush.
func (s *Store) Commit(locale string) {
	overlay, ok := s.overlays[locale]
	if !ok {
		return
	}
	s.snapshots[locale] = values.Clone(overlay)
}

// Reset discards every overlay and snapshot.
func (s *Store) Reset() {
	s.order = nil
	s.overlays = make(map[string]map[string]any)
	s.snapshots = make(map[string]map[string]any)
}

func (s *Store) track(locale string) {
	if _, ok := s.overlays[locale]; ok {
		return
	}
	s.order = append(s.order, locale)
}
