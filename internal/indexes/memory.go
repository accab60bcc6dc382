package indexes

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-translatable/internal/identity"
)

// MemoryRepository provides an in-memory implementation of Repository.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*Entry
	now  func() time.Time
}

// NewMemoryRepository constructs an empty memory-backed index repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID: make(map[uuid.UUID]*Entry),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) Upsert(ctx context.Context, key identity.ModelKey, locale, item, value string) error {
	if value == "" {
		return r.Delete(ctx, key, locale, item)
	}
	if err := validateKey(key, locale, item); err != nil {
		return err
	}
	id := identity.IndexUUID(key.Type, key.ID, locale, item)
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byID[id]; ok {
		if !existing.Matches(key, locale, item) {
			return fmt.Errorf("%w: %s/%s/%s", ErrIdentityConflict, key.String(), locale, item)
		}
		existing.Value = value
		existing.UpdatedAt = now
		return nil
	}
	r.byID[id] = &Entry{
		ID:        id,
		ModelType: key.Type,
		ModelID:   key.ID,
		Locale:    locale,
		Item:      item,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, key identity.ModelKey, locale, item string) error {
	if err := validateKey(key, locale, item); err != nil {
		return err
	}
	id := identity.IndexUUID(key.Type, key.ID, locale, item)
	r.mu.Lock()
	if entry, ok := r.byID[id]; ok && entry.Matches(key, locale, item) {
		delete(r.byID, id)
	}
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) FindKeys(_ context.Context, modelType, locale, item string, op Operator, value string) ([]string, error) {
	op, err := ParseOperator(string(op))
	if err != nil {
		return nil, err
	}
	matches := r.collect(func(entry *Entry) bool {
		return entry.ModelType == modelType &&
			entry.Locale == locale &&
			entry.Item == item &&
			op.Match(entry.Value, value)
	})
	return distinctModelIDs(matches), nil
}

func (r *MemoryRepository) Exists(_ context.Context, key identity.ModelKey, locale, item string) (bool, error) {
	if err := validateKey(key, locale, item); err != nil {
		return false, err
	}
	r.mu.RLock()
	entry, ok := r.byID[identity.IndexUUID(key.Type, key.ID, locale, item)]
	r.mu.RUnlock()
	return ok && entry.Matches(key, locale, item), nil
}

func (r *MemoryRepository) ListForModel(_ context.Context, key identity.ModelKey) ([]*Entry, error) {
	if !key.Persisted() {
		return nil, ErrKeyRequired
	}
	return r.collect(func(entry *Entry) bool {
		return entry.ModelType == key.Type && entry.ModelID == key.ID
	}), nil
}

func (r *MemoryRepository) DeleteForModel(_ context.Context, key identity.ModelKey) (int, error) {
	if !key.Persisted() {
		return 0, ErrKeyRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, entry := range r.byID {
		if entry.ModelType == key.Type && entry.ModelID == key.ID {
			delete(r.byID, id)
			removed++
		}
	}
	return removed, nil
}

// Entries returns every stored entry in a stable order.
func (r *MemoryRepository) Entries() []*Entry {
	return r.collect(func(*Entry) bool { return true })
}

func (r *MemoryRepository) collect(match func(*Entry) bool) []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Entry, 0)
	for _, entry := range r.byID {
		if match(entry) {
			cloned := *entry
			out = append(out, &cloned)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ModelType != b.ModelType {
			return a.ModelType < b.ModelType
		}
		if a.ModelID != b.ModelID {
			return a.ModelID < b.ModelID
		}
		if a.Locale != b.Locale {
			return a.Locale < b.Locale
		}
		return a.Item < b.Item
	})
	return out
}
