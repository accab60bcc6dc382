package blobs

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-translatable/internal/identity"
)

// MemoryRepository provides an in-memory implementation of Repository.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*Blob
	now  func() time.Time
}

// NewMemoryRepository constructs an empty memory-backed blob repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID: make(map[uuid.UUID]*Blob),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) Get(_ context.Context, key identity.ModelKey, locale string) (map[string]any, error) {
	if err := validateKey(key, locale); err != nil {
		return nil, err
	}
	r.mu.RLock()
	record, ok := r.byID[identity.BlobUUID(key.Type, key.ID, locale)]
	r.mu.RUnlock()
	if !ok || !record.Matches(key, locale) {
		return nil, &NotFoundError{Key: key, Locale: locale}
	}
	return record.Document()
}

func (r *MemoryRepository) Upsert(_ context.Context, key identity.ModelKey, locale string, document map[string]any) error {
	if err := validateKey(key, locale); err != nil {
		return err
	}
	data, err := EncodeDocument(document)
	if err != nil {
		return err
	}
	id := identity.BlobUUID(key.Type, key.ID, locale)
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byID[id]; ok {
		if !existing.Matches(key, locale) {
			return fmt.Errorf("%w: %s/%s", ErrIdentityConflict, key.String(), locale)
		}
		existing.AttributeData = data
		existing.UpdatedAt = now
		return nil
	}
	r.byID[id] = &Blob{
		ID:            id,
		ModelType:     key.Type,
		ModelID:       key.ID,
		Locale:        locale,
		AttributeData: data,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return nil
}

func (r *MemoryRepository) ListForModels(_ context.Context, modelType string, ids []string, locales ...string) ([]*Blob, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.collect(func(blob *Blob) bool {
		if blob.ModelType != modelType || !slices.Contains(ids, blob.ModelID) {
			return false
		}
		return len(locales) == 0 || slices.Contains(locales, blob.Locale)
	}), nil
}

func (r *MemoryRepository) ListByType(_ context.Context, modelType string) ([]*Blob, error) {
	return r.collect(func(blob *Blob) bool { return blob.ModelType == modelType }), nil
}

func (r *MemoryRepository) DeleteForModel(_ context.Context, key identity.ModelKey) (int, error) {
	if !key.Persisted() {
		return 0, ErrKeyRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, blob := range r.byID {
		if blob.ModelType == key.Type && blob.ModelID == key.ID {
			delete(r.byID, id)
			removed++
		}
	}
	return removed, nil
}

func (r *MemoryRepository) collect(match func(*Blob) bool) []*Blob {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Blob, 0)
	for _, blob := range r.byID {
		if match(blob) {
			out = append(out, cloneBlob(blob))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ModelID != out[j].ModelID {
			return out[i].ModelID < out[j].ModelID
		}
		return out[i].Locale < out[j].Locale
	})
	return out
}

func cloneBlob(blob *Blob) *Blob {
	if blob == nil {
		return nil
	}
	cloned := *blob
	return &cloned
}
