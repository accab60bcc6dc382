package blobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-translatable/internal/identity"
)

const blobNamespace = "translate_attributes"

// NewBlobRepository builds the generic repository for translation blobs.
func NewBlobRepository(db *bun.DB) repository.Repository[*Blob] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Blob]{
		NewRecord:          func() *Blob { return &Blob{} },
		GetID:              func(blob *Blob) uuid.UUID { return blob.ID },
		SetID:              func(blob *Blob, id uuid.UUID) { blob.ID = id },
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(blob *Blob) string { return blob.ID.String() },
	})
}

// BunRepository stores blobs through bun with optional caching.
type BunRepository struct {
	db           *bun.DB
	repo         repository.Repository[*Blob]
	cacheService cache.CacheService
	cachePrefix  string
	now          func() time.Time
}

// NewBunRepository creates a blob repository without caching.
func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache creates a blob repository backed by the cache
// service when both cache arguments are set.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunRepository {
	base := NewBlobRepository(db)
	var svc cache.CacheService
	prefix := ""
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
		svc = cacheService
		prefix = blobNamespace + cache.KeySeparator
	}
	return &BunRepository{
		db:           db,
		repo:         base,
		cacheService: svc,
		cachePrefix:  prefix,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (r *BunRepository) Get(ctx context.Context, key identity.ModelKey, locale string) (map[string]any, error) {
	blob, err := r.find(ctx, key, locale)
	if err != nil {
		return nil, err
	}
	return blob.Document()
}

func (r *BunRepository) Upsert(ctx context.Context, key identity.ModelKey, locale string, document map[string]any) error {
	data, err := EncodeDocument(document)
	if err != nil {
		return err
	}

	existing, err := r.lookup(ctx, key, locale)
	switch {
	case err == nil && !existing.Matches(key, locale):
		return fmt.Errorf("%w: %s/%s", ErrIdentityConflict, key.String(), locale)
	case errors.Is(err, ErrNotFound):
		now := r.now()
		_, err = r.repo.Create(ctx, &Blob{
			ID:            identity.BlobUUID(key.Type, key.ID, locale),
			ModelType:     key.Type,
			ModelID:       key.ID,
			Locale:        locale,
			AttributeData: data,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if err != nil {
			return fmt.Errorf("blobs: create %s/%s: %w", key.String(), locale, err)
		}
	case err != nil:
		return err
	default:
		existing.AttributeData = data
		existing.UpdatedAt = r.now()
		if _, err := r.repo.Update(ctx, existing); err != nil {
			return mapRepositoryError(err, key, locale)
		}
	}
	return r.InvalidateCache(ctx)
}

func (r *BunRepository) ListForModels(ctx context.Context, modelType string, ids []string, locales ...string) ([]*Blob, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	records, _, err := r.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		q = q.Where("?TableAlias.model_type = ?", modelType).
			Where("?TableAlias.model_id IN (?)", bun.In(ids))
		if len(locales) > 0 {
			q = q.Where("?TableAlias.locale IN (?)", bun.In(locales))
		}
		return q
	}))
	if err != nil {
		return nil, fmt.Errorf("blobs: list %s: %w", modelType, err)
	}
	return records, nil
}

func (r *BunRepository) ListByType(ctx context.Context, modelType string) ([]*Blob, error) {
	records, _, err := r.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.model_type = ?", modelType).
			OrderExpr("?TableAlias.model_id ASC, ?TableAlias.locale ASC")
	}))
	if err != nil {
		return nil, fmt.Errorf("blobs: list %s: %w", modelType, err)
	}
	return records, nil
}

func (r *BunRepository) DeleteForModel(ctx context.Context, key identity.ModelKey) (int, error) {
	if !key.Persisted() {
		return 0, ErrKeyRequired
	}
	res, err := r.db.NewDelete().
		Model((*Blob)(nil)).
		Where("model_type = ?", key.Type).
		Where("model_id = ?", key.ID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("blobs: delete %s: %w", key.String(), err)
	}
	affected, _ := res.RowsAffected()
	if err := r.InvalidateCache(ctx); err != nil {
		return int(affected), err
	}
	return int(affected), nil
}

// InvalidateCache drops every cached blob lookup.
func (r *BunRepository) InvalidateCache(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

// find returns the blob stored for exactly key and locale.
func (r *BunRepository) find(ctx context.Context, key identity.ModelKey, locale string) (*Blob, error) {
	record, err := r.lookup(ctx, key, locale)
	if err != nil {
		return nil, err
	}
	if !record.Matches(key, locale) {
		return nil, &NotFoundError{Key: key, Locale: locale}
	}
	return record, nil
}

// lookup returns whatever row sits under the derived id, matching or not.
func (r *BunRepository) lookup(ctx context.Context, key identity.ModelKey, locale string) (*Blob, error) {
	if err := validateKey(key, locale); err != nil {
		return nil, err
	}
	id := identity.BlobUUID(key.Type, key.ID, locale)
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, key, locale)
	}
	if record == nil {
		return nil, &NotFoundError{Key: key, Locale: locale}
	}
	return record, nil
}

func mapRepositoryError(err error, key identity.ModelKey, locale string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Key: key, Locale: locale}
	}
	return fmt.Errorf("blobs repository error: %w", err)
}
