package indexes

import (
	"context"
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

const indexNamespace = "translate_indexes"

// NewEntryRepository builds the generic repository for index entries.
func NewEntryRepository(db *bun.DB) repository.Repository[*Entry] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Entry]{
		NewRecord:          func() *Entry { return &Entry{} },
		GetID:              func(entry *Entry) uuid.UUID { return entry.ID },
		SetID:              func(entry *Entry, id uuid.UUID) { entry.ID = id },
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(entry *Entry) string { return entry.ID.String() },
	})
}

// BunRepository stores index entries through bun with optional caching.
type BunRepository struct {
	db           *bun.DB
	repo         repository.Repository[*Entry]
	cacheService cache.CacheService
	cachePrefix  string
	now          func() time.Time
}

// NewBunRepository creates an index repository without caching.
func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache creates an index repository with caching support.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunRepository {
	base := NewEntryRepository(db)
	var svc cache.CacheService
	prefix := ""
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
		svc = cacheService
		prefix = indexNamespace + cache.KeySeparator
	}
	return &BunRepository{
		db:           db,
		repo:         base,
		cacheService: svc,
		cachePrefix:  prefix,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (r *BunRepository) Upsert(ctx context.Context, key identity.ModelKey, locale, item, value string) error {
	if value == "" {
		return r.Delete(ctx, key, locale, item)
	}
	if err := validateKey(key, locale, item); err != nil {
		return err
	}

	id := identity.IndexUUID(key.Type, key.ID, locale, item)
	existing, err := r.repo.GetByID(ctx, id.String())
	switch {
	case err != nil && goerrors.IsCategory(err, repository.CategoryDatabaseNotFound):
		now := r.now()
		if _, err := r.repo.Create(ctx, &Entry{
			ID:        id,
			ModelType: key.Type,
			ModelID:   key.ID,
			Locale:    locale,
			Item:      item,
			Value:     value,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return fmt.Errorf("indexes: create %s/%s/%s: %w", key.String(), locale, item, err)
		}
	case err != nil:
		return fmt.Errorf("indexes repository error: %w", err)
	case !existing.Matches(key, locale, item):
		return fmt.Errorf("%w: %s/%s/%s", ErrIdentityConflict, key.String(), locale, item)
	default:
		if existing.Value == value {
			return nil
		}
		existing.Value = value
		existing.UpdatedAt = r.now()
		if _, err := r.repo.Update(ctx, existing); err != nil {
			return fmt.Errorf("indexes: update %s/%s/%s: %w", key.String(), locale, item, err)
		}
	}
	return r.InvalidateCache(ctx)
}

func (r *BunRepository) Delete(ctx context.Context, key identity.ModelKey, locale, item string) error {
	if err := validateKey(key, locale, item); err != nil {
		return err
	}
	_, err := r.db.NewDelete().
		Model((*Entry)(nil)).
		Where("id = ?", identity.IndexUUID(key.Type, key.ID, locale, item)).
		Where("model_type = ?", key.Type).
		Where("model_id = ?", key.ID).
		Where("locale = ?", locale).
		Where("item = ?", item).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("indexes: delete %s/%s/%s: %w", key.String(), locale, item, err)
	}
	return r.InvalidateCache(ctx)
}

func (r *BunRepository) FindKeys(ctx context.Context, modelType, locale, item string, op Operator, value string) ([]string, error) {
	op, err := ParseOperator(string(op))
	if err != nil {
		return nil, err
	}
	records, _, err := r.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.model_type = ?", modelType).
			Where("?TableAlias.locale = ?", locale).
			Where("?TableAlias.item = ?", item).
			Where("?TableAlias.value "+op.SQL()+" ?", value).
			OrderExpr("?TableAlias.model_id ASC")
	}))
	if err != nil {
		return nil, fmt.Errorf("indexes: find %s.%s: %w", modelType, item, err)
	}
	return distinctModelIDs(records), nil
}

func (r *BunRepository) Exists(ctx context.Context, key identity.ModelKey, locale, item string) (bool, error) {
	if err := validateKey(key, locale, item); err != nil {
		return false, err
	}
	entry, err := r.repo.GetByID(ctx, identity.IndexUUID(key.Type, key.ID, locale, item).String())
	if err == nil {
		return entry.Matches(key, locale, item), nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("indexes repository error: %w", err)
}

func (r *BunRepository) ListForModel(ctx context.Context, key identity.ModelKey) ([]*Entry, error) {
	if !key.Persisted() {
		return nil, ErrKeyRequired
	}
	records, _, err := r.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.model_type = ?", key.Type).
			Where("?TableAlias.model_id = ?", key.ID).
			OrderExpr("?TableAlias.locale ASC, ?TableAlias.item ASC")
	}))
	if err != nil {
		return nil, fmt.Errorf("indexes: list %s: %w", key.String(), err)
	}
	return records, nil
}

func (r *BunRepository) DeleteForModel(ctx context.Context, key identity.ModelKey) (int, error) {
	if !key.Persisted() {
		return 0, ErrKeyRequired
	}
	res, err := r.db.NewDelete().
		Model((*Entry)(nil)).
		Where("model_type = ?", key.Type).
		Where("model_id = ?", key.ID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("indexes: delete %s: %w", key.String(), err)
	}
	affected, _ := res.RowsAffected()
	return int(affected), r.InvalidateCache(ctx)
}

// InvalidateCache drops every cached index lookup.
func (r *BunRepository) InvalidateCache(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

func distinctModelIDs(entries []*Entry) []string {
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		if _, ok := seen[entry.ModelID]; ok {
			continue
		}
		seen[entry.ModelID] = struct{}{}
		out = append(out, entry.ModelID)
	}
	return out
}
