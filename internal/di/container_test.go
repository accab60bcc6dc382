package di_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/goliatone/go-command/dispatcher"

	"github.com/goliatone/go-translatable/internal/blobs"
	"github.com/goliatone/go-translatable/internal/commands"
	"github.com/goliatone/go-translatable/internal/di"
	"github.com/goliatone/go-translatable/internal/identity"
	"github.com/goliatone/go-translatable/internal/indexes"
	"github.com/goliatone/go-translatable/internal/runtimeconfig"
	"github.com/goliatone/go-translatable/internal/translate"
)

var dsnCounter atomic.Int64

func bunConfig(t *testing.T) runtimeconfig.Config {
	t.Helper()
	cfg := runtimeconfig.DefaultConfig()
	cfg.Locales = []string{"en", "fr"}
	cfg.Storage = runtimeconfig.StorageConfig{
		Provider: runtimeconfig.StorageBun,
		Dialect:  "sqlite",
		DSN:      fmt.Sprintf("file:di_container_%d?mode=memory&cache=shared&_fk=1", dsnCounter.Add(1)),
	}
	cfg.Models["country"] = []any{
		[]any{"name", map[string]any{"index": true}},
		"capital",
	}
	return cfg
}

func newContainer(t *testing.T, cfg runtimeconfig.Config, opts ...di.Option) *di.Container {
	t.Helper()
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })
	return container
}

func reindexCountries() commands.ReindexTranslationsCommand {
	return commands.ReindexTranslationsCommand{ModelTypes: []string{"country"}}
}

func saveBelgique(t *testing.T, manager *translate.Manager) {
	t.Helper()
	ctx := context.Background()
	record := translate.NewMapRecord("country", "2", map[string]any{"name": "Belgium", "capital": "Brussels"})
	model, err := manager.Model(record)
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	if err := model.SetTranslated(ctx, "name", "Belgique", "fr"); err != nil {
		t.Fatalf("set translated: %v", err)
	}
	if err := model.BeforeSave(ctx); err != nil {
		t.Fatalf("before save: %v", err)
	}
}

func TestContainerDefaultsToMemoryRepositories(t *testing.T) {
	container := newContainer(t, runtimeconfig.DefaultConfig())

	if _, ok := container.BlobRepository().(*blobs.MemoryRepository); !ok {
		t.Fatalf("expected memory blob repository, got %T", container.BlobRepository())
	}
	if _, ok := container.IndexRepository().(*indexes.MemoryRepository); !ok {
		t.Fatalf("expected memory index repository, got %T", container.IndexRepository())
	}
	if container.DB() != nil {
		t.Fatal("expected no database handle for memory storage")
	}
	if !container.Manager().FallbackEnabled() {
		t.Fatal("expected fallback enabled by default")
	}
}

func TestContainerRejectsInvalidConfig(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Provider = "redis"

	_, err := di.NewContainer(cfg)
	if !errors.Is(err, runtimeconfig.ErrStorageProviderUnknown) {
		t.Fatalf("expected ErrStorageProviderUnknown, got %v", err)
	}
}

func TestContainerRejectsInvalidModelDeclaration(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Models["country"] = []any{42}

	if _, err := di.NewContainer(cfg); err == nil {
		t.Fatal("expected registration error")
	}
}

func TestContainerBunStorageRoundTrip(t *testing.T) {
	cfg := bunConfig(t)
	cfg.UseFallback = false
	container := newContainer(t, cfg)
	ctx := context.Background()

	if container.DB() == nil {
		t.Fatal("expected database handle")
	}
	if _, ok := container.BlobRepository().(*blobs.BunRepository); !ok {
		t.Fatalf("expected bun blob repository, got %T", container.BlobRepository())
	}
	if container.Manager().FallbackEnabled() {
		t.Fatal("expected fallback disabled from config")
	}

	saveBelgique(t, container.Manager())

	keys, err := container.IndexRepository().FindKeys(ctx, "country", "fr", "name", indexes.OpEqual, "Belgique")
	if err != nil {
		t.Fatalf("find keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "2" {
		t.Fatalf("expected record 2 indexed, got %v", keys)
	}

	result, err := container.PurgeHandler().Run(ctx, commands.PurgeTranslationsCommand{ModelType: "country", ModelID: "2"})
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if result.Blobs != 1 || result.Indexes != 1 {
		t.Fatalf("unexpected purge result %+v", result)
	}
	if _, err := container.BlobRepository().Get(ctx, identity.NewModelKey("country", "2"), "fr"); !errors.Is(err, blobs.ErrNotFound) {
		t.Fatalf("expected blob removed, got %v", err)
	}
}

func TestContainerEnablesCacheForBunStorage(t *testing.T) {
	cfg := bunConfig(t)
	cfg.Cache.Enabled = true
	container := newContainer(t, cfg)

	if container.CacheService() == nil {
		t.Fatal("expected cache service when cache is enabled")
	}
	saveBelgique(t, container.Manager())

	doc, err := container.BlobRepository().Get(context.Background(), identity.NewModelKey("country", "2"), "fr")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc["name"] != "Belgique" {
		t.Fatalf("expected cached blob document, got %v", doc)
	}
}

func TestContainerCloseLeavesInjectedDB(t *testing.T) {
	owner := newContainer(t, bunConfig(t))
	cfg := bunConfig(t)
	shared := newContainer(t, cfg, di.WithBunDB(owner.DB()))

	if err := shared.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := owner.DB().PingContext(context.Background()); err != nil {
		t.Fatalf("expected injected handle to stay open: %v", err)
	}
}

func TestContainerSubscribeCommands(t *testing.T) {
	container := newContainer(t, bunConfig(t))
	saveBelgique(t, container.Manager())

	unsubscribe := container.SubscribeCommands(0)
	t.Cleanup(unsubscribe)

	if err := dispatcher.Dispatch(context.Background(), reindexCountries()); err != nil {
		t.Fatalf("dispatch reindex: %v", err)
	}
	if err := dispatcher.Dispatch(context.Background(), commands.PurgeTranslationsCommand{ModelType: "country", ModelID: "2"}); err != nil {
		t.Fatalf("dispatch purge: %v", err)
	}
	entries, err := container.IndexRepository().ListForModel(context.Background(), identity.NewModelKey("country", "2"))
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected purged index rows, got %d", len(entries))
	}
}
