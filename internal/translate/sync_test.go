package translate_test

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/goliatone/go-translatable/internal/blobs"
	"github.com/goliatone/go-translatable/internal/identity"
	"github.com/goliatone/go-translatable/internal/logging/console"
	"github.com/goliatone/go-translatable/internal/translate"
)

func TestBlobsHoldOnlyDiffAndNoFallbackAttributes(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			fx := newFixture(t, backend)
			model := mustModel(t, fx.manager, newCountry("7"))

			mustSet(t, model, "name", "La France", "fr")
			mustSet(t, model, "capital", "Paris", "fr")
			mustSet(t, model, "motto", "Liberté", "fr")
			mustSave(t, model)

			want := map[string]any{"name": "La France", "motto": "Liberté"}
			if doc := storedBlob(t, fx.blobs, "7", "fr"); !reflect.DeepEqual(doc, want) {
				t.Fatalf("blob = %#v, want %#v", doc, want)
			}
		})
	}
}

func TestIndexFollowsTranslatedValue(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			fx := newFixture(t, backend)
			model := mustModel(t, fx.manager, newCountry("7"))
			key := identity.NewModelKey("country", "7")

			mustSet(t, model, "name", "La France", "fr")
			mustSave(t, model)
			exists, err := fx.indexes.Exists(ctx, key, "fr", "name")
			if err != nil || !exists {
				t.Fatalf("expected index row after save, exists=%v err=%v", exists, err)
			}

			mustSet(t, model, "name", "République française", "fr")
			mustSave(t, model)
			entries, err := fx.indexes.ListForModel(ctx, key)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(entries) != 1 || entries[0].Value != "République française" {
				t.Fatalf("expected single updated row, got %+v", entries)
			}

			mustSet(t, model, "name", "", "fr")
			mustSave(t, model)
			exists, err = fx.indexes.Exists(ctx, key, "fr", "name")
			if err != nil {
				t.Fatalf("exists: %v", err)
			}
			if exists {
				t.Fatal("emptied indexed value must delete its row")
			}
			if got := mustGet(t, model, "name", "fr"); got != "France" {
				t.Fatalf("emptied translation should fall back, got %v", got)
			}
		})
	}
}

func TestDeleteCascades(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			fx := newFixture(t, backend)
			model := mustModel(t, fx.manager, newCountry("7"))
			other := mustModel(t, fx.manager, newCountry("8"))

			for _, code := range []string{"fr", "de"} {
				mustSet(t, model, "name", "Name "+code, code)
				mustSet(t, other, "name", "Other "+code, code)
			}
			mustSave(t, model)
			mustSave(t, other)

			if err := model.AfterDelete(ctx); err != nil {
				t.Fatalf("after delete: %v", err)
			}

			key := identity.NewModelKey("country", "7")
			for _, code := range []string{"fr", "de"} {
				if _, err := fx.blobs.Get(ctx, key, code); !errors.Is(err, blobs.ErrNotFound) {
					t.Fatalf("expected blob %s removed, got %v", code, err)
				}
			}
			entries, err := fx.indexes.ListForModel(ctx, key)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(entries) != 0 {
				t.Fatalf("expected index rows removed, got %+v", entries)
			}
			if len(model.DirtyLocales()) != 0 {
				t.Fatal("in-memory overlays must be discarded")
			}

			if doc := storedBlob(t, fx.blobs, "8", "fr"); doc["name"] != "Other fr" {
				t.Fatalf("unrelated record affected: %#v", doc)
			}
		})
	}
}

func TestUnsavedRecordDefersUntilCreated(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, "memory")
	record := newCountry("")
	model := mustModel(t, fx.manager, record)

	mustSet(t, model, "name", "La France", "fr")
	mustSave(t, model)
	mustSave(t, model)
	if got := model.PendingLocales(); !reflect.DeepEqual(got, []string{"fr"}) {
		t.Fatalf("expected one deferred locale, got %v", got)
	}

	record.SetKey("7")
	if err := model.AfterCreate(ctx); err != nil {
		t.Fatalf("after create: %v", err)
	}
	if doc := storedBlob(t, fx.blobs, "7", "fr"); doc["name"] != "La France" {
		t.Fatalf("unexpected blob %#v", doc)
	}
	if len(model.PendingLocales()) != 0 {
		t.Fatal("queue must be drained")
	}
	if model.IsTranslateDirty("fr") {
		t.Fatal("flushed locale must be clean")
	}
	if err := model.AfterCreate(ctx); err != nil {
		t.Fatalf("second after create: %v", err)
	}
}

func TestBeforeSaveRestoresDefaultAttributes(t *testing.T) {
	fx := newFixture(t, "memory")
	record := newCountry("7")
	model := mustModel(t, fx.manager, record).Lang("fr")

	// A host writing the raw column under a foreign locale.
	attrs := record.Attributes()
	attrs["name"] = "La France"
	attrs["code"] = "FRA"
	record.SetRawAttributes(attrs)

	mustSave(t, model)
	if record.Attributes()["name"] != "France" {
		t.Fatalf("translatable attribute must be restored, got %v", record.Attributes()["name"])
	}
	if record.Attributes()["code"] != "FRA" {
		t.Fatal("non-translatable attribute must be kept")
	}
}

func TestUniqueTranslatableDataRestoresLocale(t *testing.T) {
	fx := newFixture(t, "memory")
	record := newCountry("7")
	model := mustModel(t, fx.manager, record)
	mustSet(t, model, "capital", "Paris", "fr")
	mustSet(t, model, "name", "La France", "fr")

	before := record.Attributes()["name"]
	unique := model.UniqueTranslatableData("fr")
	if !reflect.DeepEqual(unique, map[string]any{"name": "La France"}) {
		t.Fatalf("unexpected unique data %#v", unique)
	}
	if model.ActiveLocale() != "en" {
		t.Fatalf("active locale leaked: %s", model.ActiveLocale())
	}
	if record.Attributes()["name"] != before {
		t.Fatal("base attributes leaked")
	}
}

func TestComputedFieldsAreMerged(t *testing.T) {
	resolver := func(_ context.Context, record translate.Record, code string, data map[string]any) (map[string]any, error) {
		return map[string]any{"label": record.ModelType() + ":" + code}, nil
	}
	fx := newFixture(t, "memory", translate.WithComputedFields(resolver))
	model := mustModel(t, fx.manager, newCountry("7"))
	mustSet(t, model, "name", "La France", "fr")
	mustSave(t, model)

	doc := storedBlob(t, fx.blobs, "7", "fr")
	if doc["label"] != "country:fr" || doc["name"] != "La France" {
		t.Fatalf("unexpected blob %#v", doc)
	}
}

func TestStructuredIndexValueIsRejected(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			fx := newFixture(t, backend)
			model := mustModel(t, fx.manager, newCountry("7"))
			mustSet(t, model, "capital", "Paris", "fr")
			mustSet(t, model, "name", map[string]any{"short": "France"}, "fr")

			err := model.BeforeSave(ctx)
			if !errors.Is(err, translate.ErrUnsupportedIndexValue) {
				t.Fatalf("expected ErrUnsupportedIndexValue, got %v", err)
			}
			if _, err := fx.blobs.Get(ctx, identity.NewModelKey("country", "7"), "fr"); !errors.Is(err, blobs.ErrNotFound) {
				t.Fatalf("expected no blob written for a rejected save, got %v", err)
			}
			if !model.IsTranslateDirty("fr") {
				t.Fatal("rejected locale must stay dirty")
			}
		})
	}
}

func TestKeysDifferingOnlyInCaseStayApart(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			fx := newFixture(t, backend)

			upper := mustModel(t, fx.manager, newCountry("Abc"))
			mustSet(t, upper, "name", "Majuscule", "fr")
			mustSave(t, upper)

			lower := mustModel(t, fx.manager, newCountry("abc"))
			if got := mustGet(t, lower.NoFallback(), "name", "fr"); got != "" {
				t.Fatalf("expected no translation leaked into abc, got %v", got)
			}
			mustSet(t, lower, "name", "minuscule", "fr")
			mustSave(t, lower)

			if _, err := fx.manager.Purge(ctx, identity.NewModelKey("country", "abc")); err != nil {
				t.Fatalf("purge: %v", err)
			}

			if doc := storedBlob(t, fx.blobs, "Abc", "fr"); doc["name"] != "Majuscule" {
				t.Fatalf("expected Abc blob kept, got %#v", doc)
			}
			exists, err := fx.indexes.Exists(ctx, identity.NewModelKey("country", "Abc"), "fr", "name")
			if err != nil {
				t.Fatalf("exists: %v", err)
			}
			if !exists {
				t.Fatal("expected Abc index row kept")
			}
			if _, err := fx.blobs.Get(ctx, identity.NewModelKey("country", "abc"), "fr"); !errors.Is(err, blobs.ErrNotFound) {
				t.Fatalf("expected abc blob purged, got %v", err)
			}
		})
	}
}

func TestSyncLogsCarryRecordSubject(t *testing.T) {
	var buf bytes.Buffer
	provider := console.NewProvider(console.Options{Writer: &buf})
	fx := newFixture(t, "memory", translate.WithLoggerProvider(provider))

	model := mustModel(t, fx.manager, newCountry("7"))
	mustSet(t, model, "name", "La France", "fr")
	mustSave(t, model)
	if _, err := fx.manager.Purge(context.Background(), identity.NewModelKey("country", "7")); err != nil {
		t.Fatalf("purge: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"translate.sync.store model_type=country model_id=7 locale=fr ",
		"translate.sync.purged model_type=country model_id=7 blobs=1 indexes=1 ",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected log line containing %q, got:\n%s", want, out)
		}
	}
}

func TestStorageErrorsPropagateOnSave(t *testing.T) {
	boom := errors.New("disk full")
	fx := newFixture(t, "memory")
	manager, err := translate.NewManager(failingBlobs{Repository: fx.blobs, err: boom}, fx.indexes, fx.locales,
		translate.WithRegistry(fx.manager.Registry()))
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	model := mustModel(t, manager, newCountry(""))
	mustSet(t, model, "name", "La France", "fr")
	if err := model.BeforeSave(context.Background()); err != nil {
		t.Fatalf("unsaved record should defer, got %v", err)
	}
	model.Record().(*translate.MapRecord).SetKey("7")
	if err := model.AfterCreate(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if got := model.PendingLocales(); !reflect.DeepEqual(got, []string{"fr"}) {
		t.Fatalf("failed locale must stay queued, got %v", got)
	}
}

type countingBlobs struct {
	blobs.Repository
	gets int
}

func (c *countingBlobs) Get(ctx context.Context, key identity.ModelKey, code string) (map[string]any, error) {
	c.gets++
	return c.Repository.Get(ctx, key, code)
}

func TestPreloadAvoidsPerLocaleLookups(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			fx := newFixture(t, backend)
			for id, name := range map[string]string{"7": "La France", "8": "Belgique"} {
				if err := fx.blobs.Upsert(ctx, identity.NewModelKey("country", id), "fr", map[string]any{"name": name}); err != nil {
					t.Fatalf("seed: %v", err)
				}
			}

			counting := &countingBlobs{Repository: fx.blobs}
			manager, err := translate.NewManager(counting, fx.indexes, fx.locales, translate.WithRegistry(fx.manager.Registry()))
			if err != nil {
				t.Fatalf("manager: %v", err)
			}
			france := mustModel(t, manager, newCountry("7"))
			belgium := mustModel(t, manager, newCountry("8"))
			if err := manager.Preload(ctx, []*translate.Model{france, belgium}, "fr", "de"); err != nil {
				t.Fatalf("preload: %v", err)
			}

			if got := mustGet(t, france, "name", "fr"); got != "La France" {
				t.Fatalf("unexpected france name %v", got)
			}
			if got := mustGet(t, belgium, "name", "fr"); got != "Belgique" {
				t.Fatalf("unexpected belgium name %v", got)
			}
			if got := mustGet(t, france, "name", "de"); got != "France" {
				t.Fatalf("missing locale should fall back, got %v", got)
			}
			if counting.gets != 0 {
				t.Fatalf("expected no per-locale lookups, got %d", counting.gets)
			}

			_ = mustGet(t, france, "name", "it")
			if counting.gets != 1 {
				t.Fatalf("locale outside the preload should hit storage once, got %d", counting.gets)
			}
		})
	}
}

func TestReindexRebuildsFromBlobs(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			fx := newFixture(t, backend)
			seed := map[string]map[string]any{
				"7": {"name": "La France"},
				"8": {"capital": "Bruxelles"},
			}
			for id, doc := range seed {
				if err := fx.blobs.Upsert(ctx, identity.NewModelKey("country", id), "fr", doc); err != nil {
					t.Fatalf("seed: %v", err)
				}
			}

			result, err := fx.manager.Reindex(ctx, "country")
			if err != nil {
				t.Fatalf("reindex: %v", err)
			}
			if result.Blobs != 2 || result.Entries != 1 {
				t.Fatalf("unexpected result %+v", result)
			}
			keys, err := fx.indexes.FindKeys(ctx, "country", "fr", "name", "=", "La France")
			if err != nil {
				t.Fatalf("find: %v", err)
			}
			if !reflect.DeepEqual(keys, []string{"7"}) {
				t.Fatalf("unexpected keys %v", keys)
			}

			if _, err := fx.manager.Reindex(ctx, "city"); !errors.Is(err, translate.ErrModelNotRegistered) {
				t.Fatalf("expected ErrModelNotRegistered, got %v", err)
			}
		})
	}
}
