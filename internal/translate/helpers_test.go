package translate_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-translatable/internal/blobs"
	"github.com/goliatone/go-translatable/internal/identity"
	"github.com/goliatone/go-translatable/internal/indexes"
	"github.com/goliatone/go-translatable/internal/locale"
	"github.com/goliatone/go-translatable/internal/translate"
	"github.com/goliatone/go-translatable/pkg/testsupport"
	"github.com/uptrace/bun"
)

type fixture struct {
	manager *translate.Manager
	blobs   blobs.Repository
	indexes indexes.Repository
	locales *locale.StaticService
	db      *bun.DB
}

func newFixture(t *testing.T, backend string, opts ...translate.Option) *fixture {
	t.Helper()

	fx := &fixture{locales: locale.NewStaticService("en", "en")}
	switch backend {
	case "memory":
		fx.blobs = blobs.NewMemoryRepository()
		fx.indexes = indexes.NewMemoryRepository()
	case "bun":
		fx.db = testsupport.NewBunDB(t)
		fx.blobs = blobs.NewBunRepository(fx.db)
		fx.indexes = indexes.NewBunRepository(fx.db)
	default:
		t.Fatalf("unknown backend %q", backend)
	}

	manager, err := translate.NewManager(fx.blobs, fx.indexes, fx.locales, opts...)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	fx.manager = manager
	registerCountry(t, manager)
	return fx
}

var backends = []string{"memory", "bun"}

func registerCountry(t *testing.T, manager *translate.Manager) {
	t.Helper()
	_, err := manager.Register("country",
		[]any{"name", map[string]any{"index": true}},
		"capital",
		map[string]any{"name": "motto", "fallback": false},
		"meta",
	)
	if err != nil {
		t.Fatalf("register country: %v", err)
	}
}

func newCountry(id string) *translate.MapRecord {
	return translate.NewMapRecord("country", id, map[string]any{
		"name":    "France",
		"capital": "Paris",
		"motto":   "Liberté",
		"code":    "FR",
	})
}

func mustModel(t *testing.T, manager *translate.Manager, record translate.Record) *translate.Model {
	t.Helper()
	model, err := manager.Model(record)
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	return model
}

func mustGet(t *testing.T, model *translate.Model, name, code string) any {
	t.Helper()
	value, err := model.GetTranslated(context.Background(), name, code)
	if err != nil {
		t.Fatalf("get %s/%s: %v", name, code, err)
	}
	return value
}

func mustSet(t *testing.T, model *translate.Model, name string, value any, code string) {
	t.Helper()
	if err := model.SetTranslated(context.Background(), name, value, code); err != nil {
		t.Fatalf("set %s/%s: %v", name, code, err)
	}
}

func mustSave(t *testing.T, model *translate.Model) {
	t.Helper()
	if err := model.BeforeSave(context.Background()); err != nil {
		t.Fatalf("before save: %v", err)
	}
}

func storedBlob(t *testing.T, repo blobs.Repository, id, code string) map[string]any {
	t.Helper()
	doc, err := repo.Get(context.Background(), identity.NewModelKey("country", id), code)
	if err != nil {
		t.Fatalf("get blob %s/%s: %v", id, code, err)
	}
	return doc
}
