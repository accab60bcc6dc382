package overlay

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestEnsureLoadsOnce(t *testing.T) {
	store := NewStore()
	calls := 0
	loader := func(_ context.Context, locale string) (map[string]any, error) {
		calls++
		return map[string]any{"name": "La France"}, nil
	}

	for i := 0; i < 3; i++ {
		if err := store.Ensure(context.Background(), "fr", loader); err != nil {
			t.Fatalf("Ensure() error = %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected loader to run once, ran %d times", calls)
	}
	if got, _ := store.Get("fr", "name"); got != "La France" {
		t.Fatalf("unexpected overlay value %v", got)
	}
	snapshot, ok := store.Snapshot("fr")
	if !ok || snapshot["name"] != "La France" {
		t.Fatalf("expected snapshot to mirror loaded data, got %v", snapshot)
	}
	if store.State("fr") != StateClean {
		t.Fatalf("expected clean state, got %s", store.State("fr"))
	}
}

func TestEnsurePropagatesLoaderErrors(t *testing.T) {
	store := NewStore()
	boom := errors.New("boom")
	err := store.Ensure(context.Background(), "fr", func(context.Context, string) (map[string]any, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if store.Loaded("fr") {
		t.Fatal("failed load must leave locale unloaded")
	}
}

func TestDirtyTracksChangesAgainstSnapshot(t *testing.T) {
	store := NewStore()
	store.Prime("fr", map[string]any{"name": "La France", "code": "FR"})

	if store.IsDirty("fr", "") {
		t.Fatal("freshly primed overlay must be clean")
	}

	store.Set("fr", "name", "République française")
	store.Set("fr", "address.city", "Paris")

	want := map[string]any{
		"name":    "République française",
		"address": map[string]any{"city": "Paris"},
	}
	if got := store.Dirty("fr"); !reflect.DeepEqual(got, want) {
		t.Fatalf("Dirty() = %v, want %v", got, want)
	}
	if !store.IsDirty("fr", "address[city]") || store.IsDirty("fr", "code") {
		t.Fatal("unexpected attribute level dirty state")
	}

	store.Commit("fr")
	if store.IsDirty("fr", "") {
		t.Fatal("expected commit to refresh the snapshot")
	}
}

func TestSetWithoutSnapshotMarksEverythingDirty(t *testing.T) {
	store := NewStore()
	store.Set("de", "name", "Frankreich")

	if _, ok := store.Snapshot("de"); ok {
		t.Fatal("expected no snapshot for an unloaded overlay")
	}
	if got := store.Dirty("de"); got["name"] != "Frankreich" {
		t.Fatalf("expected name to be dirty, got %v", got)
	}
}

func TestLocalesKeepFirstAccessOrder(t *testing.T) {
	store := NewStore()
	store.Set("fr", "name", "a")
	store.Prime("de", nil)
	store.Set("es", "name", "b")
	store.Set("fr", "name", "c")

	if got := store.Locales(); !reflect.DeepEqual(got, []string{"fr", "de", "es"}) {
		t.Fatalf("Locales() = %v", got)
	}

	store.Reset()
	if len(store.Locales()) != 0 || store.Loaded("fr") {
		t.Fatal("expected reset to discard overlays")
	}
}

func TestMapReturnsCopy(t *testing.T) {
	store := NewStore()
	store.Set("fr", "address.city", "Paris")

	copied := store.Map("fr")
	copied["address"].(map[string]any)["city"] = "Lyon"

	if got, _ := store.Get("fr", "address.city"); got != "Paris" {
		t.Fatalf("expected overlay to be isolated from copies, got %v", got)
	}
}
