package binding

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/SwajanJain/tabwise/internal/store"
	"github.com/SwajanJain/tabwise/internal/types"
)

func testStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	db, err := store.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), db
}

func addFavorite(t *testing.T, db *sql.DB, url string) *types.Item {
	t.Helper()
	item, err := store.AddFavorite(db, url, "")
	if err != nil {
		t.Fatalf("AddFavorite: %v", err)
	}
	return item
}

func TestSetGetClear(t *testing.T) {
	s, db := testStore(t)
	item := addFavorite(t, db, "https://example.com/")

	if got, err := s.Get(item.ID); err != nil || got != 0 {
		t.Fatalf("fresh item: Get = %d, %v; want 0, nil", got, err)
	}

	if err := s.Set(item.ID, 41); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, _ := s.Get(item.ID); got != 41 {
		t.Errorf("Get = %d, want 41", got)
	}

	// The timestamp must be stamped alongside the tab ID and cleared
	// with it.
	favs, _ := store.ListFavorites(db)
	if favs[0].BoundAt.IsZero() {
		t.Error("bound_at not set by Set")
	}

	if err := s.Clear(item.ID); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got, _ := s.Get(item.ID); got != 0 {
		t.Errorf("Get after Clear = %d, want 0", got)
	}
	favs, _ = store.ListFavorites(db)
	if !favs[0].BoundAt.IsZero() {
		t.Error("bound_at survived Clear")
	}
}

func TestSetUnknownItem(t *testing.T) {
	s, _ := testStore(t)
	if err := s.Set("no-such-item", 7); err == nil {
		t.Error("Set on unknown item should fail")
	}
}

func TestWorkspaceItemBindings(t *testing.T) {
	s, db := testStore(t)

	ws, err := store.CreateWorkspace(db, "work", "")
	if err != nil {
		t.Fatalf("CreateWorkspace: %v", err)
	}
	item, err := store.AddWorkspaceItem(db, ws.ID, "https://jira.example.com/", "")
	if err != nil {
		t.Fatalf("AddWorkspaceItem: %v", err)
	}

	if err := s.Set(item.ID, 9); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, _ := s.Get(item.ID); got != 9 {
		t.Errorf("Get = %d, want 9", got)
	}
}

func TestInvalidateTabClearsEverywhere(t *testing.T) {
	s, db := testStore(t)

	fav := addFavorite(t, db, "https://example.com/")
	other := addFavorite(t, db, "https://other.example.com/")
	ws, _ := store.CreateWorkspace(db, "work", "")
	wsItem, _ := store.AddWorkspaceItem(db, ws.ID, "https://example.com/x", "")

	s.Set(fav.ID, 5)
	s.Set(wsItem.ID, 5)
	s.Set(other.ID, 6)

	if err := s.InvalidateTab(5); err != nil {
		t.Fatalf("InvalidateTab: %v", err)
	}

	if got, _ := s.Get(fav.ID); got != 0 {
		t.Errorf("favorite binding survived: %d", got)
	}
	if got, _ := s.Get(wsItem.ID); got != 0 {
		t.Errorf("workspace item binding survived: %d", got)
	}
	if got, _ := s.Get(other.ID); got != 6 {
		t.Errorf("unrelated binding touched: %d, want 6", got)
	}

	// Invalidating a tab nothing is bound to is fine.
	if err := s.InvalidateTab(999); err != nil {
		t.Errorf("InvalidateTab(999): %v", err)
	}
}

func TestRevalidateNavigatedKeepsBinding(t *testing.T) {
	s, db := testStore(t)
	item := addFavorite(t, db, "https://mail.google.com/mail/")

	s.Set(item.ID, 12)
	if err := s.RevalidateNavigated(12, "https://mail.google.com/mail/u/0/#inbox"); err != nil {
		t.Fatalf("RevalidateNavigated: %v", err)
	}
	if got, _ := s.Get(item.ID); got != 12 {
		t.Errorf("binding broke on in-site navigation: %d, want 12", got)
	}
}
