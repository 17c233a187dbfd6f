package capture

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/SwajanJain/tabwise/internal/store"
	"github.com/SwajanJain/tabwise/internal/types"
)

func TestCapture(t *testing.T) {
	db, err := store.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	defer db.Close()

	tabs := []types.Tab{
		{URL: "https://example.com/a", Title: "A"},
		{URL: "about:blank"},
		{URL: "https://example.com/a#dup", Title: "A again"},
		{URL: "https://go.dev/doc/", Title: "Go docs"},
	}

	ws, err := Capture(db, "session", tabs)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if len(ws.Items) != 2 {
		t.Fatalf("captured %d items, want 2 (chrome and duplicates dropped)", len(ws.Items))
	}
	if ws.Items[0].URL != "https://example.com/a" || ws.Items[1].URL != "https://go.dev/doc/" {
		t.Errorf("items %+v", ws.Items)
	}

	// Round trip through the store.
	loaded, err := store.GetWorkspaceByName(db, "session")
	if err != nil {
		t.Fatalf("GetWorkspaceByName: %v", err)
	}
	if len(loaded.Items) != 2 {
		t.Errorf("persisted %d items, want 2", len(loaded.Items))
	}

	if _, err := Capture(db, "empty", []types.Tab{{URL: "about:config"}}); err == nil {
		t.Error("capturing only chrome tabs should fail")
	}
}

func TestCaptureDefaultName(t *testing.T) {
	db, err := store.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	defer db.Close()

	ws, err := Capture(db, "", []types.Tab{{URL: "https://example.com/"}})
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if !strings.HasPrefix(ws.Name, "capture ") {
		t.Errorf("default name %q", ws.Name)
	}
}

func TestDiff(t *testing.T) {
	ws := &types.Workspace{
		Name: "work",
		Items: []*types.Item{
			{URL: "https://example.com/a"},
			{URL: "https://example.com/b"},
		},
	}
	open := []types.Tab{
		{URL: "https://example.com/a#frag"}, // same after normalization
		{URL: "https://stray.test/"},
		{URL: "about:blank"}, // ignored
	}

	d := Diff(ws, open)
	if len(d.Open) != 1 || d.Open[0].URL != "https://example.com/a" {
		t.Errorf("Open %+v", d.Open)
	}
	if len(d.Missing) != 1 || d.Missing[0].URL != "https://example.com/b" {
		t.Errorf("Missing %+v", d.Missing)
	}
	if len(d.Extra) != 1 || d.Extra[0].URL != "https://stray.test/" {
		t.Errorf("Extra %+v", d.Extra)
	}

	out := FormatDiff(d)
	if !strings.Contains(out, "Not open") || !strings.Contains(out, "https://example.com/b") {
		t.Errorf("FormatDiff output:\n%s", out)
	}
}
