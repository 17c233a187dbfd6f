package session

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pierrec/lz4/v4"

	"github.com/SwajanJain/tabwise/internal/types"
)

// mozlz4 wraps data in Mozilla's mozlz4 framing.
func mozlz4(t *testing.T, original []byte) []byte {
	t.Helper()
	dst := make([]byte, lz4.CompressBlockBound(len(original)))
	n, err := lz4.CompressBlock(original, dst, nil)
	if err != nil {
		t.Fatalf("lz4.CompressBlock: %v", err)
	}

	payload := append([]byte{}, "mozLz40\x00"...)
	sizeBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(sizeBytes, uint32(len(original)))
	payload = append(payload, sizeBytes...)
	return append(payload, dst[:n]...)
}

func TestDecompressMozLz4(t *testing.T) {
	original := []byte(`{"windows":[{"tabs":[]}]}`)

	result, err := DecompressMozLz4(mozlz4(t, original))
	if err != nil {
		t.Fatalf("DecompressMozLz4: %v", err)
	}
	if string(result) != string(original) {
		t.Errorf("got %q, want %q", result, original)
	}

	if _, err := DecompressMozLz4([]byte("BADMAGIC\x00\x00\x00\x00data")); err == nil {
		t.Error("invalid magic should error")
	}
	if _, err := DecompressMozLz4([]byte("mozLz40")); err == nil {
		t.Error("truncated header should error")
	}
}

func TestParseSession(t *testing.T) {
	session := map[string]any{
		"windows": []map[string]any{
			{
				"tabs": []map[string]any{
					{
						"entries": []map[string]any{
							{"url": "https://example.com", "title": "Example"},
						},
						"index":        1,
						"lastAccessed": 1707654321000,
						"pinned":       true,
					},
					{
						// index points at the second entry: that is the
						// current page, not the first one.
						"entries": []map[string]any{
							{"url": "https://old.test", "title": "Old"},
							{"url": "https://current.test", "title": "Current"},
						},
						"index": 2,
					},
					{"entries": []map[string]any{}},
				},
			},
			{
				"tabs": []map[string]any{
					{
						"entries": []map[string]any{
							{"url": "https://second-window.test", "title": "W2"},
						},
						"index": 1,
					},
				},
			},
		},
	}

	data, err := json.Marshal(session)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	tabs, err := ParseSession(data)
	if err != nil {
		t.Fatalf("ParseSession: %v", err)
	}

	if len(tabs) != 3 {
		t.Fatalf("got %d tabs, want 3 (empty-entry tab skipped)", len(tabs))
	}
	if tabs[0].URL != "https://example.com" || !tabs[0].Pinned {
		t.Errorf("first tab %+v", tabs[0])
	}
	if tabs[0].LastAccessed.UnixMilli() != 1707654321000 {
		t.Errorf("lastAccessed = %v", tabs[0].LastAccessed)
	}
	if tabs[1].URL != "https://current.test" {
		t.Errorf("current entry not honored: %q", tabs[1].URL)
	}
	if tabs[2].WindowID != 1 {
		t.Errorf("second window index = %d, want 1", tabs[2].WindowID)
	}

	if _, err := ParseSession([]byte("not json")); err == nil {
		t.Error("malformed JSON should error")
	}
}

func TestReadSessionFile(t *testing.T) {
	profileDir := t.TempDir()
	backupDir := filepath.Join(profileDir, "sessionstore-backups")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		t.Fatal(err)
	}

	sessionJSON := []byte(`{"windows":[{"tabs":[{"entries":[{"url":"https://a.test/","title":"A"}],"index":1}]}]}`)
	if err := os.WriteFile(filepath.Join(backupDir, "recovery.jsonlz4"), mozlz4(t, sessionJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	tabs, err := ReadSessionFile(profileDir)
	if err != nil {
		t.Fatalf("ReadSessionFile: %v", err)
	}
	if len(tabs) != 1 || tabs[0].URL != "https://a.test/" {
		t.Errorf("got %+v", tabs)
	}

	if _, err := ReadSessionFile(t.TempDir()); err == nil {
		t.Error("missing session file should error")
	}
}

func TestParseProfilesINI(t *testing.T) {
	base := t.TempDir()

	// Two profiles on disk; only one has a session file.
	for _, name := range []string{"alpha", "beta"} {
		dir := filepath.Join(base, name, "sessionstore-backups")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(base, "alpha", "sessionstore-backups", "recovery.jsonlz4"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	ini := `[General]
StartWithLastProfile=1

[Profile0]
Name=alpha
IsRelative=1
Path=alpha
Default=1

[Profile1]
Name=beta
IsRelative=1
Path=beta
`
	iniPath := filepath.Join(base, "profiles.ini")
	if err := os.WriteFile(iniPath, []byte(ini), 0o644); err != nil {
		t.Fatal(err)
	}

	profiles, err := ParseProfilesINI(iniPath, base)
	if err != nil {
		t.Fatalf("ParseProfilesINI: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("got %d usable profiles, want 1", len(profiles))
	}
	p := profiles[0]
	if p.Name != "alpha" || !p.IsDefault || p.Path != filepath.Join(base, "alpha") {
		t.Errorf("profile %+v", p)
	}
}

func TestDefaultProfile(t *testing.T) {
	profiles := []types.Profile{
		{Name: "one"},
		{Name: "two", IsDefault: true},
	}

	p, err := DefaultProfile(profiles, "")
	if err != nil || p.Name != "two" {
		t.Errorf("got %+v, %v; want the default profile", p, err)
	}

	p, err = DefaultProfile(profiles, "one")
	if err != nil || p.Name != "one" {
		t.Errorf("got %+v, %v; want one", p, err)
	}

	if _, err := DefaultProfile(profiles, "missing"); err == nil {
		t.Error("unknown profile name should error")
	}
	if _, err := DefaultProfile(nil, ""); err == nil {
		t.Error("empty profile list should error")
	}
}
