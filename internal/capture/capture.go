// Package capture turns the browser's currently open tabs into a
// workspace: filter out browser chrome, drop duplicates, persist the
// rest as ordered workspace items.
package capture

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/SwajanJain/tabwise/internal/grouping"
	"github.com/SwajanJain/tabwise/internal/store"
	"github.com/SwajanJain/tabwise/internal/types"
)

// Capture saves the given tabs as a new workspace. An empty name gets a
// timestamped one. Tabs that are not capturable (about:, extension
// pages) or duplicate an earlier tab are skipped; capturing zero
// usable tabs is an error rather than an empty workspace.
func Capture(db *sql.DB, name string, tabs []types.Tab) (*types.Workspace, error) {
	var usable []types.Tab
	for _, tab := range tabs {
		if grouping.Capturable(tab.URL) {
			usable = append(usable, tab)
		}
	}
	usable = grouping.Dedupe(usable)

	if len(usable) == 0 {
		return nil, fmt.Errorf("no capturable tabs")
	}

	if name == "" {
		name = "capture " + time.Now().Format("2006-01-02 15:04")
	}

	ws, err := store.CreateWorkspace(db, name, "")
	if err != nil {
		return nil, err
	}

	for _, tab := range usable {
		item, err := store.AddWorkspaceItem(db, ws.ID, tab.URL, tab.Title)
		if err != nil {
			return nil, fmt.Errorf("capture tab %q: %w", tab.URL, err)
		}
		ws.Items = append(ws.Items, item)
	}

	return ws, nil
}
