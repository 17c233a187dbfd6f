// Package binding persists the item→tab association: which open tab a
// favorite or workspace item last focused. A binding is the
// bound_tab_id/bound_at pair on the item row; this package is the only
// place that writes or clears it, so every rule about when a binding
// breaks lives here.
//
// A binding must never outlive its tab. InvalidateTab runs on every
// tab-removed event; the switcher's liveness check covers the window
// where a click lands between the close and the invalidation.
package binding

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/SwajanJain/tabwise/internal/applog"
)

// itemTables are the two tables that carry bindings. Item IDs are
// unique across both, so writes simply hit both.
var itemTables = []string{"favorites", "workspace_items"}

// Store reads and writes bindings.
type Store struct {
	db *sql.DB
}

// New returns a binding store over an open database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Set binds an item to a tab, stamping the binding time.
func (s *Store) Set(itemID string, tabID int) error {
	return s.write(itemID, tabID, time.Now())
}

// Clear removes an item's binding, nulling both the tab ID and the
// timestamp.
func (s *Store) Clear(itemID string) error {
	return s.write(itemID, 0, time.Time{})
}

func (s *Store) write(itemID string, tabID int, at time.Time) error {
	var tabVal, atVal any
	if tabID != 0 {
		tabVal = tabID
		atVal = at
	}

	updated := false
	for _, table := range itemTables {
		res, err := s.db.Exec(
			"UPDATE "+table+" SET bound_tab_id = ?, bound_at = ? WHERE id = ?",
			tabVal, atVal, itemID,
		)
		if err != nil {
			return fmt.Errorf("update %s binding: %w", table, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			updated = true
		}
	}
	if !updated {
		return fmt.Errorf("item %q not found", itemID)
	}
	return nil
}

// Get returns the tab ID an item is bound to, or 0 when unbound or the
// item does not exist.
func (s *Store) Get(itemID string) (int, error) {
	for _, table := range itemTables {
		var tabID sql.NullInt64
		err := s.db.QueryRow(
			"SELECT bound_tab_id FROM "+table+" WHERE id = ?", itemID,
		).Scan(&tabID)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("query %s binding: %w", table, err)
		}
		return int(tabID.Int64), nil
	}
	return 0, nil
}

// InvalidateTab clears every binding that points at a closed tab, across
// favorites and all workspaces. Called on each tab-removed event; it is
// never skipped, even when no item is bound to the tab.
func (s *Store) InvalidateTab(tabID int) error {
	if tabID == 0 {
		return nil
	}
	cleared := 0
	for _, table := range itemTables {
		res, err := s.db.Exec(
			"UPDATE "+table+" SET bound_tab_id = NULL, bound_at = NULL WHERE bound_tab_id = ?",
			tabID,
		)
		if err != nil {
			return fmt.Errorf("invalidate %s bindings: %w", table, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			cleared += int(n)
		}
	}
	if cleared > 0 {
		applog.Info("binding.invalidated", "tab", tabID, "items", cleared)
	}
	return nil
}

// RevalidateNavigated is the hook for a bound tab navigating to a new
// URL. Bindings deliberately survive in-site navigation (that is the
// whole point of domain-level matching), so today this does nothing;
// any future rule that breaks bindings on navigation belongs here, not
// in the event handlers.
func (s *Store) RevalidateNavigated(tabID int, newURL string) error {
	return nil
}
