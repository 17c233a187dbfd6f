package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/SwajanJain/tabwise/internal/types"
)

// AddFavorite inserts a new favorite at the end of the list and returns
// it with its assigned ID and position filled in.
func AddFavorite(db *sql.DB, url, title string) (*types.Item, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var pos int
	if err := tx.QueryRow("SELECT COALESCE(MAX(position), 0) + 1 FROM favorites").Scan(&pos); err != nil {
		return nil, fmt.Errorf("compute next position: %w", err)
	}

	item := &types.Item{
		ID:       uuid.New().String(),
		URL:      url,
		Title:    title,
		Position: pos,
	}

	_, err = tx.Exec(
		"INSERT INTO favorites (id, url, title, position) VALUES (?, ?, ?, ?)",
		item.ID, item.URL, item.Title, item.Position,
	)
	if err != nil {
		return nil, fmt.Errorf("insert favorite: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return item, nil
}

// ListFavorites returns all favorites ordered by position.
func ListFavorites(db *sql.DB) ([]*types.Item, error) {
	rows, err := db.Query(
		"SELECT id, url, title, position, bound_tab_id, bound_at FROM favorites ORDER BY position",
	)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, fmt.Errorf("scan favorites: %w", err)
	}
	return items, nil
}

// RemoveFavorite deletes a favorite by ID. Returns an error if no such
// favorite exists.
func RemoveFavorite(db *sql.DB, id string) error {
	res, err := db.Exec("DELETE FROM favorites WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("favorite %q not found", id)
	}
	return nil
}

// RenameFavorite updates a favorite's display title.
func RenameFavorite(db *sql.DB, id, title string) error {
	res, err := db.Exec("UPDATE favorites SET title = ? WHERE id = ?", title, id)
	if err != nil {
		return fmt.Errorf("rename favorite: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("favorite %q not found", id)
	}
	return nil
}

// MoveFavorite moves a favorite to a new 1-based position, shifting the
// favorites in between.
func MoveFavorite(db *sql.DB, id string, newPos int) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var oldPos int
	if err := tx.QueryRow("SELECT position FROM favorites WHERE id = ?", id).Scan(&oldPos); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("favorite %q not found", id)
		}
		return fmt.Errorf("query position: %w", err)
	}

	if newPos == oldPos {
		return nil
	}
	if newPos < 1 {
		newPos = 1
	}

	if newPos < oldPos {
		_, err = tx.Exec(
			"UPDATE favorites SET position = position + 1 WHERE position >= ? AND position < ?",
			newPos, oldPos,
		)
	} else {
		_, err = tx.Exec(
			"UPDATE favorites SET position = position - 1 WHERE position > ? AND position <= ?",
			oldPos, newPos,
		)
	}
	if err != nil {
		return fmt.Errorf("shift positions: %w", err)
	}

	if _, err := tx.Exec("UPDATE favorites SET position = ? WHERE id = ?", newPos, id); err != nil {
		return fmt.Errorf("update position: %w", err)
	}

	return tx.Commit()
}

// scanItems reads item rows in the common column order:
// id, url, title, position, bound_tab_id, bound_at.
func scanItems(rows *sql.Rows) ([]*types.Item, error) {
	var items []*types.Item
	for rows.Next() {
		item := &types.Item{}
		var boundTab sql.NullInt64
		var boundAt sql.NullTime
		if err := rows.Scan(&item.ID, &item.URL, &item.Title, &item.Position, &boundTab, &boundAt); err != nil {
			return nil, err
		}
		if boundTab.Valid {
			item.BoundTabID = int(boundTab.Int64)
		}
		if boundAt.Valid {
			item.BoundAt = boundAt.Time
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
