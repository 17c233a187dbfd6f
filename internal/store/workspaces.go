package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/SwajanJain/tabwise/internal/types"
)

// CreateWorkspace inserts a new empty workspace. The name must be unique.
func CreateWorkspace(db *sql.DB, name, color string) (*types.Workspace, error) {
	ws := &types.Workspace{
		ID:    uuid.New().String(),
		Name:  name,
		Color: color,
	}
	_, err := db.Exec(
		"INSERT INTO workspaces (id, name, color) VALUES (?, ?, ?)",
		ws.ID, ws.Name, ws.Color,
	)
	if err != nil {
		return nil, fmt.Errorf("insert workspace %q: %w", name, err)
	}
	return ws, nil
}

// ListWorkspaces returns all workspaces ordered by creation time, each
// with its items loaded in position order.
func ListWorkspaces(db *sql.DB) ([]*types.Workspace, error) {
	rows, err := db.Query(
		"SELECT id, name, color, created_at FROM workspaces ORDER BY created_at, id",
	)
	if err != nil {
		return nil, fmt.Errorf("query workspaces: %w", err)
	}
	defer rows.Close()

	var result []*types.Workspace
	for rows.Next() {
		ws := &types.Workspace{}
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.Color, &ws.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		result = append(result, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workspaces: %w", err)
	}

	for _, ws := range result {
		if ws.Items, err = listWorkspaceItems(db, ws.ID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// GetWorkspaceByName loads a single workspace and its items.
func GetWorkspaceByName(db *sql.DB, name string) (*types.Workspace, error) {
	ws := &types.Workspace{}
	err := db.QueryRow(
		"SELECT id, name, color, created_at FROM workspaces WHERE name = ?", name,
	).Scan(&ws.ID, &ws.Name, &ws.Color, &ws.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("workspace %q not found", name)
		}
		return nil, fmt.Errorf("query workspace: %w", err)
	}
	if ws.Items, err = listWorkspaceItems(db, ws.ID); err != nil {
		return nil, err
	}
	return ws, nil
}

func listWorkspaceItems(db *sql.DB, workspaceID string) ([]*types.Item, error) {
	rows, err := db.Query(
		"SELECT id, url, title, position, bound_tab_id, bound_at FROM workspace_items WHERE workspace_id = ? ORDER BY position",
		workspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("query workspace items: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, fmt.Errorf("scan workspace items: %w", err)
	}
	return items, nil
}

// DeleteWorkspace removes a workspace by ID. Items are cascade-deleted.
func DeleteWorkspace(db *sql.DB, id string) error {
	res, err := db.Exec("DELETE FROM workspaces WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete workspace: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("workspace %q not found", id)
	}
	return nil
}

// RenameWorkspace changes a workspace's name.
func RenameWorkspace(db *sql.DB, id, name string) error {
	res, err := db.Exec("UPDATE workspaces SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return fmt.Errorf("rename workspace: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("workspace %q not found", id)
	}
	return nil
}

// AddWorkspaceItem appends an item to a workspace and returns it with
// its assigned ID and position.
func AddWorkspaceItem(db *sql.DB, workspaceID, url, title string) (*types.Item, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var pos int
	err = tx.QueryRow(
		"SELECT COALESCE(MAX(position), 0) + 1 FROM workspace_items WHERE workspace_id = ?",
		workspaceID,
	).Scan(&pos)
	if err != nil {
		return nil, fmt.Errorf("compute next position: %w", err)
	}

	item := &types.Item{
		ID:       uuid.New().String(),
		URL:      url,
		Title:    title,
		Position: pos,
	}

	_, err = tx.Exec(
		"INSERT INTO workspace_items (id, workspace_id, url, title, position) VALUES (?, ?, ?, ?, ?)",
		item.ID, workspaceID, item.URL, item.Title, item.Position,
	)
	if err != nil {
		return nil, fmt.Errorf("insert workspace item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return item, nil
}

// RemoveWorkspaceItem deletes a single item from whichever workspace
// holds it.
func RemoveWorkspaceItem(db *sql.DB, itemID string) error {
	res, err := db.Exec("DELETE FROM workspace_items WHERE id = ?", itemID)
	if err != nil {
		return fmt.Errorf("delete workspace item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("workspace item %q not found", itemID)
	}
	return nil
}
