package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/SwajanJain/tabwise/internal/store"
	"github.com/SwajanJain/tabwise/internal/types"
)

// wsRow is one visible line: a workspace header or an item under an
// expanded workspace.
type wsRow struct {
	ws   *types.Workspace
	item *types.Item
}

type WorkspacesView struct {
	workspaces []*types.Workspace
	expanded   map[string]bool
	cursor     int
	offset     int
}

func (v *WorkspacesView) SetWorkspaces(ws []*types.Workspace) {
	v.workspaces = ws
	if v.expanded == nil {
		v.expanded = make(map[string]bool)
	}
	rows := v.rows()
	if v.cursor >= len(rows) {
		v.cursor = len(rows) - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
}

func (v WorkspacesView) rows() []wsRow {
	var rows []wsRow
	for _, ws := range v.workspaces {
		rows = append(rows, wsRow{ws: ws})
		if v.expanded[ws.ID] {
			for _, item := range ws.Items {
				rows = append(rows, wsRow{ws: ws, item: item})
			}
		}
	}
	return rows
}

func (v WorkspacesView) current() (wsRow, bool) {
	rows := v.rows()
	if v.cursor < 0 || v.cursor >= len(rows) {
		return wsRow{}, false
	}
	return rows[v.cursor], true
}

func (v WorkspacesView) HandleKey(m Model, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := v.rows()
	switch msg.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(rows)-1 {
			v.cursor++
		}
	case "enter":
		row, ok := v.current()
		if !ok {
			break
		}
		if row.item != nil {
			m.wsView = v
			return m, m.doSwitch(row.item, types.Modifiers{})
		}
		v.expanded[row.ws.ID] = !v.expanded[row.ws.ID]
	case "n":
		if row, ok := v.current(); ok && row.item != nil {
			m.wsView = v
			return m, m.doSwitch(row.item, types.Modifiers{ForceNew: true})
		}
	case "o":
		if row, ok := v.current(); ok {
			m.wsView = v
			return m, m.openWorkspace(row.ws)
		}
	case "d":
		if row, ok := v.current(); ok && row.item == nil {
			m.wsView = v
			return m, deleteWorkspace(m, row.ws)
		}
	}
	m.wsView = v
	return m, nil
}

// openWorkspace switches to every item in turn, so already-open tabs
// are focused rather than duplicated. The last item keeps focus.
func (m Model) openWorkspace(ws *types.Workspace) tea.Cmd {
	sw := m.switcher
	items := ws.Items
	return func() tea.Msg {
		opened := 0
		for _, item := range items {
			ctx, cancel := context.WithTimeout(context.Background(), switchTimeout)
			_, err := sw.Switch(ctx, item, types.Modifiers{})
			cancel()
			if err != nil {
				return statusMsg(fmt.Sprintf("opened %d/%d, then: %v", opened, len(items), err))
			}
			opened++
		}
		return statusMsg(fmt.Sprintf("opened %s (%d tabs)", ws.Name, opened))
	}
}

func deleteWorkspace(m Model, ws *types.Workspace) tea.Cmd {
	db := m.db
	return tea.Sequence(
		func() tea.Msg {
			if err := store.DeleteWorkspace(db, ws.ID); err != nil {
				return statusMsg("delete failed: " + err.Error())
			}
			return statusMsg("deleted " + ws.Name)
		},
		m.loadData(),
	)
}

func (v WorkspacesView) View(m Model, width, height int) string {
	rows := v.rows()
	if len(rows) == 0 {
		return dimStyle.Render("  no workspaces yet — press c to capture the open tabs")
	}

	visible := height
	if visible < 1 {
		visible = 1
	}
	if v.cursor < v.offset {
		v.offset = v.cursor
	}
	if v.cursor >= v.offset+visible {
		v.offset = v.cursor - visible + 1
	}

	var b strings.Builder
	end := v.offset + visible
	if end > len(rows) {
		end = len(rows)
	}
	for i := v.offset; i < end; i++ {
		row := rows[i]
		var line string
		if row.item == nil {
			marker := "▸"
			if v.expanded[row.ws.ID] {
				marker = "▾"
			}
			line = fmt.Sprintf(" %s %s (%d)", marker, row.ws.Name, len(row.ws.Items))
		} else {
			line = fmt.Sprintf("   %s %s", m.indicator(row.item), itemLabel(row.item))
		}
		line = truncate(line, width-2)
		if i == v.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
