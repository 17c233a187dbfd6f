package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/SwajanJain/tabwise/internal/grouping"
	"github.com/SwajanJain/tabwise/internal/store"
	"github.com/SwajanJain/tabwise/internal/types"
)

// tabRow is one visible line: a domain header or a tab under it.
type tabRow struct {
	domain string
	count  int
	tab    *types.Tab
}

type TabsView struct {
	cursor int
	offset int
}

func tabRows(m Model) []tabRow {
	var rows []tabRow
	for _, g := range grouping.ByDomain(m.cache.All()) {
		rows = append(rows, tabRow{domain: g.Domain, count: len(g.Tabs)})
		for i := range g.Tabs {
			rows = append(rows, tabRow{tab: &g.Tabs[i]})
		}
	}
	return rows
}

func (v TabsView) HandleKey(m Model, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := tabRows(m)
	if v.cursor >= len(rows) {
		v.cursor = len(rows) - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}

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
		if row, ok := currentRow(rows, v.cursor); ok && row.tab != nil {
			m.tabsView = v
			return m, m.focusTab(*row.tab)
		}
	case "f":
		if row, ok := currentRow(rows, v.cursor); ok && row.tab != nil {
			m.tabsView = v
			return m, addFavoriteFromTab(m, *row.tab)
		}
	case "x":
		if row, ok := currentRow(rows, v.cursor); ok && row.tab != nil {
			m.tabsView = v
			return m, m.closeTab(row.tab.ID)
		}
	}
	m.tabsView = v
	return m, nil
}

func currentRow(rows []tabRow, cursor int) (tabRow, bool) {
	if cursor < 0 || cursor >= len(rows) {
		return tabRow{}, false
	}
	return rows[cursor], true
}

func (m Model) focusTab(tab types.Tab) tea.Cmd {
	srv, cache := m.server, m.cache
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), switchTimeout)
		defer cancel()
		if err := srv.ActivateTab(ctx, tab.ID); err != nil {
			cache.Remove(tab.ID)
			return statusMsg("focus failed: " + err.Error())
		}
		if tab.WindowID != 0 && tab.WindowID != cache.ActiveWindow() {
			if err := srv.FocusWindow(ctx, tab.WindowID); err != nil {
				return statusMsg("window raise failed: " + err.Error())
			}
		}
		return statusMsg("focused " + tabLabel(tab))
	}
}

func (m Model) closeTab(tabID int) tea.Cmd {
	srv := m.server
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), switchTimeout)
		defer cancel()
		if err := srv.CloseTabs(ctx, []int{tabID}); err != nil {
			return statusMsg("close failed: " + err.Error())
		}
		return statusMsg("closed tab")
	}
}

func addFavoriteFromTab(m Model, tab types.Tab) tea.Cmd {
	db := m.db
	return tea.Sequence(
		func() tea.Msg {
			if !grouping.Capturable(tab.URL) {
				return statusMsg("not a favoritable URL")
			}
			if _, err := store.AddFavorite(db, tab.URL, tab.Title); err != nil {
				return statusMsg("add failed: " + err.Error())
			}
			return statusMsg("favorited " + tabLabel(tab))
		},
		m.loadData(),
	)
}

func tabLabel(tab types.Tab) string {
	if tab.Title != "" {
		return tab.Title
	}
	return tab.URL
}

func (v TabsView) View(m Model, width, height int) string {
	rows := tabRows(m)
	if len(rows) == 0 {
		if m.server.Connected() {
			return dimStyle.Render("  no tabs reported yet")
		}
		return dimStyle.Render("  waiting for the browser extension to connect…")
	}

	visible := height
	if visible < 1 {
		visible = 1
	}
	if v.cursor >= len(rows) {
		v.cursor = len(rows) - 1
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
		if row.tab == nil {
			line = fmt.Sprintf(" %s (%d)", row.domain, row.count)
		} else {
			active := " "
			if row.tab.Active {
				active = "»"
			}
			line = fmt.Sprintf("   %s %s", active, tabLabel(*row.tab))
		}
		line = truncate(line, width-2)
		switch {
		case i == v.cursor:
			line = selectedStyle.Render(line)
		case row.tab == nil:
			line = titleStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
