package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/SwajanJain/tabwise/internal/store"
	"github.com/SwajanJain/tabwise/internal/types"
	"github.com/SwajanJain/tabwise/internal/urlmatch"
)

type FavoritesView struct {
	items  []*types.Item
	cursor int
	offset int
}

func (v *FavoritesView) SetItems(items []*types.Item) {
	v.items = items
	if v.cursor >= len(items) {
		v.cursor = len(items) - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
}

func (v FavoritesView) current() *types.Item {
	if v.cursor < 0 || v.cursor >= len(v.items) {
		return nil
	}
	return v.items[v.cursor]
}

func (v FavoritesView) HandleKey(m Model, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(v.items)-1 {
			v.cursor++
		}
	case "K":
		if item := v.current(); item != nil && v.cursor > 0 {
			m.favView = v
			return m, moveFavorite(m, item, item.Position-1)
		}
	case "J":
		if item := v.current(); item != nil && v.cursor < len(v.items)-1 {
			m.favView = v
			return m, moveFavorite(m, item, item.Position+1)
		}
	case "enter":
		if item := v.current(); item != nil {
			m.favView = v
			return m, m.doSwitch(item, types.Modifiers{})
		}
	case "n":
		if item := v.current(); item != nil {
			m.favView = v
			return m, m.doSwitch(item, types.Modifiers{ForceNew: true})
		}
	case "d":
		if item := v.current(); item != nil {
			m.favView = v
			return m, removeFavorite(m, item)
		}
	}
	m.favView = v
	return m, nil
}

func removeFavorite(m Model, item *types.Item) tea.Cmd {
	db := m.db
	return tea.Sequence(
		func() tea.Msg {
			if err := store.RemoveFavorite(db, item.ID); err != nil {
				return statusMsg("remove failed: " + err.Error())
			}
			return statusMsg("removed " + itemLabel(item))
		},
		m.loadData(),
	)
}

func moveFavorite(m Model, item *types.Item, pos int) tea.Cmd {
	db := m.db
	return tea.Sequence(
		func() tea.Msg {
			if err := store.MoveFavorite(db, item.ID, pos); err != nil {
				return statusMsg("move failed: " + err.Error())
			}
			return statusMsg("")
		},
		m.loadData(),
	)
}

// indicator reports how an item relates to the live tab set:
// "●" bound to an open tab, "○" a same-domain tab is open, " " nothing.
func (m Model) indicator(item *types.Item) string {
	if item.Bound() {
		if _, ok := m.cache.Get(item.BoundTabID); ok {
			return "●"
		}
	}
	for _, tab := range m.cache.All() {
		if urlmatch.Matches(tab.URL, item.URL) {
			return "○"
		}
	}
	return " "
}

func (v FavoritesView) View(m Model, width, height int) string {
	if len(v.items) == 0 {
		return dimStyle.Render("  no favorites yet — add one with: tabwise favorites add <url>")
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
	if end > len(v.items) {
		end = len(v.items)
	}
	for i := v.offset; i < end; i++ {
		item := v.items[i]
		line := fmt.Sprintf(" %s %s", m.indicator(item), itemLabel(item))
		if host, ok := urlmatch.Hostname(item.URL); ok && item.Title != "" {
			line += "  " + host
		}
		line = truncate(line, width-2)
		if i == v.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

var (
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
)

func truncate(s string, max int) string {
	if max < 4 {
		max = 4
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
