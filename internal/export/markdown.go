package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/SwajanJain/tabwise/internal/types"
)

// Markdown formats favorites and workspaces as a markdown document.
func Markdown(favorites []*types.Item, workspaces []*types.Workspace) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Tabwise\n")
	fmt.Fprintf(&b, "> Exported %s\n", time.Now().Format("2006-01-02 15:04"))

	fmt.Fprintf(&b, "\n## Favorites (%d)\n\n", len(favorites))
	for _, item := range favorites {
		writeItem(&b, item)
	}

	for _, ws := range workspaces {
		n := len(ws.Items)
		noun := "items"
		if n == 1 {
			noun = "item"
		}
		fmt.Fprintf(&b, "\n## %s (%d %s)\n\n", ws.Name, n, noun)
		for _, item := range ws.Items {
			writeItem(&b, item)
		}
	}

	return b.String()
}

func writeItem(b *strings.Builder, item *types.Item) {
	title := item.Title
	if title == "" {
		title = item.URL
	}
	if item.Bound() {
		fmt.Fprintf(b, "- [%s](%s) — open, last used %s\n", title, item.URL, relativeTime(item.BoundAt))
	} else {
		fmt.Fprintf(b, "- [%s](%s)\n", title, item.URL)
	}
}

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
