package capture

import (
	"fmt"
	"strings"

	"github.com/SwajanJain/tabwise/internal/grouping"
	"github.com/SwajanJain/tabwise/internal/types"
)

// DiffResult compares a workspace against the currently open tabs.
type DiffResult struct {
	Workspace string
	Open      []*types.Item // workspace items with an open tab
	Missing   []*types.Item // workspace items with no open tab
	Extra     []types.Tab   // open tabs not in the workspace
}

// Diff reports which workspace items are currently open, which are not,
// and which open tabs the workspace does not cover. Comparison is by
// normalized URL.
func Diff(ws *types.Workspace, open []types.Tab) *DiffResult {
	openURLs := make(map[string]bool, len(open))
	for _, tab := range open {
		if grouping.Capturable(tab.URL) {
			openURLs[grouping.Normalize(tab.URL)] = true
		}
	}

	result := &DiffResult{Workspace: ws.Name}

	wsURLs := make(map[string]bool, len(ws.Items))
	for _, item := range ws.Items {
		key := grouping.Normalize(item.URL)
		wsURLs[key] = true
		if openURLs[key] {
			result.Open = append(result.Open, item)
		} else {
			result.Missing = append(result.Missing, item)
		}
	}

	for _, tab := range open {
		if !grouping.Capturable(tab.URL) {
			continue
		}
		if !wsURLs[grouping.Normalize(tab.URL)] {
			result.Extra = append(result.Extra, tab)
		}
	}

	return result
}

// FormatDiff returns a human-readable rendering of a DiffResult.
func FormatDiff(d *DiffResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Workspace %q vs open tabs\n", d.Workspace)
	fmt.Fprintf(&sb, "Open: %d  Missing: %d  Extra: %d\n", len(d.Open), len(d.Missing), len(d.Extra))

	if len(d.Missing) > 0 {
		sb.WriteString("\n- Not open:\n")
		for _, item := range d.Missing {
			fmt.Fprintf(&sb, "  - %s\n", item.URL)
		}
	}

	if len(d.Extra) > 0 {
		sb.WriteString("\n+ Open but not in workspace:\n")
		for _, tab := range d.Extra {
			fmt.Fprintf(&sb, "  + %s\n", tab.URL)
		}
	}

	if len(d.Missing) == 0 && len(d.Extra) == 0 {
		sb.WriteString("\nIn sync.\n")
	}

	return sb.String()
}
