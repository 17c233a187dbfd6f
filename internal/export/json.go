package export

import (
	"encoding/json"
	"time"

	"github.com/SwajanJain/tabwise/internal/types"
	"github.com/SwajanJain/tabwise/internal/urlmatch"
)

type jsonExport struct {
	ExportedAt time.Time       `json:"exported_at"`
	Favorites  []jsonItem      `json:"favorites"`
	Workspaces []jsonWorkspace `json:"workspaces"`
}

type jsonWorkspace struct {
	Name  string     `json:"name"`
	Color string     `json:"color,omitempty"`
	Items []jsonItem `json:"items"`
}

type jsonItem struct {
	Title   string     `json:"title"`
	URL     string     `json:"url"`
	Domain  string     `json:"domain"`
	Bound   bool       `json:"bound,omitempty"`
	BoundAt *time.Time `json:"bound_at,omitempty"`
}

// JSON formats favorites and workspaces as a JSON document.
func JSON(favorites []*types.Item, workspaces []*types.Workspace) (string, error) {
	out := jsonExport{
		ExportedAt: time.Now(),
		Favorites:  toJSONItems(favorites),
		Workspaces: make([]jsonWorkspace, 0, len(workspaces)),
	}

	for _, ws := range workspaces {
		out.Workspaces = append(out.Workspaces, jsonWorkspace{
			Name:  ws.Name,
			Color: ws.Color,
			Items: toJSONItems(ws.Items),
		})
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

func toJSONItems(items []*types.Item) []jsonItem {
	out := make([]jsonItem, 0, len(items))
	for _, item := range items {
		ji := jsonItem{
			Title: item.Title,
			URL:   item.URL,
			Bound: item.Bound(),
		}
		if host, ok := urlmatch.Hostname(item.URL); ok {
			ji.Domain = host
		}
		if item.Bound() {
			at := item.BoundAt
			ji.BoundAt = &at
		}
		out = append(out, ji)
	}
	return out
}
