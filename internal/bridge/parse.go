package bridge

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/SwajanJain/tabwise/internal/types"
)

// wireTab is the tab shape the extension sends, mirroring the browser's
// tabs API fields.
type wireTab struct {
	ID           int    `json:"id"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	WindowID     int    `json:"windowId"`
	Active       bool   `json:"active"`
	Pinned       bool   `json:"pinned"`
	LastAccessed int64  `json:"lastAccessed"`
	FavIconURL   string `json:"favIconUrl"`
}

func (wt wireTab) toTab() types.Tab {
	return types.Tab{
		ID:           wt.ID,
		URL:          wt.URL,
		Title:        wt.Title,
		WindowID:     wt.WindowID,
		Active:       wt.Active,
		Pinned:       wt.Pinned,
		LastAccessed: time.UnixMilli(wt.LastAccessed),
		FavIconURL:   wt.FavIconURL,
	}
}

// ParseTab converts a raw JSON tab into a Tab.
func ParseTab(raw json.RawMessage) (types.Tab, error) {
	var wt wireTab
	if err := json.Unmarshal(raw, &wt); err != nil {
		return types.Tab{}, fmt.Errorf("parse tab: %w", err)
	}
	return wt.toTab(), nil
}

// ParseTabs converts a raw JSON tab array into Tabs.
func ParseTabs(raw json.RawMessage) ([]types.Tab, error) {
	var wts []wireTab
	if err := json.Unmarshal(raw, &wts); err != nil {
		return nil, fmt.Errorf("parse tabs: %w", err)
	}
	tabs := make([]types.Tab, 0, len(wts))
	for _, wt := range wts {
		tabs = append(tabs, wt.toTab())
	}
	return tabs, nil
}
