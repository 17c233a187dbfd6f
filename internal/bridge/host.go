package bridge

import (
	"context"
	"fmt"

	"github.com/SwajanJain/tabwise/internal/types"
)

// The methods below are the browser tab/window surface the switcher
// drives, implemented as bridge commands. Each one waits for the
// extension's response, so failures (tab gone, permission revoked)
// surface as ordinary errors.

// CreateTab asks the browser to open url and returns the created tab.
func (s *Server) CreateTab(ctx context.Context, url string) (types.Tab, error) {
	resp, err := s.Call(ctx, OutgoingMsg{Action: "create-tab", URL: url})
	if err != nil {
		return types.Tab{}, err
	}
	if len(resp.Tab) == 0 {
		return types.Tab{}, fmt.Errorf("create-tab: no tab in response")
	}
	return ParseTab(resp.Tab)
}

// ActivateTab makes an existing tab the active tab in its window.
func (s *Server) ActivateTab(ctx context.Context, tabID int) error {
	_, err := s.Call(ctx, OutgoingMsg{Action: "activate-tab", TabID: tabID})
	return err
}

// FocusWindow brings a browser window to the front.
func (s *Server) FocusWindow(ctx context.Context, windowID int) error {
	_, err := s.Call(ctx, OutgoingMsg{Action: "focus-window", WindowID: windowID})
	return err
}

// CloseTabs closes the given tabs.
func (s *Server) CloseTabs(ctx context.Context, tabIDs []int) error {
	_, err := s.Call(ctx, OutgoingMsg{Action: "close-tabs", TabIDs: tabIDs})
	return err
}

// QueryTabs returns the browser's current open tabs.
func (s *Server) QueryTabs(ctx context.Context) ([]types.Tab, error) {
	resp, err := s.Call(ctx, OutgoingMsg{Action: "query-tabs"})
	if err != nil {
		return nil, err
	}
	return ParseTabs(resp.Tabs)
}
