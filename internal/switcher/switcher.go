// Package switcher decides what a sidebar click does: focus the tab the
// item is bound to, focus an open tab on the same domain, or open a new
// one. Exactly one of the three happens per click, and the click always
// leaves the user looking at a tab.
//
// There is one real race here: a tab can close between the moment its
// binding is read and the moment the focus command lands. No locking
// can prevent it (the browser is the other party), so every step heals
// instead — a dead binding or failed focus is treated as a cache miss
// and the decision is recomputed, ending in tab creation as the
// guaranteed fallback.
package switcher

import (
	"context"
	"time"

	"github.com/SwajanJain/tabwise/internal/applog"
	"github.com/SwajanJain/tabwise/internal/tabcache"
	"github.com/SwajanJain/tabwise/internal/types"
	"github.com/SwajanJain/tabwise/internal/urlmatch"
)

// Host is the slice of the browser API the switcher drives.
type Host interface {
	CreateTab(ctx context.Context, url string) (types.Tab, error)
	ActivateTab(ctx context.Context, tabID int) error
	FocusWindow(ctx context.Context, windowID int) error
}

// Bindings persists the item→tab association.
type Bindings interface {
	Set(itemID string, tabID int) error
	Clear(itemID string) error
}

// Switcher executes switch decisions against a host browser.
type Switcher struct {
	host     Host
	cache    *tabcache.Cache
	bindings Bindings
}

// New returns a Switcher over the given host, tab cache and binding
// store.
func New(host Host, cache *tabcache.Cache, bindings Bindings) *Switcher {
	return &Switcher{host: host, cache: cache, bindings: bindings}
}

// Switch resolves a click on item. Decision order, first match wins:
//
//  1. forceNew: create a fresh tab, ignoring bindings and open tabs.
//  2. live binding: focus the bound tab, binding untouched.
//     A dead or unfocusable binding is cleared and falls through.
//  3. fallback: focus the first cached tab on the item's domain, else
//     create a new tab. Either way the item is rebound.
//
// The returned error is non-nil only when tab creation itself failed;
// callers log it, nothing more — it must never crash a click handler.
func (s *Switcher) Switch(ctx context.Context, item *types.Item, mods types.Modifiers) (types.SwitchResult, error) {
	if mods.ForceNew {
		return s.create(ctx, item, types.ActionCreatedForced)
	}

	if item.Bound() {
		tab, ok := s.cache.Get(item.BoundTabID)
		if ok {
			err := s.focus(ctx, tab)
			if err == nil {
				return types.SwitchResult{Action: types.ActionFocusedBound, TabID: tab.ID}, nil
			}
			// The tab closed between the cache read and the focus
			// command. Same as a cache miss: drop it and recompute.
			applog.Error("switch.focus-bound", err, "item", item.ID, "tab", tab.ID)
			s.cache.Remove(tab.ID)
		}
		s.clearBinding(item)
	}

	// Fallback search: any open tab on the item's domain. Cache
	// iteration order is arbitrary and the tie-break is deliberately
	// left that way.
	for _, tab := range s.cache.All() {
		if !urlmatch.Matches(tab.URL, item.URL) {
			continue
		}
		if err := s.focus(ctx, tab); err != nil {
			applog.Error("switch.focus-found", err, "item", item.ID, "tab", tab.ID)
			break
		}
		s.bind(item, tab.ID)
		return types.SwitchResult{Action: types.ActionFocusedFound, TabID: tab.ID}, nil
	}

	return s.create(ctx, item, types.ActionCreatedNew)
}

// focus activates a tab and, when it lives in a window other than the
// currently focused one, brings that window to the front. A failed
// window raise is logged but does not fail the focus — the tab is
// already active.
func (s *Switcher) focus(ctx context.Context, tab types.Tab) error {
	if err := s.host.ActivateTab(ctx, tab.ID); err != nil {
		return err
	}
	if tab.WindowID != 0 && tab.WindowID != s.cache.ActiveWindow() {
		if err := s.host.FocusWindow(ctx, tab.WindowID); err != nil {
			applog.Error("switch.focus-window", err, "window", tab.WindowID)
		}
	}
	return nil
}

// create opens a new tab at the item's URL and binds the item to it.
func (s *Switcher) create(ctx context.Context, item *types.Item, action types.SwitchAction) (types.SwitchResult, error) {
	tab, err := s.host.CreateTab(ctx, item.URL)
	if err != nil {
		applog.Error("switch.create", err, "item", item.ID, "url", item.URL)
		return types.SwitchResult{}, err
	}
	s.cache.Add(tab)
	s.bind(item, tab.ID)
	return types.SwitchResult{Action: action, TabID: tab.ID}, nil
}

// bind persists the new binding and mirrors it on the in-memory item.
// A persistence failure is logged but does not undo the switch — the
// user already got their tab.
func (s *Switcher) bind(item *types.Item, tabID int) {
	if err := s.bindings.Set(item.ID, tabID); err != nil {
		applog.Error("switch.bind", err, "item", item.ID, "tab", tabID)
		return
	}
	item.BoundTabID = tabID
	item.BoundAt = time.Now()
}

func (s *Switcher) clearBinding(item *types.Item) {
	if err := s.bindings.Clear(item.ID); err != nil {
		applog.Error("switch.clear-binding", err, "item", item.ID)
	}
	item.BoundTabID = 0
	item.BoundAt = time.Time{}
}
