package types

import "time"

// Tab mirrors a single open browser tab. The browser owns the tab; the
// service only tracks a snapshot of it, keyed by the browser-assigned ID.
type Tab struct {
	ID           int
	URL          string
	Title        string
	WindowID     int
	Active       bool
	Pinned       bool
	FavIconURL   string
	LastAccessed time.Time
}

// Item is a favorite or a workspace entry: a stable pointer to a target
// URL plus the binding to the tab it last focused.
//
// BoundTabID is a weak reference: the browser can close the tab at any
// moment, so the ID must be re-checked against the live tab cache on
// every use. 0 means unbound. BoundAt is zero whenever BoundTabID is 0.
type Item struct {
	ID         string // assigned once, never reused
	URL        string
	Title      string
	Position   int
	BoundTabID int
	BoundAt    time.Time
}

// Bound reports whether the item currently carries a tab binding.
func (it *Item) Bound() bool {
	return it.BoundTabID != 0
}

// Workspace is a named, ordered collection of items.
type Workspace struct {
	ID        string
	Name      string
	Color     string
	CreatedAt time.Time
	Items     []*Item
}

// Modifiers carries the input state of the click that triggered a switch.
type Modifiers struct {
	// ForceNew bypasses bindings and matching and always opens a fresh tab
	// (Shift+Click in the sidebar).
	ForceNew bool
}

// SwitchAction identifies which of the switcher's outcomes happened.
type SwitchAction string

const (
	// ActionFocusedBound: the item's bound tab was still open and got focused.
	ActionFocusedBound SwitchAction = "focused-bound"
	// ActionFocusedFound: no live binding, but an open tab matched the
	// item's domain and got focused.
	ActionFocusedFound SwitchAction = "focused-found"
	// ActionCreatedNew: nothing matched; a new tab was created.
	ActionCreatedNew SwitchAction = "created-new"
	// ActionCreatedForced: force-new was requested; a new tab was created
	// without consulting bindings or open tabs.
	ActionCreatedForced SwitchAction = "created-forced"
)

// SwitchResult is what a switch resolved to.
type SwitchResult struct {
	Action SwitchAction
	TabID  int
}

// Profile represents a Firefox profile, used for the offline session
// fallback when no extension is connected.
type Profile struct {
	Name       string
	Path       string // absolute path to profile directory
	IsDefault  bool
	IsRelative bool
}
