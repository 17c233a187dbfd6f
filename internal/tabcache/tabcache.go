// Package tabcache keeps an in-memory index of the browser's open tabs,
// fed by the lifecycle events the extension streams over the bridge.
// It answers "which tabs exist right now" without a round trip to the
// browser on every switch decision.
//
// The cache never owns a tab. A Get miss means the binding that pointed
// here is stale; callers must treat it as "recompute", never as an error.
package tabcache

import (
	"sync"

	"github.com/SwajanJain/tabwise/internal/types"
)

// Cache is the process-wide tab index. All mutation goes through the
// methods below; the map is never handed out.
type Cache struct {
	mu           sync.RWMutex
	tabs         map[int]types.Tab
	activeWindow int
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{tabs: make(map[int]types.Tab)}
}

// Add inserts a tab. Idempotent: an existing entry with the same ID is
// overwritten.
func (c *Cache) Add(tab types.Tab) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tabs[tab.ID] = tab
	if tab.Active && tab.WindowID != 0 {
		c.activeWindow = tab.WindowID
	}
}

// Update stores the full current snapshot of a tab. The whole snapshot is
// kept, not a partial diff — switch decisions always want the latest URL
// and active state, not just the fields that changed this event.
func (c *Cache) Update(id int, tab types.Tab) {
	tab.ID = id
	c.Add(tab)
}

// Remove deletes a tab entry. Removing an unknown ID is not an error;
// the browser can close tabs the cache never observed.
func (c *Cache) Remove(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tabs, id)
}

// Get returns the tab snapshot for an ID. ok is false when the tab is
// not in the cache, which callers must read as "any binding to this tab
// is stale".
func (c *Cache) Get(id int) (types.Tab, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tab, ok := c.tabs[id]
	return tab, ok
}

// All returns a snapshot of every cached tab. Iteration order is
// arbitrary; callers must not rely on it.
func (c *Cache) All() []types.Tab {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.Tab, 0, len(c.tabs))
	for _, t := range c.tabs {
		out = append(out, t)
	}
	return out
}

// Len returns the number of cached tabs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tabs)
}

// Replace swaps the whole index for a fresh snapshot, used when the
// extension (re)connects and sends the full tab list.
func (c *Cache) Replace(tabs []types.Tab) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tabs = make(map[int]types.Tab, len(tabs))
	for _, t := range tabs {
		c.tabs[t.ID] = t
		if t.Active && t.WindowID != 0 {
			c.activeWindow = t.WindowID
		}
	}
}

// ActiveWindow returns the window ID of the most recently active tab,
// or 0 when unknown.
func (c *Cache) ActiveWindow() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.activeWindow
}
