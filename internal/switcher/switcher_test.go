package switcher

import (
	"context"
	"fmt"
	"testing"

	"github.com/SwajanJain/tabwise/internal/tabcache"
	"github.com/SwajanJain/tabwise/internal/types"
)

// fakeHost records commands and simulates the browser's tabs API.
type fakeHost struct {
	nextID      int
	created     []string // URLs in creation order
	activated   []int
	focusedWins []int
	activateErr map[int]error
	createErr   error
}

func newFakeHost() *fakeHost {
	return &fakeHost{nextID: 100, activateErr: make(map[int]error)}
}

func (h *fakeHost) CreateTab(ctx context.Context, url string) (types.Tab, error) {
	if h.createErr != nil {
		return types.Tab{}, h.createErr
	}
	h.nextID++
	h.created = append(h.created, url)
	return types.Tab{ID: h.nextID, URL: url, WindowID: 1, Active: true}, nil
}

func (h *fakeHost) ActivateTab(ctx context.Context, tabID int) error {
	if err := h.activateErr[tabID]; err != nil {
		return err
	}
	h.activated = append(h.activated, tabID)
	return nil
}

func (h *fakeHost) FocusWindow(ctx context.Context, windowID int) error {
	h.focusedWins = append(h.focusedWins, windowID)
	return nil
}

// fakeBindings is an in-memory binding store.
type fakeBindings struct {
	bound  map[string]int
	setErr error
}

func newFakeBindings() *fakeBindings {
	return &fakeBindings{bound: make(map[string]int)}
}

func (b *fakeBindings) Set(itemID string, tabID int) error {
	if b.setErr != nil {
		return b.setErr
	}
	b.bound[itemID] = tabID
	return nil
}

func (b *fakeBindings) Clear(itemID string) error {
	delete(b.bound, itemID)
	return nil
}

func fixture() (*Switcher, *fakeHost, *tabcache.Cache, *fakeBindings) {
	host := newFakeHost()
	cache := tabcache.New()
	bindings := newFakeBindings()
	return New(host, cache, bindings), host, cache, bindings
}

func item(url string) *types.Item {
	return &types.Item{ID: "item-1", URL: url}
}

func TestUnboundNoMatchCreates(t *testing.T) {
	s, host, _, bindings := fixture()
	it := item("https://mail.google.com/mail/")

	res, err := s.Switch(context.Background(), it, types.Modifiers{})
	if err != nil {
		t.Fatalf("Switch: %v", err)
	}
	if res.Action != types.ActionCreatedNew {
		t.Errorf("action = %s, want created-new", res.Action)
	}
	if len(host.created) != 1 || host.created[0] != it.URL {
		t.Errorf("created %v", host.created)
	}
	if it.BoundTabID != res.TabID || bindings.bound[it.ID] != res.TabID {
		t.Errorf("item not bound to new tab: item=%d store=%d res=%d",
			it.BoundTabID, bindings.bound[it.ID], res.TabID)
	}
	if it.BoundAt.IsZero() {
		t.Error("BoundAt not stamped")
	}
}

func TestUnboundDomainMatchFocuses(t *testing.T) {
	s, host, cache, bindings := fixture()
	cache.Add(types.Tab{ID: 7, URL: "https://mail.google.com/mail/u/0/#inbox", WindowID: 1})
	cache.Add(types.Tab{ID: 8, URL: "https://unrelated.test/", WindowID: 1, Active: true})
	it := item("https://mail.google.com/mail/")

	res, err := s.Switch(context.Background(), it, types.Modifiers{})
	if err != nil {
		t.Fatalf("Switch: %v", err)
	}
	if res.Action != types.ActionFocusedFound || res.TabID != 7 {
		t.Errorf("got %+v, want focused-found/7", res)
	}
	if len(host.created) != 0 {
		t.Errorf("created a tab despite a domain match: %v", host.created)
	}
	if bindings.bound[it.ID] != 7 {
		t.Errorf("binding = %d, want 7", bindings.bound[it.ID])
	}
}

func TestBoundRefocusIsIdempotent(t *testing.T) {
	s, host, cache, bindings := fixture()
	cache.Add(types.Tab{ID: 7, URL: "https://github.com/org/repo", WindowID: 1, Active: true})
	it := item("https://github.com/")
	it.BoundTabID = 7
	bindings.bound[it.ID] = 7

	for i := 0; i < 5; i++ {
		res, err := s.Switch(context.Background(), it, types.Modifiers{})
		if err != nil {
			t.Fatalf("Switch #%d: %v", i, err)
		}
		if res.Action != types.ActionFocusedBound || res.TabID != 7 {
			t.Fatalf("Switch #%d: got %+v, want focused-bound/7", i, res)
		}
		if it.BoundTabID != 7 {
			t.Fatalf("Switch #%d changed the binding to %d", i, it.BoundTabID)
		}
	}
	if len(host.created) != 0 {
		t.Errorf("refocus created tabs: %v", host.created)
	}
	if len(host.activated) != 5 {
		t.Errorf("activated %d times, want 5", len(host.activated))
	}
}

func TestBoundTabInOtherWindowRaisesIt(t *testing.T) {
	s, host, cache, _ := fixture()
	// Active tab is in window 1; the bound tab lives in window 2.
	cache.Add(types.Tab{ID: 1, URL: "https://x.test/", WindowID: 1, Active: true})
	cache.Add(types.Tab{ID: 7, URL: "https://github.com/", WindowID: 2})
	it := item("https://github.com/")
	it.BoundTabID = 7

	if _, err := s.Switch(context.Background(), it, types.Modifiers{}); err != nil {
		t.Fatalf("Switch: %v", err)
	}
	if len(host.focusedWins) != 1 || host.focusedWins[0] != 2 {
		t.Errorf("focused windows %v, want [2]", host.focusedWins)
	}
}

func TestClosedTabRecovery(t *testing.T) {
	s, _, cache, bindings := fixture()
	it := item("https://github.com/")
	it.BoundTabID = 7
	bindings.bound[it.ID] = 7
	// Tab 7 was closed; the cache no longer has it.

	res, err := s.Switch(context.Background(), it, types.Modifiers{})
	if err != nil {
		t.Fatalf("Switch: %v", err)
	}
	if res.Action == types.ActionFocusedBound {
		t.Fatal("focused a closed tab")
	}
	if res.Action != types.ActionCreatedNew {
		t.Errorf("action = %s, want created-new (empty cache)", res.Action)
	}
	if _, ok := cache.Get(res.TabID); !ok {
		t.Error("new binding does not refer to a live tab")
	}
	if it.BoundTabID != res.TabID {
		t.Errorf("item bound to %d, want %d", it.BoundTabID, res.TabID)
	}
}

func TestClosedTabRecoveryFindsMatch(t *testing.T) {
	s, host, cache, _ := fixture()
	cache.Add(types.Tab{ID: 9, URL: "https://github.com/other", WindowID: 1, Active: true})
	it := item("https://github.com/")
	it.BoundTabID = 7 // dead

	res, err := s.Switch(context.Background(), it, types.Modifiers{})
	if err != nil {
		t.Fatalf("Switch: %v", err)
	}
	if res.Action != types.ActionFocusedFound || res.TabID != 9 {
		t.Errorf("got %+v, want focused-found/9", res)
	}
	if len(host.created) != 0 {
		t.Errorf("created tabs: %v", host.created)
	}
}

func TestForceNewAlwaysDiverges(t *testing.T) {
	s, host, cache, _ := fixture()
	cache.Add(types.Tab{ID: 7, URL: "https://github.com/", WindowID: 1, Active: true})
	it := item("https://github.com/")
	it.BoundTabID = 7

	res, err := s.Switch(context.Background(), it, types.Modifiers{ForceNew: true})
	if err != nil {
		t.Fatalf("Switch: %v", err)
	}
	if res.Action != types.ActionCreatedForced {
		t.Errorf("action = %s, want created-forced", res.Action)
	}
	if res.TabID == 7 {
		t.Error("force-new returned the previously bound tab")
	}
	if it.BoundTabID != res.TabID {
		t.Errorf("binding did not move: %d", it.BoundTabID)
	}
	// The old tab is untouched: not activated, not closed.
	if len(host.activated) != 0 {
		t.Errorf("force-new activated tabs: %v", host.activated)
	}
	if _, ok := cache.Get(7); !ok {
		t.Error("old tab vanished from the cache")
	}
}

func TestFocusFailureHealsLikeCacheMiss(t *testing.T) {
	s, host, cache, bindings := fixture()
	cache.Add(types.Tab{ID: 7, URL: "https://github.com/", WindowID: 1})
	host.activateErr[7] = fmt.Errorf("no tab with id 7")
	it := item("https://github.com/")
	it.BoundTabID = 7
	bindings.bound[it.ID] = 7

	res, err := s.Switch(context.Background(), it, types.Modifiers{})
	if err != nil {
		t.Fatalf("Switch: %v", err)
	}
	if res.Action != types.ActionCreatedNew {
		t.Errorf("action = %s, want created-new after focus failure", res.Action)
	}
	if _, ok := cache.Get(7); ok {
		t.Error("unfocusable tab still cached")
	}
	if it.BoundTabID != res.TabID {
		t.Errorf("item bound to %d, want the fresh tab %d", it.BoundTabID, res.TabID)
	}
}

func TestFallbackFocusFailureCreates(t *testing.T) {
	s, host, cache, _ := fixture()
	cache.Add(types.Tab{ID: 9, URL: "https://github.com/x", WindowID: 1})
	host.activateErr[9] = fmt.Errorf("no tab with id 9")
	it := item("https://github.com/")

	res, err := s.Switch(context.Background(), it, types.Modifiers{})
	if err != nil {
		t.Fatalf("Switch: %v", err)
	}
	if res.Action != types.ActionCreatedNew {
		t.Errorf("action = %s, want created-new as last resort", res.Action)
	}
	if len(host.created) != 1 {
		t.Errorf("created %v", host.created)
	}
}

func TestMalformedItemURLNeverMatches(t *testing.T) {
	s, _, cache, _ := fixture()
	cache.Add(types.Tab{ID: 1, URL: "https://example.com/", WindowID: 1, Active: true})
	it := item("::garbage::")

	res, err := s.Switch(context.Background(), it, types.Modifiers{})
	if err != nil {
		t.Fatalf("Switch: %v", err)
	}
	if res.Action != types.ActionCreatedNew {
		t.Errorf("action = %s, want created-new for unparsable URL", res.Action)
	}
}

func TestCreateFailureReturnsError(t *testing.T) {
	s, host, _, bindings := fixture()
	host.createErr = fmt.Errorf("permission revoked")
	it := item("https://example.com/")

	if _, err := s.Switch(context.Background(), it, types.Modifiers{}); err == nil {
		t.Fatal("Switch should report the creation failure")
	}
	if len(bindings.bound) != 0 {
		t.Errorf("binding written despite failed create: %v", bindings.bound)
	}
}

func TestBindPersistFailureStillSwitches(t *testing.T) {
	s, _, _, bindings := fixture()
	bindings.setErr = fmt.Errorf("disk full")
	it := item("https://example.com/")

	res, err := s.Switch(context.Background(), it, types.Modifiers{})
	if err != nil {
		t.Fatalf("Switch: %v", err)
	}
	if res.Action != types.ActionCreatedNew {
		t.Errorf("action = %s", res.Action)
	}
	// The in-memory binding must not pretend persistence succeeded.
	if it.BoundTabID != 0 {
		t.Errorf("item claims binding %d after failed persist", it.BoundTabID)
	}
}
