package tui

import (
	"context"
	"database/sql"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/SwajanJain/tabwise/internal/applog"
	"github.com/SwajanJain/tabwise/internal/binding"
	"github.com/SwajanJain/tabwise/internal/bridge"
	"github.com/SwajanJain/tabwise/internal/capture"
	"github.com/SwajanJain/tabwise/internal/store"
	"github.com/SwajanJain/tabwise/internal/switcher"
	"github.com/SwajanJain/tabwise/internal/tabcache"
	"github.com/SwajanJain/tabwise/internal/types"
)

// switchTimeout bounds a single round trip to the extension.
const switchTimeout = 5 * time.Second

// --- Messages ---

type dataLoadedMsg struct {
	favorites  []*types.Item
	workspaces []*types.Workspace
	err        error
}

type bridgeEventMsg struct{}

type bridgeClosedMsg struct{}

// sidebarSwitchMsg is a click forwarded by the sidebar extension.
type sidebarSwitchMsg struct {
	requestID string
	itemID    string
	forceNew  bool
}

type switchDoneMsg struct {
	title string
	res   types.SwitchResult
	err   error
}

type statusMsg string

// --- Model ---

type Model struct {
	db       *sql.DB
	server   *bridge.Server
	cache    *tabcache.Cache
	bindings *binding.Store
	switcher *switcher.Switcher

	favorites  []*types.Item
	workspaces []*types.Workspace

	view      ViewType
	favView   FavoritesView
	wsView    WorkspacesView
	tabsView  TabsView
	status    string
	loading   bool
	err       error
	width     int
	height    int
}

func NewModel(db *sql.DB, srv *bridge.Server) Model {
	cache := tabcache.New()
	bindings := binding.New(db)
	return Model{
		db:       db,
		server:   srv,
		cache:    cache,
		bindings: bindings,
		switcher: switcher.New(srv, cache, bindings),
		loading:  true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		startBridge(m.server),
		m.listenBridge(),
		m.loadData(),
	)
}

func startBridge(srv *bridge.Server) tea.Cmd {
	return func() tea.Msg {
		srv.ListenAndServe(context.Background())
		return bridgeClosedMsg{}
	}
}

func (m Model) loadData() tea.Cmd {
	db := m.db
	return func() tea.Msg {
		favorites, err := store.ListFavorites(db)
		if err != nil {
			return dataLoadedMsg{err: err}
		}
		workspaces, err := store.ListWorkspaces(db)
		if err != nil {
			return dataLoadedMsg{err: err}
		}
		return dataLoadedMsg{favorites: favorites, workspaces: workspaces}
	}
}

// listenBridge consumes one extension message, applies it to the tab
// cache and bindings, and reports back for a re-render. Update re-arms
// it after every message.
func (m Model) listenBridge() tea.Cmd {
	srv, cache, bindings := m.server, m.cache, m.bindings
	return func() tea.Msg {
		for {
			msg, ok := <-srv.Messages()
			if !ok {
				return bridgeClosedMsg{}
			}
			switch msg.Type {
			case "snapshot":
				tabs, err := bridge.ParseTabs(msg.Tabs)
				if err != nil {
					applog.Error("tui.snapshot", err)
					continue
				}
				cache.Replace(tabs)
				return bridgeEventMsg{}
			case "tab.created":
				tab, err := bridge.ParseTab(msg.Tab)
				if err != nil {
					continue
				}
				cache.Add(tab)
				return bridgeEventMsg{}
			case "tab.removed":
				cache.Remove(msg.TabID)
				if err := bindings.InvalidateTab(msg.TabID); err != nil {
					applog.Error("tui.invalidate", err, "tab", msg.TabID)
				}
				return bridgeEventMsg{}
			case "tab.updated":
				tab, err := bridge.ParseTab(msg.Tab)
				if err != nil {
					continue
				}
				cache.Update(tab.ID, tab)
				if err := bindings.RevalidateNavigated(tab.ID, tab.URL); err != nil {
					applog.Error("tui.revalidate", err, "tab", tab.ID)
				}
				return bridgeEventMsg{}
			case "switch":
				return sidebarSwitchMsg{requestID: msg.ID, itemID: msg.ItemID, forceNew: msg.ForceNew}
			}
			// Unknown message type, keep listening.
		}
	}
}

// doSwitch runs the switcher for an item and reports the outcome.
func (m Model) doSwitch(item *types.Item, mods types.Modifiers) tea.Cmd {
	sw := m.switcher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), switchTimeout)
		defer cancel()
		res, err := sw.Switch(ctx, item, mods)
		return switchDoneMsg{title: itemLabel(item), res: res, err: err}
	}
}

// doSidebarSwitch resolves a sidebar click request: find the item, run
// the switch, reply to the extension with the result.
func (m Model) doSidebarSwitch(req sidebarSwitchMsg) tea.Cmd {
	sw, srv := m.switcher, m.server
	item := m.findItem(req.itemID)
	return func() tea.Msg {
		if item == nil {
			srv.Send(bridge.OutgoingMsg{ID: req.requestID, Action: "switch-result", Error: "unknown item"})
			return statusMsg("sidebar click for unknown item")
		}
		ctx, cancel := context.WithTimeout(context.Background(), switchTimeout)
		defer cancel()
		res, err := sw.Switch(ctx, item, types.Modifiers{ForceNew: req.forceNew})
		reply := bridge.OutgoingMsg{ID: req.requestID, Action: "switch-result"}
		if err != nil {
			reply.Error = err.Error()
		} else {
			reply.Result = string(res.Action)
			reply.TabID = res.TabID
		}
		srv.Send(reply)
		return switchDoneMsg{title: itemLabel(item), res: res, err: err}
	}
}

// findItem looks an item up by ID across favorites and workspaces.
func (m Model) findItem(id string) *types.Item {
	for _, item := range m.favorites {
		if item.ID == id {
			return item
		}
	}
	for _, ws := range m.workspaces {
		for _, item := range ws.Items {
			if item.ID == id {
				return item
			}
		}
	}
	return nil
}

func itemLabel(item *types.Item) string {
	if item.Title != "" {
		return item.Title
	}
	return item.URL
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.favorites = msg.favorites
		m.workspaces = msg.workspaces
		m.favView.SetItems(m.favorites)
		m.wsView.SetWorkspaces(m.workspaces)
		return m, nil

	case bridgeEventMsg:
		// Cache or bindings changed; reload so indicators are fresh.
		return m, tea.Batch(m.listenBridge(), m.loadData())

	case bridgeClosedMsg:
		m.status = "bridge closed"
		return m, nil

	case sidebarSwitchMsg:
		return m, tea.Batch(m.listenBridge(), m.doSidebarSwitch(msg))

	case switchDoneMsg:
		if msg.err != nil {
			m.status = "switch failed: " + msg.err.Error()
		} else {
			m.status = string(msg.res.Action) + ": " + msg.title
		}
		return m, m.loadData()

	case statusMsg:
		m.status = string(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "1":
		m.view = ViewFavorites
		return m, nil
	case "2":
		m.view = ViewWorkspaces
		return m, nil
	case "3":
		m.view = ViewTabs
		return m, nil
	case "tab":
		m.view = (m.view + 1) % 3
		return m, nil
	case "r":
		return m, m.loadData()
	case "c":
		return m, m.captureWorkspace()
	}

	switch m.view {
	case ViewFavorites:
		return m.favView.HandleKey(m, msg)
	case ViewWorkspaces:
		return m.wsView.HandleKey(m, msg)
	case ViewTabs:
		return m.tabsView.HandleKey(m, msg)
	}
	return m, nil
}

func (m Model) View() string {
	if m.loading {
		return "\n  loading…\n"
	}

	counts := [3]int{len(m.favorites), len(m.workspaces), m.cache.Len()}
	navbar := renderNavbar(m.view, counts, m.server.Connected(), m.width)

	bodyHeight := m.height - 3
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	var body string
	switch m.view {
	case ViewFavorites:
		body = m.favView.View(m, m.width, bodyHeight)
	case ViewWorkspaces:
		body = m.wsView.View(m, m.width, bodyHeight)
	case ViewTabs:
		body = m.tabsView.View(m, m.width, bodyHeight)
	}

	return navbar + "\n" + body + "\n" + m.statusLine()
}

func (m Model) statusLine() string {
	if m.err != nil {
		return dimStyle.Render(" error: " + m.err.Error())
	}
	help := helpForView(m.view)
	if m.status != "" {
		return " " + truncate(m.status, m.width-2) + dimStyle.Render("  "+help)
	}
	return dimStyle.Render(" " + help)
}

func helpForView(view ViewType) string {
	switch view {
	case ViewFavorites:
		return "enter switch · n new tab · J/K reorder · d delete · c capture · q quit"
	case ViewWorkspaces:
		return "enter expand/switch · o open all · n new tab · d delete · q quit"
	default:
		return "enter focus · f favorite · x close · c capture · q quit"
	}
}

// captureWorkspace saves the currently cached tabs as a new workspace.
func (m Model) captureWorkspace() tea.Cmd {
	db, cache := m.db, m.cache
	return func() tea.Msg {
		tabs := cache.All()
		ws, err := capture.Capture(db, "", tabs)
		if err != nil {
			return statusMsg("capture failed: " + err.Error())
		}
		return statusMsg("captured " + ws.Name)
	}
}
