// Package bridge is the WebSocket endpoint the browser extension
// connects to. The extension streams tab lifecycle events (snapshot,
// tab.created, tab.removed, tab.updated) and sidebar click requests;
// the service sends tab commands (create, activate, focus-window,
// close, query) and waits for the matching response by command ID.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"nhooyr.io/websocket"

	"github.com/SwajanJain/tabwise/internal/applog"
)

// IncomingMsg is a message from the extension to the service.
type IncomingMsg struct {
	Type  string          `json:"type"`
	Tab   json.RawMessage `json:"tab,omitempty"`
	Tabs  json.RawMessage `json:"tabs,omitempty"`
	TabID int             `json:"tabId,omitempty"`

	// Sidebar switch request fields
	ItemID   string `json:"itemId,omitempty"`
	ForceNew bool   `json:"forceNew,omitempty"`

	// Command response fields
	ID    string `json:"id,omitempty"`
	OK    *bool  `json:"ok,omitempty"`
	Error string `json:"error,omitempty"`
}

// OutgoingMsg is a command or reply from the service to the extension.
type OutgoingMsg struct {
	ID       string `json:"id"`
	Action   string `json:"action"`
	URL      string `json:"url,omitempty"`
	TabID    int    `json:"tabId,omitempty"`
	TabIDs   []int  `json:"tabIds,omitempty"`
	WindowID int    `json:"windowId,omitempty"`

	// Switch reply fields
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Server manages the WebSocket connection to the extension. One
// extension at a time; a new connection replaces the old one.
type Server struct {
	port    int
	msgs    chan IncomingMsg
	counter atomic.Int64

	mu      sync.Mutex
	conn    *websocket.Conn
	connCtx context.Context
	pending map[string]chan IncomingMsg
}

// New creates a new Server. Port 0 means the caller manages the listener.
func New(port int) *Server {
	return &Server{
		port:    port,
		msgs:    make(chan IncomingMsg, 64),
		pending: make(map[string]chan IncomingMsg),
	}
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// Messages returns the channel of events and requests from the
// extension. Command responses are routed to their Call and do not
// appear here.
func (s *Server) Messages() <-chan IncomingMsg {
	return s.msgs
}

// Connected reports whether an extension is connected.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

func (s *Server) nextID() string {
	return fmt.Sprintf("cmd-%d", s.counter.Add(1))
}

// Send sends a message to the connected extension, assigning a command
// ID if the caller did not set one. Sending without a connection is a
// silent no-op, matching the "extension may not be there" model.
func (s *Server) Send(msg OutgoingMsg) error {
	if msg.ID == "" {
		msg.ID = s.nextID()
	}

	s.mu.Lock()
	conn := s.conn
	ctx := s.connCtx
	s.mu.Unlock()

	if conn == nil {
		return nil
	}

	applog.Info("bridge.send", "action", msg.Action, "id", msg.ID)
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

// Call sends a command and blocks until the extension's response with
// the same ID arrives or ctx expires. No connected extension is an
// error here, unlike Send: the caller needs the answer.
func (s *Server) Call(ctx context.Context, msg OutgoingMsg) (IncomingMsg, error) {
	s.mu.Lock()
	if s.conn == nil {
		s.mu.Unlock()
		return IncomingMsg{}, fmt.Errorf("no extension connected")
	}
	msg.ID = s.nextID()
	ch := make(chan IncomingMsg, 1)
	s.pending[msg.ID] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, msg.ID)
		s.mu.Unlock()
	}()

	if err := s.Send(msg); err != nil {
		return IncomingMsg{}, fmt.Errorf("send %s: %w", msg.Action, err)
	}

	select {
	case resp := <-ch:
		if resp.OK != nil && !*resp.OK {
			return resp, fmt.Errorf("%s failed: %s", msg.Action, resp.Error)
		}
		return resp, nil
	case <-ctx.Done():
		return IncomingMsg{}, fmt.Errorf("%s: %w", msg.Action, ctx.Err())
	}
}

// dispatch routes a parsed message either to a waiting Call or to the
// events channel. Events are dropped rather than blocking the read
// loop when the consumer is behind.
func (s *Server) dispatch(msg IncomingMsg) {
	if msg.Type == "" && msg.ID != "" {
		s.mu.Lock()
		ch, ok := s.pending[msg.ID]
		s.mu.Unlock()
		if ok {
			ch <- msg
			return
		}
		applog.Info("bridge.orphan-response", "id", msg.ID)
		return
	}

	select {
	case s.msgs <- msg:
	default:
	}
}

// Handler returns an http.Handler that accepts WebSocket upgrades.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			applog.Error("bridge.accept", err)
			return
		}

		conn.SetReadLimit(16 << 20) // full-session snapshots can be large

		ctx := r.Context()
		s.mu.Lock()
		if s.conn != nil {
			applog.Info("bridge.replaced")
			s.conn.CloseNow()
		}
		s.conn = conn
		s.connCtx = ctx
		s.mu.Unlock()

		applog.Info("bridge.connected", "remote", r.RemoteAddr)

		defer func() {
			s.mu.Lock()
			if s.conn == conn {
				s.conn = nil
				s.connCtx = nil
			}
			s.mu.Unlock()
			conn.CloseNow()
			applog.Info("bridge.disconnected")
		}()

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var msg IncomingMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				applog.Error("bridge.parse", err)
				continue
			}
			applog.Info("bridge.recv", "type", msg.Type, "id", msg.ID)
			s.dispatch(msg)
		}
	})
}

// ListenAndServe starts the WebSocket server on the configured port.
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/", s.Handler())

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	applog.Info("bridge.start", "addr", addr)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	return srv.ListenAndServe()
}
