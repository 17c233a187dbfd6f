package bridge

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
)

// dialTest connects a fake extension to the server.
func dialTest(t *testing.T, srv *Server) (*websocket.Conn, context.Context) {
	t.Helper()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })

	// Give the server a moment to register the connection.
	time.Sleep(50 * time.Millisecond)
	return conn, ctx
}

func TestEventsReachMessagesChannel(t *testing.T) {
	srv := New(0)
	conn, ctx := dialTest(t, srv)

	ev := IncomingMsg{Type: "tab.removed", TabID: 42}
	data, _ := json.Marshal(ev)
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case msg := <-srv.Messages():
		if msg.Type != "tab.removed" || msg.TabID != 42 {
			t.Errorf("got %+v, want tab.removed/42", msg)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestCallRoundTrip(t *testing.T) {
	srv := New(0)
	conn, ctx := dialTest(t, srv)

	// Fake extension: answer the first command with ok + a tab.
	go func() {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var cmd OutgoingMsg
		json.Unmarshal(data, &cmd)
		ok := true
		resp, _ := json.Marshal(map[string]any{
			"id": cmd.ID,
			"ok": ok,
			"tab": map[string]any{
				"id":       7,
				"url":      cmd.URL,
				"windowId": 1,
				"active":   true,
			},
		})
		conn.Write(ctx, websocket.MessageText, resp)
	}()

	tab, err := srv.CreateTab(ctx, "https://example.com/")
	if err != nil {
		t.Fatalf("CreateTab: %v", err)
	}
	if tab.ID != 7 || tab.URL != "https://example.com/" || !tab.Active {
		t.Errorf("got tab %+v", tab)
	}
}

func TestCallFailureResponse(t *testing.T) {
	srv := New(0)
	conn, ctx := dialTest(t, srv)

	go func() {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var cmd OutgoingMsg
		json.Unmarshal(data, &cmd)
		notOK := false
		resp, _ := json.Marshal(IncomingMsg{ID: cmd.ID, OK: &notOK, Error: "tab was closed"})
		conn.Write(ctx, websocket.MessageText, resp)
	}()

	if err := srv.ActivateTab(ctx, 999); err == nil {
		t.Fatal("ActivateTab should surface the extension's error")
	} else if !strings.Contains(err.Error(), "tab was closed") {
		t.Errorf("error %q does not carry the extension message", err)
	}
}

func TestCallWithoutConnection(t *testing.T) {
	srv := New(0)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if _, err := srv.CreateTab(ctx, "https://example.com/"); err == nil {
		t.Fatal("Call without a connected extension should fail fast")
	}
}

func TestCallTimesOut(t *testing.T) {
	srv := New(0)
	dialTest(t, srv) // connected but never answers

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := srv.ActivateTab(ctx, 1); err == nil {
		t.Fatal("Call with a silent extension should time out")
	}
}

func TestParseTabs(t *testing.T) {
	raw := json.RawMessage(`[
		{"id": 1, "url": "https://a.test/", "title": "A", "windowId": 2, "lastAccessed": 1700000000000},
		{"id": 2, "url": "https://b.test/", "pinned": true}
	]`)

	tabs, err := ParseTabs(raw)
	if err != nil {
		t.Fatalf("ParseTabs: %v", err)
	}
	if len(tabs) != 2 {
		t.Fatalf("got %d tabs, want 2", len(tabs))
	}
	if tabs[0].WindowID != 2 || tabs[0].LastAccessed.IsZero() {
		t.Errorf("first tab %+v", tabs[0])
	}
	if !tabs[1].Pinned {
		t.Error("pinned not parsed")
	}

	if _, err := ParseTabs(json.RawMessage(`{"not":"an array"}`)); err == nil {
		t.Error("malformed tabs should error")
	}
}
