package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amterp/taskboard/internal/kv"
	"github.com/amterp/taskboard/internal/logging"
	"github.com/amterp/taskboard/internal/session"
	"github.com/amterp/taskboard/internal/store"
	"github.com/amterp/taskboard/testutil"
	"github.com/gorilla/websocket"
)

func newTestHub(t *testing.T) (*WebSocketHub, *store.BoardStore) {
	t.Helper()
	s := store.New(kv.NewMemory(), store.WithLogger(logging.Discard()))
	s.Load(context.Background(), testutil.TestBoard())
	hub := NewWebSocketHub(s, logging.Discard())
	s.Subscribe(hub)
	return hub, s
}

func TestWebSocketHub_AddRemoveClient(t *testing.T) {
	hub, _ := newTestHub(t)

	client := &WebSocketClient{
		hub:  hub,
		send: make(chan []byte, 10),
	}

	hub.addClient(client)
	if hub.ClientCount() != 1 {
		t.Errorf("Expected 1 client, got %d", hub.ClientCount())
	}

	hub.removeClient(client)
	if hub.ClientCount() != 0 {
		t.Errorf("Expected 0 clients, got %d", hub.ClientCount())
	}
}

func TestWebSocketHub_RemoveClientIdempotent(t *testing.T) {
	hub, _ := newTestHub(t)

	client := &WebSocketClient{
		hub:  hub,
		send: make(chan []byte, 10),
	}

	hub.addClient(client)
	hub.removeClient(client)
	hub.removeClient(client) // Should not panic

	// Sending to a removed client must not panic either
	hub.trySend(client, []byte("late"))

	if hub.ClientCount() != 0 {
		t.Errorf("Expected 0 clients, got %d", hub.ClientCount())
	}
}

func TestWebSocketHub_BroadcastsBoardChanges(t *testing.T) {
	hub, s := newTestHub(t)

	client1 := &WebSocketClient{hub: hub, send: make(chan []byte, 10)}
	client2 := &WebSocketClient{hub: hub, send: make(chan []byte, 10)}
	hub.addClient(client1)
	hub.addClient(client2)

	if err := s.MoveAcrossLists(context.Background(), "todo", 0, "done", 0); err != nil {
		t.Fatalf("MoveAcrossLists failed: %v", err)
	}

	for i, client := range []*WebSocketClient{client1, client2} {
		select {
		case data := <-client.send:
			var msg struct {
				Type string        `json:"type"`
				Data BoardResponse `json:"data"`
			}
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("Client %d: failed to unmarshal: %v", i+1, err)
			}
			if msg.Type != MessageBoardChanged {
				t.Errorf("Client %d: type = %q", i+1, msg.Type)
			}
			if got := itemIDs(msg.Data.Lists[2]); len(got) != 1 || got[0] != "t1" {
				t.Errorf("Client %d: done = %v", i+1, got)
			}
		default:
			t.Errorf("Client %d did not receive the board", i+1)
		}
	}
}

func TestWebSocketHub_FullBufferDropsClient(t *testing.T) {
	hub, _ := newTestHub(t)

	client := &WebSocketClient{hub: hub, send: make(chan []byte)} // unbuffered, always full
	hub.addClient(client)

	hub.broadcast([]byte("hello"))

	if hub.ClientCount() != 0 {
		t.Error("Client with a full buffer should be removed")
	}
}

// wsMessage is a decoded server message with the payload left raw.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dialTestServer(t *testing.T, hub *WebSocketHub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until one of type want arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want string) wsMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("Waiting for %q: %v", want, err)
		}
		if msg.Type == want {
			return msg
		}
	}
}

func TestWebSocket_DragAndDrop(t *testing.T) {
	hub, s := newTestHub(t)
	conn := dialTestServer(t, hub)

	readUntil(t, conn, MessageConnected)

	events := []session.Event{
		{Type: session.EventDragStart, List: "todo", Index: 0},
		{Type: session.EventDragEnterItem, List: "in_progress", Index: 0},
		{Type: session.EventDragEnterContainer, List: "in_progress"},
	}
	for _, ev := range events {
		if err := conn.WriteJSON(ev); err != nil {
			t.Fatalf("WriteJSON failed: %v", err)
		}
		readUntil(t, conn, MessageSession)
	}

	if err := conn.WriteJSON(session.Event{Type: session.EventDrop}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	msg := readUntil(t, conn, MessageBoardChanged)

	var board BoardResponse
	if err := json.Unmarshal(msg.Data, &board); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got := itemIDs(board.Lists[1]); len(got) != 2 || got[0] != "t1" || got[1] != "t4" {
		t.Errorf("in_progress = %v, want [t1 t4]", got)
	}

	view := readUntil(t, conn, MessageSession)
	var sv session.View
	if err := json.Unmarshal(view.Data, &sv); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if sv.State != "idle" {
		t.Errorf("Session state after drop = %q", sv.State)
	}

	if n, _ := s.Len("todo"); n != 2 {
		t.Errorf("todo length = %d, want 2", n)
	}
}

func TestWebSocket_DropWithoutDragIsRejected(t *testing.T) {
	hub, s := newTestHub(t)
	conn := dialTestServer(t, hub)
	readUntil(t, conn, MessageConnected)

	if err := conn.WriteJSON(session.Event{Type: session.EventDrop}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	readUntil(t, conn, MessageDropRejected)

	if !s.Snapshot().Equal(testutil.TestBoard()) {
		t.Error("Board changed after a rejected drop")
	}
}

func TestWebSocket_InvalidMessage(t *testing.T) {
	hub, _ := newTestHub(t)
	conn := dialTestServer(t, hub)
	readUntil(t, conn, MessageConnected)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}
	readUntil(t, conn, MessageError)
}
