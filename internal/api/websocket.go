package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	tberr "github.com/amterp/taskboard/internal/errors"
	"github.com/amterp/taskboard/internal/model"
	"github.com/amterp/taskboard/internal/session"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// Message types sent to clients.
const (
	MessageConnected    = "connected"
	MessageBoardChanged = "board_changed"
	MessageSession      = "session"
	MessageDropRejected = "drop_rejected"
	MessageError        = "error"
)

// WebSocketHub manages WebSocket connections. Each client drives its own
// drag session; board changes are broadcast to everyone.
type WebSocketHub struct {
	mu      sync.RWMutex
	clients map[*WebSocketClient]bool
	board   session.Board
	log     logrus.FieldLogger
}

// WebSocketClient represents a connected WebSocket client.
type WebSocketClient struct {
	hub     *WebSocketHub
	conn    *websocket.Conn
	send    chan []byte
	session *session.Session
}

// WebSocketMessage is the JSON message sent to clients.
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// DropRejection explains why a drop did nothing.
type DropRejection struct {
	Reason string          `json:"reason"`
	Source *session.Anchor `json:"source,omitempty"`
	Target *session.Anchor `json:"target,omitempty"`
}

// NewWebSocketHub creates a hub whose clients drag items on board.
func NewWebSocketHub(board session.Board, log logrus.FieldLogger) *WebSocketHub {
	return &WebSocketHub{
		clients: make(map[*WebSocketClient]bool),
		board:   board,
		log:     log,
	}
}

// BoardChanged implements store.BoardSubscriber.
func (h *WebSocketHub) BoardChanged(board model.Board) {
	data, err := encodeMessage(MessageBoardChanged, toBoardResponse(board))
	if err != nil {
		h.log.WithError(err).Error("Failed to marshal board")
		return
	}
	h.broadcast(data)
}

func encodeMessage(msgType string, payload any) ([]byte, error) {
	return json.Marshal(WebSocketMessage{Type: msgType, Data: payload})
}

// broadcast sends a message to all connected clients.
func (h *WebSocketHub) broadcast(data []byte) {
	h.mu.RLock()
	clients := make([]*WebSocketClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.trySend(client, data)
	}
}

// trySend attempts to send data to a client, handling the case where
// the client's channel was closed between snapshot and send.
func (h *WebSocketHub) trySend(client *WebSocketClient, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed by removeClient - client already cleaned up
		}
	}()

	select {
	case client.send <- data:
	default:
		// Client buffer full, close it
		h.removeClient(client)
	}
}

func (h *WebSocketHub) addClient(client *WebSocketClient) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
}

func (h *WebSocketHub) removeClient(client *WebSocketClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
}

func (h *WebSocketHub) newClient(conn *websocket.Conn) *WebSocketClient {
	return &WebSocketClient{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, 256),
		session: session.New(h.board),
	}
}

// ServeWS handles WebSocket connection requests.
func (h *WebSocketHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := h.newClient(conn)
	h.addClient(client)

	// Send initial connection message before the pumps start so it's first
	welcome, err := encodeMessage(MessageConnected, map[string]interface{}{
		"message": "Drag sync enabled",
	})
	if err == nil {
		client.send <- welcome
	}

	go client.writePump()
	go client.readPump()
}

// handle applies one client message to the client's session and replies
// with the resulting session state.
func (c *WebSocketClient) handle(ctx context.Context, raw []byte) {
	var ev session.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		c.reply(MessageError, map[string]string{"error": "invalid message: " + err.Error()})
		return
	}

	result, err := c.session.Apply(ctx, ev)
	if err != nil {
		if tberr.IsInvalidDropTarget(err) {
			rejection := DropRejection{Reason: err.Error()}
			if result.Source.List != "" {
				src := result.Source
				rejection.Source = &src
			}
			if result.Target.List != "" {
				dst := result.Target
				rejection.Target = &dst
			}
			c.reply(MessageDropRejected, rejection)
		} else {
			c.reply(MessageError, map[string]string{"error": err.Error()})
		}
		c.hub.log.WithError(err).WithField("event", ev.Type).Debug("Drag event had no effect")
	}

	c.reply(MessageSession, c.session.View())
}

func (c *WebSocketClient) reply(msgType string, payload any) {
	data, err := encodeMessage(msgType, payload)
	if err != nil {
		c.hub.log.WithError(err).Error("Failed to marshal message")
		return
	}
	c.hub.trySend(c, data)
}

// readPump reads drag events from the connection. It is the only goroutine
// touching the client's session.
func (c *WebSocketClient) readPump() {
	defer func() {
		// Only call removeClient here - closing send channel signals writePump to exit
		// writePump is responsible for closing the connection
		c.hub.removeClient(c)
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).Warn("WebSocket read error")
			}
			break
		}
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		c.handle(context.Background(), message)
	}
}

// writePump writes messages to the WebSocket connection.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(30 * time.Second) // Ping interval
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// Send each message as its own WebSocket frame (not batched)
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Send any queued messages as separate frames
			n := len(c.send)
			for i := 0; i < n; i++ {
				queuedMsg := <-c.send
				if err := c.conn.WriteMessage(websocket.TextMessage, queuedMsg); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
