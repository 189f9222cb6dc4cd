package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abrezinsky/f1bet/internal/logger"
	"github.com/abrezinsky/f1bet/internal/models"
	"github.com/abrezinsky/f1bet/internal/session"
	"github.com/abrezinsky/f1bet/internal/theme"
)

// Message types pushed to browser tabs
const (
	TypeSession    = "session"
	TypeRaceStatus = "race_status"
)

// The zero CheckOrigin rejects handshakes whose Origin host differs from
// the request host
var upgrader = websocket.Upgrader{}

// SessionSource provides the current session
type SessionSource interface {
	Snapshot() session.Session
}

// Browsers identifies the browser that owns the session
type Browsers interface {
	Key(r *http.Request) string
	Matches(key string) bool
}

// SessionPayload is the body of a session message
type SessionPayload struct {
	User    *models.User `json:"user"`
	Loading bool         `json:"loading"`
	Theme   theme.Theme  `json:"theme"`
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	log        logger.Logger
	clients    map[*Client]bool
	broadcast  chan models.WSMessage
	updates    chan session.Session
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	sessions   SessionSource
	browsers   Browsers
	themes     theme.Memo
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan models.WSMessage
	key  string // browser key from the handshake
}

// New creates a new Hub instance with injected dependencies
func New(log logger.Logger, sessions SessionSource, browsers Browsers) *Hub {
	return &Hub{
		log:        log,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.WSMessage),
		updates:    make(chan session.Session),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		sessions:   sessions,
		browsers:   browsers,
	}
}

// Start begins the hub's main loop in a goroutine
func (h *Hub) Start() {
	go h.run()
}

// run handles client registration/unregistration and message broadcasting
func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.log.Debug("Client connected", "total_clients", len(h.clients))

			// new tabs start from the current session
			client.send <- h.sessionMessage(h.sessionFor(client, h.sessions.Snapshot()))

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			h.log.Debug("Client disconnected", "total_clients", len(h.clients))

		case message := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				h.deliver(client, message)
			}
			h.mutex.RUnlock()

		case s := <-h.updates:
			owned := h.sessionMessage(s)
			anonymous := h.sessionMessage(session.Session{})
			h.mutex.RLock()
			for client := range h.clients {
				if h.owns(client, s) {
					h.deliver(client, owned)
				} else {
					h.deliver(client, anonymous)
				}
			}
			h.mutex.RUnlock()
		}
	}
}

// deliver queues a message for one client. Callers must hold h.mutex.
func (h *Hub) deliver(client *Client, message models.WSMessage) {
	select {
	case client.send <- message:
	default:
		// Client's send channel is full, unregister
		go func(c *Client) {
			h.unregister <- c
		}(client)
	}
}

// owns reports whether client may see s. Sessions without a token hold no
// user, so every tab sees them.
func (h *Hub) owns(client *Client, s session.Session) bool {
	return s.Token == "" || h.browsers.Matches(client.key)
}

// sessionFor returns s as client's browser sees it
func (h *Hub) sessionFor(client *Client, s session.Session) session.Session {
	if h.owns(client, s) {
		return s
	}
	return session.Session{}
}

// ClientCount returns the number of connected tabs
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// BroadcastMessage sends a message to all connected clients
func (h *Hub) BroadcastMessage(msgType string, payload interface{}) {
	h.broadcast <- models.WSMessage{
		Type:    msgType,
		Payload: payload,
	}
}

// BroadcastSession pushes a session snapshot to the tabs of the browser
// that owns it; other tabs are told they are logged out. It is registered
// as a session store subscriber.
func (h *Hub) BroadcastSession(s session.Session) {
	h.updates <- s
}

// BroadcastRaceStatus announces a race whose prediction window changed
func (h *Hub) BroadcastRaceStatus(status models.RaceStatus) {
	h.BroadcastMessage(TypeRaceStatus, status)
}

func (h *Hub) sessionMessage(s session.Session) models.WSMessage {
	return models.WSMessage{
		Type: TypeSession,
		Payload: SessionPayload{
			User:    s.User,
			Loading: s.Loading,
			Theme:   session.ThemeFor(&h.themes, s),
		},
	}
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("WebSocket error", "error", err)
			}
			break
		}

		var msg models.WSMessage
		if err := json.Unmarshal(message, &msg); err == nil {
			c.hub.log.Debug("Received message", "type", msg.Type)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
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

			msgBytes, err := json.Marshal(message)
			if err != nil {
				c.hub.log.Error("Failed to encode message", "type", message.Type, "error", err)
				continue
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			if _, err := w.Write(msgBytes); err != nil {
				c.hub.log.Debug("WebSocket write failed", "error", err)
				w.Close()
				return
			}
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs handles websocket requests from clients
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("WebSocket upgrade error", "error", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan models.WSMessage, 256),
		key:  h.browsers.Key(r),
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}
