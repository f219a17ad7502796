package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yamlrg/connect/pairing"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Message is the wire envelope pushed to admin clients. Today the only type
// is SNAPSHOT_UPDATED, sent after every successful board mutation.
type Message struct {
	Type       string      `json:"type"`
	SessionKey string      `json:"session_key"`
	Payload    interface{} `json:"payload"`
}

// Client is one websocket subscriber, pinned to a single session room.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	session string
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, sessionKey string, logger *slog.Logger) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 256),
		session: sessionKey,
		logger:  logger,
	}
}

// Hub fans snapshots out to every client watching a session. It is the
// notification channel behind the admin board: mutations publish here so the
// UI re-renders without re-querying the stores.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	logger     *slog.Logger

	mu    sync.RWMutex
	rooms map[string]map[*Client]bool
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.session]; !ok {
				h.rooms[client.session] = make(map[*Client]bool)
			}
			h.rooms[client.session][client] = true
			h.logger.Info("client joined session room",
				slog.String("session", client.session),
				slog.Int("clients", len(h.rooms[client.session])))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.rooms[client.session]; ok {
				if _, member := room[client]; member {
					client.closeSend()
					delete(room, client)
					if len(room) == 0 {
						delete(h.rooms, client.session)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register adds a client to its session room and starts its pumps.
func (h *Hub) Register(client *Client) {
	h.register <- client
	go client.writePump()
	go client.readPump()
}

// PublishSnapshot implements services.Notifier: every successful mutation
// pushes the fresh snapshot to the session's room.
func (h *Hub) PublishSnapshot(sessionKey string, snap pairing.Snapshot) {
	payload, err := json.Marshal(Message{
		Type:       "SNAPSHOT_UPDATED",
		SessionKey: sessionKey,
		Payload:    snap,
	})
	if err != nil {
		h.logger.Error("failed to marshal snapshot message", slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[sessionKey] {
		client.mu.Lock()
		if !client.closed {
			select {
			case client.send <- payload:
			default:
				// Slow consumer; it will catch up on its next reload.
			}
		}
		client.mu.Unlock()
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
}

// readPump drains inbound frames. Clients are listeners only; anything they
// send is ignored, but reading keeps pong handling alive.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read error",
					slog.String("session", c.session), slog.Any("error", err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
