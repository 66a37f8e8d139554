package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"reviewledger/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API sits behind its own CORS policy; the socket carries no writes.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Envelope is the JSON frame pushed to every client.
type Envelope struct {
	Event  string      `json:"event"`
	Data   interface{} `json:"data"`
	SentAt time.Time   `json:"sent_at"`
}

// Client represents a single connected WebSocket client
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	clients    map[*Client]bool
	Broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
	log        *zap.Logger
}

// NewHub initializes a new WS Hub instance
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		Broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		log:        log.Named("ws"),
	}
}

// Run starts the dispatch loop and returns when ctx is done. Once it has
// returned, new connections are closed and departing clients skip unregister.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client connected", zap.Int("clients", n))
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.log.Debug("client disconnected", zap.Int("clients", len(h.clients)))
			}
			h.mu.Unlock()
		case message := <-h.Broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount reports the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// BroadcastEvent encodes an envelope and queues it for every client. A full
// queue drops the event rather than blocking the caller.
func (h *Hub) BroadcastEvent(event string, data interface{}) {
	msg, err := json.Marshal(Envelope{Event: event, Data: data, SentAt: time.Now().UTC()})
	if err != nil {
		h.log.Warn("failed to encode ws event", zap.String("event", event), zap.Error(err))
		return
	}
	select {
	case h.Broadcast <- msg:
	default:
		h.log.Warn("ws broadcast queue full, event dropped", zap.String("event", event))
	}
}

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
	defer func() {
		_ = c.Conn.Close()
	}()
	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump drains the connection until the peer goes away.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		_ = c.Conn.Close()
	}()
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Debug("ws read error", zap.Error(err))
			}
			return
		}
	}
}

// ServeWs upgrades the request. When secret is set the token query parameter
// must carry a valid token.
func ServeWs(hub *Hub, c *gin.Context, secret string) {
	if secret != "" {
		tokenString := c.Query("token")
		if tokenString == "" {
			hub.log.Info("ws connection rejected: missing token")
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if _, err := middleware.ParseToken(secret, tokenString); err != nil {
			hub.log.Info("ws connection rejected: invalid token", zap.Error(err))
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	client := &Client{Hub: hub, Conn: conn, Send: make(chan []byte, 256)}
	select {
	case hub.register <- client:
	case <-hub.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
