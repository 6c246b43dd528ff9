package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/r3d91ll/gmpaudit/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // must be less than pongWait
	maxMessageSize = 4096
	sendBufferSize = 64
)

// Channels a client may subscribe to. A client with no subscriptions
// receives every event.
const (
	ChannelForm          = "form"
	ChannelExport        = "export"
	ChannelNotifications = "notifications"
)

// Event types pushed to clients.
const (
	EventFormChanged     = "form.changed"
	EventFormSaved       = "form.saved"
	EventFormReloaded    = "form.reloaded"
	EventExportCompleted = "export.completed"
	EventExportFailed    = "export.failed"
	EventNotification    = "notification"
	EventPong            = "pong"
	EventError           = "error"
)

// Messages clients may send.
const (
	clientSubscribe = "subscribe"
	clientPing      = "ping"
)

// Notification levels.
const (
	NotifySuccess = "success"
	NotifyError   = "error"
	NotifyInfo    = "info"
)

// Event is the envelope of every websocket message.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Channels  []string    `json:"channels,omitempty"`
}

// Notification is the payload of a notification event.
type Notification struct {
	Level   string `json:"type"`
	Message string `json:"message"`
}

func channelOf(eventType string) string {
	switch {
	case strings.HasPrefix(eventType, "form."):
		return ChannelForm
	case strings.HasPrefix(eventType, "export."):
		return ChannelExport
	}
	return ChannelNotifications
}

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

type client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu   sync.RWMutex
	subs map[string]bool
}

func (c *client) subscribe(channels ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range channels {
		c.subs[ch] = true
	}
}

func (c *client) wants(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs) == 0 || c.subs[channel]
}

func (c *client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		c.handle(msg)
	}
}

func (c *client) handle(msg []byte) {
	var ev Event
	if err := json.Unmarshal(msg, &ev); err != nil {
		c.reply(EventError, map[string]string{"code": "invalid_json", "message": "failed to parse message"})
		return
	}
	switch ev.Type {
	case clientSubscribe:
		var valid []string
		for _, ch := range ev.Channels {
			switch ch {
			case ChannelForm, ChannelExport, ChannelNotifications:
				valid = append(valid, ch)
			}
		}
		if len(valid) == 0 {
			c.reply(EventError, map[string]string{"code": "invalid_subscribe", "message": "no known channels"})
			return
		}
		c.subscribe(valid...)
	case clientPing:
		c.reply(EventPong, nil)
	default:
		c.hub.logger.Debug("unknown websocket message", zap.String("type", ev.Type))
	}
}

// reply queues a message for this client only; it is dropped if the
// buffer is full.
func (c *client) reply(eventType string, data interface{}) {
	b, err := json.Marshal(Event{Type: eventType, Data: data, Timestamp: time.Now().UTC()})
	if err != nil {
		return
	}
	select {
	case c.send <- b:
	default:
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// -----------------------------------------------------------------------------
// Hub
// -----------------------------------------------------------------------------

type broadcast struct {
	channel string
	payload []byte
}

// Hub tracks connected clients and fans events out to them.
type Hub struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]bool

	broadcast  chan broadcast
	register   chan *client
	unregister chan *client
	done       chan struct{}
	stopOnce   sync.Once
}

// NewHub returns a hub. checkOrigin may be nil to accept same-origin
// requests only.
func NewHub(logger *zap.Logger, checkOrigin func(*http.Request) bool) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if checkOrigin == nil {
		checkOrigin = makeOriginChecker(nil)
	}
	return &Hub{
		logger: logger.Named("ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		clients:    make(map[*client]bool),
		broadcast:  make(chan broadcast, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			metrics.WebSocketClients.Set(0)
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			metrics.WebSocketClients.Set(float64(n))
			h.logger.Debug("client connected", zap.String("client", c.id), zap.Int("clients", n))

		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.WebSocketClients.Set(float64(n))
			h.logger.Debug("client disconnected", zap.String("client", c.id), zap.Int("clients", n))

		case b := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				if !c.wants(b.channel) {
					continue
				}
				select {
				case c.send <- b.payload:
				default:
					// Slow consumer.
					close(c.send)
					delete(h.clients, c)
				}
			}
			metrics.WebSocketClients.Set(float64(len(h.clients)))
			h.mu.Unlock()
		}
	}
}

// Stop disconnects every client and ends Run. It is safe to call more
// than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish queues an event for every subscribed client. Events published
// after Stop, or while the queue is full, are dropped.
func (h *Hub) Publish(eventType string, data interface{}) {
	b, err := json.Marshal(Event{Type: eventType, Data: data, Timestamp: time.Now().UTC()})
	if err != nil {
		h.logger.Warn("failed to encode event", zap.String("type", eventType), zap.Error(err))
		return
	}
	select {
	case <-h.done:
	case h.broadcast <- broadcast{channel: channelOf(eventType), payload: b}:
	default:
		h.logger.Warn("event queue full, dropping event", zap.String("type", eventType))
	}
}

// Notify publishes a user-facing notification.
func (h *Hub) Notify(level, message string) {
	h.Publish(EventNotification, Notification{Level: level, Message: message})
}

func (h *Hub) join(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ServeHTTP upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		subs: make(map[string]bool),
	}
	if !h.join(c) {
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

func (s *Server) serveWS(c *gin.Context) {
	s.hub.ServeHTTP(c.Writer, c.Request)
}
