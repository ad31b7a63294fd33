package devserver

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// sendBufferSize is the per-client outbound frame buffer.
	sendBufferSize = 16
	writeWait      = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(_ *http.Request) bool {
		// Any origin, matching the CORS policy.
		return true
	},
}

// Hub fans snapshot frames out to every live connection.
type Hub struct {
	limiter *connectionLimiter

	mu      sync.RWMutex
	clients map[string]*client
}

type client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub; maxExternal caps non-loopback connections (0 = no cap).
func NewHub(maxExternal int) *Hub {
	return &Hub{
		limiter: newConnectionLimiter(maxExternal),
		clients: make(map[string]*client),
	}
}

// ServeWS upgrades r and registers the connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	c := &client{
		id:   uuid.New().String(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	if evicted := h.limiter.add(c.id, remoteIP(r)); evicted != "" {
		log.Info().Str("client", evicted).Msg("Evicting oldest external websocket client")
		h.unregister(evicted)
	}

	log.Debug().Str("client", c.id).Str("remote", r.RemoteAddr).Int("clients", h.ClientCount()).Msg("Websocket client connected")

	go c.writePump()
	go c.readPump()
}

// Broadcast queues frame on every connection. A client whose buffer is full
// misses the frame.
func (h *Hub) Broadcast(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		select {
		case c.send <- frame:
		default:
			log.Warn().Str("client", c.id).Msg("Websocket client too slow, dropping snapshot")
		}
	}
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.Unlock()

	for _, id := range ids {
		h.unregister(id)
	}
}

// unregister removes a client. Only the caller that removes it from the map
// closes its send channel.
func (h *Hub) unregister(id string) {
	h.mu.Lock()
	c, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()

	h.limiter.remove(id)
	if ok {
		close(c.send)
	}
}

// readPump discards application messages; reading keeps control frames
// flowing and notices the peer going away.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c.id)
		c.conn.Close()
		log.Debug().Str("client", c.id).Msg("Websocket client disconnected")
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("client", c.id).Msg("Websocket read error")
			}
			return
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for frame := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			log.Debug().Err(err).Str("client", c.id).Msg("Websocket write failed")
			return
		}
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"))
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RealIP middleware leaves a bare address.
		return r.RemoteAddr
	}
	return host
}
