// Package live pushes dashboard events to browsers over websockets so open
// dashboards can refresh after a reload or a filter change.
package live

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/AngelCh415/wbdash/internal/telemetry"
)

type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub tracks connected clients and fans messages out to them. Serve must be
// running for registrations and broadcasts to be processed.
type Hub struct {
	log      zerolog.Logger
	origins  []string
	upgrader websocket.Upgrader

	broadcast  chan []byte
	register   chan *client
	unregister chan *client

	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewHub(allowedOrigins []string, log zerolog.Logger) *Hub {
	h := &Hub{
		log:        log,
		origins:    allowedOrigins,
		broadcast:  make(chan []byte, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		clients:    make(map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      h.checkOrigin,
	}
	return h
}

// Notify queues a message for every client. It never blocks; when the queue
// is full the message is dropped.
func (h *Hub) Notify(kind string, data any) {
	b, err := json.Marshal(Message{Type: kind, Data: data})
	if err != nil {
		h.log.Error().Err(err).Str("type", kind).Msg("encode live message")
		return
	}
	select {
	case h.broadcast <- b:
	default:
		h.log.Warn().Str("type", kind).Msg("broadcast queue full, dropping message")
	}
}

// Serve implements suture.Service.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			n := h.Clients()
			h.closeAll()
			h.log.Info().Int("clients_closed", n).Msg("live hub stopped")
			return ctx.Err()
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			telemetry.LiveClients.Set(float64(n))
			h.log.Debug().Int("clients", n).Msg("live client connected")
		case c := <-h.unregister:
			h.drop(c)
		case b := <-h.broadcast:
			h.fanout(b)
		}
	}
}

func (h *Hub) String() string { return "live-hub" }

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and registers the connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade ya respondió al cliente
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, 16)}
	select {
	case h.register <- c:
	case <-r.Context().Done():
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

func (h *Hub) fanout(b []byte) {
	h.mu.Lock()
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()
	for _, c := range slow {
		h.drop(c)
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	telemetry.LiveClients.Set(float64(n))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	telemetry.LiveClients.Set(0)
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	for _, o := range h.origins {
		if o == "*" || o == origin {
			return true
		}
	}
	h.log.Warn().Str("origin", origin).Msg("websocket origin rejected")
	return false
}
