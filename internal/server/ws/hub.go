// Package ws bridges the signal bus to websocket clients.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/emiafrica/market-intel/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is public read-only over ws; origin checks happen in the
	// CORS layer for the REST surface.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub subscribes to the bus channels once and fans every payload out to
// all connected clients.
type Hub struct {
	bus      domain.SignalBus
	channels []string
	logger   *slog.Logger

	register   chan *client
	unregister chan *client
	broadcast  chan []byte
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a Hub fanning out the given bus channels.
func NewHub(bus domain.SignalBus, channels []string, logger *slog.Logger) *Hub {
	return &Hub{
		bus:        bus,
		channels:   channels,
		logger:     logger,
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
	}
}

// Run pumps bus messages to clients until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	for _, channel := range h.channels {
		msgs, err := h.bus.Subscribe(ctx, channel)
		if err != nil {
			return err
		}
		go func() {
			for payload := range msgs {
				select {
				case h.broadcast <- payload:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	clients := make(map[*client]bool)
	for {
		select {
		case <-ctx.Done():
			for c := range clients {
				close(c.send)
			}
			return ctx.Err()
		case c := <-h.register:
			clients[c] = true
		case c := <-h.unregister:
			if clients[c] {
				delete(clients, c)
				close(c.send)
			}
		case payload := <-h.broadcast:
			for c := range clients {
				select {
				case c.send <- payload:
				default:
					// Slow consumer; drop it rather than stall the hub.
					delete(clients, c)
					close(c.send)
				}
			}
		}
	}
}

// ServeHTTP upgrades the connection and starts the client pumps.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.register <- c

	go h.writePump(c)
	go h.readPump(c)
}

// readPump discards client frames; the stream is one-way. It exists to
// process pongs and notice the close.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister <- c
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
