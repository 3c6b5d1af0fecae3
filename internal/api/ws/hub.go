package ws

import (
	"encoding/json"
	"home-compass-service/internal/api/dto"
	"home-compass-service/internal/domain"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const clientBuffer = 64

// Hub fans out toasts, home screen snapshots and compass frames to every connected
// WebSocket client. New clients first receive the latest snapshot and frame.
type Hub struct {
	upgrader websocket.Upgrader
	now      func() time.Time

	clientsMu sync.RWMutex
	clients   map[*client]struct{}

	lastMu       sync.Mutex
	lastLocation []byte
	lastCompass  []byte
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		now:     time.Now,
		clients: make(map[*client]struct{}),
	}
}

func (h *Hub) Notify(msg string) {
	h.broadcast(dto.Event{Type: dto.EventToast, Message: msg}, nil)
}

func (h *Hub) Publish(s domain.LocationSnapshot) {
	loc := dto.LocationFromSnapshot(s)
	h.broadcast(dto.Event{Type: dto.EventLocation, Location: &loc}, &h.lastLocation)
}

func (h *Hub) Render(f domain.CompassFrame) {
	frame := dto.FrameFromDomain(f)
	h.broadcast(dto.Event{Type: dto.EventCompass, Compass: &frame}, &h.lastCompass)
}

// Clients reports how many connections are attached.
func (h *Hub) Clients() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("ws upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}

	h.lastMu.Lock()
	for _, msg := range [][]byte{h.lastLocation, h.lastCompass} {
		if msg != nil {
			c.send <- msg
		}
	}
	h.lastMu.Unlock()

	h.clientsMu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.clientsMu.Unlock()
	logrus.WithField("clients", total).Info("ws client connected")

	go func() {
		defer conn.Close()
		for msg := range c.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
	}()

	// Reads only detect the peer going away.
	go func() {
		defer func() {
			h.clientsMu.Lock()
			delete(h.clients, c)
			total := len(h.clients)
			close(c.send)
			h.clientsMu.Unlock()
			logrus.WithField("clients", total).Info("ws client disconnected")
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	for c := range h.clients {
		_ = c.conn.Close()
	}
}

func (h *Hub) broadcast(ev dto.Event, keep *[]byte) {
	ev.Stamp = h.now().UnixMilli()
	data, err := json.Marshal(ev)
	if err != nil {
		logrus.WithError(err).WithField("type", ev.Type).Error("ws encode failed")
		return
	}

	if keep != nil {
		h.lastMu.Lock()
		*keep = data
		h.lastMu.Unlock()
	}

	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Slow client; it catches up on the next message.
		}
	}
}
