package share

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// ProgressUpdate is one websocket frame pushed while a generation runs
type ProgressUpdate struct {
	ID      string `json:"id"`
	Poll    int    `json:"poll"`
	Elapsed int    `json:"elapsedSeconds"`
	Done    bool   `json:"done"`
	Error   string `json:"error,omitempty"`
}

// subscriber is one websocket connection. Gorilla allows only one
// concurrent writer per connection, so every write goes through wmu.
type subscriber struct {
	conn *websocket.Conn
	wmu  sync.Mutex
}

func (s *subscriber) send(update ProgressUpdate) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.conn.WriteJSON(update)
}

// Hub fans generation progress out to websocket subscribers keyed by
// generation id. Subscribers that joined late get the last update on
// connect so a refreshed page doesn't sit blank until the next poll.
type Hub struct {
	upgrader websocket.Upgrader

	mu   sync.RWMutex
	subs map[string]map[*websocket.Conn]*subscriber
	last map[string]ProgressUpdate
}

// NewHub creates an empty progress hub
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Progress frames carry no secrets and shared pages embed
			// the socket cross-origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subs: make(map[string]map[*websocket.Conn]*subscriber),
		last: make(map[string]ProgressUpdate),
	}
}

// Publish pushes an update to every subscriber of the generation id.
// Dead connections are dropped on write failure.
func (h *Hub) Publish(update ProgressUpdate) {
	h.mu.Lock()
	h.last[update.ID] = update
	subs := make([]*subscriber, 0, len(h.subs[update.ID]))
	for _, sub := range h.subs[update.ID] {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		if err := sub.send(update); err != nil {
			h.remove(update.ID, sub.conn)
			sub.conn.Close()
		}
	}

	if update.Done {
		h.mu.Lock()
		delete(h.last, update.ID)
		h.mu.Unlock()
	}
}

// ServeWS upgrades the request and subscribes it to the generation id
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, id string, logger *slog.Logger) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "id", id, "error", err)
		return
	}
	sub := &subscriber{conn: conn}

	h.mu.Lock()
	if h.subs[id] == nil {
		h.subs[id] = make(map[*websocket.Conn]*subscriber)
	}
	h.subs[id][conn] = sub
	last, hasLast := h.last[id]
	h.mu.Unlock()

	if hasLast {
		if err := sub.send(last); err != nil {
			h.remove(id, conn)
			conn.Close()
			return
		}
	}

	// Reader loop exists only to notice the peer going away
	go func() {
		defer func() {
			h.remove(id, conn)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) remove(id string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[id]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.subs, id)
		}
	}
}

// Subscribers reports the live subscriber count for a generation id
func (h *Hub) Subscribers(id string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[id])
}
