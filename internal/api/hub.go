package api

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// clientBuffer is how many undelivered messages a stream client may lag
// behind before messages to it are dropped.
const clientBuffer = 64

// Hub fans live turn reports out to websocket clients. Publish never blocks
// the simulation: a client that falls behind misses messages.
type Hub struct {
	mu      sync.Mutex
	clients map[uint64]chan []byte
	nextID  uint64
	latest  json.RawMessage
	dropped uint64
}

func NewHub() *Hub {
	return &Hub{clients: make(map[uint64]chan []byte)}
}

// Publish encodes v once and queues it for every client.
func (h *Hub) Publish(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("hub: encode message", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = data
	for _, ch := range h.clients {
		select {
		case ch <- data:
		default:
			h.dropped++
		}
	}
}

// Latest returns the last published message, or nil.
func (h *Hub) Latest() json.RawMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

// ClientCount returns the number of connected stream clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped returns how many messages were dropped for slow clients.
func (h *Hub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

func (h *Hub) subscribe() (uint64, <-chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	ch := make(chan []byte, clientBuffer)
	h.clients[h.nextID] = ch
	return h.nextID, ch
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, id)
}
