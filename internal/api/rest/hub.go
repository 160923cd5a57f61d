package rest

import (
	"sync"

	"github.com/0mlml/localstorage-window-sync/internal/frame"
)

// subscriberBuffer is how many frames a slow subscriber may lag before frames
// are dropped for it.
const subscriberBuffer = 16

// Hub fans frames out to websocket subscribers. Publish never blocks: a
// subscriber whose buffer is full misses frames.
type Hub struct {
	mu          sync.RWMutex
	nextID      uint64
	subscribers map[uint64]chan frame.Frame
	closed      bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[uint64]chan frame.Frame)}
}

// Subscribe registers a subscriber and returns its id and channel. After
// Close the channel comes back already closed.
func (h *Hub) Subscribe() (uint64, <-chan frame.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	ch := make(chan frame.Frame, subscriberBuffer)
	if h.closed {
		close(ch)
		return h.nextID, ch
	}
	h.subscribers[h.nextID] = ch
	return h.nextID, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subscribers[id]; ok {
		close(ch)
		delete(h.subscribers, id)
	}
}

// Close ends every subscription. Websocket connections are hijacked from
// the HTTP server, so its Shutdown does not reach them; closing the channels
// makes each stream say goodbye and return.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
}

// Publish implements frame.Sink.
func (h *Hub) Publish(f frame.Frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subscribers {
		select {
		case ch <- f:
		default:
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
