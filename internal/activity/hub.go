package activity

import (
	"sync"

	"github.com/Leganyst/easycars/internal/model"
)

// Hub fans recorded entries out to live subscribers (admin websocket
// streams). A subscriber whose buffer is full is dropped.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan model.ActivityLog]struct{}
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subs:   make(map[chan model.ActivityLog]struct{}),
		buffer: buffer,
	}
}

// Subscribe returns the feed and a cancel func. The channel is closed on
// cancel or when the subscriber falls behind.
func (h *Hub) Subscribe() (<-chan model.ActivityLog, func()) {
	ch := make(chan model.ActivityLog, h.buffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() { h.drop(ch) }
}

func (h *Hub) Broadcast(entry model.ActivityLog) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- entry:
		default:
			delete(h.subs, ch)
			close(ch)
		}
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// CloseAll disconnects every subscriber.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

func (h *Hub) drop(ch chan model.ActivityLog) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}
