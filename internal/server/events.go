package server

import (
	"sync"
)

// Event is a server-sent event pushed to browsers.
type Event struct {
	Type string `json:"type"`
	Seq  int    `json:"seq,omitempty"`
	ID   string `json:"id,omitempty"`
	Info string `json:"info,omitempty"`
}

// Event types.
const (
	EventFrame     = "frame"
	EventTransform = "transform"
	EventClick     = "click"
	EventReload    = "reload"
	EventError     = "error"
)

// Hub fans events out to connected event streams. Slow subscribers miss
// events rather than block the chart.
type Hub struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	closed bool
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a subscriber. The returned function unregisters it
// and closes the channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 16)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

// Publish delivers ev to every subscriber that has room for it.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		close(ch)
	}
	h.subs = make(map[chan Event]struct{})
	h.closed = true
}
