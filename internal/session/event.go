package session

import "sync"

// Event is pushed to the visitor's browser over the event stream.
type Event struct {
	Type    string `json:"type"`
	Op      string `json:"op,omitempty"`
	Phase   string `json:"phase,omitempty"`
	Section string `json:"section,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Event types.
const (
	EventCurtain = "curtain"
	EventSection = "section"
	EventHistory = "history"
	EventSkills  = "skills"
	EventTheme   = "theme"
)

// Publisher receives events for one visitor.
type Publisher interface {
	Publish(ev Event)
}

// subscriberBuffer bounds how far a slow socket may lag before events drop.
const subscriberBuffer = 32

// Hub fans events out to every open stream of a session.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe returns a channel of events and a func that releases it.
// The channel is closed when the hub closes.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}
}

// Publish sends ev to all subscribers without blocking.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers returns the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
