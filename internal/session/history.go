package session

import (
	"sync"

	"github.com/Zachkp/portfolio/internal/navigator"
)

// History mirrors the browser's session history for one page load.
//
// The first entry carries no record until the navigator replaces it.
type History struct {
	mu       sync.Mutex
	entries  []*navigator.Record
	index    int
	fragment string
	handler  func(*navigator.Record) bool
	pub      Publisher
}

// NewHistory starts a history whose address carries the deep-link token fragment.
func NewHistory(fragment string, pub Publisher) *History {
	return &History{
		entries:  []*navigator.Record{nil},
		fragment: fragment,
		pub:      pub,
	}
}

func (h *History) Fragment() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fragment
}

func (h *History) ReplaceCurrent(rec navigator.Record) {
	h.mu.Lock()
	h.entries[h.index] = &rec
	h.fragment = ""
	h.mu.Unlock()
	h.pub.Publish(Event{Type: EventHistory, Op: "replace", Section: rec.Section})
}

func (h *History) PushNew(rec navigator.Record) {
	h.mu.Lock()
	h.entries = append(h.entries[:h.index+1], &rec)
	h.index++
	h.mu.Unlock()
	h.pub.Publish(Event{Type: EventHistory, Op: "push", Section: rec.Section})
}

func (h *History) OnTraversal(fn func(*navigator.Record) bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = fn
}

// Traverse delivers a back/forward traversal reported by the browser and
// moves the index to the entry the browser landed on: the neighbouring
// entry holding rec's section, or one step back when rec carries none.
// It reports whether the navigator accepted the resulting navigation.
func (h *History) Traverse(rec *navigator.Record) bool {
	h.mu.Lock()
	h.index = h.landing(rec)
	fn := h.handler
	h.mu.Unlock()
	if fn == nil {
		return false
	}
	return fn(rec)
}

// landing must be called with h.mu held.
func (h *History) landing(rec *navigator.Record) int {
	if rec == nil || rec.Section == "" {
		return max(h.index-1, 0)
	}
	for _, i := range []int{h.index - 1, h.index + 1} {
		if i >= 0 && i < len(h.entries) && h.entries[i] != nil && h.entries[i].Section == rec.Section {
			return i
		}
	}
	return h.index
}

// Back moves one entry back and delivers its record. It reports false at
// the start of history.
func (h *History) Back() bool {
	return h.move(-1)
}

// Forward moves one entry forward and delivers its record.
func (h *History) Forward() bool {
	return h.move(1)
}

func (h *History) move(delta int) bool {
	h.mu.Lock()
	next := h.index + delta
	if next < 0 || next >= len(h.entries) {
		h.mu.Unlock()
		return false
	}
	h.index = next
	rec := h.entries[next]
	fn := h.handler
	h.mu.Unlock()

	if fn != nil {
		fn(rec)
	}
	return true
}

// Entries returns a copy of the stack and the current index.
func (h *History) Entries() ([]navigator.Record, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]navigator.Record, len(h.entries))
	for i, e := range h.entries {
		if e != nil {
			out[i] = *e
		}
	}
	return out, h.index
}
