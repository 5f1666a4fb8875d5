// Package navigator owns the active section of the single-page portfolio.
//
// A Navigator guarantees that exactly one section is shown at a time, drives
// the curtain transition between sections, and keeps the switch consistent
// with session history and the persisted "current section" value.
//
// The machine has two states, Idle(current) and Transitioning(from, to).
// Any navigation request made while transitioning is dropped.
package navigator

import (
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// SectionKey is the persisted key holding the last active section.
const SectionKey = "currentSection"

// DefaultSection is shown when nothing else resolves.
const DefaultSection = "home"

// Record is the state attached to one session-history entry.
type Record struct {
	Section string `json:"section"`
}

// Surface is the render surface holding one element per section.
type Surface interface {
	Sections() []string
	Resolve(section string) bool
	Activate(section string)
	Deactivate(section string)
	// MarkCurrent flags the navigation indicator bound to section and clears the rest.
	MarkCurrent(section string)
}

// History is the session-history mechanism.
type History interface {
	// Fragment returns the deep-link token of the current address, or "".
	Fragment() string
	// ReplaceCurrent rewrites the current entry and drops the deep-link token.
	ReplaceCurrent(rec Record)
	PushNew(rec Record)
	// OnTraversal registers the back/forward handler. rec is nil for
	// entries that carry no record; fn reports whether the navigation
	// it started was accepted.
	OnTraversal(fn func(rec *Record) bool)
}

// Store persists small string values across page loads.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// Player is the curtain overlay. Both calls are fire-and-forget.
type Player interface {
	Cover()
	Reveal()
}

// Timings are the waits the navigator assumes the curtain needs.
type Timings struct {
	CoverSettle  time.Duration
	PreReveal    time.Duration
	RevealSettle time.Duration
}

// DefaultTimings match the curtain CSS animations.
func DefaultTimings() Timings {
	return Timings{
		CoverSettle:  400 * time.Millisecond,
		PreReveal:    100 * time.Millisecond,
		RevealSettle: 800 * time.Millisecond,
	}
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithDefault sets the fallback section.
func WithDefault(section string) Option {
	return func(n *Navigator) { n.fallback = section }
}

// WithTimings overrides the transition waits.
func WithTimings(t Timings) Option {
	return func(n *Navigator) { n.timings = t }
}

// WithSleep replaces time.Sleep, mostly for tests.
func WithSleep(fn func(time.Duration)) Option {
	return func(n *Navigator) { n.sleep = fn }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(n *Navigator) { n.log = l }
}

// Navigator is the section state machine. It is safe for concurrent use.
type Navigator struct {
	surface Surface
	history History
	store   Store
	player  Player

	fallback string
	timings  Timings
	sleep    func(time.Duration)
	log      *slog.Logger

	current       *atomic.String
	transitioning *atomic.Bool

	hooksMu sync.RWMutex
	hooks   map[string][]func(section string)
}

// New creates a Navigator. Initialize must be called before navigating.
func New(surface Surface, history History, store Store, player Player, opts ...Option) *Navigator {
	n := &Navigator{
		surface:       surface,
		history:       history,
		store:         store,
		player:        player,
		fallback:      DefaultSection,
		timings:       DefaultTimings(),
		sleep:         time.Sleep,
		log:           slog.Default(),
		current:       atomic.NewString(""),
		transitioning: atomic.NewBool(false),
		hooks:         make(map[string][]func(string)),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Initialize resolves the first section from the deep link, then the
// persisted value, then the default, and shows it.
func (n *Navigator) Initialize() {
	if !n.transitioning.CompareAndSwap(false, true) {
		return
	}
	defer n.transitioning.Store(false)

	initial := n.fallback
	if token := n.history.Fragment(); token != "" && n.surface.Resolve(token) {
		initial = token
	} else if saved, ok := n.store.Get(SectionKey); ok && n.surface.Resolve(saved) {
		initial = saved
	}

	for _, s := range n.surface.Sections() {
		if s == initial {
			n.surface.Activate(s)
		} else {
			n.surface.Deactivate(s)
		}
	}
	n.surface.MarkCurrent(initial)
	n.current.Store(initial)

	n.history.ReplaceCurrent(Record{Section: initial})
	n.history.OnTraversal(n.handleTraversal)

	n.log.Debug("navigator initialized", "section", initial)
}

// NavigateTo switches to target. It reports whether the request was
// accepted; rejected requests change nothing.
func (n *Navigator) NavigateTo(target string, recordHistory bool) bool {
	if !n.transitioning.CompareAndSwap(false, true) {
		n.log.Debug("navigation dropped, transition in flight", "target", target)
		return false
	}
	from := n.current.Load()
	if target == from || !n.surface.Resolve(target) {
		n.transitioning.Store(false)
		return false
	}
	defer n.transitioning.Store(false)

	if recordHistory {
		n.history.PushNew(Record{Section: target})
		n.store.Set(SectionKey, target)
	}

	n.player.Cover()
	n.sleep(n.timings.CoverSettle)

	n.surface.Deactivate(from)
	n.surface.Activate(target)
	n.surface.MarkCurrent(target)

	n.sleep(n.timings.PreReveal)
	n.player.Reveal()

	n.current.Store(target)
	n.fireReveal(target)

	n.sleep(n.timings.RevealSettle)

	n.log.Debug("navigated", "from", from, "to", target, "recorded", recordHistory)
	return true
}

func (n *Navigator) handleTraversal(rec *Record) bool {
	target := n.fallback
	if rec != nil && rec.Section != "" && n.surface.Resolve(rec.Section) {
		target = rec.Section
	}
	return n.NavigateTo(target, false)
}

// OnReveal registers fn to run each time section is revealed.
func (n *Navigator) OnReveal(section string, fn func(section string)) {
	n.hooksMu.Lock()
	defer n.hooksMu.Unlock()
	n.hooks[section] = append(n.hooks[section], fn)
}

func (n *Navigator) fireReveal(section string) {
	n.hooksMu.RLock()
	hooks := n.hooks[section]
	n.hooksMu.RUnlock()
	for _, fn := range hooks {
		fn(section)
	}
}

// Current returns the displayed section.
func (n *Navigator) Current() string {
	return n.current.Load()
}

// Transitioning reports whether a transition is in flight.
func (n *Navigator) Transitioning() bool {
	return n.transitioning.Load()
}
