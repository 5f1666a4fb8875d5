// Package session binds a section navigator to one visitor's page load.
package session

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Zachkp/portfolio/internal/navigator"
)

// Session is one page load of one visitor.
type Session struct {
	VisitorID string
	Page      *Page
	History   *History
	Curtain   *Curtain
	Hub       *Hub
	Nav       *navigator.Navigator

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// Config describes how sessions are built.
type Config struct {
	Sections []string
	// StoreFor returns the persisted values of a visitor.
	StoreFor func(visitorID string) navigator.Store
	Options  []navigator.Option
	// OnStart runs after a session is built and before it initializes,
	// so reveal hooks can be registered.
	OnStart func(*Session)
}

// Manager owns the live session of every visitor.
type Manager struct {
	cfg Config
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager.
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:      cfg,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Start builds and initializes a fresh session for a page load, replacing
// any previous one. deepLink is the section token in the request address.
func (m *Manager) Start(visitorID, deepLink string) *Session {
	hub := NewHub()
	page := NewPage(m.cfg.Sections, hub)
	hist := NewHistory(deepLink, hub)
	curtain := NewCurtain(hub)

	s := &Session{
		VisitorID: visitorID,
		Page:      page,
		History:   hist,
		Curtain:   curtain,
		Hub:       hub,
		lastSeen:  m.now(),
	}
	s.Nav = navigator.New(page, hist, m.cfg.StoreFor(visitorID), curtain, m.cfg.Options...)
	if m.cfg.OnStart != nil {
		m.cfg.OnStart(s)
	}
	s.Nav.Initialize()

	m.mu.Lock()
	old := m.sessions[visitorID]
	m.sessions[visitorID] = s
	m.mu.Unlock()

	if old != nil {
		old.Hub.Close()
	}
	slog.Debug("session started", "visitor", visitorID, "section", s.Nav.Current())
	return s
}

// Get returns the live session of a visitor.
func (m *Manager) Get(visitorID string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[visitorID]
	m.mu.Unlock()
	if ok {
		s.touch(m.now())
	}
	return s, ok
}

// Peek returns the live session of a visitor without marking it as used.
func (m *Manager) Peek(visitorID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[visitorID]
	return s, ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops sessions idle longer than maxIdle that have no open stream
// and no transition in flight. It returns how many were dropped.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	now := m.now()
	var dropped []*Session

	m.mu.Lock()
	for id, s := range m.sessions {
		if s.idleSince(now) < maxIdle || s.Hub.Subscribers() > 0 || s.Nav.Transitioning() {
			continue
		}
		delete(m.sessions, id)
		dropped = append(dropped, s)
	}
	m.mu.Unlock()

	for _, s := range dropped {
		s.Hub.Close()
	}
	if len(dropped) > 0 {
		slog.Debug("swept idle sessions", "count", len(dropped))
	}
	return len(dropped)
}

// Visitors returns the ids with a live session, sorted.
func (m *Manager) Visitors() []string {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	slices.Sort(ids)
	return ids
}
