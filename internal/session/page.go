package session

import (
	"slices"
	"sync"
)

// Page is the server-side model of the rendered sections and nav links.
type Page struct {
	mu        sync.RWMutex
	order     []string
	active    map[string]bool
	indicator string
	pub       Publisher
}

// NewPage creates a page holding sections in display order.
func NewPage(sections []string, pub Publisher) *Page {
	return &Page{
		order:  slices.Clone(sections),
		active: make(map[string]bool, len(sections)),
		pub:    pub,
	}
}

func (p *Page) Sections() []string {
	return slices.Clone(p.order)
}

func (p *Page) Resolve(section string) bool {
	return slices.Contains(p.order, section)
}

func (p *Page) Activate(section string) {
	p.set(section, true)
}

func (p *Page) Deactivate(section string) {
	p.set(section, false)
}

func (p *Page) set(section string, on bool) {
	p.mu.Lock()
	if !slices.Contains(p.order, section) {
		p.mu.Unlock()
		return
	}
	p.active[section] = on
	p.mu.Unlock()

	op := "deactivate"
	if on {
		op = "activate"
	}
	p.pub.Publish(Event{Type: EventSection, Op: op, Section: section})
}

func (p *Page) MarkCurrent(section string) {
	p.mu.Lock()
	p.indicator = section
	p.mu.Unlock()
	p.pub.Publish(Event{Type: EventSection, Op: "indicator", Section: section})
}

// IsActive reports whether section is shown.
func (p *Page) IsActive(section string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.active[section]
}

// Active returns the shown sections in display order.
func (p *Page) Active() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []string
	for _, s := range p.order {
		if p.active[s] {
			out = append(out, s)
		}
	}
	return out
}

// Indicator returns the section whose nav link is marked current.
func (p *Page) Indicator() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.indicator
}
