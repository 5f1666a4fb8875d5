package session

import "go.uber.org/atomic"

// Curtain phases.
const (
	PhaseIdle   = "idle"
	PhaseCover  = "cover"
	PhaseReveal = "reveal"
)

// Curtain is the transition overlay. The browser plays the animation; the
// server only tracks and announces the phase.
type Curtain struct {
	phase *atomic.String
	pub   Publisher
}

// NewCurtain creates an idle curtain.
func NewCurtain(pub Publisher) *Curtain {
	return &Curtain{phase: atomic.NewString(PhaseIdle), pub: pub}
}

func (c *Curtain) Cover() {
	c.phase.Store(PhaseCover)
	c.pub.Publish(Event{Type: EventCurtain, Phase: PhaseCover})
}

func (c *Curtain) Reveal() {
	c.phase.Store(PhaseReveal)
	c.pub.Publish(Event{Type: EventCurtain, Phase: PhaseReveal})
}

// Phase returns the last phase played.
func (c *Curtain) Phase() string {
	return c.phase.Load()
}
