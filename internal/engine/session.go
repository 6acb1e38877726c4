package engine

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ParseClockTime parses a "HH:MM" wall-clock time into minutes since
// midnight.
func ParseClockTime(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return h*60 + m, nil
}

// SessionGuard decides whether the market is open: trading weekdays
// between the configured open and close wall-clock times. A background
// ticker detects the open and close transitions; close fires the
// end-of-day expiry exactly once per session, open reseeds liquidity.
type SessionGuard struct {
	openMinute  int
	closeMinute int
	clock       func() time.Time

	mu      sync.Mutex
	wasOpen bool
	primed  bool // wasOpen holds a real observation
	onOpen  func()
	onClose func()
}

// NewSessionGuard creates a guard with open/close times in minutes
// since midnight.
func NewSessionGuard(openMinute, closeMinute int) *SessionGuard {
	return &SessionGuard{
		openMinute:  openMinute,
		closeMinute: closeMinute,
		clock:       time.Now,
	}
}

// SetClock overrides the guard's time source with a fixed or synthetic
// clock.
func (g *SessionGuard) SetClock(fn func() time.Time) {
	g.clock = fn
}

// OnOpen registers the callback fired when the market transitions to
// open.
func (g *SessionGuard) OnOpen(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onOpen = fn
}

// OnClose registers the callback fired when the market transitions to
// closed.
func (g *SessionGuard) OnClose(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onClose = fn
}

// IsOpen reports whether the market is open right now.
func (g *SessionGuard) IsOpen() bool {
	return g.isOpenAt(g.clock())
}

func (g *SessionGuard) isOpenAt(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	minute := t.Hour()*60 + t.Minute()
	return minute >= g.openMinute && minute < g.closeMinute
}

// Run ticks at the given interval until ctx is cancelled, firing the
// open/close callbacks on state transitions. The first observation
// only primes the state so a restart mid-session doesn't fire a
// spurious transition.
func (g *SessionGuard) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	g.observe()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.observe()
		}
	}
}

// observe compares the current open state against the last one and
// fires at most one callback per transition.
func (g *SessionGuard) observe() {
	open := g.IsOpen()

	g.mu.Lock()
	fireOpen := g.primed && open && !g.wasOpen
	fireClose := g.primed && !open && g.wasOpen
	onOpen, onClose := g.onOpen, g.onClose
	g.wasOpen = open
	g.primed = true
	g.mu.Unlock()

	if fireOpen && onOpen != nil {
		onOpen()
	}
	if fireClose && onClose != nil {
		onClose()
	}
}
