// Package scan implements the interactive scan flows of a warehouse terminal:
// outward against an order, putaway into bins, returns, scrap, undo and packet trace.
// Every stock rule lives in the backend; this package only sequences calls,
// guards each input against double submission and reloads the affected views.
package scan

import (
	"sync"
	"time"
)

// State of one scan control
type State int

const (
	Idle       State = iota // ready for the next scan
	Submitting              // a scan is in flight
	Cooldown                // just resolved; triggers are still ignored
)

func (s State) String() string {
	switch s {
	case Submitting:
		return "submitting"
	case Cooldown:
		return "cooldown"
	default:
		return "idle"
	}
}

// Latch allows at most one outstanding submission per control.
// Transitions: Idle -> Submitting (TryAcquire), Submitting -> Cooldown|Idle (Release),
// Cooldown -> Idle (after the cooldown elapses). Anything else is ignored.
type Latch struct {
	mu       sync.Mutex
	state    State
	cooldown time.Duration
	gen      uint64
}

// NewLatch creates an idle latch; a zero cooldown returns to Idle immediately on Release
func NewLatch(cooldown time.Duration) *Latch {
	return &Latch{cooldown: cooldown}
}

// State returns the current state
func (l *Latch) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// TryAcquire moves Idle -> Submitting and reports whether it did
func (l *Latch) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != Idle {
		return false
	}
	l.state = Submitting
	return true
}

// Release ends a submission
func (l *Latch) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != Submitting {
		return
	}
	if l.cooldown <= 0 {
		l.state = Idle
		return
	}

	l.state = Cooldown
	l.gen++
	gen := l.gen
	time.AfterFunc(l.cooldown, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.state == Cooldown && l.gen == gen {
			l.state = Idle
		}
	})
}
