package scan

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBusy is returned by Station.Do while a scan on the same control is in flight
var ErrBusy = errors.New("scan in progress")

// Controls known to a station
const (
	ControlOutward = "outward"
	ControlPutaway = "putaway"
	ControlReturn  = "return"
	ControlScrap   = "scrap"
	ControlUndo    = "undo"
)

type stationKey struct {
	terminal string
	control  string
}

// Station keeps one Latch per terminal and control, for callers that submit
// scans without a long-lived Controller (HTTP requests).
type Station struct {
	mu       sync.Mutex
	cooldown time.Duration
	latches  map[stationKey]*Latch
}

func NewStation(cooldown time.Duration) *Station {
	return &Station{cooldown: cooldown, latches: make(map[stationKey]*Latch)}
}

// Latch returns the latch for a terminal's control, creating it on first use
func (s *Station) Latch(terminal, control string) *Latch {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := stationKey{terminal, control}
	l, ok := s.latches[k]
	if !ok {
		l = NewLatch(s.cooldown)
		s.latches[k] = l
	}
	return l
}

// Do runs fn holding the control's latch, or returns ErrBusy without running it
func (s *Station) Do(ctx context.Context, terminal, control string, fn func(ctx context.Context) Outcome) (Outcome, error) {
	l := s.Latch(terminal, control)
	if !l.TryAcquire() {
		return Outcome{}, ErrBusy
	}
	defer l.Release()
	return fn(ctx), nil
}
