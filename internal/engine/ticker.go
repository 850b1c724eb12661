package engine

import "time"

// TickSource yields the discrete time steps that advance a running round.
// The scheduler owns the source: only it starts, drains, and stops one.
type TickSource interface {
	C() <-chan time.Time
	Stop()
}

// Clock abstracts wall time so round timing can be driven virtually in
// tests and replays.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
	NewTicker(d time.Duration) TickSource
}

type realClock struct{}

// NewRealClock returns the wall-clock implementation used in production.
func NewRealClock() Clock { return realClock{} }

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (realClock) NewTicker(d time.Duration) TickSource   { return &intervalTicker{t: time.NewTicker(d)} }

type intervalTicker struct{ t *time.Ticker }

func (it *intervalTicker) C() <-chan time.Time { return it.t.C }
func (it *intervalTicker) Stop()               { it.t.Stop() }

// ManualTicker is a TickSource fired explicitly by the caller. Used with a
// virtual clock for deterministic round replays in tests.
type ManualTicker struct {
	ch chan time.Time
}

// NewManualTicker creates a ticker with a small buffer so Tick never blocks
// the driving test.
func NewManualTicker() *ManualTicker {
	return &ManualTicker{ch: make(chan time.Time, 1)}
}

func (m *ManualTicker) C() <-chan time.Time { return m.ch }
func (m *ManualTicker) Stop()               {}

// Tick fires one tick.
func (m *ManualTicker) Tick(at time.Time) { m.ch <- at }
