package monocurl

import (
	"sync"
	"sync/atomic"
)

// Interrupter lets a host pause or cancel a running engine. Requested is
// polled between steps. PreInterrupt and PostInterrupt bracket the window
// between animation frames in which other goroutines may inspect state.
type Interrupter interface {
	Requested() bool
	PreInterrupt()
	PostInterrupt()
}

// Gate serializes access to an engine shared between a runner goroutine
// and readers such as a file watcher or a player UI. Writers queue on Do;
// the running writer observes Requested and yields at its next interrupt
// check. View runs between animation frames or while nothing is running.
type Gate struct {
	writer  sync.Mutex
	state   sync.Mutex
	waiting atomic.Int32
}

// Do runs fn with exclusive access. A pending Do asks the current holder
// to stop via Requested.
func (g *Gate) Do(fn func() error) error {
	g.waiting.Add(1)
	g.writer.Lock()
	g.waiting.Add(-1)
	defer g.writer.Unlock()

	g.state.Lock()
	defer g.state.Unlock()
	return fn()
}

// View runs fn while no writer is touching engine state.
func (g *Gate) View(fn func()) {
	g.state.Lock()
	defer g.state.Unlock()
	fn()
}

func (g *Gate) Requested() bool {
	return g.waiting.Load() > 0
}

// PreInterrupt releases engine state to viewers. It must only be called
// from inside Do.
func (g *Gate) PreInterrupt() {
	g.state.Unlock()
}

func (g *Gate) PostInterrupt() {
	g.state.Lock()
}

var _ Interrupter = (*Gate)(nil)
