// Package abort provides the cancellation sources polled by the watcher.
package abort

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// Source reports whether the operator asked to abort. It is polled, so
// implementations must not block.
type Source interface {
	Triggered() bool
}

// Func adapts a plain function to Source
type Func func() bool

func (f Func) Triggered() bool { return f() }

// Never is a source that never fires
var Never Source = Func(func() bool { return false })

// Flag is a manually tripped source, used by the HTTP monitor and tests
type Flag struct {
	set atomic.Bool
}

// Trip fires the flag
func (f *Flag) Trip() {
	f.set.Store(true)
}

// Clear re-arms the flag for the next run
func (f *Flag) Clear() {
	f.set.Store(false)
}

func (f *Flag) Triggered() bool {
	return f.set.Load()
}

// Any fires when any of its members fires
type Any []Source

func (a Any) Triggered() bool {
	for _, s := range a {
		if s != nil && s.Triggered() {
			return true
		}
	}
	return false
}

// Signal turns SIGINT/SIGTERM into a level-triggered source
type Signal struct {
	ch   chan os.Signal
	flag Flag
	done chan struct{}
}

// NewSignal starts listening. Call Stop to restore default handling.
func NewSignal() *Signal {
	s := &Signal{
		ch:   make(chan os.Signal, 1),
		done: make(chan struct{}),
	}
	signal.Notify(s.ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-s.ch:
			s.flag.Trip()
		case <-s.done:
		}
	}()
	return s
}

func (s *Signal) Triggered() bool {
	return s.flag.Triggered()
}

// Stop unregisters the signal handler
func (s *Signal) Stop() {
	signal.Stop(s.ch)
	close(s.done)
}
