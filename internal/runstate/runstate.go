// Package runstate tracks the run/cancel flags and the loop progress shared
// between the execution engine, the cancellation watcher and observers.
//
// Every field is an independent atomic scalar. Readers may observe
// current/total and the flags in a transiently inconsistent
// combination; nothing relies on reading them together.
package runstate

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Notifier receives the user-visible emergency stop notice
type Notifier func()

// State is the process-wide run record
type State struct {
	running         atomic.Bool
	cancelRequested atomic.Bool
	current         atomic.Int64
	total           atomic.Int64

	log    logrus.FieldLogger
	notify Notifier
}

// Snapshot is a point-in-time copy of State
type Snapshot struct {
	Running   bool `json:"running"`
	Cancelled bool `json:"cancelled"`
	Current   int  `json:"current"`
	Total     int  `json:"total"`
}

// New creates a State. notify may be nil.
func New(log logrus.FieldLogger, notify Notifier) *State {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &State{log: log, notify: notify}
}

// Reset clears every field. It must not run concurrently with a run.
func (s *State) Reset() {
	s.running.Store(false)
	s.cancelRequested.Store(false)
	s.current.Store(0)
	s.total.Store(0)
}

// BeginRun marks the state running with the given loop total
func (s *State) BeginRun(total int) {
	if total < 0 {
		total = 0
	}
	s.current.Store(0)
	s.total.Store(int64(total))
	s.running.Store(true)
}

// RequestCancel sets the cancel flag. Only the false→true transition logs
// and notifies; the return value reports whether this call made it.
func (s *State) RequestCancel() bool {
	if !s.cancelRequested.CompareAndSwap(false, true) {
		return false
	}
	s.log.Info("Emergency stop activated!")
	if s.notify != nil {
		s.notify()
	}
	return true
}

// SetRunning sets the running flag
func (s *State) SetRunning(running bool) {
	s.running.Store(running)
}

// Advance records the current iteration. Values never move backwards
// and are clamped to the total.
func (s *State) Advance(current int) {
	v := int64(current)
	if t := s.total.Load(); v > t {
		v = t
	}
	if v < s.current.Load() {
		return
	}
	s.current.Store(v)
}

// IsCancelled reports whether a cancel was requested in this run
func (s *State) IsCancelled() bool {
	return s.cancelRequested.Load()
}

// IsRunning reports the running flag
func (s *State) IsRunning() bool {
	return s.running.Load()
}

// Current returns the last advanced iteration
func (s *State) Current() int {
	return int(s.current.Load())
}

// Total returns the loop total of the run
func (s *State) Total() int {
	return int(s.total.Load())
}

// Snapshot reads each field once
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Running:   s.running.Load(),
		Cancelled: s.cancelRequested.Load(),
		Current:   int(s.current.Load()),
		Total:     int(s.total.Load()),
	}
}
