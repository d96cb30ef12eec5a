// Package progress defines the sink the engine reports loop progress to,
// plus the console implementations used by the CLI.
package progress

import (
	"fmt"
	"sync"
)

// State is the coarse visual state of a progress display
type State int

const (
	StateNone State = iota
	StateNormal
	StateError
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateError:
		return "error"
	case StatePaused:
		return "paused"
	default:
		return "none"
	}
}

// MarshalText lets State appear as a string in JSON payloads
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "none":
		*s = StateNone
	case "normal":
		*s = StateNormal
	case "error":
		*s = StateError
	case "paused":
		*s = StatePaused
	default:
		return fmt.Errorf("unknown progress state %q", text)
	}
	return nil
}

// Snapshot is one progress update
type Snapshot struct {
	Current int   `json:"current"`
	Total   int   `json:"total"`
	State   State `json:"state"`
}

// Percent returns the completion percentage
func (s Snapshot) Percent() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Current) / float64(s.Total) * 100
}

// Sink accepts progress updates for external display
type Sink interface {
	Update(current, total int)
	SetState(state State)
}

// Opener is implemented by sinks that need setup before a run.
// A failing Open makes the engine run without the sink.
type Opener interface {
	Open() error
}

// Closer is implemented by sinks holding resources
type Closer interface {
	Close() error
}

// Nop discards everything
type Nop struct{}

func (Nop) Update(int, int) {}
func (Nop) SetState(State)  {}

// Multi fans updates out to several sinks
type Multi []Sink

func (m Multi) Update(current, total int) {
	for _, s := range m {
		s.Update(current, total)
	}
}

func (m Multi) SetState(state State) {
	for _, s := range m {
		s.SetState(state)
	}
}

// Open opens every member. Members that fail are dropped from the
// returned set and their errors are collected.
func (m Multi) Open() (Multi, []error) {
	var (
		ok   Multi
		errs []error
	)
	for _, s := range m {
		if o, isOpener := s.(Opener); isOpener {
			if err := o.Open(); err != nil {
				errs = append(errs, err)
				continue
			}
		}
		ok = append(ok, s)
	}
	return ok, errs
}

// Close closes every member and returns the first error
func (m Multi) Close() error {
	var first error
	for _, s := range m {
		if c, isCloser := s.(Closer); isCloser {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// Tracker is a sink that remembers the latest snapshot. The monitor reads
// it to answer status requests.
type Tracker struct {
	mu   sync.Mutex
	last Snapshot
}

func (t *Tracker) Update(current, total int) {
	t.mu.Lock()
	t.last.Current = current
	t.last.Total = total
	t.mu.Unlock()
}

func (t *Tracker) SetState(state State) {
	t.mu.Lock()
	t.last.State = state
	t.mu.Unlock()
}

// Last returns the latest snapshot
func (t *Tracker) Last() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// Deduped forwards only values that move progress forward to the wrapped
// sink. The engine and the watcher both push through it, so observers see
// each (current, total) pair once and never see progress go backwards.
type Deduped struct {
	inner Sink

	mu        sync.Mutex
	hasUpdate bool
	current   int
	total     int
	hasState  bool
	state     State
}

// Dedup wraps sink
func Dedup(sink Sink) *Deduped {
	return &Deduped{inner: sink}
}

func (d *Deduped) Update(current, total int) {
	d.mu.Lock()
	// Repeats and stale values behind the last forwarded one are dropped
	if d.hasUpdate && d.total == total && current <= d.current {
		d.mu.Unlock()
		return
	}
	d.hasUpdate, d.current, d.total = true, current, total
	d.mu.Unlock()
	d.inner.Update(current, total)
}

func (d *Deduped) SetState(state State) {
	d.mu.Lock()
	if d.hasState && d.state == state {
		d.mu.Unlock()
		return
	}
	d.hasState, d.state = true, state
	d.mu.Unlock()
	d.inner.SetState(state)
}

// Close closes the wrapped sink if it holds resources
func (d *Deduped) Close() error {
	if c, ok := d.inner.(Closer); ok {
		return c.Close()
	}
	return nil
}
