// Package watcher runs the background poll loop that turns an abort
// source into a one-shot emergency stop and pushes progress snapshots.
package watcher

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/v0xg/clickreplay/internal/abort"
	"github.com/v0xg/clickreplay/internal/progress"
	"github.com/v0xg/clickreplay/internal/runstate"
)

// DefaultInterval is the poll period of the reference design
const DefaultInterval = 50 * time.Millisecond

// Options configures a watcher
type Options struct {
	Interval time.Duration
	Log      logrus.FieldLogger
}

// Watcher polls an abort source for the duration of one run
type Watcher struct {
	state    *runstate.State
	source   abort.Source
	sink     progress.Sink
	interval time.Duration
	log      logrus.FieldLogger

	stopCh    chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
	triggered atomic.Bool

	// last progress pushed, owned by the loop goroutine
	pushed int
}

// Start launches the poll loop. sink may be nil.
func Start(state *runstate.State, source abort.Source, sink progress.Sink, opts Options) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		opts.Log = l
	}
	if source == nil {
		source = abort.Never
	}
	if sink == nil {
		sink = progress.Nop{}
	}

	w := &Watcher{
		state:    state,
		source:   source,
		sink:     sink,
		interval: opts.Interval,
		log:      opts.Log,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.loop()
	w.log.Info("Emergency listener started")
	return w
}

func (w *Watcher) loop() {
	defer close(w.done)
	w.log.Debug("Emergency listener running")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			w.log.Debug("Emergency listener exiting")
			return
		case <-ticker.C:
		}

		if w.Poll() {
			return
		}

		if w.state.IsRunning() {
			total := w.state.Total()
			if current := w.state.Current(); total > 0 && current > w.pushed {
				w.pushed = current
				w.sink.Update(current, total)
			}
		}
	}
}

// Poll checks the source once on the caller's goroutine and fires the
// emergency stop if it is tripped while a run is active. It reports
// whether the watcher has fired. Safe to call alongside the loop.
func (w *Watcher) Poll() bool {
	if w.triggered.Load() {
		return true
	}
	if !w.source.Triggered() || !w.state.IsRunning() {
		return false
	}
	if w.triggered.CompareAndSwap(false, true) {
		w.state.RequestCancel()
		w.state.SetRunning(false)
		w.log.Debug("Emergency listener fired")
	}
	return true
}

// Stop asks the loop to exit and waits for it. It returns within one
// poll interval and is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
	<-w.done
	w.log.Info("Emergency listener stopped")
}

// Done is closed once the loop has exited
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Triggered reports whether the watcher fired the emergency stop
func (w *Watcher) Triggered() bool {
	return w.triggered.Load()
}
