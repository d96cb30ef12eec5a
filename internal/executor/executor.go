// Package executor replays a script for a number of rounds against an
// Injector, observing emergency stops at action boundaries.
package executor

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/v0xg/clickreplay/internal/abort"
	"github.com/v0xg/clickreplay/internal/progress"
	"github.com/v0xg/clickreplay/internal/runstate"
	"github.com/v0xg/clickreplay/internal/script"
	"github.com/v0xg/clickreplay/internal/watcher"
)

// Options configures execution behavior
type Options struct {
	PollInterval       time.Duration // watcher tick, also the slice for interruptible delays
	MinDelay           time.Duration // floor of the sleep primitive
	InterruptibleDelay bool
	Failure            FailurePolicy
	HoldTerminal       time.Duration // keep the terminal sink state visible before release

	// AfterIteration runs after every completed round. Errors are logged.
	AfterIteration func(round int) error

	Verbose bool
	Out     io.Writer // verbose per-action lines
	Log     logrus.FieldLogger
}

// Result holds the details of a finished run
type Result struct {
	RunID      string
	Outcome    Outcome
	Iterations int // rounds started
	Dispatched int // actions handed to the injector
	Failures   int // actions that failed after retries
}

// Engine runs one script at a time against a shared run state
type Engine struct {
	state *runstate.State
	opts  Options

	mu    sync.Mutex
	log   logrus.FieldLogger
	runID string
}

// New creates an engine bound to state
func New(state *runstate.State, opts Options) *Engine {
	if opts.PollInterval <= 0 {
		opts.PollInterval = watcher.DefaultInterval
	}
	if opts.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Log = l
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	return &Engine{state: state, opts: opts, log: opts.Log}
}

// State returns the run state the engine writes
func (e *Engine) State() *runstate.State {
	return e.state
}

// RunID returns the id of the current or last run
func (e *Engine) RunID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runID
}

// Run replays s loopCount times and returns the terminal outcome
func (e *Engine) Run(ctx context.Context, s *script.Script, loopCount int, inj Injector, src abort.Source, sink progress.Sink) (Outcome, error) {
	res, err := e.RunDetailed(ctx, s, loopCount, inj, src, sink)
	return res.Outcome, err
}

// RunDetailed is Run with the per-run counters
func (e *Engine) RunDetailed(ctx context.Context, s *script.Script, loopCount int, inj Injector, src abort.Source, sink progress.Sink) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Outcome: Completed}

	e.mu.Lock()
	e.runID = res.RunID
	e.log = e.opts.Log.WithField("run", res.RunID)
	e.mu.Unlock()

	if loopCount <= 0 {
		e.state.Reset()
		e.log.Info("Zero rounds requested, nothing to execute")
		return res, nil
	}

	e.state.Reset()
	sink = progress.Dedup(e.openSink(sink))
	w := watcher.Start(e.state, src, sink, watcher.Options{Interval: e.opts.PollInterval, Log: e.log})
	e.state.BeginRun(loopCount)
	sink.SetState(progress.StateNormal)

	stopCtx := e.watchContext(ctx)
	defer func() {
		e.state.SetRunning(false)
		stopCtx()
		w.Stop()
		e.releaseSink(sink)
	}()

	e.log.WithField("rounds", loopCount).Infof("ClickScript procedure will execute %d rounds", loopCount)

	var runErr error
	finished := true
	for i := 0; i < loopCount; i++ {
		w.Poll()
		if outcome, stopped := e.check(i + 1); stopped {
			res.Outcome = outcome
			finished = false
			break
		}

		e.log.Debugf("=== Executing ClickScript round %d of %d ===", i+1, loopCount)
		e.state.Advance(i + 1)
		sink.Update(i+1, loopCount)
		res.Iterations = i + 1

		if err := e.runRound(s, inj, res); err != nil && runErr == nil {
			runErr = err
		}

		if e.opts.AfterIteration != nil && !e.stopping() {
			if err := e.opts.AfterIteration(i + 1); err != nil {
				e.log.WithError(err).Warn("After-round hook failed")
			}
		}
	}

	// A stop raised during the last round is only visible here
	if finished {
		w.Poll()
		if outcome, stopped := e.check(loopCount); stopped {
			res.Outcome = outcome
		}
	}

	e.finish(res, sink, loopCount)
	return res, runErr
}

// check applies the stop precedence at a round boundary: an emergency
// stop wins over a plain interrupt.
func (e *Engine) check(round int) (Outcome, bool) {
	if e.state.IsCancelled() {
		e.log.Warnf("ClickScript procedure emergency stopped at round %d", round)
		return EmergencyStopped, true
	}
	if !e.state.IsRunning() {
		e.log.Infof("ClickScript procedure interrupted at round %d", round)
		return Interrupted, true
	}
	return Completed, false
}

func (e *Engine) stopping() bool {
	return e.state.IsCancelled() || !e.state.IsRunning()
}

// runRound dispatches every action of s once. It returns early, without
// error, when the run stops between actions.
func (e *Engine) runRound(s *script.Script, inj Injector, res *Result) error {
	n := s.Len()
	for i := 0; i < n; i++ {
		if e.stopping() {
			return nil
		}
		a := s.At(i)
		if e.opts.Verbose {
			fmt.Fprintf(e.opts.Out, "  [%d/%d] %s", i+1, n, a.Describe())
		}

		err := e.dispatchWithRetry(inj, a)
		res.Dispatched++
		if err == nil {
			if e.opts.Verbose {
				fmt.Fprintln(e.opts.Out, " ✓")
			}
			continue
		}

		if e.opts.Verbose {
			fmt.Fprintf(e.opts.Out, " ✗ (%v)\n", err)
		}
		res.Failures++
		e.log.WithError(err).WithField("action", a.Source()).Warn("Action failed")

		if e.opts.Failure.Mode == Abort {
			e.state.SetRunning(false)
			return fmt.Errorf("%w: %s: %v", ErrInjectorFailure, a.Source(), err)
		}
	}
	return nil
}

func (e *Engine) dispatchWithRetry(inj Injector, a script.Action) error {
	var err error
	for attempt := 0; attempt <= e.opts.Failure.Retries; attempt++ {
		if err = e.dispatch(inj, a); err == nil {
			return nil
		}
		if attempt < e.opts.Failure.Retries {
			e.log.WithError(err).Debugf("Retrying %s (%d/%d)", a.Source(), attempt+1, e.opts.Failure.Retries)
		}
	}
	return err
}

// watchContext turns ctx cancellation into an external interrupt. The
// returned func stops and joins the helper goroutine.
func (e *Engine) watchContext(ctx context.Context) func() {
	if ctx == nil || ctx.Done() == nil {
		return func() {}
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			e.log.Info("Run context cancelled")
			e.state.SetRunning(false)
		case <-done:
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

func (e *Engine) finish(res *Result, sink progress.Sink, loopCount int) {
	switch res.Outcome {
	case Completed:
		e.log.Info("All rounds completed successfully!")
		sink.SetState(progress.StateNormal)
		sink.Update(loopCount, loopCount)
	case EmergencyStopped:
		e.log.Warn("Procedure terminated by emergency stop")
		sink.SetState(progress.StateError)
	case Interrupted:
		e.log.Info("Procedure interrupted")
		sink.SetState(progress.StatePaused)
	}
	e.log.WithFields(logrus.Fields{
		"outcome":    res.Outcome.String(),
		"rounds":     res.Iterations,
		"dispatched": res.Dispatched,
		"failures":   res.Failures,
	}).Info("ClickScript procedure completed")

	if e.opts.HoldTerminal > 0 {
		time.Sleep(e.opts.HoldTerminal)
	}
}

// openSink prepares sink for the run. A missing or failing sink is
// replaced so the run proceeds without progress reporting.
func (e *Engine) openSink(sink progress.Sink) progress.Sink {
	if sink == nil {
		return progress.Nop{}
	}
	if m, ok := sink.(progress.Multi); ok {
		opened, errs := m.Open()
		for _, err := range errs {
			e.log.WithError(err).Warn("Progress sink unavailable, continuing without it")
		}
		return opened
	}
	if o, ok := sink.(progress.Opener); ok {
		if err := o.Open(); err != nil {
			e.log.WithError(err).Warn("Progress sink unavailable, continuing without it")
			return progress.Nop{}
		}
	}
	return sink
}

func (e *Engine) releaseSink(sink progress.Sink) {
	c, ok := sink.(progress.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		e.log.WithError(err).Warn("Failed to release progress sink")
	}
	e.log.Debug("Resources cleaned up")
}
