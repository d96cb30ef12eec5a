package executor

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/v0xg/clickreplay/internal/script"
)

// ErrInjectorFailure wraps every error an Injector returns
var ErrInjectorFailure = errors.New("input injection failed")

// Injector performs the OS level effect of an action. It is only ever
// called from the engine goroutine.
type Injector interface {
	MoveClick(x, y int, button script.Button) error // move, press, release
	KeyPress(key script.Key) error                  // press, release
	Sleep(d time.Duration)
}

// Outcome is the terminal result of a run
type Outcome int

const (
	Completed Outcome = iota
	Interrupted
	EmergencyStopped
)

func (o Outcome) String() string {
	switch o {
	case Interrupted:
		return "interrupted"
	case EmergencyStopped:
		return "emergency_stopped"
	default:
		return "completed"
	}
}

// Message is the banner shown to the operator for the outcome
func (o Outcome) Message() string {
	switch o {
	case Interrupted:
		return "=== PROCEDURE INTERRUPTED ==="
	case EmergencyStopped:
		return "=== PROCEDURE TERMINATED BY EMERGENCY STOP ==="
	default:
		return "=== ALL ROUNDS COMPLETED SUCCESSFULLY! ==="
	}
}

// FailureMode decides what a failed injection does to the run
type FailureMode int

const (
	// Continue logs the failure and moves on to the next action
	Continue FailureMode = iota
	// Abort interrupts the run at the failed action
	Abort
)

// ParseFailureMode accepts "continue" or "abort"
func ParseFailureMode(s string) (FailureMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "continue":
		return Continue, nil
	case "abort":
		return Abort, nil
	default:
		return Continue, fmt.Errorf("unknown failure mode: %s (supported: continue, abort)", s)
	}
}

func (m FailureMode) String() string {
	if m == Abort {
		return "abort"
	}
	return "continue"
}

// FailurePolicy configures injector failure handling
type FailurePolicy struct {
	Mode    FailureMode
	Retries int // extra attempts before an action counts as failed
}

// dispatch performs one action on the injector. Delays never fail.
func (e *Engine) dispatch(inj Injector, a script.Action) error {
	switch a.Kind {
	case script.MoveClick:
		return inj.MoveClick(a.Point.X, a.Point.Y, a.Button)
	case script.KeyPress:
		return inj.KeyPress(a.Key)
	case script.Delay:
		e.sleep(inj, a.DurationMs)
		return nil
	default:
		e.log.WithField("kind", a.Kind).Warn("Unknown action in ClickScript, skipped")
		return nil
	}
}

// sleep honors the scripted duration, raised to the injector floor.
// With InterruptibleDelay the sleep is cut into poll sized slices and
// ends early once the run stops.
func (e *Engine) sleep(inj Injector, ms int) {
	d := time.Duration(ms) * time.Millisecond
	if d < e.opts.MinDelay {
		d = e.opts.MinDelay
	}
	if !e.opts.InterruptibleDelay {
		inj.Sleep(d)
		return
	}

	slice := e.opts.PollInterval
	for d > 0 {
		if e.stopping() {
			return
		}
		step := slice
		if d < step {
			step = d
		}
		inj.Sleep(step)
		d -= step
	}
}
