// Package injector contains the Injector implementations the CLI can
// replay against: a dry-run logger, a rod browser page and, on Windows,
// the desktop via SendInput.
package injector

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/v0xg/clickreplay/internal/script"
)

// Call is one recorded injector invocation
type Call struct {
	Action script.Action
	At     time.Time
}

// Log performs nothing on the system. It logs every action and keeps
// the call history, which makes it the dry-run target.
type Log struct {
	log   logrus.FieldLogger
	sleep bool

	mu    sync.Mutex
	calls []Call
}

// NewLog creates a dry-run injector. When sleep is false delays return
// immediately.
func NewLog(log logrus.FieldLogger, sleep bool) *Log {
	return &Log{log: log, sleep: sleep}
}

func (l *Log) MoveClick(x, y int, button script.Button) error {
	l.record(script.Click(x, y, button))
	l.log.Debugf("Simulating %s click at (%d, %d)", button, x, y)
	return nil
}

func (l *Log) KeyPress(key script.Key) error {
	l.record(script.Press(key))
	l.log.Debugf("Simulating %s key press", key)
	return nil
}

func (l *Log) Sleep(d time.Duration) {
	l.record(script.Wait(int(d / time.Millisecond)))
	l.log.Debugf("Simulating delay of %s", d)
	if l.sleep {
		time.Sleep(d)
	}
}

// Calls returns the recorded history
func (l *Log) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Call(nil), l.calls...)
}

func (l *Log) record(a script.Action) {
	l.mu.Lock()
	l.calls = append(l.calls, Call{Action: a, At: time.Now()})
	l.mu.Unlock()
}

// ValidateKey reports whether key can be injected
func ValidateKey(key script.Key) error {
	if key != script.KeyEnter {
		return fmt.Errorf("invalid key for simulation: %d", key)
	}
	return nil
}
