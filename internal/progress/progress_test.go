package progress

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type failingSink struct {
	Nop
	closed bool
}

func (f *failingSink) Open() error  { return errors.New("no taskbar") }
func (f *failingSink) Close() error { f.closed = true; return nil }

func TestTitleWritesProgress(t *testing.T) {
	var buf bytes.Buffer
	title := NewTitle(&buf)

	title.Update(1, 4)
	title.Update(1, 4)
	assert.Equal(t, "\033]0;ClickScript - Progress: 1/4 (25.0%)\007", buf.String())

	title.Update(2, 4)
	title.SetState(StateError)
	assert.True(t, strings.HasSuffix(buf.String(), "2/4 (50.0%) [STOPPED]\007"))

	assert.NoError(t, title.Close())
	assert.True(t, strings.HasSuffix(buf.String(), "\033]0;ClickScript - Ready\007"))
}

func TestTitleShowsPausedWithoutUpdate(t *testing.T) {
	var buf bytes.Buffer
	title := NewTitle(&buf)

	title.SetState(StateNormal)
	assert.Empty(t, buf.String())

	title.Update(3, 5)
	title.SetState(StatePaused)
	assert.Contains(t, buf.String(), "\033]0;ClickScript - Progress: 3/5 (60.0%) [PAUSED]\007")
}

func TestConsoleTitleText(t *testing.T) {
	assert.Equal(t, "ClickScript - Progress: 1/2 (50.0%) (Press ESC to stop)", consoleTitle(1, 2, StateNormal))
	assert.Equal(t, "ClickScript - Stopped at 1/2", consoleTitle(1, 2, StateError))
	assert.Equal(t, "ClickScript - Paused at 1/2", consoleTitle(1, 2, StatePaused))
}

func TestDedupDropsStaleUpdates(t *testing.T) {
	tracker := &Tracker{}
	var seen [][2]int
	d := Dedup(Multi{tracker, sinkFunc(func(c, total int) { seen = append(seen, [2]int{c, total}) })})

	d.Update(1, 3)
	d.Update(2, 3)
	d.Update(1, 3)
	d.Update(2, 3)
	d.Update(3, 3)

	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, seen)
	assert.Equal(t, 3, tracker.Last().Current)
}

// sinkFunc adapts a function to Sink for tests
type sinkFunc func(current, total int)

func (f sinkFunc) Update(current, total int) { f(current, total) }
func (f sinkFunc) SetState(State)            {}

func TestTitleIgnoresZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	NewTitle(&buf).Update(0, 0)
	assert.Empty(t, buf.String())
}

func TestLinePrintsEachRoundOnce(t *testing.T) {
	var buf bytes.Buffer
	l := NewLine(&buf)

	l.Update(1, 2)
	l.Update(1, 2)
	l.Update(2, 2)
	l.SetState(StatePaused)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "round 1 of 2"))
	assert.Contains(t, out, "round 2 of 2")
	assert.Contains(t, out, "interrupted")
}

func TestMultiOpenDropsFailingSinks(t *testing.T) {
	tracker := &Tracker{}
	bad := &failingSink{}

	m, errs := Multi{tracker, bad}.Open()
	assert.Len(t, errs, 1)
	assert.Len(t, m, 1)

	m.Update(3, 5)
	m.SetState(StateNormal)
	assert.Equal(t, Snapshot{Current: 3, Total: 5, State: StateNormal}, tracker.Last())

	assert.NoError(t, m.Close())
	assert.False(t, bad.closed)
}

func TestSnapshotPercent(t *testing.T) {
	assert.Equal(t, 0.0, Snapshot{}.Percent())
	assert.Equal(t, 100.0, Snapshot{Current: 3, Total: 3}.Percent())
}

func TestStateText(t *testing.T) {
	b, err := StatePaused.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "paused", string(b))
	assert.Equal(t, "none", State(42).String())

	var st State
	assert.NoError(t, st.UnmarshalText([]byte("error")))
	assert.Equal(t, StateError, st)
	assert.Error(t, st.UnmarshalText([]byte("bogus")))
}
