package runstate

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func TestResetClearsEverything(t *testing.T) {
	s := New(nil, nil)
	s.BeginRun(5)
	s.Advance(3)
	s.RequestCancel()

	s.Reset()
	assert.Equal(t, Snapshot{}, s.Snapshot())
}

func TestBeginRun(t *testing.T) {
	s := New(nil, nil)
	s.BeginRun(7)

	assert.True(t, s.IsRunning())
	assert.False(t, s.IsCancelled())
	assert.Equal(t, 0, s.Current())
	assert.Equal(t, 7, s.Total())
}

func TestRequestCancelIsIdempotent(t *testing.T) {
	log, hook := test.NewNullLogger()
	var notified int
	s := New(log, func() { notified++ })
	s.BeginRun(2)

	assert.True(t, s.RequestCancel())
	once := s.Snapshot()
	assert.False(t, s.RequestCancel())

	assert.Equal(t, once, s.Snapshot())
	assert.Equal(t, 1, notified)
	assert.Len(t, hook.AllEntries(), 1)
}

func TestRequestCancelConcurrent(t *testing.T) {
	var notified atomic.Int32
	s := New(nil, func() { notified.Add(1) })
	s.BeginRun(1)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RequestCancel()
		}()
	}
	wg.Wait()

	assert.True(t, s.IsCancelled())
	assert.Equal(t, int32(1), notified.Load())
}

func TestCancelNotifiesAgainAfterReset(t *testing.T) {
	var notified int
	s := New(nil, func() { notified++ })

	s.BeginRun(1)
	s.RequestCancel()
	s.Reset()
	s.BeginRun(1)
	s.RequestCancel()

	assert.Equal(t, 2, notified)
}

func TestAdvanceIsMonotonicAndClamped(t *testing.T) {
	s := New(nil, nil)
	s.BeginRun(3)

	s.Advance(2)
	s.Advance(1)
	assert.Equal(t, 2, s.Current())

	s.Advance(10)
	assert.Equal(t, 3, s.Current())
}

func TestBeginRunNegativeTotal(t *testing.T) {
	s := New(nil, nil)
	s.BeginRun(-4)
	assert.Equal(t, 0, s.Total())
}
