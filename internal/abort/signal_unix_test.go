//go:build !windows

package abort

import (
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignalTripsOnSIGTERM(t *testing.T) {
	s := NewSignal()
	defer s.Stop()

	assert.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))
	assert.Eventually(t, s.Triggered, time.Second, 5*time.Millisecond)
}
