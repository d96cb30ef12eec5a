//go:build !windows

package injector

import (
	"errors"
	"time"

	"github.com/v0xg/clickreplay/internal/script"
)

// ErrUnsupported is returned where desktop input is not available
var ErrUnsupported = errors.New("desktop input injection is only supported on Windows")

// Desktop is unavailable on this platform
type Desktop struct{}

// NewDesktop always fails outside Windows; use --browser or --dry-run
func NewDesktop() (*Desktop, error) {
	return nil, ErrUnsupported
}

func (*Desktop) MoveClick(int, int, script.Button) error { return ErrUnsupported }
func (*Desktop) KeyPress(script.Key) error               { return ErrUnsupported }
func (*Desktop) Sleep(d time.Duration)                   { time.Sleep(d) }

// CursorPosition is unavailable on this platform
func CursorPosition() (int, int, error) {
	return 0, 0, ErrUnsupported
}
