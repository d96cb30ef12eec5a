package injector

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"

	"github.com/v0xg/clickreplay/internal/script"
)

// Page is the part of a rod page the browser injector drives
type Page struct {
	Mouse    *rod.Mouse
	Keyboard *rod.Keyboard
}

// PageOf extracts the input devices of a rod page
func PageOf(p *rod.Page) Page {
	return Page{Mouse: p.Mouse, Keyboard: p.Keyboard}
}

// Browser replays actions inside a web page. Coordinates are viewport
// coordinates.
type Browser struct {
	page Page
}

// NewBrowser creates a browser injector
func NewBrowser(page Page) *Browser {
	return &Browser{page: page}
}

func (b *Browser) MoveClick(x, y int, button script.Button) error {
	if err := b.page.Mouse.MoveTo(proto.Point{X: float64(x), Y: float64(y)}); err != nil {
		return fmt.Errorf("mouse move failed: %w", err)
	}

	btn := proto.InputMouseButtonLeft
	if button == script.ButtonRight {
		btn = proto.InputMouseButtonRight
	}
	if err := b.page.Mouse.Click(btn, 1); err != nil {
		return fmt.Errorf("mouse click failed: %w", err)
	}
	return nil
}

func (b *Browser) KeyPress(key script.Key) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := b.page.Keyboard.Type(input.Enter); err != nil {
		return fmt.Errorf("key press failed: %w", err)
	}
	return nil
}

func (b *Browser) Sleep(d time.Duration) {
	time.Sleep(d)
}
