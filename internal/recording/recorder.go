// Package recording captures a frame after every replayed action and
// encodes the result as an animated GIF.
package recording

import (
	"errors"
	"image"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/v0xg/clickreplay/internal/executor"
	"github.com/v0xg/clickreplay/internal/script"
)

// ErrNoFrames is returned when there is nothing to encode
var ErrNoFrames = errors.New("no frames recorded")

// DefaultMaxFrames bounds memory for long runs
const DefaultMaxFrames = 600

// Capturer grabs the current view
type Capturer interface {
	Screenshot() (image.Image, error)
}

// Options configures a Recorder
type Options struct {
	MaxFrames int
	Log       logrus.FieldLogger
}

// Recorder is an executor.Injector that forwards every call and captures
// a frame afterwards
type Recorder struct {
	next    executor.Injector
	capture Capturer
	max     int
	log     logrus.FieldLogger

	mu      sync.Mutex
	frames  []image.Image
	pointer Marker
	dropped int
}

// New wraps next so that each action is followed by a screen capture
func New(next executor.Injector, capture Capturer, opts Options) *Recorder {
	if opts.MaxFrames <= 0 {
		opts.MaxFrames = DefaultMaxFrames
	}
	if opts.Log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		opts.Log = l
	}
	return &Recorder{next: next, capture: capture, max: opts.MaxFrames, log: opts.Log}
}

func (r *Recorder) MoveClick(x, y int, button script.Button) error {
	err := r.next.MoveClick(x, y, button)

	r.mu.Lock()
	r.pointer = Marker{X: x, Y: y}
	r.mu.Unlock()

	r.snap(Marker{X: x, Y: y, Click: err == nil, Button: button})
	return err
}

func (r *Recorder) KeyPress(key script.Key) error {
	err := r.next.KeyPress(key)
	r.snap(r.current())
	return err
}

func (r *Recorder) Sleep(d time.Duration) {
	r.next.Sleep(d)
	r.snap(r.current())
}

// Frames returns the captured frames
func (r *Recorder) Frames() []image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]image.Image(nil), r.frames...)
}

// Dropped reports how many captures were skipped after the frame limit
func (r *Recorder) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Save encodes the captured frames to path
func (r *Recorder) Save(path string, opts GIFOptions) (int64, error) {
	return WriteFile(path, r.Frames(), opts)
}

func (r *Recorder) current() Marker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pointer
}

func (r *Recorder) snap(m Marker) {
	r.mu.Lock()
	full := len(r.frames) >= r.max
	if full {
		r.dropped++
	}
	r.mu.Unlock()
	if full {
		return
	}

	img, err := r.capture.Screenshot()
	if err != nil {
		r.log.WithError(err).Warn("Frame capture failed")
		return
	}

	frame := DrawMarker(img, m)

	r.mu.Lock()
	r.frames = append(r.frames, frame)
	r.mu.Unlock()
}
