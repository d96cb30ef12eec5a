// Package browser launches the Chromium page used as a replay target when
// scripts are exercised against a web app instead of the desktop.
package browser

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Options configures the browser session
type Options struct {
	Width      int
	Height     int
	Timeout    time.Duration
	Headless   bool
	ProfileDir string // Chrome/Chromium profile directory for authenticated sessions
}

// Info describes the loaded page
type Info struct {
	URL   string
	Title string
}

// Browser wraps the Rod browser and page for reuse
type Browser struct {
	browser *rod.Browser
	page    *rod.Page
}

// trackPointer records the last pointer position so the position probe
// can report page coordinates
const trackPointer = `() => {
	window.__clickreplayPos = {x: 0, y: 0};
	document.addEventListener('mousemove', e => { window.__clickreplayPos = {x: e.clientX, y: e.clientY}; }, true);
}`

// Open launches a browser and navigates to url
func Open(url string, opts Options) (*Browser, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Width == 0 {
		opts.Width = 1280
	}
	if opts.Height == 0 {
		opts.Height = 720
	}

	path, _ := launcher.LookPath()
	l := launcher.New().Bin(path).Headless(opts.Headless)
	if opts.ProfileDir != "" {
		l = l.UserDataDir(opts.ProfileDir)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to open %s: %w", url, err)
	}

	b := &Browser{browser: browser, page: page}

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            opts.Height,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}

	if err := page.Timeout(opts.Timeout).WaitLoad(); err != nil {
		b.Close()
		return nil, fmt.Errorf("page did not load: %w", err)
	}

	// Don't hang on persistent connections (WebSockets, polling, etc.)
	page.Timeout(5*time.Second).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()

	if _, err := page.Eval(trackPointer); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to install pointer tracker: %w", err)
	}

	return b, nil
}

// Close cleans up browser resources
func (b *Browser) Close() {
	if b.page != nil {
		b.page.Close()
	}
	if b.browser != nil {
		b.browser.Close()
	}
}

// Page returns the underlying Rod page
func (b *Browser) Page() *rod.Page {
	return b.page
}

// Info returns the current URL and title
func (b *Browser) Info() (Info, error) {
	res, err := b.page.Eval(`() => ({url: window.location.href, title: document.title})`)
	if err != nil {
		return Info{}, err
	}
	return Info{
		URL:   res.Value.Get("url").String(),
		Title: res.Value.Get("title").String(),
	}, nil
}

// PointerPosition returns the last pointer position seen by the page
func (b *Browser) PointerPosition() (int, int, error) {
	res, err := b.page.Eval(`() => window.__clickreplayPos || {x: 0, y: 0}`)
	if err != nil {
		return 0, 0, err
	}
	return res.Value.Get("x").Int(), res.Value.Get("y").Int(), nil
}

// Screenshot captures the viewport as an image
func (b *Browser) Screenshot() (image.Image, error) {
	quality := 90
	data, err := b.page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatPng,
		Quality: &quality,
	})
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return img, nil
}
