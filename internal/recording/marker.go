package recording

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/v0xg/clickreplay/internal/script"
)

var (
	markerFill = color.RGBA{255, 255, 255, 255}
	markerLine = color.RGBA{0, 0, 0, 255}
	markerRing = color.RGBA{66, 133, 244, 255}
	// Right clicks get a warmer ring so they are distinguishable in the clip
	markerRingRight = color.RGBA{234, 67, 53, 255}
)

// RippleRadius is the radius of the click ring
const RippleRadius = 15

// Marker describes what to draw on a frame
type Marker struct {
	X, Y   int
	Click  bool
	Button script.Button
}

// DrawMarker returns a copy of frame with the pointer and, for clicks, a
// ring drawn at the marker position
func DrawMarker(frame image.Image, m Marker) image.Image {
	bounds := frame.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, frame, bounds.Min, draw.Src)

	if m.Click {
		ring := markerRing
		if m.Button == script.ButtonRight {
			ring = markerRingRight
		}
		drawRing(result, m.X, m.Y, RippleRadius, ring)
	}
	drawPointer(result, m.X, m.Y)

	return result
}

func drawPointer(img *image.RGBA, x, y int) {
	outline := []struct{ dx, dy int }{
		{0, 0},
		{0, 16},
		{4, 12},
		{7, 18},
		{10, 17},
		{7, 11},
		{12, 11},
	}

	for dy := 0; dy < 18; dy++ {
		for dx := 0; dx < 13; dx++ {
			if insidePointer(dx, dy) {
				setPixel(img, x+dx, y+dy, markerFill)
			}
		}
	}

	for i := range outline {
		p1 := outline[i]
		p2 := outline[(i+1)%len(outline)]
		drawLine(img, x+p1.dx, y+p1.dy, x+p2.dx, y+p2.dy, markerLine)
	}
}

func insidePointer(dx, dy int) bool {
	if dy < 0 || dy > 16 || dx < 0 {
		return false
	}
	if dy <= 11 {
		return dx <= dy*12/16
	}
	return dx <= 4
}

// drawLine is Bresenham's line algorithm
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	for {
		setPixel(img, x1, y1, c)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func drawRing(img *image.RGBA, x, y, radius int, c color.RGBA) {
	for angle := 0.0; angle < 360; angle++ {
		rad := angle * math.Pi / 180
		px := x + int(math.Round(float64(radius)*math.Cos(rad)))
		py := y + int(math.Round(float64(radius)*math.Sin(rad)))
		setPixel(img, px, py, c)
		setPixel(img, px+1, py, c)
		setPixel(img, px, py+1, c)
	}
}

func setPixel(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
