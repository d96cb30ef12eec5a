package recording

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"os"
	"sort"

	"github.com/nfnt/resize"
)

// GIFOptions configures GIF encoding
type GIFOptions struct {
	// FrameDelay is the display time of a frame in 100ths of a second
	FrameDelay int
	MaxWidth   uint
}

// Encode writes frames to w as a looping GIF
func Encode(w io.Writer, frames []image.Image, opts GIFOptions) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	if opts.FrameDelay <= 0 {
		opts.FrameDelay = 50
	}

	bounds := frames[0].Bounds()
	outputWidth := opts.MaxWidth
	if outputWidth == 0 || outputWidth > uint(bounds.Dx()) {
		outputWidth = uint(bounds.Dx())
	}
	aspectRatio := float64(bounds.Dy()) / float64(bounds.Dx())
	outputHeight := uint(float64(outputWidth) * aspectRatio)
	if outputHeight == 0 {
		outputHeight = 1
	}

	g := &gif.GIF{
		Image:     make([]*image.Paletted, len(frames)),
		Delay:     make([]int, len(frames)),
		LoopCount: 0,
	}

	// One palette for the whole clip keeps colors stable between frames
	palette := buildPalette(frames[0])

	for i, frame := range frames {
		resized := frame
		if uint(frame.Bounds().Dx()) != outputWidth {
			resized = resize.Resize(outputWidth, outputHeight, frame, resize.Lanczos3)
		}

		paletted := image.NewPaletted(resized.Bounds(), palette)
		draw.FloydSteinberg.Draw(paletted, resized.Bounds(), resized, resized.Bounds().Min)

		g.Image[i] = paletted
		g.Delay[i] = opts.FrameDelay
	}

	if err := gif.EncodeAll(w, g); err != nil {
		return fmt.Errorf("gif encode failed: %w", err)
	}
	return nil
}

// WriteFile encodes frames to path and returns the file size
func WriteFile(path string, frames []image.Image, opts GIFOptions) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := Encode(f, frames, opts); err != nil {
		return 0, err
	}

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// buildPalette picks the 255 most frequent colors of img plus transparency
func buildPalette(img image.Image) color.Palette {
	bounds := img.Bounds()
	colorMap := make(map[color.RGBA]int)

	step := 4 // Sample every 4th pixel
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, a := img.At(x, y).RGBA()
			c := color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
			colorMap[c]++
		}
	}

	type colorCount struct {
		c     color.RGBA
		count int
	}
	colors := make([]colorCount, 0, len(colorMap))
	for c, count := range colorMap {
		colors = append(colors, colorCount{c, count})
	}
	sort.Slice(colors, func(i, j int) bool {
		if colors[i].count != colors[j].count {
			return colors[i].count > colors[j].count
		}
		return packRGBA(colors[i].c) < packRGBA(colors[j].c)
	})

	palette := make(color.Palette, 0, 256)
	palette = append(palette, color.RGBA{0, 0, 0, 0})
	palette = append(palette, markerFill, markerRing)

	for i := 0; i < len(colors) && len(palette) < 256; i++ {
		palette = append(palette, colors[i].c)
	}

	// Pad with grayscale
	for len(palette) < 256 {
		gray := uint8(len(palette))
		palette = append(palette, color.RGBA{gray, gray, gray, 255})
	}

	return palette
}

func packRGBA(c color.RGBA) uint32 {
	return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
}
