package media

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
)

// Frames decodes every frame of a GIF into full images. GIF frames are
// often partial rectangles painted over the previous frame, so each one
// is coalesced onto the accumulated canvas according to its disposal
// mode before being returned.
func Frames(data []byte) ([]*image.RGBA, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode gif: %w", err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("gif has no frames")
	}

	bounds := canvasBounds(g)
	canvas := image.NewRGBA(bounds)
	frames := make([]*image.RGBA, 0, len(g.Image))

	for i, src := range g.Image {
		var restore *image.RGBA
		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalPrevious {
			restore = cloneRGBA(canvas)
		}

		draw.Draw(canvas, src.Bounds(), src, src.Bounds().Min, draw.Over)
		frames = append(frames, cloneRGBA(canvas))

		if i < len(g.Disposal) {
			switch g.Disposal[i] {
			case gif.DisposalBackground:
				draw.Draw(canvas, src.Bounds(), image.Transparent, image.Point{}, draw.Src)
			case gif.DisposalPrevious:
				canvas = restore
			}
		}
	}

	return frames, nil
}

// KeyFrames picks n evenly spaced coalesced frames. The first and last
// frames are always included when n > 1, so an animation's start and
// end survive the sampling.
func KeyFrames(data []byte, n int) ([]*image.RGBA, error) {
	if n < 1 {
		return nil, fmt.Errorf("key frame count must be positive, got %d", n)
	}

	frames, err := Frames(data)
	if err != nil {
		return nil, err
	}
	if n >= len(frames) {
		return frames, nil
	}
	if n == 1 {
		return frames[:1], nil
	}

	picked := make([]*image.RGBA, 0, n)
	last := len(frames) - 1
	for i := 0; i < n; i++ {
		idx := i * last / (n - 1)
		picked = append(picked, frames[idx])
	}
	return picked, nil
}

// coalesce renders frame idx of a decoded GIF onto a fresh canvas,
// compositing all prior frames per their disposal modes.
func coalesce(g *gif.GIF, idx int) *image.RGBA {
	canvas := image.NewRGBA(canvasBounds(g))
	for i := 0; i <= idx && i < len(g.Image); i++ {
		src := g.Image[i]
		draw.Draw(canvas, src.Bounds(), src, src.Bounds().Min, draw.Over)
		if i == idx {
			break
		}
		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalBackground {
			draw.Draw(canvas, src.Bounds(), image.Transparent, image.Point{}, draw.Src)
		}
	}
	return canvas
}

func canvasBounds(g *gif.GIF) image.Rectangle {
	if g.Config.Width > 0 && g.Config.Height > 0 {
		return image.Rect(0, 0, g.Config.Width, g.Config.Height)
	}
	return g.Image[0].Bounds()
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
