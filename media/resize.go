package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"

	xdraw "golang.org/x/image/draw"

	"saucy/gemini"
)

// StickerMaxEdge is the longest edge of an exported sticker. Messaging
// platforms cap sticker dimensions around this size.
const StickerMaxEdge = 512

// FitSticker downscales an image so its longest edge is at most
// StickerMaxEdge, preserving aspect ratio. Smaller images are returned
// unchanged.
func FitSticker(src image.Image) image.Image {
	return Fit(src, StickerMaxEdge)
}

// Fit downscales an image so its longest edge is at most maxEdge.
func Fit(src image.Image, maxEdge int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxEdge && h <= maxEdge {
		return src
	}

	if w >= h {
		h = h * maxEdge / w
		w = maxEdge
	} else {
		w = w * maxEdge / h
		h = maxEdge
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

// EncodePNG renders an image as an inline PNG ready to attach to a
// provider request or write to disk.
func EncodePNG(img image.Image) (gemini.InlineImage, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return gemini.InlineImage{}, fmt.Errorf("failed to encode png: %w", err)
	}
	return gemini.InlineImage{Data: buf.Bytes(), MIMEType: "image/png"}, nil
}

// EncodeGIF assembles frames into an animated GIF. delay is in
// hundredths of a second per frame, applied uniformly.
func EncodeGIF(frames []image.Image, delay int) ([]byte, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames to encode")
	}
	if delay < 0 {
		return nil, fmt.Errorf("frame delay must not be negative, got %d", delay)
	}

	out := &gif.GIF{}
	for _, frame := range frames {
		pal := image.NewPaletted(frame.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(pal, frame.Bounds(), frame, frame.Bounds().Min)
		out.Image = append(out.Image, pal)
		out.Delay = append(out.Delay, delay)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode gif: %w", err)
	}
	return buf.Bytes(), nil
}
