package studio

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"time"

	"saucy/gemini"
	"saucy/media"
)

// DemoDelay is the simulated latency before a demo result is returned,
// so the UI behaves the same with and without a key
const DemoDelay = 1200 * time.Millisecond

// demoIdeas are the canned brainstorm suggestions served without a key
var demoIdeas = []string{
	"main character energy",
	"certified nap enthusiast",
	"running on snacks and vibes",
	"no thoughts, head empty",
	"it's giving chaos",
}

const demoChatReply = "This is a demo reply. Add your API key in Settings to chat with the real model."

// demoSticker renders a masked variant of the upload locally. The input
// is blanked with a soft fill and an accent band so the result visibly
// differs from the original without calling any provider.
func (s *Studio) demoSticker(ctx context.Context, img gemini.InlineImage) (*StickerResult, error) {
	if err := s.sleep(ctx); err != nil {
		return nil, err
	}

	bounds := image.Rect(0, 0, 512, 512)
	if src, _, err := image.Decode(bytes.NewReader(img.Data)); err == nil {
		bounds = media.Fit(src, 512).Bounds()
	}

	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, &image.Uniform{color.RGBA{R: 0xF4, G: 0xE8, B: 0xD8, A: 0xFF}}, image.Point{}, draw.Src)

	band := bounds
	band.Min.Y = bounds.Min.Y + bounds.Dy()*2/5
	band.Max.Y = bounds.Min.Y + bounds.Dy()*3/5
	draw.Draw(canvas, band, &image.Uniform{color.RGBA{R: 0xE8, G: 0x7A, B: 0x41, A: 0xFF}}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, err
	}

	return &StickerResult{
		Image: gemini.InlineImage{Data: buf.Bytes(), MIMEType: "image/png"},
		Demo:  true,
	}, nil
}

// demoClip renders a tiny two-frame GIF locally and reports fake
// progress so the UI's polling affordances still exercise
func (s *Studio) demoClip(ctx context.Context, progress func(int)) (*ClipResult, error) {
	for poll := 1; poll <= 3; poll++ {
		if err := s.sleep(ctx); err != nil {
			return nil, err
		}
		if progress != nil {
			progress(poll)
		}
	}

	frames := []image.Image{
		solidFrame(color.RGBA{R: 0xE8, G: 0x7A, B: 0x41, A: 0xFF}),
		solidFrame(color.RGBA{R: 0xF4, G: 0xE8, B: 0xD8, A: 0xFF}),
	}
	data, err := media.EncodeGIF(frames, 50)
	if err != nil {
		return nil, err
	}

	return &ClipResult{Data: data, MIMEType: "image/gif", Polls: 3, Demo: true}, nil
}

func (s *Studio) demoChat(ctx context.Context) (string, error) {
	if err := s.sleep(ctx); err != nil {
		return "", err
	}
	return demoChatReply, nil
}

func (s *Studio) demoBrainstorm(ctx context.Context, theme string) ([]string, error) {
	if err := s.sleep(ctx); err != nil {
		return nil, err
	}
	out := make([]string, len(demoIdeas))
	copy(out, demoIdeas)
	return out, nil
}

func solidFrame(c color.Color) image.Image {
	frame := image.NewRGBA(image.Rect(0, 0, 64, 64))
	draw.Draw(frame, frame.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return frame
}

func (s *Studio) sleep(ctx context.Context) error {
	timer := time.NewTimer(s.demoDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
