package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/png"
	"testing"

	"saucy/gemini"
)

// buildGIF assembles an animated GIF with one solid color per frame
func buildGIF(t *testing.T, colors ...color.Color) []byte {
	t.Helper()

	g := &gif.GIF{Config: image.Config{Width: 8, Height: 8}}
	for _, c := range colors {
		frame := image.NewPaletted(image.Rect(0, 0, 8, 8), palette.Plan9)
		idx := uint8(frame.Palette.Index(c))
		for i := range frame.Pix {
			frame.Pix[i] = idx
		}
		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, 10)
		g.Disposal = append(g.Disposal, gif.DisposalNone)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatalf("failed to build test gif: %v", err)
	}
	return buf.Bytes()
}

func TestNormalizeForProvider_GIF(t *testing.T) {
	tests := []struct {
		name   string
		frames []color.Color
	}{
		{"single frame", []color.Color{color.White}},
		{"multi frame", []color.Color{color.White, color.Black, color.White}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := buildGIF(t, tt.frames...)
			out, err := NormalizeForProvider(context.Background(), gemini.InlineImage{
				Data:     data,
				MIMEType: "image/gif",
			})
			if err != nil {
				t.Fatalf("NormalizeForProvider() failed: %v", err)
			}
			if out.MIMEType != "image/png" {
				t.Errorf("MIMEType = %q, want image/png", out.MIMEType)
			}

			// Frame count must not matter: the output is exactly one PNG
			img, err := png.Decode(bytes.NewReader(out.Data))
			if err != nil {
				t.Fatalf("output is not a decodable PNG: %v", err)
			}
			if got := img.Bounds(); got.Dx() != 8 || got.Dy() != 8 {
				t.Errorf("decoded bounds = %v, want 8x8", got)
			}
		})
	}
}

func TestNormalizeForProvider_Passthrough(t *testing.T) {
	in := gemini.InlineImage{Data: []byte("png bytes"), MIMEType: "image/png"}
	out, err := NormalizeForProvider(context.Background(), in)
	if err != nil {
		t.Fatalf("NormalizeForProvider() failed: %v", err)
	}
	if out.MIMEType != in.MIMEType || string(out.Data) != string(in.Data) {
		t.Error("non-GIF input must pass through unchanged")
	}
}

func TestNormalizeForProvider_Malformed(t *testing.T) {
	_, err := NormalizeForProvider(context.Background(), gemini.InlineImage{
		Data:     []byte("GIF89a garbage"),
		MIMEType: "image/gif",
	})
	if err == nil {
		t.Fatal("NormalizeForProvider() should fail on a malformed gif")
	}
	if gemini.KindOf(err) != gemini.KindTranscode {
		t.Errorf("KindOf(err) = %v, want %v", gemini.KindOf(err), gemini.KindTranscode)
	}
}

func TestNormalizeForProvider_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NormalizeForProvider(ctx, gemini.InlineImage{
		Data:     buildGIF(t, color.White),
		MIMEType: "image/gif",
	})
	// A cancelled context may still lose the race against a fast decode;
	// either way the call must return promptly and never panic.
	if err != nil && gemini.KindOf(err) != gemini.KindTranscode {
		t.Errorf("KindOf(err) = %v, want %v", gemini.KindOf(err), gemini.KindTranscode)
	}
}

func TestFrames(t *testing.T) {
	data := buildGIF(t, color.White, color.Black, color.White, color.Black)
	frames, err := Frames(data)
	if err != nil {
		t.Fatalf("Frames() failed: %v", err)
	}
	if len(frames) != 4 {
		t.Fatalf("got %d frames, want 4", len(frames))
	}
	for i, f := range frames {
		if f.Bounds().Dx() != 8 || f.Bounds().Dy() != 8 {
			t.Errorf("frame %d bounds = %v, want 8x8", i, f.Bounds())
		}
	}
}

func TestKeyFrames(t *testing.T) {
	data := buildGIF(t,
		color.White, color.Black, color.White, color.Black,
		color.White, color.Black, color.White, color.Black,
	)

	tests := []struct {
		n    int
		want int
	}{
		{1, 1},
		{3, 3},
		{8, 8},
		{20, 8}, // can't pick more than exist
	}

	for _, tt := range tests {
		frames, err := KeyFrames(data, tt.n)
		if err != nil {
			t.Fatalf("KeyFrames(%d) failed: %v", tt.n, err)
		}
		if len(frames) != tt.want {
			t.Errorf("KeyFrames(%d) returned %d frames, want %d", tt.n, len(frames), tt.want)
		}
	}

	if _, err := KeyFrames(data, 0); err == nil {
		t.Error("KeyFrames(0) should fail")
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		name       string
		w, h       int
		maxEdge    int
		wantW, wantH int
	}{
		{"wide downscale", 1024, 512, 512, 512, 256},
		{"tall downscale", 256, 1024, 512, 128, 512},
		{"already small", 100, 80, 512, 100, 80},
		{"square at limit", 512, 512, 512, 512, 512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := image.NewRGBA(image.Rect(0, 0, tt.w, tt.h))
			got := Fit(src, tt.maxEdge)
			b := got.Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("Fit() = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestEncodeGIF_RoundTrip(t *testing.T) {
	frames := []image.Image{
		image.NewRGBA(image.Rect(0, 0, 8, 8)),
		image.NewRGBA(image.Rect(0, 0, 8, 8)),
	}

	data, err := EncodeGIF(frames, 10)
	if err != nil {
		t.Fatalf("EncodeGIF() failed: %v", err)
	}

	decoded, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a decodable GIF: %v", err)
	}
	if len(decoded.Image) != 2 {
		t.Errorf("decoded %d frames, want 2", len(decoded.Image))
	}
	for i, d := range decoded.Delay {
		if d != 10 {
			t.Errorf("frame %d delay = %d, want 10", i, d)
		}
	}
}

func TestEncodeGIF_Validation(t *testing.T) {
	if _, err := EncodeGIF(nil, 10); err == nil {
		t.Error("EncodeGIF() should fail with no frames")
	}
	if _, err := EncodeGIF([]image.Image{image.NewRGBA(image.Rect(0, 0, 1, 1))}, -1); err == nil {
		t.Error("EncodeGIF() should reject negative delays")
	}
}
