// Package media prepares user uploads for the AI providers. The image
// models accept static formats only, so animated GIFs are flattened to
// a PNG before a request is built, and generated videos are rendered
// back to GIF for sharing.
package media

import (
	"bytes"
	"context"
	"fmt"
	"image/gif"
	"image/png"
	"time"

	"saucy/gemini"
)

// DefaultTranscodeTimeout bounds a single GIF decode+encode pass.
// Malformed or enormous GIFs must not hang an interactive flow.
const DefaultTranscodeTimeout = 5 * time.Second

// TranscodeError reports a failed or timed-out format conversion
type TranscodeError struct {
	Op  string
	Err error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode %s: %v", e.Op, e.Err)
}

func (e *TranscodeError) Unwrap() error { return e.Err }

// Kind classifies transcode failures for the error taxonomy
func (e *TranscodeError) Kind() gemini.ErrorKind { return gemini.KindTranscode }

// NormalizeForProvider converts an upload into a form the image models
// accept. GIFs become a single PNG of the first frame; everything else
// passes through untouched. The conversion runs under a timeout so a
// pathological file cannot stall the caller.
func NormalizeForProvider(ctx context.Context, img gemini.InlineImage) (gemini.InlineImage, error) {
	if img.MIMEType != "image/gif" {
		return img, nil
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTranscodeTimeout)
	defer cancel()

	type result struct {
		img gemini.InlineImage
		err error
	}
	done := make(chan result, 1)

	go func() {
		out, err := gifToPNG(img.Data)
		done <- result{out, err}
	}()

	select {
	case <-ctx.Done():
		return gemini.InlineImage{}, &TranscodeError{Op: "gif to png", Err: ctx.Err()}
	case r := <-done:
		if r.err != nil {
			return gemini.InlineImage{}, &TranscodeError{Op: "gif to png", Err: r.err}
		}
		return r.img, nil
	}
}

// gifToPNG flattens a GIF to a PNG of its first full frame. Frames after
// the first are coalesced only when the caller asks for them (see
// Frames); the provider-facing normalization always yields exactly one
// image.
func gifToPNG(data []byte) (gemini.InlineImage, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return gemini.InlineImage{}, fmt.Errorf("failed to decode gif: %w", err)
	}
	if len(g.Image) == 0 {
		return gemini.InlineImage{}, fmt.Errorf("gif has no frames")
	}

	frame := coalesce(g, 0)

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		return gemini.InlineImage{}, fmt.Errorf("failed to encode png: %w", err)
	}

	return gemini.InlineImage{Data: buf.Bytes(), MIMEType: "image/png"}, nil
}
