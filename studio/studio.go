// Package studio orchestrates Saucy's generation operations. It resolves
// the credential chain, preprocesses uploads, and dispatches to the
// Gemini and Veo clients; when the credential resolves to demo mode every
// operation is served locally and no provider is contacted.
package studio

import (
	"context"
	"fmt"
	"strings"
	"time"

	"saucy/credential"
	"saucy/gemini"
	"saucy/media"
	"saucy/veo"
)

// Directives sent to the image model for the two sticker operations
const (
	removeTextDirective = "Remove all text, captions, watermarks and lettering from this image. " +
		"Reconstruct the background behind the removed text so the result looks natural. " +
		"Return only the edited image."

	stickerDirectivePrefix = "Turn this image into a die-cut sticker with a clean white outline " +
		"and transparent background. Style: "
)

// brainstormPrompt asks the chat model for sticker ideas, one per line
const brainstormPrompt = "Suggest 5 short, fun sticker caption ideas for the theme %q. " +
	"Reply with one idea per line and no numbering."

// StickerResult is the outcome of a synchronous image operation
type StickerResult struct {
	Image      gemini.InlineImage
	TokensUsed int
	Demo       bool
}

// ClipResult is the outcome of a video generation
type ClipResult struct {
	Data     []byte
	MIMEType string
	Polls    int
	Demo     bool
}

// Studio wires the credential chain to the provider clients
type Studio struct {
	resolver   *credential.Resolver
	session    credential.Session
	geminiOpts []gemini.ClientOption
	veoOpts    []veo.ClientOption
	demoDelay  time.Duration
}

// Option configures a Studio
type Option func(*Studio)

// WithGeminiOptions forwards options to the image/chat client,
// mainly so tests can point it at a mock server
func WithGeminiOptions(opts ...gemini.ClientOption) Option {
	return func(s *Studio) { s.geminiOpts = append(s.geminiOpts, opts...) }
}

// WithVeoOptions forwards options to the video client
func WithVeoOptions(opts ...veo.ClientOption) Option {
	return func(s *Studio) { s.veoOpts = append(s.veoOpts, opts...) }
}

// WithDemoDelay overrides the simulated latency of demo results
func WithDemoDelay(d time.Duration) Option {
	return func(s *Studio) { s.demoDelay = d }
}

// New creates a Studio for the given session
func New(resolver *credential.Resolver, session credential.Session, opts ...Option) *Studio {
	s := &Studio{
		resolver:  resolver,
		session:   session,
		demoDelay: DemoDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Credential resolves the active credential for this session
func (s *Studio) Credential(ctx context.Context) credential.Credential {
	return s.resolver.Resolve(ctx, s.session)
}

// SaveKey persists a user-entered API key through the resolver
func (s *Studio) SaveKey(ctx context.Context, key string) error {
	return s.resolver.Save(ctx, s.session, key)
}

// RemoveText erases lettering from an image. GIF uploads are flattened
// to a PNG still before the provider sees them.
func (s *Studio) RemoveText(ctx context.Context, img gemini.InlineImage) (*StickerResult, error) {
	return s.editImage(ctx, img, removeTextDirective)
}

// GenerateSticker restyles an image as a die-cut sticker
func (s *Studio) GenerateSticker(ctx context.Context, img gemini.InlineImage, style string) (*StickerResult, error) {
	if strings.TrimSpace(style) == "" {
		style = "bold cartoon"
	}
	return s.editImage(ctx, img, stickerDirectivePrefix+style)
}

func (s *Studio) editImage(ctx context.Context, img gemini.InlineImage, directive string) (*StickerResult, error) {
	cred := s.Credential(ctx)
	if cred.Demo {
		return s.demoSticker(ctx, img)
	}

	normalized, err := media.NormalizeForProvider(ctx, img)
	if err != nil {
		return nil, err
	}

	client, err := gemini.NewClient(cred.Value, s.geminiOpts...)
	if err != nil {
		return nil, err
	}

	result, err := client.EditImage(ctx, &gemini.EditRequest{
		Directive: directive,
		Images:    []gemini.InlineImage{normalized},
	})
	if err != nil {
		return nil, err
	}

	return &StickerResult{Image: result.Image, TokensUsed: result.TokensUsed}, nil
}

// GenerateClip produces a short video clip from a prompt and optional
// reference images, then reports it as raw MP4 bytes. progress receives
// each poll count while the operation runs.
func (s *Studio) GenerateClip(ctx context.Context, prompt string, refs []gemini.InlineImage, progress veo.ProgressFunc) (*ClipResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("a prompt is required")
	}

	cred := s.Credential(ctx)
	if cred.Demo {
		return s.demoClip(ctx, progress)
	}

	normalized := make([]gemini.InlineImage, 0, len(refs))
	for _, ref := range refs {
		normalized = append(normalized, expandReference(ctx, ref)...)
	}
	if len(normalized) > veo.MaxReferenceImages {
		normalized = normalized[:veo.MaxReferenceImages]
	}

	client, err := veo.NewClient(cred.Value, s.veoOpts...)
	if err != nil {
		return nil, err
	}

	op, err := client.GenerateVideo(ctx, &veo.GenerateVideoRequest{
		Prompt:          prompt,
		ReferenceImages: normalized,
	})
	if err != nil {
		return nil, err
	}

	result, err := client.WaitForVideo(ctx, op, progress)
	if err != nil {
		return nil, err
	}

	return &ClipResult{
		Data:     result.Data,
		MIMEType: result.MIMEType,
		Polls:    result.Polls,
	}, nil
}

// expandReference turns one reference upload into provider-ready stills.
// An animated GIF is sampled into evenly spaced key frames so the video
// model sees the motion, not just the opening frame; everything else is
// normalized as a single image. A bad reference shouldn't kill the
// generation, so failures yield nothing.
func expandReference(ctx context.Context, ref gemini.InlineImage) []gemini.InlineImage {
	if ref.MIMEType == "image/gif" {
		if frames, err := media.KeyFrames(ref.Data, veo.MaxReferenceImages); err == nil {
			stills := make([]gemini.InlineImage, 0, len(frames))
			for _, frame := range frames {
				still, err := media.EncodePNG(frame)
				if err != nil {
					continue
				}
				stills = append(stills, still)
			}
			if len(stills) > 0 {
				return stills
			}
		}
		// Sampling failed; fall through to the single-frame flatten
	}

	n, err := media.NormalizeForProvider(ctx, ref)
	if err != nil {
		return nil
	}
	return []gemini.InlineImage{n}
}

// Chat sends a conversation turn to the chat model
func (s *Studio) Chat(ctx context.Context, history []gemini.ChatMessage, images []gemini.InlineImage) (string, error) {
	cred := s.Credential(ctx)
	if cred.Demo {
		return s.demoChat(ctx)
	}

	client, err := gemini.NewClient(cred.Value, s.geminiOpts...)
	if err != nil {
		return "", err
	}

	return client.Chat(ctx, &gemini.ChatRequest{History: history, Images: images})
}

// Brainstorm asks the chat model for sticker ideas around a theme
func (s *Studio) Brainstorm(ctx context.Context, theme string) ([]string, error) {
	if strings.TrimSpace(theme) == "" {
		return nil, fmt.Errorf("a theme is required")
	}

	cred := s.Credential(ctx)
	if cred.Demo {
		return s.demoBrainstorm(ctx, theme)
	}

	client, err := gemini.NewClient(cred.Value, s.geminiOpts...)
	if err != nil {
		return nil, err
	}

	reply, err := client.Chat(ctx, &gemini.ChatRequest{
		History: []gemini.ChatMessage{{Role: "user", Text: fmt.Sprintf(brainstormPrompt, theme)}},
	})
	if err != nil {
		return nil, err
	}

	return splitIdeas(reply), nil
}

// splitIdeas breaks a model reply into one idea per line, dropping
// blanks and stray list markers
func splitIdeas(reply string) []string {
	var ideas []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789. ")
		if line != "" {
			ideas = append(ideas, line)
		}
	}
	return ideas
}
