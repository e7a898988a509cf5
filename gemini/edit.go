package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
)

// EditImage sends an image edit/generation request and returns the first
// inline image in the response. The request must carry at most
// MaxImagesPerEdit images, none of them animated GIFs; the media package
// handles the GIF-to-PNG transcode before the request reaches this call.
func (c *Client) EditImage(ctx context.Context, req *EditRequest) (*EditResult, error) {
	if req.Directive == "" {
		return nil, fmt.Errorf("a directive is required")
	}
	if len(req.Images) > MaxImagesPerEdit {
		return nil, fmt.Errorf("maximum %d images allowed, got %d", MaxImagesPerEdit, len(req.Images))
	}
	for i, img := range req.Images {
		if img.MIMEType == "image/gif" {
			return nil, fmt.Errorf("image %d: animated GIF is not accepted by the model, transcode to PNG first", i+1)
		}
		if len(img.Data) == 0 {
			return nil, fmt.Errorf("image %d: empty payload", i+1)
		}
		if len(img.Data) > MaxFileSize {
			return nil, fmt.Errorf("image %d: %d bytes exceeds maximum %d bytes (20MB)", i+1, len(img.Data), MaxFileSize)
		}
	}

	model := req.Model
	if model == "" {
		model = ModelImageEdit
	}

	// Images first, directive last, matching the order the model was
	// tuned for.
	parts := make([]*Part, 0, len(req.Images)+1)
	for _, img := range req.Images {
		parts = append(parts, &Part{
			InlineData: &InlineData{
				MIMEType: img.MIMEType,
				Data:     base64.StdEncoding.EncodeToString(img.Data),
			},
		})
	}
	parts = append(parts, &Part{Text: req.Directive})

	apiReq := &GenerateContentRequest{
		Contents: []*Content{
			{
				Role:  "user",
				Parts: parts,
			},
		},
		GenerationConfig: &GenerationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	}

	if req.Temperature != nil {
		apiReq.GenerationConfig.Temperature = req.Temperature
	}

	resp, err := c.generateContent(ctx, model, apiReq)
	if err != nil {
		return nil, err
	}

	result, err := firstInlineImage(resp)
	if err != nil {
		return nil, err
	}

	if resp.UsageMetadata != nil {
		result.TokensUsed = resp.UsageMetadata.TotalTokenCount
	}

	return result, nil
}

// firstInlineImage extracts the first inline-image part of a response
func firstInlineImage(resp *GenerateContentResponse) (*EditResult, error) {
	if len(resp.Candidates) == 0 {
		return nil, &EmptyResultError{Op: "edit image"}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return nil, &EmptyResultError{Op: "edit image"}
	}

	for _, part := range candidate.Content.Parts {
		if part.InlineData == nil || part.InlineData.Data == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image payload: %w", err)
		}
		mimeType := part.InlineData.MIMEType
		if mimeType == "" {
			mimeType = "image/png"
		}
		return &EditResult{
			Image: InlineImage{Data: data, MIMEType: mimeType},
		}, nil
	}

	return nil, &EmptyResultError{Op: "edit image"}
}
