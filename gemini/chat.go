package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// ChatFallback is returned when a chat response carries no text part
const ChatFallback = "Hmm, I couldn't come up with anything. Try rephrasing?"

// Chat sends a conversation to the text model and returns the first text
// part of the response. A response without any text part yields
// ChatFallback rather than an error: a silent model is an annoyance, not
// a failure the UI should banner.
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (string, error) {
	if len(req.History) == 0 {
		return "", fmt.Errorf("at least one message is required")
	}

	model := req.Model
	if model == "" {
		model = ModelChat
	}

	contents := make([]*Content, 0, len(req.History))
	for i, msg := range req.History {
		role := msg.Role
		if role == "" {
			role = "user"
		}
		content := &Content{
			Role:  role,
			Parts: []*Part{{Text: msg.Text}},
		}
		// Image attachments ride on the final turn
		if i == len(req.History)-1 {
			for _, img := range req.Images {
				content.Parts = append(content.Parts, &Part{
					InlineData: &InlineData{
						MIMEType: img.MIMEType,
						Data:     base64.StdEncoding.EncodeToString(img.Data),
					},
				})
			}
		}
		contents = append(contents, content)
	}

	resp, err := c.generateContent(ctx, model, &GenerateContentRequest{Contents: contents})
	if err != nil {
		return "", err
	}

	return firstText(resp), nil
}

// firstText extracts the first non-empty text part, or ChatFallback
func firstText(resp *GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ChatFallback
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if strings.TrimSpace(part.Text) != "" {
			return part.Text
		}
	}
	return ChatFallback
}
