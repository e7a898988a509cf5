package share

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ProgressPublisher forwards poll updates from the generating process to
// a share server, where the hub pushes them to websocket watchers of the
// share page.
type ProgressPublisher struct {
	baseURL string
	client  *http.Client
}

// NewProgressPublisher validates the server base URL and returns a
// publisher pointed at it.
func NewProgressPublisher(baseURL string) (*ProgressPublisher, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid share server URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("share server URL must be http or https, got %q", baseURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("share server URL has no host: %q", baseURL)
	}

	return &ProgressPublisher{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
	}, nil
}

// Publish posts one update. Progress is advisory, so callers typically
// ignore the returned error rather than failing the generation.
func (p *ProgressPublisher) Publish(ctx context.Context, update ProgressUpdate) error {
	if update.ID == "" {
		return fmt.Errorf("generation id is required")
	}

	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}

	postURL := fmt.Sprintf("%s/api/v1/progress/%s", p.baseURL, url.PathEscape(update.ID))
	req, err := http.NewRequestWithContext(ctx, "POST", postURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("progress post failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("progress post failed with status %d", resp.StatusCode)
	}
	return nil
}
