package veo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"saucy/gemini"
)

const (
	// BaseURL is the Google AI Studio API base URL
	BaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// PollInterval is the fixed delay between operation refreshes
	PollInterval = 10 * time.Second

	// MaxPolls caps the polling loop; 60 polls at 10s is a 10-minute wait
	MaxPolls = 60

	// MaxReferenceImages per generation request
	MaxReferenceImages = 3
)

// ProgressFunc receives the poll count after each refresh
type ProgressFunc func(poll int)

// Client is the Veo video generation API client
type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
	maxPolls     int
	debug        bool
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL (for testing)
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return
		}
		if parsed.Host == "" {
			return
		}
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithPollInterval overrides the fixed poll interval (for testing)
func WithPollInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithDebug enables debug logging
func WithDebug(debug bool) ClientOption {
	return func(c *Client) {
		c.debug = debug
	}
}

// NewClient creates a new Veo API client
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	c := &Client{
		apiKey:       apiKey,
		baseURL:      BaseURL,
		httpClient:   &http.Client{Timeout: 2 * time.Minute},
		pollInterval: PollInterval,
		maxPolls:     MaxPolls,
		debug:        os.Getenv("SAUCY_DEBUG") != "",
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// GenerateVideo starts a long-running video generation operation
func (c *Client) GenerateVideo(ctx context.Context, req *GenerateVideoRequest) (*Operation, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("a prompt is required")
	}
	if len(req.ReferenceImages) > MaxReferenceImages {
		return nil, fmt.Errorf("maximum %d reference images allowed, got %d", MaxReferenceImages, len(req.ReferenceImages))
	}
	for i, img := range req.ReferenceImages {
		if img.MIMEType == "image/gif" {
			return nil, fmt.Errorf("reference image %d: animated GIF is not accepted, transcode to PNG first", i+1)
		}
	}

	model := req.Model
	if model == "" {
		model = ModelVideo
	}
	aspect := req.AspectRatio
	if aspect == "" {
		aspect = "16:9"
	}
	count := req.NumberOfVideos
	if count <= 0 {
		count = 1
	}

	instance := map[string]any{"prompt": req.Prompt}
	if len(req.ReferenceImages) > 0 {
		refs := make([]map[string]any, 0, len(req.ReferenceImages))
		for _, img := range req.ReferenceImages {
			refs = append(refs, map[string]any{
				"image": map[string]string{
					"bytesBase64Encoded": base64.StdEncoding.EncodeToString(img.Data),
					"mimeType":           img.MIMEType,
				},
				"referenceType": "asset",
			})
		}
		instance["referenceImages"] = refs
	}

	body, err := json.Marshal(map[string]any{
		"instances": []map[string]any{instance},
		"parameters": map[string]any{
			"aspectRatio": aspect,
			"sampleCount": count,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/models/%s:predictLongRunning?key=%s", c.baseURL, model, c.apiKey)

	if c.debug {
		fmt.Printf("[DEBUG] POST %s\n", strings.Replace(apiURL, c.apiKey, "***", 1))
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var op Operation
	if err := c.do(httpReq, &op); err != nil {
		return nil, err
	}
	if op.Name == "" {
		return nil, fmt.Errorf("no operation name in response")
	}

	return &op, nil
}

// PollOperation refreshes the status of an in-flight operation once
func (c *Client) PollOperation(ctx context.Context, op *Operation) (*Operation, error) {
	statusURL := fmt.Sprintf("%s/%s?key=%s", c.baseURL, op.Name, c.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, "GET", statusURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create status request: %w", err)
	}

	var refreshed Operation
	if err := c.do(httpReq, &refreshed); err != nil {
		return nil, err
	}
	refreshed.PollCount = op.PollCount + 1

	if c.debug {
		fmt.Printf("[DEBUG] Poll %d: done=%v\n", refreshed.PollCount, refreshed.Done)
	}

	return &refreshed, nil
}

// WaitForVideo polls the operation on the fixed interval until it
// completes, fails, or hits the poll ceiling. A ceiling hit reports a
// timeout, never an empty result; a completed operation without a video
// payload reports an empty result. There is no user-level cancellation
// beyond the context: the server-side job keeps running either way.
func (c *Client) WaitForVideo(ctx context.Context, op *Operation, progress ProgressFunc) (*VideoResult, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for !op.Done {
		if op.PollCount >= c.maxPolls {
			return nil, &TimeoutError{Polls: op.PollCount}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		refreshed, err := c.PollOperation(ctx, op)
		if err != nil {
			return nil, fmt.Errorf("failed to poll operation (attempt %d): %w", op.PollCount+1, err)
		}
		op = refreshed

		if progress != nil {
			progress(op.PollCount)
		}
	}

	if op.Error != nil {
		return nil, &gemini.APIError{
			StatusCode: op.Error.Code,
			Message:    op.Error.Message,
		}
	}

	video := firstVideo(op)
	if video == nil {
		// Done but nothing usable came back
		return nil, &gemini.EmptyResultError{Op: "generate video"}
	}

	result := &VideoResult{
		URI:      video.URI,
		MIMEType: "video/mp4",
		Polls:    op.PollCount,
	}

	if video.EncodedVideo != "" {
		data, err := base64.StdEncoding.DecodeString(video.EncodedVideo)
		if err != nil {
			return nil, fmt.Errorf("failed to decode video payload: %w", err)
		}
		result.Data = data
	} else if video.URI != "" {
		data, err := c.download(ctx, video.URI)
		if err != nil {
			return nil, fmt.Errorf("failed to download generated video: %w", err)
		}
		result.Data = data
	}

	return result, nil
}

// firstVideo returns the first generated sample with a payload, or nil
func firstVideo(op *Operation) *Video {
	if op.Response == nil || op.Response.GenerateVideoResponse == nil {
		return nil
	}
	for _, sample := range op.Response.GenerateVideoResponse.GeneratedSamples {
		if sample.Video != nil && (sample.Video.URI != "" || sample.Video.EncodedVideo != "") {
			return sample.Video
		}
	}
	return nil
}

// download fetches the generated video from its provider-hosted URI
func (c *Client) download(ctx context.Context, uri string) ([]byte, error) {
	fetchURL := uri
	if !strings.Contains(fetchURL, "key=") {
		sep := "?"
		if strings.Contains(fetchURL, "?") {
			sep = "&"
		}
		fetchURL = fetchURL + sep + "key=" + c.apiKey
	}

	req, err := http.NewRequestWithContext(ctx, "GET", fetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &gemini.APIError{
			StatusCode: resp.StatusCode,
			Message:    "video download failed",
			Details:    string(body),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read video: %w", err)
	}
	if len(data) == 0 {
		return nil, &gemini.EmptyResultError{Op: "download video"}
	}
	return data, nil
}

// do executes a request and decodes the response, classifying API errors
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
				Status  string `json:"status"`
			} `json:"error"`
		}
		if err := json.Unmarshal(body, &apiErr); err != nil {
			return &gemini.APIError{
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("API error (status %d)", resp.StatusCode),
				Details:    string(body),
			}
		}
		return &gemini.APIError{
			StatusCode: resp.StatusCode,
			Message:    apiErr.Error.Message,
			Details:    apiErr.Error.Status,
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
