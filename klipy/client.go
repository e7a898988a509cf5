// Package klipy is a client for the Klipy GIF search API.
package klipy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// BaseURL is the Klipy API endpoint
	BaseURL = "https://api.klipy.co/api/v1"

	// DefaultTimeout for search requests
	DefaultTimeout = 15 * time.Second

	// DefaultPerPage is the page size when the caller doesn't set one
	DefaultPerPage = 24
)

// EnvKlipyKey names the environment variable holding the app key
const EnvKlipyKey = "KLIPY_API_KEY"

// GIF is one search result
type GIF struct {
	ID     string
	Title  string
	URL    string // full-size gif
	MP4URL string // mp4 rendition when available
	Width  int
	Height int
}

// Page is one page of results
type Page struct {
	GIFs    []GIF
	HasNext bool
}

// Client talks to the Klipy API
type Client struct {
	appKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client) error

// WithBaseURL overrides the API endpoint, mainly for testing
func WithBaseURL(baseURL string) Option {
	return func(c *Client) error {
		parsed, err := url.Parse(baseURL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("invalid base URL: %q", baseURL)
		}
		c.baseURL = strings.TrimSuffix(baseURL, "/")
		return nil
	}
}

// WithHTTPClient supplies a custom HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client must not be nil")
		}
		c.httpClient = hc
		return nil
	}
}

// NewClient creates a Klipy client with the given app key
func NewClient(appKey string, opts ...Option) (*Client, error) {
	if appKey == "" {
		return nil, fmt.Errorf("klipy app key is required")
	}

	c := &Client{
		appKey:     appKey,
		baseURL:    BaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// NewClientFromEnv creates a client from KLIPY_API_KEY
func NewClientFromEnv(opts ...Option) (*Client, error) {
	key := os.Getenv(EnvKlipyKey)
	if key == "" {
		return nil, fmt.Errorf("%s not set", EnvKlipyKey)
	}
	return NewClient(key, opts...)
}

// Search queries GIFs matching q. Pages start at 1.
func (c *Client) Search(ctx context.Context, q string, page int) (*Page, error) {
	if strings.TrimSpace(q) == "" {
		return nil, fmt.Errorf("search query is required")
	}
	params := url.Values{}
	params.Set("q", q)
	return c.list(ctx, "gifs/search", params, page)
}

// Trending returns the current trending GIFs. Pages start at 1.
func (c *Client) Trending(ctx context.Context, page int) (*Page, error) {
	return c.list(ctx, "gifs/trending", url.Values{}, page)
}

func (c *Client) list(ctx context.Context, path string, params url.Values, page int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(DefaultPerPage))

	endpoint := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, c.appKey, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("klipy request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("klipy API error: %s - %s", resp.Status, string(body))
	}

	var payload listResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse klipy response: %w", err)
	}
	if !payload.Result {
		return nil, fmt.Errorf("klipy API returned an unsuccessful result")
	}

	out := &Page{HasNext: payload.Data.HasNext}
	for _, item := range payload.Data.Data {
		g := GIF{
			ID:    strconv.FormatInt(item.ID, 10),
			Title: item.Title,
		}
		if hd := item.File.HD; hd != nil {
			g.URL = hd.GIF.URL
			g.MP4URL = hd.MP4.URL
			g.Width = hd.GIF.Width
			g.Height = hd.GIF.Height
		}
		out.GIFs = append(out.GIFs, g)
	}
	return out, nil
}

// Wire types for the Klipy list endpoints

type listResponse struct {
	Result bool     `json:"result"`
	Data   listData `json:"data"`
}

type listData struct {
	Data    []listItem `json:"data"`
	HasNext bool       `json:"has_next"`
}

type listItem struct {
	ID    int64    `json:"id"`
	Title string   `json:"title"`
	File  itemFile `json:"file"`
}

type itemFile struct {
	HD *rendition `json:"hd"`
	MD *rendition `json:"md"`
	SM *rendition `json:"sm"`
}

type rendition struct {
	GIF mediaFile `json:"gif"`
	MP4 mediaFile `json:"mp4"`
}

type mediaFile struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
