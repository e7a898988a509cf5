package credential

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPRemoteStore talks to the share server's per-user key endpoint
type HTTPRemoteStore struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPRemoteStore creates a remote store client for the given server
func NewHTTPRemoteStore(baseURL string) (*HTTPRemoteStore, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("invalid remote store URL: %q", baseURL)
	}
	return &HTTPRemoteStore{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Lookup fetches the stored key for a user; a 404 is an empty key
func (s *HTTPRemoteStore) Lookup(ctx context.Context, userID string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/v1/keys/%s", s.baseURL, url.PathEscape(userID))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("key lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("key lookup failed: %s - %s", resp.Status, string(body))
	}

	var payload struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to parse key response: %w", err)
	}
	return payload.Key, nil
}

// Save stores the key for a user
func (s *HTTPRemoteStore) Save(ctx context.Context, userID, key string) error {
	endpoint := fmt.Sprintf("%s/api/v1/keys/%s", s.baseURL, url.PathEscape(userID))

	body, err := json.Marshal(map[string]string{"key": key})
	if err != nil {
		return fmt.Errorf("failed to marshal key: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "PUT", endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("key save failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("key save failed: %s - %s", resp.Status, string(respBody))
	}
	return nil
}
