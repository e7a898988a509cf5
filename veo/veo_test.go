package veo

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"saucy/gemini"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		apiKey  string
		wantErr bool
	}{
		{"valid key", "test-api-key", false},
		{"empty key", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.apiKey)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewClient() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && client == nil {
				t.Error("NewClient() returned nil client")
			}
		})
	}
}

func TestGenerateVideo_Validation(t *testing.T) {
	client, _ := NewClient("test-key")
	ctx := context.Background()

	if _, err := client.GenerateVideo(ctx, &GenerateVideoRequest{}); err == nil {
		t.Error("GenerateVideo() should fail without a prompt")
	}

	png := gemini.InlineImage{Data: []byte("img"), MIMEType: "image/png"}
	_, err := client.GenerateVideo(ctx, &GenerateVideoRequest{
		Prompt:          "a dancing cat",
		ReferenceImages: []gemini.InlineImage{png, png, png, png},
	})
	if err == nil {
		t.Error("GenerateVideo() should fail with more than 3 reference images")
	}

	_, err = client.GenerateVideo(ctx, &GenerateVideoRequest{
		Prompt:          "a dancing cat",
		ReferenceImages: []gemini.InlineImage{{Data: []byte("GIF89a"), MIMEType: "image/gif"}},
	})
	if err == nil {
		t.Error("GenerateVideo() should reject GIF reference images")
	}
}

func TestGenerateVideo_Start(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST, got %s", r.Method)
		}

		var req struct {
			Instances []map[string]any `json:"instances"`
			Parameters map[string]any  `json:"parameters"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if len(req.Instances) != 1 {
			t.Fatalf("Expected 1 instance, got %d", len(req.Instances))
		}
		if req.Instances[0]["prompt"] != "a dancing cat" {
			t.Errorf("prompt = %v", req.Instances[0]["prompt"])
		}
		if req.Parameters["aspectRatio"] != "16:9" {
			t.Errorf("aspectRatio = %v, want default 16:9", req.Parameters["aspectRatio"])
		}

		json.NewEncoder(w).Encode(Operation{Name: "models/veo/operations/op-123"})
	}))
	defer server.Close()

	client, _ := NewClient("test-key", WithBaseURL(server.URL))

	op, err := client.GenerateVideo(context.Background(), &GenerateVideoRequest{
		Prompt:          "a dancing cat",
		ReferenceImages: []gemini.InlineImage{{Data: []byte("img"), MIMEType: "image/png"}},
	})
	if err != nil {
		t.Fatalf("GenerateVideo() failed: %v", err)
	}
	if op.Name != "models/veo/operations/op-123" {
		t.Errorf("Name = %q", op.Name)
	}
	if op.Done {
		t.Error("Operation should not start done")
	}
}

func TestWaitForVideo_Timeout(t *testing.T) {
	// Server that never finishes
	var polls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&polls, 1)
		json.NewEncoder(w).Encode(Operation{Name: "models/veo/operations/stuck", Done: false})
	}))
	defer server.Close()

	client, _ := NewClient("test-key",
		WithBaseURL(server.URL),
		WithPollInterval(time.Millisecond),
	)

	op := &Operation{Name: "models/veo/operations/stuck"}
	_, err := client.WaitForVideo(context.Background(), op, nil)
	if err == nil {
		t.Fatal("WaitForVideo() should time out")
	}

	// Ceiling exceeded must classify as timeout, not empty-result
	if gemini.KindOf(err) != gemini.KindTimeout {
		t.Errorf("KindOf(err) = %v, want %v", gemini.KindOf(err), gemini.KindTimeout)
	}

	// The loop must refresh exactly MaxPolls times before giving up
	if got := atomic.LoadInt32(&polls); got != MaxPolls {
		t.Errorf("server saw %d polls, want exactly %d", got, MaxPolls)
	}
}

func TestWaitForVideo_DoneWithResult(t *testing.T) {
	videoBytes := []byte("fake mp4 payload")
	var polls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&polls, 1)
		op := Operation{Name: "models/veo/operations/ok"}
		if n >= 3 {
			op.Done = true
			op.Response = &OperationResponse{
				GenerateVideoResponse: &GenerateVideoResponse{
					GeneratedSamples: []*GeneratedSample{
						{Video: &Video{EncodedVideo: base64.StdEncoding.EncodeToString(videoBytes)}},
					},
				},
			}
		}
		json.NewEncoder(w).Encode(op)
	}))
	defer server.Close()

	client, _ := NewClient("test-key",
		WithBaseURL(server.URL),
		WithPollInterval(time.Millisecond),
	)

	var progressCalls int
	op := &Operation{Name: "models/veo/operations/ok"}
	result, err := client.WaitForVideo(context.Background(), op, func(poll int) {
		progressCalls++
	})
	if err != nil {
		t.Fatalf("WaitForVideo() failed: %v", err)
	}

	if string(result.Data) != string(videoBytes) {
		t.Error("WaitForVideo() returned wrong video bytes")
	}
	if result.Polls != 3 {
		t.Errorf("Polls = %d, want 3", result.Polls)
	}
	if progressCalls != 3 {
		t.Errorf("progress callback fired %d times, want 3", progressCalls)
	}
}

func TestWaitForVideo_DoneWithoutResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Operation{
			Name:     "models/veo/operations/hollow",
			Done:     true,
			Response: &OperationResponse{},
		})
	}))
	defer server.Close()

	client, _ := NewClient("test-key",
		WithBaseURL(server.URL),
		WithPollInterval(time.Millisecond),
	)

	op := &Operation{Name: "models/veo/operations/hollow"}
	_, err := client.WaitForVideo(context.Background(), op, nil)
	if err == nil {
		t.Fatal("WaitForVideo() should fail when done without a video")
	}
	if gemini.KindOf(err) != gemini.KindEmptyResult {
		t.Errorf("KindOf(err) = %v, want %v", gemini.KindOf(err), gemini.KindEmptyResult)
	}
}

func TestWaitForVideo_OperationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Operation{
			Name:  "models/veo/operations/denied",
			Done:  true,
			Error: &OperationError{Code: 403, Message: "billing required"},
		})
	}))
	defer server.Close()

	client, _ := NewClient("test-key",
		WithBaseURL(server.URL),
		WithPollInterval(time.Millisecond),
	)

	op := &Operation{Name: "models/veo/operations/denied"}
	_, err := client.WaitForVideo(context.Background(), op, nil)
	if err == nil {
		t.Fatal("WaitForVideo() should surface the operation error")
	}
	if gemini.KindOf(err) != gemini.KindForbidden {
		t.Errorf("KindOf(err) = %v, want %v", gemini.KindOf(err), gemini.KindForbidden)
	}
}

func TestWaitForVideo_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Operation{Name: "models/veo/operations/slow"})
	}))
	defer server.Close()

	client, _ := NewClient("test-key",
		WithBaseURL(server.URL),
		WithPollInterval(50*time.Millisecond),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	op := &Operation{Name: "models/veo/operations/slow"}
	if _, err := client.WaitForVideo(ctx, op, nil); err == nil {
		t.Error("WaitForVideo() should respect context cancellation")
	}
}
