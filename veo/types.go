// Package veo provides a client for the Veo video generation API. Video
// generation is a long-running server-side operation: a start call returns
// an operation handle which is then polled on a fixed interval until it
// completes or the poll ceiling is reached.
package veo

import (
	"fmt"

	"saucy/gemini"
)

// Model constants for Veo models
const (
	// ModelVideo is the default video generation model
	ModelVideo = "veo-3.0-generate-001"
	// ModelVideoFast trades quality for latency
	ModelVideoFast = "veo-3.0-fast-generate-001"
)

// GenerateVideoRequest configures a video generation start call
type GenerateVideoRequest struct {
	// Prompt describes the motion/content of the video
	Prompt string

	// ReferenceImages steer the output toward the supplied assets (max 3)
	ReferenceImages []gemini.InlineImage

	// AspectRatio is "16:9" or "9:16"; empty defaults to "16:9"
	AspectRatio string

	// NumberOfVideos requested; empty defaults to 1
	NumberOfVideos int

	// Model overrides the default video model
	Model string
}

// Operation is the handle for an in-flight video generation job. It is
// created by GenerateVideo and refreshed only by the polling loop.
type Operation struct {
	Name     string             `json:"name"`
	Done     bool               `json:"done"`
	Error    *OperationError    `json:"error,omitempty"`
	Response *OperationResponse `json:"response,omitempty"`

	// PollCount tracks how many times this operation has been refreshed
	PollCount int `json:"-"`
}

// OperationError is the error payload of a failed operation
type OperationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// OperationResponse wraps the completed operation payload
type OperationResponse struct {
	GenerateVideoResponse *GenerateVideoResponse `json:"generateVideoResponse,omitempty"`
}

// GenerateVideoResponse holds the generated samples
type GenerateVideoResponse struct {
	GeneratedSamples []*GeneratedSample `json:"generatedSamples"`
}

// GeneratedSample is one generated video
type GeneratedSample struct {
	Video *Video `json:"video"`
}

// Video references the generated media by URI or inline payload
type Video struct {
	URI          string `json:"uri,omitempty"`
	EncodedVideo string `json:"encodedVideo,omitempty"` // Base64 MP4
}

// VideoResult is the terminal output of a successful generation
type VideoResult struct {
	// Data is the MP4 payload; empty when only a URI was returned and
	// download was skipped
	Data []byte

	// URI is the provider-hosted location of the video, if any
	URI string

	// MIMEType of the payload
	MIMEType string

	// Polls is the number of refreshes it took to complete
	Polls int
}

// TimeoutError indicates the poll ceiling was exceeded before the
// operation completed. The operation keeps running server-side; there is
// no cancellation at the protocol level.
type TimeoutError struct {
	Polls int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("video generation still pending after %d polls, giving up", e.Polls)
}

// Kind implements the classification interface
func (e *TimeoutError) Kind() gemini.ErrorKind { return gemini.KindTimeout }
