// Package gemini provides a client for the Google Gemini API for AI-powered
// sticker editing: text removal, sticker stylization, and brainstorming chat.
package gemini

import (
	"errors"
	"fmt"
)

// Model constants for Gemini models
const (
	// ModelImageEdit is the image generation/editing model used for
	// text removal and sticker stylization
	ModelImageEdit = "gemini-2.5-flash-image-preview"
	// ModelChat is the fast text model used for chat and brainstorming
	ModelChat = "gemini-2.5-flash"
)

// SupportedImageTypes lists all supported input image file extensions
var SupportedImageTypes = []string{
	".jpg", ".jpeg", ".png", ".gif", ".webp",
}

// InlineImage is an image payload sent to or received from the API
type InlineImage struct {
	// Data is the raw (not base64) image bytes
	Data []byte

	// MIMEType is the image MIME type, e.g. "image/png"
	MIMEType string
}

// EditRequest configures a synchronous image edit/generation call
type EditRequest struct {
	// Directive is the edit instruction sent with the images
	Directive string

	// Images are the input images, most significant first. The API does
	// not accept animated GIFs; callers transcode via the media package.
	Images []InlineImage

	// Model overrides the default image edit model
	Model string

	// Temperature controls randomness (0.0-2.0, lower = more deterministic)
	Temperature *float64
}

// EditResult contains the first image returned by an edit call
type EditResult struct {
	Image      InlineImage
	TokensUsed int
}

// ChatMessage is one turn of a chat conversation
type ChatMessage struct {
	// Role is "user" or "model"
	Role string

	// Text is the message content
	Text string
}

// ChatRequest configures a chat or brainstorm call
type ChatRequest struct {
	// History is the prior conversation, oldest first
	History []ChatMessage

	// Images are optional image attachments on the final user turn
	Images []InlineImage

	// Model overrides the default chat model
	Model string
}

// ErrorKind classifies provider failures once at the call boundary so
// callers never have to string-match error messages.
type ErrorKind int

const (
	// KindGeneric is any failure without a more specific classification
	KindGeneric ErrorKind = iota
	// KindUnavailable means the model or feature does not exist (404)
	KindUnavailable
	// KindForbidden means the key lacks permission for the feature (403)
	KindForbidden
	// KindEmptyResult means the call succeeded but carried no usable payload
	KindEmptyResult
	// KindTimeout means a poll ceiling or deadline was exceeded
	KindTimeout
	// KindTranscode means a local image conversion failed
	KindTranscode
)

// String returns a stable identifier for the kind
func (k ErrorKind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindForbidden:
		return "forbidden"
	case KindEmptyResult:
		return "empty-result"
	case KindTimeout:
		return "timeout"
	case KindTranscode:
		return "transcode-failure"
	default:
		return "generic"
	}
}

// kinder is implemented by classified errors across provider packages
type kinder interface {
	Kind() ErrorKind
}

// KindOf extracts the classification from an error chain
func KindOf(err error) ErrorKind {
	var k kinder
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindGeneric
}

// APIError represents an error returned by the Gemini API
type APIError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Kind classifies the error from its HTTP status
func (e *APIError) Kind() ErrorKind {
	switch e.StatusCode {
	case 404:
		return KindUnavailable
	case 403:
		return KindForbidden
	default:
		return KindGeneric
	}
}

// EmptyResultError indicates a successful response with no usable payload
type EmptyResultError struct {
	Op string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("%s: model returned no usable content", e.Op)
}

// Kind implements the classification interface
func (e *EmptyResultError) Kind() ErrorKind { return KindEmptyResult }

// GenerateContentRequest is the request structure for the Gemini API
type GenerateContentRequest struct {
	Contents         []*Content        `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
	SafetySettings   []*SafetySetting  `json:"safetySettings,omitempty"`
}

// Content represents a content block in the API
type Content struct {
	Role  string  `json:"role,omitempty"`
	Parts []*Part `json:"parts"`
}

// Part represents a part of content (text or inline data)
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData represents binary data (images) inline
type InlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // Base64 encoded
}

// GenerationConfig contains generation parameters
type GenerationConfig struct {
	Temperature        *float64 `json:"temperature,omitempty"`
	TopP               *float64 `json:"topP,omitempty"`
	TopK               *int     `json:"topK,omitempty"`
	MaxOutputTokens    *int     `json:"maxOutputTokens,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

// SafetySetting configures content safety filters
type SafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// GenerateContentResponse is the response from the Gemini API
type GenerateContentResponse struct {
	Candidates    []*Candidate   `json:"candidates"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
}

// Candidate represents a generated response candidate
type Candidate struct {
	Content      *Content `json:"content"`
	FinishReason string   `json:"finishReason"`
}

// UsageMetadata contains token usage information
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}
