package tui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"saucy/credential"
	"saucy/studio"

	tea "github.com/charmbracelet/bubbletea"
)

type nullLocal struct{}

func (nullLocal) Load() (string, error) { return "", nil }
func (nullLocal) Save(string) error     { return nil }

func testStudio() *studio.Studio {
	resolver := &credential.Resolver{
		Local:  nullLocal{},
		Getenv: func(string) string { return "" },
	}
	return studio.New(resolver, credential.Demo(), studio.WithDemoDelay(time.Millisecond))
}

// TestNewStickerModel tests the creation of a new StickerModel
func TestNewStickerModel(t *testing.T) {
	m := NewStickerModel(testStudio(), "demo notice")

	if m.step != SStepSelectImage {
		t.Errorf("Expected initial step to be SStepSelectImage, got %v", m.step)
	}
	if m.width != 80 {
		t.Errorf("Expected default width to be 80, got %d", m.width)
	}
	if m.height != 24 {
		t.Errorf("Expected default height to be 24, got %d", m.height)
	}
}

// TestStickerModelInit tests the Init method
func TestStickerModelInit(t *testing.T) {
	m := NewStickerModel(testStudio(), "")
	if cmd := m.Init(); cmd == nil {
		t.Error("Expected Init to return a non-nil command")
	}
}

// TestStickerModelView tests that View returns valid output
func TestStickerModelView(t *testing.T) {
	m := NewStickerModel(testStudio(), "demo notice")
	view := m.View()

	if view == "" {
		t.Error("Expected View to return non-empty string")
	}
	if !strings.Contains(view, "DEMO") {
		t.Error("Expected demo badge in view when a notice is set")
	}
}

// TestStickerModelOperationNavigation tests operation menu navigation
func TestStickerModelOperationNavigation(t *testing.T) {
	m := NewStickerModel(testStudio(), "")
	m.step = SStepSelectOperation

	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}
	newModel, _ := m.Update(msg)
	m = newModel.(StickerModel)

	if m.operationIndex != 1 {
		t.Errorf("Expected operationIndex to be 1 after pressing j, got %d", m.operationIndex)
	}

	msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}}
	newModel, _ = m.Update(msg)
	m = newModel.(StickerModel)

	if m.operationIndex != 0 {
		t.Errorf("Expected operationIndex to be 0 after pressing k, got %d", m.operationIndex)
	}
}

// TestStickerModelRemoveTextSkipsPrompt tests that remove-text goes
// straight to confirmation
func TestStickerModelRemoveTextSkipsPrompt(t *testing.T) {
	m := NewStickerModel(testStudio(), "")
	m.step = SStepSelectOperation
	m.operationIndex = 0

	msg := tea.KeyMsg{Type: tea.KeyEnter}
	newModel, _ := m.Update(msg)
	m = newModel.(StickerModel)

	if m.operation != OpRemoveText {
		t.Errorf("operation = %q, want %q", m.operation, OpRemoveText)
	}
	if m.step != SStepConfirm {
		t.Errorf("Expected SStepConfirm after selecting remove-text, got %v", m.step)
	}
}

// TestStickerModelWindowResize tests window resize handling
func TestStickerModelWindowResize(t *testing.T) {
	m := NewStickerModel(testStudio(), "")

	msg := tea.WindowSizeMsg{Width: 120, Height: 40}
	newModel, _ := m.Update(msg)
	m = newModel.(StickerModel)

	if m.width != 120 || m.height != 40 {
		t.Errorf("Expected 120x40 after resize, got %dx%d", m.width, m.height)
	}
}

// TestStickerModelGetters tests getter methods
func TestStickerModelGetters(t *testing.T) {
	m := NewStickerModel(testStudio(), "")

	if m.IsQuitting() {
		t.Error("Expected IsQuitting to be false initially")
	}
	if m.BackToMenu() {
		t.Error("Expected BackToMenu to be false initially")
	}
	if m.HasError() {
		t.Error("Expected HasError to be false initially")
	}
	if m.IsComplete() {
		t.Error("Expected IsComplete to be false initially")
	}
}

// TestOutputFilePath tests result path derivation
func TestOutputFilePath(t *testing.T) {
	tests := []struct {
		input     string
		operation string
		ext       string
		want      string
	}{
		{"/pics/capy.png", OpRemoveText, ".png", "/pics/capy_remove-text.png"},
		{"/pics/capy.gif", OpAnimate, ".gif", "/pics/capy_animate.gif"},
		{"/pics/capy.jpeg", OpStylize, ".png", "/pics/capy_stylize.png"},
	}

	for _, tt := range tests {
		if got := outputFilePath(tt.input, tt.operation, tt.ext); got != tt.want {
			t.Errorf("outputFilePath(%q, %q, %q) = %q, want %q",
				tt.input, tt.operation, tt.ext, got, tt.want)
		}
	}
}

// TestClipOutput tests how a finished clip is rendered for saving
func TestClipOutput(t *testing.T) {
	mp4 := []byte("mp4-bytes")
	gifData := []byte("gif-bytes")

	okConvert := func([]byte) ([]byte, error) { return gifData, nil }
	failConvert := func([]byte) ([]byte, error) { return nil, errors.New("render failed") }

	tests := []struct {
		name     string
		mime     string
		convert  clipConvert
		wantData []byte
		wantExt  string
	}{
		{"gif result passes through untouched", "image/gif", okConvert, mp4, ".gif"},
		{"mp4 converts to gif with a converter", "video/mp4", okConvert, gifData, ".gif"},
		{"mp4 kept when conversion fails", "video/mp4", failConvert, mp4, ".mp4"},
		{"mp4 kept without a converter", "video/mp4", nil, mp4, ".mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, ext := clipOutput(mp4, tt.mime, tt.convert)
			if ext != tt.wantExt {
				t.Errorf("ext = %q, want %q", ext, tt.wantExt)
			}
			if !bytes.Equal(data, tt.wantData) {
				t.Errorf("data = %q, want %q", data, tt.wantData)
			}
		})
	}
}

// TestShareProgressPublisher tests the optional share-server feed wiring
func TestShareProgressPublisher(t *testing.T) {
	t.Setenv("SAUCY_SERVER", "")
	if pub := shareProgressPublisher(); pub != nil {
		t.Error("publisher should be nil without SAUCY_SERVER")
	}

	t.Setenv("SAUCY_SERVER", "not a url")
	if pub := shareProgressPublisher(); pub != nil {
		t.Error("publisher should be nil for an unusable SAUCY_SERVER")
	}

	t.Setenv("SAUCY_SERVER", "https://saucy.example")
	if pub := shareProgressPublisher(); pub == nil {
		t.Error("publisher should be built from SAUCY_SERVER")
	}
}

// TestFeed tests the generation feed
func TestFeed(t *testing.T) {
	f := NewFeed(60, 6)

	if !strings.Contains(f.Render(), "Waiting") {
		t.Error("Empty feed should render a waiting message")
	}

	f.Add(FeedEvent{Kind: EventRequest, Title: "remove text"})
	f.Add(FeedEvent{Kind: EventComplete, Title: "saved capy.png"})

	rendered := f.Render()
	if !strings.Contains(rendered, "remove text") || !strings.Contains(rendered, "saved capy.png") {
		t.Errorf("feed render missing events: %q", rendered)
	}
}

// TestFeedTrimsHistory tests the bounded history
func TestFeedTrimsHistory(t *testing.T) {
	f := NewFeed(60, 6)
	f.MaxEvents = 3

	for i := 0; i < 10; i++ {
		f.Add(FeedEvent{Kind: EventStatus, Title: "tick"})
	}
	if len(f.Events) != 3 {
		t.Errorf("feed kept %d events, want 3", len(f.Events))
	}
}
