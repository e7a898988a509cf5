package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// EventKind classifies a generation feed entry
type EventKind string

const (
	// EventRequest marks an outgoing provider call
	EventRequest EventKind = "request"
	// EventStatus marks a progress update while a call runs
	EventStatus EventKind = "status"
	// EventError marks a failed call
	EventError EventKind = "error"
	// EventComplete marks a finished call
	EventComplete EventKind = "complete"
)

// FeedEvent is a single entry in the generation feed
type FeedEvent struct {
	Timestamp time.Time
	Kind      EventKind
	Title     string
	Detail    string
}

// Feed shows what the app is doing against the providers, scrollable
// through a viewport. It keeps a bounded history.
type Feed struct {
	Events    []FeedEvent
	Viewport  viewport.Model
	MaxEvents int
}

// NewFeed creates a feed with the given dimensions
func NewFeed(width, height int) *Feed {
	vp := viewport.New(width, height)
	vp.Style = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1)

	return &Feed{
		Viewport:  vp,
		MaxEvents: 100,
	}
}

// Add appends an event and scrolls to it
func (f *Feed) Add(event FeedEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	f.Events = append(f.Events, event)
	if f.MaxEvents > 0 && len(f.Events) > f.MaxEvents {
		f.Events = f.Events[len(f.Events)-f.MaxEvents:]
	}

	f.Viewport.SetContent(f.Render())
	f.Viewport.GotoBottom()
}

// SetSize updates the feed dimensions
func (f *Feed) SetSize(width, height int) {
	f.Viewport.Width = width
	f.Viewport.Height = height
	f.Viewport.SetContent(f.Render())
}

// Clear removes all events
func (f *Feed) Clear() {
	f.Events = nil
	f.Viewport.SetContent(f.Render())
}

// View returns the viewport view
func (f *Feed) View() string {
	return f.Viewport.View()
}

// Render renders all events to a string
func (f *Feed) Render() string {
	if len(f.Events) == 0 {
		return MutedStyle.Render("  Waiting...")
	}

	var lines []string
	for _, event := range f.Events {
		lines = append(lines, f.renderEvent(event))
	}
	return strings.Join(lines, "\n")
}

func (f *Feed) renderEvent(event FeedEvent) string {
	icon, style := eventStyle(event.Kind)

	timestamp := lipgloss.NewStyle().
		Foreground(ColorMuted).
		Render(event.Timestamp.Format("15:04:05"))

	line := fmt.Sprintf("%s %s %s", timestamp, style.Render(icon), style.Render(event.Title))
	if event.Detail != "" {
		line += " " + MutedStyle.Render("- "+event.Detail)
	}
	return line
}

func eventStyle(kind EventKind) (string, lipgloss.Style) {
	switch kind {
	case EventRequest:
		return "[>]", lipgloss.NewStyle().Foreground(ColorSecondary)
	case EventError:
		return "[!]", lipgloss.NewStyle().Foreground(ColorError)
	case EventComplete:
		return "[x]", lipgloss.NewStyle().Foreground(ColorSuccess)
	default:
		return "[-]", lipgloss.NewStyle().Foreground(ColorPrimary)
	}
}
