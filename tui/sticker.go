package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"saucy/gemini"
	"saucy/share"
	"saucy/studio"
	"saucy/veo"
	"saucy/video"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

// StickerStep represents the current step in the sticker workflow
type StickerStep int

const (
	SStepSelectImage StickerStep = iota
	SStepSelectOperation
	SStepEnterPrompt
	SStepConfirm
	SStepGenerating
	SStepComplete
	SStepError
)

// Operation identifiers for the workflow menu
const (
	OpRemoveText = "remove-text"
	OpStylize    = "stylize"
	OpAnimate    = "animate"
)

var operationOptions = []struct {
	name  string
	value string
	desc  string
}{
	{"Remove text", OpRemoveText, "Erase captions and watermarks"},
	{"Sticker style", OpStylize, "Restyle as a die-cut sticker"},
	{"Animate", OpAnimate, "Generate a short clip from the image"},
}

// StickerModel is the Bubble Tea model for the sticker workflow
type StickerModel struct {
	step StickerStep

	// UI components
	filepicker filepicker.Model
	textInput  textinput.Model
	spinner    spinner.Model

	// Selection state
	imagePath      string
	operation      string
	operationIndex int
	prompt         string
	confirmIndex   int

	// Generation state
	studio     *studio.Studio
	feed       *Feed
	progressCh chan int
	pollCount  int
	startTime  time.Time
	demoNotice string

	// Results
	outputPath     string
	outputSize     int64
	outputDuration string
	wasDemo        bool
	errorMessage   string

	// Dimensions
	width  int
	height int

	// State flags
	quitting   bool
	backToMenu bool

	ctx    context.Context
	cancel context.CancelFunc
}

// stickerResultMsg is sent when a synchronous edit completes
type stickerResultMsg struct {
	outputPath string
	size       int64
	demo       bool
	err        error
}

// clipResultMsg is sent when a video generation completes
type clipResultMsg struct {
	outputPath string
	size       int64
	duration   string
	demo       bool
	err        error
}

// pollMsg carries one progress tick from a running video generation
type pollMsg int

// NewStickerModel creates a new sticker workflow model
func NewStickerModel(st *studio.Studio, demoNotice string) StickerModel {
	fp := filepicker.New()
	fp.AllowedTypes = gemini.SupportedImageTypes
	fp.ShowHidden = false
	fp.ShowSize = true
	fp.Height = 12
	if wd, err := os.Getwd(); err == nil {
		fp.CurrentDirectory = wd
	}

	ti := textinput.New()
	ti.Placeholder = "bold cartoon, thick outline"
	ti.CharLimit = 300
	ti.Width = 50

	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: SpinnerFrames,
		FPS:    time.Second / 8,
	}
	s.Style = lipgloss.NewStyle().Foreground(ColorSauce)

	ctx, cancel := context.WithCancel(context.Background())

	return StickerModel{
		step:       SStepSelectImage,
		filepicker: fp,
		textInput:  ti,
		spinner:    s,
		studio:     st,
		feed:       NewFeed(70, 8),
		demoNotice: demoNotice,
		width:      80,
		height:     24,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Init initializes the model
func (m StickerModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.filepicker.Init(),
	)
}

// Update handles messages
func (m StickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		key := msg.String()

		if key == "ctrl+c" {
			if m.step == SStepGenerating {
				return m, nil
			}
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		}

		if key == "esc" {
			if m.step == SStepGenerating {
				m.cancel()
				m.errorMessage = "Cancelled"
				m.step = SStepError
				return m, nil
			}
			return m.goBack()
		}

		switch m.step {
		case SStepSelectImage:
			if key == "q" {
				m.quitting = true
				m.cancel()
				return m, tea.Quit
			}
			// Remaining keys drive the file picker below

		case SStepEnterPrompt:
			if key == "enter" {
				m.prompt = m.textInput.Value()
				if m.operation == OpAnimate && strings.TrimSpace(m.prompt) == "" {
					// Animation needs a prompt; stickers fall back to a default style
					return m, nil
				}
				m.step = SStepConfirm
				return m, nil
			}
			// Remaining keys feed the text input below

		default:
			if key == "q" && m.step != SStepComplete && m.step != SStepError {
				m.quitting = true
				m.cancel()
				return m, tea.Quit
			}
			return m.handleStepInput(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pollMsg:
		m.pollCount = int(msg)
		m.feed.Add(FeedEvent{
			Kind:  EventStatus,
			Title: fmt.Sprintf("poll %d/%d", m.pollCount, veo.MaxPolls),
		})
		return m, m.listenProgress()

	case stickerResultMsg:
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
			m.feed.Add(FeedEvent{Kind: EventError, Title: "edit failed", Detail: msg.err.Error()})
			m.step = SStepError
			return m, nil
		}
		m.outputPath = msg.outputPath
		m.outputSize = msg.size
		m.wasDemo = msg.demo
		m.feed.Add(FeedEvent{Kind: EventComplete, Title: "saved " + filepath.Base(msg.outputPath)})
		m.step = SStepComplete
		return m, nil

	case clipResultMsg:
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
			m.feed.Add(FeedEvent{Kind: EventError, Title: "generation failed", Detail: msg.err.Error()})
			m.step = SStepError
			return m, nil
		}
		m.outputPath = msg.outputPath
		m.outputSize = msg.size
		m.outputDuration = msg.duration
		m.wasDemo = msg.demo
		m.feed.Add(FeedEvent{Kind: EventComplete, Title: "saved " + filepath.Base(msg.outputPath)})
		m.step = SStepComplete
		return m, nil
	}

	// Update sub-components based on step
	switch m.step {
	case SStepSelectImage:
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)
		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			m.imagePath = path
			m.step = SStepSelectOperation
			return m, nil
		}
		return m, cmd

	case SStepEnterPrompt:
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleStepInput handles keyboard input for specific steps
func (m StickerModel) handleStepInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.step {
	case SStepSelectOperation:
		switch msg.String() {
		case "up", "k":
			if m.operationIndex > 0 {
				m.operationIndex--
			}
		case "down", "j":
			if m.operationIndex < len(operationOptions)-1 {
				m.operationIndex++
			}
		case "enter":
			m.operation = operationOptions[m.operationIndex].value
			if m.operation == OpRemoveText {
				m.step = SStepConfirm
			} else {
				m.step = SStepEnterPrompt
				if m.operation == OpAnimate {
					m.textInput.Placeholder = "the subject waves and smiles"
				}
				m.textInput.SetValue("")
				m.textInput.Focus()
				return m, textinput.Blink
			}
		}

	case SStepConfirm:
		switch msg.String() {
		case "left", "h", "right", "l", "tab":
			m.confirmIndex = 1 - m.confirmIndex
		case "enter":
			if m.confirmIndex == 0 {
				return m.startGeneration()
			}
			m.backToMenu = true
			return m, tea.Quit
		case "y", "Y":
			return m.startGeneration()
		case "n", "N":
			m.backToMenu = true
			return m, tea.Quit
		}

	case SStepComplete:
		switch msg.String() {
		case "enter", "q":
			m.backToMenu = true
			return m, tea.Quit
		case "a":
			newModel := NewStickerModel(m.studio, m.demoNotice)
			return newModel, newModel.Init()
		}

	case SStepError:
		switch msg.String() {
		case "enter", "r":
			newModel := NewStickerModel(m.studio, m.demoNotice)
			return newModel, newModel.Init()
		case "q":
			m.backToMenu = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// goBack navigates to the previous step
func (m StickerModel) goBack() (tea.Model, tea.Cmd) {
	switch m.step {
	case SStepSelectOperation:
		m.step = SStepSelectImage
	case SStepEnterPrompt:
		m.step = SStepSelectOperation
	case SStepConfirm:
		if m.operation == OpRemoveText {
			m.step = SStepSelectOperation
		} else {
			m.step = SStepEnterPrompt
			m.textInput.Focus()
		}
	}
	return m, nil
}

// startGeneration kicks off the selected operation
func (m StickerModel) startGeneration() (tea.Model, tea.Cmd) {
	m.step = SStepGenerating
	m.startTime = time.Now()
	m.pollCount = 0
	m.feed.Add(FeedEvent{Kind: EventRequest, Title: operationOptions[m.operationIndex].name})

	if m.operation == OpAnimate {
		m.progressCh = make(chan int, veo.MaxPolls)
		return m, tea.Batch(m.generateClip(), m.listenProgress())
	}
	return m, m.generateSticker()
}

// generateSticker runs a synchronous edit and writes the result to disk
func (m StickerModel) generateSticker() tea.Cmd {
	imagePath := m.imagePath
	operation := m.operation
	prompt := m.prompt
	st := m.studio
	ctx := m.ctx

	return func() tea.Msg {
		img, err := loadInlineImage(imagePath)
		if err != nil {
			return stickerResultMsg{err: err}
		}

		var result *studio.StickerResult
		if operation == OpRemoveText {
			result, err = st.RemoveText(ctx, img)
		} else {
			result, err = st.GenerateSticker(ctx, img, prompt)
		}
		if err != nil {
			return stickerResultMsg{err: err}
		}

		outputPath := outputFilePath(imagePath, operation, ".png")
		if err := os.WriteFile(outputPath, result.Image.Data, 0644); err != nil {
			return stickerResultMsg{err: fmt.Errorf("failed to save result: %w", err)}
		}

		return stickerResultMsg{
			outputPath: outputPath,
			size:       int64(len(result.Image.Data)),
			demo:       result.Demo,
		}
	}
}

// generateClip runs the long-running video generation
func (m StickerModel) generateClip() tea.Cmd {
	imagePath := m.imagePath
	prompt := m.prompt
	st := m.studio
	ctx := m.ctx
	ch := m.progressCh
	pub := shareProgressPublisher()

	return func() tea.Msg {
		defer close(ch)

		img, err := loadInlineImage(imagePath)
		if err != nil {
			return clipResultMsg{err: err}
		}

		genID := uuid.NewString()
		start := time.Now()
		lastPoll := 0
		result, err := st.GenerateClip(ctx, prompt, []gemini.InlineImage{img}, func(poll int) {
			lastPoll = poll
			select {
			case ch <- poll:
			default:
			}
			if pub != nil {
				// Watchers of the share page see the same ticks; a lost
				// update is harmless
				pub.Publish(ctx, share.ProgressUpdate{
					ID:      genID,
					Poll:    poll,
					Elapsed: int(time.Since(start).Seconds()),
				})
			}
		})
		if pub != nil {
			final := share.ProgressUpdate{
				ID:      genID,
				Poll:    lastPoll,
				Elapsed: int(time.Since(start).Seconds()),
				Done:    true,
			}
			if err != nil {
				final.Error = err.Error()
			}
			pub.Publish(context.Background(), final)
		}
		if err != nil {
			return clipResultMsg{err: err}
		}

		data, ext := clipOutput(result.Data, result.MIMEType, defaultClipConvert())
		outputPath := outputFilePath(imagePath, OpAnimate, ext)
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return clipResultMsg{err: fmt.Errorf("failed to save result: %w", err)}
		}

		var duration string
		if ext == ".mp4" && video.CheckFFprobe() == nil {
			if info, err := video.GetVideoInfo(outputPath); err == nil {
				duration = video.FormatDuration(info.Duration)
			}
		}

		return clipResultMsg{
			outputPath: outputPath,
			size:       int64(len(data)),
			duration:   duration,
			demo:       result.Demo,
		}
	}
}

// clipConvert renders an MP4 payload to GIF; nil means no converter is
// available on this machine
type clipConvert func(mp4 []byte) ([]byte, error)

func defaultClipConvert() clipConvert {
	if video.CheckFFmpeg() != nil {
		return nil
	}
	return func(mp4 []byte) ([]byte, error) {
		return video.ConvertBytes(mp4, video.ConvertParams{})
	}
}

// clipOutput picks the bytes and extension to write for a finished clip.
// MP4 results are rendered to GIF when a converter is available; a
// failed conversion keeps the MP4 rather than losing the clip.
func clipOutput(data []byte, mimeType string, convert clipConvert) ([]byte, string) {
	if mimeType == "image/gif" {
		return data, ".gif"
	}
	if convert != nil {
		if gifData, err := convert(data); err == nil {
			return gifData, ".gif"
		}
	}
	return data, ".mp4"
}

// shareProgressPublisher builds the optional share-server progress feed.
// Updates flow only when SAUCY_SERVER is configured.
func shareProgressPublisher() *share.ProgressPublisher {
	server := os.Getenv("SAUCY_SERVER")
	if server == "" {
		return nil
	}
	pub, err := share.NewProgressPublisher(server)
	if err != nil {
		return nil
	}
	return pub
}

// listenProgress waits for the next poll tick from the generation
func (m StickerModel) listenProgress() tea.Cmd {
	ch := m.progressCh
	return func() tea.Msg {
		if poll, ok := <-ch; ok {
			return pollMsg(poll)
		}
		return nil
	}
}

// View renders the UI
func (m StickerModel) View() string {
	if m.quitting {
		return MutedStyle.Render("Bye!\n")
	}

	var b strings.Builder
	b.WriteString(GetSaucyHeader())
	b.WriteString("\n")

	if m.demoNotice != "" {
		b.WriteString(DemoBadge(m.demoNotice))
		b.WriteString("\n")
	}

	switch m.step {
	case SStepSelectImage:
		b.WriteString(m.renderImagePicker())
	case SStepSelectOperation:
		b.WriteString(m.renderOperationSelection())
	case SStepEnterPrompt:
		b.WriteString(m.renderPromptInput())
	case SStepConfirm:
		b.WriteString(m.renderConfirmation())
	case SStepGenerating:
		b.WriteString(m.renderGenerating())
	case SStepComplete:
		b.WriteString(m.renderComplete())
	case SStepError:
		b.WriteString(m.renderError())
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m StickerModel) renderImagePicker() string {
	title := TitleStyle.Render("Pick an image or GIF")
	desc := MutedStyle.Render("PNG, JPG, GIF and WebP uploads are supported")
	return BoxStyle.Render(title + "\n" + desc + "\n\n" + m.filepicker.View())
}

func (m StickerModel) renderOperationSelection() string {
	title := TitleStyle.Render("What should Saucy do?")

	var items strings.Builder
	for i, opt := range operationOptions {
		cursor := "  "
		style := BodyStyle
		if i == m.operationIndex {
			cursor = "> "
			style = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
		}
		items.WriteString(style.Render(cursor+opt.name) +
			MutedStyle.Render(" - "+opt.desc) + "\n")
	}

	selected := MutedStyle.Render("Image: " + filepath.Base(m.imagePath))
	return BoxStyle.Render(title + "\n" + selected + "\n\n" + items.String())
}

func (m StickerModel) renderPromptInput() string {
	var title, desc string
	if m.operation == OpAnimate {
		title = TitleStyle.Render("Describe the animation")
		desc = MutedStyle.Render("What should happen in the clip?")
	} else {
		title = TitleStyle.Render("Describe the sticker style")
		desc = MutedStyle.Render("Leave empty for the default look")
	}
	return BoxStyle.Render(title + "\n" + desc + "\n\n" + m.textInput.View())
}

func (m StickerModel) renderConfirmation() string {
	title := TitleStyle.Render("Ready!")

	summary := fmt.Sprintf("Image:     %s\nOperation: %s",
		filepath.Base(m.imagePath),
		operationOptions[m.operationIndex].name,
	)
	if m.prompt != "" {
		summary += "\nPrompt:    " + m.prompt
	}

	summaryBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorSecondary).
		Padding(1, 2).
		Render(summary)

	yesStyle := lipgloss.NewStyle().Foreground(ColorSuccess).Padding(0, 2)
	noStyle := lipgloss.NewStyle().Foreground(ColorError).Padding(0, 2)
	if m.confirmIndex == 0 {
		yesStyle = yesStyle.Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(ColorSuccess)
	} else {
		noStyle = noStyle.Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(ColorError)
	}

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Center,
		yesStyle.Render("Make it!"),
		"  ",
		noStyle.Render("Cancel"),
	)

	return BoxStyle.Render(title + "\n\n" + summaryBox + "\n\n" + buttons)
}

func (m StickerModel) renderGenerating() string {
	title := TitleStyle.Render("Generating...")

	status := BodyStyle.Render("Working on " + filepath.Base(m.imagePath))
	elapsed := MutedStyle.Render("Elapsed: " + formatElapsed(time.Since(m.startTime)))

	content := title + "\n\n" + m.spinner.View() + " " + status + "\n"
	if m.operation == OpAnimate && m.pollCount > 0 {
		content += "\n" + ProgressBar(m.pollCount, veo.MaxPolls, 40) + "\n"
	}
	content += elapsed + "\n\n" + m.feed.View()

	return BoxStyle.Render(content)
}

func (m StickerModel) renderComplete() string {
	title := SuccessStyle.Render("Done!")

	summary := fmt.Sprintf("Saved to: %s\nSize:     %s\nTime:     %s",
		m.outputPath,
		formatFileSize(m.outputSize),
		formatElapsed(time.Since(m.startTime)),
	)
	if m.outputDuration != "" {
		summary += "\nLength:   " + m.outputDuration
	}
	if m.wasDemo {
		summary += "\n\n" + DemoBadge("simulated result")
	}

	summaryBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorSuccess).
		Padding(1, 2).
		Render(summary)

	hint := MutedStyle.Render("\n[a] Another  [enter] Menu  [q] Quit")
	return BoxStyle.Render(title + "\n\n" + summaryBox + hint)
}

func (m StickerModel) renderError() string {
	title := ErrorStyle.Render("Error")

	errorBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorError).
		Padding(1, 2).
		Render(m.errorMessage)

	hint := MutedStyle.Render("\n[r] Retry  [q] Quit")
	return BoxStyle.Render(title + "\n\n" + errorBox + hint)
}

func (m StickerModel) renderHelp() string {
	var pairs [][2]string

	switch m.step {
	case SStepSelectImage:
		pairs = append(pairs, [2]string{"j/k", "Navigate"}, [2]string{"enter", "Select"})
	case SStepSelectOperation:
		pairs = append(pairs, [2]string{"j/k", "Navigate"}, [2]string{"enter", "Select"})
	case SStepEnterPrompt:
		pairs = append(pairs, [2]string{"enter", "Confirm"})
	case SStepConfirm:
		pairs = append(pairs, [2]string{"y", "Yes"}, [2]string{"n", "No"}, [2]string{"tab", "Switch"})
	}

	if m.step != SStepGenerating && m.step != SStepComplete && m.step != SStepError {
		pairs = append(pairs, [2]string{"esc", "Back"}, [2]string{"q", "Quit"})
	}
	if len(pairs) == 0 {
		return ""
	}
	return KeyHelp(pairs)
}

// Getter methods for external access
func (m StickerModel) IsQuitting() bool { return m.quitting }
func (m StickerModel) BackToMenu() bool { return m.backToMenu }
func (m StickerModel) HasError() bool   { return m.step == SStepError }
func (m StickerModel) GetError() string { return m.errorMessage }
func (m StickerModel) IsComplete() bool { return m.step == SStepComplete }

// loadInlineImage reads an upload from disk with its MIME type
func loadInlineImage(path string) (gemini.InlineImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return gemini.InlineImage{}, fmt.Errorf("failed to read image: %w", err)
	}

	mime := "image/png"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		mime = "image/jpeg"
	case ".gif":
		mime = "image/gif"
	case ".webp":
		mime = "image/webp"
	}
	return gemini.InlineImage{Data: data, MIMEType: mime}, nil
}

// outputFilePath derives the result path next to the input
func outputFilePath(inputPath, operation, ext string) string {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return filepath.Join(filepath.Dir(inputPath), fmt.Sprintf("%s_%s%s", base, operation, ext))
}

func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}

func formatFileSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

// RunStickerUI runs the sticker workflow and reports whether the app
// should return to the menu
func RunStickerUI(st *studio.Studio, demoNotice string) (continueApp bool, err error) {
	model := NewStickerModel(st, demoNotice)
	p := tea.NewProgram(model, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}

	m := finalModel.(StickerModel)
	if m.BackToMenu() {
		return true, nil
	}
	if m.HasError() {
		return false, fmt.Errorf("%s", m.GetError())
	}
	return false, nil
}
