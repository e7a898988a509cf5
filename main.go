package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"saucy/credential"
	"saucy/studio"
	"saucy/video"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
)

// Build info - set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FB923C")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4")).
			MarginBottom(1)

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8A8A8"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FB923C")).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)

	saucyLogo = `
    ╭─────────────────────────────────────╮
    │  🍊 Saucy - AI Sticker Studio       │
    ╰─────────────────────────────────────╯`
)

func main() {
	versionFlag := flag.Bool("version", false, "Print version information")
	shortVersionFlag := flag.Bool("v", false, "Print version information (short)")
	serveFlag := flag.String("serve", "", "Run the share server on this address instead of the studio, e.g. :8080")
	dbFlag := flag.String("db", "saucy.db", "Share server database path")
	siteFlag := flag.String("site", "http://localhost:8080", "Public base URL for share links")
	flag.Parse()

	if *versionFlag || *shortVersionFlag {
		fmt.Printf("saucy %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		fmt.Printf("  go:     %s\n", runtime.Version())
		fmt.Printf("  os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		os.Exit(0)
	}

	// Load .env file if it exists (won't error if missing)
	_ = godotenv.Load()

	if *serveFlag != "" {
		if err := runShareServer(*serveFlag, *dbFlag, *siteFlag); err != nil {
			fmt.Println(errorStyle.Render("Error: " + err.Error()))
			os.Exit(1)
		}
		return
	}

	fmt.Println(titleStyle.Render(saucyLogo))

	st, err := buildStudio()
	if err != nil {
		fmt.Println(errorStyle.Render("Error: " + err.Error()))
		os.Exit(1)
	}

	// ffmpeg is optional; generated clips just stay MP4 without it
	if err := video.CheckFFmpeg(); err != nil {
		fmt.Println(infoStyle.Render("Note: ffmpeg not found, generated clips will be saved as MP4 instead of GIF."))
	}

	cred := st.Credential(context.Background())
	if cred.Demo {
		fmt.Println(infoStyle.Render(cred.Message))
	}

	// Main loop
	for {
		if !runMainMenu(st) {
			break
		}
	}

	fmt.Println(subtitleStyle.Render("\n🍊 Thanks for using Saucy! Bye bye!"))
}

// buildStudio wires the credential chain for this machine. The remote
// store is attached only when SAUCY_SERVER is configured.
func buildStudio() (*studio.Studio, error) {
	local, err := credential.DefaultStore()
	if err != nil {
		return nil, err
	}

	resolver := &credential.Resolver{Local: local}
	if server := os.Getenv("SAUCY_SERVER"); server != "" {
		remote, err := credential.NewHTTPRemoteStore(server)
		if err != nil {
			return nil, fmt.Errorf("SAUCY_SERVER: %w", err)
		}
		resolver.Remote = remote
	}

	session := credential.Anonymous()
	if userID := os.Getenv("SAUCY_USER"); userID != "" {
		session = credential.Authenticated(credential.Profile{UserID: userID})
	}

	return studio.New(resolver, session), nil
}

func runMainMenu(st *studio.Studio) bool {
	var choice string
	menu := huh.NewSelect[string]().
		Title("What would you like to make?").
		Options(
			huh.NewOption("Sticker studio (edit an image)", "sticker"),
			huh.NewOption("Brainstorm sticker ideas", "brainstorm"),
			huh.NewOption("Search GIFs", "gifsearch"),
			huh.NewOption("API key setup", "keys"),
			huh.NewOption("Check for updates", "update"),
			huh.NewOption("Exit", "exit"),
		).
		Value(&choice)

	err := huh.NewForm(huh.NewGroup(menu)).
		WithTheme(huh.ThemeCatppuccin()).
		Run()
	if err != nil {
		return false
	}

	switch choice {
	case "sticker":
		return runStickerWorkflow(st)
	case "brainstorm":
		return runBrainstormWorkflow(st)
	case "gifsearch":
		return runGIFSearchWorkflow()
	case "keys":
		return runKeySetup(st)
	case "update":
		runSelfUpdate()
		return true
	default:
		return false
	}
}

func askToContinue() bool {
	var choice string
	selectNext := huh.NewSelect[string]().
		Title("What next?").
		Options(
			huh.NewOption("Back to menu", "menu"),
			huh.NewOption("Exit", "exit"),
		).
		Value(&choice)

	err := huh.NewForm(huh.NewGroup(selectNext)).
		WithTheme(huh.ThemeCatppuccin()).
		Run()
	if err != nil {
		return false
	}
	return choice == "menu"
}

func formatFileSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
