// Package video renders provider-generated MP4 clips into shareable
// GIFs with ffmpeg.
package video

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ConvertParams holds the parameters for an MP4 to GIF conversion
type ConvertParams struct {
	InputPath  string
	OutputPath string
	FPS        int // Frames per second; 0 uses DefaultFPS
	Width      int // Output width in pixels; 0 uses DefaultWidth, height scales to match
}

const (
	DefaultFPS   = 12
	DefaultWidth = 480
)

// VideoInfo holds metadata about a video file
type VideoInfo struct {
	Duration time.Duration
	Path     string
	Filename string
}

// GetVideoInfo retrieves information about a video file using ffprobe
func GetVideoInfo(path string) (*VideoInfo, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to get video info: %w", err)
	}

	durationStr := strings.TrimSpace(string(output))
	durationSec, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse duration: %w", err)
	}

	return &VideoInfo{
		Duration: time.Duration(durationSec * float64(time.Second)),
		Path:     path,
		Filename: filepath.Base(path),
	}, nil
}

// FormatDuration formats a duration as HH:MM:SS, or MM:SS under an hour
func FormatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// GenerateOutputPath derives the .gif path next to the input video
func GenerateOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), ext)
	dir := filepath.Dir(inputPath)
	return filepath.Join(dir, base+".gif")
}

// ToGIF converts a video to an animated GIF using ffmpeg.
// A palette is generated from the source in the same filter graph so the
// output doesn't fall back to the dithered generic 256-color table.
func ToGIF(params ConvertParams) error {
	args := []string{
		"-y", // Overwrite output file if it exists
		"-i", params.InputPath,
		"-vf", buildFilter(params),
		"-loop", "0",
		params.OutputPath,
	}

	cmd := exec.Command("ffmpeg", args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg error: %w\nOutput: %s", err, string(output))
	}

	return nil
}

// buildFilter assembles the ffmpeg filter graph for a conversion
func buildFilter(params ConvertParams) string {
	fps := params.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	width := params.Width
	if width <= 0 {
		width = DefaultWidth
	}
	return fmt.Sprintf(
		"fps=%d,scale=%d:-1:flags=lanczos,split[s0][s1];[s0]palettegen[p];[s1][p]paletteuse",
		fps, width,
	)
}

// ConvertBytes runs ToGIF over an in-memory MP4 and returns the GIF
// bytes. The provider hands clips back as raw bytes, so they round-trip
// through a temp directory for ffmpeg.
func ConvertBytes(mp4 []byte, params ConvertParams) ([]byte, error) {
	dir, err := os.MkdirTemp("", "saucy-togif-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	params.InputPath = filepath.Join(dir, "input.mp4")
	params.OutputPath = filepath.Join(dir, "output.gif")

	if err := os.WriteFile(params.InputPath, mp4, 0600); err != nil {
		return nil, fmt.Errorf("failed to write temp video: %w", err)
	}
	if err := ToGIF(params); err != nil {
		return nil, err
	}

	out, err := os.ReadFile(params.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read converted gif: %w", err)
	}
	return out, nil
}

// CheckFFmpeg checks if ffmpeg is installed
func CheckFFmpeg() error {
	cmd := exec.Command("ffmpeg", "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg not found. Please install ffmpeg first")
	}
	return nil
}

// CheckFFprobe checks if ffprobe is installed
func CheckFFprobe() error {
	cmd := exec.Command("ffprobe", "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffprobe not found. Please install ffmpeg first")
	}
	return nil
}

// IsVideoFile checks if a file has a video extension
func IsVideoFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	videoExts := map[string]bool{
		".mp4":  true,
		".mkv":  true,
		".mov":  true,
		".avi":  true,
		".webm": true,
		".m4v":  true,
	}
	return videoExts[ext]
}

// IsAnimatedUpload checks if a file looks like a GIF by extension
func IsAnimatedUpload(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".gif"
}
