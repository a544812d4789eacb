package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vidnav/vidnav/internal/timestamps"
)

// Render produces the document for format. An empty list is an error.
func Render(format Format, list []timestamps.Timestamp, opts Options) (string, error) {
	if len(list) == 0 {
		return "", fmt.Errorf("no timestamps to export")
	}
	markers := Markers(list, opts.Duration)
	switch format {
	case FormatChapters:
		return Chapters(markers), nil
	case FormatWebVTT:
		return WebVTT(markers), nil
	case FormatEDL:
		return GenerateEDL(markers, opts.Title, opts.FrameRate), nil
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}
}

// Filename builds a safe download name from a title.
func Filename(title string, format Format) string {
	name := SanitizeName(title, 80)
	if name == "" {
		name = "timestamps"
	}
	return name + format.Extension()
}

// WriteFile renders into outputDir and returns the written path.
func WriteFile(outputDir string, format Format, list []timestamps.Timestamp, opts Options) (string, error) {
	if err := ValidateOutputDir(outputDir); err != nil {
		return "", err
	}
	body, err := Render(format, list, opts)
	if err != nil {
		return "", err
	}
	path := filepath.Join(outputDir, Filename(opts.Title, format))
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
