package export

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
)

// SanitizeName keeps letters, digits and a few punctuation marks, replaces
// everything else with '_', collapses whitespace and caps the length in
// runes. It is used for EDL clip names and download filenames.
func SanitizeName(s string, maxLen int) string {
	var b strings.Builder
	prevSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !prevSpace {
				b.WriteRune(' ')
			}
			prevSpace = true
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		prevSpace = false
		if isAllowedNameRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	cleaned := strings.TrimSpace(b.String())
	if maxLen > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxLen {
			cleaned = strings.TrimSpace(string(runes[:maxLen]))
		}
	}
	return cleaned
}

func isAllowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case '-', '_', '.', ',', '(', ')':
		return true
	default:
		return false
	}
}

// ErrOutputDir is wrapped by every ValidateOutputDir failure.
var ErrOutputDir = errors.New("invalid output directory")

// ValidateOutputDir accepts an existing directory given as a clean path
// with no ".." element.
func ValidateOutputDir(dir string) error {
	switch {
	case strings.TrimSpace(dir) == "":
		return fmt.Errorf("%w: path is required", ErrOutputDir)
	case slices.Contains(strings.Split(filepath.ToSlash(dir), "/"), ".."):
		return fmt.Errorf("%w: %q contains path traversal", ErrOutputDir, dir)
	case filepath.Clean(dir) != dir:
		return fmt.Errorf("%w: %q is not a clean path", ErrOutputDir, dir)
	}

	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %q does not exist", ErrOutputDir, dir)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutputDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %q is not a directory", ErrOutputDir, dir)
	}
	return nil
}
