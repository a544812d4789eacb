// Package timecode converts between absolute second offsets and the MM:SS
// strings shown to users.
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SecondsToMMSS formats an offset as zero-padded MM:SS, truncating any
// fractional second. Minutes are not wrapped into hours, so 3725s is "62:05".
// Negative and non-finite inputs format as "00:00".
func SecondsToMMSS(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "00:00"
	}
	total := int64(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// MMSSToSeconds parses a MM:SS string into whole seconds.
func MMSSToSeconds(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid MM:SS timestamp %q", s)
	}
	minutes, err := parseField(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid minutes in %q: %w", s, err)
	}
	seconds, err := parseField(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid seconds in %q: %w", s, err)
	}
	if seconds >= 60 {
		return 0, fmt.Errorf("invalid seconds in %q: must be below 60", s)
	}
	return minutes*60 + seconds, nil
}

// Parse accepts MM:SS, HH:MM:SS or a bare number of seconds and returns the
// offset in seconds. Fractional seconds are kept ("01:02.5" is 62.5).
func Parse(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty timestamp")
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}

	secs, err := strconv.ParseFloat(parts[len(parts)-1], 64)
	if err != nil || secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return 0, fmt.Errorf("invalid seconds in %q", s)
	}
	if len(parts) > 1 && secs >= 60 {
		return 0, fmt.Errorf("invalid seconds in %q: must be below 60", s)
	}

	total := secs
	multiplier := 60.0
	for i := len(parts) - 2; i >= 0; i-- {
		v, err := parseField(parts[i])
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		if i == 1 && len(parts) == 3 && v >= 60 {
			return 0, fmt.Errorf("invalid minutes in %q: must be below 60", s)
		}
		total += float64(v) * multiplier
		multiplier *= 60
	}
	return total, nil
}

// Normalize re-renders any accepted timestamp form as canonical MM:SS.
func Normalize(s string) (string, error) {
	secs, err := Parse(s)
	if err != nil {
		return "", err
	}
	return SecondsToMMSS(secs), nil
}

func parseField(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty field")
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative field")
	}
	return v, nil
}
