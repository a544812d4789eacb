package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/vidnav/vidnav/internal/timecode"
	"github.com/vidnav/vidnav/internal/timestamps"
)

const (
	MaxLabelRunes       = 80
	MaxDescriptionRunes = 150
)

var (
	timestampLineRE = regexp.MustCompile(`^\s*(?:[-*•]\s*)?[\[(]?(\d{1,2}:\d{2}(?::\d{2})?)[\])]?\s*[-–—:|]\s*(.+?)\s*$`)
	bracketListRE   = regexp.MustCompile(`\[\s*(\d+(?:\s*,\s*\d+)*)\s*,?\s*\]`)
	genericLabelRE  = regexp.MustCompile(`(?i)^(scene|part|section|segment|chapter|clip|video|untitled|no title|n/?a)(\s*#?\s*\d+)?(\s*\(.*\))?$`)
	labelPrefixRE   = regexp.MustCompile(`(?i)^(title|label|section title|heading)\s*:\s*`)
	secretsRE       = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`),
		regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{8,}\b`),
	}
)

// parseTimestampLines reads "TIME - description" lines. Lines that do not
// match are skipped. Times are re-rendered as MM:SS.
func parseTimestampLines(text string) []timestamps.Timestamp {
	out := []timestamps.Timestamp{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.ReplaceAll(line, "**", "")
		m := timestampLineRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		canonical, err := timecode.Normalize(m[1])
		if err != nil {
			continue
		}
		desc := strings.Trim(strings.TrimSpace(m[2]), `"`)
		if desc == "" {
			continue
		}
		out = append(out, timestamps.Timestamp{TimeStart: canonical, Description: desc})
	}
	return out
}

// parseIndices accepts a JSON array, an object with an "indices" (or
// "scenes") array, or, as a last resort, the first bracketed integer list
// in the text.
func parseIndices(text string) ([]int, error) {
	body := stripFences(text)

	if start := strings.IndexAny(body, "[{"); start >= 0 {
		end := strings.LastIndexAny(body, "]}")
		if end > start {
			candidate := body[start : end+1]

			var arr []int
			if err := json.Unmarshal([]byte(candidate), &arr); err == nil {
				return arr, nil
			}
			var obj struct {
				Indices []int `json:"indices"`
				Scenes  []int `json:"scenes"`
			}
			if err := json.Unmarshal([]byte(candidate), &obj); err == nil && (obj.Indices != nil || obj.Scenes != nil) {
				if obj.Indices != nil {
					return obj.Indices, nil
				}
				return obj.Scenes, nil
			}
		}
	}

	if m := bracketListRE.FindStringSubmatch(body); m != nil {
		var out []int
		for _, part := range strings.Split(m[1], ",") {
			v, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, &parseError{what: "scene indices", raw: text}
			}
			out = append(out, v)
		}
		return out, nil
	}
	return nil, &parseError{what: "scene indices", raw: text}
}

func stripFences(s string) string {
	t := strings.TrimSpace(s)
	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
	}
	return strings.TrimSpace(t)
}

// cleanLabel keeps the first line of a model answer, strips quotes, label
// prefixes and trailing periods, and caps the length.
func cleanLabel(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, "**", "")
	s = labelPrefixRE.ReplaceAllString(strings.TrimSpace(s), "")
	s = strings.Trim(s, " \t\"'`“”‘’")
	s = strings.TrimRight(s, ".")
	return truncateRunes(strings.TrimSpace(s), MaxLabelRunes)
}

// IsGenericLabel reports whether a label carries no information beyond a
// position, such as "Scene 3" or "Part".
func IsGenericLabel(s string) bool {
	s = strings.TrimSpace(s)
	if len([]rune(s)) < 3 {
		return true
	}
	return genericLabelRE.MatchString(s)
}

// FallbackLabel is the deterministic label used when generation fails or
// returns something generic. n is 1-based.
func FallbackLabel(n int, durationSeconds float64) string {
	return fmt.Sprintf("Section %d (%ds)", n, int(math.Round(durationSeconds)))
}

func truncateDescription(s string) string {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	return truncateRunes(s, MaxDescriptionRunes)
}

// truncateRunes caps s at limit runes, ending with "..." when cut.
func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 3 {
		return string(r[:limit])
	}
	return strings.TrimSpace(string(r[:limit-3])) + "..."
}

func redactSecrets(s, apiKey string) string {
	if apiKey != "" {
		s = strings.ReplaceAll(s, apiKey, "[REDACTED]")
	}
	for _, re := range secretsRE {
		s = re.ReplaceAllString(s, "[REDACTED]")
	}
	return s
}
