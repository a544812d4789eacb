package llm

import (
	"context"
	"strings"

	"github.com/vidnav/vidnav/internal/scenes"
	"github.com/vidnav/vidnav/internal/timestamps"
	"github.com/vidnav/vidnav/internal/transcript"
)

// LabelRequest describes one scene to be titled. SceneNumber is 1-based.
type LabelRequest struct {
	SceneNumber int
	Start       float64
	End         float64
	Window      transcript.Window
	Title       string
}

// GenerateLabel returns a cleaned title of at most MaxLabelRunes runes. The
// answer may still be generic; callers check IsGenericLabel.
func (c *Client) GenerateLabel(ctx context.Context, req LabelRequest) (string, error) {
	out, err := c.complete(ctx, completion{
		op:          "generate_label",
		prompt:      labelPrompt(req),
		maxTokens:   40,
		temperature: 0.3,
	})
	if err != nil {
		return "", err
	}
	return cleanLabel(out), nil
}

// GenerateTimestamps asks for chapter lines over the whole transcript.
// Unparsable lines are skipped; an answer with no usable line yields an
// empty list.
func (c *Client) GenerateTimestamps(ctx context.Context, text, title string) ([]timestamps.Timestamp, error) {
	out, err := c.complete(ctx, completion{
		op:          "generate_timestamps",
		prompt:      timestampsPrompt(text, title),
		maxTokens:   800,
		temperature: 0.3,
		validate: func(out string) error {
			if len(parseTimestampLines(out)) == 0 {
				return &parseError{what: "timestamps", raw: out}
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	parsed := parseTimestampLines(out)
	if len(parsed) == 0 {
		c.logger.Warn("no timestamp lines in model output", "error", &parseError{what: "timestamps", raw: out})
	}
	return parsed, nil
}

// SelectMainScenes implements scenes.Selector. Output that cannot be parsed
// is reported as an error so the filter takes its deterministic path.
func (c *Client) SelectMainScenes(ctx context.Context, summaries []scenes.Summary, title string) ([]int, error) {
	out, err := c.complete(ctx, completion{
		op:          "select_main_scenes",
		prompt:      selectScenesPrompt(summaries, title),
		maxTokens:   400,
		temperature: 0,
		validate: func(out string) error {
			_, err := parseIndices(out)
			return err
		},
	})
	if err != nil {
		return nil, err
	}
	indices, err := parseIndices(out)
	if err != nil {
		c.logger.Warn("scene selection unparsable", "error", err)
		return nil, err
	}
	return indices, nil
}

func (c *Client) GenerateSummary(ctx context.Context, text, title string) (string, error) {
	out, err := c.complete(ctx, completion{
		op:          "generate_summary",
		prompt:      summaryPrompt(text, title),
		maxTokens:   600,
		temperature: 0.5,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// GenerateDescription returns at most MaxDescriptionRunes runes.
func (c *Client) GenerateDescription(ctx context.Context, text, title string) (string, error) {
	out, err := c.complete(ctx, completion{
		op:          "generate_description",
		prompt:      descriptionPrompt(text, title),
		maxTokens:   100,
		temperature: 0.5,
	})
	if err != nil {
		return "", err
	}
	return truncateDescription(out), nil
}

var _ scenes.Selector = (*Client)(nil)
