// Package scenes detects visual scene boundaries in a video and reduces them
// to the subset worth surfacing as navigation points.
package scenes

import (
	"fmt"
	"strings"
)

// Strategy selects the change-detection algorithm run over the frame stream.
type Strategy string

const (
	StrategyContent       Strategy = "content"
	StrategyAdaptive      Strategy = "adaptive"
	StrategyThresholdLuma Strategy = "threshold-luma"
)

const (
	DefaultContentThreshold  = 27.0
	DefaultAdaptiveThreshold = 3.0
	DefaultLumaThreshold     = 12.0
	DefaultMinSceneLength    = 1.0

	// FallbackInterval is the width of synthetic scenes used when decoding fails.
	FallbackInterval = 10.0
)

// ParseStrategy accepts the strategy names used by API callers, including
// the short "threshold" alias.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "content":
		return StrategyContent, nil
	case "adaptive":
		return StrategyAdaptive, nil
	case "threshold", "threshold-luma", "luma":
		return StrategyThresholdLuma, nil
	default:
		return "", fmt.Errorf("unknown scene strategy %q", s)
	}
}

// DefaultThreshold returns the sensitivity used when a caller passes zero.
func (s Strategy) DefaultThreshold() float64 {
	switch s {
	case StrategyAdaptive:
		return DefaultAdaptiveThreshold
	case StrategyThresholdLuma:
		return DefaultLumaThreshold
	default:
		return DefaultContentThreshold
	}
}

type Options struct {
	Strategy       Strategy
	Threshold      float64
	MinSceneLength float64
}

// Normalize fills zero values with defaults and rejects negative settings.
func (o Options) Normalize() (Options, error) {
	if o.Strategy == "" {
		o.Strategy = StrategyContent
	}
	if _, err := ParseStrategy(string(o.Strategy)); err != nil {
		return o, err
	}
	if o.Threshold < 0 {
		return o, fmt.Errorf("threshold must not be negative")
	}
	if o.MinSceneLength < 0 {
		return o, fmt.Errorf("min_scene_length must not be negative")
	}
	if o.Threshold == 0 {
		o.Threshold = o.Strategy.DefaultThreshold()
	}
	return o, nil
}

// Scene is one contiguous interval between two detected boundaries.
type Scene struct {
	Index        int     `json:"index"`
	StartSeconds float64 `json:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds"`
	Label        string  `json:"label"`
}

func (s Scene) Duration() float64 {
	return s.EndSeconds - s.StartSeconds
}

// Summary is the compact per-scene view handed to a Selector.
type Summary struct {
	Index    int     `json:"index"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
}

func Summarize(scenes []Scene) []Summary {
	out := make([]Summary, len(scenes))
	for i, s := range scenes {
		out[i] = Summary{Index: s.Index, Start: s.StartSeconds, End: s.EndSeconds, Duration: s.Duration()}
	}
	return out
}

func placeholderLabel(index int) string {
	return fmt.Sprintf("Scene %d", index+1)
}

// DetectionError reports that frames could not be decoded or analysed.
type DetectionError struct {
	Op  string
	Err error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("scene detection %s: %v", e.Op, e.Err)
}

func (e *DetectionError) Unwrap() error {
	return e.Err
}
