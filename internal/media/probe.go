package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		Duration     string `json:"duration"`
	} `json:"streams"`
}

// Probe reads container and stream metadata with ffprobe.
func (t *Toolkit) Probe(ctx context.Context, videoPath string) (*VideoInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.ProbeTimeout)
	defer cancel()

	var stdout bytes.Buffer
	result := t.exec(ctx, t.cfg.FFprobePath, &stdout,
		"-v", "error",
		"-print_format", "json",
		"-show_format", "-show_streams",
		videoPath,
	)
	if !result.IsSuccess() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("ffprobe exited %d: %s", result.ExitCode, truncate(result.StderrTail, 512))
	}

	info, err := parseProbe(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	t.cfg.Logger.Debug("probe complete",
		"path", t.safePath(videoPath),
		"duration", info.Duration,
		"fps", info.FPS,
		"width", info.Width,
		"height", info.Height,
	)
	return info, nil
}

// ProbeOrDefault never fails: an unreadable file yields duration 0 and
// DefaultFPS.
func (t *Toolkit) ProbeOrDefault(ctx context.Context, videoPath string) VideoInfo {
	info, err := t.Probe(ctx, videoPath)
	if err != nil {
		t.cfg.Logger.Warn("probe failed, using defaults", "path", t.safePath(videoPath), "error", err)
		return VideoInfo{FPS: DefaultFPS}
	}
	return *info
}

func parseProbe(data []byte) (*VideoInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("cannot parse ffprobe JSON: %w", err)
	}

	info := &VideoInfo{}
	foundVideo := false
	var streamDuration float64
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if foundVideo {
				continue
			}
			foundVideo = true
			info.Codec = s.CodecName
			info.Width = s.Width
			info.Height = s.Height
			info.FPS = parseFrameRate(s.RFrameRate)
			if info.FPS <= 0 {
				info.FPS = parseFrameRate(s.AvgFrameRate)
			}
			streamDuration = parseSeconds(s.Duration)
		case "audio":
			info.HasAudio = true
		}
	}
	if !foundVideo {
		return nil, errors.New("no video stream found")
	}

	info.Duration = parseSeconds(out.Format.Duration)
	if info.Duration <= 0 {
		info.Duration = streamDuration
	}
	if info.FPS <= 0 {
		info.FPS = DefaultFPS
	}
	return info, nil
}

// parseFrameRate reads ffprobe rates such as "30000/1001" or "25". Zero
// denominators and garbage yield 0.
func parseFrameRate(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	num, den, ok := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil || n <= 0 {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d <= 0 {
		return 0
	}
	return n / d
}

func parseSeconds(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
