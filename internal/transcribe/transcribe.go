// Package transcribe turns extracted audio into a timed transcript using
// the OpenAI Whisper API or a local whisper.cpp binary.
package transcribe

import (
	"context"
	"fmt"
	"strings"

	"github.com/vidnav/vidnav/internal/transcript"
)

const (
	BackendOpenAI     = "openai"
	BackendWhisperCPP = "whispercpp"
)

// Transcriber converts a 16 kHz mono WAV into a transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (transcript.Transcript, error)
	Name() string
}

// ParseBackend validates a backend name.
func ParseBackend(s string) (string, error) {
	switch b := strings.ToLower(strings.TrimSpace(s)); b {
	case "", BackendOpenAI:
		return BackendOpenAI, nil
	case BackendWhisperCPP, "whisper.cpp", "whisper-cpp":
		return BackendWhisperCPP, nil
	default:
		return "", fmt.Errorf("unknown transcription backend %q", s)
	}
}
