package llm

import (
	"fmt"
	"strings"

	"github.com/vidnav/vidnav/internal/scenes"
	"github.com/vidnav/vidnav/internal/timecode"
)

const (
	systemPrompt = "You are an assistant that helps people navigate educational videos. Answer concisely and follow the requested output format exactly."

	// maxTranscriptRunes bounds the transcript text sent in one prompt.
	maxTranscriptRunes = 12000
)

func titleLine(title string) string {
	if strings.TrimSpace(title) == "" {
		return ""
	}
	return fmt.Sprintf("Video title: %q\n", strings.TrimSpace(title))
}

func clipTranscript(s string) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= maxTranscriptRunes {
		return string(r)
	}
	return string(r[:maxTranscriptRunes]) + " [...]"
}

func summaryPrompt(transcript, title string) string {
	return titleLine(title) +
		"Summarize the following video transcript in 2-3 short paragraphs. " +
		"Cover the main topics in the order they are presented.\n\n" +
		"Transcript:\n" + clipTranscript(transcript)
}

func descriptionPrompt(transcript, title string) string {
	return titleLine(title) +
		fmt.Sprintf("Write a one-sentence description of this video in at most %d characters. ", MaxDescriptionRunes) +
		"Return only the description.\n\n" +
		"Transcript:\n" + clipTranscript(transcript)
}

func timestampsPrompt(transcript, title string) string {
	return titleLine(title) +
		"Create a list of chapter timestamps for this video from its transcript. " +
		"Write one chapter per line in the format MM:SS - short description. " +
		"Start with 00:00, keep descriptions under 60 characters and do not add any other text.\n\n" +
		"Transcript:\n" + clipTranscript(transcript)
}

func labelPrompt(req LabelRequest) string {
	var b strings.Builder
	b.WriteString(titleLine(req.Title))
	fmt.Fprintf(&b, "Write a short, specific title (at most %d characters) for section %d of the video, which runs from %s to %s. ",
		MaxLabelRunes, req.SceneNumber, timecode.SecondsToMMSS(req.Start), timecode.SecondsToMMSS(req.End))
	b.WriteString("Name the topic being discussed. Do not use generic labels such as \"Scene 1\", \"Part 2\" or \"Introduction\" unless the speaker is literally introducing the video. Return only the title.\n\n")
	if req.Window.ContextBefore != "" {
		fmt.Fprintf(&b, "Preceding speech: %s\n\n", clipTranscript(req.Window.ContextBefore))
	}
	fmt.Fprintf(&b, "Speech in this section: %s\n", clipTranscript(req.Window.Text))
	if req.Window.ContextAfter != "" {
		fmt.Fprintf(&b, "\nFollowing speech: %s\n", clipTranscript(req.Window.ContextAfter))
	}
	return b.String()
}

func selectScenesPrompt(summaries []scenes.Summary, title string) string {
	var b strings.Builder
	b.WriteString(titleLine(title))
	b.WriteString("A scene detector split the video into the scenes below. Choose the scenes that mark meaningful points to navigate to. ")
	b.WriteString("Keep most scenes and drop only very short or redundant ones.\n\n")
	for _, s := range summaries {
		fmt.Fprintf(&b, "%d: %s-%s (%.1fs)\n", s.Index, timecode.SecondsToMMSS(s.Start), timecode.SecondsToMMSS(s.End), s.Duration)
	}
	b.WriteString("\nRespond with JSON only, in the form {\"indices\": [0, 2, 3]}.")
	return b.String()
}
