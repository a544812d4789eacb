package llm

import "fmt"

// GenerationError is returned when a collaborator call fails after the
// retry policy is exhausted.
type GenerationError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s failed after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// parseError marks model output that did not match the expected format.
// It never leaves this package as a distinct kind.
type parseError struct {
	what string
	raw  string
}

func (e *parseError) Error() string {
	raw := e.raw
	if len(raw) > 120 {
		raw = raw[:120] + "..."
	}
	return fmt.Sprintf("could not parse %s from model output %q", e.what, raw)
}
