package transform

import (
	"fmt"
	"strings"
)

// FenceMarker opens and closes a fenced code block.
const FenceMarker = "```"

// FenceState reports whether a line scan is inside a fenced code block.
type FenceState bool

const (
	Prose   FenceState = false
	InFence FenceState = true
)

// ScanFence advances state past line. It returns the state that applies to
// the next line and whether line is itself a fence line. Only lines that
// start with FenceMarker, without leading whitespace, toggle.
func ScanFence(line string, state FenceState) (FenceState, bool) {
	if strings.HasPrefix(line, FenceMarker) {
		return !state, true
	}
	return state, false
}

// lineFunc rewrites a single line. state is the fence state in effect when
// the line is reached, so an opening fence line sees Prose and a closing
// one sees InFence. Returning keep=false drops the line.
type lineFunc func(line string, state FenceState, toggle bool) (out string, keep bool)

// foldLines threads the fence state through the lines of text, starting in
// Prose, and joins the rewritten lines back with "\n". A trailing newline in
// text is preserved.
func foldLines(text string, fn lineFunc) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	state := Prose
	for _, line := range lines {
		next, toggle := ScanFence(line, state)
		if rewritten, keep := fn(line, state, toggle); keep {
			out = append(out, rewritten)
		}
		state = next
	}
	return strings.Join(out, "\n")
}

// UnbalancedFenceError reports a fenced block that is never closed.
type UnbalancedFenceError struct {
	Line int // 1-based line of the unmatched opening fence
}

func (e *UnbalancedFenceError) Error() string {
	return fmt.Sprintf("code fence opened on line %d is never closed", e.Line)
}

// CheckFences returns an *UnbalancedFenceError when text ends inside a
// fenced block.
func CheckFences(text string) error {
	state := Prose
	opened := 0
	for i, line := range strings.Split(text, "\n") {
		next, toggle := ScanFence(line, state)
		if toggle && next == InFence {
			opened = i + 1
		}
		state = next
	}
	if state == InFence {
		return &UnbalancedFenceError{Line: opened}
	}
	return nil
}
