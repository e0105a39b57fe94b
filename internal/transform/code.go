package transform

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// CanonicalRustFence replaces every recognised spelling of a Rust fence.
	CanonicalRustFence = "```rust"
	// DefaultWrapMarker prefixes continuation lines of wrapped code.
	DefaultWrapMarker = "↳ "
)

// CodeOptions configures CanonicalizeCode. A zero WrapWidth disables
// wrapping.
type CodeOptions struct {
	WrapWidth  int
	WrapMarker string
}

var (
	// "```rust", "``` rust,no_run", "```{rust,ignore}" ...
	rustFencePattern = regexp.MustCompile("^```.*rust")
	// "# use foo;" or a lone "#": compiled, never shown.
	hiddenLinePattern = regexp.MustCompile(`^(#\s.*|#)$`)
)

// CanonicalizeCode rewrites Rust fence openings to CanonicalRustFence and
// drops hidden lines inside those blocks. When opts.WrapWidth is set, lines
// inside any fenced block that are longer than WrapWidth runes are wrapped
// with WrapLine.
func CanonicalizeCode(text string, opts CodeOptions) string {
	rust := false
	return foldLines(text, func(line string, state FenceState, toggle bool) (string, bool) {
		switch {
		case toggle && state == Prose:
			rust = rustFencePattern.MatchString(line)
			if rust {
				return CanonicalRustFence, true
			}
			return line, true
		case toggle:
			rust = false
			return line, true
		case state == Prose:
			return line, true
		case rust && hiddenLinePattern.MatchString(line):
			return "", false
		default:
			return WrapLine(line, opts.WrapWidth, opts.WrapMarker), true
		}
	})
}

// WrapLine hard-wraps line every width runes. The first segment is width
// runes long and unprefixed; each following segment starts with marker and
// holds width-len(marker) runes of the original line. Lines that fit, and
// widths that leave no room after the marker, are returned unchanged.
func WrapLine(line string, width int, marker string) string {
	markerLen := utf8.RuneCountInString(marker)
	if width <= markerLen || utf8.RuneCountInString(line) <= width {
		return line
	}
	runes := []rune(line)
	var b strings.Builder
	b.Grow(len(line) + len(line)/width*(len(marker)+1))
	b.WriteString(string(runes[:width]))
	step := width - markerLen
	for rest := runes[width:]; len(rest) > 0; {
		n := min(step, len(rest))
		b.WriteByte('\n')
		b.WriteString(marker)
		b.WriteString(string(rest[:n]))
		rest = rest[n:]
	}
	return b.String()
}
