package transform

import (
	"regexp"
	"strings"
)

var headingPattern = regexp.MustCompile(`^(#+)\s+(.+)$`)

// ShiftHeadings rewrites every ATX heading outside fenced blocks to level
// old+increase-1, keeping the title text. The resulting level never drops
// below 1.
func ShiftHeadings(text string, increase int) string {
	return foldLines(text, func(line string, state FenceState, toggle bool) (string, bool) {
		if state == InFence || toggle {
			return line, true
		}
		m := headingPattern.FindStringSubmatch(line)
		if m == nil {
			return line, true
		}
		level := max(len(m[1])+increase-1, 1)
		return strings.Repeat("#", level) + " " + m[2], true
	})
}
