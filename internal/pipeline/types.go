package pipeline

import (
	"fmt"
	"strings"

	"github.com/canonical/trpl-ebook/internal/inspect"
)

// Format is an output format of the book.
type Format int

const (
	FormatMarkdown Format = iota
	FormatHTML
	FormatEPUB
)

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatHTML:
		return "html"
	case FormatEPUB:
		return "epub"
	default:
		return "md"
	}
}

func (f Format) String() string {
	switch f {
	case FormatHTML:
		return "HTML"
	case FormatEPUB:
		return "ePub"
	default:
		return "Markdown"
	}
}

// ParseFormat accepts a format extension or display name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	case "epub":
		return FormatEPUB, nil
	}
	return 0, fmt.Errorf("unknown format %q", name)
}

// ParseFormats parses names, dropping duplicates.
func ParseFormats(names []string) ([]Format, error) {
	var formats []Format
	seen := make(map[Format]bool)
	for _, name := range names {
		f, err := ParseFormat(name)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// FormatStatus represents the progress of rendering one format.
type FormatStatus struct {
	Format Format
	Stage  string // "waiting", "rendering", "done", "skipped", "error"
	Path   string
	Report *inspect.Report
	Err    error
}

// RenderError wraps a renderer failure so callers can tell a missing
// renderer from a renderer that ran and failed, and both from build errors.
type RenderError struct {
	Format      Format
	Err         error
	Stderr      string
	Unavailable bool
}

func (e *RenderError) Error() string {
	msg := fmt.Sprintf("render %s: %v", e.Format, e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *RenderError) Unwrap() error { return e.Err }
