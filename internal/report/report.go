// Package report prints per-format build results on the terminal.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/canonical/trpl-ebook/internal/pipeline"
)

// Printer writes styled status lines. Output that is not a terminal gets
// plain text.
type Printer struct {
	w  io.Writer
	ok lipgloss.Style
	// fail and skip mark the status glyph; dim is for paths and details.
	fail lipgloss.Style
	skip lipgloss.Style
	dim  lipgloss.Style
	bold lipgloss.Style
}

// New returns a Printer for w, detecting whether w is a terminal.
func New(w io.Writer) *Printer {
	profile := termenv.Ascii
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		profile = termenv.NewOutput(f).EnvColorProfile()
	}
	return NewWithProfile(w, profile)
}

// NewWithProfile returns a Printer using the given colour profile.
func NewWithProfile(w io.Writer, profile termenv.Profile) *Printer {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(profile)
	return &Printer{
		w:    w,
		ok:   r.NewStyle().Foreground(lipgloss.Color("#22C55E")).Bold(true),
		fail: r.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true),
		skip: r.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		dim:  r.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		bold: r.NewStyle().Bold(true),
	}
}

// Line formats one format status.
func (p *Printer) Line(s pipeline.FormatStatus) string {
	name := p.bold.Render(fmt.Sprintf("%-8s", s.Format.String()))
	switch s.Stage {
	case "done":
		return fmt.Sprintf("%s %s %s%s", p.ok.Render("[✓]"), name, p.dim.Render(s.Path), p.details(s))
	case "skipped":
		return fmt.Sprintf("%s %s %s", p.skip.Render("[-]"), name, p.dim.Render(s.Path+" (unchanged)"))
	case "error":
		msg := "failed"
		if s.Err != nil {
			msg = firstLine(s.Err.Error())
		}
		return fmt.Sprintf("%s %s %s", p.fail.Render("[✗]"), name, msg)
	default:
		return fmt.Sprintf("[ ] %s %s", name, p.dim.Render(s.Stage))
	}
}

func (p *Printer) details(s pipeline.FormatStatus) string {
	if s.Report == nil {
		return ""
	}
	return p.dim.Render(fmt.Sprintf(" (%s, %d sections)", humanize.IBytes(uint64(s.Report.Size)), s.Report.Sections))
}

// Status writes the line for s.
func (p *Printer) Status(s pipeline.FormatStatus) {
	fmt.Fprintln(p.w, p.Line(s))
}

// Summary writes one line per format followed by a total.
func (p *Printer) Summary(title, release string, statuses []pipeline.FormatStatus) {
	var ok int
	for _, s := range statuses {
		p.Status(s)
		if s.Stage == "done" || s.Stage == "skipped" {
			ok++
		}
	}
	if title == "" {
		title = "book"
	}
	line := fmt.Sprintf("%s %s: %d of %d formats", title, release, ok, len(statuses))
	if ok == len(statuses) {
		fmt.Fprintln(p.w, p.ok.Render(line))
		return
	}
	fmt.Fprintln(p.w, p.fail.Render(line))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
