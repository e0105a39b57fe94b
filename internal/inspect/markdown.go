package inspect

import (
	"bufio"
	"os"
	"regexp"
	"strings"

	"github.com/canonical/trpl-ebook/internal/book"
	"github.com/canonical/trpl-ebook/internal/transform"
)

// MarkdownInspector implements Inspector for the aggregated markdown book.
type MarkdownInspector struct{}

func init() {
	Register(&MarkdownInspector{})
}

var sectionHeadingPattern = regexp.MustCompile(`^#+\s.*\{#` + SectionPrefix + `[^}]+\}\s*$`)

func (i *MarkdownInspector) Name() string         { return "Markdown" }
func (i *MarkdownInspector) Extensions() []string { return []string{".md", ".markdown"} }

// Inspect counts chapter headings outside code fences and takes the title
// from the metadata block at the top of the file.
func (i *MarkdownInspector) Inspect(filename string, r *Report) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	var head strings.Builder
	inHead := true
	state := transform.Prose
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<24)
	for sc.Scan() {
		line := sc.Text()
		if inHead {
			if strings.HasPrefix(line, "#") {
				inHead = false
			} else {
				head.WriteString(line)
				head.WriteByte('\n')
			}
		}
		next, toggle := transform.ScanFence(line, state)
		if state == transform.Prose && !toggle && sectionHeadingPattern.MatchString(line) {
			r.Sections++
		}
		if state == transform.InFence || toggle {
			state = next
			continue
		}
		state = next
		r.Words += len(strings.Fields(line))
	}
	if err := sc.Err(); err != nil {
		return err
	}

	if meta, err := book.ParseMetadata(head.String()); err == nil {
		r.Title = meta.Title
	}
	return nil
}
