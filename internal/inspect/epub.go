package inspect

import (
	"fmt"

	"github.com/taylorskalyo/goreader/epub"
)

// EPUBInspector implements Inspector for EPUB files.
type EPUBInspector struct{}

func init() {
	Register(&EPUBInspector{})
}

func (i *EPUBInspector) Name() string         { return "ePub" }
func (i *EPUBInspector) Extensions() []string { return []string{".epub"} }

// Inspect reads the package title and scans every spine document.
func (i *EPUBInspector) Inspect(filename string, r *Report) error {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return fmt.Errorf("failed to open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return fmt.Errorf("no rootfiles found in epub")
	}

	book := rc.Rootfiles[0]
	r.Title = book.Title

	for _, ref := range book.Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		f, err := ref.Item.Open()
		if err != nil {
			return fmt.Errorf("open %s: %w", ref.Item.HREF, err)
		}
		s, err := scanHTML(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("parse %s: %w", ref.Item.HREF, err)
		}
		r.Sections += s.sections
		r.Words += s.words
	}
	return nil
}
