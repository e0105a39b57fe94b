package inspect

import (
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"
)

// HTMLInspector implements Inspector for standalone HTML books.
type HTMLInspector struct{}

func init() {
	Register(&HTMLInspector{})
}

func (i *HTMLInspector) Name() string         { return "HTML" }
func (i *HTMLInspector) Extensions() []string { return []string{".html", ".htm"} }

func (i *HTMLInspector) Inspect(filename string, r *Report) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	s, err := scanHTML(f)
	if err != nil {
		return err
	}
	r.Title = s.title
	r.Sections = s.sections
	r.Words = s.words
	return nil
}

type htmlStats struct {
	title    string
	sections int
	words    int
}

// scanHTML walks a document counting elements whose id is a chapter
// anchor and the words of its text nodes.
func scanHTML(r io.Reader) (htmlStats, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return htmlStats{}, err
	}

	var s htmlStats
	var walk func(*html.Node, bool)
	walk = func(n *html.Node, inTitle bool) {
		switch n.Type {
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
			inTitle = inTitle || n.Data == "title"
			for _, a := range n.Attr {
				if a.Key == "id" && strings.HasPrefix(a.Val, SectionPrefix) {
					s.sections++
				}
			}
		case html.TextNode:
			if inTitle {
				s.title += strings.TrimSpace(n.Data)
			} else {
				s.words += len(strings.Fields(n.Data))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inTitle)
		}
	}
	walk(doc, false)
	return s, nil
}
