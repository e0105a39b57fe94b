package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/canonical/trpl-ebook/internal/book"
	"github.com/canonical/trpl-ebook/internal/storage"
)

// ErrUnsupportedFormat is returned by renderers that cannot produce a format.
var ErrUnsupportedFormat = errors.New("format not supported by renderer")

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html{{if .Lang}} lang="{{.Lang}}"{{end}}>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
{{- range .Authors}}
<meta name="author" content="{{.}}">
{{- end}}
</head>
<body>
{{.Body}}
</body>
</html>
`))

// GoldmarkRenderer renders HTML in process without pandoc. It does not
// produce EPUB.
type GoldmarkRenderer struct {
	engine goldmark.Markdown
}

func NewGoldmarkRenderer() *GoldmarkRenderer {
	return &GoldmarkRenderer{
		engine: goldmark.New(
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
				parser.WithAttribute(),
			),
			goldmark.WithRendererOptions(html.WithUnsafe()),
			goldmark.WithExtensions(extension.GFM, extension.Footnote),
		),
	}
}

func (g *GoldmarkRenderer) Render(ctx context.Context, text string, format Format, outputPath string) error {
	switch format {
	case FormatMarkdown:
		return writeMarkdown(text, outputPath)
	case FormatHTML:
	default:
		return &RenderError{Format: format, Err: ErrUnsupportedFormat, Unavailable: true}
	}
	if err := ctx.Err(); err != nil {
		return &RenderError{Format: format, Err: err}
	}

	page, err := g.Page(text)
	if err != nil {
		return &RenderError{Format: format, Err: err}
	}
	if err := storage.WriteFile(outputPath, page); err != nil {
		return &RenderError{Format: format, Err: err}
	}
	return nil
}

// Page renders the book as a standalone HTML page. A metadata block at the
// top of text fills the page head.
func (g *GoldmarkRenderer) Page(text string) ([]byte, error) {
	head, body := splitMetadata(text)
	var meta book.Metadata
	if head != "" {
		// A malformed block still renders, untitled.
		meta, _ = book.ParseMetadata(head)
	}

	var buf bytes.Buffer
	if err := g.engine.Convert([]byte(body), &buf); err != nil {
		return nil, fmt.Errorf("markdown parse: %w", err)
	}

	var out bytes.Buffer
	err := pageTemplate.Execute(&out, struct {
		Title   string
		Lang    string
		Authors []string
		Body    template.HTML
	}{meta.Title, meta.Lang, meta.Authors(), template.HTML(buf.String())})
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return out.Bytes(), nil
}

// splitMetadata separates a leading YAML block delimited by "---" and
// "---" or "..." from the rest of text.
func splitMetadata(text string) (head, body string) {
	trimmed := strings.TrimLeft(text, "\n")
	if !strings.HasPrefix(trimmed, "---\n") {
		return "", text
	}
	rest := trimmed[len("---\n"):]
	offset := 0
	for offset < len(rest) {
		end := strings.IndexByte(rest[offset:], '\n')
		var line string
		if end < 0 {
			line = rest[offset:]
			end = len(rest) - offset
		} else {
			line = rest[offset : offset+end]
			end++
		}
		if line == "---" || line == "..." {
			return trimmed[:len("---\n")+offset+end], rest[offset+end:]
		}
		offset += end
	}
	return "", text
}
