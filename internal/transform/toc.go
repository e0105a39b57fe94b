package transform

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	tocBullet    = "*"
	indentWidth  = 4
	anchorPrefix = "sec--"
)

var tocEntryPattern = regexp.MustCompile(`^(\s*)\*\s\[(.+?)\]\((.+?)\)`)

var (
	ErrMalformedEntry  = errors.New("malformed table of contents entry")
	ErrNoAnchor        = errors.New("chapter filename has no name to derive an anchor from")
	ErrInvalidFilename = errors.New("chapter filename is not valid UTF-8")
)

// TocParseError reports the table of contents line that failed to parse.
type TocParseError struct {
	Line int // 1-based
	Text string
	Err  error
}

func (e *TocParseError) Error() string {
	return fmt.Sprintf("table of contents line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *TocParseError) Unwrap() error { return e.Err }

// Chapter is one entry of the table of contents.
type Chapter struct {
	Filename  string
	Header    string // "Title {#sec--anchor}"
	NestLevel int
}

// HeadingLine returns the heading that introduces the chapter in the
// aggregated document, at level NestLevel+1.
func (c Chapter) HeadingLine() string {
	return strings.Repeat("#", c.NestLevel+1) + " " + c.Header
}

// Title returns the display title without the anchor attribute.
func (c Chapter) Title() string {
	if i := strings.LastIndex(c.Header, " {#"); i >= 0 && strings.HasSuffix(c.Header, "}") {
		return c.Header[:i]
	}
	return c.Header
}

// Anchor returns the section anchor of the chapter without the "#".
func (c Chapter) Anchor() string {
	stem, err := ChapterAnchor(c.Filename)
	if err != nil {
		return ""
	}
	return anchorPrefix + stem
}

// TableOfContents is the ordered chapter list of a book. It is not modified
// after ParseTOC returns.
type TableOfContents struct {
	chapters []Chapter
}

// Chapters returns a copy of the chapters in rendering order.
func (t *TableOfContents) Chapters() []Chapter {
	return slices.Clone(t.chapters)
}

func (t *TableOfContents) Len() int { return len(t.chapters) }

// ParseTOC parses a bullet-list table of contents. Only lines whose trimmed
// text starts with "*" are considered, and every one of them must be a
// chapter link: a bullet that fails to parse aborts the whole parse.
func ParseTOC(source string) (*TableOfContents, error) {
	var chapters []Chapter
	for i, line := range strings.Split(source, "\n") {
		if !strings.HasPrefix(strings.TrimLeftFunc(line, unicode.IsSpace), tocBullet) {
			continue
		}
		chapter, err := ParseChapter(line)
		if err != nil {
			return nil, &TocParseError{Line: i + 1, Text: line, Err: err}
		}
		chapters = append(chapters, chapter)
	}
	return &TableOfContents{chapters: chapters}, nil
}

// ParseChapter parses a single "<indent>* [Title](file.md)" line. Every four
// indent characters add one nesting level.
func ParseChapter(line string) (Chapter, error) {
	m := tocEntryPattern.FindStringSubmatch(line)
	if m == nil {
		return Chapter{}, ErrMalformedEntry
	}
	indent, title, filename := m[1], m[2], m[3]
	anchor, err := ChapterAnchor(filename)
	if err != nil {
		return Chapter{}, err
	}
	return Chapter{
		Filename:  filename,
		Header:    title + " {#" + anchorPrefix + anchor + "}",
		NestLevel: utf8.RuneCountInString(indent) / indentWidth,
	}, nil
}

// ChapterAnchor derives the anchor name of a chapter from its filename: the
// last path element without its final extension. A name made only of an
// extension (".md") is kept whole.
func ChapterAnchor(filename string) (string, error) {
	if !utf8.ValidString(filename) {
		return "", ErrInvalidFilename
	}
	base := path.Base(filename)
	if base == "." || base == ".." || base == "/" {
		return "", ErrNoAnchor
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		return base[:i], nil
	}
	return base, nil
}
