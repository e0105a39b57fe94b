package transform

import (
	"errors"
	"strings"
	"testing"
)

const summary = `# Summary

* [Getting Started](getting-started.md)
* [Tutorial: Guessing Game](guessing-game.md)
* [Syntax and Semantics](syntax-and-semantics.md)
    * [Variable Bindings](variable-bindings.md)
    * [Functions](functions.md)
        * [Closures](closures.md)
* [Glossary](glossary.md)
`

func TestParseTOC(t *testing.T) {
	toc, err := ParseTOC(summary)
	if err != nil {
		t.Fatalf("ParseTOC: %v", err)
	}
	want := []Chapter{
		{Filename: "getting-started.md", Header: "Getting Started {#sec--getting-started}", NestLevel: 0},
		{Filename: "guessing-game.md", Header: "Tutorial: Guessing Game {#sec--guessing-game}", NestLevel: 0},
		{Filename: "syntax-and-semantics.md", Header: "Syntax and Semantics {#sec--syntax-and-semantics}", NestLevel: 0},
		{Filename: "variable-bindings.md", Header: "Variable Bindings {#sec--variable-bindings}", NestLevel: 1},
		{Filename: "functions.md", Header: "Functions {#sec--functions}", NestLevel: 1},
		{Filename: "closures.md", Header: "Closures {#sec--closures}", NestLevel: 2},
		{Filename: "glossary.md", Header: "Glossary {#sec--glossary}", NestLevel: 0},
	}
	got := toc.Chapters()
	if toc.Len() != len(want) || len(got) != len(want) {
		t.Fatalf("got %d chapters, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chapter %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParseTOCIntroAndSub(t *testing.T) {
	toc, err := ParseTOC("* [Intro](intro.md)\n    * [Sub](sub.md)")
	if err != nil {
		t.Fatal(err)
	}
	got := toc.Chapters()
	if len(got) != 2 {
		t.Fatalf("got %d chapters, want 2", len(got))
	}
	if got[0].HeadingLine() != "# Intro {#sec--intro}" {
		t.Errorf("heading 0 = %q", got[0].HeadingLine())
	}
	if got[1].HeadingLine() != "## Sub {#sec--sub}" {
		t.Errorf("heading 1 = %q", got[1].HeadingLine())
	}
	if got[1].Anchor() != "sec--sub" {
		t.Errorf("anchor = %q", got[1].Anchor())
	}
}

func TestParseTOCChaptersIsCopy(t *testing.T) {
	toc, err := ParseTOC("* [Intro](intro.md)")
	if err != nil {
		t.Fatal(err)
	}
	chapters := toc.Chapters()
	chapters[0].Filename = "changed.md"
	if toc.Chapters()[0].Filename != "intro.md" {
		t.Fatal("mutating the returned slice changed the table of contents")
	}
}

func TestParseChapterNestLevel(t *testing.T) {
	for indent := 0; indent < 32; indent++ {
		line := strings.Repeat(" ", indent) + "* [Title](file.md)"
		c, err := ParseChapter(line)
		if err != nil {
			t.Fatalf("indent %d: %v", indent, err)
		}
		if c.NestLevel != indent/4 {
			t.Errorf("indent %d: NestLevel = %d, want %d", indent, c.NestLevel, indent/4)
		}
		if want := strings.Repeat("#", indent/4+1) + " Title {#sec--file}"; c.HeadingLine() != want {
			t.Errorf("indent %d: HeadingLine = %q, want %q", indent, c.HeadingLine(), want)
		}
	}
}

func TestParseTOCErrors(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		wantLine int
		wantErr  error
	}{
		{"bullet without link", "* [Ok](ok.md)\n* Not a link", 2, ErrMalformedEntry},
		{"missing space", "*[Title](t.md)", 1, ErrMalformedEntry},
		{"parent directory", "\n\n* [Up](..)", 3, ErrNoAnchor},
		{"invalid utf8", "* [X](\xff.md)", 1, ErrInvalidFilename},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTOC(tt.source)
			var tocErr *TocParseError
			if !errors.As(err, &tocErr) {
				t.Fatalf("expected *TocParseError, got %v", err)
			}
			if tocErr.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", tocErr.Line, tt.wantLine)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error %v does not wrap %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseTOCIgnoresOtherLines(t *testing.T) {
	toc, err := ParseTOC("# Summary\n\nSome prose.\n- [Dash](dash.md)\n")
	if err != nil {
		t.Fatal(err)
	}
	if toc.Len() != 0 {
		t.Errorf("got %d chapters, want 0", toc.Len())
	}
}

func TestChapterAnchor(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"intro.md", "intro"},
		{"src/ch01/intro.md", "intro"},
		{"archive.tar.gz", "archive.tar"},
		{".md", ".md"},
		{"README", "README"},
	}
	for _, tt := range tests {
		got, err := ChapterAnchor(tt.filename)
		if err != nil {
			t.Errorf("ChapterAnchor(%q): %v", tt.filename, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ChapterAnchor(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestChapterTitle(t *testing.T) {
	c, err := ParseChapter("* [Tutorial: Guessing Game](guessing-game.md)")
	if err != nil {
		t.Fatal(err)
	}
	if c.Title() != "Tutorial: Guessing Game" {
		t.Errorf("Title() = %q", c.Title())
	}
	if (Chapter{Header: "Plain"}).Title() != "Plain" {
		t.Error("header without anchor changed")
	}
}
