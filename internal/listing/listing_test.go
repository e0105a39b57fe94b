package listing

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		name        string
		wantRelease string
		wantLabel   string
		wantOK      bool
	}{
		{"trpl-2016-10-01.html", "2016-10-01", "TRPL HTML", true},
		{"trpl-2015-05-13.a4.pdf", "2015-05-13", "TRPL A4.PDF", true},
		{"nomicon-2016-01-02.epub", "2016-01-02", "NOMICON EPUB", true},
		{"trpl-latest.html", "", "", false},
		{"index.html", "", "", false},
		{"trpl-2016-10-01", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			release, label, ok := Label(tt.name)
			if ok != tt.wantOK || release != tt.wantRelease || label != tt.wantLabel {
				t.Errorf("Label(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.name, release, label, ok, tt.wantRelease, tt.wantLabel, tt.wantOK)
			}
		})
	}
}

func writeDist(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestGroups(t *testing.T) {
	dir := writeDist(t,
		"trpl-2016-10-01.md",
		"trpl-2016-10-01.epub",
		"trpl-2015-05-13.html",
		"trpl-2016-09-30.html",
		"index.html",
		"notes.txt",
	)
	if err := os.Symlink("trpl-2016-10-01.epub", filepath.Join(dir, "trpl-latest.epub")); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "trpl-2017-01-01.d"), 0o755); err != nil {
		t.Fatal(err)
	}

	groups, err := Groups(dir)
	if err != nil {
		t.Fatalf("Groups: %v", err)
	}
	var releases []string
	for _, g := range groups {
		releases = append(releases, g.Release)
	}
	if got := strings.Join(releases, ","); got != "2016-10-01,2016-09-30,2015-05-13" {
		t.Fatalf("releases = %s", got)
	}
	first := groups[0].Files
	if len(first) != 2 || first[0].Name != "trpl-2016-10-01.epub" || first[1].Label != "TRPL MD" {
		t.Errorf("newest group files = %+v", first)
	}
}

func TestGroupsMissingDir(t *testing.T) {
	if _, err := Groups(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestGenerate(t *testing.T) {
	dir := writeDist(t, "trpl-2016-10-01.html", "trpl-2015-05-13.epub")
	gen := &Generator{Dir: dir, Title: "The Rust Programming Language"}
	if err := gen.Generate(context.Background()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, IndexName))
	if err != nil {
		t.Fatal(err)
	}
	page := string(data)
	for _, want := range []string{
		"<title>The Rust Programming Language</title>",
		`<a href="trpl-2016-10-01.html">TRPL HTML</a>`,
		`<a href="trpl-2015-05-13.epub">TRPL EPUB</a>`,
		"font-family",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("index missing %q", want)
		}
	}
	if strings.Index(page, "2016-10-01") > strings.Index(page, "2015-05-13") {
		t.Error("newer release should be listed first")
	}

	// Regenerating must not list the index itself.
	if err := gen.Generate(context.Background()); err != nil {
		t.Fatal(err)
	}
	groups, _ := Groups(dir)
	if len(groups) != 2 {
		t.Errorf("groups = %d, want 2", len(groups))
	}
}

func TestGenerateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gen := &Generator{Dir: t.TempDir()}
	if err := gen.Generate(ctx); err == nil {
		t.Fatal("expected context error")
	}
}
