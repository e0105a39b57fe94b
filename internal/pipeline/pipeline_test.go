package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/canonical/trpl-ebook/internal/book"
	"github.com/canonical/trpl-ebook/internal/catalog"
	"github.com/canonical/trpl-ebook/internal/listing"
	"github.com/canonical/trpl-ebook/internal/storage"
)

const testMeta = "---\ntitle: \"The Rust Programming Language\"\ndate: {release_date}\n...\n"

func testBuilder() *book.Builder {
	return &book.Builder{
		Source: fstest.MapFS{
			"README.md":          {Data: []byte("% The Rust Programming Language\n\nWelcome.\n")},
			"SUMMARY.md":         {Data: []byte("* [Getting Started](getting-started.md)\n    * [Closures](closures.md)\n")},
			"getting-started.md": {Data: []byte("% Getting Started\n\nSee [closures](closures.html).\n")},
			"closures.md":        {Data: []byte("% Closures\n\n# Capturing\n\nClosures capture their environment.\n")},
		},
		Meta:          fstest.MapFS{"meta.yml": {Data: []byte(testMeta)}},
		MetaName:      "meta.yml",
		HeadingOffset: 1,
		StrictFences:  true,
	}
}

func newTestRunner(t *testing.T, dist string, r Renderer) *Runner {
	t.Helper()
	cat, err := catalog.Open(filepath.Join(dist, "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	return &Runner{
		Builder:    testBuilder(),
		Renderer:   r,
		Storage:    storage.NewFSStorage(dist),
		Indexer:    cat,
		Generator:  &listing.Generator{Dir: dist},
		Prefix:     "trpl",
		Formats:    []Format{FormatMarkdown, FormatEPUB, FormatHTML},
		LinkLatest: true,
	}
}

func TestRunnerRendersAndRecords(t *testing.T) {
	dist := t.TempDir()
	var seen []FormatStatus
	runner := newTestRunner(t, dist, NewGoldmarkRenderer())
	runner.OnStatus = func(s FormatStatus) { seen = append(seen, s) }

	res, err := runner.Run(context.Background(), "2016-10-01")
	var re *RenderError
	if !errors.As(err, &re) || re.Format != FormatEPUB || !re.Unavailable {
		t.Fatalf("expected unavailable epub failure, got %v", err)
	}
	if res == nil || len(res.Book.Chapters) != 2 {
		t.Fatalf("result = %+v", res)
	}

	stages := map[Format]string{}
	for _, s := range res.Statuses {
		stages[s.Format] = s.Stage
	}
	if stages[FormatMarkdown] != "done" || stages[FormatHTML] != "done" || stages[FormatEPUB] != "error" {
		t.Errorf("stages = %v", stages)
	}
	if len(seen) == 0 {
		t.Error("OnStatus never called")
	}

	md, err := os.ReadFile(filepath.Join(dist, "trpl-2016-10-01.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(md) != res.Book.Text {
		t.Error("markdown artifact differs from the built text")
	}
	html, err := os.ReadFile(filepath.Join(dist, "trpl-latest.html"))
	if err != nil {
		t.Fatalf("latest html link: %v", err)
	}
	if !strings.Contains(string(html), `id="sec--closures"`) {
		t.Errorf("html missing chapter anchor:\n%s", html)
	}
	for _, s := range res.Statuses {
		if s.Format == FormatHTML && (s.Report == nil || s.Report.Sections != 2) {
			t.Errorf("html report = %+v", s.Report)
		}
		if s.Format == FormatMarkdown && (s.Report == nil || s.Report.Sections != 2) {
			t.Errorf("markdown report = %+v", s.Report)
		}
	}

	index, err := os.ReadFile(filepath.Join(dist, listing.IndexName))
	if err != nil {
		t.Fatalf("index not generated: %v", err)
	}
	if !strings.Contains(string(index), "TRPL HTML") || strings.Contains(string(index), "TRPL EPUB") {
		t.Errorf("index = %s", index)
	}

	cat, err := catalog.Open(filepath.Join(dist, "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()
	artifacts, err := cat.Artifacts(context.Background(), "2016-10-01")
	if err != nil {
		t.Fatal(err)
	}
	status := map[string]string{}
	for _, a := range artifacts {
		if a.BuildID != res.BuildID {
			t.Errorf("artifact %s build = %s, want %s", a.Format, a.BuildID, res.BuildID)
		}
		status[a.Format] = a.Status
	}
	if status["md"] != catalog.StatusOK || status["html"] != catalog.StatusOK || status["epub"] != catalog.StatusFailed {
		t.Errorf("artifact statuses = %v", status)
	}
	found, err := cat.Search(context.Background(), "environment", "", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if found.Total != 1 || found.Results[0].Anchor != "sec--closures" {
		t.Errorf("search = %+v", found)
	}
}

func TestRunnerSkipsUnchanged(t *testing.T) {
	dist := t.TempDir()
	stub := &stubRenderer{}
	runner := newTestRunner(t, dist, stub)
	if _, err := runner.Run(context.Background(), "2016-10-01"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if stub.calls.Load() != 3 {
		t.Fatalf("first run rendered %d formats, want 3", stub.calls.Load())
	}

	runner = newTestRunner(t, dist, stub)
	res, err := runner.Run(context.Background(), "2016-10-01")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stub.calls.Load() != 3 {
		t.Errorf("unchanged book re-rendered: %d calls", stub.calls.Load())
	}
	for _, s := range res.Statuses {
		if s.Stage != "skipped" {
			t.Errorf("%s stage = %s, want skipped", s.Format, s.Stage)
		}
	}

	runner = newTestRunner(t, dist, stub)
	runner.Force = true
	if _, err := runner.Run(context.Background(), "2016-10-01"); err != nil {
		t.Fatalf("forced run: %v", err)
	}
	if stub.calls.Load() != 6 {
		t.Errorf("forced run rendered %d formats in total, want 6", stub.calls.Load())
	}
}

func TestRunnerBuildFailure(t *testing.T) {
	dist := t.TempDir()
	stub := &stubRenderer{}
	runner := newTestRunner(t, dist, stub)
	delete(runner.Builder.Source.(fstest.MapFS), "closures.md")

	_, err := runner.Run(context.Background(), "2016-10-01")
	var fae *book.FileAccessError
	if !errors.As(err, &fae) {
		t.Fatalf("expected FileAccessError, got %v", err)
	}
	if stub.calls.Load() != 0 {
		t.Error("renderer called after a build failure")
	}
	if _, statErr := os.Stat(filepath.Join(dist, "trpl-2016-10-01.md")); statErr == nil {
		t.Error("artifact written after a build failure")
	}
}

func TestRunnerMissingDependencies(t *testing.T) {
	if _, err := (&Runner{}).Run(context.Background(), "2016-10-01"); err == nil {
		t.Fatal("expected error")
	}
}
