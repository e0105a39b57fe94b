package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

// stubRenderer writes the format name to the output path, failing for the
// formats in fail.
type stubRenderer struct {
	fail  map[Format]error
	calls atomic.Int32
}

func (s *stubRenderer) Render(ctx context.Context, text string, format Format, outputPath string) error {
	s.calls.Add(1)
	if err := s.fail[format]; err != nil {
		return &RenderError{Format: format, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte(format.String()+"\n"+text), 0o644)
}

func TestRenderAllPartialFailure(t *testing.T) {
	dir := t.TempDir()
	r := &stubRenderer{fail: map[Format]error{FormatHTML: errors.New("boom")}}
	jobs := []Job{
		{Format: FormatMarkdown, Path: filepath.Join(dir, "b.md")},
		{Format: FormatEPUB, Path: filepath.Join(dir, "b.epub")},
		{Format: FormatHTML, Path: filepath.Join(dir, "b.html")},
	}

	statuses, err := RenderAll(context.Background(), r, "text", jobs)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected joined html failure, got %v", err)
	}
	if r.calls.Load() != 3 {
		t.Errorf("renderer called %d times, want 3", r.calls.Load())
	}
	wantStages := []string{"done", "done", "error"}
	for i, s := range statuses {
		if s.Format != jobs[i].Format || s.Stage != wantStages[i] {
			t.Errorf("status %d = %+v, want %s %s", i, s, jobs[i].Format, wantStages[i])
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "b.epub")); err != nil {
		t.Errorf("epub not written despite html failure: %v", err)
	}
}

func TestRenderAllJoinsErrors(t *testing.T) {
	r := &stubRenderer{fail: map[Format]error{
		FormatHTML: errors.New("html broke"),
		FormatEPUB: errors.New("epub broke"),
	}}
	dir := t.TempDir()
	_, err := RenderAll(context.Background(), r, "text", []Job{
		{Format: FormatHTML, Path: filepath.Join(dir, "b.html")},
		{Format: FormatEPUB, Path: filepath.Join(dir, "b.epub")},
	})
	var re *RenderError
	if !errors.As(err, &re) {
		t.Fatalf("expected RenderError in %v", err)
	}
	if !strings.Contains(err.Error(), "html broke") || !strings.Contains(err.Error(), "epub broke") {
		t.Errorf("error = %v", err)
	}
}

func TestRenderAllNoJobs(t *testing.T) {
	statuses, err := RenderAll(context.Background(), &stubRenderer{}, "text", nil)
	if err != nil || len(statuses) != 0 {
		t.Errorf("RenderAll(nil) = %v, %v", statuses, err)
	}
}
