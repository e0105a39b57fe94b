package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/canonical/trpl-ebook/internal/storage"
)

// Renderer turns the aggregated book into one output format.
type Renderer interface {
	Render(ctx context.Context, text string, format Format, outputPath string) error
}

// Job is one format to render and where to write it.
type Job struct {
	Format Format
	Path   string
}

func writeMarkdown(text, outputPath string) error {
	if err := storage.WriteFile(outputPath, []byte(text)); err != nil {
		return &RenderError{Format: FormatMarkdown, Err: err}
	}
	return nil
}

// RenderAll renders every job concurrently. A failing format does not
// cancel the others; the returned statuses are in job order and the error
// joins every per-format failure.
func RenderAll(ctx context.Context, r Renderer, text string, jobs []Job) ([]FormatStatus, error) {
	statuses := make([]FormatStatus, len(jobs))
	for i, job := range jobs {
		statuses[i] = FormatStatus{Format: job.Format, Path: job.Path, Stage: "waiting"}
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for i, job := range jobs {
		wg.Add(1)
		go func(idx int, job Job) {
			defer wg.Done()
			mu.Lock()
			statuses[idx].Stage = "rendering"
			mu.Unlock()

			err := r.Render(ctx, text, job.Format, job.Path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				statuses[idx].Stage = "error"
				statuses[idx].Err = err
				return
			}
			statuses[idx].Stage = "done"
		}(i, job)
	}
	wg.Wait()

	var errs []error
	for _, s := range statuses {
		if s.Err != nil {
			errs = append(errs, s.Err)
		}
	}
	return statuses, errors.Join(errs...)
}
