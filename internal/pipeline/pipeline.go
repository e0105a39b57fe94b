package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/canonical/trpl-ebook/internal/book"
	"github.com/canonical/trpl-ebook/internal/catalog"
	"github.com/canonical/trpl-ebook/internal/inspect"
	"github.com/canonical/trpl-ebook/internal/listing"
	"github.com/canonical/trpl-ebook/internal/logging"
	"github.com/canonical/trpl-ebook/internal/storage"
)

// Result describes one run.
type Result struct {
	BuildID  uuid.UUID
	Book     *book.Book
	Statuses []FormatStatus
}

// Runner builds the book once and renders it into every requested format.
type Runner struct {
	Builder   *book.Builder
	Renderer  Renderer
	Storage   *storage.FSStorage
	Indexer   catalog.Indexer
	Generator *listing.Generator
	Logger    *slog.Logger

	Prefix  string
	Formats []Format
	// Force re-renders artifacts whose stamp matches the current text.
	Force      bool
	LinkLatest bool
	// OnStatus, when set, is called as each format changes stage.
	OnStatus func(FormatStatus)

	mu       sync.Mutex
	statuses []FormatStatus
}

// Run builds the book for release and renders it. A build failure is
// returned alone and nothing is rendered. Otherwise every format is
// attempted and the error joins the per-format failures.
func (r *Runner) Run(ctx context.Context, release string) (*Result, error) {
	if r.Builder == nil || r.Renderer == nil || r.Storage == nil {
		return nil, errors.New("pipeline runner missing dependencies")
	}
	logger := logging.OrDiscard(r.Logger)
	if r.Indexer != nil {
		defer func() {
			if err := r.Indexer.Close(); err != nil {
				logger.Error("close catalog", "error", err)
			}
		}()
	}

	bk, err := r.Builder.Build(ctx, release)
	if err != nil {
		return nil, fmt.Errorf("build book: %w", err)
	}

	res := &Result{BuildID: uuid.New(), Book: bk}
	logger = logger.With("build", res.BuildID.String())
	logger.Info("book built", "release", release, "chapters", len(bk.Chapters), "bytes", len(bk.Text))

	if r.Indexer != nil {
		if err := r.indexBook(ctx, res.BuildID, bk); err != nil {
			// The catalog is a side record; rendering goes on without it.
			logger.Error("catalog indexing failed", "error", err)
		}
	}

	sum := sha256.Sum256([]byte(bk.Text))
	digest := hex.EncodeToString(sum[:])

	r.statuses = make([]FormatStatus, len(r.Formats))
	var jobs []Job
	var jobIdx []int
	for i, f := range r.Formats {
		name := storage.ArtifactName(r.Prefix, release, f.Extension())
		r.statuses[i] = FormatStatus{Format: f, Path: r.Storage.Path(name), Stage: "waiting"}
		if !r.Force && r.Storage.Exists(name) && r.Storage.CheckStamp(name, digest) {
			logger.Debug("skipping unchanged artifact", "format", f.String(), "path", name)
			r.setStage(i, "skipped", nil)
			continue
		}
		jobs = append(jobs, Job{Format: f, Path: r.Storage.Path(name)})
		jobIdx = append(jobIdx, i)
		r.setStage(i, "rendering", nil)
	}

	rendered, _ := RenderAll(ctx, r.Renderer, bk.Text, jobs)
	for j, s := range rendered {
		idx := jobIdx[j]
		if s.Err != nil {
			r.recordFailure(logger, idx, s.Err)
			continue
		}
		name := storage.ArtifactName(r.Prefix, release, s.Format.Extension())
		if err := r.Storage.WriteStamp(ctx, name, digest); err != nil {
			logger.Warn("write stamp", "format", s.Format.String(), "error", err)
		}
		r.setStage(idx, "done", nil)
	}

	var errs []error
	for i := range r.statuses {
		s := r.status(i)
		if s.Stage == "done" || s.Stage == "skipped" {
			r.finishArtifact(ctx, logger, i, release)
			s = r.status(i)
		}
		if s.Err != nil {
			errs = append(errs, s.Err)
		}
		if r.Indexer != nil {
			if err := r.Indexer.RecordArtifact(ctx, artifactRecord(res.BuildID, release, s)); err != nil {
				logger.Error("record artifact", "format", s.Format.String(), "error", err)
			}
		}
	}

	if r.Generator != nil {
		if err := r.Generator.Generate(ctx); err != nil {
			// Non-fatal: the artifacts are in place without the index.
			logger.Error("index generation failed", "error", err)
		}
	}

	res.Statuses = r.Statuses()
	if len(errs) > 0 {
		logger.Warn("build completed with failures", "count", len(errs))
	}
	return res, errors.Join(errs...)
}

// Statuses returns a snapshot of the per-format statuses.
func (r *Runner) Statuses() []FormatStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]FormatStatus, len(r.statuses))
	copy(out, r.statuses)
	return out
}

func (r *Runner) indexBook(ctx context.Context, id uuid.UUID, bk *book.Book) error {
	err := r.Indexer.RecordBuild(ctx, catalog.Build{
		ID:        id,
		Prefix:    r.Prefix,
		Release:   bk.Release,
		Title:     bk.Meta.Title,
		Chapters:  len(bk.Chapters),
		StartedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if bk.Introduction != "" {
		err := r.Indexer.IndexChapter(ctx, catalog.Chapter{
			Prefix:   r.Prefix,
			Release:  bk.Release,
			Anchor:   "introduction",
			Title:    "Introduction",
			Filename: book.ReadmeName,
			Content:  bk.Introduction,
		})
		if err != nil {
			return fmt.Errorf("index %s: %w", book.ReadmeName, err)
		}
	}
	for i, sec := range bk.Chapters {
		err := r.Indexer.IndexChapter(ctx, catalog.Chapter{
			Prefix:    r.Prefix,
			Release:   bk.Release,
			Position:  i + 1,
			Anchor:    sec.Chapter.Anchor(),
			Title:     sec.Chapter.Title(),
			Filename:  sec.Chapter.Filename,
			NestLevel: sec.Chapter.NestLevel,
			Content:   sec.Body,
		})
		if err != nil {
			return fmt.Errorf("index %s: %w", sec.Chapter.Filename, err)
		}
	}
	return nil
}

// finishArtifact inspects a rendered artifact and moves the latest link.
func (r *Runner) finishArtifact(ctx context.Context, logger *slog.Logger, idx int, release string) {
	s := r.status(idx)
	report, err := inspect.Inspect(s.Path)
	if err != nil {
		logger.Warn("inspect artifact", "format", s.Format.String(), "path", s.Path, "error", err)
	} else {
		r.mu.Lock()
		r.statuses[idx].Report = &report
		r.mu.Unlock()
	}
	if r.LinkLatest {
		if err := r.Storage.LinkLatest(ctx, r.Prefix, release, s.Format.Extension()); err != nil {
			logger.Warn("link latest", "format", s.Format.String(), "error", err)
		}
	}
	logger.Info("artifact ready", "format", s.Format.String(), "path", s.Path, "stage", s.Stage)
}

func (r *Runner) status(idx int) FormatStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statuses[idx]
}

func (r *Runner) setStage(idx int, stage string, err error) {
	r.mu.Lock()
	r.statuses[idx].Stage = stage
	r.statuses[idx].Err = err
	s := r.statuses[idx]
	r.mu.Unlock()
	if r.OnStatus != nil {
		r.OnStatus(s)
	}
}

func (r *Runner) recordFailure(logger *slog.Logger, idx int, err error) {
	r.setStage(idx, "error", err)
	s := r.status(idx)
	attrs := []any{"format", s.Format.String(), "error", err}
	var re *RenderError
	if errors.As(err, &re) && re.Unavailable {
		attrs = append(attrs, "unavailable", true)
	}
	logger.Warn("render failure", attrs...)
}

func artifactRecord(id uuid.UUID, release string, s FormatStatus) catalog.Artifact {
	a := catalog.Artifact{
		BuildID: id,
		Format:  s.Format.Extension(),
		Path:    s.Path,
		Release: release,
	}
	switch s.Stage {
	case "done":
		a.Status = catalog.StatusOK
	case "skipped":
		a.Status = catalog.StatusSkipped
	default:
		a.Status = catalog.StatusFailed
	}
	if s.Err != nil {
		a.Error = strings.TrimSpace(s.Err.Error())
	}
	if s.Report != nil {
		a.Size = s.Report.Size
		a.SHA256 = s.Report.SHA256
		a.Sections = s.Report.Sections
	}
	return a
}
