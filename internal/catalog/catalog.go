// Package catalog keeps a SQLite record of book builds, the artifacts each
// build rendered, and a full-text index of the transformed chapters.
package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Artifact status values.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Indexer abstracts the catalog so the build pipeline does not depend on a
// specific storage implementation.
type Indexer interface {
	RecordBuild(ctx context.Context, b Build) error
	IndexChapter(ctx context.Context, ch Chapter) error
	RecordArtifact(ctx context.Context, a Artifact) error
	Close() error
}

// Build is one run of the book compiler.
type Build struct {
	ID        uuid.UUID
	Prefix    string
	Release   string
	Title     string
	Chapters  int
	StartedAt time.Time
}

// Chapter is a transformed chapter body as it appears in the aggregated book.
// Position is its place in the book: 0 for the introduction, then table of
// contents order.
type Chapter struct {
	Prefix    string
	Release   string
	Position  int
	Anchor    string
	Title     string
	Filename  string
	NestLevel int
	Content   string
}

// Artifact is the outcome of rendering one format.
type Artifact struct {
	BuildID  uuid.UUID `json:"build_id"`
	Format   string    `json:"format"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	SHA256   string    `json:"sha256,omitempty"`
	Sections int       `json:"sections"`
	Status   string    `json:"status"`
	Error    string    `json:"error,omitempty"`
	Release  string    `json:"release,omitempty"`
}
