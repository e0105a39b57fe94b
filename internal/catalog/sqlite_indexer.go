package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
)

const batchSize = 500

// SQLiteCatalog is the Indexer backed by modernc.org/sqlite. Chapter inserts
// are batched in transactions; every other write first commits the pending
// batch.
type SQLiteCatalog struct {
	mu         sync.Mutex
	db         *sql.DB
	insertStmt *sql.Stmt
	tx         *sql.Tx
	txStmt     *sql.Stmt
	count      int
}

func Open(path string) (*SQLiteCatalog, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	stmt, err := db.Prepare(`INSERT INTO chapters (prefix, release, position, anchor, title, filename, nest_level, content) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare insert: %w", err)
	}

	return &SQLiteCatalog{
		db:         db,
		insertStmt: stmt,
	}, nil
}

// RecordBuild stores b and drops the chapters previously indexed for the
// same prefix and release.
func (s *SQLiteCatalog) RecordBuild(ctx context.Context, b Build) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flush(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO builds (id, prefix, release, title, chapters, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID.String(), b.Prefix, b.Release, b.Title, b.Chapters, b.StartedAt.UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("record build %s: %w", b.ID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM chapters WHERE prefix = ? AND release = ?`, b.Prefix, b.Release,
	); err != nil {
		return fmt.Errorf("clear chapters: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit build: %w", err)
	}
	return nil
}

func (s *SQLiteCatalog) IndexChapter(ctx context.Context, ch Chapter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		s.tx = tx
		s.txStmt = tx.Stmt(s.insertStmt)
	}

	_, err := s.txStmt.ExecContext(ctx, ch.Prefix, ch.Release, ch.Position, ch.Anchor, ch.Title, ch.Filename, ch.NestLevel, ch.Content)
	if err != nil {
		return fmt.Errorf("index chapter %s: %w", ch.Filename, err)
	}

	s.count++
	if s.count >= batchSize {
		if err := s.flush(); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteCatalog) RecordArtifact(ctx context.Context, a Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flush(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO artifacts (build_id, format, path, size, sha256, sections, status, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.BuildID.String(), a.Format, a.Path, a.Size, a.SHA256, a.Sections, a.Status, a.Error,
	)
	if err != nil {
		return fmt.Errorf("record artifact %s: %w", a.Path, err)
	}
	return nil
}

func (s *SQLiteCatalog) flush() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit()
	s.tx = nil
	s.txStmt = nil
	s.count = 0
	if err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func (s *SQLiteCatalog) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flush(); err != nil {
		return err
	}
	_ = s.insertStmt.Close()
	return s.db.Close()
}
