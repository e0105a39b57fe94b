package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// schemaVersion is stored in user_version. Chapters are rebuilt by every
// build, so an older chapters table is dropped rather than migrated.
const schemaVersion = 2

const dropChapters = `
DROP TRIGGER IF EXISTS chapters_ai;
DROP TRIGGER IF EXISTS chapters_ad;
DROP TRIGGER IF EXISTS chapters_au;
DROP TABLE IF EXISTS chapters_fts;
DROP TABLE IF EXISTS chapters;
`

// schema is idempotent: builds and artifacts accumulate across runs while
// the chapters of a release are replaced by each build of that release.
const schema = `
CREATE TABLE IF NOT EXISTS builds (
	id TEXT PRIMARY KEY,
	prefix TEXT NOT NULL,
	release TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	chapters INTEGER NOT NULL,
	started_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS artifacts (
	build_id TEXT NOT NULL REFERENCES builds(id),
	format TEXT NOT NULL,
	path TEXT NOT NULL,
	size INTEGER NOT NULL DEFAULT 0,
	sha256 TEXT NOT NULL DEFAULT '',
	sections INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (build_id, format)
);

CREATE TABLE IF NOT EXISTS chapters (
	prefix TEXT NOT NULL,
	release TEXT NOT NULL,
	position INTEGER NOT NULL,
	anchor TEXT NOT NULL,
	title TEXT NOT NULL,
	filename TEXT NOT NULL,
	nest_level INTEGER NOT NULL,
	content TEXT NOT NULL,
	PRIMARY KEY (prefix, release, position)
);

CREATE VIRTUAL TABLE IF NOT EXISTS chapters_fts USING fts5(
	title, content,
	content='chapters',
	content_rowid='rowid'
);

CREATE TRIGGER IF NOT EXISTS chapters_ai AFTER INSERT ON chapters BEGIN
	INSERT INTO chapters_fts(rowid, title, content)
	VALUES (new.rowid, new.title, new.content);
END;

CREATE TRIGGER IF NOT EXISTS chapters_ad AFTER DELETE ON chapters BEGIN
	INSERT INTO chapters_fts(chapters_fts, rowid, title, content)
	VALUES ('delete', old.rowid, old.title, old.content);
END;

CREATE TRIGGER IF NOT EXISTS chapters_au AFTER UPDATE ON chapters BEGIN
	INSERT INTO chapters_fts(chapters_fts, rowid, title, content)
	VALUES ('delete', old.rowid, old.title, old.content);
	INSERT INTO chapters_fts(rowid, title, content)
	VALUES (new.rowid, new.title, new.content);
END;
`

func openDB(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("read schema version: %w", err)
	}
	if version < schemaVersion {
		if _, err := db.Exec(dropChapters); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("drop chapters: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", schemaVersion)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set schema version: %w", err)
	}
	return db, nil
}
