package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Result struct {
	Title    string `json:"title"`
	Anchor   string `json:"anchor"`
	Filename string `json:"filename"`
	Prefix   string `json:"prefix"`
	Release  string `json:"release"`
	Snippet  string `json:"snippet"`
}

type SearchResponse struct {
	Total   uint64   `json:"total"`
	Results []Result `json:"results"`
}

// Search runs a full-text query over indexed chapters, optionally limited
// to one release.
func (s *SQLiteCatalog) Search(ctx context.Context, queryString string, release string, limit int, offset int) (SearchResponse, error) {
	queryString = sanitizeQuery(queryString)
	if queryString == "" {
		return SearchResponse{Results: []Result{}}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.flush(); err != nil {
		return SearchResponse{}, err
	}

	filter := ""
	args := []any{queryString}
	if release != "" {
		filter = ` AND c.release = ?`
		args = append(args, release)
	}

	var resp SearchResponse
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*)
		 FROM chapters_fts f
		 JOIN chapters c ON c.rowid = f.rowid
		 WHERE chapters_fts MATCH ?`+filter, args...,
	).Scan(&resp.Total)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("search count: %w", err)
	}

	query := `SELECT c.title, c.anchor, c.filename, c.prefix, c.release,
		        snippet(chapters_fts, 1, '[', ']', '...', 12)
		 FROM chapters_fts f
		 JOIN chapters c ON c.rowid = f.rowid
		 WHERE chapters_fts MATCH ?` + filter + ` ORDER BY f.rank LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("search query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	resp.Results = make([]Result, 0)

	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Title, &r.Anchor, &r.Filename, &r.Prefix, &r.Release, &r.Snippet); err != nil {
			return SearchResponse{}, fmt.Errorf("scan result: %w", err)
		}
		resp.Results = append(resp.Results, r)
	}
	if err := rows.Err(); err != nil {
		return SearchResponse{}, fmt.Errorf("iterate results: %w", err)
	}

	return resp, nil
}

// Artifacts lists recorded artifacts, newest build first. An empty release
// lists every release.
func (s *SQLiteCatalog) Artifacts(ctx context.Context, release string) ([]Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.flush(); err != nil {
		return nil, err
	}

	query := `SELECT a.build_id, a.format, a.path, a.size, a.sha256, a.sections, a.status, a.error, b.release
		 FROM artifacts a
		 JOIN builds b ON b.id = a.build_id`
	var args []any
	if release != "" {
		query += ` WHERE b.release = ?`
		args = append(args, release)
	}
	query += ` ORDER BY b.started_at DESC, a.format`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("artifacts query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	artifacts := make([]Artifact, 0)
	for rows.Next() {
		var a Artifact
		var id string
		if err := rows.Scan(&id, &a.Format, &a.Path, &a.Size, &a.SHA256, &a.Sections, &a.Status, &a.Error, &a.Release); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		if a.BuildID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("artifact build id %q: %w", id, err)
		}
		artifacts = append(artifacts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifacts: %w", err)
	}
	return artifacts, nil
}

func sanitizeQuery(q string) string {
	q = strings.TrimSpace(q)
	if q == "" {
		return ""
	}

	var b strings.Builder
	for _, r := range q {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == ' ', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	var terms []string
	for _, t := range strings.Fields(b.String()) {
		switch strings.ToUpper(t) {
		case "AND", "OR", "NOT", "NEAR":
			continue
		}
		terms = append(terms, `"`+t+`"*`)
	}
	return strings.Join(terms, " ")
}
