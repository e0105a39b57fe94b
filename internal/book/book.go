// Package book reads the sources of a multi-file book and aggregates them
// into the single markdown document handed to the renderers.
package book

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/canonical/trpl-ebook/internal/logging"
	"github.com/canonical/trpl-ebook/internal/transform"
)

const (
	ReadmeName  = "README.md"
	SummaryName = "SUMMARY.md"

	readmeRefPrefix    = "readme"
	introductionHeader = "\n\n# Introduction\n\n"
)

// Section is one transformed chapter of a built book.
type Section struct {
	Chapter transform.Chapter
	Path    string
	Body    string
}

// Book is the result of a build.
type Book struct {
	Text         string
	Release      string
	Meta         Metadata
	Introduction string
	Chapters     []Section
}

// Builder aggregates a book from its sources. Source holds README.md,
// SUMMARY.md and the chapter files; Meta holds the metadata file MetaName.
type Builder struct {
	Source   fs.FS
	Meta     fs.FS
	MetaName string
	// Root prefixes file names in errors and logs.
	Root     string
	MetaRoot string

	// HeadingOffset is added to a chapter's nest level to obtain the
	// heading increase of its body.
	HeadingOffset int
	StrictFences  bool
	Code          transform.CodeOptions
	Aliases       []transform.Alias

	Logger *slog.Logger
}

// NewBuilder returns a Builder reading the book in sourceDir and the
// metadata file at metaPath from disk.
func NewBuilder(sourceDir, metaPath string) *Builder {
	return &Builder{
		Source:        os.DirFS(sourceDir),
		Meta:          os.DirFS(filepath.Dir(metaPath)),
		MetaName:      filepath.Base(metaPath),
		Root:          sourceDir,
		MetaRoot:      filepath.Dir(metaPath),
		HeadingOffset: 1,
		StrictFences:  true,
	}
}

// Build aggregates the book for releaseDate. It stops at the first missing
// file, table of contents error or content error; no partial book is
// returned.
func (b *Builder) Build(ctx context.Context, releaseDate string) (*Book, error) {
	logger := logging.OrDiscard(b.Logger)
	bk := &Book{Release: releaseDate}
	var out strings.Builder

	logger.Info("reading metadata", "path", b.displayPath(b.MetaRoot, b.MetaName))
	raw, err := b.read(b.Meta, b.MetaRoot, b.MetaName)
	if err != nil {
		return nil, err
	}
	metadata := strings.ReplaceAll(raw, ReleasePlaceholder, releaseDate)
	out.WriteString(metadata)
	out.WriteString("\n")
	if bk.Meta, err = ParseMetadata(metadata); err != nil {
		logger.Warn("metadata is not a YAML title block", "error", err)
	}

	logger.Info("aggregating markdown")
	readme, err := b.read(b.Source, b.Root, ReadmeName)
	if err != nil {
		return nil, err
	}
	intro, err := b.convert(ReadmeName, readme, 1, readmeRefPrefix)
	if err != nil {
		return nil, err
	}
	bk.Introduction = intro
	out.WriteString(introductionHeader)
	out.WriteString(intro)

	summary, err := b.read(b.Source, b.Root, SummaryName)
	if err != nil {
		return nil, err
	}
	toc, err := transform.ParseTOC(summary)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.displayPath(b.Root, SummaryName), err)
	}

	for _, chapter := range toc.Chapters() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logger.Debug("converting chapter", "chapter", chapter.Filename, "nest_level", chapter.NestLevel)

		name, err := sourceName(chapter.Filename)
		if err != nil {
			return nil, &FileAccessError{Path: b.displayPath(b.Root, chapter.Filename), Err: err}
		}
		text, err := b.read(b.Source, b.Root, name)
		if err != nil {
			return nil, err
		}
		body, err := b.convert(name, text, chapter.NestLevel+b.HeadingOffset, chapter.Filename)
		if err != nil {
			return nil, err
		}

		out.WriteString("\n\n")
		out.WriteString(chapter.HeadingLine())
		out.WriteString("\n")
		out.WriteString(body)
		bk.Chapters = append(bk.Chapters, Section{Chapter: chapter, Path: name, Body: body})
	}

	bk.Text = out.String()
	logger.Info("aggregated book", "chapters", len(bk.Chapters), "bytes", len(bk.Text))
	return bk, nil
}

func (b *Builder) convert(name, text string, level int, prefix string) (string, error) {
	if b.StrictFences {
		if err := transform.CheckFences(text); err != nil {
			return "", &ContentError{Path: b.displayPath(b.Root, name), Err: err}
		}
	}
	return transform.Pipeline(text, transform.Options{
		TitleLevel: level,
		RefPrefix:  prefix,
		Aliases:    b.Aliases,
		Code:       b.Code,
	}), nil
}

func (b *Builder) read(fsys fs.FS, root, name string) (string, error) {
	if fsys == nil {
		return "", &FileAccessError{Path: b.displayPath(root, name), Err: fs.ErrInvalid}
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return "", &FileAccessError{Path: b.displayPath(root, name), Err: err}
	}
	return string(data), nil
}

func (b *Builder) displayPath(root, name string) string {
	if root == "" {
		return name
	}
	return filepath.Join(root, filepath.FromSlash(name))
}

// sourceName turns a table of contents link into an fs.FS path.
func sourceName(filename string) (string, error) {
	name := path.Clean(strings.TrimPrefix(filename, "/"))
	if !fs.ValidPath(name) || name == "." {
		return "", fs.ErrInvalid
	}
	return name, nil
}
