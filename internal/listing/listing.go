// Package listing writes the index page linking every rendered book in a
// dist directory, grouped by release date.
package listing

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	debversion "pault.ag/go/debian/version"

	"github.com/canonical/trpl-ebook/internal/storage"
)

// IndexName is the file written by Generate.
const IndexName = "index.html"

var (
	//go:embed index.html.tmpl
	indexTemplate string
	//go:embed index.css
	indexCSS string

	pageTemplate = template.Must(template.New(IndexName).Parse(indexTemplate))

	// Matches names like trpl-2015-05-13.a4.pdf. index.html and the
	// <prefix>-latest.<ext> links carry no date and are skipped.
	artifactPattern = regexp.MustCompile(`^(.+)-(\d{4}-\d{2}-\d{2})\.([A-Za-z0-9.]+)$`)
)

// File is one linked artifact.
type File struct {
	Name  string
	Label string
}

// Group holds the artifacts of one release date.
type Group struct {
	Release string
	Files   []File
}

// Label returns the link text of an artifact name: "PREFIX EXT" in upper
// case. ok is false for names that are not dated artifacts.
func Label(name string) (release, label string, ok bool) {
	m := artifactPattern.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}
	return m[2], strings.ToUpper(m[1] + " " + m[3]), true
}

// Groups lists the dated artifacts in dir, newest release first and file
// names sorted within a release.
func Groups(dir string) ([]Group, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dist dir: %w", err)
	}

	byRelease := make(map[string][]File)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		release, label, ok := Label(entry.Name())
		if !ok {
			continue
		}
		byRelease[release] = append(byRelease[release], File{Name: entry.Name(), Label: label})
	}

	groups := make([]Group, 0, len(byRelease))
	for release, files := range byRelease {
		slices.SortFunc(files, func(a, b File) int { return strings.Compare(a.Name, b.Name) })
		groups = append(groups, Group{Release: release, Files: files})
	}
	slices.SortFunc(groups, func(a, b Group) int { return compareReleases(b.Release, a.Release) })
	return groups, nil
}

func compareReleases(left, right string) int {
	l, lerr := debversion.Parse(left)
	r, rerr := debversion.Parse(right)
	if lerr != nil || rerr != nil {
		return strings.Compare(left, right)
	}
	return debversion.Compare(l, r)
}

// Render returns the index page for groups.
func Render(title string, groups []Group) ([]byte, error) {
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, struct {
		Title  string
		CSS    template.CSS
		Groups []Group
	}{title, template.CSS(indexCSS), groups})
	if err != nil {
		return nil, fmt.Errorf("render index: %w", err)
	}
	return buf.Bytes(), nil
}

// Generator regenerates the index page of Dir.
type Generator struct {
	Dir    string
	Title  string
	Logger *slog.Logger
}

func (g *Generator) Generate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	groups, err := Groups(g.Dir)
	if err != nil {
		return err
	}
	title := g.Title
	if title == "" {
		title = "Downloads"
	}
	page, err := Render(title, groups)
	if err != nil {
		return err
	}
	if err := storage.WriteFile(filepath.Join(g.Dir, IndexName), page); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if g.Logger != nil {
		g.Logger.Info("index written", "path", filepath.Join(g.Dir, IndexName), "releases", len(groups))
	}
	return nil
}
