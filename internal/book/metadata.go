package book

import (
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// ReleasePlaceholder is replaced by the release date in the metadata file.
const ReleasePlaceholder = "{release_date}"

// Metadata is the subset of the pandoc title block the build reports on.
type Metadata struct {
	Title  string `yaml:"title"`
	Author any    `yaml:"author"`
	Date   string `yaml:"date"`
	Rights string `yaml:"rights"`
	Lang   string `yaml:"language"`
}

// Authors returns the author field as a list; pandoc accepts a single
// string or a sequence.
func (m Metadata) Authors() []string {
	return authorList(m.Author)
}

func (m Metadata) IsZero() bool {
	return m.Title == "" && m.Author == nil && m.Date == ""
}

func authorList(v any) []string {
	switch a := v.(type) {
	case nil:
		return nil
	case string:
		return []string{a}
	case []any:
		out := make([]string, 0, len(a))
		for _, item := range a {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return []string{fmt.Sprint(a)}
	}
}

// ParseMetadata reads the YAML title block of a metadata file whose
// placeholder has already been substituted. Blocks delimited by "---" lines
// go through the front matter parser; pandoc blocks closed by "..." and bare
// YAML documents are decoded directly.
func ParseMetadata(text string) (Metadata, error) {
	var meta Metadata
	if _, err := frontmatter.Parse(strings.NewReader(text), &meta); err == nil && !meta.IsZero() {
		return meta, nil
	}

	meta = Metadata{}
	if err := yaml.Unmarshal([]byte(stripBlockDelimiters(text)), &meta); err != nil {
		return Metadata{}, fmt.Errorf("parse metadata: %w", err)
	}
	return meta, nil
}

func stripBlockDelimiters(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		switch strings.TrimRight(line, " \t\r") {
		case "---", "...":
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
