package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-slug"
	"gopkg.in/yaml.v3"

	"github.com/canonical/trpl-ebook/internal/transform"
)

const defaultConfigPath = "book.toml"

// DateLayout is the layout of release dates and of the date part of
// artifact names.
const DateLayout = "2006-01-02"

const (
	RendererPandoc   = "pandoc"
	RendererGoldmark = "goldmark"
)

// Formats lists every output format name a build can produce.
var Formats = []string{"md", "html", "epub"}

// Config describes one book build. Every field can be set from a JSON,
// TOML or YAML file; the command line overrides file values.
type Config struct {
	Prefix        string            `json:"prefix" toml:"prefix" yaml:"prefix"`
	SourceDir     string            `json:"source_dir" toml:"source_dir" yaml:"source_dir"`
	Metadata      string            `json:"metadata" toml:"metadata" yaml:"metadata"`
	ReleaseDate   string            `json:"release_date" toml:"release_date" yaml:"release_date"`
	DistDir       string            `json:"dist_dir" toml:"dist_dir" yaml:"dist_dir"`
	IndexPath     string            `json:"index_path" toml:"index_path" yaml:"index_path"`
	Formats       []string          `json:"formats" toml:"formats" yaml:"formats"`
	Renderer      string            `json:"renderer" toml:"renderer" yaml:"renderer"`
	HeadingOffset int               `json:"heading_offset" toml:"heading_offset" yaml:"heading_offset"`
	StrictFences  bool              `json:"strict_fences" toml:"strict_fences" yaml:"strict_fences"`
	Code          CodeConfig        `json:"code" toml:"code" yaml:"code"`
	Pandoc        PandocConfig      `json:"pandoc" toml:"pandoc" yaml:"pandoc"`
	Aliases       []transform.Alias `json:"aliases" toml:"aliases" yaml:"aliases"`
}

// CodeConfig controls wrapping of long lines inside code blocks. A zero
// WrapWidth leaves code untouched.
type CodeConfig struct {
	WrapWidth  int    `json:"wrap_width" toml:"wrap_width" yaml:"wrap_width"`
	WrapMarker string `json:"wrap_marker" toml:"wrap_marker" yaml:"wrap_marker"`
}

func (c CodeConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.WrapWidth, validation.Min(0)),
		validation.Field(&c.WrapMarker, validation.When(c.WrapWidth > 0,
			validation.By(func(any) error {
				if len([]rune(c.WrapMarker)) >= c.WrapWidth {
					return errors.New("must be shorter than wrap_width")
				}
				return nil
			}))),
	)
}

// Options converts the section to the transform package's form.
func (c CodeConfig) Options() transform.CodeOptions {
	return transform.CodeOptions{WrapWidth: c.WrapWidth, WrapMarker: c.WrapMarker}
}

// PandocConfig holds the pandoc command line.
type PandocConfig struct {
	Binary         string   `json:"binary" toml:"binary" yaml:"binary"`
	TimeoutSeconds int      `json:"timeout_seconds" toml:"timeout_seconds" yaml:"timeout_seconds"`
	From           string   `json:"from" toml:"from" yaml:"from"`
	CommonArgs     []string `json:"common_args" toml:"common_args" yaml:"common_args"`
	HTMLArgs       []string `json:"html_args" toml:"html_args" yaml:"html_args"`
	EPUBArgs       []string `json:"epub_args" toml:"epub_args" yaml:"epub_args"`
}

func (p PandocConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Binary, validation.Required),
		validation.Field(&p.TimeoutSeconds, validation.Required, validation.Min(1)),
		validation.Field(&p.From, validation.Required),
	)
}

// Timeout returns the per-invocation pandoc timeout.
func (p PandocConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// Default returns the configuration used when no file is given: the layout
// of the Rust book repository rendered with pandoc into every format.
func Default() *Config {
	return &Config{
		Prefix:        "trpl",
		SourceDir:     "trpl",
		Metadata:      "trpl_meta.yml",
		DistDir:       "dist",
		Formats:       append([]string(nil), Formats...),
		Renderer:      RendererPandoc,
		HeadingOffset: 1,
		StrictFences:  true,
		Code:          CodeConfig{WrapMarker: transform.DefaultWrapMarker},
		Pandoc: PandocConfig{
			Binary:         "pandoc",
			TimeoutSeconds: 300,
			From: "markdown+grid_tables+pipe_tables-simple_tables+raw_html+implicit_figures" +
				"+footnotes+intraword_underscores+auto_identifiers-inline_code_attributes",
			CommonArgs: []string{"--standalone", "--self-contained", "--highlight-style=tango", "--table-of-contents"},
			HTMLArgs:   []string{"--css=lib/pandoc.css", "--to=html5", "--section-divs", "--template=lib/template.html"},
			EPUBArgs:   []string{"--css=lib/epub.css"},
		},
	}
}

func DefaultPath() string {
	if path := os.Getenv("BOOK_CONFIG_FILE"); path != "" {
		return path
	}
	return defaultConfigPath
}

// Load reads path on top of Default and validates the result. The decoder
// is chosen by file extension: .json, .toml, .yaml or .yml.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(raw, cfg)
	case ".toml":
		_, err = toml.Decode(string(raw), cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, cfg)
	default:
		return nil, fmt.Errorf("config %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Prefix, validation.Required, validation.By(normalizedSlug)),
		validation.Field(&c.SourceDir, validation.Required),
		validation.Field(&c.Metadata, validation.Required),
		validation.Field(&c.ReleaseDate, validation.By(releaseDate)),
		validation.Field(&c.DistDir, validation.Required),
		validation.Field(&c.Formats, validation.Required, validation.Each(validation.In("md", "html", "epub"))),
		validation.Field(&c.Renderer, validation.Required, validation.In(RendererPandoc, RendererGoldmark)),
		validation.Field(&c.HeadingOffset, validation.Min(0)),
		validation.Field(&c.Code),
		validation.Field(&c.Pandoc),
	)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func normalizedSlug(value any) error {
	s, _ := value.(string)
	normalized, err := slug.Normalize(s)
	if err != nil {
		return err
	}
	if normalized != s {
		return fmt.Errorf("must be a slug such as %q", normalized)
	}
	return nil
}

func releaseDate(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return errors.New("must be a date in YYYY-MM-DD form")
	}
	return nil
}

// Release returns the configured release date, or the date of now when the
// configuration leaves it empty.
func (c *Config) Release(now time.Time) string {
	if c.ReleaseDate != "" {
		return c.ReleaseDate
	}
	return now.Format(DateLayout)
}

// CatalogPath returns the SQLite catalog location.
func (c *Config) CatalogPath() string {
	if c.IndexPath != "" {
		return c.IndexPath
	}
	return filepath.Join(c.DistDir, "catalog.db")
}
