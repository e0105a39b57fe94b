package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/canonical/trpl-ebook/internal/book"
	"github.com/canonical/trpl-ebook/internal/catalog"
	"github.com/canonical/trpl-ebook/internal/config"
	"github.com/canonical/trpl-ebook/internal/listing"
	"github.com/canonical/trpl-ebook/internal/logging"
	"github.com/canonical/trpl-ebook/internal/pipeline"
	"github.com/canonical/trpl-ebook/internal/report"
	"github.com/canonical/trpl-ebook/internal/storage"
)

type options struct {
	configPath  string
	explicit    bool
	prefix      string
	source      string
	meta        string
	releaseDate string
	dist        string
	formats     string
	renderer    string
	wrapWidth   int
	force       bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", config.DefaultPath(), "Path to config file (.toml, .json, .yaml)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.prefix, "prefix", "", "Artifact name prefix (default from config: trpl)")
	flag.StringVar(&opts.source, "source", "", "Directory holding README.md, SUMMARY.md and the chapters")
	flag.StringVar(&opts.meta, "meta", "", "Metadata file prepended to the book")
	flag.StringVar(&opts.releaseDate, "release-date", "", "Release date YYYY-MM-DD (default today)")
	flag.StringVar(&opts.dist, "dist", "", "Output directory")
	flag.StringVar(&opts.formats, "formats", "", "Comma-separated formats to render (md,html,epub)")
	flag.StringVar(&opts.renderer, "renderer", "", "Renderer: pandoc or goldmark")
	flag.IntVar(&opts.wrapWidth, "wrap-width", -1, "Wrap code lines longer than this many characters (0 disables)")
	flag.BoolVar(&opts.force, "force", false, "Re-render artifacts even when the book is unchanged")
	flag.Parse()
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			opts.explicit = true
		}
	})

	logger := logging.BuildLogger(*logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, opts); err != nil {
		logger.Error("compile failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func loadConfig(opts options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.explicit {
		cfg, err = config.Load(opts.configPath)
	} else {
		cfg, err = config.LoadOrDefault(opts.configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if opts.prefix != "" {
		cfg.Prefix = opts.prefix
	}
	if opts.source != "" {
		cfg.SourceDir = opts.source
	}
	if opts.meta != "" {
		cfg.Metadata = opts.meta
	}
	if opts.releaseDate != "" {
		cfg.ReleaseDate = opts.releaseDate
	}
	if opts.dist != "" {
		cfg.DistDir = opts.dist
	}
	if opts.formats != "" {
		cfg.Formats = strings.Split(opts.formats, ",")
		for i := range cfg.Formats {
			cfg.Formats[i] = strings.TrimSpace(cfg.Formats[i])
		}
	}
	if opts.renderer != "" {
		cfg.Renderer = opts.renderer
	}
	if opts.wrapWidth >= 0 {
		cfg.Code.WrapWidth = opts.wrapWidth
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newRenderer(cfg *config.Config) pipeline.Renderer {
	if cfg.Renderer == config.RendererGoldmark {
		return pipeline.NewGoldmarkRenderer()
	}
	p := pipeline.NewPandocRenderer(cfg.Pandoc.Binary)
	p.From = cfg.Pandoc.From
	p.CommonArgs = cfg.Pandoc.CommonArgs
	p.HTMLArgs = cfg.Pandoc.HTMLArgs
	p.EPUBArgs = cfg.Pandoc.EPUBArgs
	p.Timeout = cfg.Pandoc.Timeout()
	return p
}

func run(ctx context.Context, logger *slog.Logger, opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	formats, err := pipeline.ParseFormats(cfg.Formats)
	if err != nil {
		return fmt.Errorf("invalid formats: %w", err)
	}
	release := cfg.Release(time.Now())

	builder := book.NewBuilder(cfg.SourceDir, cfg.Metadata)
	builder.HeadingOffset = cfg.HeadingOffset
	builder.StrictFences = cfg.StrictFences
	builder.Code = cfg.Code.Options()
	builder.Aliases = cfg.Aliases
	builder.Logger = logger

	if err := os.MkdirAll(cfg.DistDir, 0o755); err != nil {
		return fmt.Errorf("create dist dir: %w", err)
	}

	var indexer catalog.Indexer
	if cat, err := catalog.Open(cfg.CatalogPath()); err != nil {
		logger.Warn("catalog unavailable, continuing without it", "path", cfg.CatalogPath(), "error", err)
	} else {
		indexer = cat
	}

	printer := report.New(os.Stdout)
	runner := &pipeline.Runner{
		Builder:    builder,
		Renderer:   newRenderer(cfg),
		Storage:    storage.NewFSStorage(cfg.DistDir),
		Indexer:    indexer,
		Generator:  &listing.Generator{Dir: cfg.DistDir, Logger: logger},
		Logger:     logger,
		Prefix:     cfg.Prefix,
		Formats:    formats,
		Force:      opts.force,
		LinkLatest: true,
		OnStatus: func(s pipeline.FormatStatus) {
			logger.Debug("format status", "format", s.Format.String(), "stage", s.Stage)
		},
	}

	logger.Info("compiling book", "source", cfg.SourceDir, "release", release, "renderer", cfg.Renderer)
	res, err := runner.Run(ctx, release)
	if res != nil {
		printer.Summary(res.Book.Meta.Title, release, res.Statuses)
	}
	return err
}
