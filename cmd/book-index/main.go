package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/canonical/trpl-ebook/internal/config"
	"github.com/canonical/trpl-ebook/internal/listing"
	"github.com/canonical/trpl-ebook/internal/logging"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "Path to config file (.toml, .json, .yaml)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	dist := flag.String("dist", "", "Override the dist directory")
	title := flag.String("title", "", "Page title")
	flag.Parse()

	logger := logging.BuildLogger(*logLevel)

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	if *dist != "" {
		cfg.DistDir = *dist
	}

	gen := &listing.Generator{Dir: cfg.DistDir, Title: *title, Logger: logger}
	if err := gen.Generate(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
