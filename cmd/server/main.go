package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/canonical/trpl-ebook/internal/config"
	"github.com/canonical/trpl-ebook/internal/logging"
	"github.com/canonical/trpl-ebook/internal/web"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "Path to config file (.toml, .json, .yaml)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	addr := flag.String("addr", ":8080", "HTTP bind address")
	dist := flag.String("dist", "", "Override the dist directory")
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

	server := web.NewServer(cfg, logger)
	defer func() { _ = server.Close() }()
	if err := server.ListenAndServe(*addr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
