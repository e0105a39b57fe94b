package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// PandocRenderer renders HTML and EPUB by piping the book to pandoc.
// Markdown is written as is.
type PandocRenderer struct {
	Binary     string
	From       string
	CommonArgs []string
	HTMLArgs   []string
	EPUBArgs   []string
	Timeout    time.Duration
	// Dir is the working directory pandoc resolves --css and --template
	// paths against. Empty means the current directory.
	Dir string
}

func NewPandocRenderer(binary string) *PandocRenderer {
	if binary == "" {
		binary = "pandoc"
	}
	return &PandocRenderer{Binary: binary, Timeout: 5 * time.Minute}
}

// Args returns the pandoc command line for format writing to outputPath.
func (p *PandocRenderer) Args(format Format, outputPath string) []string {
	var args []string
	if p.From != "" {
		args = append(args, "--from="+p.From)
	}
	args = append(args, p.CommonArgs...)
	switch format {
	case FormatHTML:
		args = append(args, p.HTMLArgs...)
	case FormatEPUB:
		args = append(args, p.EPUBArgs...)
	}
	return append(args, "--output="+outputPath)
}

func (p *PandocRenderer) Render(ctx context.Context, text string, format Format, outputPath string) error {
	if format == FormatMarkdown {
		return writeMarkdown(text, outputPath)
	}

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return &RenderError{Format: format, Err: err}
	}

	cmd := exec.CommandContext(ctx, p.Binary, p.Args(format, outputPath)...)
	cmd.Dir = p.Dir
	cmd.Stdin = strings.NewReader(text)
	cmd.WaitDelay = 5 * time.Second
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &RenderError{
			Format:      format,
			Err:         err,
			Stderr:      strings.TrimSpace(stderr.String()),
			Unavailable: errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist),
		}
	}
	return nil
}
