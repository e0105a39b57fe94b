// Package inspect examines rendered book artifacts: their checksum and size,
// and for each format the title, chapter sections and word count it can
// find.
package inspect

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// SectionPrefix starts the anchor of every chapter section.
const SectionPrefix = "sec--"

// Report describes one artifact.
type Report struct {
	Format   string
	Path     string
	Size     int64
	SHA256   string
	Title    string
	Sections int
	Words    int
}

// Inspector reads the format-specific parts of a Report.
type Inspector interface {
	Name() string
	Extensions() []string
	Inspect(filename string, r *Report) error
}

var registry []Inspector

// Register adds an inspector to the registry.
func Register(i Inspector) {
	registry = append(registry, i)
}

// Inspect hashes filename and fills the rest of the report with the
// inspector registered for its extension. Unknown extensions only get
// size and checksum.
func Inspect(filename string) (Report, error) {
	r := Report{Path: filename}
	if err := checksum(filename, &r); err != nil {
		return Report{}, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	for _, i := range registry {
		for _, e := range i.Extensions() {
			if ext == e {
				r.Format = i.Name()
				if err := i.Inspect(filename, &r); err != nil {
					return r, fmt.Errorf("inspect %s: %w", filename, err)
				}
				return r, nil
			}
		}
	}
	return r, nil
}

func checksum(filename string, r *Report) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return fmt.Errorf("hash %s: %w", filename, err)
	}
	r.Size = n
	r.SHA256 = hex.EncodeToString(h.Sum(nil))
	return nil
}
