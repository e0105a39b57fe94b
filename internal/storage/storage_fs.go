package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

const (
	cacheDir   = ".cache"
	latestName = "latest"
)

// ArtifactName returns the file name of a rendered book:
// <prefix>-<release>.<ext>.
func ArtifactName(prefix, release, ext string) string {
	return fmt.Sprintf("%s-%s.%s", prefix, release, ext)
}

// LatestName returns the name of the symlink to the newest artifact of a
// format.
func LatestName(prefix, ext string) string {
	return ArtifactName(prefix, latestName, ext)
}

// FSStorage writes artifacts below Root, the dist directory.
type FSStorage struct {
	Root string
}

func NewFSStorage(root string) *FSStorage {
	return &FSStorage{Root: root}
}

// Path returns the location of name below Root.
func (s *FSStorage) Path(name string) string {
	return filepath.Join(s.Root, filepath.FromSlash(name))
}

// Exists reports whether name is present below Root, following symlinks.
func (s *FSStorage) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// LinkLatest points <prefix>-latest.<ext> at the artifact of release.
func (s *FSStorage) LinkLatest(ctx context.Context, prefix, release, ext string) error {
	return s.writeSymlink(LatestName(prefix, ext), ArtifactName(prefix, release, ext))
}

// CheckStamp reports whether the artifact name was last rendered from text
// with the given digest.
func (s *FSStorage) CheckStamp(name, digest string) bool {
	data, err := os.ReadFile(filepath.Join(s.Root, cacheDir, name))
	return err == nil && string(data) == digest
}

func (s *FSStorage) WriteStamp(ctx context.Context, name, digest string) error {
	if name == "" {
		return fmt.Errorf("stamp artifact name required")
	}
	return WriteFile(filepath.Join(s.Root, cacheDir, name), []byte(digest))
}

// WriteFile writes content to fullPath, creating parent directories. An
// existing file or symlink at fullPath is replaced, never followed.
func WriteFile(fullPath string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	// Remove any existing file or symlink so os.WriteFile does not
	// follow a stale latest link into another release.
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing: %w", err)
	}
	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func (s *FSStorage) writeSymlink(destPath string, target string) error {
	fullPath := s.Path(destPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing: %w", err)
	}
	if err := os.Symlink(target, fullPath); err != nil {
		return fmt.Errorf("symlink: %w", err)
	}
	return nil
}
