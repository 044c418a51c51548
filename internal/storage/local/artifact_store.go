// Package local persists fetched artifacts to the output directory.
package local

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fasrc/a2rchi-sitemap-ripper/internal/ripper"
)

// Store writes artifacts into a single destination directory. Artifact names
// are digest-derived and unique per URL, so concurrent Put calls for
// different URLs never touch the same path.
type Store struct {
	dir string
}

var _ ripper.ArtifactStore = (*Store)(nil)

// New creates the destination directory if needed and verifies it is usable.
// Failure here is a fatal startup error for the run.
func New(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}

	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return nil, fmt.Errorf("output path %s is not a directory", dir)
		}
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(dir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create output directory: %w", mkErr)
		}
	default:
		return nil, fmt.Errorf("stat output directory: %w", err)
	}

	return &Store{dir: dir}, nil
}

// Dir returns the destination directory.
func (s *Store) Dir() string {
	return s.dir
}

// Put writes data under name inside the destination directory and returns the
// full path. Repeated writes for the same name overwrite in place.
func (s *Store) Put(name string, data []byte) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("artifact name is required")
	}

	fullPath := filepath.Join(s.dir, name)

	// Digest names never contain separators, but reject traversal anyway.
	cleanDir := filepath.Clean(s.dir)
	if filepath.Dir(filepath.Clean(fullPath)) != cleanDir {
		return "", fmt.Errorf("artifact name %q escapes the output directory", name)
	}

	if err := os.WriteFile(fullPath, data, 0o600); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return fullPath, nil
}
