package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ManifestName is the file name of the project manifest.
const ManifestName = "fieldhash.toml"

// FindManifest returns the nearest fieldhash.toml at or above startDir.
// ok is false when the filesystem root is reached without a match.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for prev := ""; dir != prev; prev, dir = dir, filepath.Dir(dir) {
		candidate := filepath.Join(dir, ManifestName)
		info, statErr := os.Stat(candidate)
		switch {
		case statErr == nil && !info.IsDir():
			return candidate, true, nil
		case statErr != nil && !errors.Is(statErr, fs.ErrNotExist):
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, statErr)
		}
	}
	return "", false, nil
}

// FindProjectRoot returns the directory holding the nearest manifest.
func FindProjectRoot(startDir string) (root string, ok bool, err error) {
	manifestPath, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return "", ok, err
	}
	return filepath.Dir(manifestPath), true, nil
}
