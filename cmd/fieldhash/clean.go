package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"fieldhash/internal/fpcache"
	"fieldhash/internal/project"
)

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [dir]",
		Short: "Remove stored fingerprint records",
		Long:  "Remove the fingerprint cache directory configured in fieldhash.toml.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runClean,
	}
}

func runClean(cmd *cobra.Command, args []string) error {
	opts, err := readGlobalOptions(cmd)
	if err != nil {
		return err
	}
	manifest, err := project.Load(startDir(args))
	if err != nil {
		if errors.Is(err, project.ErrNoManifest) {
			return errors.New(noManifestMessage)
		}
		return err
	}
	out := cmd.OutOrStdout()
	dir := manifest.CacheDir()
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if !opts.quiet {
				fmt.Fprintln(out, "cache directory not found")
			}
			return nil
		}
		return fmt.Errorf("failed to stat %q: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%q is not a directory", dir)
	}
	cache, err := fpcache.Open(dir)
	if err != nil {
		return err
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("failed to remove %q: %w", dir, err)
	}
	if !opts.quiet {
		fmt.Fprintf(out, "removed %s\n", relativeTo(manifest.Root, dir))
	}
	return nil
}

func relativeTo(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}
