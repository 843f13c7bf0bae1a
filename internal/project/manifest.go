// Package project locates and decodes the fieldhash.toml manifest.
package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"fieldhash/internal/diag"
)

// DefaultCacheDir is used when [cache].dir is not set.
const DefaultCacheDir = ".fieldhash"

// ErrNoManifest is returned by Load when no manifest exists above the start directory.
var ErrNoManifest = errors.New("no " + ManifestName + " found")

type Manifest struct {
	Path   string
	Root   string
	Config Config
	// Warnings holds non-fatal findings such as unknown keys.
	Warnings []diag.Diagnostic
}

type Config struct {
	Project ProjectConfig `toml:"project"`
	Cache   CacheConfig   `toml:"cache"`
	Targets []TargetSpec  `toml:"target"`
}

type ProjectConfig struct {
	Name string `toml:"name"`
}

type CacheConfig struct {
	Dir string `toml:"dir"`
}

// TargetSpec is a target definition as written in the manifest.
// Nothing here is validated; see package target.
type TargetSpec struct {
	Address       string            `toml:"address"`
	Kind          string            `toml:"kind"`
	Dependencies  []string          `toml:"dependencies"`
	Requirements  []RequirementSpec `toml:"requirements"`
	Excludes      []string          `toml:"excludes"`
	NativeLibrary string            `toml:"native_library"`
	Jars          []JarSpec         `toml:"jars"`
	Primitives    map[string]any    `toml:"primitives"`
	Sets          map[string][]any  `toml:"sets"`
}

type RequirementSpec struct {
	Spec          string   `toml:"spec"`
	Repository    string   `toml:"repository"`
	Name          string   `toml:"name"`
	Use2to3       bool     `toml:"use_2to3"`
	Compatibility []string `toml:"compatibility"`
}

type JarSpec struct {
	Org          string   `toml:"org"`
	Name         string   `toml:"name"`
	Rev          string   `toml:"rev"`
	Classifier   string   `toml:"classifier"`
	Ext          string   `toml:"ext"`
	URL          string   `toml:"url"`
	Mutable      bool     `toml:"mutable"`
	Force        bool     `toml:"force"`
	Intransitive bool     `toml:"intransitive"`
	Excludes     []string `toml:"excludes"`
}

// CacheDir returns the absolute fingerprint cache directory.
func (m *Manifest) CacheDir() string {
	dir := strings.TrimSpace(m.Config.Cache.Dir)
	if dir == "" {
		dir = DefaultCacheDir
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(m.Root, filepath.FromSlash(dir))
}

// Load finds the manifest above startDir and decodes it.
func Load(startDir string) (*Manifest, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoManifest
	}
	return LoadFile(path)
}

// LoadFile decodes the manifest at path. Syntax errors are returned as is,
// manifest-level problems as a *diag.ConfigError.
func LoadFile(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	var cfg Config
	meta, err := toml.DecodeFile(abs, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", abs, err)
	}

	bag := diag.NewBag(128)
	if !meta.IsDefined("project", "name") || strings.TrimSpace(cfg.Project.Name) == "" {
		bag.Errorf(diag.ManifestMissingProject, "", "project.name", "missing [project].name")
	}
	if meta.IsDefined("cache", "dir") && strings.TrimSpace(cfg.Cache.Dir) == "" {
		bag.Errorf(diag.ManifestBadCacheDir, "", "cache.dir", "[cache].dir is empty")
	}
	for _, key := range meta.Undecoded() {
		bag.Warnf(diag.ManifestUnknownKey, "", "", "unknown key %q", key.String())
	}
	if err := bag.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}

	return &Manifest{
		Path:     abs,
		Root:     filepath.Dir(abs),
		Config:   cfg,
		Warnings: bag.Items(),
	}, nil
}
