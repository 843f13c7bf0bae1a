package project

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fieldhash/internal/diag"
)

const sampleManifest = `
[project]
name = "demo"

[cache]
dir = "out/fp"

[[target]]
address = "src/python/dist:lib"
kind = "python_distribution"
dependencies = ["src/c:lib"]
requirements = [{ spec = "foo==1.0", compatibility = ["CPython>=3.6"] }]
excludes = ["org.a:lib1"]
native_library = "c-math-lib"
jars = [{ org = "org.a", name = "lib", rev = "1.0", excludes = ["org.b"] }]

[target.primitives]
zip_safe = true
timeout = 30

[target.sets]
sources = ["b.py", "a.py"]

[[target]]
address = "src/c:lib"
kind = "native_library"
`

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestFindManifest_WalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, sampleManifest)
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	path, ok, err := FindManifest(nested)
	if err != nil || !ok {
		t.Fatalf("FindManifest: ok=%v err=%v", ok, err)
	}
	if filepath.Dir(path) != root {
		t.Fatalf("found %q, want under %q", path, root)
	}
	gotRoot, ok, err := FindProjectRoot(nested)
	if err != nil || !ok || gotRoot != root {
		t.Fatalf("FindProjectRoot = %q %v %v", gotRoot, ok, err)
	}
}

func TestLoad_NoManifest(t *testing.T) {
	dir := t.TempDir()
	// Выше TempDir манифеста быть не должно, но проверяем только путь ошибки.
	path, ok, err := FindManifest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Skipf("unexpected manifest above temp dir: %s", path)
	}
	if _, err := Load(dir); !errors.Is(err, ErrNoManifest) {
		t.Fatalf("Load err = %v, want ErrNoManifest", err)
	}
}

func TestLoadFile_Decodes(t *testing.T) {
	root := t.TempDir()
	m, err := LoadFile(writeManifest(t, root, sampleManifest))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if m.Config.Project.Name != "demo" {
		t.Fatalf("name = %q", m.Config.Project.Name)
	}
	if got, want := m.CacheDir(), filepath.Join(root, "out", "fp"); got != want {
		t.Fatalf("CacheDir = %q, want %q", got, want)
	}
	if len(m.Config.Targets) != 2 {
		t.Fatalf("targets = %d", len(m.Config.Targets))
	}
	tg := m.Config.Targets[0]
	if tg.Address != "src/python/dist:lib" || tg.NativeLibrary != "c-math-lib" {
		t.Fatalf("target = %+v", tg)
	}
	if len(tg.Requirements) != 1 || tg.Requirements[0].Spec != "foo==1.0" || len(tg.Requirements[0].Compatibility) != 1 {
		t.Fatalf("requirements = %+v", tg.Requirements)
	}
	if len(tg.Jars) != 1 || tg.Jars[0].Rev != "1.0" || len(tg.Jars[0].Excludes) != 1 {
		t.Fatalf("jars = %+v", tg.Jars)
	}
	if tg.Primitives["zip_safe"] != true || tg.Primitives["timeout"] != int64(30) {
		t.Fatalf("primitives = %#v", tg.Primitives)
	}
	if len(tg.Sets["sources"]) != 2 {
		t.Fatalf("sets = %#v", tg.Sets)
	}
	if len(m.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", m.Warnings)
	}
}

func TestLoadFile_DefaultCacheDir(t *testing.T) {
	root := t.TempDir()
	m, err := LoadFile(writeManifest(t, root, "[project]\nname = \"x\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got := m.CacheDir(); got != filepath.Join(root, DefaultCacheDir) {
		t.Fatalf("CacheDir = %q", got)
	}
}

func TestLoadFile_Problems(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing project", "[cache]\ndir = \"x\"\n", "project.name"},
		{"blank name", "[project]\nname = \"  \"\n", "project.name"},
		{"empty cache dir", "[project]\nname = \"x\"\n[cache]\ndir = \"\"\n", "cache.dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeManifest(t, t.TempDir(), tt.body))
			var ce *diag.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("err = %v, want *diag.ConfigError", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadFile_SyntaxError(t *testing.T) {
	_, err := LoadFile(writeManifest(t, t.TempDir(), "[project\n"))
	if err == nil || !strings.Contains(err.Error(), "failed to parse TOML") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadFile_UnknownKeyWarns(t *testing.T) {
	m, err := LoadFile(writeManifest(t, t.TempDir(), "[project]\nname = \"x\"\nowner = \"me\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Warnings) != 1 || m.Warnings[0].Code != diag.ManifestUnknownKey {
		t.Fatalf("warnings = %v", m.Warnings)
	}
}
