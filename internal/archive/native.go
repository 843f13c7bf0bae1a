package archive

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"fieldhash/internal/fingerprint"
)

// NativeLibrary is a shared library produced by a native (C/C++) target and
// loaded by its dependents at runtime.
type NativeLibrary struct {
	LibName string
}

// NewNativeLibrary validates the library name: non-empty, no path separators.
func NewNativeLibrary(libName string) (*NativeLibrary, error) {
	name := strings.TrimSpace(libName)
	if name == "" {
		return nil, fmt.Errorf("native library has an empty name")
	}
	if !utf8.ValidString(name) {
		return nil, fmt.Errorf("native library %q: name is not valid UTF-8", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("native library %q: name must not contain path separators", name)
	}
	return &NativeLibrary{LibName: name}, nil
}

// SharedObjectName returns the platform file name for goos.
func (n *NativeLibrary) SharedObjectName(goos string) string {
	switch goos {
	case "darwin":
		return "lib" + n.LibName + ".dylib"
	case "windows":
		return n.LibName + ".dll"
	default:
		return "lib" + n.LibName + ".so"
	}
}

// Fingerprint identifies the library by name.
func (n *NativeLibrary) Fingerprint() fingerprint.Digest {
	d, err := fingerprint.StableHash(map[string]any{"lib_name": n.LibName})
	if err != nil {
		panic(fmt.Sprintf("native library %q: %v", n.LibName, err))
	}
	return d
}

// CheckCacheKey reports whether a literal NativeLibrary can be fingerprinted.
func (n *NativeLibrary) CheckCacheKey() error {
	return fingerprint.Validate(map[string]any{"lib_name": n.LibName})
}

// CacheKey is the fingerprint in string form, so native libraries can sit in archive lists.
func (n *NativeLibrary) CacheKey() string { return n.Fingerprint().String() }

func (n *NativeLibrary) String() string { return n.LibName }
