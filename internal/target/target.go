// Package target turns manifest target specs into build targets whose
// payload fields are ready to be fingerprinted.
package target

import (
	"fieldhash/internal/fingerprint"
	"fieldhash/internal/payload"
)

// Payload keys of the built-in fields.
const (
	KeyDependencies  = "dependencies"
	KeyRequirements  = "requirements"
	KeyExcludes      = "excludes"
	KeyJars          = "jars"
	KeyNativeLibrary = "ctypes_native_library"
)

// DefaultKind is used for targets without a kind.
const DefaultKind = "target"

var knownKinds = map[string]struct{}{
	DefaultKind:                   {},
	"python_distribution":         {},
	"python_library":              {},
	"python_binary":               {},
	"python_tests":                {},
	"python_requirement_library":  {},
	"jar_library":                 {},
	"java_library":                {},
	"scala_library":               {},
	"native_library":              {},
	"ctypes_compatible_c_library": {},
	"resources":                   {},
}

// Target is a named build unit with a frozen payload.
type Target struct {
	Address string
	Kind    string
	Payload *payload.Payload
}

// Fingerprint is the payload fingerprint; Absent when no field contributes.
func (t *Target) Fingerprint() fingerprint.Digest {
	return t.Payload.Fingerprint()
}

// FieldDigests returns the digest of every declared field.
func (t *Target) FieldDigests() map[string]fingerprint.Digest {
	return t.Payload.FieldDigests()
}

// MarkDirty invalidates all cached digests of the target.
func (t *Target) MarkDirty() {
	t.Payload.MarkDirty()
}
