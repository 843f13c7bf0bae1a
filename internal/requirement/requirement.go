// Package requirement models third-party package requirements attached to
// build targets, e.g. "foo[bar]>=1.0,<2; python_version >= '3.6'".
package requirement

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// HashRecordVersion identifies the layout returned by HashRecord.
// Bump it whenever the set or order of hashed attributes changes:
// every cache key derived from requirements changes with it.
const HashRecordVersion = 1

// Clause is one version constraint, e.g. {">=", "1.0"}.
type Clause struct {
	Op      string
	Version string
}

func (c Clause) String() string { return c.Op + c.Version }

// Requirement is a parsed requirement plus the resolution attributes a target
// attaches to it.
type Requirement struct {
	// Specifier is the requirement text as written (trimmed).
	Specifier string
	Project   string
	Extras    []string
	Clauses   []Clause
	URL       string // direct reference ("name @ url")
	Marker    string // environment marker after ';'

	Repository    string   // index or find-links location; "" when unset
	Name          string   // defaults to Project
	Use2to3       bool     // legacy source translation flag
	Compatibility []string // interpreter constraints; nil when unset
}

// Option customizes a Requirement built by New.
type Option func(*Requirement)

// WithRepository sets the repository the requirement resolves from.
func WithRepository(repo string) Option {
	return func(r *Requirement) { r.Repository = strings.TrimSpace(repo) }
}

// WithName overrides the local name (the project name by default).
func WithName(name string) Option {
	return func(r *Requirement) {
		if n := strings.TrimSpace(name); n != "" {
			r.Name = n
		}
	}
}

// WithUse2to3 sets the legacy 2to3 flag.
func WithUse2to3(v bool) Option {
	return func(r *Requirement) { r.Use2to3 = v }
}

// WithCompatibility sets interpreter constraints. A nil slice leaves them unset.
func WithCompatibility(constraints []string) Option {
	return func(r *Requirement) {
		if constraints == nil {
			r.Compatibility = nil
			return
		}
		r.Compatibility = make([]string, 0, len(constraints))
		for _, c := range constraints {
			r.Compatibility = append(r.Compatibility, strings.TrimSpace(c))
		}
	}
}

// New parses spec and applies opts.
func New(spec string, opts ...Option) (Requirement, error) {
	r, err := Parse(spec)
	if err != nil {
		return Requirement{}, err
	}
	for _, opt := range opts {
		opt(&r)
	}
	for _, c := range r.Compatibility {
		if c == "" {
			return Requirement{}, fmt.Errorf("requirement %q: empty compatibility constraint", r.Specifier)
		}
	}
	return r, nil
}

// MustNew is New that panics on error. Intended for tests and fixed tables.
func MustNew(spec string, opts ...Option) Requirement {
	r, err := New(spec, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// HashRecord returns exactly the attributes that identify this requirement in
// a fingerprint: [version, specifier, repository, name, use_2to3, compatibility].
// Unset repository, name and compatibility are null.
func (r Requirement) HashRecord() []any {
	return []any{
		HashRecordVersion,
		r.Specifier,
		optional(r.Repository),
		optional(r.Name),
		r.Use2to3,
		r.compatibilityRecord(),
	}
}

func (r Requirement) compatibilityRecord() any {
	if r.Compatibility == nil {
		return nil
	}
	return slices.Clone(r.Compatibility)
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// String returns the specifier.
func (r Requirement) String() string { return r.Specifier }

var errEmptySpec = errors.New("empty requirement specifier")
