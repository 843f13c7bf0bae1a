// Package exclude describes dependency exclusions ("org" or "org:name").
package exclude

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Exclude removes an organisation, or a single module of it, from resolution.
type Exclude struct {
	Org  string
	Name string // пусто: исключается вся организация
}

var errEmptyOrg = errors.New("exclude has an empty org")

// New validates and returns an Exclude.
func New(org, name string) (Exclude, error) {
	e := Exclude{Org: strings.TrimSpace(org), Name: strings.TrimSpace(name)}
	if err := e.Validate(); err != nil {
		return Exclude{}, err
	}
	return e, nil
}

// Validate checks the invariants New enforces, for values built as literals.
// Distinct valid excludes always have distinct String forms.
func (e Exclude) Validate() error {
	switch {
	case e.Org == "":
		return errEmptyOrg
	case !utf8.ValidString(e.Org) || !utf8.ValidString(e.Name):
		return fmt.Errorf("exclude %q: not valid UTF-8", e.String())
	case strings.Contains(e.Org, ":") || strings.Contains(e.Name, ":"):
		return fmt.Errorf("exclude %q: org and name must not contain ':'", e.String())
	}
	return nil
}

// Parse reads the canonical text form produced by String.
func Parse(s string) (Exclude, error) {
	org, name, _ := strings.Cut(strings.TrimSpace(s), ":")
	if strings.Contains(name, ":") {
		return Exclude{}, fmt.Errorf("exclude %q: too many ':' separators", s)
	}
	e, err := New(org, name)
	if err != nil {
		return Exclude{}, fmt.Errorf("exclude %q: %w", s, err)
	}
	return e, nil
}

// ParseAll parses every entry, stopping at the first error.
func ParseAll(specs []string) ([]Exclude, error) {
	out := make([]Exclude, 0, len(specs))
	for _, s := range specs {
		e, err := Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// String is the canonical text form; it participates in fingerprints.
func (e Exclude) String() string {
	if e.Name == "" {
		return e.Org
	}
	return e.Org + ":" + e.Name
}
