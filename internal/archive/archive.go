// Package archive describes binary artifacts that targets depend on:
// remote archives (jars) and native shared libraries built in-tree.
package archive

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"fieldhash/internal/exclude"
	"fieldhash/internal/fingerprint"
)

// Archive is a remote archive dependency identified by org, name and revision.
type Archive struct {
	Org          string
	Name         string
	Rev          string
	Classifier   string
	Ext          string
	URL          string
	Mutable      bool
	Force        bool
	Intransitive bool
	Excludes     []exclude.Exclude
}

var (
	errEmptyOrg  = errors.New("archive has an empty org")
	errEmptyName = errors.New("archive has an empty name")
)

// New validates a and returns it with whitespace trimmed.
func New(a Archive) (Archive, error) {
	a.Org = strings.TrimSpace(a.Org)
	a.Name = strings.TrimSpace(a.Name)
	a.Rev = strings.TrimSpace(a.Rev)
	a.Classifier = strings.TrimSpace(a.Classifier)
	a.Ext = strings.TrimSpace(a.Ext)
	a.URL = strings.TrimSpace(a.URL)
	if err := a.Validate(); err != nil {
		return Archive{}, err
	}
	return a, nil
}

// Validate checks an archive built without New. Every attribute that feeds
// CacheKey must be valid UTF-8.
func (a Archive) Validate() error {
	switch {
	case a.Org == "":
		return errEmptyOrg
	case a.Name == "":
		return fmt.Errorf("%s: %w", a.Org, errEmptyName)
	}
	attrs := [...]struct{ name, value string }{
		{"org", a.Org}, {"name", a.Name}, {"rev", a.Rev},
		{"classifier", a.Classifier}, {"ext", a.Ext}, {"url", a.URL},
	}
	for _, attr := range attrs {
		if !utf8.ValidString(attr.value) {
			return fmt.Errorf("%q: %s is not valid UTF-8", a.Coordinate(), attr.name)
		}
	}
	if a.Mutable && a.Rev == "" {
		return fmt.Errorf("%s: mutable archive needs a rev", a.Coordinate())
	}
	for i, e := range a.Excludes {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("%s: exclude %d: %w", a.Coordinate(), i, err)
		}
	}
	return nil
}

// Coordinate returns "org:name[:rev]".
func (a Archive) Coordinate() string {
	c := a.Org + ":" + a.Name
	if a.Rev != "" {
		c += ":" + a.Rev
	}
	return c
}

// CacheKey returns a digest of every attribute that affects resolution.
// It panics on an archive that fails Validate.
func (a Archive) CacheKey() string {
	key, err := a.cacheKey()
	if err != nil {
		panic(fmt.Sprintf("archive %s: cache key: %v", a.Coordinate(), err))
	}
	return key
}

// CheckCacheKey reports whether CacheKey would succeed.
func (a Archive) CheckCacheKey() error {
	if err := a.Validate(); err != nil {
		return err
	}
	_, err := a.cacheKey()
	return err
}

func (a Archive) cacheKey() (string, error) {
	excludes := make([]string, 0, len(a.Excludes))
	for _, e := range a.Excludes {
		excludes = append(excludes, e.String())
	}
	d, err := fingerprint.StableHash(map[string]any{
		"org":        a.Org,
		"name":       a.Name,
		"rev":        optional(a.Rev),
		"classifier": optional(a.Classifier),
		"ext":        optional(a.Ext),
		"url":        optional(a.URL),
		"mutable":    a.Mutable,
		"force":      a.Force,
		"transitive": !a.Intransitive,
		"excludes":   excludes,
	})
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

func (a Archive) String() string { return a.Coordinate() }

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}
