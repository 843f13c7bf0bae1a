// Package diag collects construction-time problems found while turning a
// manifest into targets.
//
// A Diagnostic names the offending target and field so that a bad target
// definition fails fast with a build-configuration error instead of silently
// producing a wrong cache key. Producers append to a Bag; the CLI sorts it and
// turns it into a ConfigError with Bag.Err.
//
// The package does no IO and no formatting beyond Error strings.
package diag
