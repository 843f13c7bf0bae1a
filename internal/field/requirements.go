package field

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"fieldhash/internal/fingerprint"
	"fieldhash/internal/requirement"
)

// Requirements is an unordered set of requirements. Two requirements with the
// same hash record are the same element.
type Requirements struct {
	items []requirement.Requirement // sorted by element key
	keys  []fingerprint.Digest
	cfg   config
	memo  Memo
}

// NewRequirements builds the set. Presentation order does not matter.
func NewRequirements(reqs []requirement.Requirement, opts ...Option) (*Requirements, error) {
	type keyed struct {
		key fingerprint.Digest
		req requirement.Requirement
	}
	all := make([]keyed, 0, len(reqs))
	for i, r := range reqs {
		if r.Specifier == "" {
			return nil, fmt.Errorf("requirements field: element %d has an empty specifier", i)
		}
		key, err := fingerprint.StableHash(r.HashRecord())
		if err != nil {
			return nil, fmt.Errorf("requirements field: %s: %w", r.Specifier, err)
		}
		all = append(all, keyed{key: key, req: r})
	}
	slices.SortFunc(all, func(a, b keyed) int { return strings.Compare(string(a.key), string(b.key)) })
	all = slices.CompactFunc(all, func(a, b keyed) bool { return a.key == b.key })

	out := &Requirements{
		items: make([]requirement.Requirement, len(all)),
		keys:  make([]fingerprint.Digest, len(all)),
		cfg:   newConfig(opts),
	}
	for i, k := range all {
		out.items[i] = k.req
		out.keys[i] = k.key
	}
	return out, nil
}

// Value returns the elements in a stable (digest) order. Callers must not modify it.
func (r *Requirements) Value() []requirement.Requirement { return r.items }

// Len returns the number of distinct requirements.
func (r *Requirements) Len() int { return len(r.items) }

// Contains reports whether an equal requirement is in the set.
func (r *Requirements) Contains(req requirement.Requirement) bool {
	key, err := fingerprint.StableHash(req.HashRecord())
	if err != nil {
		return false
	}
	_, ok := slices.BinarySearch(r.keys, key)
	return ok
}

// All iterates the elements.
func (r *Requirements) All() iter.Seq[requirement.Requirement] { return slices.Values(r.items) }

// ComputeFingerprint hashes each element's record, then combines the element
// digests, so set iteration order never matters.
func (r *Requirements) ComputeFingerprint() fingerprint.Digest {
	digests := make([]fingerprint.Digest, 0, len(r.items))
	for _, req := range r.items {
		digests = append(digests, r.cfg.hash("requirements", req.HashRecord()))
	}
	return fingerprint.Combine(digests...)
}

func (r *Requirements) Fingerprint() fingerprint.Digest { return r.memo.Get(r.ComputeFingerprint) }
func (r *Requirements) MarkDirty()                      { r.memo.Reset() }
