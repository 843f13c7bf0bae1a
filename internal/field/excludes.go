package field

import (
	"fmt"
	"iter"
	"slices"

	"fieldhash/internal/exclude"
	"fieldhash/internal/fingerprint"
)

// Excludes is an ordered set: order is kept (consumers apply exclusions in
// sequence) and repeats after the first occurrence are dropped.
type Excludes struct {
	items []exclude.Exclude
	cfg   config
	memo  Memo
}

// NewExcludes builds the ordered set.
func NewExcludes(items []exclude.Exclude, opts ...Option) (*Excludes, error) {
	seen := make(map[exclude.Exclude]struct{}, len(items))
	out := make([]exclude.Exclude, 0, len(items))
	for i, e := range items {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("excludes field: element %d: %w", i, err)
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	x := &Excludes{items: out, cfg: newConfig(opts)}
	if err := fingerprint.Validate(x.texts()); err != nil {
		return nil, fmt.Errorf("excludes field: %w", err)
	}
	return x, nil
}

// Value returns the exclusions in order. Callers must not modify it.
func (x *Excludes) Value() []exclude.Exclude { return x.items }

// Len returns the number of distinct exclusions.
func (x *Excludes) Len() int { return len(x.items) }

// At returns the i-th exclusion.
func (x *Excludes) At(i int) exclude.Exclude { return x.items[i] }

// Contains reports membership.
func (x *Excludes) Contains(e exclude.Exclude) bool { return slices.Contains(x.items, e) }

// All iterates in order.
func (x *Excludes) All() iter.Seq[exclude.Exclude] { return slices.Values(x.items) }

func (x *Excludes) texts() []string {
	texts := make([]string, len(x.items))
	for i, e := range x.items {
		texts[i] = e.String()
	}
	return texts
}

func (x *Excludes) ComputeFingerprint() fingerprint.Digest {
	return x.cfg.hash("excludes", x.texts())
}

func (x *Excludes) Fingerprint() fingerprint.Digest { return x.memo.Get(x.ComputeFingerprint) }
func (x *Excludes) MarkDirty()                      { x.memo.Reset() }
