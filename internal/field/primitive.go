package field

import (
	"cmp"
	"fmt"
	"iter"
	"slices"

	"fieldhash/internal/fingerprint"
)

// Primitive holds a single JSON-representable value. nil means unset and
// still has a digest of its own, distinct from "" or an empty collection.
//
// The field takes ownership of v: callers must not mutate maps or slices
// passed to NewPrimitive.
type Primitive struct {
	value any
	cfg   config
	memo  Memo
}

// NewPrimitive validates v and returns a field holding it.
func NewPrimitive(v any, opts ...Option) (*Primitive, error) {
	if err := fingerprint.Validate(v); err != nil {
		return nil, fmt.Errorf("primitive field: %w", err)
	}
	return &Primitive{value: v, cfg: newConfig(opts)}, nil
}

// Unset returns a primitive field with no value.
func Unset(opts ...Option) *Primitive {
	return &Primitive{cfg: newConfig(opts)}
}

// Value returns the underlying value (nil when unset).
func (p *Primitive) Value() any { return p.value }

// IsSet reports whether the field holds a value.
func (p *Primitive) IsSet() bool { return p.value != nil }

func (p *Primitive) ComputeFingerprint() fingerprint.Digest {
	return p.cfg.hash("primitive", p.value)
}

func (p *Primitive) Fingerprint() fingerprint.Digest { return p.memo.Get(p.ComputeFingerprint) }
func (p *Primitive) MarkDirty()                      { p.memo.Reset() }

// PrimitiveSet is an order-insensitive set of ordered scalars, stored sorted
// and deduplicated. A nil input slice is "unset", which is not the empty set.
type PrimitiveSet[T cmp.Ordered] struct {
	items []T // nil == unset
	cfg   config
	memo  Memo
}

// NewPrimitiveSet canonicalizes items. NaN and values without a JSON form are rejected.
func NewPrimitiveSet[T cmp.Ordered](items []T, opts ...Option) (*PrimitiveSet[T], error) {
	s := &PrimitiveSet[T]{cfg: newConfig(opts)}
	if items == nil {
		return s, nil
	}
	canon := make([]T, 0, len(items))
	for _, v := range items {
		if isNaN(v) {
			return nil, fmt.Errorf("primitive set field: NaN is not a valid element")
		}
		canon = append(canon, v)
	}
	slices.Sort(canon)
	canon = slices.Compact(canon)
	if err := fingerprint.Validate(canon); err != nil {
		return nil, fmt.Errorf("primitive set field: %w", err)
	}
	s.items = canon
	return s, nil
}

// Value returns the canonical sorted elements, or nil when unset.
// The returned slice must not be modified.
func (s *PrimitiveSet[T]) Value() []T { return s.items }

// IsSet reports whether the set was given (possibly empty).
func (s *PrimitiveSet[T]) IsSet() bool { return s.items != nil }

// Len returns the number of distinct elements.
func (s *PrimitiveSet[T]) Len() int { return len(s.items) }

// Contains reports membership using binary search.
func (s *PrimitiveSet[T]) Contains(v T) bool {
	_, ok := slices.BinarySearch(s.items, v)
	return ok
}

// All iterates elements in sorted order.
func (s *PrimitiveSet[T]) All() iter.Seq[T] { return slices.Values(s.items) }

func (s *PrimitiveSet[T]) ComputeFingerprint() fingerprint.Digest {
	if s.items == nil {
		return s.cfg.hash("primitive set", nil)
	}
	return s.cfg.hash("primitive set", s.items)
}

func (s *PrimitiveSet[T]) Fingerprint() fingerprint.Digest { return s.memo.Get(s.ComputeFingerprint) }
func (s *PrimitiveSet[T]) MarkDirty()                      { s.memo.Reset() }

// isNaN is true only for floating-point NaN.
func isNaN[T cmp.Ordered](x T) bool { return x != x }
