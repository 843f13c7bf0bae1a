package field

import (
	"fmt"
	"iter"
	"slices"

	"fieldhash/internal/fingerprint"
)

// CacheKeyer is an element that knows its own cache key.
type CacheKeyer interface {
	CacheKey() string
}

// Archives is an ordered sequence of archive-like elements.
type Archives[A CacheKeyer] struct {
	items []A
	cfg   config
	memo  Memo
}

// KeyChecker is implemented by elements that can report up front whether
// CacheKey would fail.
type KeyChecker interface {
	CheckCacheKey() error
}

// NewArchives copies items. Nil elements and elements whose cache key
// cannot be computed or serialized are rejected.
func NewArchives[A CacheKeyer](items []A, opts ...Option) (*Archives[A], error) {
	keys := make([]string, len(items))
	for i, a := range items {
		if isNil(a) {
			return nil, fmt.Errorf("archives field: element %d: %w", i, ErrNilValue)
		}
		key, err := checkedCacheKey(a)
		if err != nil {
			return nil, fmt.Errorf("archives field: element %d: %w", i, err)
		}
		keys[i] = key
	}
	if err := fingerprint.Validate(keys); err != nil {
		return nil, fmt.Errorf("archives field: %w", err)
	}
	return &Archives[A]{items: slices.Clone(items), cfg: newConfig(opts)}, nil
}

// checkedCacheKey turns a CacheKey panic into an error at construction.
func checkedCacheKey(a CacheKeyer) (key string, err error) {
	if kc, ok := a.(KeyChecker); ok {
		if err := kc.CheckCacheKey(); err != nil {
			return "", err
		}
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cache key: %v", r)
		}
	}()
	return a.CacheKey(), nil
}

// Value returns the elements in order. Callers must not modify it.
func (a *Archives[A]) Value() []A { return a.items }

// Len returns the number of elements.
func (a *Archives[A]) Len() int { return len(a.items) }

// At returns the i-th element.
func (a *Archives[A]) At(i int) A { return a.items[i] }

// All iterates in order.
func (a *Archives[A]) All() iter.Seq[A] { return slices.Values(a.items) }

func (a *Archives[A]) ComputeFingerprint() fingerprint.Digest {
	keys := make([]string, len(a.items))
	for i, item := range a.items {
		keys[i] = item.CacheKey()
	}
	return a.cfg.hash("archives", keys)
}

func (a *Archives[A]) Fingerprint() fingerprint.Digest { return a.memo.Get(a.ComputeFingerprint) }
func (a *Archives[A]) MarkDirty()                      { a.memo.Reset() }
