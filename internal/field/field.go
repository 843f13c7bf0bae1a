package field

import (
	"errors"
	"fmt"
	"sync/atomic"

	"fieldhash/internal/fingerprint"
)

// Field is the read contract the target layer depends on.
type Field interface {
	// Fingerprint returns the memoized digest, computing it on first call.
	// The result may be fingerprint.Absent.
	Fingerprint() fingerprint.Digest
	// MarkDirty drops the memo; the value is untouched.
	MarkDirty()
}

// Computer produces a digest from an immutable value.
type Computer interface {
	ComputeFingerprint() fingerprint.Digest
}

// ErrNilValue is returned when a variant requires a non-nil value.
var ErrNilValue = errors.New("field value is nil")

// Memo is a lock-free memo slot. The zero value is empty and ready to use.
//
// Concurrent misses may compute more than once; the first published result
// wins and every caller returns it.
type Memo struct {
	slot atomic.Pointer[fingerprint.Digest]
}

// Get returns the memoized digest or computes and publishes it.
func (m *Memo) Get(compute func() fingerprint.Digest) fingerprint.Digest {
	if d := m.slot.Load(); d != nil {
		return *d
	}
	d := compute()
	if m.slot.CompareAndSwap(nil, &d) {
		return d
	}
	if cur := m.slot.Load(); cur != nil {
		return *cur
	}
	return d
}

// Reset empties the slot.
func (m *Memo) Reset() { m.slot.Store(nil) }

// Cached reports whether a digest is memoized.
func (m *Memo) Cached() bool { return m.slot.Load() != nil }

type memoized struct {
	c    Computer
	memo Memo
}

// Of wraps any Computer into a memoizing Field.
func Of(c Computer) Field {
	return &memoized{c: c}
}

func (f *memoized) Fingerprint() fingerprint.Digest { return f.memo.Get(f.c.ComputeFingerprint) }
func (f *memoized) MarkDirty()                      { f.memo.Reset() }

type config struct {
	serializer fingerprint.Serializer
}

// Option configures a field variant.
type Option func(*config)

// WithSerializer replaces the stable serializer, e.g. with an instrumented one.
func WithSerializer(s fingerprint.Serializer) Option {
	return func(c *config) {
		if s != nil {
			c.serializer = s
		}
	}
}

func newConfig(opts []Option) config {
	c := config{serializer: fingerprint.Stable}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// hash serializes a value that the constructor already validated.
func (c config) hash(kind string, v any) fingerprint.Digest {
	d, err := c.serializer.Hash(v)
	if err != nil {
		panic(fmt.Sprintf("field: %s: serializing validated value: %v", kind, err))
	}
	return d
}
