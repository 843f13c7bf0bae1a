// Package payload groups the fields of one build target and derives the
// target's fingerprint from theirs.
package payload

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"

	"fieldhash/internal/field"
	"fieldhash/internal/fingerprint"
)

var (
	// ErrFrozen is returned when adding to a frozen payload.
	ErrFrozen = errors.New("payload is frozen")
	// ErrDuplicateKey is returned when a key is added twice.
	ErrDuplicateKey = errors.New("duplicate payload key")
	// ErrEmptyKey is returned for an empty key.
	ErrEmptyKey = errors.New("empty payload key")
	// ErrNilField is returned for a typed nil, e.g. a (*field.Primitive)(nil).
	ErrNilField = errors.New("typed nil field")
)

// Payload is a keyed collection of fields. A nil field is allowed and means
// the key is declared but carries nothing.
type Payload struct {
	mu     sync.RWMutex
	fields map[string]field.Field
	frozen bool
	memo   map[string]fingerprint.Digest // by joined key list
}

// New returns an empty, unfrozen payload.
func New() *Payload {
	return &Payload{
		fields: make(map[string]field.Field),
		memo:   make(map[string]fingerprint.Digest),
	}
}

// Add registers f under key.
func (p *Payload) Add(key string, f field.Field) error {
	if key == "" {
		return ErrEmptyKey
	}
	if f != nil && typedNil(f) {
		return fmt.Errorf("add %q: %w", key, ErrNilField)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frozen {
		return fmt.Errorf("add %q: %w", key, ErrFrozen)
	}
	if _, ok := p.fields[key]; ok {
		return fmt.Errorf("add %q: %w", key, ErrDuplicateKey)
	}
	p.fields[key] = f
	clear(p.memo)
	return nil
}

func typedNil(f field.Field) bool {
	rv := reflect.ValueOf(f)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// AddFields registers every entry, in key order. It stops at the first error.
func (p *Payload) AddFields(fields map[string]field.Field) error {
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		if err := p.Add(key, fields[key]); err != nil {
			return err
		}
	}
	return nil
}

// Freeze forbids further additions.
func (p *Payload) Freeze() {
	p.mu.Lock()
	p.frozen = true
	p.mu.Unlock()
}

// Frozen reports whether Freeze was called.
func (p *Payload) Frozen() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.frozen
}

// Get returns the field stored under key.
func (p *Payload) Get(key string) (field.Field, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	f, ok := p.fields[key]
	return f, ok
}

// Keys returns the registered keys, sorted.
func (p *Payload) Keys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Sorted(maps.Keys(p.fields))
}

// Len returns the number of keys.
func (p *Payload) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.fields)
}

// Fingerprint combines the digests of the named fields (all fields when keys
// is empty). Fields that are nil or absent are skipped; when nothing
// contributes the result is fingerprint.Absent. Unknown keys are skipped too.
//
// Each contributing field feeds sha256(key) then its digest, in key order, so
// renaming a key changes the result.
func (p *Payload) Fingerprint(keys ...string) fingerprint.Digest {
	if len(keys) == 0 {
		keys = p.Keys()
	} else {
		keys = slices.Clone(keys)
		slices.Sort(keys)
		keys = slices.Compact(keys)
	}
	memoKey := strings.Join(keys, "\x00")

	p.mu.RLock()
	d, ok := p.memo[memoKey]
	p.mu.RUnlock()
	if ok {
		return d
	}

	d = p.compute(keys)

	p.mu.Lock()
	if prev, ok := p.memo[memoKey]; ok {
		d = prev
	} else {
		p.memo[memoKey] = d
	}
	p.mu.Unlock()
	return d
}

func (p *Payload) compute(keys []string) fingerprint.Digest {
	h := sha256.New()
	contributed := false
	for _, key := range keys {
		f, ok := p.Get(key)
		if !ok || f == nil {
			continue
		}
		fp := f.Fingerprint()
		if fp.IsAbsent() {
			continue
		}
		contributed = true
		keySum := sha256.Sum256([]byte(key))
		_, _ = h.Write([]byte(hex.EncodeToString(keySum[:])))
		_, _ = h.Write([]byte(fp))
	}
	if !contributed {
		return fingerprint.Absent
	}
	return fingerprint.Digest(hex.EncodeToString(h.Sum(nil)))
}

// FieldDigests returns each non-nil field's digest, absent ones included.
func (p *Payload) FieldDigests() map[string]fingerprint.Digest {
	out := make(map[string]fingerprint.Digest)
	for _, key := range p.Keys() {
		if f, _ := p.Get(key); f != nil {
			out[key] = f.Fingerprint()
		}
	}
	return out
}

// MarkDirty drops the payload memo and marks every field dirty.
func (p *Payload) MarkDirty() {
	p.mu.Lock()
	clear(p.memo)
	fields := slices.Collect(maps.Values(p.fields))
	p.mu.Unlock()
	for _, f := range fields {
		if f != nil {
			f.MarkDirty()
		}
	}
}
