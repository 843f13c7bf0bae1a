package field

import (
	"reflect"

	"fieldhash/internal/fingerprint"
)

// Fingerprinter is any object that can fingerprint itself. Implementations
// must be deterministic and free of side effects.
type Fingerprinter interface {
	Fingerprint() fingerprint.Digest
}

// Fingerprinted delegates to the wrapped object's own fingerprint.
type Fingerprinted[F Fingerprinter] struct {
	value F
	memo  Memo
}

// NewFingerprinted wraps v, which must not be nil.
func NewFingerprinted[F Fingerprinter](v F) (*Fingerprinted[F], error) {
	if isNil(v) {
		return nil, ErrNilValue
	}
	return &Fingerprinted[F]{value: v}, nil
}

// Value returns the wrapped object, not its digest.
func (f *Fingerprinted[F]) Value() F { return f.value }

func (f *Fingerprinted[F]) ComputeFingerprint() fingerprint.Digest { return f.value.Fingerprint() }

func (f *Fingerprinted[F]) Fingerprint() fingerprint.Digest { return f.memo.Get(f.ComputeFingerprint) }
func (f *Fingerprinted[F]) MarkDirty()                      { f.memo.Reset() }

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
