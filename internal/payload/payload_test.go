package payload

import (
	"errors"
	"sync/atomic"
	"testing"

	"fieldhash/internal/field"
	"fieldhash/internal/fingerprint"
)

type stubField struct {
	digest fingerprint.Digest
	dirty  atomic.Int64
}

func (s *stubField) Fingerprint() fingerprint.Digest { return s.digest }
func (s *stubField) MarkDirty()                      { s.dirty.Add(1) }

func primitive(t *testing.T, v any) field.Field {
	t.Helper()
	f, err := field.NewPrimitive(v)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestAdd_Errors(t *testing.T) {
	p := New()
	if err := p.Add("", primitive(t, 1)); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("empty key: %v", err)
	}
	if err := p.Add("a", primitive(t, 1)); err != nil {
		t.Fatal(err)
	}
	if err := p.Add("a", primitive(t, 2)); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("duplicate: %v", err)
	}
	var typed *field.Primitive
	if err := p.Add("typed", typed); !errors.Is(err, ErrNilField) {
		t.Fatalf("typed nil: %v", err)
	}
	if _, ok := p.Get("typed"); ok {
		t.Fatal("rejected field was stored")
	}
	if err := p.Add("untyped", nil); err != nil {
		t.Fatalf("untyped nil: %v", err)
	}
	p.Freeze()
	if !p.Frozen() {
		t.Fatal("Frozen() = false after Freeze")
	}
	if err := p.Add("b", primitive(t, 3)); !errors.Is(err, ErrFrozen) {
		t.Fatalf("frozen: %v", err)
	}
}

func TestFingerprint_AbsenceElided(t *testing.T) {
	p := New()
	if err := p.AddFields(map[string]field.Field{
		"present": primitive(t, "x"),
		"absent":  &stubField{digest: fingerprint.Absent},
		"none":    nil,
	}); err != nil {
		t.Fatal(err)
	}

	only := New()
	_ = only.Add("present", primitive(t, "x"))

	if p.Fingerprint() != only.Fingerprint() {
		t.Fatal("absent and nil fields must not contribute")
	}
	if p.Fingerprint().IsAbsent() {
		t.Fatal("payload with a present field must have a digest")
	}
}

func TestFingerprint_AbsentWhenNothingContributes(t *testing.T) {
	p := New()
	_ = p.Add("absent", &stubField{digest: fingerprint.Absent})
	_ = p.Add("none", nil)
	if got := p.Fingerprint(); !got.IsAbsent() {
		t.Fatalf("Fingerprint = %s, want absent", got)
	}
	if got := New().Fingerprint(); !got.IsAbsent() {
		t.Fatalf("empty payload = %s, want absent", got)
	}
}

func TestFingerprint_KeySubsetsAndNames(t *testing.T) {
	p := New()
	_ = p.Add("a", primitive(t, 1))
	_ = p.Add("b", primitive(t, 2))

	if p.Fingerprint() != p.Fingerprint("b", "a") {
		t.Fatal("explicit full key list differs from default")
	}
	if p.Fingerprint("a") == p.Fingerprint() {
		t.Fatal("subset must differ from full payload")
	}
	if p.Fingerprint("a", "missing") != p.Fingerprint("a") {
		t.Fatal("unknown keys must be skipped")
	}

	renamed := New()
	_ = renamed.Add("c", primitive(t, 1))
	_ = renamed.Add("b", primitive(t, 2))
	if renamed.Fingerprint() == p.Fingerprint() {
		t.Fatal("renaming a key must change the digest")
	}
}

func TestFingerprint_InvalidatedByAdd(t *testing.T) {
	p := New()
	_ = p.Add("a", primitive(t, 1))
	before := p.Fingerprint()
	_ = p.Add("b", primitive(t, 2))
	if p.Fingerprint() == before {
		t.Fatal("adding a field did not invalidate the memo")
	}
}

func TestMarkDirty_PropagatesToFields(t *testing.T) {
	s := &stubField{digest: fingerprint.Sum([]byte("x"))}
	p := New()
	_ = p.Add("s", s)
	_ = p.Add("nil", nil)
	_ = p.Fingerprint()
	p.MarkDirty()
	if s.dirty.Load() != 1 {
		t.Fatalf("field marked dirty %d times, want 1", s.dirty.Load())
	}
}

func TestFieldDigests(t *testing.T) {
	p := New()
	_ = p.Add("a", primitive(t, 1))
	_ = p.Add("absent", &stubField{})
	_ = p.Add("nil", nil)
	got := p.FieldDigests()
	if len(got) != 2 {
		t.Fatalf("FieldDigests = %v", got)
	}
	if !got["absent"].IsAbsent() || got["a"].IsAbsent() {
		t.Fatalf("FieldDigests = %v", got)
	}
	if keys := p.Keys(); len(keys) != 3 || keys[0] != "a" || p.Len() != 3 {
		t.Fatalf("Keys = %v", keys)
	}
}
