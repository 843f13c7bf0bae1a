package field

import (
	"math"
	"reflect"
	"slices"
	"testing"
)

func TestPrimitive(t *testing.T) {
	unset := Unset()
	if unset.IsSet() || unset.Value() != nil {
		t.Fatal("Unset() should hold no value")
	}
	nilField, err := NewPrimitive(nil)
	if err != nil {
		t.Fatal(err)
	}
	if nilField.Fingerprint() != unset.Fingerprint() {
		t.Fatal("NewPrimitive(nil) differs from Unset()")
	}

	empty, err := NewPrimitive("")
	if err != nil {
		t.Fatal(err)
	}
	if empty.Fingerprint() == unset.Fingerprint() {
		t.Fatal("unset and empty string share a digest")
	}
	if unset.Fingerprint() != mustStable(t, nil) {
		t.Fatal("unset digest must be the stable hash of null")
	}

	a, _ := NewPrimitive(map[string]any{"x": 1, "y": []any{"a", "b"}})
	b, _ := NewPrimitive(map[string]any{"y": []any{"a", "b"}, "x": 1})
	c, _ := NewPrimitive(map[string]any{"x": 1, "y": []any{"b", "a"}})
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("key order changed the digest")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Fatal("sequence order must change the digest")
	}

	one, _ := NewPrimitive(1)
	oneFloat, _ := NewPrimitive(1.0)
	if one.Fingerprint() == oneFloat.Fingerprint() {
		t.Fatal("1 and 1.0 share a digest")
	}
}

func TestPrimitive_RejectsAtConstruction(t *testing.T) {
	bad := []any{
		struct{}{},
		map[int]int{1: 1},
		[]any{math.NaN()},
		func() {},
	}
	for _, v := range bad {
		if _, err := NewPrimitive(v); err == nil {
			t.Errorf("NewPrimitive(%T) accepted", v)
		}
	}
}

func TestPrimitiveSet(t *testing.T) {
	s, err := NewPrimitiveSet([]string{"c", "a", "b", "a"})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(s.Value(), want) {
		t.Fatalf("Value = %v, want %v", s.Value(), want)
	}
	if !s.Contains("b") || s.Contains("z") || s.Len() != 3 {
		t.Fatal("Contains/Len disagree with Value")
	}
	if got := slices.Collect(s.All()); !reflect.DeepEqual(got, s.Value()) {
		t.Fatalf("All = %v", got)
	}

	other, _ := NewPrimitiveSet([]string{"b", "c", "a"})
	if s.Fingerprint() != other.Fingerprint() {
		t.Fatal("set digest depends on input order")
	}
	if s.Fingerprint() != mustStable(t, []string{"a", "b", "c"}) {
		t.Fatal("set digest must hash the canonical sorted sequence")
	}
}

func TestPrimitiveSet_DoesNotAliasInput(t *testing.T) {
	in := []int{3, 1, 2}
	s, err := NewPrimitiveSet(in)
	if err != nil {
		t.Fatal(err)
	}
	in[0] = 99
	if !reflect.DeepEqual(s.Value(), []int{1, 2, 3}) {
		t.Fatalf("Value changed with caller slice: %v", s.Value())
	}
	if !reflect.DeepEqual(in, []int{99, 1, 2}) {
		t.Fatal("constructor reordered the caller slice")
	}
}

func TestPrimitiveSet_UnsetVersusEmpty(t *testing.T) {
	unset, err := NewPrimitiveSet[string](nil)
	if err != nil {
		t.Fatal(err)
	}
	empty, err := NewPrimitiveSet([]string{})
	if err != nil {
		t.Fatal(err)
	}
	if unset.Value() != nil || unset.IsSet() {
		t.Fatal("nil input must stay unset")
	}
	if empty.Value() == nil || len(empty.Value()) != 0 || !empty.IsSet() {
		t.Fatal("empty input must be an empty, set value")
	}
	if unset.Fingerprint() == empty.Fingerprint() {
		t.Fatal("unset and empty set share a digest")
	}
	if empty.Fingerprint() != mustStable(t, []string{}) {
		t.Fatal("empty set must hash the empty sequence")
	}
	if unset.Fingerprint() != mustStable(t, nil) {
		t.Fatal("unset set must hash null")
	}
}

func TestPrimitiveSet_RejectsNaNAndInf(t *testing.T) {
	if _, err := NewPrimitiveSet([]float64{1, math.NaN()}); err == nil {
		t.Fatal("NaN accepted")
	}
	if _, err := NewPrimitiveSet([]float64{math.Inf(-1)}); err == nil {
		t.Fatal("Inf accepted")
	}
	if _, err := NewPrimitiveSet([]string{"\xff"}); err == nil {
		t.Fatal("invalid UTF-8 accepted")
	}
}
