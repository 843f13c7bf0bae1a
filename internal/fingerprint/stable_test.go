package fingerprint

import (
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
)

func TestCanonical(t *testing.T) {
	type label string
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "nil", in: nil, want: `null`},
		{name: "nil slice", in: []string(nil), want: `null`},
		{name: "nil map", in: map[string]int(nil), want: `null`},
		{name: "empty slice", in: []string{}, want: `[]`},
		{name: "empty map", in: map[string]any{}, want: `{}`},
		{name: "empty string", in: "", want: `""`},
		{name: "bool", in: true, want: `true`},
		{name: "int", in: -42, want: `-42`},
		{name: "uint", in: uint8(7), want: `7`},
		{name: "float integral", in: 1.0, want: `1.0`},
		{name: "float32 integral", in: float32(3), want: `3.0`},
		{name: "float", in: 0.5, want: `0.5`},
		{name: "float exponent", in: 1e21, want: `1e+21`},
		{name: "negative zero", in: math.Copysign(0, -1), want: `0.0`},
		{name: "json number", in: json.Number("12"), want: `12`},
		{name: "json number float", in: json.Number("2.50"), want: `2.5`},
		{name: "json number integral float", in: json.Number("1.0"), want: `1.0`},
		{name: "named string", in: label("x"), want: `"x"`},
		{name: "escapes", in: "a\"b\\c\n\x01<>&", want: `"a\"b\\c\n\u0001<>&"`},
		{name: "sequence keeps order", in: []any{"b", "a", 3}, want: `["b","a",3]`},
		{name: "array", in: [2]int{2, 1}, want: `[2,1]`},
		{
			name: "map keys sorted",
			in:   map[string]any{"b": 1, "a": []any{nil, false}, "c": map[string]int{"y": 1, "x": 2}},
			want: `{"a":[null,false],"b":1,"c":{"x":2,"y":1}}`,
		},
		{name: "pointer", in: func() *int { v := 3; return &v }(), want: `3`},
		{name: "nil pointer", in: (*int)(nil), want: `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonical(tt.in)
			if err != nil {
				t.Fatalf("Canonical returned error: %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("Canonical = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCanonical_Unsupported(t *testing.T) {
	type point struct{ X int }
	tests := []struct {
		name string
		in   any
	}{
		{name: "struct", in: point{X: 1}},
		{name: "func", in: func() {}},
		{name: "chan", in: make(chan int)},
		{name: "int keys", in: map[int]string{1: "a"}},
		{name: "nan", in: math.NaN()},
		{name: "inf", in: math.Inf(1)},
		{name: "nested nan", in: []any{"ok", map[string]any{"x": math.NaN()}}},
		{name: "bad number", in: json.Number("x1")},
		{name: "invalid utf8", in: "\xff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Canonical(tt.in)
			if !errors.Is(err, ErrUnsupported) {
				t.Fatalf("expected ErrUnsupported, got %v", err)
			}
			if Validate(tt.in) == nil {
				t.Fatal("Validate accepted unsupported value")
			}
		})
	}
}

func TestCanonical_PointerCycle(t *testing.T) {
	type node []any
	n := make(node, 1)
	n[0] = n
	if _, err := Canonical(n); !errors.Is(err, ErrTooDeep) {
		t.Fatalf("expected ErrTooDeep, got %v", err)
	}
}

func TestStableHash_NFC(t *testing.T) {
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"
	a, err := StableHash(map[string]string{composed: composed})
	if err != nil {
		t.Fatal(err)
	}
	b, err := StableHash(map[string]string{decomposed: decomposed})
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("canonically equivalent strings must hash identically")
	}
}

func TestStableHash_KeyCollisionAfterNormalization(t *testing.T) {
	_, err := StableHash(map[string]int{"caf\u00e9": 1, "cafe\u0301": 2})
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected collision error, got %v", err)
	}
}

func TestStableHash_InsertionOrderIrrelevant(t *testing.T) {
	m1 := map[string]any{}
	m2 := map[string]any{}
	keys := []string{"k1", "k2", "k3", "k4", "k5", "k6"}
	for _, k := range keys {
		m1[k] = k
	}
	for i := len(keys) - 1; i >= 0; i-- {
		m2[keys[i]] = keys[i]
	}
	a, _ := StableHash(m1)
	b, _ := StableHash(m2)
	if a != b {
		t.Fatal("map insertion order changed the digest")
	}
}

func TestStableHash_AbsenceDistinct(t *testing.T) {
	values := []any{nil, "", []string{}, map[string]any{}, false, 0}
	seen := map[Digest]int{}
	for i, v := range values {
		d, err := StableHash(v)
		if err != nil {
			t.Fatal(err)
		}
		if j, ok := seen[d]; ok {
			t.Fatalf("values %d and %d share digest %s", j, i, d)
		}
		seen[d] = i
	}
	if d, _ := StableHash(nil); d != Sum([]byte("null")) {
		t.Fatalf("nil digest = %s", d)
	}
}

func TestStableHash_Concurrent(t *testing.T) {
	v := map[string]any{"a": []any{1, 2, "x"}, "b": nil}
	want, err := StableHash(v)
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Stable.Hash(v)
			if err != nil || got != want {
				t.Errorf("concurrent hash = %s, %v", got, err)
			}
		}()
	}
	wg.Wait()
}
