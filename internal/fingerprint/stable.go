package fingerprint

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// maxDepth bounds nesting so that pointer cycles fail instead of recursing forever.
const maxDepth = 256

var (
	// ErrUnsupported is returned for values that have no JSON representation.
	ErrUnsupported = errors.New("value is not JSON-representable")
	// ErrTooDeep is returned when nesting exceeds maxDepth.
	ErrTooDeep = errors.New("value nesting too deep")
)

// Serializer turns a JSON-representable value into a digest.
type Serializer interface {
	Hash(v any) (Digest, error)
}

type stableSerializer struct{}

func (stableSerializer) Hash(v any) (Digest, error) { return StableHash(v) }

// Stable is the default Serializer, backed by StableHash.
var Stable Serializer = stableSerializer{}

// SerializerFunc adapts a function to Serializer.
type SerializerFunc func(v any) (Digest, error)

// Hash calls f(v).
func (f SerializerFunc) Hash(v any) (Digest, error) { return f(v) }

// StableHash returns the digest of the canonical encoding of v.
func StableHash(v any) (Digest, error) {
	data, err := Canonical(v)
	if err != nil {
		return Absent, err
	}
	return Sum(data), nil
}

// Validate reports whether v can be canonically encoded.
func Validate(v any) error {
	_, err := Canonical(v)
	return err
}

// Canonical encodes v as compact JSON with deterministic layout:
// map keys sorted, sequences in order, strings NFC-normalized, nil as null.
func Canonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, reflect.ValueOf(v), 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var jsonNumberType = reflect.TypeOf(json.Number(""))

func encodeValue(buf *bytes.Buffer, v reflect.Value, depth int) error {
	if depth > maxDepth {
		return ErrTooDeep
	}
	if !v.IsValid() {
		buf.WriteString("null")
		return nil
	}
	if v.Type() == jsonNumberType {
		return encodeNumber(buf, json.Number(v.String()))
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			buf.WriteString("null")
			return nil
		}
		return encodeValue(buf, v.Elem(), depth+1)
	case reflect.Bool:
		buf.WriteString(strconv.FormatBool(v.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		buf.WriteString(strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		buf.WriteString(strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32:
		return encodeFloat(buf, v.Float(), 32)
	case reflect.Float64:
		return encodeFloat(buf, v.Float(), 64)
	case reflect.String:
		return encodeString(buf, v.String())
	case reflect.Slice:
		if v.IsNil() {
			buf.WriteString("null")
			return nil
		}
		return encodeSeq(buf, v, depth)
	case reflect.Array:
		return encodeSeq(buf, v, depth)
	case reflect.Map:
		if v.IsNil() {
			buf.WriteString("null")
			return nil
		}
		return encodeMap(buf, v, depth)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, v.Type())
	}
	return nil
}

func encodeSeq(buf *bytes.Buffer, v reflect.Value, depth int) error {
	buf.WriteByte('[')
	for i := range v.Len() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeValue(buf, v.Index(i), depth+1); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

func encodeMap(buf *bytes.Buffer, v reflect.Value, depth int) error {
	if v.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("%w: map key type %s", ErrUnsupported, v.Type().Key())
	}
	type entry struct {
		key string
		val reflect.Value
	}
	entries := make([]entry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		raw := iter.Key().String()
		if !utf8.ValidString(raw) {
			return fmt.Errorf("%w: map key %q is not valid UTF-8", ErrUnsupported, raw)
		}
		entries = append(entries, entry{key: norm.NFC.String(raw), val: iter.Value()})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		switch {
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		}
		return 0
	})

	buf.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			if entries[i-1].key == e.key {
				return fmt.Errorf("%w: keys collide after normalization: %q", ErrUnsupported, e.key)
			}
			buf.WriteByte(',')
		}
		writeQuoted(buf, e.key)
		buf.WriteByte(':')
		if err := encodeValue(buf, e.val, depth+1); err != nil {
			return fmt.Errorf("%q: %w", e.key, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: string %q is not valid UTF-8", ErrUnsupported, s)
	}
	writeQuoted(buf, norm.NFC.String(s))
	return nil
}

// encodeFloat keeps floats distinct from integers: 1.0 encodes as "1.0",
// never "1".
func encodeFloat(buf *bytes.Buffer, f float64, bits int) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: %v", ErrUnsupported, f)
	}
	if f == 0 {
		// -0 и 0 неразличимы
		buf.WriteString("0.0")
		return nil
	}
	text := strconv.FormatFloat(f, 'g', -1, bits)
	buf.WriteString(text)
	if !strings.ContainsAny(text, ".e") {
		buf.WriteString(".0")
	}
	return nil
}

func encodeNumber(buf *bytes.Buffer, n json.Number) error {
	if i, err := n.Int64(); err == nil {
		buf.WriteString(strconv.FormatInt(i, 10))
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("%w: number %q", ErrUnsupported, string(n))
	}
	return encodeFloat(buf, f, 64)
}

const hexDigits = "0123456789abcdef"

// writeQuoted writes s as a JSON string. Only '"', '\\' and control
// characters are escaped; everything else is emitted as UTF-8.
func writeQuoted(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if c < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hexDigits[c>>4])
				buf.WriteByte(hexDigits[c&0xf])
				continue
			}
			buf.WriteByte(c)
		}
	}
	buf.WriteByte('"')
}
