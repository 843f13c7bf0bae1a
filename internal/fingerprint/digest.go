package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
)

// Digest is a lowercase hex SHA-256 sum.
type Digest string

// Absent marks a value without a fingerprint.
const Absent Digest = ""

// Empty is the digest of the empty byte sequence, i.e. Combine().
const Empty Digest = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// IsAbsent reports whether d is the absence marker.
func (d Digest) IsAbsent() bool { return d == Absent }

// String returns the hex form of the digest.
func (d Digest) String() string { return string(d) }

// Short returns the first n hex characters, for display only.
func (d Digest) Short(n int) string {
	if n <= 0 || n >= len(d) {
		return string(d)
	}
	return string(d[:n])
}

// Sum hashes raw bytes.
func Sum(data []byte) Digest {
	sum := sha256.Sum256(data)
	return Digest(hex.EncodeToString(sum[:]))
}

// Combine merges digests: H(sorted(d1) || sorted(d2) ...).
// Duplicates are kept and change the result. Absent inputs contribute nothing.
func Combine(digests ...Digest) Digest {
	sorted := slices.Clone(digests)
	slices.Sort(sorted)

	h := sha256.New()
	for _, d := range sorted {
		if d.IsAbsent() {
			continue
		}
		_, _ = h.Write([]byte(d))
	}
	return Digest(hex.EncodeToString(h.Sum(nil)))
}

// CombinePresent is Combine, except that it returns Absent when every input is absent
// (including the empty input).
func CombinePresent(digests ...Digest) Digest {
	for _, d := range digests {
		if !d.IsAbsent() {
			return Combine(digests...)
		}
	}
	return Absent
}
