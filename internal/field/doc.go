// Package field implements fingerprintable target fields.
//
// A field owns one piece of target metadata and computes a digest of its
// semantic content once, on first use. Variants differ in how they
// canonicalize their data before hashing:
//
//   - Primitive: any JSON-representable value, nil meaning "unset".
//   - PrimitiveSet: an order-insensitive set of ordered scalars.
//   - Fingerprinted: defers to an object that fingerprints itself.
//   - Requirements: a set of requirements, hashed per element then combined.
//   - Excludes: an ordered, duplicate-free list of exclusions.
//   - Archives: an ordered list of elements with their own cache keys.
//
// Values are validated by constructors. Fingerprint never fails for a
// constructed field; a serializer error at that point is a bug and panics.
//
// Fingerprint is safe for concurrent use. MarkDirty is meant for tests and
// must not race with readers that expect a stable memo.
package field
