// Package fingerprint produces stable content digests for build metadata.
//
// Two primitives live here:
//
//   - Combine merges precomputed digests into one digest. Inputs are sorted
//     first, so the result does not depend on presentation order.
//   - StableHash hashes any JSON-representable value through a canonical
//     encoding (sorted map keys, ordered sequences, NFC strings, explicit null).
//
// Both are pure functions and safe for concurrent use.
//
// # Absence
//
// Absent is the empty Digest. It marks "this value has no fingerprint".
// Combine skips absent inputs (they contribute no bytes); CombinePresent
// additionally reports Absent when nothing contributed.
package fingerprint
