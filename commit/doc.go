// Package commit computes structured vector commitments over document leaves.
//
// For a leaf with path p, kind k and value v the per-leaf commitment is
//
//	C(p) = v·G(p) + M(p, k) [+ r·H]
//
// where G(p) is the path generator, M(p, k) the presence marker for the value
// kind, H the fixed blinding base and r an optional blinding scalar. The
// aggregate commitment of a document is
//
//	A = [r0·H] + Σ C(p)
//
// over all leaves. Every generator is derived by hash-to-curve from the path
// encoding, so any party can recompute it, and the sum is independent of the
// order in which leaves are visited or committed.
//
// Value encoding into scalars:
//
//   - numbers: the exact integer value; the literal must be integral and its
//     magnitude at most (order-1)/2, negatives map to order-|n|
//   - strings: HashToScalar(UTF-8 bytes) under the STRING tag
//   - null, true, false: HashToScalar of the literal under the CONST tag
//
// Anything else fails with an encoding error; values are never coerced.
package commit
