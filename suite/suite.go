package suite

import (
	"errors"
	"io"
	"math/big"
)

// DefaultName is the suite used when none is configured.
//
// It matches the hash-to-curve suite P256_XMD:SHA-256_SSWU_RO_ of RFC 9380.
const DefaultName = "p256-sha256"

var (
	// ErrScalarRange is returned by ScalarFromBigInt when x is outside [0, order).
	ErrScalarRange = errors.New("suite: scalar out of range")
	// ErrEncoding is returned when element or scalar bytes cannot be decoded.
	ErrEncoding = errors.New("suite: invalid encoding")
	// ErrHashToCurve is returned when a hash-to-curve call fails.
	ErrHashToCurve = errors.New("suite: hash to curve failed")
)

// Suite is a prime-order group with domain-separated hashing.
//
// Implementations MUST be safe for concurrent use and MUST be stateless: the
// same inputs always yield the same outputs.
type Suite interface {
	// Name is the stable identifier recorded in commitment records.
	Name() string

	// HashToElement maps msg to a group element under the domain tag dst.
	HashToElement(msg, dst []byte) (Element, error)
	// HashToScalar maps msg to a scalar under the domain tag dst.
	HashToScalar(msg, dst []byte) (Scalar, error)

	// ScalarFromBigInt returns x as a scalar. x must satisfy 0 <= x < Order().
	ScalarFromBigInt(x *big.Int) (Scalar, error)
	// RandomScalar samples a uniformly random non-zero scalar from r.
	RandomScalar(r io.Reader) (Scalar, error)

	Identity() Element
	// Order returns a fresh copy of the group order.
	Order() *big.Int

	DecodeElement(b []byte) (Element, error)
	DecodeScalar(b []byte) (Scalar, error)
}

// Element is an immutable group element. Operations return new values and
// never modify the receiver or their arguments.
type Element interface {
	Add(Element) Element
	Mul(Scalar) Element
	Equal(Element) bool
	IsIdentity() bool
	// MarshalBinary returns the canonical compressed encoding.
	MarshalBinary() ([]byte, error)
}

// Scalar is an immutable element of the scalar field.
type Scalar interface {
	Add(Scalar) Scalar
	Neg() Scalar
	Equal(Scalar) bool
	IsZero() bool
	MarshalBinary() ([]byte, error)
}

// Sum folds elements with the group operation starting from the identity.
func Sum(s Suite, elems ...Element) Element {
	acc := s.Identity()
	for _, e := range elems {
		acc = acc.Add(e)
	}
	return acc
}

// ReduceBigInt reduces x modulo the suite order and returns the scalar.
// Negative inputs are mapped to their additive inverse class.
func ReduceBigInt(s Suite, x *big.Int) (Scalar, error) {
	r := new(big.Int).Mod(x, s.Order())
	return s.ScalarFromBigInt(r)
}
