// Package bn254 registers a suite over the G1 group of BN254 backed by
// gnark-crypto (hash-to-curve BN254G1_XMD:SHA-256_SVDW_RO_).
package bn254

import (
	"bytes"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"xdao.co/jcommit/suite"
)

const Name = "bn254-g1"

type g1Suite struct{}

func New() suite.Suite { return g1Suite{} }

func init() {
	suite.MustRegister(New())
}

func (g1Suite) Name() string { return Name }

func (g1Suite) HashToElement(msg, dst []byte) (suite.Element, error) {
	if len(dst) == 0 {
		return nil, fmt.Errorf("%w: empty domain separation tag", suite.ErrHashToCurve)
	}
	p, err := bn254.HashToG1(msg, dst)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", suite.ErrHashToCurve, err)
	}
	return element{p: p}, nil
}

func (g1Suite) HashToScalar(msg, dst []byte) (suite.Scalar, error) {
	if len(dst) == 0 {
		return nil, fmt.Errorf("%w: empty domain separation tag", suite.ErrHashToCurve)
	}
	out, err := fr.Hash(msg, dst, 1)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", suite.ErrHashToCurve, err)
	}
	return scalar{k: out[0]}, nil
}

func (g1Suite) ScalarFromBigInt(x *big.Int) (suite.Scalar, error) {
	if x == nil || x.Sign() < 0 || x.Cmp(fr.Modulus()) >= 0 {
		return nil, suite.ErrScalarRange
	}
	var k fr.Element
	k.SetBigInt(x)
	return scalar{k: k}, nil
}

func (s g1Suite) RandomScalar(r io.Reader) (suite.Scalar, error) {
	return suite.SampleScalar(s, r)
}

func (g1Suite) Identity() suite.Element { return element{} }

func (g1Suite) Order() *big.Int { return fr.Modulus() }

func (g1Suite) DecodeElement(b []byte) (suite.Element, error) {
	if len(b) != bn254.SizeOfG1AffineCompressed {
		return nil, fmt.Errorf("%w: bn254 element must be %d bytes", suite.ErrEncoding, bn254.SizeOfG1AffineCompressed)
	}
	var p bn254.G1Affine
	if _, err := p.SetBytes(b); err != nil {
		return nil, fmt.Errorf("%w: %v", suite.ErrEncoding, err)
	}
	return element{p: p}, nil
}

func (g1Suite) DecodeScalar(b []byte) (suite.Scalar, error) {
	var k fr.Element
	if err := k.SetBytesCanonical(b); err != nil {
		return nil, fmt.Errorf("%w: %v", suite.ErrEncoding, err)
	}
	canon := k.Bytes()
	if !bytes.Equal(canon[:], b) {
		return nil, fmt.Errorf("%w: non-canonical scalar", suite.ErrEncoding)
	}
	return scalar{k: k}, nil
}

type element struct {
	p bn254.G1Affine
}

func (a element) Add(o suite.Element) suite.Element {
	b := o.(element)
	var acc bn254.G1Jac
	acc.FromAffine(&a.p)
	acc.AddMixed(&b.p)
	var out bn254.G1Affine
	out.FromJacobian(&acc)
	return element{p: out}
}

func (a element) Mul(k suite.Scalar) suite.Element {
	var e big.Int
	s := k.(scalar).k
	s.BigInt(&e)
	var out bn254.G1Affine
	out.ScalarMultiplication(&a.p, &e)
	return element{p: out}
}

func (a element) Equal(o suite.Element) bool {
	b, ok := o.(element)
	return ok && a.p.Equal(&b.p)
}

func (a element) IsIdentity() bool { return a.p.IsInfinity() }

func (a element) MarshalBinary() ([]byte, error) {
	b := a.p.Bytes()
	return b[:], nil
}

type scalar struct {
	k fr.Element
}

func (a scalar) Add(o suite.Scalar) suite.Scalar {
	b := o.(scalar)
	var out fr.Element
	out.Add(&a.k, &b.k)
	return scalar{k: out}
}

func (a scalar) Neg() suite.Scalar {
	var out fr.Element
	out.Neg(&a.k)
	return scalar{k: out}
}

func (a scalar) Equal(o suite.Scalar) bool {
	b, ok := o.(scalar)
	return ok && a.k.Equal(&b.k)
}

func (a scalar) IsZero() bool { return a.k.IsZero() }

func (a scalar) MarshalBinary() ([]byte, error) {
	b := a.k.Bytes()
	return b[:], nil
}
