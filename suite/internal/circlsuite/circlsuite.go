// Package circlsuite adapts github.com/cloudflare/circl/group groups to the
// suite interfaces.
package circlsuite

import (
	"bytes"
	"fmt"
	"io"
	"math/big"

	"github.com/cloudflare/circl/group"

	"xdao.co/jcommit/suite"
)

// Suite wraps a circl group.
type Suite struct {
	name  string
	g     group.Group
	order *big.Int
}

// New returns a suite named name over g with the given group order.
func New(name string, g group.Group, order *big.Int) *Suite {
	return &Suite{name: name, g: g, order: new(big.Int).Set(order)}
}

func (s *Suite) Name() string { return s.name }

func (s *Suite) HashToElement(msg, dst []byte) (suite.Element, error) {
	if len(dst) == 0 {
		return nil, fmt.Errorf("%w: empty domain separation tag", suite.ErrHashToCurve)
	}
	return element{g: s.g, e: s.g.HashToElement(msg, dst)}, nil
}

func (s *Suite) HashToScalar(msg, dst []byte) (suite.Scalar, error) {
	if len(dst) == 0 {
		return nil, fmt.Errorf("%w: empty domain separation tag", suite.ErrHashToCurve)
	}
	return scalar{g: s.g, k: s.g.HashToScalar(msg, dst)}, nil
}

func (s *Suite) ScalarFromBigInt(x *big.Int) (suite.Scalar, error) {
	if x == nil || x.Sign() < 0 || x.Cmp(s.order) >= 0 {
		return nil, suite.ErrScalarRange
	}
	return scalar{g: s.g, k: s.g.NewScalar().SetBigInt(x)}, nil
}

func (s *Suite) RandomScalar(r io.Reader) (suite.Scalar, error) {
	return suite.SampleScalar(s, r)
}

func (s *Suite) Identity() suite.Element { return element{g: s.g, e: s.g.Identity()} }

func (s *Suite) Order() *big.Int { return new(big.Int).Set(s.order) }

func (s *Suite) DecodeElement(b []byte) (suite.Element, error) {
	e := s.g.NewElement()
	if err := e.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("%w: %v", suite.ErrEncoding, err)
	}
	// Only the compressed form is canonical.
	canon, err := e.MarshalBinaryCompress()
	if err != nil || !bytes.Equal(canon, b) {
		return nil, fmt.Errorf("%w: non-canonical element", suite.ErrEncoding)
	}
	return element{g: s.g, e: e}, nil
}

func (s *Suite) DecodeScalar(b []byte) (suite.Scalar, error) {
	k := s.g.NewScalar()
	if err := k.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("%w: %v", suite.ErrEncoding, err)
	}
	canon, err := k.MarshalBinary()
	if err != nil || !bytes.Equal(canon, b) {
		return nil, fmt.Errorf("%w: non-canonical scalar", suite.ErrEncoding)
	}
	return scalar{g: s.g, k: k}, nil
}

type element struct {
	g group.Group
	e group.Element
}

func (a element) Add(o suite.Element) suite.Element {
	b := o.(element)
	return element{g: a.g, e: a.g.NewElement().Add(a.e, b.e)}
}

func (a element) Mul(k suite.Scalar) suite.Element {
	return element{g: a.g, e: a.g.NewElement().Mul(a.e, k.(scalar).k)}
}

func (a element) Equal(o suite.Element) bool {
	b, ok := o.(element)
	return ok && a.e.IsEqual(b.e)
}

func (a element) IsIdentity() bool { return a.e.IsIdentity() }

func (a element) MarshalBinary() ([]byte, error) { return a.e.MarshalBinaryCompress() }

type scalar struct {
	g group.Group
	k group.Scalar
}

func (a scalar) Add(o suite.Scalar) suite.Scalar {
	return scalar{g: a.g, k: a.g.NewScalar().Add(a.k, o.(scalar).k)}
}

func (a scalar) Neg() suite.Scalar { return scalar{g: a.g, k: a.g.NewScalar().Neg(a.k)} }

func (a scalar) Equal(o suite.Scalar) bool {
	b, ok := o.(scalar)
	return ok && a.k.IsEqual(b.k)
}

func (a scalar) IsZero() bool { return a.k.IsZero() }

func (a scalar) MarshalBinary() ([]byte, error) { return a.k.MarshalBinary() }
