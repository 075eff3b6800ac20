package commit

import (
	"math/big"
	"strconv"
	"strings"

	"xdao.co/jcommit/document"
	"xdao.co/jcommit/suite"
)

const (
	// maxExponent bounds the decimal exponent accepted in number literals.
	// Any integral value that fits a supported scalar field has far fewer digits.
	maxExponent = document.MaxNumberExponent
	// maxLiteralLen bounds number literal length before exact parsing.
	maxLiteralLen = document.MaxNumberLiteral
)

// EncodeValue maps a primitive value to a scalar of s.
//
// Numbers must be exact integers with |n| <= (order-1)/2; other numbers fail
// with a KindEncoding error instead of being rounded or reduced.
func EncodeValue(s suite.Suite, v document.Value) (suite.Scalar, error) {
	switch v.Kind() {
	case document.KindNumber:
		lit, _ := v.NumberLiteral()
		return encodeNumber(s, lit)
	case document.KindString:
		str, _ := v.AsString()
		k, err := s.HashToScalar([]byte(str), DST(PurposeString, s))
		if err != nil {
			return nil, wrapError(KindSuite, "JC-SUITE-001", "hash string value", err)
		}
		return k, nil
	case document.KindBool:
		b, _ := v.AsBool()
		return constScalar(s, strconv.FormatBool(b))
	case document.KindNull:
		return constScalar(s, "null")
	default:
		return nil, newError(KindEncoding, "JC-ENC-004", "unsupported value kind "+v.Kind().String())
	}
}

func constScalar(s suite.Suite, lit string) (suite.Scalar, error) {
	k, err := s.HashToScalar([]byte(lit), DST(PurposeConst, s))
	if err != nil {
		return nil, wrapError(KindSuite, "JC-SUITE-001", "hash constant "+lit, err)
	}
	return k, nil
}

func encodeNumber(s suite.Suite, lit string) (suite.Scalar, error) {
	if len(lit) > maxLiteralLen {
		return nil, newError(KindEncoding, "JC-ENC-003", "number literal too long")
	}
	if i := strings.IndexAny(lit, "eE"); i >= 0 {
		exp, err := strconv.Atoi(lit[i+1:])
		if err != nil || exp > maxExponent || exp < -maxExponent {
			return nil, newError(KindEncoding, "JC-ENC-003", "number exponent out of range: "+lit)
		}
	}
	r, ok := new(big.Rat).SetString(lit)
	if !ok {
		return nil, newError(KindEncoding, "JC-ENC-003", "unparsable number literal: "+lit)
	}
	if !r.IsInt() {
		return nil, newError(KindEncoding, "JC-ENC-001", "number is not an integer: "+lit)
	}

	n := r.Num()
	abs := new(big.Int).Abs(n)
	half := s.Order()
	half.Sub(half, big.NewInt(1)).Rsh(half, 1)
	if abs.Cmp(half) > 0 {
		return nil, newError(KindEncoding, "JC-ENC-002", "number magnitude exceeds scalar range: "+lit)
	}

	k, err := s.ScalarFromBigInt(abs)
	if err != nil {
		return nil, wrapError(KindInternal, "JC-INT-001", "scalar from integer", err)
	}
	if n.Sign() < 0 {
		k = k.Neg()
	}
	return k, nil
}
