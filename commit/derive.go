package commit

import (
	"xdao.co/jcommit/docpath"
	"xdao.co/jcommit/document"
	"xdao.co/jcommit/suite"
)

// Domain separation purposes. Each hash into the group or the scalar field
// uses a distinct tag so outputs of one purpose never collide with another.
const (
	PurposeGenerator = "GENERATOR"
	PurposeMarker    = "MARKER"
	PurposeBlinding  = "BLINDING"
	PurposeString    = "STRING"
	PurposeConst     = "CONST"
)

const dstPrefix = "JCOMMIT-V1-"

// DST returns the domain separation tag for purpose under suite s.
func DST(purpose string, s suite.Suite) []byte {
	return []byte(dstPrefix + purpose + "_" + s.Name())
}

// DeriveGenerator returns the generator G(p) for path p.
func DeriveGenerator(s suite.Suite, p docpath.Path) (suite.Element, error) {
	g, err := s.HashToElement(p.Encode(), DST(PurposeGenerator, s))
	if err != nil {
		return nil, wrapError(KindSuite, "JC-SUITE-001", "derive generator for "+p.String(), err)
	}
	return g, nil
}

// DeriveMarker returns the presence marker M(p, kind).
func DeriveMarker(s suite.Suite, p docpath.Path, kind document.Kind) (suite.Element, error) {
	tag, ok := kindTag(kind)
	if !ok {
		return nil, newError(KindEncoding, "JC-ENC-004", "unsupported value kind "+kind.String())
	}
	msg := append(p.Encode(), tag)
	m, err := s.HashToElement(msg, DST(PurposeMarker, s))
	if err != nil {
		return nil, wrapError(KindSuite, "JC-SUITE-001", "derive marker for "+p.String(), err)
	}
	return m, nil
}

// BlindingBase returns the fixed second base H used for blinding terms.
// Its discrete logarithm relative to any path generator is unknown.
func BlindingBase(s suite.Suite) (suite.Element, error) {
	h, err := s.HashToElement([]byte("blinding-base"), DST(PurposeBlinding, s))
	if err != nil {
		return nil, wrapError(KindSuite, "JC-SUITE-001", "derive blinding base", err)
	}
	return h, nil
}

func kindTag(k document.Kind) (byte, bool) {
	switch k {
	case document.KindNull:
		return 'n', true
	case document.KindBool:
		return 'b', true
	case document.KindNumber:
		return 'd', true
	case document.KindString:
		return 's', true
	default:
		return 0, false
	}
}
