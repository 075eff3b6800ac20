// Package ristretto255 registers the ristretto255 suite
// (ristretto255_XMD:SHA-512_R255MAP_RO_) backed by circl.
package ristretto255

import (
	"math/big"

	"github.com/cloudflare/circl/group"

	"xdao.co/jcommit/suite"
	"xdao.co/jcommit/suite/internal/circlsuite"
)

const Name = "ristretto255-sha512"

// order is 2^252 + 27742317777372353535851937790883648493.
var order, _ = new(big.Int).SetString("7237005577332262213973186563042994240857116359379907606001950938285454250989", 10)

func New() suite.Suite {
	return circlsuite.New(Name, group.Ristretto255, order)
}

func init() {
	suite.MustRegister(New())
}
