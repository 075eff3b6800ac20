// Package p256 registers the NIST P-256 suite (RFC 9380
// P256_XMD:SHA-256_SSWU_RO_) backed by circl.
package p256

import (
	"crypto/elliptic"

	"github.com/cloudflare/circl/group"

	"xdao.co/jcommit/suite"
	"xdao.co/jcommit/suite/internal/circlsuite"
)

// Name is the registry name of this suite.
const Name = suite.DefaultName

// New returns a fresh P-256 suite.
func New() suite.Suite {
	return circlsuite.New(Name, group.P256, elliptic.P256().Params().N)
}

func init() {
	suite.MustRegister(New())
}
