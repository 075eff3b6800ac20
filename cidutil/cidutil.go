// Package cidutil derives content identifiers for commitment records.
package cidutil

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Hash selects the multihash function used for record CIDs.
type Hash uint64

const (
	SHA2_256 Hash = Hash(multihash.SHA2_256)
	SHA3_256 Hash = Hash(multihash.SHA3_256)
)

func (h Hash) String() string {
	switch h {
	case SHA2_256:
		return "sha2-256"
	case SHA3_256:
		return "sha3-256"
	default:
		return fmt.Sprintf("Hash(0x%x)", uint64(h))
	}
}

// ParseHash maps a configuration name to a Hash. "" selects SHA2_256.
func ParseHash(name string) (Hash, error) {
	switch name {
	case "", "sha2-256":
		return SHA2_256, nil
	case "sha3-256":
		return SHA3_256, nil
	default:
		return 0, fmt.Errorf("cidutil: unsupported hash %q", name)
	}
}

// CIDv1Raw returns a CIDv1 using the "raw" multicodec and a multihash of data.
// The zero Hash selects SHA2_256.
func CIDv1Raw(data []byte, h Hash) (cid.Cid, error) {
	if h == 0 {
		h = SHA2_256
	}
	sum, err := multihash.Sum(data, uint64(h), -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// CIDv1RawSHA256 returns the CIDv1 (raw + sha2-256) string of data.
func CIDv1RawSHA256(data []byte) string {
	c, err := CIDv1Raw(data, SHA2_256)
	if err != nil {
		// multihash.Sum with SHA2_256 and default length does not fail.
		return ""
	}
	return c.String()
}

// Verify recomputes the CID of data with the hash function named by want's
// multihash and reports a mismatch.
func Verify(want cid.Cid, data []byte) error {
	dec, err := multihash.Decode(want.Hash())
	if err != nil {
		return fmt.Errorf("cidutil: decode multihash: %w", err)
	}
	got, err := CIDv1Raw(data, Hash(dec.Code))
	if err != nil {
		return err
	}
	if !got.Equals(want) {
		return fmt.Errorf("cidutil: cid mismatch: want %s, got %s", want, got)
	}
	return nil
}
