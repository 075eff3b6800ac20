package suite

import (
	"fmt"
	"io"
	"math/big"
)

// SampleScalar draws 64 bytes from r and reduces them modulo the order of s,
// rejecting zero. The 512-bit draw keeps the modular bias negligible for every
// registered suite.
func SampleScalar(s Suite, r io.Reader) (Scalar, error) {
	if r == nil {
		return nil, fmt.Errorf("suite: nil randomness source")
	}
	order := s.Order()
	buf := make([]byte, 64)
	for i := 0; i < 8; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("suite: read randomness: %w", err)
		}
		x := new(big.Int).SetBytes(buf)
		x.Mod(x, order)
		if x.Sign() == 0 {
			continue
		}
		return s.ScalarFromBigInt(x)
	}
	return nil, fmt.Errorf("suite: randomness source returned zero repeatedly")
}
