package commit

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/hkdf"

	"xdao.co/jcommit/docpath"
	"xdao.co/jcommit/suite"
)

// BlindingSource supplies blinding scalars. A nil scalar means "no blinding
// term". Implementations must be safe for concurrent use.
type BlindingSource interface {
	// Document returns the document-level scalar r0.
	Document(s suite.Suite) (suite.Scalar, error)
	// Leaf returns the blinding scalar for the leaf at p.
	Leaf(s suite.Suite, p docpath.Path) (suite.Scalar, error)
	// Reproducible reports whether repeated calls return the same scalars.
	Reproducible() bool
}

// NoBlinding yields deterministic, unblinded commitments.
type NoBlinding struct{}

func (NoBlinding) Document(suite.Suite) (suite.Scalar, error) { return nil, nil }
func (NoBlinding) Leaf(suite.Suite, docpath.Path) (suite.Scalar, error) { return nil, nil }
func (NoBlinding) Reproducible() bool { return true }

// RandomBlinding draws fresh scalars from Reader (crypto/rand when nil).
type RandomBlinding struct {
	Reader io.Reader

	mu sync.Mutex
}

func (b *RandomBlinding) draw(s suite.Suite) (suite.Scalar, error) {
	if b.Reader == nil {
		return suite.SampleScalar(s, rand.Reader)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return suite.SampleScalar(s, b.Reader)
}

func (b *RandomBlinding) Document(s suite.Suite) (suite.Scalar, error) { return b.draw(s) }

func (b *RandomBlinding) Leaf(s suite.Suite, _ docpath.Path) (suite.Scalar, error) {
	return b.draw(s)
}

func (b *RandomBlinding) Reproducible() bool { return false }

// blindingError keeps a rule-tagged *Error from a BlindingSource and wraps any
// other failure as JC-BLIND-001.
func blindingError(msg string, err error) error {
	if _, ok := err.(*Error); ok {
		return err
	}
	return wrapError(KindBlinding, "JC-BLIND-001", msg, err)
}

// MinSeedLen is the shortest seed SeededBlinding accepts.
const MinSeedLen = 16

// SeededBlinding derives every blinding scalar from Seed with HKDF-SHA256,
// so the same seed and document reproduce the same blinded commitment.
type SeededBlinding struct {
	Seed []byte
}

func (b SeededBlinding) derive(s suite.Suite, info []byte) (suite.Scalar, error) {
	if len(b.Seed) < MinSeedLen {
		return nil, newError(KindBlinding, "JC-BLIND-002", fmt.Sprintf("blinding seed must be at least %d bytes", MinSeedLen))
	}
	kdf := hkdf.New(sha256.New, b.Seed, DST(PurposeBlinding, s), info)
	return suite.SampleScalar(s, kdf)
}

func (b SeededBlinding) Document(s suite.Suite) (suite.Scalar, error) {
	return b.derive(s, []byte("document"))
}

func (b SeededBlinding) Leaf(s suite.Suite, p docpath.Path) (suite.Scalar, error) {
	return b.derive(s, append([]byte("leaf"), p.Encode()...))
}

func (SeededBlinding) Reproducible() bool { return true }
