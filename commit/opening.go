package commit

import (
	"xdao.co/jcommit/docpath"
	"xdao.co/jcommit/document"
	"xdao.co/jcommit/suite"
	"xdao.co/jcommit/traverse"
)

// Opening reveals the value committed at one path.
type Opening struct {
	Path  docpath.Path
	Value document.Value
	// Blinding is the leaf's blinding scalar, nil for unblinded leaves.
	Blinding suite.Scalar
}

// Open returns the opening for the entry at p using the committer's blinding
// source. The source must be reproducible.
func (c *Committer) Open(entries []traverse.Entry, p docpath.Path) (Opening, error) {
	if !c.opts.Blinding.Reproducible() {
		return Opening{}, newError(KindOpening, "JC-OPEN-003", "blinding source is not reproducible")
	}
	for _, e := range entries {
		if !e.Path.Equal(p) {
			continue
		}
		r, err := c.opts.Blinding.Leaf(c.suite, p)
		if err != nil {
			return Opening{}, blindingError("leaf blinding", err)
		}
		return Opening{Path: p, Value: e.Value, Blinding: r}, nil
	}
	return Opening{}, newError(KindOpening, "JC-OPEN-004", "no leaf at "+p.String())
}

// OpenLeaf builds an opening from a table row and the leaf's value.
func OpenLeaf(lc LeafCommitment, v document.Value) Opening {
	return Opening{Path: lc.Path, Value: v, Blinding: lc.Blinding}
}

// VerifyOpening checks that o recomputes to the per-leaf commitment want.
func (c *Committer) VerifyOpening(o Opening, want suite.Element) error {
	got, err := c.Commit(traverse.Entry{Path: o.Path, Value: o.Value}, o.Blinding)
	if err != nil {
		return err
	}
	if !got.Equal(want) {
		return newError(KindOpening, "JC-OPEN-001", "opening does not match commitment at "+o.Path.String())
	}
	return nil
}

// VerifyTable checks that baseline + Σ leaves equals the aggregate
// commitment and that every leaf is listed exactly once.
func (c *Committer) VerifyTable(a *Aggregate) error {
	if a == nil || a.Commitment == nil {
		return newError(KindOpening, "JC-OPEN-002", "aggregate is empty")
	}
	if a.Suite != nil && a.Suite.Name() != c.suite.Name() {
		return newError(KindSuite, "JC-SUITE-003", "aggregate suite "+a.Suite.Name()+" does not match "+c.suite.Name())
	}
	if len(a.Leaves) != a.LeafCount {
		return newError(KindOpening, "JC-OPEN-002", "table does not list every leaf")
	}
	acc := c.Baseline(a.DocumentBlinding)
	for i, lc := range a.Leaves {
		if i > 0 && docpath.Compare(a.Leaves[i-1].Path, lc.Path) >= 0 {
			return newError(KindOpening, "JC-OPEN-002", "table paths are not sorted and unique")
		}
		acc = acc.Add(lc.Commitment)
	}
	if !acc.Equal(a.Commitment) {
		return newError(KindOpening, "JC-OPEN-002", "table does not sum to the aggregate commitment")
	}
	return nil
}
