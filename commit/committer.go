package commit

import (
	"fmt"

	"xdao.co/jcommit/suite"
	"xdao.co/jcommit/traverse"
)

// Committer computes per-leaf and aggregate commitments under one suite.
// It is safe for concurrent use.
type Committer struct {
	suite suite.Suite
	opts  Options
	h     suite.Element
}

// NewCommitter returns a Committer for s.
func NewCommitter(s suite.Suite, opts Options) (*Committer, error) {
	if s == nil {
		return nil, newError(KindSuite, "JC-SUITE-002", "suite is required")
	}
	if opts.Workers < 0 || opts.Buffer < 0 || opts.Timeout < 0 {
		return nil, newError(KindInternal, "JC-INT-002", fmt.Sprintf("invalid options: workers=%d buffer=%d timeout=%s", opts.Workers, opts.Buffer, opts.Timeout))
	}
	h, err := BlindingBase(s)
	if err != nil {
		return nil, err
	}
	return &Committer{suite: s, opts: opts.withDefaults(), h: h}, nil
}

func (c *Committer) Suite() suite.Suite { return c.suite }

// Options returns the effective options, defaults applied.
func (c *Committer) Options() Options { return c.opts }

// Commit returns v·G(path) + M(path, kind), plus r·H when r is non-nil.
func (c *Committer) Commit(e traverse.Entry, r suite.Scalar) (suite.Element, error) {
	v, err := EncodeValue(c.suite, e.Value)
	if err != nil {
		return nil, err
	}
	g, err := DeriveGenerator(c.suite, e.Path)
	if err != nil {
		return nil, err
	}
	m, err := DeriveMarker(c.suite, e.Path, e.Value.Kind())
	if err != nil {
		return nil, err
	}
	out := g.Mul(v).Add(m)
	if r != nil {
		out = out.Add(c.h.Mul(r))
	}
	return out, nil
}

// Baseline returns the starting point of the fold: the identity, or r0·H.
func (c *Committer) Baseline(r0 suite.Scalar) suite.Element {
	if r0 == nil {
		return c.suite.Identity()
	}
	return c.h.Mul(r0)
}
