package commit_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"xdao.co/jcommit/commit"
	"xdao.co/jcommit/document"
	"xdao.co/jcommit/suite"
	"xdao.co/jcommit/suite/bn254"
	"xdao.co/jcommit/suite/p256"
	"xdao.co/jcommit/suite/ristretto255"
	"xdao.co/jcommit/traverse"
)

func allSuites(t *testing.T) []suite.Suite {
	t.Helper()
	out := make([]suite.Suite, 0, 3)
	for _, name := range []string{p256.Name, ristretto255.Name, bn254.Name} {
		s, err := suite.Lookup(name)
		require.NoError(t, err)
		out = append(out, s)
	}
	return out
}

func entriesOf(t *testing.T, text string) []traverse.Entry {
	t.Helper()
	n, err := document.Parse([]byte(text))
	require.NoError(t, err)
	return traverse.Traverse(n)
}

func newCommitter(t *testing.T, s suite.Suite, opts commit.Options) *commit.Committer {
	t.Helper()
	c, err := commit.NewCommitter(s, opts)
	require.NoError(t, err)
	return c
}

func aggregate(t *testing.T, c *commit.Committer, text string) *commit.Aggregate {
	t.Helper()
	a, err := c.Aggregate(t.Context(), entriesOf(t, text))
	require.NoError(t, err)
	return a
}

// slowSuite delays every hash-to-element call.
type slowSuite struct {
	suite.Suite
	delay time.Duration
}

func (s slowSuite) HashToElement(msg, dst []byte) (suite.Element, error) {
	time.Sleep(s.delay)
	return s.Suite.HashToElement(msg, dst)
}

var errInjected = errors.New("injected hash failure")

// failingSuite fails hash-to-element for the listed messages.
type failingSuite struct {
	suite.Suite
	fail map[string]bool
}

func (s failingSuite) HashToElement(msg, dst []byte) (suite.Element, error) {
	if s.fail[string(msg)] {
		return nil, errInjected
	}
	return s.Suite.HashToElement(msg, dst)
}
