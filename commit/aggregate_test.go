package commit_test

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/jcommit/commit"
	"xdao.co/jcommit/docpath"
	"xdao.co/jcommit/suite"
	"xdao.co/jcommit/traverse"
)

func sumOfLeaves(t *testing.T, c *commit.Committer, entries []traverse.Entry) suite.Element {
	t.Helper()
	acc := c.Suite().Identity()
	for _, e := range entries {
		cm, err := c.Commit(e, nil)
		require.NoError(t, err)
		acc = acc.Add(cm)
	}
	return acc
}

func TestAggregate_SingleLeaf(t *testing.T) {
	for _, s := range allSuites(t) {
		t.Run(s.Name(), func(t *testing.T) {
			c := newCommitter(t, s, commit.Options{})
			entries := entriesOf(t, `{"a":1}`)
			require.Len(t, entries, 1)
			require.Equal(t, "[obj:a]", entries[0].Path.String())

			g, err := commit.DeriveGenerator(s, entries[0].Path)
			require.NoError(t, err)
			m, err := commit.DeriveMarker(s, entries[0].Path, entries[0].Value.Kind())
			require.NoError(t, err)
			one, err := s.ScalarFromBigInt(big.NewInt(1))
			require.NoError(t, err)

			a, err := c.Aggregate(t.Context(), entries)
			require.NoError(t, err)
			assert.True(t, g.Mul(one).Add(m).Equal(a.Commitment))
			assert.Equal(t, 1, a.LeafCount)
			assert.Nil(t, a.DocumentBlinding)
		})
	}
}

func TestAggregate_MixedArrayIsSumOfLeaves(t *testing.T) {
	for _, s := range allSuites(t) {
		t.Run(s.Name(), func(t *testing.T) {
			c := newCommitter(t, s, commit.Options{Workers: 3, Buffer: 1})
			entries := entriesOf(t, `[1,{"key":["y","z"]},null]`)
			require.Len(t, entries, 4)

			a, err := c.Aggregate(t.Context(), entries)
			require.NoError(t, err)
			assert.True(t, sumOfLeaves(t, c, entries).Equal(a.Commitment))
		})
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	doc := `{"user":{"name":"ada","tags":["x","y",3]},"n":-42,"ok":true,"none":null}`
	for _, s := range allSuites(t) {
		t.Run(s.Name(), func(t *testing.T) {
			a1 := aggregate(t, newCommitter(t, s, commit.Options{Workers: 1}), doc)
			a2 := aggregate(t, newCommitter(t, s, commit.Options{Workers: 8, Buffer: 1}), doc)
			assert.True(t, a1.Commitment.Equal(a2.Commitment))

			b1, err := a1.Commitment.MarshalBinary()
			require.NoError(t, err)
			b2, err := a2.Commitment.MarshalBinary()
			require.NoError(t, err)
			assert.True(t, bytes.Equal(b1, b2))
		})
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	doc := `{"a":[1,2,3,{"b":"c"}],"d":{"e":{"f":[null,false,"g"]}},"h":7}`
	rng := rand.New(rand.NewSource(7))
	for _, s := range allSuites(t) {
		t.Run(s.Name(), func(t *testing.T) {
			c := newCommitter(t, s, commit.Options{Workers: 4})
			entries := entriesOf(t, doc)
			want, err := c.Aggregate(t.Context(), entries)
			require.NoError(t, err)

			for i := 0; i < 5; i++ {
				shuffled := append([]traverse.Entry(nil), entries...)
				rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
				got, err := c.Aggregate(t.Context(), shuffled)
				require.NoError(t, err)
				assert.True(t, want.Commitment.Equal(got.Commitment), "permutation %d", i)
			}

			reordered := aggregate(t, c, `{"h":7,"d":{"e":{"f":[null,false,"g"]}},"a":[1,2,3,{"b":"c"}]}`)
			assert.True(t, want.Commitment.Equal(reordered.Commitment), "member order")
		})
	}
}

func TestAggregate_BindsValuesPathsAndKinds(t *testing.T) {
	cases := []struct {
		name string
		x, y string
	}{
		{"changed value", `{"a":1,"b":1}`, `{"a":1,"b":2}`},
		{"zero vs absent", `{"a":1,"b":0}`, `{"a":1}`},
		{"null vs absent", `{"a":null}`, `{}`},
		{"number vs string", `{"a":1}`, `{"a":"1"}`},
		{"false vs zero", `{"a":false}`, `{"a":0}`},
		{"null vs string", `{"a":null}`, `{"a":"null"}`},
		{"key vs index", `{"0":5}`, `[5]`},
		{"moved value", `{"a":{"b":1}}`, `{"a":{"c":1}}`},
		{"swapped values", `{"a":1,"b":2}`, `{"a":2,"b":1}`},
		{"negative", `{"a":1}`, `{"a":-1}`},
	}
	for _, s := range allSuites(t) {
		c := newCommitter(t, s, commit.Options{})
		for _, tc := range cases {
			t.Run(s.Name()+"/"+tc.name, func(t *testing.T) {
				x := aggregate(t, c, tc.x)
				y := aggregate(t, c, tc.y)
				assert.False(t, x.Commitment.Equal(y.Commitment))
			})
		}
	}
}

func TestAggregate_HomomorphicOverDisjointDocuments(t *testing.T) {
	for _, s := range allSuites(t) {
		t.Run(s.Name(), func(t *testing.T) {
			c := newCommitter(t, s, commit.Options{})
			left := aggregate(t, c, `{"a":1,"list":[true]}`)
			right := aggregate(t, c, `{"b":"x","c":{"d":null}}`)
			union := aggregate(t, c, `{"a":1,"list":[true],"b":"x","c":{"d":null}}`)
			assert.True(t, left.Commitment.Add(right.Commitment).Equal(union.Commitment))
		})
	}
}

func TestAggregate_EmptyDocumentIsIdentity(t *testing.T) {
	for _, s := range allSuites(t) {
		a := aggregate(t, newCommitter(t, s, commit.Options{}), `{}`)
		assert.True(t, a.Commitment.IsIdentity(), s.Name())
		assert.Equal(t, 0, a.LeafCount)
	}
}

func TestAggregate_EmptyDocumentIsBlindingBaseline(t *testing.T) {
	for _, s := range allSuites(t) {
		t.Run(s.Name(), func(t *testing.T) {
			c := newCommitter(t, s, commit.Options{Blinding: commit.SeededBlinding{Seed: testSeed}})
			a := aggregate(t, c, `{}`)
			require.NotNil(t, a.DocumentBlinding)
			assert.Equal(t, 0, a.LeafCount)
			assert.False(t, a.Commitment.IsIdentity())
			assert.True(t, c.Baseline(a.DocumentBlinding).Equal(a.Commitment))

			h, err := commit.BlindingBase(s)
			require.NoError(t, err)
			assert.True(t, h.Mul(a.DocumentBlinding).Equal(a.Commitment))
		})
	}
}

func TestAggregate_FailsClosedOnNonIntegralNumber(t *testing.T) {
	for _, s := range allSuites(t) {
		t.Run(s.Name(), func(t *testing.T) {
			c := newCommitter(t, s, commit.Options{})
			a, err := c.Aggregate(t.Context(), entriesOf(t, `{"a":1.5}`))
			require.Error(t, err)
			assert.Nil(t, a)

			var ce *commit.CommitError
			require.True(t, errors.As(err, &ce))
			require.Len(t, ce.Failures, 1)
			assert.Equal(t, "[obj:a]", ce.Failures[0].Path.String())
			assert.True(t, commit.IsKind(err, commit.KindCommit))
			assert.True(t, commit.IsKind(err, commit.KindEncoding))
			assert.Equal(t, "JC-ENC-001", commit.RuleID(ce.Failures[0].Err))
			assert.False(t, errors.Is(err, commit.ErrTimeout))
		})
	}
}

func TestAggregate_CollectsEveryFailureSortedByPath(t *testing.T) {
	s := allSuites(t)[0]
	c := newCommitter(t, s, commit.Options{Workers: 4})
	_, err := c.Aggregate(t.Context(), entriesOf(t, `{"z":0.5,"ok":1,"a":[2,1e-3],"m":1e5000}`))

	var ce *commit.CommitError
	require.True(t, errors.As(err, &ce))
	got := make([]string, 0, len(ce.Failures))
	for _, f := range ce.Failures {
		got = append(got, f.Path.String())
	}
	assert.Equal(t, []string{"[obj:m]", "[obj:z]", "[obj:a,arr:1]"}, got, "ordered by path encoding")
	assert.Equal(t, 0, ce.Skipped)
	assert.Len(t, ce.Paths(), 3)
	assert.Contains(t, err.Error(), "3 leaf failure(s)")
}

func TestAggregate_SuiteFailureFailsClosed(t *testing.T) {
	base := allSuites(t)[0]
	bad := docpath.New(docpath.ObjectStep("b"))
	s := failingSuite{Suite: base, fail: map[string]bool{string(bad.Encode()): true}}
	c := newCommitter(t, s, commit.Options{Workers: 2})

	_, err := c.Aggregate(t.Context(), entriesOf(t, `{"a":1,"b":2,"c":3}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errInjected))
	assert.True(t, commit.IsKind(err, commit.KindSuite))

	var ce *commit.CommitError
	require.True(t, errors.As(err, &ce))
	require.Len(t, ce.Failures, 1)
	assert.True(t, ce.Failures[0].Path.Equal(bad))
}

func TestAggregate_FailFastStopsEarly(t *testing.T) {
	base := allSuites(t)[0]
	s := slowSuite{Suite: base, delay: 2 * time.Millisecond}
	c := newCommitter(t, s, commit.Options{Workers: 1, FailFast: true})

	doc := `[0.5` + repeat(",1", 40) + `]`
	_, err := c.Aggregate(t.Context(), entriesOf(t, doc))

	var ce *commit.CommitError
	require.True(t, errors.As(err, &ce))
	require.Len(t, ce.Failures, 1)
	assert.Equal(t, "[arr:0]", ce.Failures[0].Path.String())
	assert.Positive(t, ce.Skipped)
}

func TestAggregate_TimeoutIsDistinct(t *testing.T) {
	base := allSuites(t)[0]
	s := slowSuite{Suite: base, delay: 20 * time.Millisecond}
	c := newCommitter(t, s, commit.Options{Workers: 1, Timeout: 5 * time.Millisecond})

	a, err := c.Aggregate(t.Context(), entriesOf(t, `[1,2,3,4,5,6,7,8]`))
	require.Error(t, err)
	assert.Nil(t, a)
	assert.True(t, errors.Is(err, commit.ErrTimeout))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, commit.IsKind(err, commit.KindTimeout))
	assert.False(t, commit.IsKind(err, commit.KindCommit))
}

func TestAggregate_ExpiredParentDeadline(t *testing.T) {
	c := newCommitter(t, allSuites(t)[0], commit.Options{})
	ctx, cancel := context.WithDeadline(t.Context(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := c.Aggregate(ctx, entriesOf(t, `{"a":1}`))
	assert.True(t, errors.Is(err, commit.ErrTimeout))
}

func TestAggregate_TimeoutDoesNotWaitForStragglers(t *testing.T) {
	base := allSuites(t)[0]
	s := slowSuite{Suite: base, delay: 300 * time.Millisecond}
	c := newCommitter(t, s, commit.Options{Workers: 4, Timeout: 10 * time.Millisecond})
	entries := entriesOf(t, `[1,2,3,4]`)

	start := time.Now()
	_, err := c.Aggregate(t.Context(), entries)
	elapsed := time.Since(start)
	require.Error(t, err)
	assert.Equal(t, "JC-TIME-001", commit.RuleID(err))
	assert.Less(t, elapsed, 150*time.Millisecond)
}

func TestAggregate_FailFastDoesNotWaitForStragglers(t *testing.T) {
	base := allSuites(t)[0]
	s := slowSuite{Suite: base, delay: 300 * time.Millisecond}
	c := newCommitter(t, s, commit.Options{Workers: 4, FailFast: true})
	entries := entriesOf(t, `[0.5,1,2,3]`)

	start := time.Now()
	_, err := c.Aggregate(t.Context(), entries)
	elapsed := time.Since(start)
	var ce *commit.CommitError
	require.ErrorAs(t, err, &ce)
	require.Len(t, ce.Failures, 1)
	assert.Equal(t, "[arr:0]", ce.Failures[0].Path.String())
	assert.Less(t, elapsed, 150*time.Millisecond)
}

func TestAggregate_ParentCancellation(t *testing.T) {
	c := newCommitter(t, allSuites(t)[0], commit.Options{})
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := c.Aggregate(ctx, entriesOf(t, `{"a":1}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, commit.ErrTimeout))
}

func TestAggregate_TableLookup(t *testing.T) {
	for _, s := range allSuites(t) {
		t.Run(s.Name(), func(t *testing.T) {
			c := newCommitter(t, s, commit.Options{KeepTable: true})
			entries := entriesOf(t, `{"b":[1,"two"],"a":null}`)
			a, err := c.Aggregate(t.Context(), entries)
			require.NoError(t, err)
			require.Len(t, a.Leaves, 3)

			for i := 1; i < len(a.Leaves); i++ {
				assert.Negative(t, docpath.Compare(a.Leaves[i-1].Path, a.Leaves[i].Path))
			}
			for _, e := range entries {
				lc, ok := a.Lookup(e.Path)
				require.True(t, ok, e.Path.String())
				want, err := c.Commit(e, nil)
				require.NoError(t, err)
				assert.True(t, want.Equal(lc.Commitment))
				assert.Equal(t, e.Value.Kind(), lc.Kind)
			}
			_, ok := a.Lookup(docpath.New(docpath.ObjectStep("missing")))
			assert.False(t, ok)
			require.NoError(t, c.VerifyTable(a))
		})
	}
}

func TestNewCommitter_Validation(t *testing.T) {
	_, err := commit.NewCommitter(nil, commit.Options{})
	assert.True(t, commit.IsKind(err, commit.KindSuite))

	_, err = commit.NewCommitter(allSuites(t)[0], commit.Options{Workers: -1})
	assert.Error(t, err)

	c := newCommitter(t, allSuites(t)[0], commit.Options{})
	opts := c.Options()
	assert.Positive(t, opts.Workers)
	assert.Equal(t, commit.DefaultBuffer, opts.Buffer)
	assert.IsType(t, commit.NoBlinding{}, opts.Blinding)
}

func repeat(s string, n int) string {
	return string(bytes.Repeat([]byte(s), n))
}
