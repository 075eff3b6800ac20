package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/jcommit/cidutil"
	"xdao.co/jcommit/commit"
	"xdao.co/jcommit/docpath"
	"xdao.co/jcommit/document"
	"xdao.co/jcommit/record"
	"xdao.co/jcommit/storage"
	"xdao.co/jcommit/storage/memory"
	"xdao.co/jcommit/suite"
	_ "xdao.co/jcommit/suite/p256"
)

func newPipeline(t *testing.T, opts commit.Options, store *storage.RecordStore) *Pipeline {
	t.Helper()
	s, err := suite.Lookup("")
	require.NoError(t, err)
	opts.KeepTable = true
	c, err := commit.NewCommitter(s, opts)
	require.NoError(t, err)
	return &Pipeline{Committer: c, Store: store, Hash: cidutil.SHA2_256}
}

func TestCommitText_JSONAndYAMLAgree(t *testing.T) {
	p := newPipeline(t, commit.Options{}, nil)
	j, err := p.CommitText(t.Context(), []byte(`{"name":"ada","langs":["go","ml"],"age":36}`), FormatJSON)
	require.NoError(t, err)
	y, err := p.CommitText(t.Context(), []byte("name: ada\nlangs: [go, ml]\nage: 36\n"), FormatYAML)
	require.NoError(t, err)

	assert.True(t, j.Aggregate.Commitment.Equal(y.Aggregate.Commitment))
	assert.Equal(t, j.CID, y.CID)
	assert.False(t, j.Stored)
	require.NoError(t, j.Record.VerifyTable())
}

func TestCommitText_YAMLNumbersFailLikeJSON(t *testing.T) {
	p := newPipeline(t, commit.Options{}, nil)
	cases := []struct {
		json, yaml, rule string
	}{
		{`{"a":1.0000000000000000001}`, "a: 1.0000000000000000001\n", "JC-ENC-001"},
		{`{"a":0.5}`, "a: .5\n", "JC-ENC-001"},
	}
	for _, tc := range cases {
		for _, in := range []struct {
			text string
			f    Format
		}{{tc.json, FormatJSON}, {tc.yaml, FormatYAML}} {
			_, err := p.CommitText(t.Context(), []byte(in.text), in.f)
			var ce *commit.CommitError
			require.ErrorAs(t, err, &ce, "%s %q", in.f, in.text)
			require.Len(t, ce.Failures, 1)
			assert.Equal(t, "[obj:a]", ce.Failures[0].Path.String())
			assert.Equal(t, tc.rule, commit.RuleID(ce.Failures[0].Err))
		}
	}

	// Integral values too large for float64 keep every digit.
	j, err := p.CommitText(t.Context(), []byte(`{"a":12345678901234567891}`), FormatJSON)
	require.NoError(t, err)
	y, err := p.CommitText(t.Context(), []byte("a: 12345678901234567891.0\n"), FormatYAML)
	require.NoError(t, err)
	assert.True(t, j.Aggregate.Commitment.Equal(y.Aggregate.Commitment))
}

func TestCommitText_StoresRecord(t *testing.T) {
	cas := memory.New(cidutil.SHA3_256)
	p := newPipeline(t, commit.Options{}, &storage.RecordStore{CAS: cas})
	res, err := p.CommitText(t.Context(), []byte(`[1,{"key":["y","z"]},null]`), FormatJSON)
	require.NoError(t, err)
	assert.True(t, res.Stored)
	assert.Equal(t, 1, cas.Len())

	rec, b, err := p.Store.Get(t.Context(), res.CID)
	require.NoError(t, err)
	assert.Equal(t, res.RecordBytes, b)
	assert.Equal(t, 4, rec.LeafCount)
}

func TestCommitText_Errors(t *testing.T) {
	p := newPipeline(t, commit.Options{}, nil)

	_, err := p.CommitText(t.Context(), []byte(`{"a":`), FormatJSON)
	var pe *document.ParseError
	assert.True(t, errors.As(err, &pe))

	_, err = p.CommitText(t.Context(), []byte(`{"a":1.5}`), FormatJSON)
	var ce *commit.CommitError
	assert.True(t, errors.As(err, &ce))

	_, err = p.CommitText(t.Context(), []byte(`{}`), Format(9))
	assert.Error(t, err)
}

func TestOpen_VerifiesAgainstRecord(t *testing.T) {
	seed := []byte("pipeline-test-seed-0123456789")
	p := newPipeline(t, commit.Options{Blinding: commit.SeededBlinding{Seed: seed}}, nil)
	doc := []byte(`{"a":{"b":[10,20]}}`)

	res, err := p.CommitText(t.Context(), doc, FormatJSON)
	require.NoError(t, err)
	path, err := docpath.Parse("[obj:a,obj:b,arr:1]")
	require.NoError(t, err)
	o, err := p.Open(t.Context(), doc, FormatJSON, path)
	require.NoError(t, err)
	require.NoError(t, record.VerifyOpening(res.Record, o))
	assert.Equal(t, "20", o.Value.String())
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)
	_, err = ParseFormat("toml")
	assert.Error(t, err)

	assert.Equal(t, FormatYAML, FormatForPath("doc.yml"))
	assert.Equal(t, FormatJSON, FormatForPath("doc.json"))
}
