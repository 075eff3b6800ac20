package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/jcommit/commit"
	"xdao.co/jcommit/storage"
	_ "xdao.co/jcommit/suite/p256"
	_ "xdao.co/jcommit/suite/ristretto255"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	opts, err := cfg.Options(nil)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, opts.Timeout)
	assert.IsType(t, commit.NoBlinding{}, opts.Blinding)

	_, ok, err := cfg.OpenStore()
	require.NoError(t, err)
	assert.False(t, ok, "no backends by default")
}

func TestLoadFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, "jcommit.yaml", `
suite: ristretto255-sha512
workers: 3
timeout: 250ms
fail_fast: true
keep_table: true
blinding:
  mode: seeded
  seed_hex: 000102030405060708090a0b0c0d0e0f
store:
  hash: sha3-256
  backends:
    - name: memory
    - name: localfs
      dir: `+dir+`
log:
  level: debug
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ristretto255-sha512", cfg.Suite)
	assert.Equal(t, Duration(250*time.Millisecond), cfg.Timeout)
	assert.Equal(t, "127.0.0.1:7443", cfg.Server.Listen, "defaults survive")

	c, err := cfg.Committer(nil)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Options().Workers)
	assert.True(t, c.Options().FailFast)
	assert.IsType(t, commit.SeededBlinding{}, c.Options().Blinding)

	rs, ok, err := cfg.OpenStore()
	require.NoError(t, err)
	require.True(t, ok)
	assert.IsType(t, storage.Replicated{}, rs.CAS)
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeFile(t, "jcommit.json", `{"suite":"p256-sha256","timeout":"2s","blinding":{"mode":"random"}}`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	opts, err := cfg.Options(nil)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, opts.Timeout)
	assert.IsType(t, &commit.RandomBlinding{}, opts.Blinding)
}

func TestLoadFile_Rejects(t *testing.T) {
	cases := []struct {
		name, file, content string
	}{
		{"unknown json key", "a.json", `{"suiet":"p256-sha256"}`},
		{"unknown yaml key", "a.yaml", "suiet: p256-sha256\n"},
		{"unlinked suite", "a.json", `{"suite":"bn254-g1"}`},
		{"negative workers", "a.json", `{"workers":-1}`},
		{"bad duration", "a.yaml", "timeout: 5\n"},
		{"short seed", "a.json", `{"blinding":{"mode":"seeded","seed_hex":"0011"}}`},
		{"seed without mode", "a.json", `{"blinding":{"seed_hex":"000102030405060708090a0b0c0d0e0f"}}`},
		{"unknown blinding", "a.json", `{"blinding":{"mode":"pedersen"}}`},
		{"localfs without dir", "a.json", `{"store":{"backends":[{"name":"localfs"}]}}`},
		{"unknown backend", "a.json", `{"store":{"backends":[{"name":"ipfs"}]}}`},
		{"unknown hash", "a.json", `{"store":{"hash":"md5"}}`},
		{"bad log level", "a.json", `{"log":{"level":"loud"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, tc.file, tc.content))
			assert.Error(t, err)
		})
	}
	_, err := LoadFile("")
	assert.Error(t, err)
}

func TestNewLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Log.Format = "json"
	cfg.NewLogger(&buf).Info("hello", "k", "v")
	assert.True(t, strings.HasPrefix(buf.String(), "{"), buf.String())

	buf.Reset()
	cfg.Log.Level = "warn"
	cfg.NewLogger(&buf).Info("dropped")
	assert.Empty(t, buf.String())
}

func TestDuration_JSON(t *testing.T) {
	b, err := Duration(1500 * time.Millisecond).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"1.5s"`, string(b))

	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`"1m"`)))
	assert.Equal(t, Duration(time.Minute), d)
	assert.Error(t, d.UnmarshalJSON([]byte(`60`)))
}
