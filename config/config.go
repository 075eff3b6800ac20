// Package config loads commitment settings for the jcommit binaries.
//
// Files are JSON, or YAML when the extension is .yaml or .yml. Unknown keys
// are rejected. Example:
//
//	suite: p256-sha256
//	workers: 8
//	timeout: 5s
//	fail_fast: true
//	blinding:
//	  mode: seeded
//	  seed_hex: 000102030405060708090a0b0c0d0e0f
//	store:
//	  hash: sha2-256
//	  backends:
//	    - name: memory
//	    - name: localfs
//	      dir: /var/lib/jcommit
package config

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"xdao.co/jcommit/cidutil"
	"xdao.co/jcommit/commit"
	"xdao.co/jcommit/storage"
	"xdao.co/jcommit/storage/localfs"
	"xdao.co/jcommit/storage/memory"
	"xdao.co/jcommit/suite"
)

// Blinding modes.
const (
	BlindingNone   = "none"
	BlindingRandom = "random"
	BlindingSeeded = "seeded"
)

// Store backend names.
const (
	BackendMemory  = "memory"
	BackendLocalFS = "localfs"
)

type Config struct {
	Suite     string         `json:"suite,omitempty" yaml:"suite,omitempty"`
	Workers   int            `json:"workers,omitempty" yaml:"workers,omitempty"`
	Buffer    int            `json:"buffer,omitempty" yaml:"buffer,omitempty"`
	Timeout   Duration       `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	FailFast  bool           `json:"fail_fast,omitempty" yaml:"fail_fast,omitempty"`
	KeepTable bool           `json:"keep_table,omitempty" yaml:"keep_table,omitempty"`
	Blinding  BlindingConfig `json:"blinding" yaml:"blinding"`
	Store     StoreConfig    `json:"store" yaml:"store"`
	Log       LogConfig      `json:"log" yaml:"log"`
	Server    ServerConfig   `json:"server" yaml:"server"`
}

type BlindingConfig struct {
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`
	// SeedHex is the hex-encoded seed for mode "seeded".
	SeedHex string `json:"seed_hex,omitempty" yaml:"seed_hex,omitempty"`
}

type StoreConfig struct {
	// Hash is the record CID hash: "sha2-256" (default) or "sha3-256".
	Hash string `json:"hash,omitempty" yaml:"hash,omitempty"`
	// Backends are written in full and read in order. Empty disables storage.
	Backends []BackendConfig `json:"backends,omitempty" yaml:"backends,omitempty"`
}

type BackendConfig struct {
	Name string `json:"name" yaml:"name"`
	Dir  string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

type ServerConfig struct {
	Listen        string `json:"listen,omitempty" yaml:"listen,omitempty"`
	MetricsListen string `json:"metrics_listen,omitempty" yaml:"metrics_listen,omitempty"`
	MaxDocBytes   int    `json:"max_doc_bytes,omitempty" yaml:"max_doc_bytes,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Suite:    suite.DefaultName,
		Timeout:  Duration(30 * time.Second),
		Blinding: BlindingConfig{Mode: BlindingNone},
		Store:    StoreConfig{Hash: "sha2-256"},
		Log:      LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{
			Listen:        "127.0.0.1:7443",
			MetricsListen: "127.0.0.1:9464",
			MaxDocBytes:   16 << 20,
		},
	}
}

// LoadFile reads path over Default and validates the result.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, errors.New("config: empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("config: %s: %w", path, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if _, err := suite.Lookup(c.Suite); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: workers must be >= 0")
	}
	if c.Buffer < 0 {
		return fmt.Errorf("config: buffer must be >= 0")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("config: timeout must be >= 0")
	}
	if _, err := c.blinding(); err != nil {
		return err
	}
	if _, err := cidutil.ParseHash(c.Store.Hash); err != nil {
		return fmt.Errorf("config: store: %w", err)
	}
	for i, b := range c.Store.Backends {
		switch b.Name {
		case BackendMemory:
		case BackendLocalFS:
			if b.Dir == "" {
				return fmt.Errorf("config: store backend %d: localfs requires dir", i)
			}
		default:
			return fmt.Errorf("config: store backend %d: unknown backend %q", i, b.Name)
		}
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	if c.Server.MaxDocBytes < 0 {
		return fmt.Errorf("config: max_doc_bytes must be >= 0")
	}
	return nil
}

// LookupSuite returns the configured suite. It must be linked into the binary.
func (c Config) LookupSuite() (suite.Suite, error) {
	return suite.Lookup(c.Suite)
}

// Options returns the commit options described by c.
func (c Config) Options(logger *slog.Logger) (commit.Options, error) {
	src, err := c.blinding()
	if err != nil {
		return commit.Options{}, err
	}
	return commit.Options{
		Workers:   c.Workers,
		Buffer:    c.Buffer,
		Timeout:   time.Duration(c.Timeout),
		FailFast:  c.FailFast,
		KeepTable: c.KeepTable,
		Blinding:  src,
		Logger:    logger,
	}, nil
}

// Committer builds a committer for the configured suite and options.
func (c Config) Committer(logger *slog.Logger) (*commit.Committer, error) {
	s, err := c.LookupSuite()
	if err != nil {
		return nil, err
	}
	opts, err := c.Options(logger)
	if err != nil {
		return nil, err
	}
	return commit.NewCommitter(s, opts)
}

func (c Config) blinding() (commit.BlindingSource, error) {
	switch c.Blinding.Mode {
	case "", BlindingNone:
		if c.Blinding.SeedHex != "" {
			return nil, fmt.Errorf("config: seed_hex requires blinding mode %q", BlindingSeeded)
		}
		return commit.NoBlinding{}, nil
	case BlindingRandom:
		return &commit.RandomBlinding{}, nil
	case BlindingSeeded:
		seed, err := hex.DecodeString(c.Blinding.SeedHex)
		if err != nil {
			return nil, fmt.Errorf("config: seed_hex: %w", err)
		}
		if len(seed) < commit.MinSeedLen {
			return nil, fmt.Errorf("config: seed_hex must decode to at least %d bytes", commit.MinSeedLen)
		}
		return commit.SeededBlinding{Seed: seed}, nil
	default:
		return nil, fmt.Errorf("config: unknown blinding mode %q", c.Blinding.Mode)
	}
}

// OpenStore opens the configured record store. It returns ok=false when no
// backends are configured.
func (c Config) OpenStore() (store storage.RecordStore, ok bool, err error) {
	if len(c.Store.Backends) == 0 {
		return storage.RecordStore{}, false, nil
	}
	h, err := cidutil.ParseHash(c.Store.Hash)
	if err != nil {
		return storage.RecordStore{}, false, err
	}
	named := make([]storage.Named, 0, len(c.Store.Backends))
	for _, b := range c.Store.Backends {
		var cas storage.CAS
		switch b.Name {
		case BackendMemory:
			cas = memory.New(h)
		case BackendLocalFS:
			fs, err := localfs.New(b.Dir, h)
			if err != nil {
				return storage.RecordStore{}, false, err
			}
			cas = fs
		default:
			return storage.RecordStore{}, false, fmt.Errorf("config: unknown backend %q", b.Name)
		}
		named = append(named, storage.Named{Name: b.Name, CAS: cas})
	}
	if len(named) == 1 {
		return storage.RecordStore{CAS: named[0].CAS}, true, nil
	}
	return storage.RecordStore{CAS: storage.Replicated{Backends: named}}, true, nil
}

// NewLogger returns a slog logger writing to w at the configured level.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("config: log level: %w", err)
	}
	return l, nil
}
