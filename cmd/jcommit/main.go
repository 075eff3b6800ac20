package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/jcommit/cidutil"
	"xdao.co/jcommit/commit"
	"xdao.co/jcommit/config"
	"xdao.co/jcommit/docpath"
	"xdao.co/jcommit/pipeline"
	"xdao.co/jcommit/record"
	"xdao.co/jcommit/storage"
	"xdao.co/jcommit/storage/bundle"
	"xdao.co/jcommit/storage/localfs"
	"xdao.co/jcommit/suite"
	"xdao.co/jcommit/traverse"

	_ "xdao.co/jcommit/suite/bn254"
	_ "xdao.co/jcommit/suite/p256"
	_ "xdao.co/jcommit/suite/ristretto255"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "commit":
		return cmdCommit(args[1:], in, out, errOut)
	case "entries":
		return cmdEntries(args[1:], in, out, errOut)
	case "open":
		return cmdOpen(args[1:], in, out, errOut)
	case "verify":
		return cmdVerify(args[1:], out, errOut)
	case "suites":
		return cmdSuites(out)
	case "record-cid":
		return cmdRecordCID(args[1:], out, errOut)
	case "bundle-export":
		return cmdBundleExport(args[1:], out, errOut)
	case "bundle-import":
		return cmdBundleImport(args[1:], in, out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "jcommit: structured vector commitments over JSON/YAML documents")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  jcommit commit [common flags] [--public] [--store-dir <dir>] <file|->")
	fmt.Fprintln(w, "  jcommit entries [--format json|yaml] <file|->")
	fmt.Fprintln(w, "  jcommit open [common flags] --path <[obj:k,arr:0]> <file|->")
	fmt.Fprintln(w, "  jcommit verify --record <record.json> [--opening <opening.json>] [--skip-table]")
	fmt.Fprintln(w, "  jcommit record-cid [--hash sha2-256|sha3-256] <record.json>")
	fmt.Fprintln(w, "  jcommit bundle-export --store-dir <dir> [--out <file>] [--label name=cid] <cid>...")
	fmt.Fprintln(w, "  jcommit bundle-import --store-dir <dir> [--ignore-unknown] <file|->")
	fmt.Fprintln(w, "  jcommit suites")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Common flags:")
	fmt.Fprintln(w, "  --config <file.json|file.yaml> --suite <name> --workers <n> --timeout <dur>")
	fmt.Fprintln(w, "  --fail-fast --format json|yaml --blinding none|random|seeded --seed-hex <hex>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - commit writes the record JSON to stdout (no trailing newline) and its CID to stderr")
	fmt.Fprintln(w, "  - open needs a reproducible blinding mode (none or seeded)")
	fmt.Fprintln(w, "  - --format defaults to the file extension, json for stdin")
}

// commonFlags are shared by the commands that commit documents.
type commonFlags struct {
	configPath string
	suite      string
	workers    int
	timeout    time.Duration
	failFast   bool
	format     string
	blinding   string
	seedHex    string
	logLevel   string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "Config file (JSON or YAML)")
	fs.StringVar(&c.suite, "suite", "", "Commitment suite (see 'jcommit suites')")
	fs.IntVar(&c.workers, "workers", 0, "Worker pool size (0 = config or GOMAXPROCS)")
	fs.DurationVar(&c.timeout, "timeout", 0, "Aggregation deadline (0 = config)")
	fs.BoolVar(&c.failFast, "fail-fast", false, "Stop at the first leaf failure")
	fs.StringVar(&c.format, "format", "", "Document format: json or yaml")
	fs.StringVar(&c.blinding, "blinding", "", "Blinding mode: none, random or seeded")
	fs.StringVar(&c.seedHex, "seed-hex", "", "Hex seed for --blinding seeded")
	fs.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// config loads the config file, if any, and applies flag overrides.
func (c *commonFlags) config() (config.Config, error) {
	cfg := config.Default()
	if c.configPath != "" {
		var err error
		if cfg, err = config.LoadFile(c.configPath); err != nil {
			return cfg, err
		}
	}
	if c.suite != "" {
		cfg.Suite = c.suite
	}
	if c.workers > 0 {
		cfg.Workers = c.workers
	}
	if c.timeout > 0 {
		cfg.Timeout = config.Duration(c.timeout)
	}
	if c.failFast {
		cfg.FailFast = true
	}
	if c.blinding != "" {
		cfg.Blinding.Mode = c.blinding
	}
	if c.seedHex != "" {
		cfg.Blinding.SeedHex = c.seedHex
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	cfg.KeepTable = true
	return cfg, cfg.Validate()
}

func (c *commonFlags) pipeline(cfg config.Config, errOut io.Writer) (*pipeline.Pipeline, error) {
	logger := cfg.NewLogger(errOut)
	committer, err := cfg.Committer(logger)
	if err != nil {
		return nil, err
	}
	h, err := cidutil.ParseHash(cfg.Store.Hash)
	if err != nil {
		return nil, err
	}
	p := &pipeline.Pipeline{Committer: committer, Hash: h, Logger: logger}
	store, ok, err := cfg.OpenStore()
	if err != nil {
		return nil, err
	}
	if ok {
		p.Store = &store
	}
	return p, nil
}

func (c *commonFlags) formatFor(path string) (pipeline.Format, error) {
	if c.format != "" {
		return pipeline.ParseFormat(c.format)
	}
	if path == "-" {
		return pipeline.FormatJSON, nil
	}
	return pipeline.FormatForPath(path), nil
}

func readInput(path string, in io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(in)
	}
	return os.ReadFile(path)
}

func cmdCommit(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("commit", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var cf commonFlags
	cf.register(fs)
	var public bool
	var storeDir string
	fs.BoolVar(&public, "public", false, "Omit the document blinding scalar from the record")
	fs.StringVar(&storeDir, "store-dir", "", "Also store the record in a localfs CAS at this directory")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: jcommit commit [flags] <file|->")
		return 2
	}
	cfg, err := cf.config()
	if err != nil {
		fmt.Fprintf(errOut, "config: %v\n", err)
		return 2
	}
	if storeDir != "" {
		cfg.Store.Backends = append(cfg.Store.Backends, config.BackendConfig{Name: config.BackendLocalFS, Dir: storeDir})
	}
	format, err := cf.formatFor(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	p, err := cf.pipeline(cfg, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "setup: %v\n", err)
		return 1
	}
	if public && p.Store != nil {
		fmt.Fprintln(errOut, "--public cannot be combined with a record store")
		return 2
	}
	text, err := readInput(fs.Arg(0), in)
	if err != nil {
		fmt.Fprintf(errOut, "read document: %v\n", err)
		return 1
	}

	res, err := p.CommitText(context.Background(), text, format)
	if err != nil {
		printCommitError(errOut, err)
		return 1
	}
	b, id := res.RecordBytes, res.CID
	if public {
		if b, err = record.Marshal(res.Record.Public()); err != nil {
			fmt.Fprintf(errOut, "marshal record: %v\n", err)
			return 1
		}
		if id, err = record.CID(b, p.Hash); err != nil {
			fmt.Fprintf(errOut, "record cid: %v\n", err)
			return 1
		}
	}
	_, _ = out.Write(b)
	fmt.Fprintln(errOut, id)
	return 0
}

func printCommitError(w io.Writer, err error) {
	var ce *commit.CommitError
	switch {
	case errors.As(err, &ce):
		fmt.Fprintf(w, "commit failed: %d leaf failure(s)\n", len(ce.Failures))
		for _, f := range ce.Failures {
			fmt.Fprintf(w, "  %s: %v\n", f.Path, f.Err)
		}
	case errors.Is(err, commit.ErrTimeout):
		fmt.Fprintf(w, "commit timed out: %v\n", err)
	default:
		fmt.Fprintf(w, "commit failed: %v\n", err)
	}
}

func cmdEntries(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("entries", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var cf commonFlags
	fs.StringVar(&cf.format, "format", "", "Document format: json or yaml")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: jcommit entries [--format json|yaml] <file|->")
		return 2
	}
	format, err := cf.formatFor(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	text, err := readInput(fs.Arg(0), in)
	if err != nil {
		fmt.Fprintf(errOut, "read document: %v\n", err)
		return 1
	}
	n, err := (&pipeline.Pipeline{}).Parse(context.Background(), text, format)
	if err != nil {
		fmt.Fprintf(errOut, "parse: %v\n", err)
		return 1
	}
	err = traverse.Walk(n, func(e traverse.Entry) error {
		_, err := fmt.Fprintf(out, "%s\t%s\n", e.Path, e.Value)
		return err
	})
	if err != nil {
		fmt.Fprintf(errOut, "write: %v\n", err)
		return 1
	}
	return 0
}

func cmdOpen(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("open", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var cf commonFlags
	cf.register(fs)
	var pathStr string
	fs.StringVar(&pathStr, "path", "", "Leaf path, e.g. [obj:user,obj:name]")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 || pathStr == "" {
		fmt.Fprintln(errOut, "usage: jcommit open [flags] --path <path> <file|->")
		return 2
	}
	path, err := docpath.Parse(pathStr)
	if err != nil {
		fmt.Fprintf(errOut, "--path: %v\n", err)
		return 2
	}
	cfg, err := cf.config()
	if err != nil {
		fmt.Fprintf(errOut, "config: %v\n", err)
		return 2
	}
	format, err := cf.formatFor(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	p, err := cf.pipeline(cfg, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "setup: %v\n", err)
		return 1
	}
	text, err := readInput(fs.Arg(0), in)
	if err != nil {
		fmt.Fprintf(errOut, "read document: %v\n", err)
		return 1
	}
	o, err := p.Open(context.Background(), text, format, path)
	if err != nil {
		fmt.Fprintf(errOut, "open: %v\n", err)
		return 1
	}
	b, err := record.MarshalOpening(o)
	if err != nil {
		fmt.Fprintf(errOut, "marshal opening: %v\n", err)
		return 1
	}
	_, _ = out.Write(b)
	return 0
}

func cmdVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var recordPath, openingPath string
	fs.StringVar(&recordPath, "record", "", "Record file")
	fs.StringVar(&openingPath, "opening", "", "Opening file (optional)")
	var skipTable bool
	fs.BoolVar(&skipTable, "skip-table", false, "Do not check that the leaf table sums to the aggregate")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if recordPath == "" || fs.NArg() != 0 {
		fmt.Fprintln(errOut, "usage: jcommit verify --record <record.json> [--opening <opening.json>]")
		return 2
	}
	rb, err := os.ReadFile(recordPath)
	if err != nil {
		fmt.Fprintf(errOut, "read --record: %v\n", err)
		return 1
	}
	rec, err := record.Unmarshal(rb)
	if err != nil {
		fmt.Fprintf(errOut, "invalid record: %v\n", err)
		return 1
	}
	if !skipTable && len(rec.Leaves) > 0 {
		if err := rec.VerifyTable(); err != nil {
			fmt.Fprintf(errOut, "table: %v\n", err)
			if rec.DocumentBlinding == "" {
				fmt.Fprintln(errOut, "hint: public records of blinded commitments need --skip-table")
			}
			return 1
		}
	}
	if openingPath != "" {
		ob, err := os.ReadFile(openingPath)
		if err != nil {
			fmt.Fprintf(errOut, "read --opening: %v\n", err)
			return 1
		}
		o, err := record.UnmarshalOpening(ob)
		if err != nil {
			fmt.Fprintf(errOut, "invalid opening: %v\n", err)
			return 1
		}
		if err := record.VerifyOpening(rec, o); err != nil {
			fmt.Fprintf(errOut, "opening: %v\n", err)
			return 1
		}
	}
	_, _ = fmt.Fprintln(out, "OK")
	return 0
}

func cmdSuites(out io.Writer) int {
	for _, name := range suite.Names() {
		if name == suite.DefaultName {
			_, _ = fmt.Fprintf(out, "%s\t(default)\n", name)
			continue
		}
		_, _ = fmt.Fprintln(out, name)
	}
	return 0
}

func cmdRecordCID(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("record-cid", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var hashName string
	fs.StringVar(&hashName, "hash", "sha2-256", "CID hash: sha2-256 or sha3-256")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: jcommit record-cid [--hash sha2-256|sha3-256] <record.json>")
		return 2
	}
	h, err := cidutil.ParseHash(hashName)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	b, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read record: %v\n", err)
		return 1
	}
	if _, err := record.Unmarshal(b); err != nil {
		fmt.Fprintf(errOut, "invalid record: %v\n", err)
		return 1
	}
	id, err := record.CID(b, h)
	if err != nil {
		fmt.Fprintf(errOut, "cid: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, id)
	return 0
}

// labelFlags collects repeated --label name=cid values.
type labelFlags map[string]cid.Cid

func (l labelFlags) String() string { return fmt.Sprint(len(l)) }

func (l labelFlags) Set(v string) error {
	name, idStr, ok := strings.Cut(v, "=")
	if !ok || name == "" {
		return fmt.Errorf("label %q: want name=cid", v)
	}
	id, err := cid.Decode(idStr)
	if err != nil {
		return fmt.Errorf("label %q: %w", v, err)
	}
	l[name] = id
	return nil
}

func openLocalStore(dir, hashName string) (storage.RecordStore, error) {
	h, err := cidutil.ParseHash(hashName)
	if err != nil {
		return storage.RecordStore{}, err
	}
	cas, err := localfs.New(dir, h)
	if err != nil {
		return storage.RecordStore{}, err
	}
	return storage.RecordStore{CAS: cas}, nil
}

func cmdBundleExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("bundle-export", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var storeDir, outPath, hashName string
	labels := labelFlags{}
	fs.StringVar(&storeDir, "store-dir", "", "localfs record store")
	fs.StringVar(&hashName, "hash", "sha2-256", "Store CID hash: sha2-256 or sha3-256")
	fs.StringVar(&outPath, "out", "-", "Output file (- for stdout)")
	fs.Var(labels, "label", "Index label name=cid (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if storeDir == "" || fs.NArg() == 0 {
		fmt.Fprintln(errOut, "usage: jcommit bundle-export --store-dir <dir> [--out <file>] <cid>...")
		return 2
	}
	ids := make([]cid.Cid, 0, fs.NArg())
	for _, a := range fs.Args() {
		id, err := cid.Decode(a)
		if err != nil {
			fmt.Fprintf(errOut, "invalid cid %q: %v\n", a, err)
			return 2
		}
		ids = append(ids, id)
	}
	rs, err := openLocalStore(storeDir, hashName)
	if err != nil {
		fmt.Fprintf(errOut, "open store: %v\n", err)
		return 1
	}

	var buf bytes.Buffer
	if err := bundle.Export(context.Background(), &buf, rs, ids, bundle.ExportOptions{IncludeIndex: true, Labels: labels}); err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	if outPath == "-" {
		_, _ = out.Write(buf.Bytes())
		return 0
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		fmt.Fprintf(errOut, "write bundle: %v\n", err)
		return 1
	}
	return 0
}

func cmdBundleImport(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("bundle-import", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var storeDir, hashName string
	var ignoreUnknown bool
	fs.StringVar(&storeDir, "store-dir", "", "localfs record store")
	fs.StringVar(&hashName, "hash", "sha2-256", "Store CID hash: sha2-256 or sha3-256")
	fs.BoolVar(&ignoreUnknown, "ignore-unknown", false, "Skip entries that are not records")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if storeDir == "" || fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: jcommit bundle-import --store-dir <dir> <file|->")
		return 2
	}
	rs, err := openLocalStore(storeDir, hashName)
	if err != nil {
		fmt.Fprintf(errOut, "open store: %v\n", err)
		return 1
	}
	b, err := readInput(fs.Arg(0), in)
	if err != nil {
		fmt.Fprintf(errOut, "read bundle: %v\n", err)
		return 1
	}
	ids, err := bundle.Import(context.Background(), bytes.NewReader(b), rs, bundle.ImportOptions{IgnoreUnknown: ignoreUnknown})
	for _, id := range ids {
		_, _ = fmt.Fprintln(out, id)
	}
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	return 0
}
