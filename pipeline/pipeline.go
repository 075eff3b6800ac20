// Package pipeline runs parse, traverse, aggregate and record in one call.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ipfs/go-cid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"xdao.co/jcommit/cidutil"
	"xdao.co/jcommit/commit"
	"xdao.co/jcommit/docpath"
	"xdao.co/jcommit/document"
	"xdao.co/jcommit/record"
	"xdao.co/jcommit/storage"
	"xdao.co/jcommit/traverse"
)

var tracer = otel.Tracer("xdao.co/jcommit/pipeline")

// Format is the document syntax.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat maps "json" or "yaml" to a Format. "" selects JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("pipeline: unknown format %q", s)
	}
}

// FormatForPath picks the format from a file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Pipeline commits documents. Store is optional.
type Pipeline struct {
	Committer *commit.Committer
	Store     *storage.RecordStore
	// Hash selects the record CID hash when Store is nil.
	Hash   cidutil.Hash
	Logger *slog.Logger
}

// Result is the outcome of one commitment.
type Result struct {
	Aggregate   *commit.Aggregate
	Record      *record.Record
	RecordBytes []byte
	CID         cid.Cid
	// Stored reports whether the record was written to the store.
	Stored bool
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Parse parses text in format f.
func (p *Pipeline) Parse(ctx context.Context, text []byte, f Format) (*document.Node, error) {
	_, span := tracer.Start(ctx, "jcommit.parse", trace.WithAttributes(
		attribute.String("document.format", f.String()),
		attribute.Int("document.bytes", len(text)),
	))
	defer span.End()

	var (
		n   *document.Node
		err error
	)
	switch f {
	case FormatJSON:
		n, err = document.Parse(text)
	case FormatYAML:
		n, err = document.ParseYAML(text)
	default:
		err = fmt.Errorf("pipeline: unknown format %s", f)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return nil, err
	}
	return n, nil
}

// CommitText parses text and commits the document.
func (p *Pipeline) CommitText(ctx context.Context, text []byte, f Format) (*Result, error) {
	ctx, span := tracer.Start(ctx, "jcommit.CommitText")
	defer span.End()

	n, err := p.Parse(ctx, text, f)
	if err != nil {
		span.SetStatus(codes.Error, "parse failed")
		return nil, err
	}
	res, err := p.CommitDocument(ctx, n)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res, nil
}

// CommitDocument traverses n, aggregates its leaves and builds the record.
// The record is stored when a store is configured.
func (p *Pipeline) CommitDocument(ctx context.Context, n *document.Node) (*Result, error) {
	s := p.Committer.Suite()
	ctx, span := tracer.Start(ctx, "jcommit.CommitDocument", trace.WithAttributes(
		attribute.String("commit.suite", s.Name()),
	))
	defer span.End()

	entries := traverse.Traverse(n)
	span.SetAttributes(attribute.Int("commit.leaves", len(entries)))

	a, err := p.aggregate(ctx, entries)
	if err != nil {
		return nil, err
	}
	rec, err := record.FromAggregate(a)
	if err != nil {
		return nil, err
	}

	res := &Result{Aggregate: a, Record: rec}
	if p.Store != nil {
		res.CID, res.RecordBytes, err = p.Store.Put(ctx, rec)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		res.Stored = true
	} else {
		if res.RecordBytes, err = record.Marshal(rec); err != nil {
			return nil, err
		}
		if res.CID, err = record.CID(res.RecordBytes, p.Hash); err != nil {
			return nil, err
		}
	}
	span.SetAttributes(attribute.String("record.cid", res.CID.String()))
	p.logger().Info("document committed",
		"suite", s.Name(),
		"leaves", a.LeafCount,
		"cid", res.CID.String(),
		"stored", res.Stored,
	)
	return res, nil
}

func (p *Pipeline) aggregate(ctx context.Context, entries []traverse.Entry) (*commit.Aggregate, error) {
	ctx, span := tracer.Start(ctx, "jcommit.aggregate")
	defer span.End()

	a, err := p.Committer.Aggregate(ctx, entries)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate failed")
		if rule := commit.RuleID(err); rule != "" {
			span.SetAttributes(attribute.String("commit.rule", rule))
		}
		return nil, err
	}
	return a, nil
}

// Open parses text and returns the opening for path. The committer's
// blinding source must be reproducible.
func (p *Pipeline) Open(ctx context.Context, text []byte, f Format, path docpath.Path) (*record.Opening, error) {
	ctx, span := tracer.Start(ctx, "jcommit.Open", trace.WithAttributes(
		attribute.String("open.path", path.String()),
	))
	defer span.End()

	n, err := p.Parse(ctx, text, f)
	if err != nil {
		return nil, err
	}
	o, err := p.Committer.Open(traverse.Traverse(n), path)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return record.NewOpening(p.Committer.Suite(), o)
}
