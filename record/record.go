// Package record serializes aggregate commitments and openings.
//
// A Record is compact JSON: group elements and scalars are the suite's
// canonical compressed encodings in standard base64, leaves are sorted by
// encoded path and paths use the display form of docpath.
package record

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ipfs/go-cid"

	"xdao.co/jcommit/cidutil"
	"xdao.co/jcommit/commit"
	"xdao.co/jcommit/docpath"
	"xdao.co/jcommit/suite"
)

// Version is the only record version this package reads and writes.
const Version = 1

// Record is the serialized form of a commit.Aggregate.
type Record struct {
	Version   int    `json:"version"`
	Suite     string `json:"suite"`
	Aggregate string `json:"aggregate"`
	// DocumentBlinding is r0. It is omitted for unblinded aggregates and
	// stripped by Public.
	DocumentBlinding string       `json:"document_blinding,omitempty"`
	LeafCount        int          `json:"leaf_count"`
	Leaves           []LeafRecord `json:"leaves,omitempty"`
}

// LeafRecord is one per-path commitment.
type LeafRecord struct {
	Path       string `json:"path"`
	Commitment string `json:"commitment"`
}

var b64 = base64.StdEncoding

// FromAggregate builds a record from a.
func FromAggregate(a *commit.Aggregate) (*Record, error) {
	if a == nil || a.Suite == nil || a.Commitment == nil {
		return nil, fmt.Errorf("record: incomplete aggregate")
	}
	agg, err := encodeElement(a.Commitment)
	if err != nil {
		return nil, err
	}
	rec := &Record{
		Version:   Version,
		Suite:     a.Suite.Name(),
		Aggregate: agg,
		LeafCount: a.LeafCount,
	}
	if a.DocumentBlinding != nil {
		if rec.DocumentBlinding, err = encodeScalar(a.DocumentBlinding); err != nil {
			return nil, err
		}
	}
	for _, lc := range a.Leaves {
		cm, err := encodeElement(lc.Commitment)
		if err != nil {
			return nil, err
		}
		rec.Leaves = append(rec.Leaves, LeafRecord{Path: lc.Path.String(), Commitment: cm})
	}
	return rec, nil
}

// Public returns a copy without the document blinding scalar.
func (r *Record) Public() *Record {
	out := *r
	out.DocumentBlinding = ""
	out.Leaves = append([]LeafRecord(nil), r.Leaves...)
	return &out
}

// Marshal returns the canonical compact JSON encoding of r.
func Marshal(r *Record) ([]byte, error) {
	if _, err := r.Decode(); err != nil {
		return nil, err
	}
	return json.Marshal(r)
}

// Unmarshal parses and validates a record.
func Unmarshal(b []byte) (*Record, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	var r Record
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("record: decode: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("record: trailing data after record")
	}
	if _, err := r.Decode(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Decode validates r and decodes it into a commit.Aggregate. The suite
// must be linked into the binary.
func (r *Record) Decode() (*commit.Aggregate, error) {
	if r.Version != Version {
		return nil, fmt.Errorf("record: unsupported version %d", r.Version)
	}
	if r.Suite == "" {
		return nil, fmt.Errorf("record: suite is required")
	}
	s, err := suite.Lookup(r.Suite)
	if err != nil {
		return nil, fmt.Errorf("record: %w", err)
	}
	agg, err := decodeElement(s, r.Aggregate)
	if err != nil {
		return nil, fmt.Errorf("record: aggregate: %w", err)
	}
	a := &commit.Aggregate{Suite: s, Commitment: agg, LeafCount: r.LeafCount}
	if r.DocumentBlinding != "" {
		if a.DocumentBlinding, err = decodeScalar(s, r.DocumentBlinding); err != nil {
			return nil, fmt.Errorf("record: document blinding: %w", err)
		}
	}
	if r.LeafCount < 0 {
		return nil, fmt.Errorf("record: negative leaf count")
	}
	if len(r.Leaves) > 0 && len(r.Leaves) != r.LeafCount {
		return nil, fmt.Errorf("record: %d leaves listed, leaf count %d", len(r.Leaves), r.LeafCount)
	}
	for i, lr := range r.Leaves {
		p, err := docpath.Parse(lr.Path)
		if err != nil {
			return nil, fmt.Errorf("record: leaf %d: %w", i, err)
		}
		if i > 0 && docpath.Compare(a.Leaves[i-1].Path, p) >= 0 {
			return nil, fmt.Errorf("record: leaf %d: paths not sorted or duplicated at %s", i, lr.Path)
		}
		cm, err := decodeElement(s, lr.Commitment)
		if err != nil {
			return nil, fmt.Errorf("record: leaf %s: %w", lr.Path, err)
		}
		a.Leaves = append(a.Leaves, commit.LeafCommitment{Path: p, Commitment: cm})
	}
	return a, nil
}

// VerifyTable checks that the record's leaves sum to its aggregate.
// Blinded records need their DocumentBlinding.
func (r *Record) VerifyTable() error {
	a, err := r.Decode()
	if err != nil {
		return err
	}
	if len(a.Leaves) == 0 && a.LeafCount > 0 {
		return fmt.Errorf("record: no per-leaf table")
	}
	c, err := commit.NewCommitter(a.Suite, commit.Options{})
	if err != nil {
		return err
	}
	return c.VerifyTable(a)
}

// CID returns the record identifier of the marshaled bytes b.
func CID(b []byte, h cidutil.Hash) (cid.Cid, error) {
	return cidutil.CIDv1Raw(b, h)
}

func encodeElement(e suite.Element) (string, error) {
	b, err := e.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("record: encode element: %w", err)
	}
	return b64.EncodeToString(b), nil
}

func encodeScalar(k suite.Scalar) (string, error) {
	b, err := k.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("record: encode scalar: %w", err)
	}
	return b64.EncodeToString(b), nil
}

func decodeElement(s suite.Suite, v string) (suite.Element, error) {
	b, err := b64.DecodeString(v)
	if err != nil {
		return nil, err
	}
	return s.DecodeElement(b)
}

func decodeScalar(s suite.Suite, v string) (suite.Scalar, error) {
	b, err := b64.DecodeString(v)
	if err != nil {
		return nil, err
	}
	return s.DecodeScalar(b)
}
