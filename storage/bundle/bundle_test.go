package bundle_test

import (
	"archive/tar"
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/jcommit/cidutil"
	"xdao.co/jcommit/commit"
	"xdao.co/jcommit/document"
	"xdao.co/jcommit/record"
	"xdao.co/jcommit/storage"
	"xdao.co/jcommit/storage/bundle"
	"xdao.co/jcommit/storage/localfs"
	"xdao.co/jcommit/storage/memory"
	"xdao.co/jcommit/suite"
	_ "xdao.co/jcommit/suite/p256"
	"xdao.co/jcommit/traverse"
)

func putRecord(t *testing.T, rs storage.RecordStore, doc string) (cid.Cid, []byte) {
	t.Helper()
	s, err := suite.Lookup(suite.DefaultName)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	c, err := commit.NewCommitter(s, commit.Options{KeepTable: true})
	if err != nil {
		t.Fatalf("NewCommitter failed: %v", err)
	}
	n, err := document.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	a, err := c.Aggregate(t.Context(), traverse.Traverse(n))
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	rec, err := record.FromAggregate(a)
	if err != nil {
		t.Fatalf("FromAggregate failed: %v", err)
	}
	id, b, err := rs.Put(t.Context(), rec)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	return id, b
}

func TestBundle_ExportIsDeterministic(t *testing.T) {
	cas, err := localfs.New(t.TempDir(), cidutil.SHA2_256)
	if err != nil {
		t.Fatal(err)
	}
	rs := storage.RecordStore{CAS: cas}
	id1, _ := putRecord(t, rs, `{"a":1}`)
	id2, _ := putRecord(t, rs, `{"b":[true,"x"]}`)
	labels := map[string]cid.Cid{"first": id1}

	var outA, outB bytes.Buffer
	if err := bundle.Export(t.Context(), &outA, rs, []cid.Cid{id2, id1, id2}, bundle.ExportOptions{IncludeIndex: true, Labels: labels}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if err := bundle.Export(t.Context(), &outB, rs, []cid.Cid{id1, id2}, bundle.ExportOptions{IncludeIndex: true, Labels: labels}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !bytes.Equal(outA.Bytes(), outB.Bytes()) {
		t.Fatalf("expected deterministic bundle bytes")
	}
}

func TestBundle_ImportRoundTrip(t *testing.T) {
	src := storage.RecordStore{CAS: memory.New(cidutil.SHA2_256)}
	id, want := putRecord(t, src, `{"user":{"name":"alice","age":30}}`)

	var buf bytes.Buffer
	if err := bundle.Export(t.Context(), &buf, src, []cid.Cid{id}, bundle.ExportOptions{IncludeIndex: true}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	dstCAS, err := localfs.New(t.TempDir(), cidutil.SHA2_256)
	if err != nil {
		t.Fatal(err)
	}
	dst := storage.RecordStore{CAS: dstCAS}
	ids, err := bundle.Import(t.Context(), bytes.NewReader(buf.Bytes()), dst, bundle.ImportOptions{})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(ids) != 1 || !ids[0].Equals(id) {
		t.Fatalf("imported %v, want [%s]", ids, id)
	}
	_, got, err := dst.Get(t.Context(), id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("record bytes changed across import")
	}
}

func TestBundle_ImportRejectsCIDMismatch(t *testing.T) {
	src := storage.RecordStore{CAS: memory.New(cidutil.SHA2_256)}
	_, good := putRecord(t, src, `{"a":1}`)
	otherID, _ := putRecord(t, src, `{"a":2}`)

	// Entry named for one record but holding another.
	b := makeTar(t, "records/"+otherID.String(), good)
	dst := storage.RecordStore{CAS: memory.New(cidutil.SHA2_256)}
	_, err := bundle.Import(t.Context(), bytes.NewReader(b), dst, bundle.ImportOptions{})
	if !errors.Is(err, storage.ErrCIDMismatch) {
		t.Fatalf("expected ErrCIDMismatch, got %v", err)
	}
}

func TestBundle_ImportRejectsNonRecords(t *testing.T) {
	payload := []byte("not a record")
	id, err := cidutil.CIDv1Raw(payload, cidutil.SHA2_256)
	if err != nil {
		t.Fatal(err)
	}
	dst := storage.RecordStore{CAS: memory.New(cidutil.SHA2_256)}
	if _, err := bundle.Import(t.Context(), bytes.NewReader(makeTar(t, "records/"+id.String(), payload)), dst, bundle.ImportOptions{}); err == nil {
		t.Fatalf("expected invalid record error")
	}
}

func TestBundle_ImportUnknownEntries(t *testing.T) {
	b := makeTar(t, "notes/readme.txt", []byte("hi"))
	dst := storage.RecordStore{CAS: memory.New(cidutil.SHA2_256)}
	if _, err := bundle.Import(t.Context(), bytes.NewReader(b), dst, bundle.ImportOptions{}); err == nil {
		t.Fatalf("expected unknown entry error")
	}
	ids, err := bundle.Import(t.Context(), bytes.NewReader(b), dst, bundle.ImportOptions{IgnoreUnknown: true})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("imported %d records, want 0", len(ids))
	}

	bad := makeTar(t, "records/../escape", []byte("x"))
	if _, err := bundle.Import(t.Context(), bytes.NewReader(bad), dst, bundle.ImportOptions{IgnoreUnknown: true}); err == nil {
		t.Fatalf("expected invalid path error")
	}
}

func makeTar(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	h := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  time.Unix(0, 0).UTC(),
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(h); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
