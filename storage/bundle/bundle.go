// Package bundle moves commitment records between record stores as a
// deterministic TAR archive.
//
// Layout:
//
//	records/<cid>   record bytes exactly as stored
//	index.json      optional, non-authoritative listing and labels
package bundle

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/jcommit/cidutil"
	"xdao.co/jcommit/storage"
)

// FormatVersion is the index.json schema version.
const FormatVersion = 1

const recordsDir = "records/"

var epoch0 = time.Unix(0, 0).UTC()

// ExportOptions controls Export.
type ExportOptions struct {
	// Labels maps human names to record CIDs. Labels are not verified on import.
	Labels map[string]cid.Cid
	// IncludeIndex writes index.json after the records.
	IncludeIndex bool
}

// Export writes the records named by ids to w. Duplicate ids are written
// once and entries are ordered by CID string, so the same set of records
// always yields the same bytes.
func Export(ctx context.Context, w io.Writer, rs storage.RecordStore, ids []cid.Cid, opts ExportOptions) (err error) {
	if rs.CAS == nil {
		return errors.New("bundle: nil record store")
	}
	uniq := make(map[string]cid.Cid, len(ids))
	for _, id := range ids {
		if !id.Defined() {
			return storage.ErrInvalidCID
		}
		uniq[id.String()] = id
	}
	keys := make([]string, 0, len(uniq))
	for k := range uniq {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tar.NewWriter(w)
	defer func() {
		if cerr := tw.Close(); err == nil {
			err = cerr
		}
	}()

	entries := make([]indexRecord, 0, len(keys))
	for _, k := range keys {
		id := uniq[k]
		_, b, err := rs.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("bundle: export %s: %w", k, err)
		}
		if err := cidutil.Verify(id, b); err != nil {
			return fmt.Errorf("bundle: export %s: %w", k, storage.ErrCIDMismatch)
		}
		if err := writeFile(tw, recordsDir+k, b); err != nil {
			return err
		}
		entries = append(entries, indexRecord{CID: k, Size: len(b)})
	}

	if !opts.IncludeIndex {
		return nil
	}
	idx := index{Version: FormatVersion, CIDCodec: "raw", Records: entries}
	names := make([]string, 0, len(opts.Labels))
	for name := range opts.Labels {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		id := opts.Labels[name]
		if name == "" {
			return errors.New("bundle: empty label name")
		}
		if !id.Defined() {
			return storage.ErrInvalidCID
		}
		idx.Labels = append(idx.Labels, indexLabel{Name: name, CID: id.String()})
	}
	b, err := json.Marshal(idx)
	if err != nil {
		return err
	}
	return writeFile(tw, "index.json", append(b, '\n'))
}

// ImportOptions controls Import.
type ImportOptions struct {
	// IgnoreUnknown skips entries outside records/ instead of failing.
	IgnoreUnknown bool
}

// Import reads a bundle from r into rs and returns the imported CIDs in
// archive order. Every record is checked against its entry name and must
// decode as a commitment record. Import stops at the first bad entry;
// records stored before it are kept.
func Import(ctx context.Context, r io.Reader, rs storage.RecordStore, opts ImportOptions) ([]cid.Cid, error) {
	if rs.CAS == nil {
		return nil, errors.New("bundle: nil record store")
	}
	tr := tar.NewReader(r)
	seen := make(map[string]struct{})
	var out []cid.Cid
	for {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		h, err := tr.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("bundle: read: %w", err)
		}
		name := cleanTarPath(h.Name)
		if name == "" {
			return out, fmt.Errorf("bundle: invalid entry path %q", h.Name)
		}
		if name == "index.json" {
			continue
		}
		if h.Typeflag != tar.TypeReg || !strings.HasPrefix(name, recordsDir) {
			if opts.IgnoreUnknown {
				continue
			}
			return out, fmt.Errorf("bundle: unexpected entry %s", name)
		}

		id, err := cid.Decode(strings.TrimPrefix(name, recordsDir))
		if err != nil || !id.Defined() {
			return out, fmt.Errorf("bundle: %s: %w", name, storage.ErrInvalidCID)
		}
		if _, dup := seen[id.String()]; dup {
			return out, fmt.Errorf("bundle: duplicate record %s", id)
		}
		seen[id.String()] = struct{}{}

		b, err := io.ReadAll(tr)
		if err != nil {
			return out, fmt.Errorf("bundle: read %s: %w", name, err)
		}
		if err := cidutil.Verify(id, b); err != nil {
			return out, fmt.Errorf("bundle: %s: %w", name, storage.ErrCIDMismatch)
		}
		got, err := rs.PutBytes(ctx, b)
		if err != nil {
			return out, fmt.Errorf("bundle: import %s: %w", id, err)
		}
		if !got.Equals(id) {
			return out, fmt.Errorf("bundle: store hashed %s as %s: %w", id, got, storage.ErrCIDMismatch)
		}
		out = append(out, id)
	}
}

type index struct {
	Version  int           `json:"version"`
	CIDCodec string        `json:"cidCodec"`
	Records  []indexRecord `json:"records"`
	Labels   []indexLabel  `json:"labels,omitempty"`
}

type indexRecord struct {
	CID  string `json:"cid"`
	Size int    `json:"size"`
}

type indexLabel struct {
	Name string `json:"name"`
	CID  string `json:"cid"`
}

func writeFile(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  epoch0,
		Typeflag: tar.TypeReg,
		Format:   tar.FormatUSTAR,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := io.Copy(tw, bytes.NewReader(content))
	return err
}

// cleanTarPath normalizes an entry name and rejects empty, dot and dot-dot
// segments.
func cleanTarPath(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	name = strings.TrimPrefix(strings.TrimPrefix(name, "./"), "/")
	if name == "" {
		return ""
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." {
			return ""
		}
	}
	return name
}
