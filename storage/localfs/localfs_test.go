package localfs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"xdao.co/jcommit/cidutil"
	"xdao.co/jcommit/storage"
	"xdao.co/jcommit/storage/testkit"
)

func TestLocalFS_Conformance(t *testing.T) {
	for _, h := range []cidutil.Hash{cidutil.SHA2_256, cidutil.SHA3_256} {
		t.Run(h.String(), func(t *testing.T) {
			testkit.RunCASConformance(t, h, func(t *testing.T) storage.CAS {
				t.Helper()
				cas, err := New(t.TempDir(), h)
				if err != nil {
					t.Fatalf("New failed: %v", err)
				}
				return cas
			})
		})
	}
}

func TestLocalFS_RejectMutationByOverwrite(t *testing.T) {
	cas, err := New(t.TempDir(), cidutil.SHA2_256)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	orig := []byte(`{"version":1}`)
	id, err := cas.Put(t.Context(), orig)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	path := cas.pathFor(id)
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("corrupted"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := cas.Get(t.Context(), id); !errors.Is(err, storage.ErrCIDMismatch) {
		t.Fatalf("Get mismatch: got %v want %v", err, storage.ErrCIDMismatch)
	}
	if _, err := cas.Put(t.Context(), orig); !errors.Is(err, storage.ErrImmutable) {
		t.Fatalf("Put after corruption: got %v want %v", err, storage.ErrImmutable)
	}
}

func TestLocalFS_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	cas, err := New(dir, cidutil.SHA2_256)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	id, err := cas.Put(t.Context(), []byte("x"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := cas.Put(t.Context(), []byte("x")); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}
	ents, err := os.ReadDir(filepath.Dir(cas.pathFor(id)))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(ents) != 1 {
		t.Fatalf("expected one object file, got %d", len(ents))
	}
}
