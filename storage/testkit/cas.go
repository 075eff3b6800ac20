// Package testkit holds conformance tests shared by CAS implementations.
package testkit

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/jcommit/cidutil"
	"xdao.co/jcommit/storage"
)

// NewCAS constructs a fresh, empty CAS instance for a test.
// The returned CAS MUST be isolated from other tests.
type NewCAS func(t *testing.T) storage.CAS

// RunCASConformance checks the storage.CAS contract for a backend that
// derives CIDs with h.
func RunCASConformance(t *testing.T, h cidutil.Hash, newCAS NewCAS) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		cas := newCAS(t)
		want := []byte(`{"version":1,"suite":"p256-sha256"}`)

		id, err := cas.Put(t.Context(), want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		wantID, err := cidutil.CIDv1Raw(want, h)
		if err != nil {
			t.Fatalf("CIDv1Raw failed: %v", err)
		}
		if id != wantID {
			t.Fatalf("Put CID mismatch: got %s want %s", id, wantID)
		}

		got, err := cas.Get(t.Context(), id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}
		if err := cidutil.Verify(id, got); err != nil {
			t.Fatalf("Get returned bytes not matching requested CID: %v", err)
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("same bytes")

		id1, err := cas.Put(t.Context(), b)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		id2, err := cas.Put(t.Context(), b)
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if id1 != id2 {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("missing")
		id, err := cidutil.CIDv1Raw(b, h)
		if err != nil {
			t.Fatalf("CIDv1Raw failed: %v", err)
		}

		if ok, err := cas.Has(t.Context(), id); err != nil || ok {
			t.Fatalf("Has for missing CID = %v, %v", ok, err)
		}
		if _, err := cas.Get(t.Context(), id); !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}

		if _, err := cas.Put(t.Context(), b); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if ok, err := cas.Has(t.Context(), id); err != nil || !ok {
			t.Fatalf("Has after Put = %v, %v", ok, err)
		}
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		cas := newCAS(t)
		var undef cid.Cid
		if ok, _ := cas.Has(t.Context(), undef); ok {
			t.Fatalf("Has should be false for undefined CID")
		}
		if _, err := cas.Get(t.Context(), undef); err == nil {
			t.Fatalf("Get should fail for undefined CID")
		}
	})

	t.Run("CanceledContext", func(t *testing.T) {
		cas := newCAS(t)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		if _, err := cas.Put(ctx, []byte("x")); !errors.Is(err, context.Canceled) {
			t.Fatalf("Put with canceled context: got %v", err)
		}
	})

	t.Run("ConcurrentPut", func(t *testing.T) {
		cas := newCAS(t)
		var wg sync.WaitGroup
		errs := make(chan error, 16)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := cas.Put(t.Context(), []byte("shared")); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Fatalf("concurrent Put failed: %v", err)
		}
	})
}
