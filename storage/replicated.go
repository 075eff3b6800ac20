package storage

import (
	"context"
	"fmt"

	"github.com/ipfs/go-cid"
)

// Named associates a CAS with a stable backend name.
type Named struct {
	Name string
	CAS  CAS
}

// Replicated writes to every backend and reads them in order.
//
// Put requires every backend to return the same CID. A Get that misses in
// earlier backends and hits a later one copies the object into the earlier
// ones, so a fast backend listed first acts as a cache.
type Replicated struct {
	Backends []Named
}

var _ CAS = Replicated{}

func (r Replicated) Put(ctx context.Context, b []byte) (cid.Cid, error) {
	if len(r.Backends) == 0 {
		return cid.Undef, fmt.Errorf("storage: no backends configured")
	}
	want := cid.Undef
	for _, nb := range r.Backends {
		if nb.CAS == nil {
			return cid.Undef, fmt.Errorf("storage: nil CAS for backend %q", nb.Name)
		}
		got, err := nb.CAS.Put(ctx, b)
		if err != nil {
			return cid.Undef, fmt.Errorf("storage: %s: %w", nb.Name, err)
		}
		if want.Defined() && got != want {
			return cid.Undef, fmt.Errorf("storage: %s: %w", nb.Name, ErrCIDMismatch)
		}
		want = got
	}
	return want, nil
}

func (r Replicated) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	for i, nb := range r.Backends {
		if nb.CAS == nil {
			continue
		}
		out, err := nb.CAS.Get(ctx, id)
		if IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("storage: %s: %w", nb.Name, err)
		}
		for _, miss := range r.Backends[:i] {
			if miss.CAS == nil {
				continue
			}
			if _, err := miss.CAS.Put(ctx, out); err != nil {
				return nil, fmt.Errorf("storage: backfill %s: %w", miss.Name, err)
			}
		}
		return out, nil
	}
	return nil, ErrNotFound
}

func (r Replicated) Has(ctx context.Context, id cid.Cid) (bool, error) {
	for _, nb := range r.Backends {
		if nb.CAS == nil {
			continue
		}
		ok, err := nb.CAS.Has(ctx, id)
		if err != nil {
			return false, fmt.Errorf("storage: %s: %w", nb.Name, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
