// Package memory is an in-process CAS, used as a cache tier and in tests.
package memory

import (
	"context"
	"sync"

	"github.com/ipfs/go-cid"

	"xdao.co/jcommit/cidutil"
	"xdao.co/jcommit/storage"
)

// CAS keeps objects in a map keyed by CID string.
type CAS struct {
	hash cidutil.Hash

	mu      sync.RWMutex
	objects map[string][]byte
}

// New returns an empty store that derives CIDs with h.
func New(h cidutil.Hash) *CAS {
	return &CAS{hash: h, objects: make(map[string][]byte)}
}

func (c *CAS) Put(ctx context.Context, b []byte) (cid.Cid, error) {
	if err := ctx.Err(); err != nil {
		return cid.Undef, err
	}
	id, err := cidutil.CIDv1Raw(b, c.hash)
	if err != nil {
		return cid.Undef, err
	}
	key := id.String()

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.objects[key]; ok {
		if string(existing) != string(b) {
			return cid.Undef, storage.ErrImmutable
		}
		return id, nil
	}
	c.objects[key] = append([]byte(nil), b...)
	return id, nil
}

func (c *CAS) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	c.mu.RLock()
	b, ok := c.objects[id.String()]
	c.mu.RUnlock()
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (c *CAS) Has(ctx context.Context, id cid.Cid) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !id.Defined() {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.objects[id.String()]
	return ok, nil
}

// Len returns the number of stored objects.
func (c *CAS) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.objects)
}
