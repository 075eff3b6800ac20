package storage

import (
	"context"
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/jcommit/record"
)

// RecordStore stores commitment records in a CAS.
type RecordStore struct {
	CAS CAS
}

// Put marshals rec and stores it, returning its CID and bytes.
func (s RecordStore) Put(ctx context.Context, rec *record.Record) (cid.Cid, []byte, error) {
	b, err := record.Marshal(rec)
	if err != nil {
		return cid.Undef, nil, err
	}
	id, err := s.PutBytes(ctx, b)
	return id, b, err
}

// PutBytes validates marshaled record bytes and stores them unchanged.
func (s RecordStore) PutBytes(ctx context.Context, b []byte) (cid.Cid, error) {
	if _, err := record.Unmarshal(b); err != nil {
		return cid.Undef, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	id, err := s.CAS.Put(ctx, b)
	if err != nil {
		return cid.Undef, fmt.Errorf("storage: put record: %w", err)
	}
	return id, nil
}

// Get loads and validates the record stored under id.
func (s RecordStore) Get(ctx context.Context, id cid.Cid) (*record.Record, []byte, error) {
	b, err := s.CAS.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rec, err := record.Unmarshal(b)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrInvalidRecord, id, err)
	}
	return rec, b, nil
}

func (s RecordStore) Has(ctx context.Context, id cid.Cid) (bool, error) {
	return s.CAS.Has(ctx, id)
}
