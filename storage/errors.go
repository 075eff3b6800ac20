package storage

import "errors"

var (
	ErrNotFound    = errors.New("storage: not found")
	ErrInvalidCID  = errors.New("storage: invalid cid")
	ErrCIDMismatch = errors.New("storage: cid mismatch")
	// ErrImmutable means an object already stored under a CID has different bytes.
	ErrImmutable = errors.New("storage: stored object changed")
	// ErrInvalidRecord wraps decode failures of bytes handed to or read from a RecordStore.
	ErrInvalidRecord = errors.New("storage: invalid commitment record")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsIntegrity reports whether err means stored bytes do not match what was
// expected of them.
func IsIntegrity(err error) bool {
	return errors.Is(err, ErrCIDMismatch) || errors.Is(err, ErrImmutable) || errors.Is(err, ErrInvalidRecord)
}
