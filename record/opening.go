package record

import (
	"encoding/json"
	"fmt"

	"xdao.co/jcommit/commit"
	"xdao.co/jcommit/docpath"
	"xdao.co/jcommit/document"
	"xdao.co/jcommit/suite"
)

// Opening is the serialized form of a commit.Opening.
type Opening struct {
	Suite    string         `json:"suite"`
	Path     string         `json:"path"`
	Value    document.Value `json:"value"`
	Blinding string         `json:"blinding,omitempty"`
}

// NewOpening serializes o under suite s.
func NewOpening(s suite.Suite, o commit.Opening) (*Opening, error) {
	out := &Opening{Suite: s.Name(), Path: o.Path.String(), Value: o.Value}
	if o.Blinding != nil {
		b, err := encodeScalar(o.Blinding)
		if err != nil {
			return nil, err
		}
		out.Blinding = b
	}
	return out, nil
}

// Decode returns the suite and the opening.
func (o *Opening) Decode() (suite.Suite, commit.Opening, error) {
	s, err := suite.Lookup(o.Suite)
	if err != nil {
		return nil, commit.Opening{}, fmt.Errorf("record: %w", err)
	}
	p, err := docpath.Parse(o.Path)
	if err != nil {
		return nil, commit.Opening{}, fmt.Errorf("record: opening path: %w", err)
	}
	out := commit.Opening{Path: p, Value: o.Value}
	if o.Blinding != "" {
		if out.Blinding, err = decodeScalar(s, o.Blinding); err != nil {
			return nil, commit.Opening{}, fmt.Errorf("record: opening blinding: %w", err)
		}
	}
	return s, out, nil
}

func MarshalOpening(o *Opening) ([]byte, error) { return json.Marshal(o) }

func UnmarshalOpening(b []byte) (*Opening, error) {
	var o Opening
	if err := json.Unmarshal(b, &o); err != nil {
		return nil, fmt.Errorf("record: decode opening: %w", err)
	}
	if _, _, err := o.Decode(); err != nil {
		return nil, err
	}
	return &o, nil
}

// VerifyOpening checks o against the per-leaf commitment listed in r.
func VerifyOpening(r *Record, o *Opening) error {
	a, err := r.Decode()
	if err != nil {
		return err
	}
	s, co, err := o.Decode()
	if err != nil {
		return err
	}
	if s.Name() != a.Suite.Name() {
		return fmt.Errorf("record: opening suite %s does not match record suite %s", s.Name(), a.Suite.Name())
	}
	lc, ok := a.Lookup(co.Path)
	if !ok {
		return fmt.Errorf("record: no leaf commitment at %s", co.Path)
	}
	c, err := commit.NewCommitter(s, commit.Options{})
	if err != nil {
		return err
	}
	return c.VerifyOpening(co, lc.Commitment)
}
