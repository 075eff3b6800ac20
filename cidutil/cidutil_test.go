package cidutil

import (
	"testing"

	"github.com/ipfs/go-cid"
)

func TestCIDv1Raw_Stable(t *testing.T) {
	data := []byte(`{"version":1}`)
	a, err := CIDv1Raw(data, SHA2_256)
	if err != nil {
		t.Fatalf("CIDv1Raw failed: %v", err)
	}
	if a.String() != CIDv1RawSHA256(data) {
		t.Fatalf("string form mismatch: %s vs %s", a, CIDv1RawSHA256(data))
	}
	if a.Prefix().Codec != cid.Raw || a.Version() != 1 {
		t.Fatalf("unexpected prefix: %+v", a.Prefix())
	}

	b, err := CIDv1Raw(data, SHA3_256)
	if err != nil {
		t.Fatalf("CIDv1Raw sha3 failed: %v", err)
	}
	if a.Equals(b) {
		t.Fatalf("expected different CIDs per hash")
	}
}

func TestVerify(t *testing.T) {
	data := []byte("record")
	for _, h := range []Hash{SHA2_256, SHA3_256} {
		c, err := CIDv1Raw(data, h)
		if err != nil {
			t.Fatalf("CIDv1Raw(%s) failed: %v", h, err)
		}
		if err := Verify(c, data); err != nil {
			t.Fatalf("Verify(%s) failed: %v", h, err)
		}
		if err := Verify(c, []byte("tampered")); err == nil {
			t.Fatalf("expected mismatch for %s", h)
		}
	}
}

func TestParseHash(t *testing.T) {
	cases := []struct {
		in   string
		want Hash
	}{
		{"", SHA2_256},
		{"sha2-256", SHA2_256},
		{"sha3-256", SHA3_256},
	}
	for _, tc := range cases {
		got, err := ParseHash(tc.in)
		if err != nil || got != tc.want {
			t.Fatalf("ParseHash(%q) = %s, %v", tc.in, got, err)
		}
	}
	if _, err := ParseHash("md5"); err == nil {
		t.Fatalf("expected error for md5")
	}
}
