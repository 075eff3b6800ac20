package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

const (
	// MaxNumberExponent bounds the decimal exponent of literals parsed exactly.
	MaxNumberExponent = 1000
	// MaxNumberLiteral bounds the length of literals parsed exactly.
	MaxNumberLiteral = 4096
)

// Kind is the type of a primitive value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is a primitive leaf. The zero Value is null.
//
// Numbers keep their source literal so no precision is lost before encoding.
type Value struct {
	kind Kind
	b    bool
	s    string
}

func NullValue() Value { return Value{} }
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// NumberValue returns a number value for a JSON number literal.
func NumberValue(literal string) (Value, error) {
	if !validNumber(literal) {
		return Value{}, fmt.Errorf("document: invalid number literal %q", literal)
	}
	return Value{kind: KindNumber, s: literal}, nil
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// NumberLiteral returns the number's source literal.
func (v Value) NumberLiteral() (string, bool) {
	if v.kind != KindNumber {
		return "", false
	}
	return v.s, true
}

// Equal compares kinds and contents; numbers compare by numeric value.
// Numbers outside the exact-parsing bounds are equal only when their literals
// are identical.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	case KindNumber:
		if v.s == o.s {
			return true
		}
		a, okA := exactNumber(v.s)
		b, okB := exactNumber(o.s)
		return okA && okB && a.Cmp(b) == 0
	default:
		return true
	}
}

// String renders the value as JSON.
func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return "<invalid>"
	}
	return string(b)
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		if v.b {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case KindNumber:
		return []byte(v.s), nil
	case KindString:
		return json.Marshal(v.s)
	default:
		return nil, fmt.Errorf("document: unknown value kind %d", v.kind)
	}
}

func (v *Value) UnmarshalJSON(b []byte) error {
	n, err := Parse(b)
	if err != nil {
		return err
	}
	if n.Kind() != PrimitiveNode {
		return errors.New("document: value must be a primitive")
	}
	*v = n.Value()
	return nil
}

func validNumber(s string) bool {
	if s == "" {
		return false
	}
	if c := s[0]; c != '-' && (c < '0' || c > '9') {
		return false
	}
	if c := s[len(s)-1]; c < '0' || c > '9' {
		return false
	}
	var n json.Number
	return json.Unmarshal([]byte(s), &n) == nil
}

// exactNumber parses lit as a rational when it is within MaxNumberLiteral and
// MaxNumberExponent.
func exactNumber(lit string) (*big.Rat, bool) {
	if len(lit) > MaxNumberLiteral {
		return nil, false
	}
	if i := strings.IndexAny(lit, "eE"); i >= 0 {
		exp, err := strconv.Atoi(lit[i+1:])
		if err != nil || exp > MaxNumberExponent || exp < -MaxNumberExponent {
			return nil, false
		}
	}
	return new(big.Rat).SetString(lit)
}
