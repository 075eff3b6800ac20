// Package docpath models structural paths into a document tree.
//
// A Path is an ordered sequence of steps; each step either selects an object
// member by key or an array item by index. Paths are values: Append never
// aliases the receiver's storage, and equality is structural.
package docpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/multiformats/go-varint"
)

// StepKind tags a Step.
type StepKind uint8

const (
	ObjectStepKind StepKind = 0x01
	ArrayStepKind  StepKind = 0x02
)

func (k StepKind) String() string {
	switch k {
	case ObjectStepKind:
		return "obj"
	case ArrayStepKind:
		return "arr"
	default:
		return fmt.Sprintf("StepKind(%d)", uint8(k))
	}
}

// Step is one hop in a Path.
type Step struct {
	Kind  StepKind
	Key   string
	Index int
}

// ObjectStep selects the member named key.
func ObjectStep(key string) Step { return Step{Kind: ObjectStepKind, Key: key} }

// ArrayStep selects the item at index i.
func ArrayStep(i int) Step { return Step{Kind: ArrayStepKind, Index: i} }

func (s Step) String() string {
	if s.Kind == ArrayStepKind {
		return "arr:" + strconv.Itoa(s.Index)
	}
	return "obj:" + escapeKey(s.Key)
}

// Path addresses a leaf. The zero value is the root path.
type Path struct {
	steps []Step
}

// New returns a path made of steps.
func New(steps ...Step) Path {
	return Path{steps: append([]Step(nil), steps...)}
}

// Append returns a new path with s appended.
func (p Path) Append(s Step) Path {
	out := make([]Step, len(p.steps)+1)
	copy(out, p.steps)
	out[len(p.steps)] = s
	return Path{steps: out}
}

func (p Path) Len() int { return len(p.steps) }

// Steps returns a copy of the steps.
func (p Path) Steps() []Step { return append([]Step(nil), p.steps...) }

func (p Path) Equal(o Path) bool {
	if len(p.steps) != len(o.steps) {
		return false
	}
	for i := range p.steps {
		if p.steps[i] != o.steps[i] {
			return false
		}
	}
	return true
}

// String renders the display form, e.g. [arr:1,obj:key,arr:0].
// Backslash, comma and closing bracket in keys are backslash-escaped.
func (p Path) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, s := range p.steps {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s.String())
	}
	b.WriteByte(']')
	return b.String()
}

// Encode returns the injective binary encoding used as hash-to-curve input.
//
// Layout: uvarint(step count), then per step the kind byte followed by
// uvarint(len(key)) || key for object steps, or uvarint(index) for array steps.
func (p Path) Encode() []byte {
	out := varint.ToUvarint(uint64(len(p.steps)))
	for _, s := range p.steps {
		out = append(out, byte(s.Kind))
		switch s.Kind {
		case ArrayStepKind:
			out = append(out, varint.ToUvarint(uint64(s.Index))...)
		default:
			out = append(out, varint.ToUvarint(uint64(len(s.Key)))...)
			out = append(out, s.Key...)
		}
	}
	return out
}

// Decode is the inverse of Encode.
func Decode(b []byte) (Path, error) {
	n, read, err := varint.FromUvarint(b)
	if err != nil {
		return Path{}, fmt.Errorf("docpath: step count: %w", err)
	}
	b = b[read:]
	if n > uint64(len(b)) {
		return Path{}, fmt.Errorf("docpath: step count %d exceeds input", n)
	}
	steps := make([]Step, 0, n)
	for i := uint64(0); i < n; i++ {
		if len(b) == 0 {
			return Path{}, fmt.Errorf("docpath: truncated at step %d", i)
		}
		kind := StepKind(b[0])
		b = b[1:]
		v, read, err := varint.FromUvarint(b)
		if err != nil {
			return Path{}, fmt.Errorf("docpath: step %d: %w", i, err)
		}
		b = b[read:]
		switch kind {
		case ArrayStepKind:
			if v > uint64(maxIndex) {
				return Path{}, fmt.Errorf("docpath: step %d: index overflow", i)
			}
			steps = append(steps, ArrayStep(int(v)))
		case ObjectStepKind:
			if v > uint64(len(b)) {
				return Path{}, fmt.Errorf("docpath: step %d: truncated key", i)
			}
			steps = append(steps, ObjectStep(string(b[:v])))
			b = b[v:]
		default:
			return Path{}, fmt.Errorf("docpath: step %d: unknown kind 0x%02x", i, byte(kind))
		}
	}
	if len(b) != 0 {
		return Path{}, fmt.Errorf("docpath: %d trailing bytes", len(b))
	}
	return Path{steps: steps}, nil
}

const maxIndex = int(^uint(0) >> 1)

// Compare orders paths by their encodings, giving a stable total order.
func Compare(a, b Path) int {
	return strings.Compare(string(a.Encode()), string(b.Encode()))
}
