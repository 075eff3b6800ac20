package document

import "fmt"

// NodeKind tags a Node.
type NodeKind uint8

const (
	PrimitiveNode NodeKind = iota
	ObjectNode
	ArrayNode
)

func (k NodeKind) String() string {
	switch k {
	case PrimitiveNode:
		return "primitive"
	case ObjectNode:
		return "object"
	case ArrayNode:
		return "array"
	default:
		return fmt.Sprintf("NodeKind(%d)", uint8(k))
	}
}

// Field is an object member.
type Field struct {
	Key   string
	Value *Node
}

// Node is a document tree node.
type Node struct {
	kind   NodeKind
	fields []Field
	items  []*Node
	value  Value
}

// Object builds an object node. Duplicate keys follow the last-wins policy.
// Nil member values are stored as null.
func Object(fields ...Field) *Node {
	out := make([]Field, 0, len(fields))
	pos := make(map[string]int, len(fields))
	for _, f := range fields {
		v := f.Value
		if v == nil {
			v = Null()
		}
		if i, ok := pos[f.Key]; ok {
			out[i].Value = v
			continue
		}
		pos[f.Key] = len(out)
		out = append(out, Field{Key: f.Key, Value: v})
	}
	return &Node{kind: ObjectNode, fields: out}
}

// Array builds an array node. Nil items are stored as null.
func Array(items ...*Node) *Node {
	out := make([]*Node, len(items))
	for i, it := range items {
		if it == nil {
			it = Null()
		}
		out[i] = it
	}
	return &Node{kind: ArrayNode, items: out}
}

func Primitive(v Value) *Node { return &Node{kind: PrimitiveNode, value: v} }
func Null() *Node { return Primitive(NullValue()) }
func Bool(b bool) *Node { return Primitive(BoolValue(b)) }
func String(s string) *Node { return Primitive(StringValue(s)) }

// Number builds a number leaf from a JSON number literal.
func Number(literal string) (*Node, error) {
	v, err := NumberValue(literal)
	if err != nil {
		return nil, err
	}
	return Primitive(v), nil
}

// MustNumber is like Number but panics on an invalid literal.
func MustNumber(literal string) *Node {
	n, err := Number(literal)
	if err != nil {
		panic(err)
	}
	return n
}

func (n *Node) Kind() NodeKind { return n.kind }

// Fields returns a copy of the object's members in stored order.
func (n *Node) Fields() []Field { return append([]Field(nil), n.fields...) }

// Items returns a copy of the array's items.
func (n *Node) Items() []*Node { return append([]*Node(nil), n.items...) }

// Value returns the primitive value; it is null for non-primitive nodes.
func (n *Node) Value() Value { return n.value }

// Len returns the number of members or items; 0 for primitives.
func (n *Node) Len() int {
	switch n.kind {
	case ObjectNode:
		return len(n.fields)
	case ArrayNode:
		return len(n.items)
	default:
		return 0
	}
}

// Get returns the member named key.
func (n *Node) Get(key string) (*Node, bool) {
	for _, f := range n.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Index returns the i-th array item.
func (n *Node) Index(i int) (*Node, bool) {
	if i < 0 || i >= len(n.items) {
		return nil, false
	}
	return n.items[i], true
}

// Equal reports semantic equality: object members compare as unordered sets,
// numbers by numeric value.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case ObjectNode:
		if len(a.fields) != len(b.fields) {
			return false
		}
		for _, f := range a.fields {
			other, ok := b.Get(f.Key)
			if !ok || !Equal(f.Value, other) {
				return false
			}
		}
		return true
	case ArrayNode:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	default:
		return a.value.Equal(b.value)
	}
}
