package document

import (
	"fmt"
	"math/big"
	"strings"

	"gopkg.in/yaml.v3"
)

// maxYAMLNodes bounds the size of the tree produced by alias expansion.
const maxYAMLNodes = 1 << 20

// ParseYAML parses a single YAML document into a Node.
//
// Aliases are expanded into duplicated subtrees; an alias that refers to one
// of its own ancestors is rejected. Mapping keys must be scalars. Duplicate
// keys follow the same last-wins policy as Parse.
func ParseYAML(text []byte) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(text, &doc); err != nil {
		return nil, &ParseError{Offset: -1, Msg: "malformed YAML", Cause: err}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, &ParseError{Offset: 0, Msg: "empty document"}
	}
	c := &yamlConverter{active: make(map[*yaml.Node]bool)}
	return c.convert(doc.Content[0], 0)
}

type yamlConverter struct {
	active map[*yaml.Node]bool
	count  int
}

func (c *yamlConverter) fail(n *yaml.Node, msg string, cause error) error {
	return &ParseError{Offset: -1, Line: n.Line, Msg: msg, Cause: cause}
}

func (c *yamlConverter) convert(n *yaml.Node, depth int) (*Node, error) {
	if depth > MaxDepth {
		return nil, c.fail(n, "nesting too deep", nil)
	}
	c.count++
	if c.count > maxYAMLNodes {
		return nil, c.fail(n, "document too large after alias expansion", nil)
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return c.convert(n.Content[0], depth)
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, c.fail(n, "dangling alias", nil)
		}
		if c.active[n.Alias] {
			return nil, c.fail(n, "recursive alias *"+n.Value, nil)
		}
		return c.convert(n.Alias, depth+1)
	case yaml.MappingNode:
		c.active[n] = true
		defer delete(c.active, n)
		if len(n.Content)%2 != 0 {
			return nil, c.fail(n, "odd mapping content", nil)
		}
		fields := make([]Field, 0, len(n.Content)/2)
		for i := 0; i < len(n.Content); i += 2 {
			k := n.Content[i]
			for k.Kind == yaml.AliasNode && k.Alias != nil {
				k = k.Alias
			}
			if k.Kind != yaml.ScalarNode {
				return nil, c.fail(k, "mapping key must be a scalar", nil)
			}
			if k.ShortTag() == "!!merge" {
				return nil, c.fail(k, "merge keys are not supported", nil)
			}
			child, err := c.convert(n.Content[i+1], depth+1)
			if err != nil {
				return nil, err
			}
			fields = append(fields, Field{Key: k.Value, Value: child})
		}
		return Object(fields...), nil
	case yaml.SequenceNode:
		c.active[n] = true
		defer delete(c.active, n)
		items := make([]*Node, 0, len(n.Content))
		for _, it := range n.Content {
			child, err := c.convert(it, depth+1)
			if err != nil {
				return nil, err
			}
			items = append(items, child)
		}
		return Array(items...), nil
	case yaml.ScalarNode:
		return c.scalar(n)
	default:
		return nil, c.fail(n, fmt.Sprintf("unsupported YAML node kind %d", n.Kind), nil)
	}
}

func (c *yamlConverter) scalar(n *yaml.Node) (*Node, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, c.fail(n, "invalid bool", err)
		}
		return Bool(b), nil
	case "!!int":
		lit, err := yamlInt(n.Value)
		if err != nil {
			return nil, c.fail(n, "invalid integer", err)
		}
		return MustNumber(lit), nil
	case "!!float":
		lit, err := yamlFloat(n.Value)
		if err != nil {
			return nil, c.fail(n, "invalid number", err)
		}
		v, err := NumberValue(lit)
		if err != nil {
			return nil, c.fail(n, "invalid number", err)
		}
		return Primitive(v), nil
	default:
		return String(n.Value), nil
	}
}

// yamlInt normalizes a YAML integer literal (decimal, 0x, 0o, 0b, legacy
// leading-zero octal, with optional sign and underscores) to a decimal JSON
// literal of any size. Leading-zero octal matches yaml.v3's own decoding.
func yamlInt(s string) (string, error) {
	t := strings.ReplaceAll(s, "_", "")
	neg := false
	switch {
	case strings.HasPrefix(t, "-"):
		neg = true
		t = t[1:]
	case strings.HasPrefix(t, "+"):
		t = t[1:]
	}
	base := 10
	switch {
	case strings.HasPrefix(t, "0x"), strings.HasPrefix(t, "0X"):
		base, t = 16, t[2:]
	case strings.HasPrefix(t, "0o"), strings.HasPrefix(t, "0O"):
		base, t = 8, t[2:]
	case strings.HasPrefix(t, "0b"), strings.HasPrefix(t, "0B"):
		base, t = 2, t[2:]
	case len(t) > 1 && t[0] == '0':
		base, t = 8, t[1:]
	}
	x, ok := new(big.Int).SetString(t, base)
	if !ok || t == "" {
		return "", fmt.Errorf("cannot parse %q", s)
	}
	if neg {
		x.Neg(x)
	}
	return x.String(), nil
}

// yamlFloat rewrites a YAML float literal into a JSON number literal without
// changing its value: underscores and a leading '+' are dropped, ".5" and
// "1." gain the missing zero, and leading zeros are trimmed. Infinities and
// NaN are rejected.
func yamlFloat(s string) (string, error) {
	t := strings.ReplaceAll(s, "_", "")
	sign := ""
	switch {
	case strings.HasPrefix(t, "-"):
		sign, t = "-", t[1:]
	case strings.HasPrefix(t, "+"):
		t = t[1:]
	}
	switch strings.ToLower(t) {
	case ".inf", ".nan":
		return "", fmt.Errorf("non-finite number %q", s)
	}

	mant, exp := t, ""
	if i := strings.IndexAny(t, "eE"); i >= 0 {
		mant, exp = t[:i], t[i:]
	}
	intPart, frac, hasDot := strings.Cut(mant, ".")
	intPart = strings.TrimLeft(intPart, "0")
	if intPart == "" {
		intPart = "0"
	}
	lit := sign + intPart
	if hasDot {
		if frac == "" {
			frac = "0"
		}
		lit += "." + frac
	}
	lit += exp
	if !validNumber(lit) {
		return "", fmt.Errorf("cannot parse %q", s)
	}
	return lit, nil
}
