package document

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Build serializes n as compact JSON. Members are written in stored order and
// number literals verbatim, so Parse(Build(n)) is Equal to n.
func Build(n *Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := build(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func build(buf *bytes.Buffer, n *Node) error {
	if n == nil {
		buf.WriteString("null")
		return nil
	}
	switch n.kind {
	case ObjectNode:
		buf.WriteByte('{')
		for i, f := range n.fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(f.Key)
			if err != nil {
				return fmt.Errorf("document: encode key: %w", err)
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := build(buf, f.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case ArrayNode:
		buf.WriteByte('[')
		for i, it := range n.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := build(buf, it); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		b, err := n.value.MarshalJSON()
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	return nil
}
