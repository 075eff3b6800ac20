// Package traverse flattens a document tree into (path, leaf value) entries.
package traverse

import (
	"xdao.co/jcommit/docpath"
	"xdao.co/jcommit/document"
)

// Entry is one primitive leaf with its structural path.
type Entry struct {
	Path  docpath.Path
	Value document.Value
}

type item struct {
	node *document.Node
	path docpath.Path
}

// Traverse walks root breadth-first and returns one Entry per primitive leaf.
//
// The order is deterministic: object members in stored order, array items by
// index, shallower leaves before deeper ones. Empty containers contribute no
// entries; a primitive root yields a single entry at the root path.
func Traverse(root *document.Node) []Entry {
	var out []Entry
	_ = Walk(root, func(e Entry) error {
		out = append(out, e)
		return nil
	})
	return out
}

// Walk is the streaming form of Traverse. It stops at, and returns, the first
// error returned by fn.
func Walk(root *document.Node, fn func(Entry) error) error {
	if root == nil {
		return nil
	}
	queue := []item{{node: root}}
	for len(queue) > 0 {
		cur := queue[0]
		queue[0] = item{}
		queue = queue[1:]

		switch cur.node.Kind() {
		case document.ObjectNode:
			for _, f := range cur.node.Fields() {
				queue = append(queue, item{node: f.Value, path: cur.path.Append(docpath.ObjectStep(f.Key))})
			}
		case document.ArrayNode:
			for i, it := range cur.node.Items() {
				queue = append(queue, item{node: it, path: cur.path.Append(docpath.ArrayStep(i))})
			}
		default:
			if err := fn(Entry{Path: cur.path, Value: cur.node.Value()}); err != nil {
				return err
			}
		}
	}
	return nil
}
