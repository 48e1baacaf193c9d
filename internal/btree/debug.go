package btree

import "fmt"

// DebugDump renders the tree structure depth-first, for use in failing
// test output — mirrors the teacher's LeafNode.DebugDump.
func (t *Tree) DebugDump() string {
	return dumpNode(t.root, 0)
}

func dumpNode(n *node, depth int) string {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	if n.leaf {
		return fmt.Sprintf("%sLeaf%v\n", indent, n.keys)
	}
	s := fmt.Sprintf("%sInternal%v\n", indent, n.keys)
	for _, c := range n.children {
		s += dumpNode(c, depth+1)
	}
	return s
}
