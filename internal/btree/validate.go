package btree

import "github.com/spaolacci/murmur3"

// Validate reports whether every tree invariant from spec §3 holds:
// minimum key counts, children-count == keys-count+1 for internal nodes,
// strictly increasing keys, separator bounds, leaf-chain ascending order,
// and correct parent back-references.
func (t *Tree) Validate() bool {
	if t.root == nil {
		return false
	}
	if !validateNode(t, t.root, true) {
		return false
	}
	return validateLeafChain(t)
}

func validateNode(t *Tree, n *node, isRoot bool) bool {
	if !isRoot && len(n.keys) < t.minKeys {
		return false
	}
	for i := 1; i < len(n.keys); i++ {
		if !(n.keys[i-1] < n.keys[i]) {
			return false
		}
	}

	if n.leaf {
		return len(n.keys) == len(n.values)
	}

	if len(n.children) != len(n.keys)+1 {
		return false
	}
	for i, c := range n.children {
		if c.parent != n {
			return false
		}
		if i > 0 {
			if !boundsOK(c, n.keys[i-1], true) {
				return false
			}
		}
		if i < len(n.keys) {
			if !boundsOK(c, n.keys[i], false) {
				return false
			}
		}
		if !validateNode(t, c, false) {
			return false
		}
	}
	return true
}

// boundsOK checks that separator sits correctly relative to child's key
// range: for the child to the right of separator sep, min key >= sep; for
// the child to the left of sep, max key < sep (strict, since equal keys
// route right per the ">=-style" split/search rule).
func boundsOK(c *node, sep string, isRightChild bool) bool {
	min, max, ok := nodeKeyRange(c)
	if !ok {
		return true // empty child, vacuously fine
	}
	if isRightChild {
		return min >= sep
	}
	return max < sep
}

func nodeKeyRange(n *node) (min, max string, ok bool) {
	if n.leaf {
		if len(n.keys) == 0 {
			return "", "", false
		}
		return n.keys[0], n.keys[len(n.keys)-1], true
	}
	if len(n.children) == 0 {
		return "", "", false
	}
	lmin, _, lok := nodeKeyRange(n.children[0])
	_, rmax, rok := nodeKeyRange(n.children[len(n.children)-1])
	if !lok || !rok {
		return "", "", false
	}
	return lmin, rmax, true
}

// validateLeafChain walks the leaf chain from the leftmost leaf and checks
// strictly ascending order across leaf boundaries, then cross-checks a
// murmur3 fingerprint of the walked keys against one computed from a plain
// in-order traversal, catching a leaf-chain that diverges from the tree
// structure itself (a stale `next` pointer left over from a buggy merge).
func validateLeafChain(t *Tree) bool {
	var chainKeys []string
	prev := ""
	first := true
	for leaf := t.leftmostLeaf(); leaf != nil; leaf = leaf.next {
		for _, k := range leaf.keys {
			if !first && !(prev < k) {
				return false
			}
			prev = k
			first = false
			chainKeys = append(chainKeys, k)
		}
	}

	var structKeys []string
	collectInOrder(t.root, &structKeys)

	return fingerprint(chainKeys) == fingerprint(structKeys)
}

func collectInOrder(n *node, out *[]string) {
	if n.leaf {
		*out = append(*out, n.keys...)
		return
	}
	for _, c := range n.children {
		collectInOrder(c, out)
	}
}

func fingerprint(keys []string) uint64 {
	h := murmur3.New64()
	for _, k := range keys {
		_, _ = h.Write([]byte(k))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}
