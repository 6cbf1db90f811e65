// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

// trie is a rune trie whose children keep first-insertion order, so a
// depth-first walk visits keys in the order they were first added.
// Re-inserting a key replaces its value without moving it.
type trie struct {
	root trieNode
}

type trieNode struct {
	value    *Institution
	labels   []rune
	children []*trieNode
}

func (n *trieNode) child(r rune) *trieNode {
	for i, l := range n.labels {
		if l == r {
			return n.children[i]
		}
	}
	return nil
}

func (t *trie) insert(key string, v *Institution) {
	n := &t.root
	for _, r := range key {
		c := n.child(r)
		if c == nil {
			c = &trieNode{}
			n.labels = append(n.labels, r)
			n.children = append(n.children, c)
		}
		n = c
	}
	n.value = v
}

// firstWithPrefix returns the first value, in pre-order, under the node
// for prefix. An exact key therefore beats any longer key.
func (t *trie) firstWithPrefix(prefix string) *Institution {
	n := &t.root
	for _, r := range prefix {
		n = n.child(r)
		if n == nil {
			return nil
		}
	}
	return n.first()
}

func (n *trieNode) first() *Institution {
	if n.value != nil {
		return n.value
	}
	for _, c := range n.children {
		if v := c.first(); v != nil {
			return v
		}
	}
	return nil
}
