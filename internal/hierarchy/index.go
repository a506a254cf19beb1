package hierarchy

import "skinrepair/internal/scene"

// PathIndex maps relative path to node for a whole tree. The root is keyed "".
type PathIndex map[string]*scene.Node

// BuildPathIndex indexes root and every descendant by path relative to root.
// With duplicate sibling names the first sibling keeps the path and the later
// sibling's subtree is not indexed, matching FindByPath.
func BuildPathIndex(root *scene.Node) PathIndex {
	idx := PathIndex{"": root}
	for _, c := range root.Children() {
		idx.add(c, c.Name())
	}
	return idx
}

func (idx PathIndex) add(n *scene.Node, path string) {
	if _, exists := idx[path]; exists {
		return
	}
	idx[path] = n
	for _, c := range n.Children() {
		idx.add(c, JoinPath(path, c.Name()))
	}
}

// Has reports whether path is present.
func (idx PathIndex) Has(path string) bool {
	_, ok := idx[path]
	return ok
}

// Lookup returns the node at path, or nil.
func (idx PathIndex) Lookup(path string) *scene.Node {
	return idx[path]
}

// NameIndex maps a bare node name to the first node carrying it.
type NameIndex map[string]*scene.Node

// BuildNameIndex visits root first, then each child's subtree in order.
// Later nodes with an already seen name are not indexed.
func BuildNameIndex(root *scene.Node) NameIndex {
	idx := NameIndex{}
	if root == nil {
		return idx
	}
	root.Walk(func(n *scene.Node) bool {
		if _, exists := idx[n.Name()]; !exists {
			idx[n.Name()] = n
		}
		return true
	})
	return idx
}

// Lookup returns the node indexed under name, or nil.
func (idx NameIndex) Lookup(name string) *scene.Node {
	return idx[name]
}
