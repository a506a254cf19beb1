// Package diff compares a reference hierarchy against a damaged one and
// produces forests of missing bones and of mesh objects.
package diff

import "skinrepair/internal/scene"

// SourceRef is a weak reference to the originating reference-tree node. The
// reference tree is usually a temporary instance destroyed right after the
// comparison, so the node is only returned while it is still alive.
type SourceRef struct {
	node *scene.Node
}

// Node returns the referenced node if it has not been destroyed.
func (r SourceRef) Node() (*scene.Node, bool) {
	if !scene.Alive(r.node) {
		return nil, false
	}
	return r.node, true
}

// BoneNode is one entry of a diff forest.
type BoneNode struct {
	Name     string
	FullPath string
	Source   SourceRef
	Children []*BoneNode
}

func newBoneNode(n *scene.Node, path string) *BoneNode {
	return &BoneNode{Name: n.Name(), FullPath: path, Source: SourceRef{node: n}}
}

// CountNodes counts every entry of a forest, nested ones included.
func CountNodes(forest []*BoneNode) int {
	count := 0
	for _, n := range forest {
		count++
		count += CountNodes(n.Children)
	}
	return count
}

// Walk visits entries in pre-order with their nesting depth.
func Walk(forest []*BoneNode, fn func(n *BoneNode, depth int)) {
	var walk func(nodes []*BoneNode, depth int)
	walk = func(nodes []*BoneNode, depth int) {
		for _, n := range nodes {
			fn(n, depth)
			walk(n.Children, depth+1)
		}
	}
	walk(forest, 0)
}

// Find returns the entry with the given full path, or nil.
func Find(forest []*BoneNode, fullPath string) *BoneNode {
	var found *BoneNode
	Walk(forest, func(n *BoneNode, _ int) {
		if found == nil && n.FullPath == fullPath {
			found = n
		}
	})
	return found
}
