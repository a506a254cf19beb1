// Package scene is the in-process host scene graph the repair core operates on:
// named nodes with ordered children, local transforms and attached render
// components. Node references held elsewhere are weak; a destroyed node stays
// addressable but reports Destroyed and is detached from its parent.
package scene

import "skinrepair/internal/mathutil"

// Transform is a node's local position, rotation and scale.
type Transform struct {
	Position mathutil.Vec3
	Rotation mathutil.Quat
	Scale    mathutil.Vec3
}

// IdentityTransform returns the transform of a freshly created node.
func IdentityTransform() Transform {
	return Transform{
		Rotation: mathutil.QuatIdentity(),
		Scale:    mathutil.Vec3One,
	}
}

// Matrix returns the local TRS matrix.
func (t Transform) Matrix() mathutil.Mat4 {
	return mathutil.TRS(t.Position, t.Rotation, t.Scale)
}

// Node is one element of a scene hierarchy.
type Node struct {
	name      string
	parent    *Node
	children  []*Node
	local     Transform
	renderer  *Renderer
	skinned   *SkinnedRenderer
	destroyed bool
}

// NewNode creates a detached node with an identity transform.
func NewNode(name string) *Node {
	return &Node{name: name, local: IdentityTransform()}
}

func (n *Node) Name() string { return n.name }

func (n *Node) Parent() *Node { return n.parent }

// Children returns the ordered child list. Callers must not modify it.
func (n *Node) Children() []*Node { return n.children }

func (n *Node) ChildCount() int { return len(n.children) }

// Find returns the first direct child with the given name, or nil.
func (n *Node) Find(name string) *Node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// CreateChild creates a new node under n.
func (n *Node) CreateChild(name string) *Node {
	c := NewNode(name)
	c.SetParent(n)
	return c
}

// SetParent moves n under parent, appending it as the last child.
// A nil parent detaches n. The local transform is kept as is.
func (n *Node) SetParent(parent *Node) {
	if n.parent != nil {
		n.parent.removeChild(n)
	}
	n.parent = parent
	if parent != nil {
		parent.children = append(parent.children, n)
	}
}

func (n *Node) removeChild(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i:i], n.children[i+1:]...)
			return
		}
	}
}

// Root walks parent links to the top of the hierarchy.
func (n *Node) Root() *Node {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

func (n *Node) LocalTransform() Transform { return n.local }

func (n *Node) SetLocalTransform(t Transform) { n.local = t }

// SetLocalPosition and SetLocalRotation are used by the asset instantiator
// to reset a temporary instance's placement.
func (n *Node) SetLocalPosition(p mathutil.Vec3) { n.local.Position = p }

func (n *Node) SetLocalRotation(q mathutil.Quat) { n.local.Rotation = q }

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the visited node's subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// Destroy detaches n and marks its whole subtree destroyed.
func (n *Node) Destroy() {
	if n.parent != nil {
		n.parent.removeChild(n)
		n.parent = nil
	}
	n.Walk(func(d *Node) bool {
		d.destroyed = true
		return true
	})
}

func (n *Node) Destroyed() bool { return n.destroyed }

// Alive reports whether n is a usable reference.
func Alive(n *Node) bool {
	return n != nil && !n.destroyed
}
