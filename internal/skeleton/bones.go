package skeleton

import (
	"skinrepair/internal/mathutil"
	"skinrepair/internal/scene"
)

// BuildWorldMatrices computes the world transform of every node below root
// from the local transforms, treating root's parent space as the world.
func BuildWorldMatrices(root *scene.Node) map[*scene.Node]mathutil.Mat4 {
	worlds := make(map[*scene.Node]mathutil.Mat4)
	var walk func(n *scene.Node, parent mathutil.Mat4)
	walk = func(n *scene.Node, parent mathutil.Mat4) {
		w := mathutil.Mat4Mul(parent, n.LocalTransform().Matrix())
		worlds[n] = w
		for _, c := range n.Children() {
			walk(c, w)
		}
	}
	walk(root, mathutil.Mat4Identity())
	return worlds
}

// Segment is a parent-to-child link in world space.
type Segment struct {
	Parent, Child *scene.Node
	From, To      mathutil.Vec3
}

// Segments lists every parent-child link below root using world positions.
// Links into mesh objects are included; callers filter by Child.HasRenderer.
func Segments(root *scene.Node, worlds map[*scene.Node]mathutil.Mat4) []Segment {
	var segs []Segment
	root.Walk(func(n *scene.Node) bool {
		for _, c := range n.Children() {
			segs = append(segs, Segment{
				Parent: n,
				Child:  c,
				From:   worlds[n].Translation(),
				To:     worlds[c].Translation(),
			})
		}
		return true
	})
	return segs
}
