package diff

import (
	"skinrepair/internal/hierarchy"
	"skinrepair/internal/scene"
)

// DiffBones returns the topmost missing bones at or below source.
// currentPath is source's path in the target's coordinate system.
//
// Mesh objects and everything beneath them are skipped. A missing node is
// reported once with its whole non-mesh subtree bundled as children; a present
// node contributes only the results of its children.
func DiffBones(source *scene.Node, target hierarchy.PathIndex, currentPath string) []*BoneNode {
	if source.HasRenderer() {
		return nil
	}
	if !target.Has(currentPath) {
		return []*BoneNode{bundle(source, currentPath)}
	}
	var result []*BoneNode
	for _, c := range source.Children() {
		result = append(result, DiffBones(c, target, hierarchy.JoinPath(currentPath, c.Name()))...)
	}
	return result
}

// bundle mirrors a missing subtree without re-testing presence.
func bundle(n *scene.Node, path string) *BoneNode {
	bn := newBoneNode(n, path)
	for _, c := range n.Children() {
		if c.HasRenderer() {
			continue
		}
		bn.Children = append(bn.Children, bundle(c, hierarchy.JoinPath(path, c.Name())))
	}
	return bn
}

// DiffFromRoot runs DiffBones on every child of the compare root. rootPath is
// the compare root's path; the compare root itself is never a candidate.
func DiffFromRoot(compareRoot *scene.Node, rootPath string, target hierarchy.PathIndex) []*BoneNode {
	var result []*BoneNode
	for _, c := range compareRoot.Children() {
		result = append(result, DiffBones(c, target, hierarchy.JoinPath(rootPath, c.Name()))...)
	}
	return result
}

// CollectMeshes gathers every mesh object below root, missing or not. A mesh
// nested under another mesh is nested in the result; non-mesh nodes in
// between are transparent.
func CollectMeshes(root *scene.Node) []*BoneNode {
	var forest []*BoneNode
	collectMeshes(root, "", &forest)
	return forest
}

func collectMeshes(n *scene.Node, path string, out *[]*BoneNode) {
	if n.HasRenderer() {
		mesh := newBoneNode(n, path)
		for _, c := range n.Children() {
			collectMeshes(c, hierarchy.JoinPath(path, c.Name()), &mesh.Children)
		}
		*out = append(*out, mesh)
		return
	}
	for _, c := range n.Children() {
		collectMeshes(c, hierarchy.JoinPath(path, c.Name()), out)
	}
}

// IsMissing reports whether an entry's path is absent from the target.
func IsMissing(n *BoneNode, target hierarchy.PathIndex) bool {
	return !target.Has(n.FullPath)
}

// FilterMissing keeps the missing entries of a mesh forest. A missing entry
// keeps its full subtree for display; the missing descendants of a present
// entry are lifted into its place.
func FilterMissing(forest []*BoneNode, target hierarchy.PathIndex) []*BoneNode {
	var result []*BoneNode
	for _, n := range forest {
		if IsMissing(n, target) {
			result = append(result, n)
			continue
		}
		result = append(result, FilterMissing(n.Children, target)...)
	}
	return result
}
