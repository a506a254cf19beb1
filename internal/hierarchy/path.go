// Package hierarchy indexes scene trees by slash-delimited relative path and by
// bare node name. Indexes hold weak references into the tree they were built
// from and are rebuilt on every comparison.
package hierarchy

import (
	"strings"

	"skinrepair/internal/scene"
)

// Separator joins node names into a relative path. A root's own path is "".
const Separator = "/"

// JoinPath appends name to a parent path.
func JoinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + Separator + name
}

// ParentPath strips the last segment; top-level paths yield "".
func ParentPath(path string) string {
	i := strings.LastIndex(path, Separator)
	if i < 0 {
		return ""
	}
	return path[:i]
}

// BaseName returns the last segment of a path.
func BaseName(path string) string {
	return path[strings.LastIndex(path, Separator)+1:]
}

// RelativePath builds node's path from root. ok is false when node is not
// root or one of its descendants.
func RelativePath(node, root *scene.Node) (path string, ok bool) {
	if node == nil || root == nil {
		return "", false
	}
	var segments []string
	cur := node
	for cur != nil && cur != root {
		segments = append(segments, cur.Name())
		cur = cur.Parent()
	}
	if cur == nil {
		return "", false
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, Separator), true
}

// FindByPath resolves path segment by segment below root. At each level the
// first child with a matching name wins. "" resolves to root.
func FindByPath(root *scene.Node, path string) *scene.Node {
	if root == nil {
		return nil
	}
	if path == "" {
		return root
	}
	cur := root
	for _, seg := range strings.Split(path, Separator) {
		cur = cur.Find(seg)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// NodeCount counts root and all of its descendants.
func NodeCount(root *scene.Node) int {
	n := 0
	root.Walk(func(*scene.Node) bool {
		n++
		return true
	})
	return n
}
