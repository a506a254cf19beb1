// Package skeleton finds the skeleton root of a character hierarchy and
// computes bind-pose world transforms over it.
package skeleton

import (
	"errors"
	"fmt"
	"strings"

	"skinrepair/internal/hierarchy"
	"skinrepair/internal/scene"
)

// ErrRootNotFound is returned when a manual root override has no equivalent
// node in the comparison tree.
var ErrRootNotFound = errors.New("skeleton root not found")

// DefaultKeywords are matched as lowercase substrings of node names.
var DefaultKeywords = []string{"armature", "hips", "rig"}

// Override names a node in another tree whose path should be used as the
// compare root. TreeRoot is the root that path is relative to.
type Override struct {
	Node     *scene.Node
	TreeRoot *scene.Node
}

// Location is the outcome of Locate.
type Location struct {
	Node *scene.Node
	// Path is relative to the searched root.
	Path string
	// Fallback is set when no keyword matched and the whole tree is used.
	Fallback bool
	// Manual is set when an override was resolved.
	Manual bool
}

// Locator searches for a conventionally named skeleton root.
type Locator struct {
	Keywords []string
}

// Locate picks the compare root inside root. index must be the path index of
// root. With an override, its path in its own tree is looked up in index.
// Otherwise a breadth-first search returns the first node whose lowercase
// name contains a keyword, or root itself with Fallback set.
func (l Locator) Locate(root *scene.Node, index hierarchy.PathIndex, override *Override) (Location, error) {
	if override != nil && override.Node != nil {
		path, ok := hierarchy.RelativePath(override.Node, override.TreeRoot)
		if !ok {
			return Location{}, fmt.Errorf("skeleton: override %q is outside its tree: %w", override.Node.Name(), ErrRootNotFound)
		}
		n := index.Lookup(path)
		if n == nil {
			return Location{}, fmt.Errorf("skeleton: override %q (%s): %w", override.Node.Name(), path, ErrRootNotFound)
		}
		return Location{Node: n, Path: path, Manual: true}, nil
	}

	keywords := l.Keywords
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}

	queue := []*scene.Node{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if matchesKeyword(cur.Name(), keywords) {
			path, _ := hierarchy.RelativePath(cur, root)
			return Location{Node: cur, Path: path}, nil
		}
		queue = append(queue, cur.Children()...)
	}
	return Location{Node: root, Path: "", Fallback: true}, nil
}

func matchesKeyword(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, k := range keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
