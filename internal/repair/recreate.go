// Package repair rebuilds missing hierarchy nodes and rebinds skinned
// renderers against a repaired hierarchy.
package repair

import (
	"errors"
	"fmt"
	"log/slog"

	"skinrepair/internal/hierarchy"
	"skinrepair/internal/scene"
	"skinrepair/internal/undo"
)

var (
	// ErrMissingParent means a mesh node's parent path does not exist in the
	// target. Mesh recreation never creates ancestors.
	ErrMissingParent = errors.New("missing parent")
	// ErrSourceNotFound means the reference node is not under the reference root.
	ErrSourceNotFound = errors.New("source node not found")
)

// Recreator creates nodes in a target hierarchy mirroring a reference one.
type Recreator struct {
	Undo   undo.Recorder
	Logger *slog.Logger
}

// NewRecreator returns a Recreator; nil arguments fall back to no-ops.
func NewRecreator(rec undo.Recorder, logger *slog.Logger) *Recreator {
	if rec == nil {
		rec = undo.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recreator{Undo: rec, Logger: logger}
}

// BoneResult lists what one RecreateBone call did.
type BoneResult struct {
	// Created holds the paths of new nodes in creation order.
	Created []string
	// Skipped holds paths whose parent could not be resolved.
	Skipped []string
}

// RecreateBone makes source exist in target at the same relative path.
// Missing ancestors are created first, walking up source's parents. The new
// node copies source's local transform and is followed by its non-mesh
// children. Existing nodes are left untouched, so repeating a call is a no-op.
func (r *Recreator) RecreateBone(source, sourceRoot, targetRoot *scene.Node) BoneResult {
	var res BoneResult
	r.recreateBone(source, sourceRoot, targetRoot, &res)
	return res
}

func (r *Recreator) recreateBone(source, sourceRoot, targetRoot *scene.Node, res *BoneResult) {
	path, ok := hierarchy.RelativePath(source, sourceRoot)
	if !ok {
		r.Logger.Error("bone is outside the reference root", "bone", source.Name())
		res.Skipped = append(res.Skipped, source.Name())
		return
	}
	if hierarchy.FindByPath(targetRoot, path) != nil {
		return
	}

	parentPath := hierarchy.ParentPath(path)
	parent := hierarchy.FindByPath(targetRoot, parentPath)
	if parent == nil {
		if source.Parent() != nil && source != sourceRoot {
			r.recreateBone(source.Parent(), sourceRoot, targetRoot, res)
		}
		// Rebuilding the parent also rebuilds its bone children, this one included.
		if hierarchy.FindByPath(targetRoot, path) != nil {
			return
		}
		parent = hierarchy.FindByPath(targetRoot, parentPath)
		if parent == nil {
			r.Logger.Error("cannot rebuild bone, parent could not be found or created",
				"bone", path, "parent", parentPath)
			res.Skipped = append(res.Skipped, path)
			return
		}
	}

	bone := parent.CreateChild(source.Name())
	r.Undo.RegisterCreated(bone, "create bone")
	bone.SetLocalTransform(source.LocalTransform())
	res.Created = append(res.Created, path)
	r.Logger.Debug("bone created", "path", path)

	for _, c := range source.Children() {
		if c.HasRenderer() {
			continue
		}
		r.recreateBone(c, sourceRoot, targetRoot, res)
	}
}

// RecreateMesh creates a plain node for a missing mesh object at fullPath.
// The parent must already exist in target. When source is non-nil its local
// transform is copied.
func (r *Recreator) RecreateMesh(fullPath string, source, targetRoot *scene.Node) (*scene.Node, error) {
	parentPath := hierarchy.ParentPath(fullPath)
	parent := hierarchy.FindByPath(targetRoot, parentPath)
	if parent == nil {
		return nil, fmt.Errorf("repair: mesh %s: parent %q: %w", fullPath, parentPath, ErrMissingParent)
	}

	node := parent.CreateChild(hierarchy.BaseName(fullPath))
	r.Undo.RegisterCreated(node, "create mesh object")
	if source != nil {
		node.SetLocalTransform(source.LocalTransform())
	}
	r.Logger.Debug("mesh node created", "path", fullPath)
	return node, nil
}
