package scene

import "skinrepair/internal/mathutil"

// Mesh is an opaque shared mesh asset reference.
type Mesh struct {
	Name        string
	VertexCount int
}

// Material is an opaque shared material reference.
type Material struct {
	Name    string
	Shader  string
	Texture string
}

// NewMaterial creates a fresh material using the named shader.
func NewMaterial(shader string) *Material {
	return &Material{Name: "Default-" + shader, Shader: shader}
}

// Bounds is an axis-aligned volume in the renderer's local space.
type Bounds struct {
	Center  mathutil.Vec3
	Extents mathutil.Vec3
}

// Renderer marks a node as drawing a static mesh.
type Renderer struct {
	Mesh      *Mesh
	Materials []*Material
	Enabled   bool
}

// SkinnedRenderer draws a mesh deformed by an ordered bone array. Bone weights
// in the mesh index into Bones by position.
type SkinnedRenderer struct {
	Mesh                *Mesh
	Materials           []*Material
	Bones               []*Node
	RootBone            *Node
	LocalBounds         Bounds
	UpdateWhenOffscreen bool

	enabled     bool
	reinitCount int
	dirty       bool
}

// Enabled reports the visibility flag.
func (r *SkinnedRenderer) Enabled() bool { return r.enabled }

// SetEnabled toggles visibility. Going from disabled to enabled makes the
// render pipeline rebuild its skinning state.
func (r *SkinnedRenderer) SetEnabled(v bool) {
	if v && !r.enabled {
		r.reinitCount++
	}
	r.enabled = v
}

// ReinitCount is how many times skinning state has been rebuilt.
func (r *SkinnedRenderer) ReinitCount() int { return r.reinitCount }

// MarkDirty flags the component as changed for the host to persist.
func (r *SkinnedRenderer) MarkDirty() { r.dirty = true }

func (r *SkinnedRenderer) Dirty() bool { return r.dirty }

func (n *Node) Renderer() *Renderer { return n.renderer }

func (n *Node) SetRenderer(r *Renderer) { n.renderer = r }

func (n *Node) SkinnedRenderer() *SkinnedRenderer { return n.skinned }

// AddSkinnedRenderer attaches a new, enabled skinned renderer to n.
func (n *Node) AddSkinnedRenderer() *SkinnedRenderer {
	n.skinned = &SkinnedRenderer{enabled: true}
	return n.skinned
}

// HasRenderer reports whether n carries any render component. Such nodes are
// mesh objects, never bones.
func (n *Node) HasRenderer() bool {
	return n.renderer != nil || n.skinned != nil
}
