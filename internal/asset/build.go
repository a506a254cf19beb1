package asset

import (
	"fmt"
	"strings"

	"skinrepair/internal/hierarchy"
	"skinrepair/internal/mathutil"
	"skinrepair/internal/scene"
)

// Build creates a fresh hierarchy from doc. Meshes and materials with the
// same name share one instance. Bone and root bone paths that do not
// resolve are left empty.
func Build(doc Document) (*scene.Node, error) {
	b := &builder{
		meshes:    make(map[string]*scene.Mesh),
		materials: make(map[string]*scene.Material),
	}
	if err := validate(doc.Root, ""); err != nil {
		return nil, err
	}
	root := b.node(doc.Root, nil)
	for _, p := range b.pending {
		b.bind(root, p)
	}
	return root, nil
}

type pendingSkin struct {
	node *scene.Node
	skin *SkinDoc
}

type builder struct {
	meshes    map[string]*scene.Mesh
	materials map[string]*scene.Material
	pending   []pendingSkin
}

func (b *builder) node(d NodeDoc, parent *scene.Node) *scene.Node {
	var n *scene.Node
	if parent == nil {
		n = scene.NewNode(d.Name)
	} else {
		n = parent.CreateChild(d.Name)
	}
	n.SetLocalTransform(transformOf(d))

	if r := d.Renderer; r != nil {
		n.SetRenderer(&scene.Renderer{
			Mesh:      b.mesh(r.Mesh, r.Vertices),
			Materials: b.materialList(r.Materials),
			Enabled:   !r.Disabled,
		})
	}
	if d.Skin != nil {
		b.pending = append(b.pending, pendingSkin{node: n, skin: d.Skin})
	}
	for _, c := range d.Children {
		b.node(c, n)
	}
	return n
}

// validate rejects names that cannot round-trip through a path.
func validate(d NodeDoc, parent string) error {
	if d.Name == "" {
		return fmt.Errorf("asset: unnamed node under %q", parent)
	}
	if strings.Contains(d.Name, hierarchy.Separator) {
		return fmt.Errorf("asset: node name %q contains %q", d.Name, hierarchy.Separator)
	}
	path := hierarchy.JoinPath(parent, d.Name)
	for _, c := range d.Children {
		if err := validate(c, path); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) bind(root *scene.Node, p pendingSkin) {
	s := p.skin
	skin := p.node.AddSkinnedRenderer()
	skin.Mesh = b.mesh(s.Mesh, s.Vertices)
	skin.Materials = b.materialList(s.Materials)
	skin.UpdateWhenOffscreen = s.UpdateWhenOffscreen
	if s.Bounds != nil {
		skin.LocalBounds = scene.Bounds{Center: s.Bounds.Center, Extents: s.Bounds.Extents}
	}
	skin.Bones = make([]*scene.Node, len(s.Bones))
	for i, path := range s.Bones {
		if path == nil {
			continue
		}
		skin.Bones[i] = hierarchy.FindByPath(root, *path)
	}
	if s.RootBone != nil {
		skin.RootBone = hierarchy.FindByPath(root, *s.RootBone)
	}
	if s.Disabled {
		skin.SetEnabled(false)
	}
}

func (b *builder) mesh(name string, vertices int) *scene.Mesh {
	if name == "" {
		return nil
	}
	if m, ok := b.meshes[name]; ok {
		return m
	}
	m := &scene.Mesh{Name: name, VertexCount: vertices}
	b.meshes[name] = m
	return m
}

func (b *builder) materialList(docs []*MaterialDoc) []*scene.Material {
	if len(docs) == 0 {
		return nil
	}
	out := make([]*scene.Material, len(docs))
	for i, d := range docs {
		if d == nil {
			continue
		}
		if m, ok := b.materials[d.Name]; ok {
			out[i] = m
			continue
		}
		m := &scene.Material{Name: d.Name, Shader: d.Shader, Texture: d.Texture}
		b.materials[d.Name] = m
		out[i] = m
	}
	return out
}

func transformOf(d NodeDoc) scene.Transform {
	t := scene.IdentityTransform()
	if d.Position != nil {
		t.Position = *d.Position
	}
	switch {
	case d.Rotation != nil:
		t.Rotation = mathutil.Quat(*d.Rotation).Normalize()
	case d.Euler != nil:
		e := *d.Euler
		t.Rotation = mathutil.EulerToQuat(mathutil.Deg2Rad(e[0]), mathutil.Deg2Rad(e[1]), mathutil.Deg2Rad(e[2]))
	}
	if d.Scale != nil {
		t.Scale = *d.Scale
	}
	return t
}

// FromScene serializes the hierarchy under root. Bones outside root or
// destroyed become empty slots.
func FromScene(root *scene.Node, kind Kind) Document {
	return Document{Kind: kind, Name: root.Name(), Root: nodeDoc(root, root)}
}

func nodeDoc(n, root *scene.Node) NodeDoc {
	d := NodeDoc{Name: n.Name()}
	t := n.LocalTransform()
	if t.Position != (mathutil.Vec3{}) {
		p := [3]float64(t.Position)
		d.Position = &p
	}
	if t.Rotation != mathutil.QuatIdentity() {
		q := [4]float64(t.Rotation)
		d.Rotation = &q
	}
	if t.Scale != mathutil.Vec3One {
		s := [3]float64(t.Scale)
		d.Scale = &s
	}

	if r := n.Renderer(); r != nil {
		rd := &RendererDoc{Materials: materialDocs(r.Materials), Disabled: !r.Enabled}
		if r.Mesh != nil {
			rd.Mesh, rd.Vertices = r.Mesh.Name, r.Mesh.VertexCount
		}
		d.Renderer = rd
	}
	if s := n.SkinnedRenderer(); s != nil {
		d.Skin = skinDoc(s, root)
	}
	for _, c := range n.Children() {
		d.Children = append(d.Children, nodeDoc(c, root))
	}
	return d
}

func skinDoc(s *scene.SkinnedRenderer, root *scene.Node) *SkinDoc {
	sd := &SkinDoc{
		Materials:           materialDocs(s.Materials),
		UpdateWhenOffscreen: s.UpdateWhenOffscreen,
		Disabled:            !s.Enabled(),
	}
	if s.Mesh != nil {
		sd.Mesh, sd.Vertices = s.Mesh.Name, s.Mesh.VertexCount
	}
	if s.LocalBounds != (scene.Bounds{}) {
		sd.Bounds = &BoundsDoc{Center: s.LocalBounds.Center, Extents: s.LocalBounds.Extents}
	}
	sd.Bones = make([]*string, len(s.Bones))
	for i, bone := range s.Bones {
		sd.Bones[i] = pathRef(bone, root)
	}
	sd.RootBone = pathRef(s.RootBone, root)
	return sd
}

func pathRef(n, root *scene.Node) *string {
	if !scene.Alive(n) {
		return nil
	}
	p, ok := hierarchy.RelativePath(n, root)
	if !ok {
		return nil
	}
	return &p
}

func materialDocs(ms []*scene.Material) []*MaterialDoc {
	if len(ms) == 0 {
		return nil
	}
	out := make([]*MaterialDoc, len(ms))
	for i, m := range ms {
		if m != nil {
			out[i] = &MaterialDoc{Name: m.Name, Shader: m.Shader, Texture: m.Texture}
		}
	}
	return out
}
