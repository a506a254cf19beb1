package repair

import (
	"skinrepair/internal/hierarchy"
	"skinrepair/internal/scene"
	"skinrepair/internal/undo"
)

// DefaultRootFallbacks are tried in order when the source root bone's name
// does not resolve in the target.
var DefaultRootFallbacks = []string{"Hips", "Bip001", "Bip01", "Root", "Pelvis", "Armature"}

// DefaultShader is used for materials created to fill empty slots.
const DefaultShader = "Standard"

// RootSource says how a rebind picked the root bone.
type RootSource int

const (
	RootFromSource RootSource = iota
	RootFromFallback
	RootFromTreeRoot
)

func (s RootSource) String() string {
	switch s {
	case RootFromSource:
		return "source"
	case RootFromFallback:
		return "fallback"
	case RootFromTreeRoot:
		return "tree root"
	}
	return "unknown"
}

// RebindResult reports the outcome of one rebind.
type RebindResult struct {
	Matched    int
	Total      int
	Lost       []string
	RootBone   *scene.Node
	RootSource RootSource
	// Defaulted counts material slots that were empty in the source.
	Defaulted int
}

// Rate is Matched/Total, or 0 for an empty bone array.
func (r RebindResult) Rate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Matched) / float64(r.Total)
}

// Rebinder re-resolves a skinned renderer's bindings by bone name.
type Rebinder struct {
	RootFallbacks []string
	Shader        string
	Undo          undo.Recorder
}

// NewRebinder returns a Rebinder using the default fallbacks and shader.
func NewRebinder(rec undo.Recorder) *Rebinder {
	if rec == nil {
		rec = undo.Nop{}
	}
	return &Rebinder{RootFallbacks: DefaultRootFallbacks, Shader: DefaultShader, Undo: rec}
}

// Rebind copies mesh, materials and bounds from source to target and rebuilds
// target's bone array and root bone by name against targetRoot's tree.
//
// The bone array keeps source's length and slot order; unresolved slots stay
// nil. The root bone is never left nil.
func (b *Rebinder) Rebind(owner *scene.Node, target, source *scene.SkinnedRenderer, targetRoot *scene.Node) RebindResult {
	if b.Undo != nil && owner != nil {
		b.Undo.RecordComponent(owner, "rebind skinned mesh")
	}
	names := hierarchy.BuildNameIndex(targetRoot)

	var res RebindResult
	target.Mesh = source.Mesh
	target.Materials, res.Defaulted = b.materials(source.Materials)
	target.LocalBounds = source.LocalBounds

	bones := make([]*scene.Node, len(source.Bones))
	res.Total = len(source.Bones)
	for i, sb := range source.Bones {
		if !scene.Alive(sb) {
			continue
		}
		if m := names.Lookup(sb.Name()); m != nil {
			bones[i] = m
			res.Matched++
			continue
		}
		res.Lost = append(res.Lost, sb.Name())
	}
	target.Bones = bones

	res.RootBone, res.RootSource = b.rootBone(source.RootBone, names, targetRoot)
	target.RootBone = res.RootBone
	return res
}

func (b *Rebinder) materials(src []*scene.Material) ([]*scene.Material, int) {
	shader := b.Shader
	if shader == "" {
		shader = DefaultShader
	}
	out := make([]*scene.Material, len(src))
	defaulted := 0
	for i, m := range src {
		if m == nil {
			m = scene.NewMaterial(shader)
			defaulted++
		}
		out[i] = m
	}
	return out, defaulted
}

func (b *Rebinder) rootBone(src *scene.Node, names hierarchy.NameIndex, targetRoot *scene.Node) (*scene.Node, RootSource) {
	if scene.Alive(src) && src.Name() != "" {
		if m := names.Lookup(src.Name()); m != nil {
			return m, RootFromSource
		}
	}
	fallbacks := b.RootFallbacks
	if fallbacks == nil {
		fallbacks = DefaultRootFallbacks
	}
	for _, name := range fallbacks {
		if m := names.Lookup(name); m != nil {
			return m, RootFromFallback
		}
	}
	return targetRoot, RootFromTreeRoot
}
