package skeleton

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skinrepair/internal/hierarchy"
	"skinrepair/internal/mathutil"
	"skinrepair/internal/scene"
)

func TestLocateBreadthFirst(t *testing.T) {
	root := scene.NewNode("Character")
	deep := root.CreateChild("Group").CreateChild("Hips")
	shallow := root.CreateChild("Armature")

	loc, err := Locator{}.Locate(root, hierarchy.BuildPathIndex(root), nil)
	require.NoError(t, err)
	assert.Same(t, shallow, loc.Node)
	assert.Equal(t, "Armature", loc.Path)
	assert.False(t, loc.Fallback)
	assert.NotSame(t, deep, loc.Node)
}

func TestLocateCaseInsensitiveSubstring(t *testing.T) {
	root := scene.NewNode("Model")
	rig := root.CreateChild("CharacterRIG_01")

	loc, err := Locator{}.Locate(root, hierarchy.BuildPathIndex(root), nil)
	require.NoError(t, err)
	assert.Same(t, rig, loc.Node)
}

func TestLocateFallsBackToRoot(t *testing.T) {
	root := scene.NewNode("Model")
	root.CreateChild("Body")

	loc, err := Locator{}.Locate(root, hierarchy.BuildPathIndex(root), nil)
	require.NoError(t, err)
	assert.Same(t, root, loc.Node)
	assert.True(t, loc.Fallback)
	assert.Equal(t, "", loc.Path)
}

func TestLocateOverrideMapsAcrossTrees(t *testing.T) {
	source := scene.NewNode("Source")
	srcSpine := source.CreateChild("Root").CreateChild("Spine")

	damaged := scene.NewNode("Damaged")
	dmgSpine := damaged.CreateChild("Root").CreateChild("Spine")

	loc, err := Locator{}.Locate(source, hierarchy.BuildPathIndex(source), &Override{Node: dmgSpine, TreeRoot: damaged})
	require.NoError(t, err)
	assert.Same(t, srcSpine, loc.Node)
	assert.True(t, loc.Manual)
	assert.Equal(t, "Root/Spine", loc.Path)
}

func TestLocateOverrideMissing(t *testing.T) {
	source := scene.NewNode("Source")
	source.CreateChild("Root")

	damaged := scene.NewNode("Damaged")
	extra := damaged.CreateChild("Extra")

	_, err := Locator{}.Locate(source, hierarchy.BuildPathIndex(source), &Override{Node: extra, TreeRoot: damaged})
	assert.ErrorIs(t, err, ErrRootNotFound)
}

func TestBuildWorldMatricesChainsParents(t *testing.T) {
	root := scene.NewNode("root")
	a := root.CreateChild("a")
	ta := scene.IdentityTransform()
	ta.Position = mathutil.Vec3{0, 1, 0}
	a.SetLocalTransform(ta)
	b := a.CreateChild("b")
	tb := scene.IdentityTransform()
	tb.Position = mathutil.Vec3{0, 2, 0}
	b.SetLocalTransform(tb)

	worlds := BuildWorldMatrices(root)
	assert.Equal(t, mathutil.Vec3{0, 3, 0}, worlds[b].Translation())

	segs := Segments(root, worlds)
	require.Len(t, segs, 2)
	assert.Same(t, b, segs[1].Child)
	assert.Equal(t, mathutil.Vec3{0, 1, 0}, segs[1].From)
}
