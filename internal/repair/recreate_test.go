package repair

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skinrepair/internal/hierarchy"
	"skinrepair/internal/mathutil"
	"skinrepair/internal/scene"
	"skinrepair/internal/undo"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func place(n *scene.Node, x, y, z float64) *scene.Node {
	t := scene.Transform{
		Position: mathutil.Vec3{x, y, z},
		Rotation: mathutil.EulerToQuat(0.1*x, 0.2*y, 0.3*z),
		Scale:    mathutil.Vec3{1, 1.5, 1},
	}
	n.SetLocalTransform(t)
	return n
}

func referenceRig() *scene.Node {
	root := scene.NewNode("Character")
	arm := place(root.CreateChild("Armature"), 0, 0, 0)
	hips := place(arm.CreateChild("Hips"), 0, 1, 0)
	spine := place(hips.CreateChild("Spine"), 0, 0.2, 0.01)
	place(spine.CreateChild("Chest"), 0, 0.3, 0)
	mesh := place(spine.CreateChild("Mesh1"), 0, 0, 0)
	mesh.AddSkinnedRenderer()
	place(hips.CreateChild("LeftUpLeg"), -0.1, -0.05, 0)
	return root
}

func TestRecreateBoneCopiesTransformAndChildren(t *testing.T) {
	source := referenceRig()
	target := scene.NewNode("Character")
	target.CreateChild("Armature").CreateChild("Hips")

	var j undo.Journal
	r := NewRecreator(&j, quietLogger())
	spine := hierarchy.FindByPath(source, "Armature/Hips/Spine")

	res := r.RecreateBone(spine, source, target)
	assert.Equal(t, []string{"Armature/Hips/Spine", "Armature/Hips/Spine/Chest"}, res.Created)
	assert.Empty(t, res.Skipped)

	got := hierarchy.FindByPath(target, "Armature/Hips/Spine")
	require.NotNil(t, got)
	assert.Equal(t, spine.LocalTransform(), got.LocalTransform())
	assert.Nil(t, hierarchy.FindByPath(target, "Armature/Hips/Spine/Mesh1"), "mesh children are never recreated as bones")
	assert.Len(t, j.Created(), 2)
}

func TestRecreateBoneIsIdempotent(t *testing.T) {
	source := referenceRig()
	target := scene.NewNode("Character")
	target.CreateChild("Armature").CreateChild("Hips")
	r := NewRecreator(nil, quietLogger())
	spine := hierarchy.FindByPath(source, "Armature/Hips/Spine")

	r.RecreateBone(spine, source, target)
	before := hierarchy.NodeCount(target)

	res := r.RecreateBone(spine, source, target)
	assert.Empty(t, res.Created)
	assert.Equal(t, before, hierarchy.NodeCount(target))
	assert.Len(t, hierarchy.FindByPath(target, "Armature/Hips").Children(), 1)
}

func TestRecreateBoneBuildsAncestorsFirst(t *testing.T) {
	source := referenceRig()
	target := scene.NewNode("Character")
	r := NewRecreator(nil, quietLogger())
	chest := hierarchy.FindByPath(source, "Armature/Hips/Spine/Chest")

	res := r.RecreateBone(chest, source, target)
	require.NotEmpty(t, res.Created)
	assert.Equal(t, "Armature", res.Created[0])

	for _, p := range []string{"Armature", "Armature/Hips", "Armature/Hips/Spine", "Armature/Hips/Spine/Chest", "Armature/Hips/LeftUpLeg"} {
		n := hierarchy.FindByPath(target, p)
		require.NotNil(t, n, p)
		assert.Equal(t, hierarchy.FindByPath(source, p).LocalTransform(), n.LocalTransform(), p)
	}
	assert.Len(t, hierarchy.FindByPath(target, "Armature/Hips/Spine").Children(), 1, "no duplicate chest")
	assert.Equal(t, hierarchy.NodeCount(source)-1, hierarchy.NodeCount(target))
}

func TestRecreateBoneOutsideReferenceRoot(t *testing.T) {
	source := referenceRig()
	other := scene.NewNode("Other")
	target := scene.NewNode("Character")
	r := NewRecreator(nil, quietLogger())

	res := r.RecreateBone(other, source, target)
	assert.Empty(t, res.Created)
	assert.Equal(t, []string{"Other"}, res.Skipped)
}

func TestRecreateMeshRequiresParent(t *testing.T) {
	source := referenceRig()
	target := scene.NewNode("Character")
	target.CreateChild("Armature").CreateChild("Hips")
	r := NewRecreator(nil, quietLogger())
	mesh := hierarchy.FindByPath(source, "Armature/Hips/Spine/Mesh1")

	_, err := r.RecreateMesh("Armature/Hips/Spine/Mesh1", mesh, target)
	assert.ErrorIs(t, err, ErrMissingParent)
	assert.Nil(t, hierarchy.FindByPath(target, "Armature/Hips/Spine"), "mesh recreation never creates ancestors")

	r.RecreateBone(hierarchy.FindByPath(source, "Armature/Hips/Spine"), source, target)
	node, err := r.RecreateMesh("Armature/Hips/Spine/Mesh1", mesh, target)
	require.NoError(t, err)
	assert.Equal(t, "Mesh1", node.Name())
	assert.Equal(t, mesh.LocalTransform(), node.LocalTransform())
	assert.Same(t, node, hierarchy.FindByPath(target, "Armature/Hips/Spine/Mesh1"))
}

func TestRecreateMeshWithoutSourceKeepsIdentity(t *testing.T) {
	target := scene.NewNode("Character")
	r := NewRecreator(nil, quietLogger())

	node, err := r.RecreateMesh("Body", nil, target)
	require.NoError(t, err)
	assert.Equal(t, scene.IdentityTransform(), node.LocalTransform())
}
