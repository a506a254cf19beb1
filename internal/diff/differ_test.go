package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skinrepair/internal/hierarchy"
	"skinrepair/internal/scene"
)

func withMesh(n *scene.Node) *scene.Node {
	n.AddSkinnedRenderer()
	return n
}

// source: Character/Armature/Hips/Spine/Mesh1(renderer)
// target: Character/Armature/Hips
func endToEndTrees() (source, target *scene.Node) {
	source = scene.NewNode("Character")
	spine := source.CreateChild("Armature").CreateChild("Hips").CreateChild("Spine")
	withMesh(spine.CreateChild("Mesh1"))

	target = scene.NewNode("Character")
	target.CreateChild("Armature").CreateChild("Hips")
	return source, target
}

func TestEndToEndForests(t *testing.T) {
	source, target := endToEndTrees()
	idx := hierarchy.BuildPathIndex(target)
	arm := hierarchy.FindByPath(source, "Armature")

	bones := DiffFromRoot(arm, "Armature", idx)
	require.Len(t, bones, 1)
	assert.Equal(t, "Spine", bones[0].Name)
	assert.Equal(t, "Armature/Hips/Spine", bones[0].FullPath)
	assert.Empty(t, bones[0].Children)

	meshes := CollectMeshes(source)
	require.Len(t, meshes, 1)
	assert.Equal(t, "Mesh1", meshes[0].Name)
	assert.Equal(t, "Armature/Hips/Spine/Mesh1", meshes[0].FullPath)

	missing := FilterMissing(meshes, idx)
	require.Len(t, missing, 1)
	assert.Same(t, meshes[0], missing[0])
}

func TestDiffMinimality(t *testing.T) {
	source := scene.NewNode("root")
	hips := source.CreateChild("Hips")
	spine := hips.CreateChild("Spine")
	spine.CreateChild("Chest").CreateChild("Neck")
	hips.CreateChild("LeftUpLeg")

	target := scene.NewNode("root")
	target.CreateChild("Hips").CreateChild("LeftUpLeg")

	bones := DiffBones(source, hierarchy.BuildPathIndex(target), "")
	require.Len(t, bones, 1)
	assert.Equal(t, "Hips/Spine", bones[0].FullPath)
	require.Len(t, bones[0].Children, 1)
	assert.Equal(t, "Hips/Spine/Chest", bones[0].Children[0].FullPath)
	assert.Equal(t, "Hips/Spine/Chest/Neck", bones[0].Children[0].Children[0].FullPath)
	assert.Equal(t, 3, CountNodes(bones))
}

func TestDiffExcludesMeshSubtrees(t *testing.T) {
	source := scene.NewNode("root")
	mesh := withMesh(source.CreateChild("Outfit"))
	mesh.CreateChild("Buckle").CreateChild("Pin")
	missingBone := source.CreateChild("Tail")
	withMesh(missingBone.CreateChild("TailMesh")).CreateChild("TailTip")
	missingBone.CreateChild("Tail1")

	target := scene.NewNode("root")

	bones := DiffBones(source, hierarchy.BuildPathIndex(target), "")
	require.Len(t, bones, 1)
	assert.Equal(t, "Tail", bones[0].FullPath)
	require.Len(t, bones[0].Children, 1)
	assert.Equal(t, "Tail/Tail1", bones[0].Children[0].FullPath)

	Walk(bones, func(n *BoneNode, _ int) {
		assert.NotContains(t, n.FullPath, "Outfit")
		assert.NotContains(t, n.FullPath, "TailMesh")
	})
}

func TestDiffRendererRootReturnsNothing(t *testing.T) {
	source := withMesh(scene.NewNode("Body"))
	assert.Empty(t, DiffBones(source, hierarchy.PathIndex{}, "Body"))
}

func TestCollectMeshesNests(t *testing.T) {
	source := scene.NewNode("root")
	body := withMesh(source.CreateChild("Body"))
	body.CreateChild("Group").CreateChild("Hair").SetRenderer(&scene.Renderer{})
	source.CreateChild("Armature").CreateChild("Sword").SetRenderer(&scene.Renderer{})

	forest := CollectMeshes(source)
	require.Len(t, forest, 2)
	assert.Equal(t, "Body", forest[0].FullPath)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, "Body/Group/Hair", forest[0].Children[0].FullPath)
	assert.Equal(t, "Armature/Sword", forest[1].FullPath)
	assert.Equal(t, 3, CountNodes(forest))
}

func TestFilterMissingLiftsNestedMissing(t *testing.T) {
	source := scene.NewNode("root")
	body := withMesh(source.CreateChild("Body"))
	withMesh(body.CreateChild("Lashes"))
	withMesh(source.CreateChild("Hat"))

	target := scene.NewNode("root")
	withMesh(target.CreateChild("Body"))

	missing := FilterMissing(CollectMeshes(source), hierarchy.BuildPathIndex(target))
	require.Len(t, missing, 2)
	assert.Equal(t, "Body/Lashes", missing[0].FullPath)
	assert.Equal(t, "Hat", missing[1].FullPath)
}

func TestSourceRefInvalidatedByDestroy(t *testing.T) {
	source, target := endToEndTrees()
	bones := DiffFromRoot(hierarchy.FindByPath(source, "Armature"), "Armature", hierarchy.BuildPathIndex(target))
	require.Len(t, bones, 1)

	n, ok := bones[0].Source.Node()
	require.True(t, ok)
	assert.Equal(t, "Spine", n.Name())

	source.Destroy()
	_, ok = bones[0].Source.Node()
	assert.False(t, ok)
	assert.Equal(t, "Armature/Hips/Spine", bones[0].FullPath)
}

func TestFind(t *testing.T) {
	source, _ := endToEndTrees()
	forest := CollectMeshes(source)
	assert.NotNil(t, Find(forest, "Armature/Hips/Spine/Mesh1"))
	assert.Nil(t, Find(forest, "Armature"))
}
