package editor

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skinrepair/internal/hierarchy"
	"skinrepair/internal/scene"
)

func newSkinTool() (*SkinTool, *IdleQueue) {
	idle := &IdleQueue{}
	tool := NewSkinTool(Deps{Idle: idle, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}, DefaultOptions())
	return tool, idle
}

func TestSkinToolCanFix(t *testing.T) {
	tool, _ := newSkinTool()
	assert.False(t, tool.CanFix())

	target := damagedTree()
	tool.Target = target.CreateChild("Body")
	tool.Target.AddSkinnedRenderer()
	tool.Source = &scene.SkinnedRenderer{}
	assert.False(t, tool.CanFix(), "source without mesh")

	tool.Source.Mesh = &scene.Mesh{Name: "m"}
	assert.True(t, tool.CanFix())
}

func TestSkinToolFix(t *testing.T) {
	ref := referenceTree()
	damaged := damagedTree()
	tool, idle := newSkinTool()
	tool.Target = damaged.CreateChild("Body")
	skin := tool.Target.AddSkinnedRenderer()
	tool.Source = hierarchy.FindByPath(ref, "Body").SkinnedRenderer()

	res, err := tool.Fix()
	require.NoError(t, err)
	assert.Equal(t, 2, res.Matched)
	assert.Equal(t, []string{"Spine", "Head"}, res.Lost)
	assert.Equal(t, "Hips", skin.RootBone.Name())
	assert.Equal(t, LevelWarning, tool.Status().Level)
	assert.Contains(t, tool.Status().Text, "[BodyMesh] repaired:")

	assert.Equal(t, 2, idle.Drain(10))
	assert.Equal(t, 1, skin.ReinitCount())
}

func TestSkinToolFixRequiresRenderers(t *testing.T) {
	tool, _ := newSkinTool()
	_, err := tool.Fix()
	assert.ErrorIs(t, err, ErrNoInput)
	assert.Equal(t, LevelError, tool.Status().Level)

	tool.Target = scene.NewNode("Body")
	tool.Target.AddSkinnedRenderer()
	tool.Source = &scene.SkinnedRenderer{}
	_, err = tool.Fix()
	assert.ErrorIs(t, err, ErrNoSkinData)
}

func TestSkinToolAnalyze(t *testing.T) {
	ref := referenceTree()
	tool, _ := newSkinTool()
	tool.Target = damagedTree().CreateChild("Body")
	tool.Target.AddSkinnedRenderer()
	tool.Source = hierarchy.FindByPath(ref, "Body").SkinnedRenderer()

	a, err := tool.Analyze()
	require.NoError(t, err)
	assert.Equal(t, 4, a.SourceBones)
	assert.Equal(t, 2, a.Matched)
	assert.Equal(t, []string{"Spine", "Head"}, a.Unmatched)
	assert.Equal(t, LevelWarning, tool.Status().Level)
	assert.Contains(t, tool.Status().Text, "matched: 2 (50.0%)")

	tool.Target = hierarchy.FindByPath(ref, "Body")
	_, err = tool.Analyze()
	require.NoError(t, err)
	assert.Equal(t, LevelInfo, tool.Status().Level)
}

func TestSkinToolAnalyzeEmptyBones(t *testing.T) {
	tool, _ := newSkinTool()
	tool.Target = damagedTree().CreateChild("Body")
	tool.Target.AddSkinnedRenderer()
	tool.Source = &scene.SkinnedRenderer{Mesh: &scene.Mesh{Name: "m"}}

	_, err := tool.Analyze()
	require.NoError(t, err)
	assert.Equal(t, LevelWarning, tool.Status().Level)
	assert.Contains(t, tool.Status().Text, "no bone data")
}

func TestSkinToolAnalyzeNeedsFixInputs(t *testing.T) {
	ref := referenceTree()
	tool, _ := newSkinTool()
	tool.Target = damagedTree().CreateChild("Body")
	tool.Source = hierarchy.FindByPath(ref, "Body").SkinnedRenderer()

	_, err := tool.Analyze()
	assert.ErrorIs(t, err, ErrNoInput, "target without a skinned renderer")
	assert.Equal(t, LevelError, tool.Status().Level)

	tool.Target.AddSkinnedRenderer()
	tool.Source = &scene.SkinnedRenderer{Bones: tool.Source.Bones}
	_, err = tool.Analyze()
	assert.ErrorIs(t, err, ErrNoSkinData, "source without a mesh")
	assert.Nil(t, tool.Target.SkinnedRenderer().Mesh)
}

func TestAnalysisStatusTruncates(t *testing.T) {
	src := &scene.SkinnedRenderer{Mesh: &scene.Mesh{Name: "m"}}
	root := scene.NewNode("src")
	for i := 0; i < 12; i++ {
		src.Bones = append(src.Bones, root.CreateChild(string(rune('a'+i))))
	}
	tool, _ := newSkinTool()
	tool.Target = scene.NewNode("empty")
	tool.Target.AddSkinnedRenderer()
	tool.Source = src

	_, err := tool.Analyze()
	require.NoError(t, err)
	assert.Contains(t, tool.Status().Text, "... 2 more")
	assert.NotContains(t, tool.Status().Text, "\n  k")
}
