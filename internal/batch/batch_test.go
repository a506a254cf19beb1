package batch

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skinrepair/internal/asset"
	"skinrepair/internal/editor"
	"skinrepair/internal/hierarchy"
)

const referenceYAML = `
kind: asset
root:
  name: Character
  children:
    - name: Armature
      children:
        - name: Hips
          children:
            - name: Spine
              position: [0, 0.3, 0]
            - name: LegL
    - name: Body
      skin:
        mesh: BodyMesh
        materials: [{name: Skin}]
        bones: [Armature/Hips, Armature/Hips/Spine, Armature/Hips/LegL]
        root_bone: Armature/Hips
`

const damagedYAML = `
kind: scene
root:
  name: Character
  children:
    - name: Armature
      children:
        - name: Hips
          children:
            - name: LegL
`

const cleanYAML = `
kind: scene
root:
  name: Character
  children:
    - name: Armature
      children:
        - name: Hips
          children:
            - name: Spine
            - name: LegL
    - name: Body
      skin:
        mesh: BodyMesh
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testConfig(t *testing.T, dir string) Config {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	lib, err := asset.NewLibrary(dir, 8, logger)
	require.NoError(t, err)
	return Config{Library: lib, Options: editor.DefaultOptions(), Workers: 3, Logger: logger}
}

func TestRunChecksEveryJob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "character.yaml", referenceYAML)
	jobs := []Job{
		{Name: "damaged", Scene: writeFile(t, dir, "damaged.yaml", damagedYAML), Reference: "character.yaml"},
		{Name: "clean", Scene: writeFile(t, dir, "clean.yaml", cleanYAML), Reference: "character.yaml"},
		{Name: "nosuch", Scene: filepath.Join(dir, "nosuch.yaml"), Reference: "character.yaml"},
		{Name: "badref", Scene: filepath.Join(dir, "clean.yaml"), Reference: "missing.yaml"},
	}

	results := Run(context.Background(), testConfig(t, dir), jobs)
	require.Len(t, results, 4)

	assert.True(t, results[0].Success)
	assert.Equal(t, "Armature", results[0].CompareRoot)
	assert.Equal(t, 1, results[0].MissingBones)
	assert.Equal(t, 1, results[0].MissingMeshes)
	assert.Empty(t, results[0].Output, "check-only runs never write")

	assert.True(t, results[1].Success)
	assert.Zero(t, results[1].MissingBones)

	assert.False(t, results[2].Success)
	assert.NotEmpty(t, results[2].Error)
	assert.False(t, results[3].Success)

	s := Summarize(results)
	assert.Equal(t, Summary{Jobs: 4, Succeeded: 2, Failed: 2, Clean: 1, MissingBones: 1, MissingMeshes: 1}, s)
}

func TestRunFixesAndSaves(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "character.yaml", referenceYAML)
	scenePath := writeFile(t, dir, "damaged.yaml", damagedYAML)
	cfg := testConfig(t, dir)
	cfg.Fix = true
	cfg.OutputDir = filepath.Join(dir, "fixed")
	cfg.PreviewDir = filepath.Join(dir, "previews")
	cfg.Preview.Size = 32

	results := Run(context.Background(), cfg, []Job{{Name: "damaged", Scene: scenePath, Reference: "character.yaml"}})
	require.Len(t, results, 1)
	r := results[0]
	require.True(t, r.Success, r.Error)
	assert.Equal(t, 1, r.FixedBones)
	assert.Equal(t, 1, r.FixedMeshes)
	assert.Equal(t, filepath.Join(dir, "fixed", "damaged.yaml"), r.Output)
	assert.FileExists(t, r.Preview)

	doc, err := asset.Load(r.Output)
	require.NoError(t, err)
	assert.Equal(t, asset.KindScene, doc.Kind)
	root, err := asset.Build(doc)
	require.NoError(t, err)
	spine := hierarchy.FindByPath(root, "Armature/Hips/Spine")
	require.NotNil(t, spine)
	skin := hierarchy.FindByPath(root, "Body").SkinnedRenderer()
	require.NotNil(t, skin)
	require.Len(t, skin.Bones, 3)
	assert.Same(t, spine, skin.Bones[1])
	assert.Equal(t, "Hips", skin.RootBone.Name())
}

func TestRunCanceled(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := Run(ctx, testConfig(t, dir), []Job{{Name: "a", Scene: "a.yaml", Reference: "r.yaml"}})
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "canceled")
}

func TestLoadJobsAndManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "jobs.yaml", `
jobs:
  - scene: scenes/hero.yaml
    reference: hero.yaml
  - name: villain
    scene: scenes/villain.yaml
    reference: villain.yaml
    root: Rig/Hips
`)
	jobs, err := LoadJobs(path)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "scenes/hero.yaml", jobs[0].Name)
	assert.Equal(t, "Rig/Hips", jobs[1].Root)

	bad := writeFile(t, dir, "bad.yaml", "jobs:\n  - scene: a.yaml\n")
	_, err = LoadJobs(bad)
	assert.Error(t, err)

	out := filepath.Join(dir, "manifest.json")
	require.NoError(t, WriteManifest(out, []Result{{Name: "a", Success: true}}))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var m struct {
		Summary Summary  `json:"summary"`
		Results []Result `json:"results"`
	}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, 1, m.Summary.Clean)
	assert.Len(t, m.Results, 1)
}

func TestFixAllCountsCreatedBones(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "character.yaml", referenceYAML)
	cfg := testConfig(t, dir)
	doc, err := asset.Decode([]byte(damagedYAML))
	require.NoError(t, err)
	damaged, err := asset.Build(doc)
	require.NoError(t, err)

	sess := editor.NewSession(damaged, "character.yaml", editor.Deps{Assets: cfg.Library, Logger: cfg.Logger}, cfg.Options)
	check, err := sess.Check()
	require.NoError(t, err)
	require.Len(t, check.MissingBones, 1)
	check.MissingBones = append(check.MissingBones, check.MissingBones[0])

	bones, meshes := fixAll(sess, check, cfg.Logger)
	assert.Equal(t, 1, bones, "a stale entry rebuilt twice counts once")
	assert.Equal(t, 1, meshes)
	assert.NotNil(t, hierarchy.FindByPath(damaged, "Armature/Hips/Spine"))
}
