package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skinrepair/internal/repair"
	"skinrepair/internal/skeleton"
)

func mapLookup(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadAndResolveDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "skinfix.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"asset_dir": "/data", "texture_dir": "tex", "lost_bone_limit": 3}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Resolve(Flags{}))

	assert.Equal(t, filepath.Join("/data", "tex"), cfg.TextureDir)
	assert.Equal(t, 3, cfg.LostBoneLimit)
	assert.Equal(t, 10, cfg.UnmatchedLimit)
	assert.Equal(t, skeleton.DefaultKeywords, cfg.RootKeywords)
	assert.Equal(t, repair.DefaultRootFallbacks, cfg.RootFallbacks)
	assert.Equal(t, "webp", cfg.PreviewFormat)
	assert.Positive(t, cfg.Workers)

	opts := cfg.EditorOptions()
	assert.Equal(t, 3, opts.LostBoneLimit)
	assert.Equal(t, "Standard", opts.DefaultShader)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestFlagsOverride(t *testing.T) {
	cfg := Config{PreviewFormat: "png", Workers: 2}
	require.NoError(t, cfg.Resolve(Flags{PreviewFormat: "tga", Workers: 8, ShowAll: true}))
	assert.Equal(t, "tga", cfg.PreviewFormat)
	assert.Equal(t, 8, cfg.Workers)
	assert.True(t, cfg.ShowAllMeshes)

	bad := Config{PreviewFormat: "gif"}
	assert.Error(t, bad.Resolve(Flags{}))
}

func TestApplyEnv(t *testing.T) {
	cfg := Config{DefaultShader: "Unlit"}
	err := cfg.ApplyEnv(mapLookup(map[string]string{
		"SKINFIX_ROOT_FALLBACKS":  "Hips, Pelvis,,Root",
		"SKINFIX_PREVIEW_SIZE":    "256",
		"SKINFIX_SHOW_ALL_MESHES": "true",
		"SKINFIX_DEFAULT_SHADER":  "",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Hips", "Pelvis", "Root"}, cfg.RootFallbacks)
	assert.Equal(t, 256, cfg.PreviewSize)
	assert.True(t, cfg.ShowAllMeshes)
	assert.Equal(t, "Unlit", cfg.DefaultShader, "empty values are ignored")

	err = cfg.ApplyEnv(mapLookup(map[string]string{"SKINFIX_WORKERS": "many", "SKINFIX_SHOW_ALL_MESHES": "maybe"}))
	assert.ErrorContains(t, err, "SKINFIX_WORKERS")
	assert.ErrorContains(t, err, "SKINFIX_SHOW_ALL_MESHES")
}

func TestEnvLookupReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SKINFIX_TEST_ONLY_KEY=from-file\nSKINFIX_TEST_SHADOWED=file\n"), 0644))
	t.Setenv("SKINFIX_TEST_SHADOWED", "process")

	lookup, err := EnvLookup(envFile, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	v, ok := lookup("SKINFIX_TEST_ONLY_KEY")
	assert.True(t, ok)
	assert.Equal(t, "from-file", v)
	v, _ = lookup("SKINFIX_TEST_SHADOWED")
	assert.Equal(t, "process", v)
	_, ok = lookup("SKINFIX_TEST_ABSENT")
	assert.False(t, ok)
}
