package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"skinrepair/internal/asset"
	"skinrepair/internal/editor"
	"skinrepair/internal/preview"
	"skinrepair/internal/repair"
	"skinrepair/internal/skeleton"
)

// Config holds paths, matching rules and output settings.
type Config struct {
	// Paths
	AssetDir   string `json:"asset_dir"`
	TextureDir string `json:"texture_dir"`
	OutputDir  string `json:"output_dir"`

	// Matching
	RootKeywords  []string `json:"root_keywords"`
	RootFallbacks []string `json:"root_fallbacks"`
	DefaultShader string   `json:"default_shader"`

	// Reporting
	ShowAllMeshes  bool `json:"show_all_meshes"`
	LostBoneLimit  int  `json:"lost_bone_limit"`
	UnmatchedLimit int  `json:"unmatched_limit"`

	// Preview settings
	PreviewSize   int    `json:"preview_size"`
	Supersample   int    `json:"supersample"`
	PreviewFormat string `json:"preview_format"`

	CacheSize int    `json:"cache_size"`
	Workers   int    `json:"workers"`
	LogLevel  string `json:"log_level"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file and environment.
type Flags struct {
	AssetDir      string
	TextureDir    string
	OutputDir     string
	PreviewFormat string
	LogLevel      string
	Workers       int
	ShowAll       bool
}

// Resolve applies flag overrides, then fills empty fields with defaults.
// Relative texture and output dirs are resolved against AssetDir.
func (c *Config) Resolve(flags Flags) error {
	if flags.AssetDir != "" {
		c.AssetDir = flags.AssetDir
	}
	if flags.TextureDir != "" {
		c.TextureDir = flags.TextureDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.PreviewFormat != "" {
		c.PreviewFormat = flags.PreviewFormat
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.ShowAll {
		c.ShowAllMeshes = true
	}

	if c.AssetDir != "" {
		if c.TextureDir != "" && !filepath.IsAbs(c.TextureDir) {
			c.TextureDir = filepath.Join(c.AssetDir, c.TextureDir)
		}
		if c.OutputDir != "" && !filepath.IsAbs(c.OutputDir) {
			c.OutputDir = filepath.Join(c.AssetDir, c.OutputDir)
		}
	}

	if len(c.RootKeywords) == 0 {
		c.RootKeywords = skeleton.DefaultKeywords
	}
	if len(c.RootFallbacks) == 0 {
		c.RootFallbacks = repair.DefaultRootFallbacks
	}
	if c.DefaultShader == "" {
		c.DefaultShader = repair.DefaultShader
	}
	if c.LostBoneLimit <= 0 {
		c.LostBoneLimit = 5
	}
	if c.UnmatchedLimit <= 0 {
		c.UnmatchedLimit = 10
	}
	if c.PreviewSize <= 0 {
		c.PreviewSize = 512
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.PreviewFormat == "" {
		c.PreviewFormat = string(preview.FormatWebP)
	}
	if _, err := preview.ParseFormat(c.PreviewFormat); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.CacheSize <= 0 {
		c.CacheSize = asset.DefaultCacheSize
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return nil
}

// EditorOptions returns the matching and reporting settings.
func (c Config) EditorOptions() editor.Options {
	return editor.Options{
		RootKeywords:   c.RootKeywords,
		RootFallbacks:  c.RootFallbacks,
		DefaultShader:  c.DefaultShader,
		ShowAllMeshes:  c.ShowAllMeshes,
		LostBoneLimit:  c.LostBoneLimit,
		UnmatchedLimit: c.UnmatchedLimit,
	}
}

// PreviewOptions returns the preview render settings.
func (c Config) PreviewOptions() preview.Options {
	o := preview.DefaultOptions()
	o.Size = c.PreviewSize
	o.Supersample = c.Supersample
	return o
}
