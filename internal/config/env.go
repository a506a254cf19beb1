package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "SKINFIX_"

// LookupFunc reads one variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// EnvLookup merges the given .env files under the process environment; the
// process wins. Missing files are skipped.
func EnvLookup(files ...string) (LookupFunc, error) {
	merged := make(map[string]string)
	for _, f := range files {
		vals, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("config: env file %s: %w", f, err)
		}
		for k, v := range vals {
			if _, seen := merged[k]; !seen {
				merged[k] = v
			}
		}
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := merged[key]
		return v, ok
	}, nil
}

// ApplyEnv overrides fields from SKINFIX_* variables. Lists are
// comma-separated.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	list := func(name string, dst *[]string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = splitList(v)
		}
	}
	var errs []error
	num := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}

	str("ASSET_DIR", &c.AssetDir)
	str("TEXTURE_DIR", &c.TextureDir)
	str("OUTPUT_DIR", &c.OutputDir)
	str("DEFAULT_SHADER", &c.DefaultShader)
	str("PREVIEW_FORMAT", &c.PreviewFormat)
	str("LOG_LEVEL", &c.LogLevel)
	list("ROOT_KEYWORDS", &c.RootKeywords)
	list("ROOT_FALLBACKS", &c.RootFallbacks)
	num("LOST_BONE_LIMIT", &c.LostBoneLimit)
	num("UNMATCHED_LIMIT", &c.UnmatchedLimit)
	num("PREVIEW_SIZE", &c.PreviewSize)
	num("SUPERSAMPLE", &c.Supersample)
	num("CACHE_SIZE", &c.CacheSize)
	num("WORKERS", &c.Workers)
	if v, ok := lookup(EnvPrefix + "SHOW_ALL_MESHES"); ok && v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("config: %sSHOW_ALL_MESHES: %w", EnvPrefix, err))
		} else {
			c.ShowAllMeshes = b
		}
	}
	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
