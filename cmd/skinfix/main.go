package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"skinrepair/internal/asset"
	"skinrepair/internal/config"
	"skinrepair/internal/editor"
	"skinrepair/internal/texture"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configFile string
	envFile    string
	flags      config.Flags

	cfg config.Config
	log *slog.Logger
	lib *asset.Library
}

func main() {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "skinfix",
		Short: "Repair skinned character hierarchies against a reference asset",
		Long: `skinfix compares a damaged character scene with its reference asset,
lists missing bones and mesh objects, rebuilds them and rebinds skinned
renderers by bone name.

Scenes and assets are YAML or JSON hierarchy documents.`,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.setup() },
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "path to config JSON file")
	pf.StringVar(&a.envFile, "env", ".env", "dotenv file with SKINFIX_* overrides")
	pf.StringVar(&a.flags.AssetDir, "assets", "", "directory reference assets are resolved against")
	pf.StringVar(&a.flags.TextureDir, "textures", "", "texture directory for previews")
	pf.StringVar(&a.flags.LogLevel, "log-level", "", "debug, info, warn or error")
	pf.BoolVar(&a.flags.ShowAll, "show-all", false, "list every mesh object, not only missing ones")

	rootCmd.AddCommand(
		a.checkCmd(),
		a.fixBoneCmd(),
		a.fixMeshCmd(),
		a.fixRendererCmd(),
		a.analyzeCmd(),
		a.previewCmd(),
		a.batchCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) setup() error {
	if a.configFile != "" {
		cfg, err := config.Load(a.configFile)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	lookup, err := config.EnvLookup(a.envFile)
	if err != nil {
		return err
	}
	if err := a.cfg.ApplyEnv(lookup); err != nil {
		return err
	}
	if err := a.cfg.Resolve(a.flags); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(a.cfg.LogLevel))); err != nil {
		return fmt.Errorf("log level %q: %w", a.cfg.LogLevel, err)
	}
	a.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.log)

	a.lib, err = asset.NewLibrary(a.cfg.AssetDir, a.cfg.CacheSize, a.log)
	return err
}

func (a *app) deps(idle *editor.IdleQueue) editor.Deps {
	return editor.Deps{Assets: a.lib, Idle: idle, Logger: a.log}
}

func (a *app) textures() texture.Resolver {
	if a.cfg.TextureDir == "" {
		return nil
	}
	idx := texture.BuildIndex(a.cfg.TextureDir)
	a.log.Info("textures indexed", "dir", a.cfg.TextureDir, "count", idx.Len())
	return texture.NewCache(idx)
}

// printStatus writes an operation's closing message.
func printStatus(st editor.Status) {
	if st.Level == editor.LevelNone {
		return
	}
	fmt.Printf("[%s] %s\n", st.Level, st.Text)
}
