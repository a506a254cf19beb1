package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"skinrepair/internal/asset"
	"skinrepair/internal/batch"
	"skinrepair/internal/diff"
	"skinrepair/internal/editor"
	"skinrepair/internal/hierarchy"
	"skinrepair/internal/preview"
	"skinrepair/internal/report"
	"skinrepair/internal/scene"
)

// sceneFile is a loaded damaged scene and where to write it back.
type sceneFile struct {
	path string
	doc  asset.Document
	root *scene.Node
}

func loadScene(path string) (*sceneFile, error) {
	doc, err := asset.Load(path)
	if err != nil {
		return nil, err
	}
	root, err := asset.Build(doc)
	if err != nil {
		return nil, err
	}
	return &sceneFile{path: path, doc: doc, root: root}, nil
}

func (s *sceneFile) save(out string) error {
	if out == "" {
		out = s.path
	}
	if err := asset.Save(out, asset.FromScene(s.root, s.doc.Kind)); err != nil {
		return err
	}
	fmt.Printf("Saved: %s\n", out)
	return nil
}

func (s *sceneFile) node(path string) (*scene.Node, error) {
	n := hierarchy.FindByPath(s.root, path)
	if n == nil {
		return nil, fmt.Errorf("%s: no node at %q", s.path, path)
	}
	return n, nil
}

// sessionFlags are shared by the commands that compare against a reference.
type sessionFlags struct {
	root string
	out  string
}

func (f *sessionFlags) register(cmd *cobra.Command, withOut bool) {
	cmd.Flags().StringVar(&f.root, "root", "", "skeleton root path in the scene (default: auto-detect)")
	if withOut {
		cmd.Flags().StringVarP(&f.out, "out", "o", "", "write the repaired scene here instead of overwriting it")
	}
}

// openSession loads the scene, runs the initial check and prints it.
func (a *app) openSession(scenePath, reference string, f sessionFlags, idle *editor.IdleQueue) (*sceneFile, *editor.Session, error) {
	sf, err := loadScene(scenePath)
	if err != nil {
		return nil, nil, err
	}
	sess := editor.NewSession(sf.root, reference, a.deps(idle), a.cfg.EditorOptions())
	if f.root != "" {
		if sess.RootOverride, err = sf.node(f.root); err != nil {
			return nil, nil, err
		}
	}
	if _, err := sess.Check(); err != nil {
		printStatus(sess.Status())
		return nil, nil, err
	}
	return sf, sess, nil
}

func printCheck(sess *editor.Session) {
	res := sess.Result()
	report.Forest(os.Stdout, "Missing bones", res.MissingBones, nil)
	title := "Missing mesh objects"
	if sess.ShowAllMeshes {
		title = "Mesh objects"
	}
	report.Forest(os.Stdout, title, sess.MeshForest(), func(n *diff.BoneNode) string {
		switch {
		case sess.RecentlyFixed(n.FullPath):
			return "[fixed]"
		case sess.ShowAllMeshes && sess.IsMissing(n):
			return "[missing]"
		}
		return ""
	})
	printStatus(sess.Status())
}

func (a *app) checkCmd() *cobra.Command {
	var f sessionFlags
	cmd := &cobra.Command{
		Use:   "check <scene> <reference>",
		Short: "List bones and mesh objects missing from a scene",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sess, err := a.openSession(args[0], args[1], f, nil)
			if err != nil {
				return err
			}
			printCheck(sess)
			return nil
		},
	}
	f.register(cmd, false)
	return cmd
}

func (a *app) fixBoneCmd() *cobra.Command {
	var f sessionFlags
	cmd := &cobra.Command{
		Use:   "fix-bone <scene> <reference> <bone-path>",
		Short: "Rebuild a missing bone, its missing ancestors and its bone children",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, sess, err := a.openSession(args[0], args[1], f, nil)
			if err != nil {
				return err
			}
			entry := diff.Find(sess.MissingBones(), args[2])
			if entry == nil {
				return fmt.Errorf("bone %q is not missing", args[2])
			}
			if err := sess.FixBone(entry); err != nil {
				printStatus(sess.Status())
				return err
			}
			printCheck(sess)
			return sf.save(f.out)
		},
	}
	f.register(cmd, true)
	return cmd
}

func (a *app) fixMeshCmd() *cobra.Command {
	var f sessionFlags
	cmd := &cobra.Command{
		Use:   "fix-mesh <scene> <reference> <mesh-path>",
		Short: "Restore a mesh object and rebind its skinned renderer by bone name",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			idle := &editor.IdleQueue{}
			sf, sess, err := a.openSession(args[0], args[1], f, idle)
			if err != nil {
				return err
			}
			entry := diff.Find(sess.Result().AllMeshes, args[2])
			if entry == nil {
				return fmt.Errorf("reference has no mesh object at %q", args[2])
			}
			if err := sess.FixMesh(entry); err != nil {
				printStatus(sess.Status())
				return err
			}
			idle.Drain(4)
			printCheck(sess)
			return sf.save(f.out)
		},
	}
	f.register(cmd, true)
	return cmd
}

// rendererTool resolves "<scene> <target-path> <source-asset> <source-path>"
// into a SkinTool. The returned cleanup destroys the source instance.
func (a *app) rendererTool(args []string, idle *editor.IdleQueue) (*sceneFile, *editor.SkinTool, func(), error) {
	sf, err := loadScene(args[0])
	if err != nil {
		return nil, nil, nil, err
	}
	target, err := sf.node(args[1])
	if err != nil {
		return nil, nil, nil, err
	}
	src, err := a.lib.Instantiate(args[2])
	if err != nil {
		return nil, nil, nil, err
	}
	srcNode := hierarchy.FindByPath(src, args[3])
	if srcNode == nil || srcNode.SkinnedRenderer() == nil {
		src.Destroy()
		return nil, nil, nil, fmt.Errorf("%s: no skinned renderer at %q", args[2], args[3])
	}

	tool := editor.NewSkinTool(a.deps(idle), a.cfg.EditorOptions())
	tool.Target = target
	tool.Source = srcNode.SkinnedRenderer()
	return sf, tool, src.Destroy, nil
}

func (a *app) fixRendererCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "fix-renderer <scene> <target-path> <source-asset> <source-path>",
		Short: "Rebind one skinned renderer from another renderer by bone name",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			idle := &editor.IdleQueue{}
			sf, tool, cleanup, err := a.rendererTool(args, idle)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := tool.Fix()
			if err != nil {
				printStatus(tool.Status())
				return err
			}
			idle.Drain(4)
			report.Rebind(os.Stdout, tool.Target.Name(), res)
			printStatus(tool.Status())
			return sf.save(out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the repaired scene here instead of overwriting it")
	return cmd
}

func (a *app) analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <scene> <target-path> <source-asset> <source-path>",
		Short: "Report how many source bones resolve by name in the scene",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, tool, cleanup, err := a.rendererTool(args, nil)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := tool.Analyze()
			if err != nil {
				printStatus(tool.Status())
				return err
			}
			if res.SourceBones > 0 {
				report.Analysis(os.Stdout, res, a.cfg.UnmatchedLimit)
			}
			printStatus(tool.Status())
			return nil
		},
	}
}

func (a *app) previewCmd() *cobra.Command {
	var f sessionFlags
	var format string
	cmd := &cobra.Command{
		Use:   "preview <scene> <reference>",
		Short: "Render the reference skeleton with the scene's missing bones highlighted",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sess, err := a.openSession(args[0], args[1], f, nil)
			if err != nil {
				return err
			}
			if format == "" {
				format = a.cfg.PreviewFormat
			}
			pf, err := preview.ParseFormat(format)
			if err != nil {
				return err
			}
			out := f.out
			if out == "" {
				base := filepath.Base(args[0])
				out = filepath.Join(a.cfg.OutputDir, base[:len(base)-len(filepath.Ext(base))]+"."+string(pf))
			}

			res := sess.Result()
			highlight := preview.Highlight(res.MissingBones, res.MissingMeshes)
			tex := a.textures()
			err = sess.Inspect(func(ref *scene.Node) error {
				img := preview.Render(ref, highlight, tex, a.cfg.PreviewOptions())
				return preview.WriteFile(out, img, pf)
			})
			if err != nil {
				printStatus(sess.Status())
				return err
			}
			fmt.Printf("Preview: %s (%d highlighted)\n", out, len(highlight))
			return nil
		},
	}
	f.register(cmd, true)
	cmd.Flags().StringVar(&format, "format", "", "webp, tga or png (default from config)")
	return cmd
}

func (a *app) batchCmd() *cobra.Command {
	var (
		fix        bool
		previewDir string
		manifest   string
	)
	cmd := &cobra.Command{
		Use:   "batch <jobs-file>",
		Short: "Check, and optionally repair, many scenes in parallel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := batch.LoadJobs(args[0])
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Println("No jobs.")
				return nil
			}
			format, err := preview.ParseFormat(a.cfg.PreviewFormat)
			if err != nil {
				return err
			}

			fmt.Printf("Jobs: %d, Workers: %d, Fix: %v\n", len(jobs), a.cfg.Workers, fix)
			fmt.Println("------------------------------------------------------------")
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			start := time.Now()
			results := batch.Run(ctx, batch.Config{
				Library:       a.lib,
				Options:       a.cfg.EditorOptions(),
				Workers:       a.cfg.Workers,
				Fix:           fix,
				OutputDir:     a.cfg.OutputDir,
				PreviewDir:    previewDir,
				Preview:       a.cfg.PreviewOptions(),
				PreviewFormat: format,
				Textures:      a.textures(),
				Logger:        a.log,
				Progress:      os.Stdout,
			}, jobs)
			fmt.Println("------------------------------------------------------------")
			fmt.Printf("Done in %.1fs\n", time.Since(start).Seconds())
			report.Batch(os.Stdout, results)

			if manifest != "" {
				if err := batch.WriteManifest(manifest, results); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
				} else {
					fmt.Printf("Manifest: %s\n", manifest)
				}
			}
			if s := batch.Summarize(results); s.Failed > 0 {
				return fmt.Errorf("%d of %d jobs failed", s.Failed, s.Jobs)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "rebuild missing bones and mesh objects and save each scene")
	cmd.Flags().StringVar(&previewDir, "previews", "", "write one skeleton preview per scene here")
	cmd.Flags().StringVar(&manifest, "manifest", "", "write a JSON manifest of the results")
	return cmd
}
