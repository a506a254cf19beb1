// Package batch runs the hierarchy check, and optionally every fix, over many
// damaged scenes with a worker pool.
package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"skinrepair/internal/asset"
	"skinrepair/internal/diff"
	"skinrepair/internal/editor"
	"skinrepair/internal/hierarchy"
	"skinrepair/internal/preview"
	"skinrepair/internal/scene"
	"skinrepair/internal/texture"
)

// Config holds all shared resources for a batch run.
type Config struct {
	Library *asset.Library
	Options editor.Options
	Workers int
	// Fix rebuilds missing bones and mesh objects and saves the scene.
	Fix bool
	// OutputDir receives repaired scenes; empty overwrites the input.
	OutputDir string
	// PreviewDir, when set, receives one skeleton preview per job.
	PreviewDir    string
	Preview       preview.Options
	PreviewFormat preview.Format
	Textures      texture.Resolver
	Logger        *slog.Logger
	// Progress receives periodic progress lines; nil disables them.
	Progress io.Writer
}

// Result holds the outcome of processing one job.
type Result struct {
	Name          string        `json:"name"`
	Scene         string        `json:"scene"`
	Reference     string        `json:"reference"`
	CompareRoot   string        `json:"compare_root"`
	MissingBones  int           `json:"missing_bones"`
	MissingMeshes int           `json:"missing_meshes"`
	FixedBones    int           `json:"fixed_bones,omitempty"`
	FixedMeshes   int           `json:"fixed_meshes,omitempty"`
	Output        string        `json:"output,omitempty"`
	Preview       string        `json:"preview,omitempty"`
	Status        string        `json:"status"`
	Success       bool          `json:"success"`
	Error         string        `json:"error,omitempty"`
	Duration      time.Duration `json:"duration_ns"`
}

// Run processes all jobs using a worker pool. Jobs not started before ctx
// is done are reported as failed.
func Run(ctx context.Context, cfg Config, jobs []Job) []Result {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	total := len(jobs)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	done := make(chan struct{})
	if cfg.Progress != nil {
		go func() {
			ticker := time.NewTicker(2 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					p := processed.Load()
					if p > 0 {
						rate := float64(p) / time.Since(start).Seconds()
						fmt.Fprintf(cfg.Progress, "  [%d/%d] %.1f scenes/sec\n", p, total, rate)
					}
				}
			}
		}()
	}

	jobChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				if err := ctx.Err(); err != nil {
					results[idx] = failed(jobs[idx], err)
				} else {
					results[idx] = processJob(cfg, jobs[idx])
				}
				processed.Add(1)
			}
		}()
	}

	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(done)
	return results
}

func failed(job Job, err error) Result {
	return Result{Name: job.Name, Scene: job.Scene, Reference: job.Reference, Error: err.Error()}
}

func processJob(cfg Config, job Job) (res Result) {
	start := time.Now()
	log := cfg.Logger.With("job", job.Name)
	res = Result{Name: job.Name, Scene: job.Scene, Reference: job.Reference}
	defer func() { res.Duration = time.Since(start) }()

	doc, err := asset.Load(job.Scene)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	damaged, err := asset.Build(doc)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	sess := editor.NewSession(damaged, job.Reference, editor.Deps{Assets: cfg.Library, Logger: log}, cfg.Options)
	if job.Root != "" {
		sess.RootOverride = hierarchy.FindByPath(damaged, job.Root)
		if sess.RootOverride == nil {
			res.Error = fmt.Sprintf("root override %q not found in scene", job.Root)
			return res
		}
	}

	check, err := sess.Check()
	if err != nil {
		res.Status, res.Error = sess.Status().Text, err.Error()
		return res
	}
	res.CompareRoot = check.CompareRoot
	res.MissingBones = diff.CountNodes(check.MissingBones)
	res.MissingMeshes = diff.CountNodes(check.MissingMeshes)
	res.Status = sess.Status().Text

	if cfg.PreviewDir != "" {
		if res.Preview, err = writePreview(cfg, sess, job, check); err != nil {
			log.Warn("preview failed", "err", err)
		}
	}

	if cfg.Fix && (len(check.MissingBones) > 0 || len(check.MissingMeshes) > 0) {
		res.FixedBones, res.FixedMeshes = fixAll(sess, check, log)
		res.Status = sess.Status().Text
		res.Output = outputPath(cfg, job)
		if err := asset.Save(res.Output, asset.FromScene(damaged, doc.Kind)); err != nil {
			res.Error = err.Error()
			return res
		}
	}

	res.Success = true
	return res
}

// fixAll rebuilds every missing bone chain, then every missing mesh object
// whose parent now exists. bones counts nodes actually created.
func fixAll(sess *editor.Session, check editor.CheckResult, log *slog.Logger) (bones, meshes int) {
	for _, b := range check.MissingBones {
		if err := sess.FixBone(b); err != nil {
			log.Warn("bone not rebuilt", "path", b.FullPath, "err", err)
			continue
		}
		bones += len(sess.LastBoneResult().Created)
	}
	var pending []*diff.BoneNode
	diff.Walk(sess.MissingMeshes(), func(n *diff.BoneNode, _ int) {
		pending = append(pending, n)
	})
	for _, m := range pending {
		if !sess.IsMissing(m) {
			continue
		}
		if err := sess.FixMesh(m); err != nil {
			log.Warn("mesh object not restored", "path", m.FullPath, "err", err)
			continue
		}
		meshes++
	}
	return bones, meshes
}

func writePreview(cfg Config, sess *editor.Session, job Job, check editor.CheckResult) (string, error) {
	format := cfg.PreviewFormat
	if format == "" {
		format = preview.FormatWebP
	}
	path := filepath.Join(cfg.PreviewDir, stem(job)+"."+string(format))
	highlight := preview.Highlight(check.MissingBones, check.MissingMeshes)
	err := sess.Inspect(func(ref *scene.Node) error {
		img := preview.Render(ref, highlight, cfg.Textures, cfg.Preview)
		return preview.WriteFile(path, img, format)
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

func outputPath(cfg Config, job Job) string {
	if cfg.OutputDir == "" {
		return job.Scene
	}
	return filepath.Join(cfg.OutputDir, filepath.Base(job.Scene))
}

func stem(job Job) string {
	base := filepath.Base(job.Scene)
	return base[:len(base)-len(filepath.Ext(base))]
}
