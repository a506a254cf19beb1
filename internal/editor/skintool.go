package editor

import (
	"github.com/pkg/errors"

	"skinrepair/internal/repair"
	"skinrepair/internal/scene"
)

// SkinTool rebinds one skinned renderer directly from another, without a
// reference asset. Target is the node carrying the renderer to repair.
type SkinTool struct {
	operator

	Target *scene.Node
	Source *scene.SkinnedRenderer

	deps     Deps
	opts     Options
	rebinder *repair.Rebinder
}

// NewSkinTool returns a tool bound to the given host services.
func NewSkinTool(deps Deps, opts Options) *SkinTool {
	deps = deps.withDefaults()
	rb := repair.NewRebinder(deps.Undo)
	if opts.RootFallbacks != nil {
		rb.RootFallbacks = opts.RootFallbacks
	}
	if opts.DefaultShader != "" {
		rb.Shader = opts.DefaultShader
	}
	return &SkinTool{
		operator: operator{log: deps.Logger.With("tool", "skin-rebind")},
		deps:     deps,
		opts:     opts,
		rebinder: rb,
	}
}

func (t *SkinTool) targetSkin() *scene.SkinnedRenderer {
	if t.Target == nil {
		return nil
	}
	return t.Target.SkinnedRenderer()
}

// CanFix reports whether both renderers are set and the source has a mesh.
func (t *SkinTool) CanFix() bool {
	return t.targetSkin() != nil && t.Source != nil && t.Source.Mesh != nil
}

// inputs returns the target renderer once CanFix holds, or sets a failure
// status naming what is missing.
func (t *SkinTool) inputs() (*scene.SkinnedRenderer, error) {
	skin := t.targetSkin()
	if skin == nil || t.Source == nil {
		t.status = failure("assign both the target and the source skinned renderer")
		return nil, ErrNoInput
	}
	if t.Source.Mesh == nil {
		t.status = failure("source renderer has no mesh")
		return nil, errors.WithMessage(ErrNoSkinData, "source renderer")
	}
	return skin, nil
}

// Fix rebinds Target's renderer from Source against the tree Target lives in.
func (t *SkinTool) Fix() (repair.RebindResult, error) {
	var res repair.RebindResult
	err := t.run("fix renderer", func() error {
		t.status = Status{}
		skin, err := t.inputs()
		if err != nil {
			return err
		}

		res = t.rebinder.Rebind(t.Target, skin, t.Source, t.Target.Root())
		scheduleRefresh(t.deps.Idle, t.deps.Selection, skin, t.Target)

		t.status = rebindStatus(t.Source.Mesh.Name, res, t.opts.LostBoneLimit)
		t.log.Info("renderer rebound",
			"target", t.Target.Name(), "matched", res.Matched, "total", res.Total,
			"lost", len(res.Lost), "root_from", res.RootSource.String())
		return nil
	})
	return res, err
}

// Analyze reports how well Source's bones match the target tree by name
// without changing anything. It needs the same inputs as Fix.
func (t *SkinTool) Analyze() (repair.MatchAnalysis, error) {
	var a repair.MatchAnalysis
	err := t.run("analyze", func() error {
		t.status = Status{}
		if _, err := t.inputs(); err != nil {
			return err
		}
		if len(t.Source.Bones) == 0 {
			t.status = warning("source renderer has no bone data")
			return nil
		}

		a = repair.AnalyzeMatch(t.Source, t.Target.Root())
		t.status = analysisStatus(a, t.opts.UnmatchedLimit)
		t.log.Info("bone match analyzed", "matched", a.Matched, "source", a.SourceBones, "target_names", a.TargetNames)
		return nil
	})
	return a, err
}
