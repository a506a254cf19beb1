package editor

import (
	"github.com/pkg/errors"

	"skinrepair/internal/diff"
	"skinrepair/internal/hierarchy"
	"skinrepair/internal/mathutil"
	"skinrepair/internal/repair"
	"skinrepair/internal/scene"
	"skinrepair/internal/skeleton"
)

// CheckResult holds the forests produced by one check.
type CheckResult struct {
	// CompareRoot is the path of the skeleton root bones were compared under.
	CompareRoot string
	// Fallback is set when no conventional root name was found.
	Fallback      bool
	MissingBones  []*diff.BoneNode
	AllMeshes     []*diff.BoneNode
	MissingMeshes []*diff.BoneNode
	DamagedNodes  int
	SourceNodes   int
}

// Session repairs one damaged hierarchy against one reference asset.
type Session struct {
	operator

	Damaged   *scene.Node
	Reference string
	// RootOverride, when set, is a node of Damaged used as compare root.
	RootOverride  *scene.Node
	ShowAllMeshes bool

	deps      Deps
	opts      Options
	locator   skeleton.Locator
	recreator *repair.Recreator
	rebinder  *repair.Rebinder

	result        CheckResult
	damagedIndex  hierarchy.PathIndex
	recentlyFixed map[string]bool
	lastBone      repair.BoneResult
}

// NewSession prepares a session. deps.Assets is required.
func NewSession(damaged *scene.Node, reference string, deps Deps, opts Options) *Session {
	deps = deps.withDefaults()
	rb := repair.NewRebinder(deps.Undo)
	if opts.RootFallbacks != nil {
		rb.RootFallbacks = opts.RootFallbacks
	}
	if opts.DefaultShader != "" {
		rb.Shader = opts.DefaultShader
	}
	return &Session{
		operator:      operator{log: deps.Logger.With("tool", "bone-repair")},
		Damaged:       damaged,
		Reference:     reference,
		ShowAllMeshes: opts.ShowAllMeshes,
		deps:          deps,
		opts:          opts,
		locator:       skeleton.Locator{Keywords: opts.RootKeywords},
		recreator:     repair.NewRecreator(deps.Undo, deps.Logger),
		rebinder:      rb,
		recentlyFixed: make(map[string]bool),
	}
}

// Result returns the forests of the last successful check.
func (s *Session) Result() CheckResult { return s.result }

// MissingBones returns the missing-bones forest of the last check.
func (s *Session) MissingBones() []*diff.BoneNode { return s.result.MissingBones }

// MissingMeshes returns the missing mesh objects of the last check.
func (s *Session) MissingMeshes() []*diff.BoneNode { return s.result.MissingMeshes }

// MeshForest returns all mesh objects or only missing ones, per ShowAllMeshes.
func (s *Session) MeshForest() []*diff.BoneNode {
	if s.ShowAllMeshes {
		return s.result.AllMeshes
	}
	return s.result.MissingMeshes
}

// IsMissing reports whether entry's path is absent from the damaged tree as
// indexed by the last check.
func (s *Session) IsMissing(entry *diff.BoneNode) bool {
	if s.damagedIndex == nil {
		return false
	}
	return diff.IsMissing(entry, s.damagedIndex)
}

// LastBoneResult returns the nodes created and skipped by the last FixBone.
func (s *Session) LastBoneResult() repair.BoneResult { return s.lastBone }

// RecentlyFixed reports whether a mesh object at path was repaired in this session.
func (s *Session) RecentlyFixed(path string) bool { return s.recentlyFixed[path] }

// withReference instantiates the reference asset, hands it to fn and destroys
// it on every exit path.
func (s *Session) withReference(fn func(inst *scene.Node) error) error {
	if s.Reference == "" || s.deps.Assets == nil {
		s.status = failure("reference asset is not set")
		return ErrNoInput
	}
	inst, err := s.deps.Assets.Instantiate(s.Reference)
	if err != nil {
		s.status = failure("cannot instantiate reference %q: %v", s.Reference, err)
		return errors.Wrapf(err, "instantiate %s", s.Reference)
	}
	defer inst.Destroy()

	inst.SetLocalPosition(mathutil.Vec3{})
	inst.SetLocalRotation(mathutil.QuatIdentity())
	return fn(inst)
}

// Inspect hands fn a fresh reference instance that is destroyed afterwards.
func (s *Session) Inspect(fn func(ref *scene.Node) error) error {
	return s.run("inspect", func() error {
		return s.withReference(fn)
	})
}

// Check compares the damaged hierarchy with the reference and stores the
// missing-bone and mesh forests.
func (s *Session) Check() (CheckResult, error) {
	var res CheckResult
	err := s.run("check", func() error {
		var err error
		res, err = s.check()
		return err
	})
	return res, err
}

func (s *Session) check() (CheckResult, error) {
	s.status = Status{}
	s.result = CheckResult{}
	s.damagedIndex = nil
	if s.Damaged == nil {
		s.status = failure("damaged model is not set")
		return CheckResult{}, ErrNoInput
	}

	var res CheckResult
	err := s.withReference(func(inst *scene.Node) error {
		s.damagedIndex = hierarchy.BuildPathIndex(s.Damaged)
		sourceIndex := hierarchy.BuildPathIndex(inst)
		res.DamagedNodes, res.SourceNodes = len(s.damagedIndex), len(sourceIndex)
		s.log.Debug("path indexes built", "damaged", res.DamagedNodes, "source", res.SourceNodes)

		var override *skeleton.Override
		if s.RootOverride != nil {
			override = &skeleton.Override{Node: s.RootOverride, TreeRoot: s.Damaged}
		}
		loc, err := s.locator.Locate(inst, sourceIndex, override)
		if err != nil {
			s.status = failure("root %q not found in reference, check that its path matches", s.RootOverride.Name())
			return err
		}
		switch {
		case loc.Manual:
			s.log.Info("using manual skeleton root", "root", loc.Path)
		case loc.Fallback:
			s.log.Warn("no canonical skeleton root found, comparing whole hierarchy")
		default:
			s.log.Info("skeleton root detected", "root", loc.Path)
		}

		if !s.damagedIndex.Has(loc.Path) {
			s.status = failure("damaged model is missing skeleton root %q, restore it first", loc.Node.Name())
			return errors.Wrapf(ErrCompareRootMissing, "path %q", loc.Path)
		}

		res.CompareRoot = loc.Path
		res.Fallback = loc.Fallback
		res.MissingBones = diff.DiffFromRoot(loc.Node, loc.Path, s.damagedIndex)
		res.AllMeshes = diff.CollectMeshes(inst)
		res.MissingMeshes = diff.FilterMissing(res.AllMeshes, s.damagedIndex)
		return nil
	})
	if err != nil {
		return res, err
	}

	s.result = res
	s.status = s.checkStatus(res)
	s.log.Info("check complete",
		"missing_bones", diff.CountNodes(res.MissingBones),
		"missing_meshes", diff.CountNodes(res.MissingMeshes),
		"meshes", diff.CountNodes(res.AllMeshes))
	return res, nil
}

func (s *Session) checkStatus(res CheckResult) Status {
	bones := diff.CountNodes(res.MissingBones)
	missing := diff.CountNodes(res.MissingMeshes)
	all := diff.CountNodes(res.AllMeshes)

	var st Status
	switch {
	case bones == 0 && missing == 0 && s.ShowAllMeshes:
		st = info("no missing bones; %d mesh objects found", all)
	case bones == 0 && missing == 0:
		st = info("no missing bones or mesh objects")
	case s.ShowAllMeshes:
		st = warning("%d missing bones, %d mesh objects found (%d missing)", bones, all, missing)
	default:
		st = warning("%d missing bones, %d missing mesh objects", bones, missing)
	}
	if res.Fallback {
		st.Text += "\nno canonical root found, compared whole hierarchy"
		if st.Level < LevelWarning {
			st.Level = LevelWarning
		}
	}
	return st
}

// FixBone recreates a missing bone and its bone descendants, then re-checks.
func (s *Session) FixBone(entry *diff.BoneNode) error {
	return s.run("fix bone", func() error {
		s.status = Status{}
		s.lastBone = repair.BoneResult{}
		if s.Damaged == nil || entry == nil {
			s.status = failure("damaged model and a bone entry are required")
			return ErrNoInput
		}
		s.deps.Undo.RecordHierarchy(s.Damaged, "rebuild bone chain")

		var res repair.BoneResult
		err := s.withReference(func(inst *scene.Node) error {
			src := hierarchy.FindByPath(inst, entry.FullPath)
			if src == nil {
				s.status = failure("bone %s not found in reference, rebuild failed", entry.Name)
				return errors.Wrapf(repair.ErrSourceNotFound, "bone %s", entry.FullPath)
			}
			res = s.recreator.RecreateBone(src, inst, s.Damaged)
			s.lastBone = res
			return nil
		})
		if err != nil {
			return err
		}

		if _, err := s.check(); err != nil {
			return err
		}
		if len(res.Skipped) > 0 {
			s.status = warning("bone %s rebuilt with %d skipped: %s",
				entry.Name, len(res.Skipped), truncateNames(res.Skipped, s.opts.LostBoneLimit))
		} else {
			s.status = info("bone %s and its children rebuilt", entry.Name)
		}
		s.log.Info("bone chain rebuilt", "path", entry.FullPath, "created", len(res.Created), "skipped", len(res.Skipped))
		return nil
	})
}

// FixMesh restores a mesh object: the node is created when missing (its parent
// must exist), a skinned renderer is attached and rebound by bone name against
// the damaged hierarchy, and a render refresh is scheduled.
func (s *Session) FixMesh(entry *diff.BoneNode) error {
	return s.run("fix mesh", func() error {
		s.status = Status{}
		if s.Damaged == nil || entry == nil {
			s.status = failure("damaged model and a mesh entry are required")
			return ErrNoInput
		}

		var fixed Status
		err := s.withReference(func(inst *scene.Node) error {
			src := hierarchy.FindByPath(inst, entry.FullPath)
			if src == nil {
				s.status = failure("mesh object %s not found in reference", entry.Name)
				return errors.Wrapf(repair.ErrSourceNotFound, "mesh %s", entry.FullPath)
			}
			srcSkin := src.SkinnedRenderer()
			if srcSkin == nil || srcSkin.Mesh == nil {
				s.status = failure("%s in reference has no valid skinned mesh data", entry.Name)
				return errors.Wrapf(ErrNoSkinData, "mesh %s", entry.FullPath)
			}

			target := hierarchy.FindByPath(s.Damaged, entry.FullPath)
			if target == nil {
				var err error
				target, err = s.recreator.RecreateMesh(entry.FullPath, src, s.Damaged)
				if err != nil {
					s.status = failure("cannot create mesh object %s: parent %q is missing", entry.Name, hierarchy.ParentPath(entry.FullPath))
					return err
				}
			}
			skin := target.SkinnedRenderer()
			if skin == nil {
				skin = target.AddSkinnedRenderer()
			}

			res := s.rebinder.Rebind(target, skin, srcSkin, s.Damaged.Root())
			scheduleRefresh(s.deps.Idle, s.deps.Selection, skin, target)
			s.recentlyFixed[entry.FullPath] = true

			fixed = rebindStatus(entry.Name, res, s.opts.LostBoneLimit)
			s.log.Info("mesh object repaired",
				"path", entry.FullPath, "matched", res.Matched, "total", res.Total,
				"lost", len(res.Lost), "root_bone", res.RootBone.Name(), "root_from", res.RootSource.String())
			return nil
		})
		if err != nil {
			return err
		}

		if _, err := s.check(); err != nil {
			return err
		}
		s.status = fixed
		return nil
	})
}
