// Package editor hosts the repair tools' user-facing operations: checking a
// damaged hierarchy against a reference asset, fixing one bone or mesh object,
// and rebinding a single skinned renderer. Operations are synchronous; the
// only deferred work goes through an IdleQueue.
package editor

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"

	"skinrepair/internal/asset"
	"skinrepair/internal/repair"
	"skinrepair/internal/scene"
	"skinrepair/internal/skeleton"
	"skinrepair/internal/undo"
)

var (
	ErrNoInput            = errors.New("damaged model and reference asset are required")
	ErrCompareRootMissing = errors.New("compare root missing from damaged model")
	ErrNoSkinData         = errors.New("no skinned mesh data")
)

// Instantiator loads a reference asset into a temporary, caller-owned tree.
type Instantiator interface {
	Instantiate(ref string) (*scene.Node, error)
}

// Deps are the host services an operation talks to. Nil fields get
// in-process defaults.
type Deps struct {
	Assets    Instantiator
	Undo      undo.Recorder
	Idle      *IdleQueue
	Selection *Selection
	Logger    *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Undo == nil {
		d.Undo = undo.Nop{}
	}
	if d.Idle == nil {
		d.Idle = &IdleQueue{}
	}
	if d.Selection == nil {
		d.Selection = &Selection{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return d
}

// Options tune matching and reporting.
type Options struct {
	RootKeywords   []string
	RootFallbacks  []string
	DefaultShader  string
	ShowAllMeshes  bool
	LostBoneLimit  int
	UnmatchedLimit int
}

// DefaultOptions mirrors the stock tool behavior.
func DefaultOptions() Options {
	return Options{
		RootKeywords:   skeleton.DefaultKeywords,
		RootFallbacks:  repair.DefaultRootFallbacks,
		DefaultShader:  repair.DefaultShader,
		LostBoneLimit:  5,
		UnmatchedLimit: 10,
	}
}

// operator wraps every public operation: it recovers panics, logs failures
// with their stack, and guarantees a status message.
type operator struct {
	log    *slog.Logger
	status Status
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func (o *operator) run(op string, fn func() error) (err error) {
	o.log.Debug("operation started", "op", op)
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("%s: unexpected failure: %v", op, r)
		}
		if err != nil {
			o.fail(op, err)
		}
	}()
	return fn()
}

func (o *operator) fail(op string, err error) {
	if isPrecondition(err) {
		o.log.Warn("operation aborted", "op", op, "err", err)
		if o.status.Level != LevelError {
			o.status = failure("%v", err)
		}
		return
	}
	if _, ok := err.(stackTracer); !ok {
		err = errors.WithStack(err)
	}
	o.log.Error("operation failed", "op", op, "err", err.Error(), "stack", fmt.Sprintf("%+v", err))
	o.status = failure("%s failed: %v", op, errors.Cause(err))
}

func isPrecondition(err error) bool {
	for _, target := range []error{
		ErrNoInput,
		ErrCompareRootMissing,
		ErrNoSkinData,
		skeleton.ErrRootNotFound,
		repair.ErrMissingParent,
		repair.ErrSourceNotFound,
		asset.ErrNotAnAsset,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Status returns the message left by the last operation.
func (o *operator) Status() Status { return o.status }

// scheduleRefresh forces the host to rebuild skinning state: the renderer is
// enabled now, toggled off and on at the next idle tick, and the repaired node
// is reselected one tick later.
func scheduleRefresh(idle *IdleQueue, sel *Selection, skin *scene.SkinnedRenderer, node *scene.Node) {
	skin.UpdateWhenOffscreen = true
	skin.SetEnabled(true)

	idle.Defer(func() {
		skin.SetEnabled(false)
		skin.SetEnabled(true)
		skin.MarkDirty()

		sel.Set(nil)
		idle.Defer(func() {
			sel.Set(node)
		})
	})
}
