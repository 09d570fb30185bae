package driftfield

import (
	"errors"
	"fmt"
	"slices"

	"github.com/driftfield/driftfield/fieldrt/rt/core"
	"github.com/driftfield/driftfield/fieldrt/rt/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

// Emitter is one particle system as the registry drives it.
// *gpu.ParticleSystem is the production implementation.
type Emitter interface {
	AdvanceAndDraw(frame *gpu.Frame, timestamp float64) error
	SetOrigin(origin mgl32.Vec2)
	Origin() mgl32.Vec2
	SetTuning(t core.EmitterTuning) error
	Stats() core.SystemStats
	Release()
}

// EmitterFactory builds the emitter for a participant uid.
type EmitterFactory func(uid string) (Emitter, error)

// ErrEmitterFailed is returned for a uid whose emitter could not be built.
// The failure is remembered; the registry does not retry it.
var ErrEmitterFailed = errors.New("emitter construction failed")

// ParticleRegistry owns one emitter per participant uid, iterated in the order
// the uids were first seen. It is main-thread only.
type ParticleRegistry struct {
	localUID string
	factory  EmitterFactory
	logger   Logger

	order    []string
	emitters map[string]Emitter
	failed   map[string]error

	// tuning is the last value passed to ApplyTuning. Emitters built later
	// start from it instead of the factory's defaults.
	tuning *core.EmitterTuning

	implicitAdds int
}

func NewParticleRegistry(localUID string, factory EmitterFactory, logger Logger) *ParticleRegistry {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &ParticleRegistry{
		localUID: localUID,
		factory:  factory,
		logger:   logger,
		emitters: make(map[string]Emitter),
		failed:   make(map[string]error),
	}
}

func (r *ParticleRegistry) LocalUID() string { return r.localUID }

// Ensure returns the emitter for uid, creating it on first use.
func (r *ParticleRegistry) Ensure(uid string) (Emitter, error) {
	if e, ok := r.emitters[uid]; ok {
		return e, nil
	}
	if err, ok := r.failed[uid]; ok {
		return nil, err
	}

	e, err := r.factory(uid)
	if err == nil && r.tuning != nil {
		if err = e.SetTuning(*r.tuning); err != nil {
			e.Release()
		}
	}
	if err != nil {
		err = fmt.Errorf("%w for %s: %w", ErrEmitterFailed, uid, err)
		r.failed[uid] = err
		r.logger.Errorf("%v", err)
		return nil, err
	}
	r.emitters[uid] = e
	r.order = append(r.order, uid)
	r.logger.Debugf("emitter created for %s (%d total)", uid, len(r.order))
	return e, nil
}

func (r *ParticleRegistry) Get(uid string) (Emitter, bool) {
	e, ok := r.emitters[uid]
	return e, ok
}

// SetOrigin moves uid's emitter, creating it if the uid is new.
func (r *ParticleRegistry) SetOrigin(uid string, origin mgl32.Vec2) error {
	_, known := r.emitters[uid]
	e, err := r.Ensure(uid)
	if err != nil {
		return err
	}
	if !known {
		r.implicitAdds++
	}
	e.SetOrigin(origin)
	return nil
}

// ImplicitAdds counts emitters created by SetOrigin for a uid that had none.
func (r *ParticleRegistry) ImplicitAdds() int { return r.implicitAdds }

// Remove releases uid's emitter and forgets a remembered failure, so a uid
// that returns later is built afresh.
func (r *ParticleRegistry) Remove(uid string) bool {
	delete(r.failed, uid)
	e, ok := r.emitters[uid]
	if !ok {
		return false
	}
	e.Release()
	delete(r.emitters, uid)
	r.order = slices.DeleteFunc(r.order, func(u string) bool { return u == uid })
	r.logger.Debugf("emitter removed for %s", uid)
	return true
}

// Each visits the emitters in insertion order. fn must not add or remove.
func (r *ParticleRegistry) Each(fn func(uid string, e Emitter)) {
	for _, uid := range r.order {
		fn(uid, r.emitters[uid])
	}
}

// UIDs returns the uids in insertion order.
func (r *ParticleRegistry) UIDs() []string {
	return slices.Clone(r.order)
}

func (r *ParticleRegistry) Len() int { return len(r.order) }

// ApplyTuning validates t once and applies it to every emitter, including
// the ones created afterwards.
func (r *ParticleRegistry) ApplyTuning(t core.EmitterTuning) error {
	if err := t.Validate(); err != nil {
		return err
	}
	r.tuning = &t
	var errs []error
	r.Each(func(uid string, e Emitter) {
		if err := e.SetTuning(t); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", uid, err))
		}
	})
	return errors.Join(errs...)
}

// Release tears down every emitter.
func (r *ParticleRegistry) Release() {
	for _, uid := range r.UIDs() {
		r.Remove(uid)
	}
}
