package gpu

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/driftfield/driftfield/fieldrt/rt/core"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrNoProgram is returned by AdvanceAndDraw on a system whose programs were
// never built or have been released.
var ErrNoProgram = errors.New("particle system has no program")

// Frame is the command stream of one displayed frame. Every particle system
// encodes its passes into the same encoder and draws onto Target.
type Frame struct {
	Encoder *wgpu.CommandEncoder
	Target  *wgpu.TextureView
}

// Device bundles what a particle system needs from the renderer.
type Device struct {
	Device  *wgpu.Device
	Queue   *wgpu.Queue
	Layouts *Layouts
	World   *World
	Format  wgpu.TextureFormat
}

// ParticleSystem is one GPU simulated emitter.
type ParticleSystem struct {
	State *core.SystemState

	queue    *wgpu.Queue
	world    *World
	programs *Programs
	buffers  *ParticleBuffers
}

// NewParticleSystem validates params, builds the programs and allocates the
// particle buffers. Nothing is allocated if params are invalid.
func NewParticleSystem(dev Device, src ProgramSources, params core.EmitterParams, rng *rand.Rand) (*ParticleSystem, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	programs, err := BuildPrograms(dev.Device, dev.Layouts, src, dev.Format)
	if err != nil {
		return nil, err
	}

	records := core.InitialParticleData(rng, params.ParticleCount, params.MinLife, params.MaxLife)
	buffers, err := AllocateParticleBuffers(dev.Device, dev.Layouts, records)
	if err != nil {
		programs.Release()
		return nil, err
	}

	return &ParticleSystem{
		State:    core.NewSystemState(len(records), params.EmitterTuning),
		queue:    dev.Queue,
		world:    dev.World,
		programs: programs,
		buffers:  buffers,
	}, nil
}

// AdvanceAndDraw steps the simulation to timestamp (milliseconds) and encodes
// the update pass into the write buffer and the render pass of the read buffer.
func (ps *ParticleSystem) AdvanceAndDraw(frame *Frame, timestamp float64) error {
	if ps == nil || !ps.programs.Ready() || ps.buffers == nil || ps.world == nil {
		return ErrNoProgram
	}

	step := ps.State.Plan(timestamp)
	born := uint32(step.Born)

	if err := ps.queue.WriteBuffer(ps.buffers.Params, 0, step.Uniforms.Bytes()); err != nil {
		return fmt.Errorf("failed to write update params: %w", err)
	}
	if err := ps.queue.WriteBuffer(ps.buffers.Bounds, 0, core.BoundsBytes(born)); err != nil {
		return fmt.Errorf("failed to write update bounds: %w", err)
	}

	update := ps.buffers.Sets[ps.State.UpdateSlot()]
	render := ps.buffers.Sets[ps.State.RenderSlot()]

	cPass := frame.Encoder.BeginComputePass(nil)
	cPass.SetPipeline(ps.programs.Update)
	cPass.SetBindGroup(0, update.Group, nil)
	cPass.SetBindGroup(1, ps.world.BindGroup, nil)
	cPass.DispatchWorkgroups(core.WorkgroupCount(born), 1, 1)
	if err := cPass.End(); err != nil {
		return fmt.Errorf("update pass: %w", err)
	}

	rPass := frame.Encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    frame.Target,
			LoadOp:  wgpu.LoadOpLoad,
			StoreOp: wgpu.StoreOpStore,
		}},
	})
	rPass.SetPipeline(ps.programs.Render)
	rPass.SetVertexBuffer(0, render.Buffer, 0, ps.buffers.Size())
	rPass.Draw(born, 1, 0, 0)
	if err := rPass.End(); err != nil {
		return fmt.Errorf("render pass: %w", err)
	}

	ps.State.Commit(step)
	return nil
}

func (ps *ParticleSystem) SetOrigin(origin mgl32.Vec2) {
	ps.State.Origin = origin
}

func (ps *ParticleSystem) Origin() mgl32.Vec2 {
	return ps.State.Origin
}

// SetTuning replaces the runtime parameters after validating them.
func (ps *ParticleSystem) SetTuning(t core.EmitterTuning) error {
	if err := t.Validate(); err != nil {
		return err
	}
	ps.State.Tuning = t
	return nil
}

func (ps *ParticleSystem) Stats() core.SystemStats {
	return ps.State.Stats()
}

// BindingSets exposes the four binding sets for inspection.
func (ps *ParticleSystem) BindingSets() [4]BindingSet {
	if ps.buffers == nil {
		return [4]BindingSet{}
	}
	return ps.buffers.Sets
}

// Release frees the programs and buffers. The shared World is left alone.
// AdvanceAndDraw returns ErrNoProgram afterwards.
func (ps *ParticleSystem) Release() {
	if ps == nil {
		return
	}
	ps.buffers.Release()
	ps.buffers = nil
	ps.programs.Release()
	ps.programs = nil
}
