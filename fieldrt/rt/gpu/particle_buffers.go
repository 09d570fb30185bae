package gpu

import (
	"fmt"

	"github.com/driftfield/driftfield/fieldrt/rt/core"

	"github.com/cogentcore/webgpu/wgpu"
)

// BindingSet feeds one stage from one particle buffer. Update sets carry a
// bind group reading Buffer and writing Target; render sets only name the
// vertex buffer and the render layout.
type BindingSet struct {
	Slot   core.BindingSlot
	Buffer *wgpu.Buffer
	Target *wgpu.Buffer
	Group  *wgpu.BindGroup
}

// ParticleBuffers owns the two ping-pong buffers, the uniform buffers and
// the four binding sets built over them.
type ParticleBuffers struct {
	Buffers [2]*wgpu.Buffer
	Params  *wgpu.Buffer
	Bounds  *wgpu.Buffer
	Sets    [4]BindingSet
	Count   int
}

// AllocateParticleBuffers creates both particle buffers seeded with the same
// records, plus the uniform buffers, and builds the binding sets.
func AllocateParticleBuffers(device *wgpu.Device, layouts *Layouts, records []core.ParticleRecord) (*ParticleBuffers, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no particle records: %w", core.ErrInvalidRange)
	}
	pb := &ParticleBuffers{Count: len(records)}
	data := core.EncodeRecords(records)

	for i := range pb.Buffers {
		buf, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    fmt.Sprintf("Particle Buffer %d", i),
			Contents: data,
			Usage:    wgpu.BufferUsageStorage | wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
		})
		if err != nil {
			pb.Release()
			return nil, fmt.Errorf("failed to create particle buffer %d: %w", i, err)
		}
		pb.Buffers[i] = buf
	}

	var err error
	pb.Params, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Particle Update Params",
		Size:  core.UpdateParamsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		pb.Release()
		return nil, fmt.Errorf("failed to create params buffer: %w", err)
	}
	pb.Bounds, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Particle Update Bounds",
		Size:  core.BoundsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		pb.Release()
		return nil, fmt.Errorf("failed to create bounds buffer: %w", err)
	}

	for k, slot := range core.BindingPlan() {
		set := BindingSet{Slot: slot, Buffer: pb.Buffers[slot.Source]}
		if slot.Stage == core.StageUpdate {
			set.Target = pb.Buffers[slot.Target]
			set.Group, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
				Label:  fmt.Sprintf("Particle Update BG %d", k),
				Layout: layouts.Particle,
				Entries: []wgpu.BindGroupEntry{
					{Binding: 0, Buffer: pb.Params, Size: wgpu.WholeSize},
					{Binding: 1, Buffer: pb.Bounds, Size: wgpu.WholeSize},
					{Binding: 2, Buffer: set.Buffer, Size: wgpu.WholeSize},
					{Binding: 3, Buffer: set.Target, Size: wgpu.WholeSize},
				},
			})
			if err != nil {
				pb.Release()
				return nil, fmt.Errorf("failed to create update bind group %d: %w", k, err)
			}
		}
		pb.Sets[k] = set
	}

	return pb, nil
}

// Size is the byte size of one particle buffer.
func (pb *ParticleBuffers) Size() uint64 {
	return uint64(pb.Count) * core.ParticleStride
}

func (pb *ParticleBuffers) Release() {
	if pb == nil {
		return
	}
	for i := range pb.Sets {
		if pb.Sets[i].Group != nil {
			pb.Sets[i].Group.Release()
		}
		pb.Sets[i] = BindingSet{}
	}
	for i, buf := range pb.Buffers {
		if buf != nil {
			buf.Release()
			pb.Buffers[i] = nil
		}
	}
	if pb.Params != nil {
		pb.Params.Release()
		pb.Params = nil
	}
	if pb.Bounds != nil {
		pb.Bounds.Release()
		pb.Bounds = nil
	}
}
