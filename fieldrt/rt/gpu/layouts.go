package gpu

import (
	"fmt"

	"github.com/driftfield/driftfield/fieldrt/rt/core"

	"github.com/cogentcore/webgpu/wgpu"
)

// Layouts are the bind group layouts shared by every particle system on a
// device. Group 0 holds per-system buffers, group 1 the world textures.
type Layouts struct {
	Particle *wgpu.BindGroupLayout
	World    *wgpu.BindGroupLayout
	Pipeline *wgpu.PipelineLayout
}

func NewLayouts(device *wgpu.Device) (*Layouts, error) {
	particle, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "ParticleBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: core.UpdateParamsSize,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: core.BoundsSize,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeReadOnlyStorage,
					MinBindingSize: core.ParticleStride,
				},
			},
			{
				Binding:    3,
				Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeStorage,
					MinBindingSize: core.ParticleStride,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create particle bind group layout: %w", err)
	}

	world, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "WorldBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageCompute,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageCompute,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageCompute,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
			},
			{
				Binding:    3,
				Visibility: wgpu.ShaderStageCompute,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		particle.Release()
		return nil, fmt.Errorf("failed to create world bind group layout: %w", err)
	}

	pipeline, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "ParticleUpdateLayout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{particle, world},
	})
	if err != nil {
		particle.Release()
		world.Release()
		return nil, fmt.Errorf("failed to create particle pipeline layout: %w", err)
	}

	return &Layouts{Particle: particle, World: world, Pipeline: pipeline}, nil
}

func (l *Layouts) Release() {
	if l == nil {
		return
	}
	if l.Pipeline != nil {
		l.Pipeline.Release()
	}
	if l.World != nil {
		l.World.Release()
	}
	if l.Particle != nil {
		l.Particle.Release()
	}
}
