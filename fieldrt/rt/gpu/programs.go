package gpu

import (
	"fmt"

	"github.com/driftfield/driftfield/fieldrt/rt/core"
	"github.com/driftfield/driftfield/fieldrt/rt/shaders"

	"github.com/cogentcore/webgpu/wgpu"
)

// ProgramSources is a pair of WGSL programs: the update stage (compute) and
// the render stage (vertex + fragment).
type ProgramSources struct {
	Update string
	Render string
}

// DefaultProgramSources returns the embedded particle programs.
func DefaultProgramSources() ProgramSources {
	return ProgramSources{
		Update: shaders.ParticleUpdateWGSL,
		Render: shaders.ParticleRenderWGSL,
	}
}

// Programs are the linked update and render pipelines of one particle system.
type Programs struct {
	Update *wgpu.ComputePipeline
	Render *wgpu.RenderPipeline
}

// Ready reports whether both programs were built.
func (p *Programs) Ready() bool {
	return p != nil && p.Update != nil && p.Render != nil
}

func (p *Programs) Release() {
	if p == nil {
		return
	}
	if p.Update != nil {
		p.Update.Release()
		p.Update = nil
	}
	if p.Render != nil {
		p.Render.Release()
		p.Render = nil
	}
}

// CheckSources validates what can be checked without a device: the update
// stage must write particles in the record layout's order.
func CheckSources(src ProgramSources) error {
	fields, err := shaders.CapturedFields(src.Update)
	if err != nil {
		return fmt.Errorf("update stage: %w: %w", core.ErrProgramBuildFailure, err)
	}
	if err := core.VerifyCaptureOrder(fields); err != nil {
		return fmt.Errorf("update stage: %w", err)
	}
	return nil
}

// BuildPrograms compiles both stages. It returns either two usable pipelines
// or an error wrapping core.ErrProgramBuildFailure, never a partial result.
func BuildPrograms(device *wgpu.Device, layouts *Layouts, src ProgramSources, format wgpu.TextureFormat) (*Programs, error) {
	if err := CheckSources(src); err != nil {
		return nil, err
	}

	updateModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Particle Update CS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src.Update},
	})
	if err != nil {
		return nil, fmt.Errorf("compile update stage: %w: %w", core.ErrProgramBuildFailure, err)
	}
	defer updateModule.Release()

	renderModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Particle Render VS/FS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src.Render},
	})
	if err != nil {
		return nil, fmt.Errorf("compile render stage: %w: %w", core.ErrProgramBuildFailure, err)
	}
	defer renderModule.Release()

	update, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  "Particle Update Pipeline",
		Layout: layouts.Pipeline,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     updateModule,
			EntryPoint: shaders.UpdateEntryPoint,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("link update stage: %w: %w", core.ErrProgramBuildFailure, err)
	}

	render, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Particle Render Pipeline",
		Vertex: wgpu.VertexState{
			Module:     renderModule,
			EntryPoint: shaders.VertexEntryPoint,
			Buffers:    []wgpu.VertexBufferLayout{vertexBufferLayout(core.RenderLayout())},
		},
		Fragment: &wgpu.FragmentState{
			Module:     renderModule,
			EntryPoint: shaders.FragmentEntryPoint,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    format,
					WriteMask: wgpu.ColorWriteMaskAll,
					Blend: &wgpu.BlendState{
						Color: wgpu.BlendComponent{
							Operation: wgpu.BlendOperationAdd,
							SrcFactor: wgpu.BlendFactorSrcAlpha,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						},
						Alpha: wgpu.BlendComponent{
							Operation: wgpu.BlendOperationAdd,
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						},
					},
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyPointList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		update.Release()
		return nil, fmt.Errorf("link render stage: %w: %w", core.ErrProgramBuildFailure, err)
	}

	return &Programs{Update: update, Render: render}, nil
}

func vertexBufferLayout(l core.Layout) wgpu.VertexBufferLayout {
	attrs := make([]wgpu.VertexAttribute, len(l.Attributes))
	for i, a := range l.Attributes {
		attrs[i] = wgpu.VertexAttribute{
			Format:         vertexFormat(a.Components),
			Offset:         a.Offset,
			ShaderLocation: a.Location,
		}
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: l.Stride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}
}

func vertexFormat(components int) wgpu.VertexFormat {
	switch components {
	case 1:
		return wgpu.VertexFormatFloat32
	case 2:
		return wgpu.VertexFormatFloat32x2
	case 3:
		return wgpu.VertexFormatFloat32x3
	default:
		return wgpu.VertexFormatFloat32x4
	}
}
