package shaders

import (
	_ "embed"
)

//go:embed particle_update.wgsl
var ParticleUpdateWGSL string

//go:embed particle_render.wgsl
var ParticleRenderWGSL string

// Entry points of the embedded programs.
const (
	UpdateEntryPoint   = "main"
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

// ParticleStructName is the struct whose fields the update stage writes.
const ParticleStructName = "Particle"
