package core

import (
	"encoding/binary"

	"github.com/go-gl/mathgl/mgl32"
)

// UpdateParamsSize is the byte size of the Params uniform in particle_update.wgsl.
const UpdateParamsSize = 48

// BoundsSize is the byte size of the Bounds uniform (vec4 aligned).
const BoundsSize = 16

// FrameUniforms is the complete per-frame input of the update stage.
type FrameUniforms struct {
	TimeDelta float32 // seconds
	Time      float32 // seconds
	TotalTime float32 // milliseconds
	Gravity   mgl32.Vec2
	Origin    mgl32.Vec2
	MinTheta  float32
	MaxTheta  float32
	MinSpeed  float32
	MaxSpeed  float32
}

// Bytes packs the uniforms into the std140-compatible Params layout.
//
//	0  TimeDelta  4  Time  8  TotalTime  12 pad
//	16 Gravity    24 Origin
//	32 MinTheta   36 MaxTheta  40 MinSpeed  44 MaxSpeed
func (u FrameUniforms) Bytes() []byte {
	buf := make([]byte, UpdateParamsSize)
	putF32(buf[0:], u.TimeDelta)
	putF32(buf[4:], u.Time)
	putF32(buf[8:], u.TotalTime)
	putF32(buf[16:], u.Gravity[0])
	putF32(buf[20:], u.Gravity[1])
	putF32(buf[24:], u.Origin[0])
	putF32(buf[28:], u.Origin[1])
	putF32(buf[32:], u.MinTheta)
	putF32(buf[36:], u.MaxTheta)
	putF32(buf[40:], u.MinSpeed)
	putF32(buf[44:], u.MaxSpeed)
	return buf
}

// BoundsBytes packs the number of live particles the update dispatch may touch.
func BoundsBytes(count uint32) []byte {
	buf := make([]byte, BoundsSize)
	binary.LittleEndian.PutUint32(buf[0:], count)
	return buf
}

// UpdateWorkgroupSize matches @workgroup_size in particle_update.wgsl.
const UpdateWorkgroupSize = 64

// WorkgroupCount is the number of update workgroups needed for n particles.
func WorkgroupCount(n uint32) uint32 {
	return (n + UpdateWorkgroupSize - 1) / UpdateWorkgroupSize
}
