package core

import (
	"encoding/binary"
	"math"
	"math/rand"
)

// ParticleRecord matches the Particle struct in particle_update.wgsl and
// particle_render.wgsl. Field order is the captured output order.
type ParticleRecord struct {
	Position [2]float32
	Age      float32
	Life     float32
	Velocity [2]float32
}

// ParticleStride is the size of one packed ParticleRecord in bytes.
const ParticleStride = 6 * 4

// InitialParticleData seeds count particles scattered over the unit square.
// Every particle starts expired (age > life) so the first update respawns it.
func InitialParticleData(rng *rand.Rand, count int, minLife, maxLife float32) []ParticleRecord {
	records := make([]ParticleRecord, count)
	for i := range records {
		life := minLife + rng.Float32()*(maxLife-minLife)
		records[i] = ParticleRecord{
			Position: [2]float32{rng.Float32(), rng.Float32()},
			Age:      life + 1,
			Life:     life,
		}
	}
	return records
}

// EncodeRecords packs records into the little endian layout the GPU buffers use.
func EncodeRecords(records []ParticleRecord) []byte {
	buf := make([]byte, len(records)*ParticleStride)
	for i, r := range records {
		o := i * ParticleStride
		putF32(buf[o+0:], r.Position[0])
		putF32(buf[o+4:], r.Position[1])
		putF32(buf[o+8:], r.Age)
		putF32(buf[o+12:], r.Life)
		putF32(buf[o+16:], r.Velocity[0])
		putF32(buf[o+20:], r.Velocity[1])
	}
	return buf
}

// DecodeRecords is the inverse of EncodeRecords. Trailing partial records are ignored.
func DecodeRecords(buf []byte) []ParticleRecord {
	records := make([]ParticleRecord, len(buf)/ParticleStride)
	for i := range records {
		o := i * ParticleStride
		records[i] = ParticleRecord{
			Position: [2]float32{getF32(buf[o+0:]), getF32(buf[o+4:])},
			Age:      getF32(buf[o+8:]),
			Life:     getF32(buf[o+12:]),
			Velocity: [2]float32{getF32(buf[o+16:]), getF32(buf[o+20:])},
		}
	}
	return records
}

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func getF32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
