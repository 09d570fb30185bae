package core

import "math/rand"

// NoiseSize is the edge length of the square RG noise texture.
const NoiseSize = 512

// RandomRGData returns width*height texels of two random bytes each.
func RandomRGData(rng *rand.Rand, width, height int) []byte {
	data := make([]byte, width*height*2)
	rng.Read(data)
	return data
}
