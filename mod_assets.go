package driftfield

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"math/rand"
	"os"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxForceFieldSize caps either side of an uploaded force field.
const MaxForceFieldSize = 512

// LoadForceField decodes an image file (png, jpeg, gif, bmp, tiff or webp)
// into RGBA, scaled down to fit MaxForceFieldSize. Red and green encode the
// force on x and y, 0.5 meaning none.
func LoadForceField(filename string) (*image.RGBA, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open force field: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode force field %s: %w", filename, err)
	}
	return fitForceField(img), nil
}

func fitForceField(img image.Image) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > MaxForceFieldSize || h > MaxForceFieldSize {
		scale := math.Min(float64(MaxForceFieldSize)/float64(w), float64(MaxForceFieldSize)/float64(h))
		w = max(1, int(float64(w)*scale))
		h = max(1, int(float64(h)*scale))
	}

	if rgba, ok := img.(*image.RGBA); ok && w == b.Dx() && h == b.Dy() && b.Min == (image.Point{}) {
		return rgba
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	}
	return dst
}

// ProceduralForceField builds a tileable field from a few random swirls. It is
// used when no force field image is configured.
func ProceduralForceField(width, height int, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	type swirl struct {
		fx, fy, phase, amp float64
	}
	swirls := make([]swirl, 4)
	for i := range swirls {
		swirls[i] = swirl{
			fx:    float64(1 + rng.Intn(3)),
			fy:    float64(1 + rng.Intn(3)),
			phase: rng.Float64() * 2 * math.Pi,
			amp:   0.5 + 0.5*rng.Float64(),
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	norm := 0.0
	for _, s := range swirls {
		norm += s.amp
	}
	for y := 0; y < height; y++ {
		v := 2 * math.Pi * float64(y) / float64(height)
		for x := 0; x < width; x++ {
			u := 2 * math.Pi * float64(x) / float64(width)
			var fx, fy float64
			for _, s := range swirls {
				a := s.fx*u + s.fy*v + s.phase
				fx += s.amp * math.Sin(a) * s.fy
				fy -= s.amp * math.Sin(a) * s.fx
			}
			i := img.PixOffset(x, y)
			img.Pix[i+0] = unitToByte(fx / (3 * norm))
			img.Pix[i+1] = unitToByte(fy / (3 * norm))
			img.Pix[i+2] = 0
			img.Pix[i+3] = 255
		}
	}
	return img
}

// unitToByte maps [-1, 1] to [0, 255].
func unitToByte(v float64) uint8 {
	v = math.Max(-1, math.Min(1, v))
	return uint8(math.Round((v + 1) * 127.5))
}
