package driftfield

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "field.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestLoadForceFieldKeepsSmallImages(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 64, 32))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	src.Set(3, 4, color.NRGBA{R: 10, G: 200, B: 0, A: 255})

	field, err := LoadForceField(writePNG(t, src))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 32), field.Bounds())
	assert.Equal(t, color.RGBA{R: 10, G: 200, B: 0, A: 255}, field.RGBAAt(3, 4))
}

func TestLoadForceFieldScalesDown(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1024, 256))
	field, err := LoadForceField(writePNG(t, src))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 512, 128), field.Bounds())
}

func TestLoadForceFieldErrors(t *testing.T) {
	_, err := LoadForceField(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "junk.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))
	_, err = LoadForceField(path)
	require.Error(t, err)
}

func TestProceduralForceField(t *testing.T) {
	a := ProceduralForceField(64, 64, 7)
	b := ProceduralForceField(64, 64, 7)
	c := ProceduralForceField(64, 64, 8)

	assert.Equal(t, a.Pix, b.Pix, "same seed, same field")
	assert.NotEqual(t, a.Pix, c.Pix)
	for i := 3; i < len(a.Pix); i += 4 {
		require.Equal(t, uint8(255), a.Pix[i])
	}
}

func TestUnitToByte(t *testing.T) {
	assert.Equal(t, uint8(0), unitToByte(-1))
	assert.Equal(t, uint8(128), unitToByte(0))
	assert.Equal(t, uint8(255), unitToByte(1))
	assert.Equal(t, uint8(255), unitToByte(4))
}
