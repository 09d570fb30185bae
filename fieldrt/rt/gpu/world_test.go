package gpu

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTightPixels_Contiguous(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	assert.Equal(t, img.Pix, tightPixels(img))
}

func TestTightPixels_SubImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(2, 3, color.RGBA{R: 10, G: 20, B: 30, A: 40})
	sub := img.SubImage(image.Rect(2, 3, 5, 5)).(*image.RGBA)

	px := tightPixels(sub)
	require.Len(t, px, 3*2*4)
	assert.Equal(t, []byte{10, 20, 30, 40}, px[:4])
}

func TestNewWorld_RejectsBadInput(t *testing.T) {
	_, err := NewWorld(nil, nil, nil, make([]byte, 10), image.NewRGBA(image.Rect(0, 0, 1, 1)))
	assert.Error(t, err)

	_, err = NewWorld(nil, nil, nil, make([]byte, 512*512*2), nil)
	assert.Error(t, err)
}
