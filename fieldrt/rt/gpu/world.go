package gpu

import (
	"fmt"
	"image"

	"github.com/driftfield/driftfield/fieldrt/rt/core"

	"github.com/cogentcore/webgpu/wgpu"
)

// World holds the read-only textures every update pass samples: the RG noise
// field at unit 0 and the force field at unit 1. One World is shared by all
// particle systems on a device.
type World struct {
	NoiseTexture      *wgpu.Texture
	NoiseView         *wgpu.TextureView
	NoiseSampler      *wgpu.Sampler
	ForceFieldTexture *wgpu.Texture
	ForceFieldView    *wgpu.TextureView
	ForceFieldSampler *wgpu.Sampler
	BindGroup         *wgpu.BindGroup
}

// NewWorld uploads the noise texels (core.NoiseSize squared, two bytes each)
// and the force-field image and builds the world bind group.
func NewWorld(device *wgpu.Device, queue *wgpu.Queue, layouts *Layouts, noise []byte, forceField *image.RGBA) (*World, error) {
	if len(noise) != core.NoiseSize*core.NoiseSize*2 {
		return nil, fmt.Errorf("noise data is %d bytes, want %d", len(noise), core.NoiseSize*core.NoiseSize*2)
	}
	if forceField == nil || forceField.Bounds().Empty() {
		return nil, fmt.Errorf("force field image is empty")
	}

	w := &World{}
	var err error

	w.NoiseTexture, w.NoiseView, err = uploadTexture(device, queue, "RG Noise", wgpu.TextureFormatRG8Unorm,
		core.NoiseSize, core.NoiseSize, 2, noise)
	if err != nil {
		w.Release()
		return nil, err
	}

	b := forceField.Bounds()
	w.ForceFieldTexture, w.ForceFieldView, err = uploadTexture(device, queue, "Force Field", wgpu.TextureFormatRGBA8Unorm,
		b.Dx(), b.Dy(), 4, tightPixels(forceField))
	if err != nil {
		w.Release()
		return nil, err
	}

	w.NoiseSampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "RG Noise Sampler",
		AddressModeU:  wgpu.AddressModeMirrorRepeat,
		AddressModeV:  wgpu.AddressModeMirrorRepeat,
		AddressModeW:  wgpu.AddressModeMirrorRepeat,
		MagFilter:     wgpu.FilterModeNearest,
		MinFilter:     wgpu.FilterModeNearest,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   1,
		MaxAnisotropy: 1,
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("failed to create noise sampler: %w", err)
	}

	w.ForceFieldSampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Force Field Sampler",
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   1,
		MaxAnisotropy: 1,
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("failed to create force field sampler: %w", err)
	}

	w.BindGroup, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "World BG",
		Layout: layouts.World,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: w.NoiseView},
			{Binding: 1, TextureView: w.ForceFieldView},
			{Binding: 2, Sampler: w.NoiseSampler},
			{Binding: 3, Sampler: w.ForceFieldSampler},
		},
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("failed to create world bind group: %w", err)
	}
	return w, nil
}

func uploadTexture(device *wgpu.Device, queue *wgpu.Queue, label string, format wgpu.TextureFormat,
	width, height, bytesPerPixel int, data []byte) (*wgpu.Texture, *wgpu.TextureView, error) {
	extent := wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          extent,
		Format:        format,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s texture: %w", label, err)
	}

	err = queue.WriteTexture(tex.AsImageCopy(), data, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(width * bytesPerPixel),
		RowsPerImage: uint32(height),
	}, &extent)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("failed to upload %s texture: %w", label, err)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("failed to create %s view: %w", label, err)
	}
	return tex, view, nil
}

// tightPixels returns img's pixels without row padding.
func tightPixels(img *image.RGBA) []byte {
	b := img.Bounds()
	rowLen := b.Dx() * 4
	if img.Stride == rowLen && len(img.Pix) == rowLen*b.Dy() {
		return img.Pix
	}
	out := make([]byte, 0, rowLen*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		out = append(out, img.Pix[off:off+rowLen]...)
	}
	return out
}

func (w *World) Release() {
	if w == nil {
		return
	}
	if w.BindGroup != nil {
		w.BindGroup.Release()
	}
	for _, s := range []*wgpu.Sampler{w.NoiseSampler, w.ForceFieldSampler} {
		if s != nil {
			s.Release()
		}
	}
	for _, v := range []*wgpu.TextureView{w.NoiseView, w.ForceFieldView} {
		if v != nil {
			v.Release()
		}
	}
	for _, t := range []*wgpu.Texture{w.NoiseTexture, w.ForceFieldTexture} {
		if t != nil {
			t.Release()
		}
	}
	*w = World{}
}
