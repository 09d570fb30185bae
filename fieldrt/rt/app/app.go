package app

import (
	"fmt"
	"image"
	"math/rand"

	"github.com/driftfield/driftfield/fieldrt/rt/core"
	"github.com/driftfield/driftfield/fieldrt/rt/gpu"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// App owns the WebGPU device and surface of one window, the shared world
// textures and the per-frame command stream particle systems draw into.
type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	Layouts  *gpu.Layouts
	World    *gpu.World
	Sources  gpu.ProgramSources
	Profiler *Profiler

	ClearColor wgpu.Color

	frameTexture *wgpu.Texture
	frameView    *wgpu.TextureView
}

func NewApp(window *glfw.Window) *App {
	return &App{
		Window:     window,
		Sources:    gpu.DefaultProgramSources(),
		Profiler:   NewProfiler(),
		ClearColor: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
	}
}

// Init creates the device and surface, then uploads the world textures.
// forceField is sampled by every particle system; rng seeds the noise field.
func (a *App) Init(forceField *image.RGBA, rng *rand.Rand) error {
	a.Instance = wgpu.CreateInstance(nil)
	a.Surface = a.Instance.CreateSurface(GetSurfaceDescriptor(a.Window))

	adapter, err := a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: a.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("request adapter: %w", err)
	}
	a.Adapter = adapter

	a.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		return fmt.Errorf("request device: %w", err)
	}
	a.Queue = a.Device.GetQueue()

	width, height := a.Window.GetFramebufferSize()
	caps := a.Surface.GetCapabilities(adapter)
	a.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	a.Surface.Configure(a.Adapter, a.Device, a.Config)

	a.Layouts, err = gpu.NewLayouts(a.Device)
	if err != nil {
		return err
	}

	noise := core.RandomRGData(rng, core.NoiseSize, core.NoiseSize)
	a.World, err = gpu.NewWorld(a.Device, a.Queue, a.Layouts, noise, forceField)
	if err != nil {
		return fmt.Errorf("world resources: %w", err)
	}
	return nil
}

// NewParticleSystem builds a particle system that draws onto this window.
func (a *App) NewParticleSystem(params core.EmitterParams, rng *rand.Rand) (*gpu.ParticleSystem, error) {
	return gpu.NewParticleSystem(gpu.Device{
		Device:  a.Device,
		Queue:   a.Queue,
		Layouts: a.Layouts,
		World:   a.World,
		Format:  a.Config.Format,
	}, a.Sources, params, rng)
}

func (a *App) Resize(w, h int) {
	if w > 0 && h > 0 {
		a.Config.Width = uint32(w)
		a.Config.Height = uint32(h)
		a.Surface.Configure(a.Adapter, a.Device, a.Config)
	}
}

// BeginFrame acquires the next surface texture and clears it. Every particle
// system then encodes into the returned frame before EndFrame submits it.
func (a *App) BeginFrame() (frame *gpu.Frame, err error) {
	a.Profiler.BeginScope("frame")
	defer func() {
		if err != nil {
			a.Profiler.DiscardScope("frame")
		}
	}()

	tex, err := a.Surface.GetCurrentTexture()
	if err != nil {
		return nil, fmt.Errorf("GetCurrentTexture failed: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("CreateView failed: %w", err)
	}
	encoder, err := a.Device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		tex.Release()
		return nil, fmt.Errorf("CreateCommandEncoder failed: %w", err)
	}
	a.frameTexture, a.frameView = tex, view

	clearPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: a.ClearColor,
		}},
	})
	if err := clearPass.End(); err != nil {
		encoder.Release()
		a.releaseFrame()
		return nil, fmt.Errorf("clear pass End failed: %w", err)
	}

	return &gpu.Frame{Encoder: encoder, Target: view}, nil
}

// EndFrame submits the frame's commands and presents the surface.
func (a *App) EndFrame(frame *gpu.Frame) error {
	defer a.releaseFrame()
	defer a.Profiler.EndFrame()
	defer a.Profiler.EndScope("frame")

	cmd, err := frame.Encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("encoder Finish failed: %w", err)
	}
	a.Queue.Submit(cmd)
	a.Surface.Present()
	return nil
}

func (a *App) releaseFrame() {
	if a.frameView != nil {
		a.frameView.Release()
		a.frameView = nil
	}
	if a.frameTexture != nil {
		a.frameTexture.Release()
		a.frameTexture = nil
	}
}

// Release frees whatever Init managed to create. It is safe after a failed
// Init and safe to call twice.
func (a *App) Release() {
	a.World.Release()
	a.Layouts.Release()
	a.World, a.Layouts = nil, nil
	if a.Device != nil {
		a.Device.Release()
		a.Device, a.Queue = nil, nil
	}
	if a.Adapter != nil {
		a.Adapter.Release()
		a.Adapter = nil
	}
	if a.Surface != nil {
		a.Surface.Release()
		a.Surface = nil
	}
	if a.Instance != nil {
		a.Instance.Release()
		a.Instance = nil
	}
}

func GetSurfaceDescriptor(w *glfw.Window) *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(w)
}
