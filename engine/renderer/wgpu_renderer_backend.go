package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuDevice presents through a WebGPU surface.
//
// Command lists execute on the embedded SoftDevice queue; each presented image is packed
// by the queue goroutine and handed to the next Present call on the window thread, which
// uploads it into a frame texture and draws it into the swapchain with the present
// pipeline. Every wgpu call therefore stays on the thread that created the surface.
type wgpuDevice struct {
	*SoftDevice

	mu       *sync.Mutex
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	alphaMode     wgpu.CompositeAlphaMode
	presentMode   wgpu.PresentMode
	surfaceExtent common.Extent

	present    pipeline.Pipeline
	presentGPU *pipeline.Compiled
	sampler    *wgpu.Sampler

	frameTexture   *wgpu.Texture
	frameView      *wgpu.TextureView
	frameBindGroup *wgpu.BindGroup
	frameExtent    common.Extent

	frames *presentQueue
}

var _ Device = &wgpuDevice{}

func newWGPUDevice(cfg *deviceConfig) (Device, error) {
	if cfg.surfaceDescriptor == nil {
		return nil, errors.New("renderer: wgpu backend needs a surface descriptor")
	}
	runtime.LockOSThread()

	w := &wgpuDevice{
		SoftDevice:  newSoftDevice(cfg),
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		frames:      newPresentQueue(PresentBacklog),
	}
	if cfg.presentMode == PresentModeUncapped {
		w.presentMode = wgpu.PresentModeImmediate
	}
	w.surface = w.instance.CreateSurface(cfg.surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("%w: %v", ErrNoAdapter, err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("renderer: request device: %w", err)
	}
	w.device = d
	w.queue = d.GetQueue()

	w.sampler, err = d.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Present Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeNearest,
		MinFilter:     wgpu.FilterModeNearest,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		MaxAnisotropy: 1,
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("renderer: create present sampler: %w", err)
	}

	w.SoftDevice.onPresent = w.pack
	if err := w.Resize(cfg.surfaceExtent); err != nil {
		w.Release()
		return nil, err
	}
	return w, nil
}

func (w *wgpuDevice) Backend() BackendType { return BackendWGPU }

// Resize configures the surface for the new framebuffer size. A zero extent leaves the
// surface unconfigured until the window is restored. The present pipeline is rebuilt when
// the surface format changes.
func (w *wgpuDevice) Resize(extent common.Extent) error {
	if err := w.SoftDevice.Resize(extent); err != nil {
		return err
	}
	if extent.IsZero() {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	capabilities := w.surface.GetCapabilities(w.adapter)
	if len(capabilities.Formats) == 0 {
		return fmt.Errorf("%w: surface reports no formats", ErrNoAdapter)
	}
	format := capabilities.Formats[0]
	for _, f := range capabilities.Formats {
		if f == wgpu.TextureFormatBGRA8Unorm || f == wgpu.TextureFormatRGBA8Unorm {
			format = f
			break
		}
	}
	w.alphaMode = capabilities.AlphaModes[0]
	w.surfaceExtent = extent

	if w.presentGPU == nil || format != w.surfaceFormat {
		w.surfaceFormat = format
		w.present = pipeline.NewRenderPipeline("Present", shader.Present(), pipeline.WithTargetFormat(format))
		compiled, err := w.present.Create(w.device)
		if err != nil {
			return fmt.Errorf("renderer: create present pipeline: %w", err)
		}
		w.releaseFrameTexture()
		w.presentGPU.Release()
		w.presentGPU = compiled
	}
	w.configure()
	return nil
}

// configure applies the current surface settings. Callers hold mu.
func (w *wgpuDevice) configure() {
	w.surface.Configure(w.adapter, w.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      w.surfaceFormat,
		Width:       uint32(w.surfaceExtent.Width),
		Height:      uint32(w.surfaceExtent.Height),
		PresentMode: w.presentMode,
		AlphaMode:   w.alphaMode,
	})
}

// Present shows every frame the queue has finished since the last call, oldest first,
// then queues t.
func (w *wgpuDevice) Present(t *Target) error {
	if err := w.frames.drain(w.blit); err != nil {
		return err
	}
	return w.SoftDevice.Present(t)
}

// pack runs on the queue goroutine. It blocks while the backlog is full.
func (w *wgpuDevice) pack(img *Image) {
	data, err := packRGBA8(img, img.Width*4)
	if err != nil {
		return
	}
	w.frames.push(packedFrame{extent: common.Extent{Width: img.Width, Height: img.Height}, data: data})
}

func (w *wgpuDevice) blit(f packedFrame) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if f.extent != w.surfaceExtent || f.extent.IsZero() {
		return nil
	}
	if err := w.ensureFrameTexture(f.extent); err != nil {
		return err
	}

	w.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  w.frameTexture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		f.data,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(f.extent.Width * 4),
			RowsPerImage: uint32(f.extent.Height),
		},
		&wgpu.Extent3D{
			Width:              uint32(f.extent.Width),
			Height:             uint32(f.extent.Height),
			DepthOrArrayLayers: 1,
		},
	)

	surfaceTexture, err := w.surface.GetCurrentTexture()
	if err != nil {
		w.configure()
		surfaceTexture, err = w.surface.GetCurrentTexture()
		if err != nil {
			w.SoftDevice.Lose()
			return fmt.Errorf("%w: %v", ErrDeviceLost, err)
		}
	}
	defer surfaceTexture.Release()

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		return err
	}
	defer view.Release()

	encoder, err := w.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	pass.SetPipeline(w.presentGPU.Pipeline)
	pass.SetBindGroup(0, w.frameBindGroup, nil)
	pass.Draw(3, 1, 0, 0)
	pass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	defer commandBuffer.Release()

	w.queue.Submit(commandBuffer)
	w.surface.Present()
	w.device.Poll(false, nil)
	return nil
}

// ensureFrameTexture recreates the texture the packed frame is uploaded into, and the bind
// group that exposes it to the present pipeline, when the frame size changes.
func (w *wgpuDevice) ensureFrameTexture(extent common.Extent) error {
	if w.frameTexture != nil && w.frameExtent == extent {
		return nil
	}
	w.releaseFrameTexture()

	tex, err := w.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Present Frame Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(extent.Width),
			Height:             uint32(extent.Height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("renderer: create frame texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("renderer: create frame texture view: %w", err)
	}

	s := w.present.Shader()
	texBinding, _ := s.Binding(0, "frameTexture")
	sampBinding, _ := s.Binding(0, "frameSampler")
	bg, err := w.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Present Bind Group",
		Layout: w.presentGPU.Layouts[0],
		Entries: []wgpu.BindGroupEntry{
			{Binding: uint32(texBinding), TextureView: view},
			{Binding: uint32(sampBinding), Sampler: w.sampler},
		},
	})
	if err != nil {
		view.Release()
		tex.Release()
		return err
	}

	w.frameTexture = tex
	w.frameView = view
	w.frameBindGroup = bg
	w.frameExtent = extent
	return nil
}

func (w *wgpuDevice) releaseFrameTexture() {
	if w.frameBindGroup != nil {
		w.frameBindGroup.Release()
		w.frameBindGroup = nil
	}
	if w.frameView != nil {
		w.frameView.Release()
		w.frameView = nil
	}
	if w.frameTexture != nil {
		w.frameTexture.Release()
		w.frameTexture = nil
	}
	w.frameExtent = common.Extent{}
}

func (w *wgpuDevice) Release() {
	w.frames.close()
	w.SoftDevice.Release()

	w.mu.Lock()
	defer w.mu.Unlock()
	w.releaseFrameTexture()
	w.presentGPU.Release()
	w.presentGPU = nil
	if w.sampler != nil {
		w.sampler.Release()
		w.sampler = nil
	}
	if w.surface != nil {
		w.surface.Release()
		w.surface = nil
	}
	if w.device != nil {
		w.device.Release()
		w.device = nil
	}
	if w.adapter != nil {
		w.adapter.Release()
		w.adapter = nil
	}
	if w.instance != nil {
		w.instance.Release()
		w.instance = nil
	}
}
