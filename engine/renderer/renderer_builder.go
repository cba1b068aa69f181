package renderer

import (
	"runtime"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// deviceConfig collects builder options before a backend is created.
type deviceConfig struct {
	workers              int
	queueDepth           int
	presentMode          PresentMode
	forceFallbackAdapter bool
	surfaceDescriptor    *wgpu.SurfaceDescriptor
	surfaceExtent        common.Extent
}

func defaultDeviceConfig() *deviceConfig {
	return &deviceConfig{
		workers:     max(runtime.NumCPU()-1, 1),
		queueDepth:  8,
		presentMode: PresentModeVSync,
	}
}

// DeviceBuilderOption is a functional option applied to a device during construction via NewDevice.
type DeviceBuilderOption func(*deviceConfig)

// WithWorkers sets how many workers execute pixel kernels.
//
// Parameters:
//   - n: worker count, clamped to at least 1
//
// Returns:
//   - DeviceBuilderOption: a function that applies the worker count
func WithWorkers(n int) DeviceBuilderOption {
	return func(c *deviceConfig) {
		c.workers = max(n, 1)
	}
}

// WithQueueDepth sets how many submissions may be queued before Submit blocks.
//
// Parameters:
//   - n: queue capacity, clamped to at least 1
//
// Returns:
//   - DeviceBuilderOption: a function that applies the queue depth
func WithQueueDepth(n int) DeviceBuilderOption {
	return func(c *deviceConfig) {
		c.queueDepth = max(n, 1)
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - DeviceBuilderOption: a function that applies the present mode
func WithPresentMode(mode PresentMode) DeviceBuilderOption {
	return func(c *deviceConfig) {
		c.presentMode = mode
	}
}

// WithForceFallbackAdapter forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter
//
// Returns:
//   - DeviceBuilderOption: a function that applies the option
func WithForceFallbackAdapter(force bool) DeviceBuilderOption {
	return func(c *deviceConfig) {
		c.forceFallbackAdapter = force
	}
}

// WithSurface sets the window surface the WebGPU backend presents to, and its initial size.
//
// Parameters:
//   - desc: the platform surface descriptor from the window
//   - extent: the framebuffer size in pixels
//
// Returns:
//   - DeviceBuilderOption: a function that applies the surface
func WithSurface(desc *wgpu.SurfaceDescriptor, extent common.Extent) DeviceBuilderOption {
	return func(c *deviceConfig) {
		c.surfaceDescriptor = desc
		c.surfaceExtent = extent
	}
}
