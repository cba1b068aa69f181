package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/deferred"
	"github.com/Carmen-Shannon/oxy-deferred/engine/postprocess"
	"github.com/Carmen-Shannon/oxy-deferred/engine/profiler"
	"github.com/Carmen-Shannon/oxy-deferred/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables the per-interval frame statistics log.
//
// Parameters:
//   - enabled: if true, every frame is fed to the profiler
//   - options: profiler configuration
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool, options ...profiler.ProfilerBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
		e.profilerOptions = append(e.profilerOptions, options...)
	}
}

// WithWindow renders into w. The render size follows the window's framebuffer and
// window input drives the camera.
//
// Parameters:
//   - w: an open Window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithExtent sets the render size of a headless engine. It is ignored when a window is set.
//
// Parameters:
//   - width, height: size in pixels
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithExtent(width, height int) EngineBuilderOption {
	return func(e *engine) {
		e.extent = common.Extent{Width: max(width, 0), Height: max(height, 0)}
	}
}

// WithFrameCount sets how many frames the CPU may record ahead of the device (2 or 3).
func WithFrameCount(n int) EngineBuilderOption {
	return func(e *engine) {
		e.frameCount = n
	}
}

// WithFixedTimeStep sets the scene time step RunFrames uses.
//
// Parameters:
//   - dt: seconds per frame, values <= 0 are ignored
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFixedTimeStep(dt float32) EngineBuilderOption {
	return func(e *engine) {
		if dt > 0 {
			e.fixedStep = dt
		}
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.frameLimit = 0
			return
		}
		e.frameLimit = time.Duration(float64(time.Second) / fps)
	}
}

// WithRendererOptions passes options through to the deferred renderer.
func WithRendererOptions(options ...deferred.RendererBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.rendererOptions = append(e.rendererOptions, options...)
	}
}

// WithChainOptions passes options through to the postprocess chain.
func WithChainOptions(options ...postprocess.ChainBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.chainOptions = append(e.chainOptions, options...)
	}
}

// WithCaptureHandler registers the function that receives frames requested with
// RequestCapture.
//
// Parameters:
//   - fn: the handler, called on the engine goroutine
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCaptureHandler(fn func(Capture)) EngineBuilderOption {
	return func(e *engine) {
		e.onCapture = fn
	}
}

// WithFrameCallback registers a function called after every submitted frame.
func WithFrameCallback(fn func(FrameInfo)) EngineBuilderOption {
	return func(e *engine) {
		e.onFrame = fn
	}
}
