// Package engine drives the frame loop: it paces recording against the device with a
// frame pipeline, updates and records the scene, and presents the postprocessed image.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/deferred"
	"github.com/Carmen-Shannon/oxy-deferred/engine/frame"
	"github.com/Carmen-Shannon/oxy-deferred/engine/postprocess"
	"github.com/Carmen-Shannon/oxy-deferred/engine/profiler"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/Carmen-Shannon/oxy-deferred/engine/window"
	"github.com/Carmen-Shannon/oxy-deferred/log"
)

var engineLog = log.New("engine")

var (
	// ErrNoWindow is returned by Run when the engine was built without a window.
	ErrNoWindow = errors.New("engine: no window")

	// ErrNoFrame is returned by ReadFinal before any frame has produced an image.
	ErrNoFrame = errors.New("engine: no frame rendered yet")
)

// maxDeltaTime bounds the wall-clock time step after stalls such as window drags.
const maxDeltaTime = 0.25

// Capture is a read back final image.
type Capture struct {
	Extent   common.Extent
	RowPitch int
	Pixels   []byte
	Frame    uint64
}

type engine struct {
	device   renderer.Device
	pipeline frame.FramePipeline
	scene    scene.Scene
	renderer deferred.Renderer
	chain    postprocess.Chain
	window   window.Window

	profiler         *profiler.Profiler
	profilingEnabled bool

	extent     common.Extent
	frameCount int
	fixedStep  float32
	frameLimit time.Duration

	rendererOptions []deferred.RendererBuilderOption
	chainOptions    []postprocess.ChainBuilderOption
	profilerOptions []profiler.ProfilerBuilderOption

	pendingResize *common.Extent
	captureNext   bool
	onCapture     func(Capture)
	onFrame       func(FrameInfo)

	last     *renderer.Target
	lastInfo FrameInfo

	quitChannel chan struct{}
	quitOnce    sync.Once
}

// FrameInfo describes one finished frame.
type FrameInfo struct {
	Number    uint64
	Slot      int
	DeltaTime float32
	Commands  int
	InFlight  int
	Scene     scene.Stats
	Renderer  deferred.Stats
	Presented bool
}

// Engine owns the device-facing half of the viewer. It is used from a single goroutine,
// which on windowed runs must be the one that created the window.
type Engine interface {
	// Scene returns the scene being rendered.
	Scene() scene.Scene

	// Renderer returns the deferred renderer.
	Renderer() deferred.Renderer

	// Chain returns the postprocess chain.
	Chain() postprocess.Chain

	// Pipeline returns the frame pipeline.
	Pipeline() frame.FramePipeline

	// Profiler returns the frame statistics collector.
	Profiler() *profiler.Profiler

	// Extent returns the current render size.
	Extent() common.Extent

	// Frame records, submits, and presents one frame.
	//
	// Parameters:
	//   - ctx: cancellation for shutdown while waiting for a slot
	//   - dt: scene time step in seconds
	//
	// Returns:
	//   - FrameInfo: what was recorded
	//   - error: wrapped renderer.ErrDeviceLost, renderer.ErrTargetCreation, or ctx.Err()
	Frame(ctx context.Context, dt float32) (FrameInfo, error)

	// RunFrames renders n frames with the fixed time step and waits for the device to
	// finish them.
	//
	// Parameters:
	//   - ctx: cancellation for shutdown
	//   - n: number of frames
	//
	// Returns:
	//   - error: the first frame error
	RunFrames(ctx context.Context, n int) error

	// Run polls the window and renders until it closes, Quit is called, or ctx is done.
	//
	// Parameters:
	//   - ctx: cancellation for shutdown
	//
	// Returns:
	//   - error: ErrNoWindow or the first fatal frame error
	Run(ctx context.Context) error

	// Resize schedules new render targets before the next frame.
	//
	// Parameters:
	//   - width, height: the new size in pixels
	Resize(width, height int)

	// ReadFinal reads back the image presented by the last frame.
	//
	// Returns:
	//   - Capture: RGBA8 rows aligned to renderer.ReadbackAlignment
	//   - error: ErrNoFrame or the device's readback error
	ReadFinal() (Capture, error)

	// RequestCapture asks for the next presented frame to be passed to the capture handler.
	RequestCapture()

	// Quit stops Run. Safe to call multiple times.
	Quit()

	// Release waits for the device to go idle and stops the scene's workers. The device
	// itself belongs to the caller.
	Release()
}

var _ Engine = &engine{}

// NewEngine creates an Engine that renders sc on device.
//
// Parameters:
//   - device: the device to submit to
//   - sc: the scene to render
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the engine
//   - error: frame.ErrFrameCount or render target creation failures
func NewEngine(device renderer.Device, sc scene.Scene, options ...EngineBuilderOption) (Engine, error) {
	if device == nil || sc == nil {
		panic("engine: nil device or scene")
	}
	e := &engine{
		device:      device,
		scene:       sc,
		frameCount:  frame.DefaultFrameCount,
		fixedStep:   1.0 / 60,
		extent:      common.Extent{Width: 1280, Height: 720},
		quitChannel: make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}
	if e.window != nil {
		e.extent = common.Extent{Width: e.window.Width(), Height: e.window.Height()}
	}

	var err error
	e.pipeline, err = frame.NewFramePipeline(device, frame.WithFrameCount(e.frameCount))
	if err != nil {
		return nil, err
	}
	e.renderer, err = deferred.NewRenderer(device, e.extent, e.rendererOptions...)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	e.chain, err = postprocess.NewChain(device, e.extent, e.chainOptions...)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	e.profiler = profiler.NewProfiler(e.profilerOptions...)
	sc.Camera().SetExtent(e.extent)

	if e.window != nil {
		e.bindInput()
	}
	engineLog.Infof("%s backend, %dx%d, %d frames in flight, scene %q with %d objects",
		device.Backend(), e.extent.Width, e.extent.Height, e.frameCount, sc.Name(), len(sc.Objects()))
	return e, nil
}

// bindInput wires window events to the camera, the scene clock, and the pending resize.
func (e *engine) bindInput() {
	e.window.SetResizeCallback(func(width, height int) {
		e.Resize(width, height)
	})
	e.window.SetDragCallback(func(dx, dy float32) {
		if ctrl := e.scene.Camera().Controller(); ctrl != nil {
			ctrl.Drag(dx, dy)
		}
	})
	e.window.SetScrollCallback(func(delta float32) {
		if ctrl := e.scene.Camera().Controller(); ctrl != nil {
			ctrl.Zoom(delta)
		}
	})
	e.window.SetKeyDownCallback(func(key uint32) {
		switch key {
		case common.KeySpace:
			e.scene.TogglePause()
			engineLog.Infof("scene time paused: %v", e.scene.Paused())
		case common.KeyI:
			l := e.scene.Light()
			l.SetIBL(!l.IBL())
			engineLog.Infof("image based lighting: %v", l.IBL())
		case common.KeyR:
			cam := scene.DefaultCamera(e.scene.Bounds())
			cam.SetExtent(e.extent)
			e.scene.SetCamera(cam)
			e.chain.History().Invalidate()
		case common.KeyP:
			e.RequestCapture()
		}
	})
}

func (e *engine) Scene() scene.Scene            { return e.scene }
func (e *engine) Renderer() deferred.Renderer   { return e.renderer }
func (e *engine) Chain() postprocess.Chain      { return e.chain }
func (e *engine) Pipeline() frame.FramePipeline { return e.pipeline }
func (e *engine) Profiler() *profiler.Profiler  { return e.profiler }
func (e *engine) Extent() common.Extent         { return e.extent }
func (e *engine) RequestCapture()               { e.captureNext = true }
func (e *engine) Resize(width, height int) {
	e.pendingResize = &common.Extent{Width: max(width, 0), Height: max(height, 0)}
}

// applyResize reallocates every size-dependent target once the device is idle.
func (e *engine) applyResize() error {
	extent := *e.pendingResize
	e.pendingResize = nil
	if extent == e.extent {
		return nil
	}
	err := e.pipeline.Resize(extent.Width, extent.Height, func(ext common.Extent) error {
		if err := e.renderer.Resize(ext); err != nil {
			return err
		}
		if err := e.chain.Resize(ext); err != nil {
			return err
		}
		e.scene.Camera().SetExtent(ext)
		return nil
	})
	if err != nil {
		return fmt.Errorf("engine: resize to %dx%d: %w", extent.Width, extent.Height, err)
	}
	e.extent = extent
	e.last = nil
	engineLog.Debugf("render targets resized to %dx%d", extent.Width, extent.Height)
	return nil
}

func (e *engine) Frame(ctx context.Context, dt float32) (FrameInfo, error) {
	if e.pendingResize != nil {
		if err := e.applyResize(); err != nil {
			return FrameInfo{}, err
		}
	}

	slot, err := e.pipeline.AcquireSlot(ctx)
	if err != nil {
		return FrameInfo{}, fmt.Errorf("engine: %w", err)
	}

	e.scene.Update(dt)
	cmd := slot.Commands()
	out, err := e.scene.Record(cmd, slot.Constants(), e.renderer, e.chain, dt)
	if err != nil {
		// The slot is still submitted so its completion value keeps advancing.
		cmd.Reset()
		if serr := e.pipeline.Submit(slot, cmd); serr != nil {
			return FrameInfo{}, fmt.Errorf("engine: %w", errors.Join(err, serr))
		}
		return FrameInfo{}, fmt.Errorf("engine: record frame %d: %w", slot.Frame(), err)
	}
	if out != nil {
		cmd.Barrier(out, renderer.StatePresent)
	}

	info := FrameInfo{
		Number:    slot.Frame(),
		Slot:      slot.Index(),
		DeltaTime: dt,
		Commands:  cmd.Len(),
		Scene:     e.scene.Stats(),
		Renderer:  e.renderer.Stats(),
	}
	if err := e.pipeline.Submit(slot, cmd); err != nil {
		return info, fmt.Errorf("engine: %w", err)
	}
	if out != nil {
		if err := e.pipeline.Present(out); err != nil {
			return info, fmt.Errorf("engine: %w", err)
		}
		info.Presented = true
		e.last = out
	}
	info.InFlight = e.pipeline.InFlight()
	e.lastInfo = info

	if e.profilingEnabled {
		e.profiler.Tick(profiler.Sample{
			DeltaTime: time.Duration(float64(dt) * float64(time.Second)),
			InFlight:  info.InFlight,
			Visible:   info.Scene.VisibleOpaque + info.Scene.VisibleAlpha,
			Culled:    info.Scene.Culled,
		})
	}
	if e.onFrame != nil {
		e.onFrame(info)
	}
	if e.captureNext && info.Presented {
		e.captureNext = false
		e.deliverCapture()
	}
	return info, nil
}

func (e *engine) deliverCapture() {
	if e.onCapture == nil {
		engineLog.Warning("capture requested without a handler")
		return
	}
	c, err := e.ReadFinal()
	if err != nil {
		engineLog.Errorf("capture failed: %v", err)
		return
	}
	e.onCapture(c)
}

func (e *engine) RunFrames(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if _, err := e.Frame(ctx, e.fixedStep); err != nil {
			return err
		}
	}
	return e.pipeline.WaitForIdle()
}

func (e *engine) Run(ctx context.Context) error {
	if e.window == nil {
		return ErrNoWindow
	}

	lastFrame := time.Now()
	for e.window.PollEvents() {
		select {
		case <-e.quitChannel:
			return e.pipeline.WaitForIdle()
		case <-ctx.Done():
			return e.pipeline.WaitForIdle()
		default:
		}

		now := time.Now()
		dt := min(float32(now.Sub(lastFrame).Seconds()), maxDeltaTime)
		lastFrame = now

		if _, err := e.Frame(ctx, dt); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if e.frameLimit > 0 {
			if remaining := e.frameLimit - time.Since(now); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
	return e.pipeline.WaitForIdle()
}

func (e *engine) ReadFinal() (Capture, error) {
	if e.last == nil {
		return Capture{}, ErrNoFrame
	}
	pitch := renderer.AlignedRowPitch(e.last.Width())
	data, err := e.device.ReadTarget(e.last, pitch)
	if err != nil {
		return Capture{}, fmt.Errorf("engine: read back frame %d: %w", e.lastInfo.Number, err)
	}
	return Capture{Extent: e.last.Extent(), RowPitch: pitch, Pixels: data, Frame: e.lastInfo.Number}, nil
}

// Quit signals Run to return after the current frame.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) Release() {
	if err := e.pipeline.WaitForIdle(); err != nil {
		engineLog.Warningf("release: %v", err)
	}
	e.scene.Release()
}
