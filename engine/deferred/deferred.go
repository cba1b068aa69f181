// Package deferred records the geometry, shadow, ambient occlusion, shading, and
// forward alpha passes of a frame.
package deferred

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/culling"
	"github.com/Carmen-Shannon/oxy-deferred/engine/frame"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/log"
)

var deferredLog = log.New("deferred")

// View is the per-frame camera state and object table the passes draw with.
type View struct {
	// Objects is indexed by the object indices stored in draw queues.
	Objects []model.Renderable

	View common.Mat4

	// ViewProjection rasterizes and includes the TAA jitter.
	ViewProjection common.Mat4

	// Unjittered is ViewProjection without jitter, used for motion vectors.
	Unjittered common.Mat4

	Eye common.Vec3

	// Constants receives one constant block per draw. It may be nil.
	Constants *frame.ConstantArena
}

// Stats counts the work recorded for the current frame.
type Stats struct {
	GBufferDraws int
	ShadowDraws  int
	AlphaDraws   int
	Passes       int
}

type rendererImpl struct {
	device renderer.Device
	extent common.Extent

	gbuffer    *GBuffer
	shaded     *renderer.Target
	ao         *renderer.Target
	shadowMaps []*renderer.Target

	view  View
	stats Stats

	aoEnabled       bool
	aoRadius        float32
	aoStrength      float32
	shadowBias      float32
	normalBiasScale float32
	pcfRadius       int
}

// Renderer records the deferred passes of a frame. It is used from the recording goroutine.
//
// A frame records, in order: BeginFrame, RenderGBuffer, RenderShadowMaps,
// GBuffer().TransitionToRead, RenderAO, ComposeShading, RenderAlpha.
type Renderer interface {
	// Resize reallocates the G-buffer, ambient occlusion, and shaded targets. The device
	// must be idle.
	//
	// Parameters:
	//   - extent: the new size in pixels
	//
	// Returns:
	//   - error: renderer.ErrTargetCreation
	Resize(extent common.Extent) error

	// Extent returns the current target size.
	Extent() common.Extent

	// GBuffer returns the geometry pass targets.
	GBuffer() *GBuffer

	// Shaded returns the HDR target ComposeShading and RenderAlpha write.
	Shaded() *renderer.Target

	// AmbientOcclusion returns the occlusion target, or nil when disabled.
	AmbientOcclusion() *renderer.Target

	// ShadowMaps returns the cascade shadow maps allocated so far.
	ShadowMaps() []*renderer.Target

	// BeginFrame sets the view for the following passes and resets the statistics.
	//
	// Parameters:
	//   - v: the frame's view
	BeginFrame(v View)

	// RenderGBuffer clears the G-buffer and issues one draw per object in queue. An
	// empty queue records the clears and no draws.
	//
	// Parameters:
	//   - cmd: the command list being recorded
	//   - queue: visible opaque and alpha-tested objects, front to back
	//   - cascades: this frame's shadow cascades; an empty set marks nothing as a receiver
	//
	// Returns:
	//   - int: the number of draws recorded
	RenderGBuffer(cmd *renderer.CommandList, queue culling.DrawQueue, cascades light.CascadeSet) int

	// RenderShadowMaps draws the shadow casters of each cascade's queue depth-only into
	// that cascade's shadow map, allocating maps as needed, and leaves the maps readable.
	//
	// Parameters:
	//   - cmd: the command list being recorded
	//   - cascades: this frame's shadow cascades
	//   - queues: one queue per cascade, culled in that cascade's light space
	//
	// Returns:
	//   - int: the number of draws recorded
	//   - error: renderer.ErrTargetCreation
	RenderShadowMaps(cmd *renderer.CommandList, cascades light.CascadeSet, queues []culling.DrawQueue) (int, error)

	// RenderAO estimates ambient occlusion from the G-buffer depth and normals. The
	// G-buffer must be in shader-read.
	//
	// Parameters:
	//   - cmd: the command list being recorded
	//   - projection: the camera projection used for view-space reconstruction
	RenderAO(cmd *renderer.CommandList, projection common.Mat4)

	// ComposeShading lights every G-buffer pixel. The G-buffer must have been
	// transitioned to shader-read; with renderer.Debug set a missing transition panics.
	//
	// Parameters:
	//   - cmd: the command list being recorded
	//   - gbuf: the G-buffer to read
	//   - cascades: this frame's shadow cascades; empty means no shadow term
	//   - lp: the light
	//
	// Returns:
	//   - *renderer.Target: the shaded HDR image
	ComposeShading(cmd *renderer.CommandList, gbuf *GBuffer, cascades light.CascadeSet, lp light.Params) *renderer.Target

	// RenderAlpha forward-shades queue into the shaded image in order, blending
	// src*a + dst*(1-a) and testing against the G-buffer depth.
	//
	// Parameters:
	//   - cmd: the command list being recorded
	//   - queue: visible blended objects, back to front
	//   - cascades: this frame's shadow cascades
	//   - lp: the light
	//
	// Returns:
	//   - int: the number of draws recorded
	RenderAlpha(cmd *renderer.CommandList, queue culling.DrawQueue, cascades light.CascadeSet, lp light.Params) int

	// Stats returns the counts recorded since BeginFrame.
	Stats() Stats
}

var _ Renderer = &rendererImpl{}

// NewRenderer creates a Renderer whose targets live on device.
//
// Parameters:
//   - device: the device that owns the targets
//   - extent: the initial target size
//   - options: variadic list of RendererBuilderOption functions
//
// Returns:
//   - Renderer: the renderer
//   - error: renderer.ErrTargetCreation
func NewRenderer(device renderer.Device, extent common.Extent, options ...RendererBuilderOption) (Renderer, error) {
	if device == nil {
		panic("deferred: nil device")
	}
	r := &rendererImpl{
		device:          device,
		aoEnabled:       true,
		aoRadius:        0.5,
		aoStrength:      1,
		shadowBias:      light.DefaultShadowBias,
		normalBiasScale: light.DefaultShadowNormalBiasScale,
		pcfRadius:       1,
	}
	for _, opt := range options {
		opt(r)
	}
	if err := r.Resize(extent); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *rendererImpl) Resize(extent common.Extent) error {
	if r.gbuffer == nil {
		g, err := NewGBuffer(r.device, extent)
		if err != nil {
			return err
		}
		r.gbuffer = g
	} else if err := r.gbuffer.Resize(r.device, extent); err != nil {
		return err
	}

	shaded, err := r.device.CreateTarget("shaded_hdr", extent, renderer.FormatRGBA16Float)
	if err != nil {
		return fmt.Errorf("deferred: %w", err)
	}
	r.shaded = shaded
	r.ao = nil
	if r.aoEnabled {
		if r.ao, err = r.device.CreateTarget("ambient_occlusion", extent, renderer.FormatR32Float); err != nil {
			return fmt.Errorf("deferred: %w", err)
		}
		r.ao.Image().Fill(common.Color{1})
	}
	r.extent = extent
	deferredLog.Debugf("targets resized to %dx%d", extent.Width, extent.Height)
	return nil
}

func (r *rendererImpl) Extent() common.Extent              { return r.extent }
func (r *rendererImpl) GBuffer() *GBuffer                  { return r.gbuffer }
func (r *rendererImpl) Shaded() *renderer.Target           { return r.shaded }
func (r *rendererImpl) AmbientOcclusion() *renderer.Target { return r.ao }
func (r *rendererImpl) ShadowMaps() []*renderer.Target     { return r.shadowMaps }
func (r *rendererImpl) Stats() Stats                       { return r.stats }

func (r *rendererImpl) BeginFrame(v View) {
	r.view = v
	r.stats = Stats{}
}

func (r *rendererImpl) RenderGBuffer(cmd *renderer.CommandList, queue culling.DrawQueue, cascades light.CascadeSet) int {
	r.gbuffer.BeginWrite(cmd)
	pass := &gbufferPass{r: r, receivers: !cascades.Empty()}
	for _, idx := range queue {
		if obj := r.object(idx); obj != nil {
			obj.Render(cmd, pass)
		}
	}
	r.stats.GBufferDraws += pass.draws
	return pass.draws
}

func (r *rendererImpl) RenderShadowMaps(cmd *renderer.CommandList, cascades light.CascadeSet, queues []culling.DrawQueue) (int, error) {
	if cascades.Empty() {
		return 0, nil
	}
	if err := r.ensureShadowMaps(cascades.Len(), cascades.MapSize); err != nil {
		return 0, err
	}

	draws := 0
	for i, c := range cascades.Cascades {
		sm := r.shadowMaps[i]
		cmd.Barrier(sm, renderer.StateDepthWrite)
		cmd.Clear(sm, common.Color{1})
		if i < len(queues) {
			pass := &shadowPass{r: r, target: sm, viewProjection: c.ViewProjection}
			for _, idx := range queues[i] {
				if obj := r.object(idx); obj != nil && obj.CastsShadow() {
					obj.Render(cmd, pass)
				}
			}
			draws += pass.draws
		}
		cmd.Barrier(sm, renderer.StateShaderRead)
	}
	r.stats.ShadowDraws += draws
	return draws, nil
}

func (r *rendererImpl) ensureShadowMaps(n, size int) error {
	extent := common.Extent{Width: size, Height: size}
	for len(r.shadowMaps) > n {
		r.shadowMaps = r.shadowMaps[:len(r.shadowMaps)-1]
	}
	for i := range r.shadowMaps {
		if r.shadowMaps[i].Extent() != extent {
			r.shadowMaps = r.shadowMaps[:i]
			break
		}
	}
	for len(r.shadowMaps) < n {
		t, err := r.device.CreateTarget(fmt.Sprintf("shadow_cascade_%d", len(r.shadowMaps)), extent, renderer.FormatDepth32Float)
		if err != nil {
			return fmt.Errorf("deferred: shadow map: %w", err)
		}
		r.shadowMaps = append(r.shadowMaps, t)
	}
	return nil
}

func (r *rendererImpl) ComposeShading(cmd *renderer.CommandList, gbuf *GBuffer, cascades light.CascadeSet, lp light.Params) *renderer.Target {
	cmd.Barrier(r.shaded, renderer.StateRenderTarget)
	inputs := gbuf.Targets()
	var aoImage *renderer.Image
	if r.ao != nil && r.aoEnabled {
		cmd.Barrier(r.ao, renderer.StateShaderRead)
		inputs = append(inputs, r.ao)
		aoImage = r.ao.Image()
	}

	sampler := newShadowSampler(cascades, r.shadowMaps, r.shadowBias, r.normalBiasScale, r.pcfRadius)
	if !cascades.Empty() {
		inputs = append(inputs, r.shadowMaps[:cascades.Len()]...)
	}
	albedo := gbuf.Albedo.Image()
	normal := gbuf.Normal.Image()
	material := gbuf.Material.Image()
	viewDepth := gbuf.ViewDepth.Image()
	depth := gbuf.Depth.Image()
	invVP := common.Inverse(r.view.ViewProjection)
	eye := r.view.Eye
	extent := gbuf.Extent()
	w, h := float32(extent.Width), float32(extent.Height)

	cmd.Fullscreen(renderer.Pass{
		Label:   "compose_shading",
		Inputs:  inputs,
		Outputs: []*renderer.Target{r.shaded},
		Kernel: func(x, y int, out []common.Color) {
			ndc := common.Vec3{(float32(x)+0.5)/w*2 - 1, 1 - (float32(y)+0.5)/h*2, 0}
			z := depth.At(x, y)[0]
			if z >= 1 {
				ndc[2] = 1
				dir := common.Normalize3(common.Sub3(common.TransformPoint(invVP, ndc), eye))
				bg := background(dir, lp)
				out[0] = common.Color{bg[0], bg[1], bg[2], 1}
				return
			}
			ndc[2] = z
			a := albedo.At(x, y)
			m := material.At(x, y)
			n := normal.At(x, y)
			s := surface{
				position:  common.TransformPoint(invVP, ndc),
				normal:    DecodeNormal([2]float32{n[0], n[1]}),
				albedo:    common.Vec3{a[0], a[1], a[2]},
				metallic:  m[0],
				roughness: m[1],
			}
			vis := float32(1)
			if m[3] > 0.5 {
				vis = sampler.visibility(s.position, s.normal, viewDepth.At(x, y)[0])
			}
			occlusion := float32(1)
			if aoImage != nil {
				occlusion = aoImage.At(x, y)[0]
			}
			c := shade(s, eye, lp, vis, occlusion)
			out[0] = common.Color{c[0], c[1], c[2], 1}
		},
	})
	r.stats.Passes++
	return r.shaded
}

func (r *rendererImpl) RenderAlpha(cmd *renderer.CommandList, queue culling.DrawQueue, cascades light.CascadeSet, lp light.Params) int {
	if len(queue) == 0 {
		return 0
	}
	cmd.Barrier(r.shaded, renderer.StateRenderTarget)
	cmd.Barrier(r.gbuffer.Depth, renderer.StateDepthWrite)
	pass := &alphaPass{
		r:       r,
		light:   lp,
		sampler: newShadowSampler(cascades, r.shadowMaps, r.shadowBias, r.normalBiasScale, r.pcfRadius),
	}
	for _, idx := range queue {
		if obj := r.object(idx); obj != nil {
			obj.Render(cmd, pass)
		}
	}
	r.stats.AlphaDraws += pass.draws
	return pass.draws
}

func (r *rendererImpl) object(idx int) model.Renderable {
	if idx < 0 || idx >= len(r.view.Objects) {
		if renderer.Debug {
			panic(fmt.Sprintf("deferred: object index %d out of range", idx))
		}
		return nil
	}
	return r.view.Objects[idx]
}
