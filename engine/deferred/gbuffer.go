package deferred

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// GBuffer holds the surface attributes written by the geometry pass.
//
//	Albedo    RGBA8Unorm   base color, alpha
//	Normal    RG16Float    octahedral world normal
//	Material  RGBA8Unorm   metallic, roughness, material class, shadow receiver
//	Motion    RG16Float    screen-space motion to the previous frame, in UV units
//	ViewDepth R32Float     linear view depth, 0 where nothing was drawn
//	Depth     Depth32Float clip depth
type GBuffer struct {
	Albedo    *renderer.Target
	Normal    *renderer.Target
	Material  *renderer.Target
	Motion    *renderer.Target
	ViewDepth *renderer.Target
	Depth     *renderer.Target
	extent    common.Extent
}

// NewGBuffer allocates every G-buffer target at extent.
//
// Parameters:
//   - device: the device that owns the targets
//   - extent: the size in pixels, may be zero
//
// Returns:
//   - *GBuffer: the G-buffer
//   - error: renderer.ErrTargetCreation
func NewGBuffer(device renderer.Device, extent common.Extent) (*GBuffer, error) {
	g := &GBuffer{}
	if err := g.Resize(device, extent); err != nil {
		return nil, err
	}
	return g, nil
}

// Resize reallocates the targets. Callers must ensure the device is idle.
//
// Parameters:
//   - device: the device that owns the targets
//   - extent: the new size in pixels
//
// Returns:
//   - error: renderer.ErrTargetCreation
func (g *GBuffer) Resize(device renderer.Device, extent common.Extent) error {
	specs := []struct {
		dst    **renderer.Target
		label  string
		format renderer.Format
	}{
		{&g.Albedo, "gbuffer_albedo", renderer.FormatRGBA8Unorm},
		{&g.Normal, "gbuffer_normal", renderer.FormatRG16Float},
		{&g.Material, "gbuffer_material", renderer.FormatRGBA8Unorm},
		{&g.Motion, "gbuffer_motion", renderer.FormatRG16Float},
		{&g.ViewDepth, "gbuffer_view_depth", renderer.FormatR32Float},
		{&g.Depth, "gbuffer_depth", renderer.FormatDepth32Float},
	}
	for _, s := range specs {
		t, err := device.CreateTarget(s.label, extent, s.format)
		if err != nil {
			return fmt.Errorf("gbuffer: %w", err)
		}
		*s.dst = t
	}
	g.extent = extent
	return nil
}

// Extent returns the size of every target.
func (g *GBuffer) Extent() common.Extent { return g.extent }

// Colors returns the color targets in the order the geometry pass writes them.
func (g *GBuffer) Colors() []*renderer.Target {
	return []*renderer.Target{g.Albedo, g.Normal, g.Material, g.Motion, g.ViewDepth}
}

// Targets returns every target, depth last.
func (g *GBuffer) Targets() []*renderer.Target {
	return append(g.Colors(), g.Depth)
}

// BeginWrite transitions the targets for the geometry pass and clears them.
//
// Parameters:
//   - cmd: the command list being recorded
func (g *GBuffer) BeginWrite(cmd *renderer.CommandList) {
	for _, t := range g.Colors() {
		cmd.Barrier(t, renderer.StateRenderTarget)
		cmd.Clear(t, common.Color{})
	}
	cmd.Barrier(g.Depth, renderer.StateDepthWrite)
	cmd.Clear(g.Depth, common.Color{1})
}

// TransitionToRead transitions every target to shader-read. It must be recorded before
// ambient occlusion and shading read the G-buffer.
//
// Parameters:
//   - cmd: the command list being recorded
func (g *GBuffer) TransitionToRead(cmd *renderer.CommandList) {
	for _, t := range g.Targets() {
		cmd.Barrier(t, renderer.StateShaderRead)
	}
}
