package postprocess

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/log"
)

var postLog = log.New("postprocess")

const (
	DefaultExposureKey    = 0.18
	DefaultAdaptationRate = 1.5
	DefaultWhitePoint     = 4
	DefaultSharpenAmount  = 0.25
)

// Inputs are the per-frame images and values the chain reads.
type Inputs struct {
	// Color is the shaded HDR image.
	Color *renderer.Target
	// Motion holds per-pixel UV motion for geometry.
	Motion *renderer.Target
	// Depth is the scene depth buffer. Pixels at depth 1 are reprojected with PrevFromCurrent.
	Depth *renderer.Target
	// PrevFromCurrent maps current unjittered NDC to last frame's clip space.
	PrevFromCurrent common.Mat4
	// DeltaTime is the wall time since the last frame in seconds.
	DeltaTime float32
}

type chainImpl struct {
	device renderer.Device
	extent common.Extent

	key         float32
	rate        float32
	white       float32
	taa         TAASettings
	sharpRadius int
	sharpAmount float32

	lumDown    *renderer.Target
	adapted    [2]*renderer.Target
	adaptIndex int
	toneMapped *renderer.Target
	output     *renderer.Target
	history    *TemporalHistory
}

// Chain turns the shaded HDR image into the final display image.
type Chain interface {
	// Process records luminance adaptation, tone mapping, temporal antialiasing, and
	// sharpening. A zero-sized chain records nothing.
	//
	// Parameters:
	//   - cmd: the command list of the current frame slot
	//   - in: this frame's inputs
	//
	// Returns:
	//   - *renderer.Target: the LDR output in StateRenderTarget
	//   - bool: false when nothing was recorded
	Process(cmd *renderer.CommandList, in Inputs) (*renderer.Target, bool)

	// Resize reallocates every size dependent image and invalidates the history.
	// The device must be idle.
	Resize(extent common.Extent) error

	// Extent returns the current size.
	Extent() common.Extent

	// Output returns the final LDR target.
	Output() *renderer.Target

	// History returns the temporal history.
	History() *TemporalHistory

	// AdaptedLuminance returns the 1x1 target holding the most recently written adapted luminance.
	AdaptedLuminance() *renderer.Target

	// TAA returns the temporal antialiasing settings.
	TAA() TAASettings

	// SetTAA replaces the temporal antialiasing settings. Turning it off invalidates the history.
	SetTAA(s TAASettings)
}

var _ Chain = &chainImpl{}

// NewChain creates the postprocess chain.
//
// Parameters:
//   - device: the device that owns the images
//   - extent: the output size in pixels
//   - options: variadic list of ChainBuilderOption functions
//
// Returns:
//   - Chain: the chain
//   - error: renderer.ErrTargetCreation
func NewChain(device renderer.Device, extent common.Extent, options ...ChainBuilderOption) (Chain, error) {
	c := &chainImpl{
		device:      device,
		key:         DefaultExposureKey,
		rate:        DefaultAdaptationRate,
		white:       DefaultWhitePoint,
		taa:         DefaultTAASettings(),
		sharpRadius: MinSharpenRadius,
		sharpAmount: DefaultSharpenAmount,
	}
	for _, opt := range options {
		opt(c)
	}

	for i := range c.adapted {
		t, err := device.CreateTarget(fmt.Sprintf("adapted_luminance_%d", i), common.Extent{Width: 1, Height: 1}, renderer.FormatR32Float)
		if err != nil {
			return nil, fmt.Errorf("postprocess: %w", err)
		}
		c.adapted[i] = t
	}
	if err := c.Resize(extent); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *chainImpl) Resize(extent common.Extent) error {
	down := common.Extent{
		Width:  (extent.Width + luminanceBlock - 1) / luminanceBlock,
		Height: (extent.Height + luminanceBlock - 1) / luminanceBlock,
	}
	lumDown, err := c.device.CreateTarget("luminance_downsample", down, renderer.FormatR32Float)
	if err != nil {
		return fmt.Errorf("postprocess: %w", err)
	}
	toneMapped, err := c.device.CreateTarget("tone_mapped", extent, renderer.FormatRGBA16Float)
	if err != nil {
		return fmt.Errorf("postprocess: %w", err)
	}
	output, err := c.device.CreateTarget("postprocess_output", extent, renderer.FormatRGBA8Unorm)
	if err != nil {
		return fmt.Errorf("postprocess: %w", err)
	}
	if c.history == nil {
		c.history, err = NewTemporalHistory(c.device, extent)
	} else {
		err = c.history.Resize(c.device, extent)
	}
	if err != nil {
		return err
	}

	c.lumDown, c.toneMapped, c.output = lumDown, toneMapped, output
	c.extent = extent
	postLog.Debugf("postprocess targets resized to %dx%d", extent.Width, extent.Height)
	return nil
}

func (c *chainImpl) Process(cmd *renderer.CommandList, in Inputs) (*renderer.Target, bool) {
	if c.extent.IsZero() || in.Color == nil || in.Color.Extent().IsZero() {
		return nil, false
	}

	cmd.Barrier(in.Color, renderer.StateShaderRead)

	prev := c.adapted[c.adaptIndex]
	next := c.adapted[1-c.adaptIndex]
	cmd.Barrier(c.lumDown, renderer.StateRenderTarget)
	luminanceDownsample(cmd, in.Color, c.lumDown)
	cmd.Barrier(c.lumDown, renderer.StateShaderRead)
	cmd.Barrier(prev, renderer.StateShaderRead)
	cmd.Barrier(next, renderer.StateRenderTarget)
	luminanceAdapt(cmd, c.lumDown, prev, next, in.DeltaTime, c.rate)
	cmd.Barrier(next, renderer.StateShaderRead)
	c.adaptIndex = 1 - c.adaptIndex

	cmd.Barrier(c.toneMapped, renderer.StateRenderTarget)
	toneMap(cmd, in.Color, prev, next, c.toneMapped, c.key, c.white)
	cmd.Barrier(c.toneMapped, renderer.StateShaderRead)

	resolved := c.toneMapped
	if c.taa.Enabled && in.Motion != nil && in.Depth != nil {
		c.history.Swap()
		temporalResolve(cmd, c.history, c.toneMapped, in.Motion, in.Depth, in.PrevFromCurrent, c.taa)
		c.history.valid = true
		resolved, _ = c.history.Current()
		cmd.Barrier(resolved, renderer.StateShaderRead)
	} else {
		c.history.Invalidate()
	}

	cmd.Barrier(c.output, renderer.StateRenderTarget)
	unsharp(cmd, resolved, c.output, c.sharpRadius, c.sharpAmount)
	return c.output, true
}

func (c *chainImpl) Extent() common.Extent              { return c.extent }
func (c *chainImpl) Output() *renderer.Target           { return c.output }
func (c *chainImpl) History() *TemporalHistory          { return c.history }
func (c *chainImpl) AdaptedLuminance() *renderer.Target { return c.adapted[c.adaptIndex] }
func (c *chainImpl) TAA() TAASettings                   { return c.taa }

func (c *chainImpl) SetTAA(s TAASettings) {
	if !s.Enabled {
		c.history.Invalidate()
	}
	c.taa = s
}
