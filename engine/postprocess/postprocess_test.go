package postprocess

import (
	"context"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReinhardExtended(t *testing.T) {
	assert.InDelta(t, 1, ReinhardExtended(4, 4), 1e-6)
	assert.Equal(t, float32(0), ReinhardExtended(0, 4))
	assert.Less(t, ReinhardExtended(1, 4), float32(1))
	assert.Less(t, ReinhardExtended(1, 4), ReinhardExtended(2, 4))
}

func TestToneMapColorKeepsChromaticity(t *testing.T) {
	c := ToneMapColor(common.Color{0.8, 0.4, 0.2, 1}, 1, 4)
	assert.InDelta(t, 2, c[0]/c[1], 1e-4)
	assert.InDelta(t, 2, c[1]/c[2], 1e-4)
	assert.Equal(t, float32(1), c[3])
	assert.Equal(t, common.Color{0, 0, 0, 0.5}, ToneMapColor(common.Color{0, 0, 0, 0.5}, 1, 4))
}

func TestAdaptLuminance(t *testing.T) {
	assert.Equal(t, float32(2), AdaptLuminance(0, 2, 0.016, 1.5))
	assert.Equal(t, float32(1), AdaptLuminance(1, 2, 0, 1.5))
	assert.InDelta(t, 2, AdaptLuminance(1, 2, 100, 1.5), 1e-5)

	half := AdaptLuminance(1, 2, 0.5, 1.5)
	assert.Greater(t, half, float32(1))
	assert.Less(t, half, float32(2))

	// Two short steps land where one long step does.
	a := AdaptLuminance(AdaptLuminance(1, 2, 0.25, 1.5), 2, 0.25, 1.5)
	assert.InDelta(t, half, a, 1e-5)
}

func TestResolveHistory(t *testing.T) {
	cur := common.Color{0.5, 0.5, 0.5, 1}
	lo := [3]float32{0.4, 0.4, 0.4}
	hi := [3]float32{0.6, 0.6, 0.6}

	inside := resolveHistory(cur, common.Color{0.6, 0.6, 0.6, 1}, lo, hi, 0.5, 0.1)
	assert.InDelta(t, 0.55, inside[0], 1e-6)

	clamped := resolveHistory(cur, common.Color{0.65, 0.6, 0.6, 1}, lo, hi, 1, 0.1)
	assert.InDelta(t, 0.6, clamped[0], 1e-6)

	rejected := resolveHistory(cur, common.Color{0.9, 0.5, 0.5, 1}, lo, hi, 0.9, 0.1)
	assert.Equal(t, cur, rejected)
}

func TestReprojectUV(t *testing.T) {
	uv := [2]float32{0.25, 0.75}
	same := ReprojectUV(common.IdentityMat4(), uv, 1)
	assert.InDeltaSlice(t, uv[:], same[:], 1e-6)

	// Last frame's clip space offset by half a screen.
	shifted := ReprojectUV(common.Translation(0.5, 0, 0), uv, 1)
	assert.InDelta(t, 0.5, shifted[0], 1e-6)
	assert.InDelta(t, 0.75, shifted[1], 1e-6)
}

func TestTemporalHistoryParity(t *testing.T) {
	dev := renderer.NewSoftDevice(renderer.WithWorkers(1))
	t.Cleanup(dev.Release)

	h, err := NewTemporalHistory(dev, common.Extent{Width: 4, Height: 4})
	require.NoError(t, err)
	assert.False(t, h.Valid())
	assert.Equal(t, 0, h.Parity())

	c0, m0 := h.Current()
	p0, pm0 := h.Previous()
	assert.NotSame(t, c0, p0)
	assert.NotSame(t, m0, pm0)

	for frame := 1; frame <= 4; frame++ {
		h.Swap()
		assert.Equal(t, frame%2, h.Parity(), "frame %d", frame)
		c, _ := h.Current()
		p, _ := h.Previous()
		if frame%2 == 1 {
			assert.Same(t, p0, c)
			assert.Same(t, c0, p)
		} else {
			assert.Same(t, c0, c)
			assert.Same(t, p0, p)
		}
	}

	require.NoError(t, h.Resize(dev, common.Extent{Width: 2, Height: 2}))
	assert.Equal(t, 0, h.Parity())
	assert.Equal(t, common.Extent{Width: 2, Height: 2}, h.Extent())
}

type chainFixture struct {
	device *renderer.SoftDevice
	chain  Chain
	color  *renderer.Target
	motion *renderer.Target
	depth  *renderer.Target
}

func newChainFixture(t *testing.T, extent common.Extent, options ...ChainBuilderOption) *chainFixture {
	t.Helper()
	dev := renderer.NewSoftDevice(renderer.WithWorkers(2))
	t.Cleanup(dev.Release)

	chain, err := NewChain(dev, extent, options...)
	require.NoError(t, err)
	color, err := dev.CreateTarget("hdr", extent, renderer.FormatRGBA16Float)
	require.NoError(t, err)
	motion, err := dev.CreateTarget("motion", extent, renderer.FormatRG16Float)
	require.NoError(t, err)
	depth, err := dev.CreateTarget("depth", extent, renderer.FormatDepth32Float)
	require.NoError(t, err)
	return &chainFixture{device: dev, chain: chain, color: color, motion: motion, depth: depth}
}

// frame clears the inputs to a flat scene and runs the chain.
func (f *chainFixture) frame(t *testing.T, value float32) *renderer.Target {
	t.Helper()
	cmd := renderer.NewCommandList("post")
	cmd.Barrier(f.color, renderer.StateRenderTarget)
	cmd.Clear(f.color, common.Color{value, value, value, 1})
	cmd.Barrier(f.motion, renderer.StateRenderTarget)
	cmd.Clear(f.motion, common.Color{})
	cmd.Barrier(f.depth, renderer.StateDepthWrite)
	cmd.Clear(f.depth, common.Color{1})

	out, ok := f.chain.Process(cmd, Inputs{
		Color:           f.color,
		Motion:          f.motion,
		Depth:           f.depth,
		PrevFromCurrent: common.IdentityMat4(),
		DeltaTime:       1.0 / 60,
	})
	require.True(t, ok)

	signal := f.device.CompletedValue() + 1
	require.NoError(t, f.device.Submit(cmd, signal))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, f.device.WaitForValue(ctx, signal))
	return out
}

func TestChainFlatScene(t *testing.T) {
	f := newChainFixture(t, common.Extent{Width: 8, Height: 8})

	// Exposure adapts fully on the first frame, so a flat scene lands on the key.
	want := ReinhardExtended(DefaultExposureKey, DefaultWhitePoint)
	for frame := 1; frame <= 3; frame++ {
		out := f.frame(t, 0.5)
		assert.Equal(t, frame%2, f.chain.History().Parity(), "frame %d", frame)
		assert.True(t, f.chain.History().Valid())
		for _, p := range [][2]int{{0, 0}, {4, 4}, {7, 3}} {
			c := out.Image().At(p[0], p[1])
			assert.InDelta(t, want, c[0], 1e-3, "frame %d pixel %v", frame, p)
			assert.InDelta(t, want, c[2], 1e-3, "frame %d pixel %v", frame, p)
		}
		assert.InDelta(t, 0.5, f.chain.AdaptedLuminance().Image().At(0, 0)[0], 1e-3)
	}
}

func TestChainExposureLagsBrightnessChange(t *testing.T) {
	f := newChainFixture(t, common.Extent{Width: 8, Height: 8}, WithAdaptationRate(1), WithTAA(TAASettings{}))
	dark := f.frame(t, 0.5).Image().At(2, 2)[0]

	// The first bright frame is still exposed for the dark one.
	bright := f.frame(t, 2).Image().At(2, 2)[0]
	assert.Greater(t, bright, dark)
	adapted := f.chain.AdaptedLuminance().Image().At(0, 0)[0]
	assert.Greater(t, adapted, float32(0.5))
	assert.Less(t, adapted, float32(2))
	assert.False(t, f.chain.History().Valid())
}

func TestAdaptedLuminanceIsLatestValue(t *testing.T) {
	f := newChainFixture(t, common.Extent{Width: 4, Height: 4}, WithAdaptationRate(2), WithTAA(TAASettings{}))
	f.frame(t, 0.5)
	first := f.chain.AdaptedLuminance().Image().At(0, 0)[0]
	assert.InDelta(t, 0.5, first, 1e-3)

	f.frame(t, 2)
	want := AdaptLuminance(first, 2, 1.0/60, 2)
	assert.InDelta(t, want, f.chain.AdaptedLuminance().Image().At(0, 0)[0], 1e-3)

	f.frame(t, 2)
	assert.InDelta(t, AdaptLuminance(want, 2, 1.0/60, 2), f.chain.AdaptedLuminance().Image().At(0, 0)[0], 1e-3)
}

func TestChainZeroExtentRecordsNothing(t *testing.T) {
	f := newChainFixture(t, common.Extent{})
	cmd := renderer.NewCommandList("post")
	out, ok := f.chain.Process(cmd, Inputs{Color: f.color, Motion: f.motion, Depth: f.depth})
	assert.False(t, ok)
	assert.Nil(t, out)
	assert.True(t, cmd.Empty())
}

func TestChainResizeInvalidatesHistory(t *testing.T) {
	f := newChainFixture(t, common.Extent{Width: 4, Height: 4})
	f.frame(t, 0.5)
	require.True(t, f.chain.History().Valid())

	require.NoError(t, f.chain.Resize(common.Extent{Width: 6, Height: 2}))
	assert.False(t, f.chain.History().Valid())
	assert.Equal(t, common.Extent{Width: 6, Height: 2}, f.chain.Output().Extent())
	assert.Equal(t, 0, f.chain.History().Parity())
}

func TestWithSharpenClampsRadius(t *testing.T) {
	c := &chainImpl{}
	WithSharpen(9, -1)(c)
	assert.Equal(t, MaxSharpenRadius, c.sharpRadius)
	assert.Equal(t, float32(0), c.sharpAmount)
	WithSharpen(0, 0.5)(c)
	assert.Equal(t, MinSharpenRadius, c.sharpRadius)
}
