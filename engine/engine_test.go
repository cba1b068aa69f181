package engine

import (
	"context"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/frame"
	"github.com/Carmen-Shannon/oxy-deferred/engine/loader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCourtyard(t *testing.T) scene.Scene {
	t.Helper()
	l := loader.NewLoader()
	doc, err := l.Load("loader/testdata/courtyard.yaml")
	require.NoError(t, err)
	assets, err := l.Build(doc)
	require.NoError(t, err)
	sc, err := scene.NewScene(assets.Objects, assets.Meshes, assets.SceneOptions()...)
	require.NoError(t, err)
	return sc
}

func newTestEngine(t *testing.T, options ...EngineBuilderOption) (Engine, *renderer.SoftDevice) {
	t.Helper()
	dev := renderer.NewSoftDevice(renderer.WithWorkers(2))
	t.Cleanup(dev.Release)
	options = append([]EngineBuilderOption{WithExtent(48, 32)}, options...)
	e, err := NewEngine(dev, newCourtyard(t), options...)
	require.NoError(t, err)
	t.Cleanup(e.Release)
	return e, dev
}

func TestRunFramesPresentsEveryFrame(t *testing.T) {
	var infos []FrameInfo
	e, dev := newTestEngine(t, WithFrameCallback(func(fi FrameInfo) { infos = append(infos, fi) }))

	require.NoError(t, e.RunFrames(context.Background(), 4))
	require.Len(t, infos, 4)
	for i, fi := range infos {
		assert.Equal(t, uint64(i), fi.Number)
		assert.Equal(t, i%frame.DefaultFrameCount, fi.Slot)
		assert.True(t, fi.Presented)
		assert.Positive(t, fi.Renderer.GBufferDraws)
	}
	assert.Zero(t, e.Pipeline().InFlight())

	c, err := e.ReadFinal()
	require.NoError(t, err)
	assert.Equal(t, 48, c.Extent.Width)
	assert.Equal(t, 32, c.Extent.Height)
	assert.Equal(t, renderer.AlignedRowPitch(48), c.RowPitch)
	assert.Len(t, c.Pixels, c.RowPitch*32)
	assert.Equal(t, uint64(3), c.Frame)

	_, presented := dev.Presented()
	assert.Equal(t, uint64(4), presented)
}

func TestReadFinalBeforeFirstFrame(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.ReadFinal()
	assert.ErrorIs(t, err, ErrNoFrame)
}

func TestRunWithoutWindow(t *testing.T) {
	e, _ := newTestEngine(t)
	assert.ErrorIs(t, e.Run(context.Background()), ErrNoWindow)
}

func TestResizeToZeroSkipsPresent(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	e.Resize(0, 0)
	fi, err := e.Frame(ctx, 1.0/60)
	require.NoError(t, err)
	assert.False(t, fi.Presented)
	assert.True(t, e.Extent().IsZero())
	assert.True(t, e.Renderer().Extent().IsZero())

	e.Resize(20, 10)
	fi, err = e.Frame(ctx, 1.0/60)
	require.NoError(t, err)
	assert.True(t, fi.Presented)
	assert.Equal(t, 20, e.Chain().Extent().Width)
	assert.Equal(t, float32(2), e.Scene().Camera().Aspect())
}

func TestResizeInvalidatesHistory(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, e.RunFrames(ctx, 2))
	require.True(t, e.Chain().History().Valid())

	e.Resize(24, 24)
	_, err := e.Frame(ctx, 1.0/60)
	require.NoError(t, err)
	assert.Equal(t, 24, e.Chain().History().Extent().Width)
}

func TestCaptureHandler(t *testing.T) {
	var got []Capture
	e, _ := newTestEngine(t, WithCaptureHandler(func(c Capture) { got = append(got, c) }))
	ctx := context.Background()

	require.NoError(t, e.RunFrames(ctx, 1))
	assert.Empty(t, got)

	e.RequestCapture()
	require.NoError(t, e.RunFrames(ctx, 2))
	require.Len(t, got, 1)
	assert.Equal(t, uint64(1), got[0].Frame)
}

func TestInvalidFrameCount(t *testing.T) {
	dev := renderer.NewSoftDevice(renderer.WithWorkers(1))
	defer dev.Release()
	sc := newCourtyard(t)
	defer sc.Release()

	_, err := NewEngine(dev, sc, WithFrameCount(4))
	assert.ErrorIs(t, err, frame.ErrFrameCount)
}

func TestDeviceLossIsFatal(t *testing.T) {
	e, dev := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, e.RunFrames(ctx, 1))

	dev.Lose()
	_, err := e.Frame(ctx, 1.0/60)
	assert.ErrorIs(t, err, renderer.ErrDeviceLost)
}
