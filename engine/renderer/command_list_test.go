package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandList_BarrierSkipsRedundantTransitions(t *testing.T) {
	tgt := newTarget("color", common.Extent{Width: 2, Height: 2}, FormatRGBA8Unorm)
	cmds := NewCommandList("test")

	cmds.Barrier(tgt, StateRenderTarget)
	cmds.Barrier(tgt, StateRenderTarget)
	cmds.Barrier(tgt, StateShaderRead)

	assert.Equal(t, 2, cmds.Len())
	assert.Equal(t, StateShaderRead, tgt.RecordedState())
	assert.Equal(t, []string{"barrier color", "barrier color"}, cmds.Labels())
}

func TestCommandList_RequireWithDebug(t *testing.T) {
	tgt := newTarget("gbuffer", common.Extent{Width: 2, Height: 2}, FormatRGBA16Float)
	cmds := NewCommandList("test")

	Debug = true
	defer func() { Debug = false }()

	assert.Panics(t, func() { cmds.Require(tgt, StateShaderRead) })

	cmds.Barrier(tgt, StateShaderRead)
	assert.NotPanics(t, func() { cmds.Require(tgt, StateShaderRead) })
}

func TestCommandList_RequireWithoutDebug(t *testing.T) {
	tgt := newTarget("gbuffer", common.Extent{Width: 2, Height: 2}, FormatRGBA16Float)
	cmds := NewCommandList("test")

	assert.False(t, cmds.Require(tgt, StateShaderRead))
}

func TestCommandList_FullscreenDropsEmptyOutputs(t *testing.T) {
	empty := newTarget("empty", common.Extent{}, FormatRGBA8Unorm)
	cmds := NewCommandList("test")

	cmds.Fullscreen(Pass{
		Label:   "noop",
		Outputs: []*Target{empty},
		Kernel:  func(x, y int, out []common.Color) {},
	})

	assert.True(t, cmds.Empty())
	assert.Zero(t, cmds.PassCount())
}

func TestCommandList_DrawSkipsMissingMesh(t *testing.T) {
	tgt := newTarget("color", common.Extent{Width: 2, Height: 2}, FormatRGBA8Unorm)
	cmds := NewCommandList("test")
	cmds.Barrier(tgt, StateRenderTarget)

	cmds.Draw(DrawCall{Label: "nothing", Colors: []*Target{tgt}, Shade: func(*Fragment, []common.Color) bool { return true }})
	assert.Zero(t, cmds.DrawCount())

	cmds.Draw(DrawCall{Label: "box", Mesh: NewBoxMesh("box", common.Vec3{1, 1, 1}), Colors: []*Target{tgt}, Shade: func(*Fragment, []common.Color) bool { return true }})
	assert.Equal(t, 1, cmds.DrawCount())

	cmds.Reset()
	require.True(t, cmds.Empty())
	assert.Zero(t, cmds.DrawCount())
}
