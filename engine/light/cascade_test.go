package light

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testNear, testFar = 0.1, 100

func testCamera() (view, proj common.Mat4) {
	common.LookAt(view[:], 0, 5, 20, 0, 0, 0, 0, 1, 0)
	common.Perspective(proj[:], math32.Pi/3, 16.0/9.0, testNear, testFar)
	return view, proj
}

func TestSplitDepths(t *testing.T) {
	splits := SplitDepths(0.1, 100, 4, 0.5)
	require.Len(t, splits, 4)
	assert.Equal(t, float32(100), splits[3])
	prev := float32(0.1)
	for _, s := range splits {
		assert.Greater(t, s, prev)
		prev = s
	}

	uniform := SplitDepths(1, 9, 4, 0)
	assert.InDeltaSlice(t, []float32{3, 5, 7, 9}, uniform, 1e-4)

	logarithmic := SplitDepths(1, 16, 4, 1)
	assert.InDeltaSlice(t, []float32{2, 4, 8, 16}, logarithmic, 1e-4)
}

func TestInitRejectsCascadeCount(t *testing.T) {
	m := NewCascadeManager()
	assert.ErrorIs(t, m.Init(200, 1024, 0), ErrTooManyCascades)
	assert.ErrorIs(t, m.Init(200, 1024, MaxCascades+1), ErrTooManyCascades)
	require.NoError(t, m.Init(200, 1024, MaxCascades))
	assert.Equal(t, MaxCascades, m.NumCascades())
	assert.Equal(t, common.Vec3{100, 100, 100}, m.SceneBounds().Extents)
}

func TestCascadesPartitionViewDepth(t *testing.T) {
	m := NewCascadeManager()
	require.NoError(t, m.Init(200, 1024, 4))
	view, proj := testCamera()
	m.Update(view, proj, testNear, testFar, common.Vec3{-0.3, -1, -0.2})

	set := m.ShadowMatrices()
	require.Equal(t, 4, set.Len())
	assert.False(t, set.Empty())
	assert.Equal(t, float32(0.1), set.Cascades[0].Near)
	for i := 1; i < set.Len(); i++ {
		assert.Equal(t, set.Cascades[i-1].Far, set.Cascades[i].Near)
	}
	assert.Equal(t, float32(100), set.Cascades[3].Far)
	assert.Equal(t, float32(100), set.Splits()[3])
	assert.Equal(t, SplitDepths(testNear, testFar, 4, DefaultSplitBlend), set.Splits())
}

func TestCascadeOriginsSnapToTexels(t *testing.T) {
	m := NewCascadeManager()
	require.NoError(t, m.Init(200, 512, 3))
	view, proj := testCamera()
	m.Update(view, proj, testNear, testFar, common.Vec3{0.4, -1, 0.1})

	for _, c := range m.ShadowMatrices().Cascades {
		for a := 0; a < 2; a++ {
			steps := c.Origin[a] / c.TexelSize[a]
			assert.InDelta(t, math32.Round(steps), steps, 1e-2)
			assert.InDelta(t, c.Size[a]/512, c.TexelSize[a], 1e-6)
		}
	}
}

func TestCascadeCoversItsSlice(t *testing.T) {
	m := NewCascadeManager()
	require.NoError(t, m.Init(400, 1024, 4))
	view, proj := testCamera()
	m.Update(view, proj, testNear, testFar, common.Vec3{0, -1, -1})

	invView := common.Inverse(view)
	set := m.ShadowMatrices()
	for _, c := range set.Cascades {
		// The point on the view axis halfway through the slice lies inside the scene and
		// must project into the cascade's clip volume.
		d := (c.Near + c.Far) / 2
		p := common.TransformPoint(invView, common.Vec3{0, 0, -d})
		clip := common.TransformPoint(c.ViewProjection, p)
		assert.True(t, clip[0] >= -1 && clip[0] <= 1, "x %v", clip[0])
		assert.True(t, clip[1] >= -1 && clip[1] <= 1, "y %v", clip[1])
		assert.True(t, clip[2] >= 0 && clip[2] <= 1, "z %v", clip[2])

		// Scale and offset reproduce the projection from shadow view space.
		v := common.TransformPoint(set.ShadowView, p)
		for a := 0; a < 3; a++ {
			assert.InDelta(t, clip[a], v[a]*c.Scale[a]+c.Offset[a], 1e-3)
		}
	}
}

func TestZeroLightDirectionIsEmpty(t *testing.T) {
	m := NewCascadeManager()
	require.NoError(t, m.Init(200, 1024, 4))
	assert.True(t, m.ShadowMatrices().Empty())

	view, proj := testCamera()
	m.Update(view, proj, testNear, testFar, common.Vec3{})
	assert.True(t, m.ShadowMatrices().Empty())

	gpu := m.GPUData()
	assert.Equal(t, [4]float32{}, gpu.CascadeScale[0])
	assert.Equal(t, float32(0.25), gpu.PartitionSize)
}

func TestInvalidDepthRangeIsEmpty(t *testing.T) {
	m := NewCascadeManager()
	require.NoError(t, m.Init(200, 1024, 4))
	view, proj := testCamera()
	m.Update(view, proj, 0, testFar, common.Vec3{0, -1, 0.2})
	assert.True(t, m.ShadowMatrices().Empty())
	m.Update(view, proj, testFar, testNear, common.Vec3{0, -1, 0.2})
	assert.True(t, m.ShadowMatrices().Empty())
}

func TestStraightDownLightUsesStableUp(t *testing.T) {
	assert.Equal(t, common.Vec3{1, 0, 0}, StableUp(common.Vec3{0, -1, 0}))
	assert.Equal(t, common.Vec3{0, 1, 0}, StableUp(common.Normalize3(common.Vec3{1, -1, 0})))

	m := NewCascadeManager()
	require.NoError(t, m.Init(200, 1024, 2))
	view, proj := testCamera()
	m.Update(view, proj, testNear, testFar, common.Vec3{0, -1, 0})
	for _, c := range m.ShadowMatrices().Cascades {
		for _, v := range c.ViewProjection {
			assert.False(t, math32.IsNaN(v))
		}
	}
}

func TestCascadeDataMarshal(t *testing.T) {
	m := NewCascadeManager(WithCascadeBlendArea(0.2))
	require.NoError(t, m.Init(200, 1024, 4))
	view, proj := testCamera()
	m.Update(view, proj, testNear, testFar, common.Vec3{-1, -1, 0})

	g := m.GPUData()
	assert.Equal(t, 272, g.Size())
	buf := g.Marshal()
	require.Len(t, buf, 272)
	assert.Equal(t, float32(0.2), g.BlendArea)
	assert.InDelta(t, 100, g.CascadeScale[3][3], 1e-3)
	assert.Equal(t, [4]float32{}, g.CascadeScale[4])

	l := ToGPULight(NewLight(WithDirection(0, -1, 0), WithIntensity(2)).Params())
	assert.Equal(t, 48, l.Size())
	assert.Len(t, l.Marshal(), 48)
	assert.Equal(t, uint32(1), l.CastsShadows)
}
