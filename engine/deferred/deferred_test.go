package deferred

import (
	"context"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/culling"
	"github.com/Carmen-Shannon/oxy-deferred/engine/frame"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalEncoding(t *testing.T) {
	normals := []common.Vec3{
		{0, 0, 1}, {0, 0, -1}, {1, 0, 0}, {0, -1, 0},
		common.Normalize3(common.Vec3{1, 2, -3}),
		common.Normalize3(common.Vec3{-0.2, 0.1, -0.9}),
	}
	for _, n := range normals {
		e := EncodeNormal(n)
		assert.LessOrEqual(t, math32.Abs(e[0]), float32(1))
		assert.LessOrEqual(t, math32.Abs(e[1]), float32(1))
		d := DecodeNormal(e)
		assert.InDeltaSlice(t, n[:], d[:], 1e-5, "normal %v", n)
	}
}

func TestSelectCascade(t *testing.T) {
	splits := []float32{5, 15, 40, 100}
	cases := []struct {
		depth float32
		want  int
	}{
		{0.1, 0}, {4.9, 0}, {5, 1}, {39, 2}, {99.9, 3}, {100, -1}, {250, -1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, SelectCascade(splits, c.depth), "depth %v", c.depth)
	}
	assert.Equal(t, -1, SelectCascade(nil, 1))
}

func TestCascadeBlend(t *testing.T) {
	assert.Equal(t, float32(0), CascadeBlend(7, 10, 2))
	assert.InDelta(t, 0.5, CascadeBlend(9, 10, 2), 1e-6)
	assert.Equal(t, float32(1), CascadeBlend(10, 10, 2))
	assert.Equal(t, float32(0), CascadeBlend(9.9, 10, 0))
}

type testScene struct {
	device   *renderer.SoftDevice
	renderer Renderer
	objects  []model.Renderable
	view     View
	proj     common.Mat4
}

func newTestScene(t *testing.T, extent common.Extent) *testScene {
	t.Helper()
	dev := renderer.NewSoftDevice(renderer.WithWorkers(2))
	t.Cleanup(dev.Release)

	meshes := model.NewMeshTable()
	floor := meshes.Add(renderer.NewPlaneMesh("floor", 10, 10))
	box := meshes.Add(renderer.NewBoxMesh("box", common.Vec3{1, 1, 1}))

	var objects []model.Renderable
	for i, b := range []model.GeometryBatch{
		{Name: "floor", Mesh: floor, Transform: common.IdentityMat4(), Material: model.DefaultMaterial, CastsShadow: true,
			Bounds: common.NewBoundingVolume(common.Vec3{}, common.Vec3{10, 0, 10})},
		{Name: "box", Mesh: box, Transform: common.Translation(0, 1.5, 0), Material: model.DefaultMaterial, CastsShadow: true,
			Bounds: common.NewBoundingVolume(common.Vec3{0, 1.5, 0}, common.Vec3{1, 1, 1})},
	} {
		obj, err := model.New(i, b, meshes)
		require.NoError(t, err)
		objects = append(objects, obj)
	}

	var view, proj common.Mat4
	common.LookAt(view[:], 0, 6, 8, 0, 0, 0, 0, 1, 0)
	common.Perspective(proj[:], math32.Pi/3, extent.Aspect(), 0.1, 50)
	vp := common.Mul(proj, view)
	for _, o := range objects {
		o.SetMatrices(vp)
	}

	r, err := NewRenderer(dev, extent)
	require.NoError(t, err)
	return &testScene{
		device:   dev,
		renderer: r,
		objects:  objects,
		proj:     proj,
		view: View{
			Objects:        objects,
			View:           view,
			ViewProjection: vp,
			Unjittered:     vp,
			Eye:            common.Vec3{0, 6, 8},
		},
	}
}

func (s *testScene) cascades(t *testing.T, dir common.Vec3) light.CascadeSet {
	m := light.NewCascadeManager()
	require.NoError(t, m.Init(30, 256, 2))
	m.Update(s.view.View, s.proj, 0.1, 50, dir)
	return m.ShadowMatrices()
}

func (s *testScene) run(t *testing.T, cmd *renderer.CommandList) {
	t.Helper()
	signal := s.device.CompletedValue() + 1
	require.NoError(t, s.device.Submit(cmd, signal))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, s.device.WaitForValue(ctx, signal))
}

func TestEmptyQueueRecordsNoDraws(t *testing.T) {
	s := newTestScene(t, common.Extent{Width: 16, Height: 16})
	cmd := renderer.NewCommandList("test")
	s.renderer.BeginFrame(s.view)

	assert.Equal(t, 0, s.renderer.RenderGBuffer(cmd, nil, light.CascadeSet{}))
	n, err := s.renderer.RenderShadowMaps(cmd, light.CascadeSet{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, s.renderer.RenderAlpha(cmd, nil, light.CascadeSet{}, light.NewLight().Params()))
	assert.Equal(t, 0, cmd.DrawCount())
	assert.Equal(t, Stats{}, s.renderer.Stats())
}

func TestComposeRequiresGBufferTransition(t *testing.T) {
	s := newTestScene(t, common.Extent{Width: 8, Height: 8})
	cmd := renderer.NewCommandList("test")
	s.renderer.BeginFrame(s.view)
	s.renderer.RenderGBuffer(cmd, culling.DrawQueue{0, 1}, light.CascadeSet{})

	renderer.Debug = true
	defer func() { renderer.Debug = false }()
	assert.Panics(t, func() {
		s.renderer.ComposeShading(cmd, s.renderer.GBuffer(), light.CascadeSet{}, light.NewLight().Params())
	})

	s.renderer.GBuffer().TransitionToRead(cmd)
	assert.NotPanics(t, func() {
		s.renderer.ComposeShading(cmd, s.renderer.GBuffer(), light.CascadeSet{}, light.NewLight().Params())
	})
}

func TestGBufferAndShading(t *testing.T) {
	extent := common.Extent{Width: 32, Height: 32}
	s := newTestScene(t, extent)
	arena := frame.NewConstantArena()
	s.view.Constants = arena
	lp := light.NewLight(light.WithDirection(0, -1, 0), light.WithIntensity(2)).Params()

	cmd := renderer.NewCommandList("test")
	s.renderer.BeginFrame(s.view)
	assert.Equal(t, 2, s.renderer.RenderGBuffer(cmd, culling.DrawQueue{1, 0}, light.CascadeSet{}))
	assert.Equal(t, 2, arena.Len())
	s.renderer.GBuffer().TransitionToRead(cmd)
	s.renderer.RenderAO(cmd, s.proj)
	shaded := s.renderer.ComposeShading(cmd, s.renderer.GBuffer(), light.CascadeSet{}, lp)
	s.run(t, cmd)

	g := s.renderer.GBuffer()
	// The top of the frame looks past the floor into the sky.
	assert.Equal(t, float32(1), g.Depth.Image().At(16, 0)[0])
	assert.Equal(t, float32(0), g.ViewDepth.Image().At(16, 0)[0])

	// The box sits in the middle of the frame, closer than the floor.
	center := g.ViewDepth.Image().At(16, 16)[0]
	assert.Greater(t, center, float32(0.1))
	assert.Less(t, center, float32(10))
	mat := g.Material.Image().At(16, 16)
	assert.InDelta(t, model.DefaultMaterial.Roughness, mat[1], 1e-6)
	assert.Equal(t, float32(0), mat[3])

	// Static scene and camera: no motion.
	motion := g.Motion.Image().At(16, 16)
	assert.InDelta(t, 0, motion[0], 1e-5)
	assert.InDelta(t, 0, motion[1], 1e-5)

	// The floor near the bottom faces the light and is brighter than the sky.
	floor := shaded.Image().At(16, 31)
	sky := shaded.Image().At(16, 0)
	assert.Greater(t, floor[1], sky[1])
	assert.Equal(t, float32(1), floor[3])
}

func TestBoxShadowsFloor(t *testing.T) {
	s := newTestScene(t, common.Extent{Width: 16, Height: 16})
	cascades := s.cascades(t, common.Vec3{0, -1, 0})
	require.Equal(t, 2, cascades.Len())

	cmd := renderer.NewCommandList("shadows")
	s.renderer.BeginFrame(s.view)
	n, err := s.renderer.RenderShadowMaps(cmd, cascades, []culling.DrawQueue{{0, 1}, {0, 1}})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	require.Len(t, s.renderer.ShadowMaps(), 2)
	assert.Equal(t, renderer.StateShaderRead, s.renderer.ShadowMaps()[0].RecordedState())
	s.run(t, cmd)

	sampler := newShadowSampler(cascades, s.renderer.ShadowMaps(), light.DefaultShadowBias, light.DefaultShadowNormalBiasScale, 1)
	up := common.Vec3{0, 1, 0}
	depth := func(p common.Vec3) float32 { return -common.TransformPoint(s.view.View, p)[2] }

	under := common.Vec3{0, 0, 0}
	open := common.Vec3{2, 0, 3}
	assert.Less(t, sampler.visibility(under, up, depth(under)), float32(0.5))
	assert.Equal(t, float32(1), sampler.visibility(open, up, depth(open)))

	// Without cascades everything is lit.
	none := newShadowSampler(light.CascadeSet{}, nil, 0, 0, 1)
	assert.Equal(t, float32(1), none.visibility(under, up, depth(under)))
}

func TestAlphaBlendsOverShadedImage(t *testing.T) {
	extent := common.Extent{Width: 16, Height: 16}
	s := newTestScene(t, extent)

	meshes := model.NewMeshTable()
	glass := model.DefaultMaterial
	glass.BaseColor = common.Color{0, 0, 1, 0.5}
	obj, err := model.New(2, model.GeometryBatch{
		Name: "glass", Mesh: meshes.Add(renderer.NewBoxMesh("glass", common.Vec3{0.5, 0.5, 0.5})),
		Transform: common.Translation(0, 3, 4), Class: model.ClassAlphaBlended, Material: glass,
	}, meshes)
	require.NoError(t, err)
	obj.SetMatrices(s.view.Unjittered)
	s.view.Objects = append(s.view.Objects, obj)

	lp := light.NewLight().Params()
	cmd := renderer.NewCommandList("test")
	s.renderer.BeginFrame(s.view)
	s.renderer.RenderGBuffer(cmd, culling.DrawQueue{1, 0}, light.CascadeSet{})
	s.renderer.GBuffer().TransitionToRead(cmd)
	s.renderer.RenderAO(cmd, s.proj)
	s.renderer.ComposeShading(cmd, s.renderer.GBuffer(), light.CascadeSet{}, lp)
	before := cmd.DrawCount()
	assert.Equal(t, 1, s.renderer.RenderAlpha(cmd, culling.DrawQueue{2}, light.CascadeSet{}, lp))
	assert.Equal(t, before+1, cmd.DrawCount())
	s.run(t, cmd)

	// The glass box projects to the frame center and tints it blue.
	c := s.renderer.Shaded().Image().At(8, 8)
	assert.Greater(t, c[2], c[0])
	assert.Equal(t, 1, s.renderer.Stats().AlphaDraws)
}

func TestResizeToZero(t *testing.T) {
	s := newTestScene(t, common.Extent{Width: 8, Height: 8})
	require.NoError(t, s.renderer.Resize(common.Extent{}))
	assert.True(t, s.renderer.Extent().IsZero())

	cmd := renderer.NewCommandList("test")
	s.renderer.BeginFrame(s.view)
	s.renderer.RenderGBuffer(cmd, culling.DrawQueue{0, 1}, light.CascadeSet{})
	s.renderer.GBuffer().TransitionToRead(cmd)
	s.renderer.RenderAO(cmd, s.proj)
	s.renderer.ComposeShading(cmd, s.renderer.GBuffer(), light.CascadeSet{}, light.NewLight().Params())
	assert.Equal(t, 0, cmd.PassCount())
	s.run(t, cmd)
}
