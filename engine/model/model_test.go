package model

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPass struct {
	items []DrawItem
}

func (p *recordingPass) Draw(_ *renderer.CommandList, item DrawItem) {
	p.items = append(p.items, item)
}

func testTable() *MeshTable {
	t := NewMeshTable()
	t.Add(renderer.NewBoxMesh("box", common.Vec3{1, 1, 1}))
	t.Add(renderer.NewSphereMesh("ball", 0.5, 6, 8))
	return t
}

func TestMeshTable_Resolve(t *testing.T) {
	table := testTable()

	ref := NamedMesh("ball")
	_, ok := ref.Index()
	assert.False(t, ok)

	resolved, err := table.Resolve(ref)
	require.NoError(t, err)
	idx, ok := resolved.Index()
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "ball", table.Mesh(resolved).Label)
	assert.Nil(t, table.Mesh(ref))

	_, err = table.Resolve(NamedMesh("missing"))
	assert.ErrorIs(t, err, ErrUnresolvedMesh)

	again := table.Add(renderer.NewBoxMesh("box", common.Vec3{2, 2, 2}))
	idx, _ = again.Index()
	assert.Equal(t, 0, idx)
	assert.Equal(t, 2, table.Len())
}

func TestNew_SelectsVariant(t *testing.T) {
	table := testTable()
	batch := GeometryBatch{
		Name:      "crate",
		Bounds:    common.NewBoundingVolume(common.Vec3{}, common.Vec3{1, 1, 1}),
		Transform: common.IdentityMat4(),
		Mesh:      NamedMesh("box"),
	}

	static, err := New(0, batch, table)
	require.NoError(t, err)
	assert.Equal(t, KindStatic, static.Kind())

	char, err := New(1, batch, table, WithRootTrack(RootTrack{
		PositionKeys: []VectorKeyframe{{Time: 0}, {Time: 1, Value: common.Vec3{4, 0, 0}}},
	}))
	require.NoError(t, err)
	assert.Equal(t, KindCharacter, char.Kind())

	_, err = New(2, GeometryBatch{Name: "ghost", Mesh: NamedMesh("nope")}, table)
	assert.ErrorIs(t, err, ErrUnresolvedMesh)
}

func TestMatrixState_FirstFrameHasNoMotion(t *testing.T) {
	var s MatrixState
	vp := common.Translation(0, 0, -5)
	world := common.Translation(1, 2, 3)

	s.Advance(world, vp)
	assert.Equal(t, s.WVP, s.PrevWVP)

	s.Advance(common.Translation(2, 2, 3), vp)
	assert.Equal(t, common.Mul(vp, world), s.PrevWVP)
	assert.Equal(t, world, s.PrevWorld)

	// A point on the object maps back to where that same point was last frame.
	p := common.TransformPoint(s.Reproject(), common.Vec3{2, 2, 3})
	want := common.TransformPoint(common.Mul(vp, world), common.Vec3{})
	for i := range p {
		assert.InDelta(t, want[i], p[i], 1e-5)
	}
}

func TestCharacter_FollowsTrackAndSweepsBounds(t *testing.T) {
	table := testTable()
	batch := GeometryBatch{
		Name:      "walker",
		Transform: common.IdentityMat4(),
		Mesh:      NamedMesh("box"),
	}
	r, err := New(3, batch, table,
		WithRootTrack(RootTrack{
			PositionKeys: []VectorKeyframe{{Time: 0}, {Time: 2, Value: common.Vec3{10, 0, 0}}},
		}),
		WithBoneLinks([]BoneLink{{Bone: "head", Mesh: NamedMesh("ball"), Offset: common.Vec3{0, 1.5, 0}}}),
	)
	require.NoError(t, err)

	b := r.Bounds()
	assert.LessOrEqual(t, b.Min()[0], float32(-1))
	assert.GreaterOrEqual(t, b.Max()[0], float32(11))
	assert.GreaterOrEqual(t, b.Max()[1], float32(2))

	r.Update(1)
	r.SetMatrices(common.IdentityMat4())
	pass := &recordingPass{}
	r.Render(nil, pass)

	require.Len(t, pass.items, 2)
	assert.Equal(t, 3, pass.items[0].Object)
	assert.InDelta(t, 5, pass.items[0].World[12], 1e-5)
	assert.InDelta(t, 1.5, pass.items[1].World[13], 1e-5)
	assert.Equal(t, "ball", pass.items[1].Mesh.Label)
}

func TestRootTrack_Sample(t *testing.T) {
	track := RootTrack{
		PositionKeys: []VectorKeyframe{{Time: 0}, {Time: 1, Value: common.Vec3{2, 0, 0}}, {Time: 3, Value: common.Vec3{2, 0, 4}}},
		YawKeys:      []ScalarKeyframe{{Time: 0}, {Time: 3, Value: 3}},
	}

	pos, yaw := track.Sample(2)
	assert.InDelta(t, 2, pos[0], 1e-6)
	assert.InDelta(t, 2, pos[2], 1e-6)
	assert.InDelta(t, 2, yaw, 1e-6)

	pos, _ = track.Sample(10)
	assert.Equal(t, common.Vec3{2, 0, 4}, pos)

	track.Loop = true
	pos, _ = track.Sample(3.5)
	assert.InDelta(t, 1, pos[0], 1e-5)
}

func TestGPUObjectConstants_Marshal(t *testing.T) {
	c := GPUObjectConstants{Params: [4]float32{0, 0.5, 0, 2}}
	c.World[0] = 1
	buf := c.Marshal()
	assert.Len(t, buf, c.Size())
	assert.Equal(t, []byte{0, 0, 0x80, 0x3f}, buf[0:4])
	assert.Equal(t, []byte{0, 0, 0, 0x40}, buf[220:224])
}

func TestParseMaterialClass(t *testing.T) {
	c, err := ParseMaterialClass("alpha")
	require.NoError(t, err)
	assert.True(t, c.Blended())
	_, err = ParseMaterialClass("glass")
	assert.Error(t, err)
}
