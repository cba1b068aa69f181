package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvertRoundTrip(t *testing.T) {
	var m Mat4
	BuildModelMatrix(m[:], 1, 2, 3, 0.3, 0.7, -0.2, 2, 1, 0.5)

	var inv Mat4
	require.True(t, Invert4(inv[:], m[:]))

	id := Mul(m, inv)
	want := IdentityMat4()
	for i := range id {
		assert.InDelta(t, want[i], id[i], 1e-5, "element %d", i)
	}
}

func TestInvertSingular(t *testing.T) {
	var zero, out Mat4
	out[0] = 7
	assert.False(t, Invert4(out[:], zero[:]))
	assert.Equal(t, float32(7), out[0])
}

func TestPerspectiveDepthMapping(t *testing.T) {
	var proj Mat4
	Perspective(proj[:], 1, 1, 0.5, 50)

	near := TransformPoint(proj, Vec3{0, 0, -0.5})
	far := TransformPoint(proj, Vec3{0, 0, -50})
	assert.InDelta(t, 0, near[2], 1e-5)
	assert.InDelta(t, 1, far[2], 1e-5)
}

func TestOrthoDepthMapping(t *testing.T) {
	var proj Mat4
	Ortho(proj[:], -2, 2, -1, 1, 1, 11)

	p := TransformPoint(proj, Vec3{2, 1, -11})
	assert.InDelta(t, 1, p[0], 1e-6)
	assert.InDelta(t, 1, p[1], 1e-6)
	assert.InDelta(t, 1, p[2], 1e-6)

	p = TransformPoint(proj, Vec3{-2, -1, -1})
	assert.InDelta(t, -1, p[0], 1e-6)
	assert.InDelta(t, 0, p[2], 1e-6)
}

func TestLookAtMovesEyeToOrigin(t *testing.T) {
	var view Mat4
	LookAt(view[:], 3, 4, 5, 0, 0, 0, 0, 1, 0)

	eye := TransformPoint(view, Vec3{3, 4, 5})
	for _, c := range eye {
		assert.InDelta(t, 0, c, 1e-5)
	}
	target := TransformPoint(view, Vec3{0, 0, 0})
	assert.InDelta(t, -Length3(Vec3{3, 4, 5}), target[2], 1e-4)
}

func TestBoundsUnionAndContainment(t *testing.T) {
	a := NewBoundingVolume(Vec3{0, 0, 0}, Vec3{1, -1, 1})
	assert.Equal(t, Vec3{1, 1, 1}, a.Extents)

	b := BoundsFromMinMax(Vec3{2, 2, 2}, Vec3{4, 4, 4})
	u := a.Union(b)
	assert.Equal(t, Vec3{-1, -1, -1}, u.Min())
	assert.Equal(t, Vec3{4, 4, 4}, u.Max())

	assert.True(t, a.ContainedIn(Vec3{}, 1))
	assert.False(t, a.ContainedIn(Vec3{0.5, 0, 0}, 1))
	assert.True(t, NewBoundingVolume(Vec3{1, 1, 1}, Vec3{}).IsDegenerate())
}
