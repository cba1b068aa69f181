package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func lookDownNegZ() Frustum {
	var view, proj, vp Mat4
	LookAt(view[:], 0, 0, 0, 0, 0, -1, 0, 1, 0)
	Perspective(proj[:], math32.Pi/2, 1, 0.1, 100)
	Mul4(vp[:], proj[:], view[:])
	return ExtractFrustumFromMatrix(vp[:])
}

func TestFrustumContainsPoint(t *testing.T) {
	f := lookDownNegZ()

	cases := []struct {
		name string
		p    Vec3
		want bool
	}{
		{"center", Vec3{0, 0, -5}, true},
		{"behind", Vec3{0, 0, 5}, false},
		{"before near", Vec3{0, 0, -0.05}, false},
		{"past far", Vec3{0, 0, -150}, false},
		{"left of fov", Vec3{-10, 0, -5}, false},
		{"inside near edge", Vec3{0, 0, -0.2}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, f.ContainsPoint(tc.p))
		})
	}
}

func TestFrustumClassifyAABB(t *testing.T) {
	f := lookDownNegZ()

	assert.Equal(t, Inside, f.ClassifyAABB(Vec3{0, 0, -10}, Vec3{1, 1, 1}))
	assert.Equal(t, Outside, f.ClassifyAABB(Vec3{0, 0, 10}, Vec3{1, 1, 1}))
	assert.Equal(t, Intersecting, f.ClassifyAABB(Vec3{0, 0, -100}, Vec3{1, 1, 1}))
	assert.Equal(t, Intersecting, f.ClassifyAABB(Vec3{5, 0, -5}, Vec3{1, 1, 1}))
}

func TestFrustumClassifyDegenerateUsesPointTest(t *testing.T) {
	f := lookDownNegZ()

	assert.Equal(t, Inside, f.ClassifyAABB(Vec3{0, 0, -3}, Vec3{}))
	assert.Equal(t, Outside, f.ClassifyAABB(Vec3{0, 0, 3}, Vec3{}))
}

func TestFrustumCornersSpanNearAndFar(t *testing.T) {
	var view, proj, vp Mat4
	LookAt(view[:], 0, 0, 0, 0, 0, -1, 0, 1, 0)
	Perspective(proj[:], math32.Pi/2, 1, 1, 10)
	Mul4(vp[:], proj[:], view[:])

	corners := FrustumCorners(Inverse(vp))
	for i := 0; i < 4; i++ {
		assert.InDelta(t, -1, corners[i][2], 1e-4)
		assert.InDelta(t, -10, corners[i+4][2], 1e-2)
	}
	// fov of 90 degrees: half width equals depth.
	assert.InDelta(t, 10, math32.Abs(corners[5][0]), 1e-2)
}
