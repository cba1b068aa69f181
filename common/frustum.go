package common

import (
	"github.com/chewxy/math32"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   [3]float32
	Distance float32
}

// SignedDistance returns the signed distance of p from the plane. Positive is inside.
func (p Plane) SignedDistance(v Vec3) float32 {
	return p.Normal[0]*v[0] + p.Normal[1]*v[1] + p.Normal[2]*v[2] + p.Distance
}

// Frustum represents the six planes of a view frustum for culling.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// Containment is the result of testing a volume against a frustum.
type Containment int

const (
	// Outside means the volume lies entirely in the negative half-space of at least one plane.
	Outside Containment = iota
	// Inside means the volume lies entirely in the positive half-space of every plane.
	Inside
	// Intersecting means the volume straddles at least one plane.
	Intersecting
)

func (c Containment) String() string {
	switch c {
	case Outside:
		return "outside"
	case Inside:
		return "inside"
	default:
		return "intersecting"
	}
}

// ExtractFrustumFromMatrix extracts frustum planes from a view-projection matrix.
// The matrix should be the combined Projection * View matrix with clip z in [0, w].
// Uses the Gribb/Hartmann method for plane extraction.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: 16 float32 values representing the view-projection matrix (column-major)
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustumFromMatrix(viewProj []float32) Frustum {
	var f Frustum

	// M[row][col] is at index col*4 + row.
	row := func(r int) [4]float32 {
		return [4]float32{viewProj[r], viewProj[4+r], viewProj[8+r], viewProj[12+r]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	set := func(i int, a [4]float32, b [4]float32, sign float32) {
		f.Planes[i] = Plane{
			Normal:   [3]float32{a[0] + sign*b[0], a[1] + sign*b[1], a[2] + sign*b[2]},
			Distance: a[3] + sign*b[3],
		}
	}

	set(FrustumLeft, r3, r0, 1)
	set(FrustumRight, r3, r0, -1)
	set(FrustumBottom, r3, r1, 1)
	set(FrustumTop, r3, r1, -1)
	// Depth is [0, 1] so the near plane is row2 alone.
	f.Planes[FrustumNear] = Plane{Normal: [3]float32{r2[0], r2[1], r2[2]}, Distance: r2[3]}
	set(FrustumFar, r3, r2, -1)

	for i := range f.Planes {
		f.normalizePlane(i)
	}

	return f
}

// normalizePlane normalizes a frustum plane so that the normal has unit length.
func (f *Frustum) normalizePlane(index int) {
	p := &f.Planes[index]
	length := math32.Sqrt(p.Normal[0]*p.Normal[0] + p.Normal[1]*p.Normal[1] + p.Normal[2]*p.Normal[2])
	if length > 0 {
		invLen := 1.0 / length
		p.Normal[0] *= invLen
		p.Normal[1] *= invLen
		p.Normal[2] *= invLen
		p.Distance *= invLen
	}
}

// ContainsPoint reports whether p is on the inside of all six planes.
func (f *Frustum) ContainsPoint(p Vec3) bool {
	for i := range f.Planes {
		if f.Planes[i].SignedDistance(p) < 0 {
			return false
		}
	}
	return true
}

// ClassifyAABB tests an axis-aligned box given by center and half extents against all six
// planes. A box with zero extents degenerates to a point test.
//
// Parameters:
//   - center: box center
//   - extents: box half extents
//
// Returns:
//   - Containment: Outside, Inside, or Intersecting
func (f *Frustum) ClassifyAABB(center, extents Vec3) Containment {
	if extents == (Vec3{}) {
		if f.ContainsPoint(center) {
			return Inside
		}
		return Outside
	}

	result := Inside
	for i := range f.Planes {
		p := &f.Planes[i]
		d := p.SignedDistance(center)
		r := extents[0]*math32.Abs(p.Normal[0]) + extents[1]*math32.Abs(p.Normal[1]) + extents[2]*math32.Abs(p.Normal[2])
		if d < -r {
			return Outside
		}
		if d < r {
			result = Intersecting
		}
	}
	return result
}

// FrustumCorners returns the eight world-space corners of the clip volume described by the
// inverse of a view-projection matrix. Order: near (z=0) face then far (z=1) face, each
// as (-1,-1), (1,-1), (1,1), (-1,1).
//
// Parameters:
//   - invViewProj: inverse view-projection matrix
//
// Returns:
//   - [8]Vec3: the corners
func FrustumCorners(invViewProj Mat4) [8]Vec3 {
	ndc := [8]Vec3{
		{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0},
		{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
	}
	var out [8]Vec3
	for i, c := range ndc {
		out[i] = TransformPoint(invViewProj, c)
	}
	return out
}
