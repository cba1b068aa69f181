package renderer

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/chewxy/math32"
)

// Vertex is a mesh vertex in object space.
type Vertex struct {
	Position common.Vec3
	Normal   common.Vec3
}

// Mesh is an indexed triangle list.
type Mesh struct {
	Label    string
	Vertices []Vertex
	Indices  []uint32
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// Bounds returns the object-space bounds of the vertices.
func (m *Mesh) Bounds() common.BoundingVolume {
	pts := make([]common.Vec3, len(m.Vertices))
	for i, v := range m.Vertices {
		pts[i] = v.Position
	}
	return common.BoundsFromPoints(pts)
}

// NewBoxMesh builds an axis-aligned box centered on the origin with flat face normals.
//
// Parameters:
//   - label: debug name
//   - extents: half extents along each axis
//
// Returns:
//   - *Mesh: the box with 24 vertices and 12 triangles
func NewBoxMesh(label string, extents common.Vec3) *Mesh {
	m := &Mesh{Label: label}
	for axis := 0; axis < 3; axis++ {
		u, v := (axis+1)%3, (axis+2)%3
		for _, s := range [2]float32{1, -1} {
			var n common.Vec3
			n[axis] = s
			base := uint32(len(m.Vertices))
			for _, corner := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
				var p common.Vec3
				p[axis] = s * extents[axis]
				p[u] = corner[0] * extents[u]
				p[v] = corner[1] * extents[v] * s
				m.Vertices = append(m.Vertices, Vertex{Position: p, Normal: n})
			}
			m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
		}
	}
	return m
}

// NewSphereMesh builds a UV sphere centered on the origin.
//
// Parameters:
//   - label: debug name
//   - radius: sphere radius
//   - rings: latitude subdivisions (at least 3)
//   - segments: longitude subdivisions (at least 3)
//
// Returns:
//   - *Mesh: the sphere
func NewSphereMesh(label string, radius float32, rings, segments int) *Mesh {
	rings = max(rings, 3)
	segments = max(segments, 3)
	m := &Mesh{Label: label}
	for r := 0; r <= rings; r++ {
		phi := math32.Pi * float32(r) / float32(rings)
		sp, cp := math32.Sincos(phi)
		for s := 0; s <= segments; s++ {
			theta := 2 * math32.Pi * float32(s) / float32(segments)
			st, ct := math32.Sincos(theta)
			n := common.Vec3{sp * ct, cp, sp * st}
			m.Vertices = append(m.Vertices, Vertex{Position: common.Scale3(n, radius), Normal: n})
		}
	}
	stride := uint32(segments + 1)
	for r := uint32(0); r < uint32(rings); r++ {
		for s := uint32(0); s < uint32(segments); s++ {
			a := r*stride + s
			b := a + stride
			m.Indices = append(m.Indices, a, b, a+1, a+1, b, b+1)
		}
	}
	return m
}

// NewPlaneMesh builds a horizontal quad in the XZ plane facing +Y.
func NewPlaneMesh(label string, halfX, halfZ float32) *Mesh {
	up := common.Vec3{0, 1, 0}
	return &Mesh{
		Label: label,
		Vertices: []Vertex{
			{Position: common.Vec3{-halfX, 0, -halfZ}, Normal: up},
			{Position: common.Vec3{halfX, 0, -halfZ}, Normal: up},
			{Position: common.Vec3{halfX, 0, halfZ}, Normal: up},
			{Position: common.Vec3{-halfX, 0, halfZ}, Normal: up},
		},
		Indices: []uint32{0, 2, 1, 0, 3, 2},
	}
}
