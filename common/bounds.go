package common

import "github.com/chewxy/math32"

// BoundingVolume is an axis-aligned box stored as a center and non-negative half extents.
type BoundingVolume struct {
	Center  Vec3
	Extents Vec3
}

// NewBoundingVolume builds a volume from a center and half extents. Negative extents are
// folded to their absolute value.
//
// Parameters:
//   - center: the box center
//   - extents: the half extents along each axis
//
// Returns:
//   - BoundingVolume: the volume
func NewBoundingVolume(center, extents Vec3) BoundingVolume {
	for i := range extents {
		extents[i] = math32.Abs(extents[i])
	}
	return BoundingVolume{Center: center, Extents: extents}
}

// BoundsFromMinMax builds a volume from its minimum and maximum corners.
func BoundsFromMinMax(min, max Vec3) BoundingVolume {
	var b BoundingVolume
	for i := 0; i < 3; i++ {
		lo, hi := min[i], max[i]
		if lo > hi {
			lo, hi = hi, lo
		}
		b.Center[i] = (lo + hi) * 0.5
		b.Extents[i] = (hi - lo) * 0.5
	}
	return b
}

// BoundsFromPoints returns the tightest volume around pts. An empty slice yields the zero volume.
func BoundsFromPoints(pts []Vec3) BoundingVolume {
	if len(pts) == 0 {
		return BoundingVolume{}
	}
	min, max := pts[0], pts[0]
	for _, p := range pts[1:] {
		for i := 0; i < 3; i++ {
			min[i] = math32.Min(min[i], p[i])
			max[i] = math32.Max(max[i], p[i])
		}
	}
	return BoundsFromMinMax(min, max)
}

// Min returns the minimum corner.
func (b BoundingVolume) Min() Vec3 { return Sub3(b.Center, b.Extents) }

// Max returns the maximum corner.
func (b BoundingVolume) Max() Vec3 { return Add3(b.Center, b.Extents) }

// IsDegenerate reports whether every extent is zero.
func (b BoundingVolume) IsDegenerate() bool { return b.Extents == (Vec3{}) }

// Corners returns the eight corners of the box.
func (b BoundingVolume) Corners() [8]Vec3 {
	var out [8]Vec3
	for i := 0; i < 8; i++ {
		for a := 0; a < 3; a++ {
			s := float32(-1)
			if i&(1<<a) != 0 {
				s = 1
			}
			out[i][a] = b.Center[a] + s*b.Extents[a]
		}
	}
	return out
}

// Union returns the smallest volume enclosing both b and o.
func (b BoundingVolume) Union(o BoundingVolume) BoundingVolume {
	bmin, bmax := b.Min(), b.Max()
	omin, omax := o.Min(), o.Max()
	for i := 0; i < 3; i++ {
		bmin[i] = math32.Min(bmin[i], omin[i])
		bmax[i] = math32.Max(bmax[i], omax[i])
	}
	return BoundsFromMinMax(bmin, bmax)
}

// ContainedIn reports whether b lies fully inside the cube centered at center with the
// given half size.
func (b BoundingVolume) ContainedIn(center Vec3, halfSize float32) bool {
	for i := 0; i < 3; i++ {
		if b.Center[i]-b.Extents[i] < center[i]-halfSize || b.Center[i]+b.Extents[i] > center[i]+halfSize {
			return false
		}
	}
	return true
}

// Transform returns the axis-aligned box enclosing b after applying m.
func (b BoundingVolume) Transform(m Mat4) BoundingVolume {
	corners := b.Corners()
	pts := make([]Vec3, 0, 8)
	for _, c := range corners {
		pts = append(pts, TransformPoint(m, c))
	}
	return BoundsFromPoints(pts)
}
