package renderer

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/chewxy/math32"
)

// clipVertex carries a vertex through clipping.
type clipVertex struct {
	clip   [4]float32
	world  common.Vec3
	normal common.Vec3
}

func lerpClipVertex(a, b clipVertex, t float32) clipVertex {
	var out clipVertex
	for i := range out.clip {
		out.clip[i] = common.Lerp(a.clip[i], b.clip[i], t)
	}
	for i := 0; i < 3; i++ {
		out.world[i] = common.Lerp(a.world[i], b.world[i], t)
		out.normal[i] = common.Lerp(a.normal[i], b.normal[i], t)
	}
	return out
}

// clipNear clips a polygon against the z >= 0 clip plane (Sutherland-Hodgman).
func clipNear(in []clipVertex, out []clipVertex) []clipVertex {
	out = out[:0]
	for i := range in {
		a := in[i]
		b := in[(i+1)%len(in)]
		da, db := a.clip[2], b.clip[2]
		if da >= 0 {
			out = append(out, a)
		}
		if (da >= 0) != (db >= 0) {
			out = append(out, lerpClipVertex(a, b, da/(da-db)))
		}
	}
	return out
}

type screenVertex struct {
	x, y, z float32
	invW    float32
	world   common.Vec3
	normal  common.Vec3
}

// rasterize executes a draw call on the CPU. Triangles are rendered without face culling.
func rasterize(d *DrawCall) {
	var extent common.Extent
	switch {
	case len(d.Colors) > 0:
		extent = d.Colors[0].Extent()
	case d.Depth != nil:
		extent = d.Depth.Extent()
	}
	if extent.IsZero() {
		return
	}

	var depth *Image
	if d.Depth != nil {
		depth = d.Depth.image
	}
	colors := make([]*Image, len(d.Colors))
	for i, t := range d.Colors {
		colors[i] = t.image
	}
	out := make([]common.Color, len(colors))

	mesh := d.Mesh
	transformed := make([]clipVertex, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		w := common.TransformPoint(d.World, v.Position)
		transformed[i] = clipVertex{
			clip:   common.TransformVec4(d.ViewProjection, [4]float32{w[0], w[1], w[2], 1}),
			world:  w,
			normal: common.Normalize3(common.TransformDirection(d.World, v.Normal)),
		}
	}

	poly := make([]clipVertex, 0, 4)
	clipped := make([]clipVertex, 0, 4)
	width, height := float32(extent.Width), float32(extent.Height)
	var frag Fragment

	for t := 0; t+2 < len(mesh.Indices); t += 3 {
		poly = append(poly[:0], transformed[mesh.Indices[t]], transformed[mesh.Indices[t+1]], transformed[mesh.Indices[t+2]])
		clipped = clipNear(poly, clipped)
		if len(clipped) < 3 {
			continue
		}

		sv := make([]screenVertex, len(clipped))
		valid := true
		for i, cv := range clipped {
			w := cv.clip[3]
			if w <= 1e-6 {
				valid = false
				break
			}
			inv := 1 / w
			sv[i] = screenVertex{
				x:      (cv.clip[0]*inv*0.5 + 0.5) * width,
				y:      (0.5 - cv.clip[1]*inv*0.5) * height,
				z:      cv.clip[2] * inv,
				invW:   inv,
				world:  cv.world,
				normal: cv.normal,
			}
		}
		if !valid {
			continue
		}

		for i := 1; i+1 < len(sv); i++ {
			rasterTriangle(d, &sv[0], &sv[i], &sv[i+1], extent, depth, colors, out, &frag)
		}
	}
}

func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

func rasterTriangle(d *DrawCall, a, b, c *screenVertex, extent common.Extent, depth *Image, colors []*Image, out []common.Color, frag *Fragment) {
	area := edge(a.x, a.y, b.x, b.y, c.x, c.y)
	if math32.Abs(area) < 1e-9 {
		return
	}

	minX := max(int(math32.Floor(math32.Min(a.x, math32.Min(b.x, c.x)))), 0)
	maxX := min(int(math32.Ceil(math32.Max(a.x, math32.Max(b.x, c.x)))), extent.Width-1)
	minY := max(int(math32.Floor(math32.Min(a.y, math32.Min(b.y, c.y)))), 0)
	maxY := min(int(math32.Ceil(math32.Max(a.y, math32.Max(b.y, c.y)))), extent.Height-1)

	invArea := 1 / area
	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			w0 := edge(b.x, b.y, c.x, c.y, px, py) * invArea
			w1 := edge(c.x, c.y, a.x, a.y, px, py) * invArea
			w2 := edge(a.x, a.y, b.x, b.y, px, py) * invArea
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			z := w0*a.z + w1*b.z + w2*c.z
			if z < 0 || z > 1 {
				continue
			}
			if depth != nil && d.DepthTest && z >= depth.Pix[y*depth.Width+x] {
				continue
			}

			// Perspective-correct attribute weights.
			p0, p1, p2 := w0*a.invW, w1*b.invW, w2*c.invW
			sum := p0 + p1 + p2
			p0, p1, p2 = p0/sum, p1/sum, p2/sum

			frag.X, frag.Y, frag.Depth = x, y, z
			for k := 0; k < 3; k++ {
				frag.Position[k] = p0*a.world[k] + p1*b.world[k] + p2*c.world[k]
				frag.Normal[k] = p0*a.normal[k] + p1*b.normal[k] + p2*c.normal[k]
			}
			frag.Normal = common.Normalize3(frag.Normal)

			for i := range out {
				out[i] = common.Color{}
			}
			if !d.Shade(frag, out) {
				continue
			}

			for i, img := range colors {
				if i == 0 && d.Blend == BlendAlpha {
					dst := img.At(x, y)
					src := out[0]
					a := common.Saturate(src[3])
					img.Set(x, y, common.Color{
						src[0]*a + dst[0]*(1-a),
						src[1]*a + dst[1]*(1-a),
						src[2]*a + dst[2]*(1-a),
						a + dst[3]*(1-a),
					})
					continue
				}
				img.Set(x, y, out[i])
			}
			if depth != nil && d.DepthWrite {
				depth.Pix[y*depth.Width+x] = z
			}
		}
	}
}
