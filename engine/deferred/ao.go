package deferred

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/chewxy/math32"
)

// aoDirections are the screen directions each pixel searches for occluders.
var aoDirections = func() [8][2]float32 {
	var d [8][2]float32
	for i := range d {
		s, c := math32.Sincos(float32(i) * math32.Pi / 4)
		d[i] = [2]float32{c, s}
	}
	return d
}()

const aoSteps = 3

func (r *rendererImpl) RenderAO(cmd *renderer.CommandList, projection common.Mat4) {
	if r.ao == nil || !r.aoEnabled {
		return
	}
	g := r.gbuffer
	cmd.Barrier(r.ao, renderer.StateRenderTarget)

	viewDepth := g.ViewDepth.Image()
	normal := g.Normal.Image()
	view := r.view.View
	extent := g.Extent()
	w, h := float32(extent.Width), float32(extent.Height)
	tanX, tanY := 1/projection[0], 1/projection[5]
	radius, strength := r.aoRadius, r.aoStrength

	viewPos := func(x, y int) (common.Vec3, bool) {
		d := viewDepth.At(x, y)[0]
		if d <= 0 {
			return common.Vec3{}, false
		}
		nx := (float32(x)+0.5)/w*2 - 1
		ny := 1 - (float32(y)+0.5)/h*2
		return common.Vec3{nx * tanX * d, ny * tanY * d, -d}, true
	}

	cmd.Fullscreen(renderer.Pass{
		Label:   "ambient_occlusion",
		Inputs:  []*renderer.Target{g.ViewDepth, g.Normal},
		Outputs: []*renderer.Target{r.ao},
		Kernel: func(x, y int, out []common.Color) {
			p, ok := viewPos(x, y)
			if !ok {
				out[0] = common.Color{1}
				return
			}
			e := normal.At(x, y)
			n := common.Normalize3(common.TransformDirection(view, DecodeNormal([2]float32{e[0], e[1]})))

			// Project the world radius to pixels at this depth.
			px := radius / (-p[2] * tanY) * h * 0.5
			if px < 1 {
				out[0] = common.Color{1}
				return
			}
			var occlusion float32
			for _, d := range aoDirections {
				// Highest horizon along this direction, relative to the tangent plane.
				var horizon float32
				for s := 1; s <= aoSteps; s++ {
					t := px * float32(s) / aoSteps
					q, ok := viewPos(x+int(d[0]*t), y-int(d[1]*t))
					if !ok {
						continue
					}
					v := common.Sub3(q, p)
					dist := common.Length3(v)
					if dist < 1e-4 || dist > radius {
						continue
					}
					sinH := common.Dot3(n, v)/dist - 0.1
					falloff := 1 - dist/radius
					horizon = math32.Max(horizon, sinH*falloff)
				}
				occlusion += horizon
			}
			out[0] = common.Color{common.Saturate(1 - strength*occlusion/float32(len(aoDirections)))}
		},
	})
	r.stats.Passes++
}
