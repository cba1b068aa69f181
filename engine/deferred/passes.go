package deferred

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// gbufferPass writes surface attributes for opaque and alpha-tested draws.
type gbufferPass struct {
	r         *rendererImpl
	receivers bool
	draws     int
}

var _ model.Pass = &gbufferPass{}

func (p *gbufferPass) Draw(cmd *renderer.CommandList, item model.DrawItem) {
	v := p.r.view
	g := p.r.gbuffer
	p.r.pushConstants(item)

	mat := item.Material
	class := float32(item.Class) / 2
	receiver := float32(0)
	if p.receivers {
		receiver = 1
	}
	cur, prev := v.Unjittered, item.Reproject
	view := v.View

	cmd.Draw(renderer.DrawCall{
		Label:          "gbuffer " + item.Name,
		Object:         item.Object,
		Mesh:           item.Mesh,
		World:          item.World,
		ViewProjection: v.ViewProjection,
		Colors:         g.Colors(),
		Depth:          g.Depth,
		DepthTest:      true,
		DepthWrite:     true,
		Shade: func(f *renderer.Fragment, out []common.Color) bool {
			if item.Class == model.ClassAlphaTested && mat.BaseColor[3] < mat.AlphaCutoff {
				return false
			}
			n := EncodeNormal(f.Normal)
			motion := motionVector(cur, prev, f.Position)
			out[0] = mat.BaseColor
			out[1] = common.Color{n[0], n[1], 0, 0}
			out[2] = common.Color{mat.Metallic, mat.Roughness, class, receiver}
			out[3] = common.Color{motion[0], motion[1], 0, 0}
			out[4] = common.Color{-common.TransformPoint(view, f.Position)[2], 0, 0, 0}
			return true
		},
	})
	p.draws++
}

// motionVector returns the UV offset from a point's previous screen position to its current one.
func motionVector(cur, prevReproject common.Mat4, world common.Vec3) [2]float32 {
	a := common.TransformPoint(cur, world)
	b := common.TransformPoint(prevReproject, world)
	return [2]float32{(a[0] - b[0]) * 0.5, (b[1] - a[1]) * 0.5}
}

// shadowPass draws casters depth-only into one cascade.
type shadowPass struct {
	r              *rendererImpl
	target         *renderer.Target
	viewProjection common.Mat4
	draws          int
}

var _ model.Pass = &shadowPass{}

func (p *shadowPass) Draw(cmd *renderer.CommandList, item model.DrawItem) {
	if item.Class == model.ClassAlphaBlended {
		return
	}
	cmd.Draw(renderer.DrawCall{
		Label:          "shadow " + item.Name,
		Object:         item.Object,
		Mesh:           item.Mesh,
		World:          item.World,
		ViewProjection: p.viewProjection,
		Depth:          p.target,
		DepthTest:      true,
		DepthWrite:     true,
		Shade:          func(*renderer.Fragment, []common.Color) bool { return true },
	})
	p.draws++
}

// alphaPass forward-shades blended draws over the shaded image.
type alphaPass struct {
	r       *rendererImpl
	light   light.Params
	sampler shadowSampler
	draws   int
}

var _ model.Pass = &alphaPass{}

func (p *alphaPass) Draw(cmd *renderer.CommandList, item model.DrawItem) {
	v := p.r.view
	p.r.pushConstants(item)

	mat := item.Material
	lp := p.light
	sampler := p.sampler
	eye := v.Eye
	view := v.View

	cmd.Draw(renderer.DrawCall{
		Label:          "alpha " + item.Name,
		Object:         item.Object,
		Mesh:           item.Mesh,
		World:          item.World,
		ViewProjection: v.ViewProjection,
		Colors:         []*renderer.Target{p.r.shaded},
		Depth:          p.r.gbuffer.Depth,
		DepthTest:      true,
		Blend:          renderer.BlendAlpha,
		Shade: func(f *renderer.Fragment, out []common.Color) bool {
			s := surface{
				position:  f.Position,
				normal:    f.Normal,
				albedo:    common.Vec3{mat.BaseColor[0], mat.BaseColor[1], mat.BaseColor[2]},
				metallic:  mat.Metallic,
				roughness: mat.Roughness,
			}
			// Both faces of a blended mesh are drawn; light the one facing the eye.
			if common.Dot3(s.normal, common.Sub3(eye, s.position)) < 0 {
				s.normal = common.Scale3(s.normal, -1)
			}
			depth := -common.TransformPoint(view, f.Position)[2]
			c := shade(s, eye, lp, sampler.visibility(s.position, s.normal, depth), 1)
			out[0] = common.Color{c[0], c[1], c[2], mat.BaseColor[3]}
			return true
		},
	})
	p.draws++
}

// pushConstants records the draw's constant block in the frame slot's arena.
func (r *rendererImpl) pushConstants(item model.DrawItem) {
	if r.view.Constants == nil {
		return
	}
	c := model.GPUObjectConstants{
		World:     item.World,
		WVP:       common.Mul(r.view.ViewProjection, item.World),
		PrevWVP:   common.Mul(item.Reproject, item.World),
		BaseColor: item.Material.BaseColor,
		Params:    [4]float32{item.Material.Metallic, item.Material.Roughness, item.Material.AlphaCutoff, float32(item.Class)},
	}
	r.view.Constants.Push(&c)
}
