package deferred

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/chewxy/math32"
)

// SelectCascade returns the first cascade whose far split lies beyond depth, or -1 when
// depth is past the last split and no shadow applies.
//
// Parameters:
//   - splits: increasing far depths, one per cascade
//   - depth: linear view depth of the pixel
//
// Returns:
//   - int: the cascade index or -1
func SelectCascade(splits []float32, depth float32) int {
	for i, s := range splits {
		if depth < s {
			return i
		}
	}
	return -1
}

// CascadeBlend returns how far depth has entered the blend band ending at far: 0 before
// the band, rising to 1 at far.
//
// Parameters:
//   - depth: linear view depth of the pixel
//   - far: the far split of the selected cascade
//   - width: the blend band width
//
// Returns:
//   - float32: the weight of the next cascade in [0, 1]
func CascadeBlend(depth, far, width float32) float32 {
	if width <= 0 {
		return 0
	}
	return common.Saturate((depth - (far - width)) / width)
}

// surface is the shading input reconstructed from the G-buffer or produced by a forward draw.
type surface struct {
	position  common.Vec3
	normal    common.Vec3
	albedo    common.Vec3
	metallic  float32
	roughness float32
}

// shadowSampler looks up cascaded shadow maps. The zero value reports everything lit.
type shadowSampler struct {
	cascades   []light.Cascade
	splits     []float32
	maps       []*renderer.Image
	bias       float32
	normalBias float32
	pcf        int
}

func newShadowSampler(set light.CascadeSet, maps []*renderer.Target, bias, normalBiasScale float32, pcf int) shadowSampler {
	if set.Empty() || len(maps) < set.Len() {
		return shadowSampler{}
	}
	s := shadowSampler{
		cascades:   set.Cascades,
		splits:     set.Splits(),
		maps:       make([]*renderer.Image, set.Len()),
		bias:       bias,
		normalBias: normalBiasScale,
		pcf:        pcf,
	}
	for i := range s.maps {
		s.maps[i] = maps[i].Image()
	}
	return s
}

// visibility returns the lit fraction of a point: 1 is fully lit.
func (s *shadowSampler) visibility(p, n common.Vec3, viewDepth float32) float32 {
	if len(s.cascades) == 0 {
		return 1
	}
	i := SelectCascade(s.splits, viewDepth)
	if i < 0 {
		return 1
	}
	v := s.sample(i, p, n)
	c := s.cascades[i]
	if t := CascadeBlend(viewDepth, c.Far, c.BlendWidth); t > 0 {
		next := float32(1)
		if i+1 < len(s.cascades) {
			next = s.sample(i+1, p, n)
		}
		v = common.Lerp(v, next, t)
	}
	return v
}

// sample runs a (2*pcf+1)^2 percentage-closer filter in cascade i.
func (s *shadowSampler) sample(i int, p, n common.Vec3) float32 {
	c := s.cascades[i]
	m := s.maps[i]
	if m.Width == 0 || m.Height == 0 {
		return 1
	}
	texel := math32.Max(c.TexelSize[0], c.TexelSize[1])
	offset := common.Add3(p, common.Scale3(n, texel*s.normalBias))
	clip := common.TransformPoint(c.ViewProjection, offset)
	u := clip[0]*0.5 + 0.5
	v := 0.5 - clip[1]*0.5
	if u < 0 || u > 1 || v < 0 || v > 1 || clip[2] > 1 {
		return 1
	}
	z := clip[2] - s.bias

	cx := int(u * float32(m.Width))
	cy := int(v * float32(m.Height))
	lit, taps := 0, 0
	for dy := -s.pcf; dy <= s.pcf; dy++ {
		for dx := -s.pcf; dx <= s.pcf; dx++ {
			taps++
			if z <= m.At(cx+dx, cy+dy)[0] {
				lit++
			}
		}
	}
	return float32(lit) / float32(taps)
}

// shade evaluates Lambert diffuse plus normalized Blinn-Phong specular for the
// directional light, and a hemisphere ambient term scaled by ao.
func shade(s surface, eye common.Vec3, lp light.Params, visibility, ao float32) common.Vec3 {
	l := common.Scale3(lp.Direction, -1)
	v := common.Normalize3(common.Sub3(eye, s.position))
	n := s.normal

	ambient := lp.Ambient
	if lp.IBL {
		// Sky from above, a darker bounce from below.
		up := n[1]*0.5 + 0.5
		ambient = common.Scale3(ambient, common.Lerp(0.4, 1.6, up))
	}
	diffuseColor := common.Scale3(s.albedo, 1-s.metallic)
	out := mul3(ambient, common.Scale3(s.albedo, ao))

	ndl := common.Dot3(n, l)
	if ndl <= 0 || visibility <= 0 {
		return out
	}
	h := common.Normalize3(common.Add3(l, v))
	ndh := math32.Max(common.Dot3(n, h), 0)
	r := math32.Max(s.roughness, 0.05)
	shininess := math32.Max(2/(r*r*r*r)-2, 1)
	specNorm := (shininess + 8) / (8 * math32.Pi)
	f0 := common.Vec3{
		common.Lerp(0.04, s.albedo[0], s.metallic),
		common.Lerp(0.04, s.albedo[1], s.metallic),
		common.Lerp(0.04, s.albedo[2], s.metallic),
	}
	spec := common.Scale3(f0, specNorm*math32.Pow(ndh, shininess))
	direct := mul3(lp.Radiance, common.Add3(diffuseColor, spec))
	return common.Add3(out, common.Scale3(direct, ndl*visibility))
}

// background returns the color seen where no geometry was drawn, looking along dir.
func background(dir common.Vec3, lp light.Params) common.Vec3 {
	if !lp.IBL {
		return lp.Ambient
	}
	t := common.Saturate(dir[1]*0.5 + 0.5)
	return common.Scale3(lp.Ambient, common.Lerp(0.5, 3, t))
}

func mul3(a, b common.Vec3) common.Vec3 {
	return common.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}
