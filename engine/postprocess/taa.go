package postprocess

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/chewxy/math32"
)

// velocityFalloff is the screen speed in pixels at which velocity weighting discards history.
const velocityFalloff = 32

// TAASettings tunes temporal antialiasing.
type TAASettings struct {
	Enabled bool
	// BlendFactor is the weight given to history when it is accepted.
	BlendFactor float32
	// RejectThreshold is how far, per channel, history may fall outside the current
	// 3x3 neighborhood before it is discarded instead of clamped.
	RejectThreshold float32
	// MotionThreshold is the largest UV difference between a pixel's motion and the
	// motion stored in history at its previous position.
	MotionThreshold float32
	// VelocityWeighted lowers the history weight for fast moving pixels.
	VelocityWeighted bool
}

// DefaultTAASettings returns the settings used when none are given.
func DefaultTAASettings() TAASettings {
	return TAASettings{
		Enabled:         true,
		BlendFactor:     0.9,
		RejectThreshold: 0.1,
		MotionThreshold: 0.01,
	}
}

// ReprojectUV returns where a pixel at uv with the given NDC depth was on screen last
// frame. prevFromCurrent maps current NDC to previous clip space.
func ReprojectUV(prevFromCurrent common.Mat4, uv [2]float32, depth float32) [2]float32 {
	p := common.TransformPoint(prevFromCurrent, common.Vec3{uv[0]*2 - 1, 1 - uv[1]*2, depth})
	return [2]float32{p[0]*0.5 + 0.5, 0.5 - p[1]*0.5}
}

// resolveHistory blends the current color with clamped history. It returns the current
// color unchanged when the history sample is rejected.
func resolveHistory(cur, hist common.Color, lo, hi [3]float32, factor, rejectThreshold float32) common.Color {
	var outside float32
	for k := 0; k < 3; k++ {
		outside = math32.Max(outside, math32.Max(lo[k]-hist[k], hist[k]-hi[k]))
	}
	if outside > rejectThreshold {
		return cur
	}
	out := common.Color{0, 0, 0, 1}
	for k := 0; k < 3; k++ {
		h := common.Clamp(hist[k], lo[k], hi[k])
		out[k] = common.Lerp(cur[k], h, factor)
	}
	return out
}

func uvInside(uv [2]float32) bool {
	return uv[0] >= 0 && uv[0] <= 1 && uv[1] >= 0 && uv[1] <= 1
}

// temporalResolve writes this frame's antialiased color and motion into the current
// history images, reading last frame's from the previous ones.
func temporalResolve(cmd *renderer.CommandList, h *TemporalHistory, in, motion, depth *renderer.Target, prevFromCurrent common.Mat4, s TAASettings) {
	outColor, outMeta := h.Current()
	prevColor, prevMeta := h.Previous()
	cur := in.Image()
	mv := motion.Image()
	dp := depth.Image()
	pc := prevColor.Image()
	pm := prevMeta.Image()
	valid := h.Valid()

	inputs := []*renderer.Target{in, motion, depth, prevColor, prevMeta}
	for _, t := range inputs {
		cmd.Barrier(t, renderer.StateShaderRead)
	}
	cmd.Barrier(outColor, renderer.StateRenderTarget)
	cmd.Barrier(outMeta, renderer.StateRenderTarget)

	w, ht := float32(cur.Width), float32(cur.Height)
	cmd.Fullscreen(renderer.Pass{
		Label:   "temporal_resolve",
		Inputs:  inputs,
		Outputs: []*renderer.Target{outColor, outMeta},
		Kernel: func(x, y int, out []common.Color) {
			uv := [2]float32{(float32(x) + 0.5) / w, (float32(y) + 0.5) / ht}
			c := cur.At(x, y)
			m := mv.At(x, y)
			vel := [2]float32{m[0], m[1]}
			if d := dp.At(x, y)[0]; d >= 1 {
				prev := ReprojectUV(prevFromCurrent, uv, d)
				vel = [2]float32{uv[0] - prev[0], uv[1] - prev[1]}
			}
			out[1] = common.Color{vel[0], vel[1], 0, 0}
			out[0] = common.Color{c[0], c[1], c[2], 1}

			prevUV := [2]float32{uv[0] - vel[0], uv[1] - vel[1]}
			if !valid || !uvInside(prevUV) {
				return
			}
			pmv := pm.Sample(prevUV[0], prevUV[1])
			if math32.Hypot(vel[0]-pmv[0], vel[1]-pmv[1]) > s.MotionThreshold {
				return
			}

			lo := [3]float32{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32}
			hi := [3]float32{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32}
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					n := cur.At(x+dx, y+dy)
					for k := 0; k < 3; k++ {
						lo[k] = math32.Min(lo[k], n[k])
						hi[k] = math32.Max(hi[k], n[k])
					}
				}
			}

			factor := s.BlendFactor
			if s.VelocityWeighted {
				pixels := math32.Hypot(vel[0]*w, vel[1]*ht)
				factor *= common.Saturate(1 - pixels/velocityFalloff)
			}
			out[0] = resolveHistory(c, pc.Sample(prevUV[0], prevUV[1]), lo, hi, factor, s.RejectThreshold)
		},
	})
}
