package postprocess

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// ReinhardExtended maps exposed luminance to display range. Luminance at white maps to 1.
//
// Parameters:
//   - l: exposed luminance
//   - white: the smallest luminance mapped to pure white
//
// Returns:
//   - float32: display luminance
func ReinhardExtended(l, white float32) float32 {
	return l * (1 + l/(white*white)) / (1 + l)
}

// ToneMapColor exposes an HDR color and applies ReinhardExtended to its luminance,
// keeping its chromaticity.
//
// Parameters:
//   - c: the HDR color
//   - exposure: the exposure multiplier
//   - white: the white point
//
// Returns:
//   - common.Color: the display-range color
func ToneMapColor(c common.Color, exposure, white float32) common.Color {
	l := Luminance(c)
	if l <= 0 {
		return common.Color{0, 0, 0, c[3]}
	}
	le := l * exposure
	scale := ReinhardExtended(le, white) / l
	return common.Color{
		common.Saturate(c[0] * scale),
		common.Saturate(c[1] * scale),
		common.Saturate(c[2] * scale),
		c[3],
	}
}

// toneMap exposes with key / adapted luminance. It reads last frame's adapted value and
// falls back to this frame's on the first frame.
func toneMap(cmd *renderer.CommandList, in, prevAdapted, curAdapted, out *renderer.Target, key, white float32) {
	src := in.Image()
	prev := prevAdapted.Image()
	cur := curAdapted.Image()
	cmd.Fullscreen(renderer.Pass{
		Label:   "tone_map",
		Inputs:  []*renderer.Target{in, prevAdapted, curAdapted},
		Outputs: []*renderer.Target{out},
		Kernel: func(x, y int, o []common.Color) {
			l := prev.At(0, 0)[0]
			if l <= 0 {
				l = cur.At(0, 0)[0]
			}
			o[0] = ToneMapColor(src.At(x, y), key/max(l, luminanceEpsilon), white)
		},
	})
}
