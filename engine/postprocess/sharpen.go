package postprocess

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

const (
	MinSharpenRadius = 1
	MaxSharpenRadius = 3
)

// unsharp adds amount times the difference between each pixel and its box blurred
// neighborhood.
func unsharp(cmd *renderer.CommandList, in, out *renderer.Target, radius int, amount float32) {
	src := in.Image()
	cmd.Fullscreen(renderer.Pass{
		Label:   "unsharp_mask",
		Inputs:  []*renderer.Target{in},
		Outputs: []*renderer.Target{out},
		Kernel: func(x, y int, o []common.Color) {
			c := src.At(x, y)
			var blur [3]float32
			n := 0
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					s := src.At(x+dx, y+dy)
					blur[0] += s[0]
					blur[1] += s[1]
					blur[2] += s[2]
					n++
				}
			}
			inv := 1 / float32(n)
			o[0] = common.Color{
				common.Saturate(c[0] + amount*(c[0]-blur[0]*inv)),
				common.Saturate(c[1] + amount*(c[1]-blur[1]*inv)),
				common.Saturate(c[2] + amount*(c[2]-blur[2]*inv)),
				1,
			}
		},
	})
}
