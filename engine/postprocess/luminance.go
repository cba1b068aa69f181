package postprocess

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/chewxy/math32"
)

// luminanceBlock is the side of the pixel block averaged into one downsampled texel.
const luminanceBlock = 4

const luminanceEpsilon = 1e-4

// Luminance returns the Rec. 709 luminance of c.
func Luminance(c common.Color) float32 {
	return 0.2126*c[0] + 0.7152*c[1] + 0.0722*c[2]
}

// AdaptLuminance moves the adapted luminance toward the frame average with an
// exponential moving average that is independent of frame rate. A non-positive
// previous value adopts the average directly.
//
// Parameters:
//   - adapted: last frame's adapted luminance
//   - average: this frame's average luminance
//   - dt: seconds since the last frame
//   - rate: adaptation speed per second
//
// Returns:
//   - float32: the new adapted luminance
func AdaptLuminance(adapted, average, dt, rate float32) float32 {
	if adapted <= 0 {
		return average
	}
	return adapted + (average-adapted)*(1-math32.Exp(-dt*rate))
}

// luminanceDownsample writes the mean log luminance of each block of in.
func luminanceDownsample(cmd *renderer.CommandList, in, out *renderer.Target) {
	src := in.Image()
	cmd.Fullscreen(renderer.Pass{
		Label:   "luminance_downsample",
		Inputs:  []*renderer.Target{in},
		Outputs: []*renderer.Target{out},
		Kernel: func(x, y int, o []common.Color) {
			var sum float32
			n := 0
			for dy := 0; dy < luminanceBlock; dy++ {
				for dx := 0; dx < luminanceBlock; dx++ {
					px, py := x*luminanceBlock+dx, y*luminanceBlock+dy
					if px >= src.Width || py >= src.Height {
						continue
					}
					sum += math32.Log(Luminance(src.At(px, py)) + luminanceEpsilon)
					n++
				}
			}
			if n > 0 {
				sum /= float32(n)
			}
			o[0] = common.Color{sum}
		},
	})
}

// luminanceAdapt reduces the downsampled log luminance to its geometric mean and
// adapts the previous value toward it.
func luminanceAdapt(cmd *renderer.CommandList, down, prev, out *renderer.Target, dt, rate float32) {
	src := down.Image()
	last := prev.Image()
	cmd.Fullscreen(renderer.Pass{
		Label:   "luminance_adapt",
		Inputs:  []*renderer.Target{down, prev},
		Outputs: []*renderer.Target{out},
		Kernel: func(_, _ int, o []common.Color) {
			var sum float32
			for _, v := range src.Pix {
				sum += v
			}
			avg := math32.Exp(sum/float32(max(len(src.Pix), 1))) - luminanceEpsilon
			o[0] = common.Color{AdaptLuminance(last.At(0, 0)[0], math32.Max(avg, luminanceEpsilon), dt, rate)}
		},
	})
}
