package camera

import "github.com/Carmen-Shannon/oxy-deferred/common"

// JitterPhases is the length of the repeating jitter sequence.
const JitterPhases = 8

// Halton returns element index of the Halton low-discrepancy sequence in the given base.
// Elements lie in [0, 1); index 0 yields 0.
//
// Parameters:
//   - index: the element index
//   - base: the sequence base, at least 2
//
// Returns:
//   - float32: the element
func Halton(index, base int) float32 {
	f := float32(1)
	r := float32(0)
	for i := index; i > 0; i /= base {
		f /= float32(base)
		r += f * float32(i%base)
	}
	return r
}

// JitterOffset returns the sub-pixel projection offset for a frame in NDC units. It walks
// the Halton(2,3) sequence starting at element 1 so no phase sits on the pixel center.
//
// Parameters:
//   - frame: the frame number
//   - extent: the render target size
//
// Returns:
//   - [2]float32: the x and y offset, each within half a pixel
func JitterOffset(frame uint64, extent common.Extent) [2]float32 {
	if extent.IsZero() {
		return [2]float32{}
	}
	i := int(frame%JitterPhases) + 1
	return [2]float32{
		(Halton(i, 2) - 0.5) * 2 / float32(extent.Width),
		(Halton(i, 3) - 0.5) * 2 / float32(extent.Height),
	}
}

// ApplyJitter shifts a perspective projection so that NDC positions move by offset.
//
// Parameters:
//   - proj: the projection to modify
//   - offset: the NDC offset
func ApplyJitter(proj *common.Mat4, offset [2]float32) {
	// Perspective clip w is -z, so the third column's x and y subtract.
	proj[8] -= offset[0]
	proj[9] -= offset[1]
}
