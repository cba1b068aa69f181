package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// ReadbackAlignment is the row pitch alignment required by WebGPU buffer copies.
const ReadbackAlignment = 256

// AlignedRowPitch returns the smallest multiple of ReadbackAlignment that holds width RGBA8 pixels.
//
// Parameters:
//   - width: row width in pixels
//
// Returns:
//   - int: the aligned row pitch in bytes
func AlignedRowPitch(width int) int {
	return (width*4 + ReadbackAlignment - 1) / ReadbackAlignment * ReadbackAlignment
}

// packRGBA8 converts an image to 8-bit RGBA rows spaced rowPitch bytes apart. Single
// channel images are replicated to gray; padding bytes are left zero.
func packRGBA8(im *Image, rowPitch int) ([]byte, error) {
	if rowPitch < im.Width*4 {
		return nil, fmt.Errorf("%w: %d bytes for %d pixels", ErrRowPitch, rowPitch, im.Width)
	}
	out := make([]byte, rowPitch*im.Height)
	for y := 0; y < im.Height; y++ {
		row := out[y*rowPitch:]
		for x := 0; x < im.Width; x++ {
			c := im.At(x, y)
			if im.Channels == 1 {
				c = common.Color{c[0], c[0], c[0], 1}
			}
			for k := 0; k < 4; k++ {
				row[x*4+k] = unorm8(c[k])
			}
		}
	}
	return out, nil
}

func unorm8(v float32) byte {
	return byte(common.Saturate(v)*255 + 0.5)
}
