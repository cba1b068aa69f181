package renderer

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/chewxy/math32"
)

var targetCount atomic.Uint64

// Image is the pixel store behind a Target. Pixels are row-major with Channels floats each.
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []float32
}

// NewImage allocates a zeroed image.
func NewImage(width, height, channels int) *Image {
	return &Image{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]float32, width*height*channels),
	}
}

// At returns the pixel at (x, y), padding missing channels with 0 (and alpha with 1).
// Coordinates are clamped to the image edge.
func (im *Image) At(x, y int) common.Color {
	if im.Width == 0 || im.Height == 0 {
		return common.Color{}
	}
	x = min(max(x, 0), im.Width-1)
	y = min(max(y, 0), im.Height-1)
	i := (y*im.Width + x) * im.Channels
	c := common.Color{0, 0, 0, 1}
	for k := 0; k < im.Channels; k++ {
		c[k] = im.Pix[i+k]
	}
	return c
}

// Set writes the first Channels components of c at (x, y). Out of range writes are dropped.
func (im *Image) Set(x, y int, c common.Color) {
	if x < 0 || y < 0 || x >= im.Width || y >= im.Height {
		return
	}
	i := (y*im.Width + x) * im.Channels
	copy(im.Pix[i:i+im.Channels], c[:im.Channels])
}

// Sample bilinearly filters the image at normalized coordinates (u, v) with clamp-to-edge addressing.
func (im *Image) Sample(u, v float32) common.Color {
	if im.Width == 0 || im.Height == 0 {
		return common.Color{}
	}
	fx := u*float32(im.Width) - 0.5
	fy := v*float32(im.Height) - 0.5
	x0 := int(math32.Floor(fx))
	y0 := int(math32.Floor(fy))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	c00, c10 := im.At(x0, y0), im.At(x0+1, y0)
	c01, c11 := im.At(x0, y0+1), im.At(x0+1, y0+1)
	var out common.Color
	for k := range out {
		top := common.Lerp(c00[k], c10[k], tx)
		bottom := common.Lerp(c01[k], c11[k], tx)
		out[k] = common.Lerp(top, bottom, ty)
	}
	return out
}

// Fill sets every pixel to c.
func (im *Image) Fill(c common.Color) {
	for i := 0; i < len(im.Pix); i += im.Channels {
		copy(im.Pix[i:i+im.Channels], c[:im.Channels])
	}
}

// Clone returns a deep copy.
func (im *Image) Clone() *Image {
	out := &Image{Width: im.Width, Height: im.Height, Channels: im.Channels, Pix: make([]float32, len(im.Pix))}
	copy(out.Pix, im.Pix)
	return out
}

// Target is a render target owned by a Device.
//
// The recorded state is the state the last recorded barrier left the target in; it is
// only touched by the single recording goroutine.
type Target struct {
	id     uint64
	label  string
	format Format
	image  *Image
	state  ResourceState
}

func newTarget(label string, extent common.Extent, format Format) *Target {
	return &Target{
		id:     targetCount.Add(1),
		label:  label,
		format: format,
		image:  NewImage(extent.Width, extent.Height, format.Channels()),
	}
}

// Label returns the debug name.
func (t *Target) Label() string { return t.label }

// Format returns the pixel format.
func (t *Target) Format() Format { return t.format }

// Extent returns the size in pixels.
func (t *Target) Extent() common.Extent {
	return common.Extent{Width: t.image.Width, Height: t.image.Height}
}

// Width returns the width in pixels.
func (t *Target) Width() int { return t.image.Width }

// Height returns the height in pixels.
func (t *Target) Height() int { return t.image.Height }

// Image returns the pixel store. Kernels read and write it while the device executes
// their command list; the recording goroutine must not touch it.
func (t *Target) Image() *Image { return t.image }

// RecordedState returns the state set by the most recently recorded barrier.
func (t *Target) RecordedState() ResourceState { return t.state }
