package postprocess

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// TemporalHistory holds the two color and two meta images temporal antialiasing
// alternates between. Meta stores each pixel's motion vector so the next frame can
// detect motion discontinuities. It lives across frames and is only reallocated on resize.
type TemporalHistory struct {
	color  [2]*renderer.Target
	meta   [2]*renderer.Target
	parity int
	valid  bool
	extent common.Extent
}

// NewTemporalHistory allocates the history images.
//
// Parameters:
//   - device: the device that owns the images
//   - extent: the size in pixels
//
// Returns:
//   - *TemporalHistory: the history, initially invalid
//   - error: renderer.ErrTargetCreation
func NewTemporalHistory(device renderer.Device, extent common.Extent) (*TemporalHistory, error) {
	h := &TemporalHistory{}
	if err := h.Resize(device, extent); err != nil {
		return nil, err
	}
	return h, nil
}

// Resize reallocates the images and invalidates the history. The device must be idle.
func (h *TemporalHistory) Resize(device renderer.Device, extent common.Extent) error {
	for i := 0; i < 2; i++ {
		c, err := device.CreateTarget(fmt.Sprintf("taa_history_color_%d", i), extent, renderer.FormatRGBA16Float)
		if err != nil {
			return fmt.Errorf("postprocess: %w", err)
		}
		m, err := device.CreateTarget(fmt.Sprintf("taa_history_meta_%d", i), extent, renderer.FormatRG16Float)
		if err != nil {
			return fmt.Errorf("postprocess: %w", err)
		}
		h.color[i], h.meta[i] = c, m
	}
	h.extent = extent
	h.parity = 0
	h.valid = false
	return nil
}

// Current returns the color and meta images being written this frame.
func (h *TemporalHistory) Current() (color, meta *renderer.Target) {
	return h.color[h.parity], h.meta[h.parity]
}

// Previous returns the color and meta images written last frame.
func (h *TemporalHistory) Previous() (color, meta *renderer.Target) {
	return h.color[1-h.parity], h.meta[1-h.parity]
}

// Swap promotes the current images to previous. It is called once per frame before
// the new current images are written.
func (h *TemporalHistory) Swap() {
	h.parity = 1 - h.parity
}

// Parity returns which of the two image pairs is current.
func (h *TemporalHistory) Parity() int { return h.parity }

// Valid reports whether Previous holds a frame that may be reprojected.
func (h *TemporalHistory) Valid() bool { return h.valid }

// Invalidate discards the history, for example after a camera cut.
func (h *TemporalHistory) Invalidate() { h.valid = false }

// Extent returns the size of the images.
func (h *TemporalHistory) Extent() common.Extent { return h.extent }
