package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-deferred/engine"
)

// captureImage copies read back rows into a tightly packed image.
func captureImage(c engine.Capture) (*image.RGBA, error) {
	w, h := c.Extent.Width, c.Extent.Height
	if c.RowPitch < w*4 || len(c.Pixels) < c.RowPitch*h {
		return nil, fmt.Errorf("capture of %dx%d has %d bytes at pitch %d", w, h, len(c.Pixels), c.RowPitch)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+w*4], c.Pixels[y*c.RowPitch:])
	}
	return img, nil
}

// writeScreenshot encodes c as a PNG file, creating parent directories as needed.
func writeScreenshot(path string, c engine.Capture) error {
	img, err := captureImage(c)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Noticef("frame %d written to %s (%dx%d)", c.Frame, path, c.Extent.Width, c.Extent.Height)
	return nil
}
