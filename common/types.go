// Package common contains plain data types and math helpers shared by every engine package.
// They are not interface-wrapped structs, just value types.
package common

// Color is a linear RGBA color.
type Color = [4]float32

// Extent is the pixel size of a render target or surface.
type Extent struct {
	Width  int
	Height int
}

// IsZero reports whether the extent covers no pixels. A minimized window reports 0x0.
func (e Extent) IsZero() bool {
	return e.Width <= 0 || e.Height <= 0
}

// Aspect returns width / height, or 1 when the extent is empty.
func (e Extent) Aspect() float32 {
	if e.IsZero() {
		return 1
	}
	return float32(e.Width) / float32(e.Height)
}
