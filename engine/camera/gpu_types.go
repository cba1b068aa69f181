package camera

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUCameraUniform is the GPU-aligned representation of the camera constant block.
// Size: 224 bytes (std140 aligned).
type GPUCameraUniform struct {
	ViewProj       [16]float32 // offset   0: jittered view-projection
	PrevViewProj   [16]float32 // offset  64: previous frame's unjittered view-projection
	InvViewProj    [16]float32 // offset 128: inverse unjittered view-projection
	CameraPosition [3]float32  // offset 192: world-space eye position
	_pad           float32     // offset 204
	Jitter         [2]float32  // offset 208: NDC jitter of this frame
	ScreenSize     [2]float32  // offset 216: target size in pixels
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (224)
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	off := 0
	for _, m := range [3]*[16]float32{&g.ViewProj, &g.PrevViewProj, &g.InvViewProj} {
		for i := range 16 {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(m[i]))
			off += 4
		}
	}
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[192+i*4:], math.Float32bits(g.CameraPosition[i]))
	}
	binary.LittleEndian.PutUint32(buf[204:], 0) // _pad
	binary.LittleEndian.PutUint32(buf[208:], math.Float32bits(g.Jitter[0]))
	binary.LittleEndian.PutUint32(buf[212:], math.Float32bits(g.Jitter[1]))
	binary.LittleEndian.PutUint32(buf[216:], math.Float32bits(g.ScreenSize[0]))
	binary.LittleEndian.PutUint32(buf[220:], math.Float32bits(g.ScreenSize[1]))
	return buf
}
