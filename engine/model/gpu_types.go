package model

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUObjectConstants is the per-object constant block written into a frame slot.
// Size: 224 bytes (three mat4x4<f32> + two vec4<f32>, std430 aligned).
type GPUObjectConstants struct {
	World     [16]float32 // offset   0: object to world (64 bytes)
	WVP       [16]float32 // offset  64: object to clip this frame (64 bytes)
	PrevWVP   [16]float32 // offset 128: object to clip last frame (64 bytes)
	BaseColor [4]float32  // offset 192: material albedo RGBA (16 bytes)
	Params    [4]float32  // offset 208: metallic, roughness, alpha cutoff, material class (16 bytes)
}

// Size returns the size of the GPUObjectConstants struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUObjectConstants) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUObjectConstants struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 224-byte buffer ready for GPU upload.
func (g *GPUObjectConstants) Marshal() []byte {
	buf := make([]byte, 224)
	off := 0
	put := func(vs []float32) {
		for _, v := range vs {
			binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
			off += 4
		}
	}
	put(g.World[:])
	put(g.WVP[:])
	put(g.PrevWVP[:])
	put(g.BaseColor[:])
	put(g.Params[:])
	return buf
}
