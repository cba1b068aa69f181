package light

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPULight is the constant block for the directional light.
// Size: 48 bytes (std140 aligned).
//
// Layout:
//
//	vec3<f32> direction     (12 bytes, offset  0)
//	u32       casts_shadows ( 4 bytes, offset 12)
//	vec3<f32> radiance      (12 bytes, offset 16)
//	u32       ibl           ( 4 bytes, offset 28)
//	vec3<f32> ambient       (12 bytes, offset 32)
//	f32       shadow_bias   ( 4 bytes, offset 44)
type GPULight struct {
	Direction    [3]float32
	CastsShadows uint32
	Radiance     [3]float32
	IBL          uint32
	Ambient      [3]float32
	ShadowBias   float32
}

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (48)
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, 48)
	putVec3(buf[0:12], g.Direction)
	binary.LittleEndian.PutUint32(buf[12:16], g.CastsShadows)
	putVec3(buf[16:28], g.Radiance)
	binary.LittleEndian.PutUint32(buf[28:32], g.IBL)
	putVec3(buf[32:44], g.Ambient)
	binary.LittleEndian.PutUint32(buf[44:48], math.Float32bits(g.ShadowBias))
	return buf
}

// ToGPULight converts a light snapshot into its constant block.
//
// Parameters:
//   - p: the light parameters
//
// Returns:
//   - GPULight: the GPU-aligned representation
func ToGPULight(p Params) GPULight {
	g := GPULight{
		Direction:  p.Direction,
		Radiance:   p.Radiance,
		Ambient:    p.Ambient,
		ShadowBias: DefaultShadowBias,
	}
	if p.CastsShadows {
		g.CastsShadows = 1
	}
	if p.IBL {
		g.IBL = 1
	}
	return g
}

// GPUCascadeData holds what the shading pass needs to pick a cascade and sample it.
// Positions are taken into shadow view space once; each cascade is then a scale and
// offset away.
// Size: 272 bytes (std140 aligned).
//
// Layout:
//
//	vec4<f32> cascade_offset[8] (128 bytes, offset   0)
//	vec4<f32> cascade_scale[8]  (128 bytes, offset 128) w holds the cascade's far depth
//	vec2<f32> border_padding    (  8 bytes, offset 256)
//	f32       partition_size    (  4 bytes, offset 264)
//	f32       blend_area        (  4 bytes, offset 268)
type GPUCascadeData struct {
	CascadeOffset [MaxCascades][4]float32
	CascadeScale  [MaxCascades][4]float32
	BorderPadding [2]float32
	PartitionSize float32
	BlendArea     float32
}

// Size returns the size of the GPUCascadeData struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (272)
func (g *GPUCascadeData) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCascadeData struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 272-byte buffer ready for GPU upload
func (g *GPUCascadeData) Marshal() []byte {
	buf := make([]byte, 272)
	off := 0
	for _, rows := range [2]*[MaxCascades][4]float32{&g.CascadeOffset, &g.CascadeScale} {
		for i := range rows {
			for k := 0; k < 4; k++ {
				binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(rows[i][k]))
				off += 4
			}
		}
	}
	binary.LittleEndian.PutUint32(buf[256:260], math.Float32bits(g.BorderPadding[0]))
	binary.LittleEndian.PutUint32(buf[260:264], math.Float32bits(g.BorderPadding[1]))
	binary.LittleEndian.PutUint32(buf[264:268], math.Float32bits(g.PartitionSize))
	binary.LittleEndian.PutUint32(buf[268:272], math.Float32bits(g.BlendArea))
	return buf
}

// GPUShadowUniform is the per-cascade constant block of the shadow depth pass.
// Size: 64 bytes (mat4x4<f32>).
type GPUShadowUniform struct {
	LightVP [16]float32 // cascade view-projection
}

// Size returns the size of the GPUShadowUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (u *GPUShadowUniform) Size() int {
	return int(unsafe.Sizeof(*u))
}

// Marshal serializes the GPUShadowUniform struct into a byte buffer suitable for
// GPU uniform upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload
func (u *GPUShadowUniform) Marshal() []byte {
	buf := make([]byte, 64)
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(u.LightVP[i]))
	}
	return buf
}

func putVec3(dst []byte, v [3]float32) {
	for i := 0; i < 3; i++ {
		binary.LittleEndian.PutUint32(dst[i*4:(i+1)*4], math.Float32bits(v[i]))
	}
}
