package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorDefaults(t *testing.T) {
	p := NewRenderPipeline("Present", shader.Present())
	assert.Equal(t, "Present", p.Label())
	assert.Equal(t, wgpu.TextureFormatBGRA8Unorm, p.TargetFormat())

	desc, err := p.Descriptor(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "vs_present", desc.Vertex.EntryPoint)
	assert.Empty(t, desc.Vertex.Buffers)
	require.NotNil(t, desc.Fragment)
	assert.Equal(t, "fs_present", desc.Fragment.EntryPoint)
	require.Len(t, desc.Fragment.Targets, 1)
	assert.Nil(t, desc.Fragment.Targets[0].Blend)
	assert.Equal(t, wgpu.ColorWriteMaskAll, desc.Fragment.Targets[0].WriteMask)
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, desc.Primitive.Topology)
	assert.Equal(t, wgpu.CullModeNone, desc.Primitive.CullMode)
	assert.Nil(t, desc.DepthStencil)
	assert.Equal(t, uint32(1), desc.Multisample.Count)
}

func TestDescriptorOptions(t *testing.T) {
	p := NewRenderPipeline("Overlay", shader.Present(),
		WithTargetFormat(wgpu.TextureFormatRGBA8Unorm),
		WithAlphaBlending(),
		WithCullMode(wgpu.CullModeBack),
		WithFrontFace(wgpu.FrontFaceCW),
		WithTopology(wgpu.PrimitiveTopologyTriangleStrip),
		WithWriteMask(wgpu.ColorWriteMaskRed|wgpu.ColorWriteMaskGreen),
	)
	desc, err := p.Descriptor(nil, nil)
	require.NoError(t, err)

	target := desc.Fragment.Targets[0]
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, target.Format)
	require.NotNil(t, target.Blend)
	assert.Equal(t, wgpu.BlendFactorSrcAlpha, target.Blend.Color.SrcFactor)
	assert.Equal(t, wgpu.ColorWriteMaskRed|wgpu.ColorWriteMaskGreen, target.WriteMask)
	assert.Equal(t, wgpu.CullModeBack, desc.Primitive.CullMode)
	assert.Equal(t, wgpu.FrontFaceCW, desc.Primitive.FrontFace)
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleStrip, desc.Primitive.Topology)
}

func TestDescriptorNeedsBothStages(t *testing.T) {
	s, err := shader.NewShader("cull", "@compute @workgroup_size(64) fn main() {}")
	require.NoError(t, err)

	_, err = NewRenderPipeline("Cull", s).Descriptor(nil, nil)
	assert.Error(t, err)
}

func TestNilShaderPanics(t *testing.T) {
	assert.Panics(t, func() { NewRenderPipeline("none", nil) })
}
