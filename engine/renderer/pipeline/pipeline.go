package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

type pipeline struct {
	label  string
	shader shader.Shader

	targetFormat wgpu.TextureFormat
	blendState   *wgpu.BlendState
	cullMode     wgpu.CullMode
	topology     wgpu.PrimitiveTopology
	frontFace    wgpu.FrontFace
	writeMask    wgpu.ColorWriteMask
}

// Pipeline describes a render pipeline with a single color target and no depth attachment,
// built from one WGSL module that carries both the vertex and the fragment entry point.
type Pipeline interface {
	// Label returns the debug label.
	Label() string

	// Shader returns the reflected module the pipeline is built from.
	Shader() shader.Shader

	// TargetFormat returns the format of the color target.
	TargetFormat() wgpu.TextureFormat

	// Descriptor assembles the render pipeline descriptor for an already created module and
	// layout.
	//
	// Parameters:
	//   - module: the shader module created from Shader().Module()
	//   - layout: the pipeline layout created from the shader's bind group layouts
	//
	// Returns:
	//   - *wgpu.RenderPipelineDescriptor: the descriptor
	//   - error: an error if the shader lacks a vertex or fragment entry point
	Descriptor(module *wgpu.ShaderModule, layout *wgpu.PipelineLayout) (*wgpu.RenderPipelineDescriptor, error)

	// Create builds the GPU objects on device.
	//
	// Parameters:
	//   - device: the device to create on
	//
	// Returns:
	//   - *Compiled: the render pipeline and its bind group layouts
	//   - error: an error from any of the create calls
	Create(device *wgpu.Device) (*Compiled, error)
}

var _ Pipeline = &pipeline{}

// Compiled holds the device objects created for a Pipeline. Layouts is indexed by group.
type Compiled struct {
	Pipeline *wgpu.RenderPipeline
	Layouts  []*wgpu.BindGroupLayout
}

// Release frees the pipeline and its layouts.
func (c *Compiled) Release() {
	if c == nil {
		return
	}
	for _, l := range c.Layouts {
		if l != nil {
			l.Release()
		}
	}
	c.Layouts = nil
	if c.Pipeline != nil {
		c.Pipeline.Release()
		c.Pipeline = nil
	}
}

// NewRenderPipeline creates a Pipeline with opaque output, no culling, a triangle list
// topology and a BGRA8 target unless options say otherwise.
//
// Parameters:
//   - label: the debug label
//   - s: the reflected shader
//   - opts: builder options
//
// Returns:
//   - Pipeline: the pipeline description
func NewRenderPipeline(label string, s shader.Shader, opts ...PipelineBuilderOption) Pipeline {
	if s == nil {
		panic(fmt.Sprintf("pipeline: %s needs a shader", label))
	}
	p := &pipeline{
		label:        label,
		shader:       s,
		targetFormat: wgpu.TextureFormatBGRA8Unorm,
		cullMode:     wgpu.CullModeNone,
		topology:     wgpu.PrimitiveTopologyTriangleList,
		frontFace:    wgpu.FrontFaceCCW,
		writeMask:    wgpu.ColorWriteMaskAll,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Label() string {
	return p.label
}

func (p *pipeline) Shader() shader.Shader {
	return p.shader
}

func (p *pipeline) TargetFormat() wgpu.TextureFormat {
	return p.targetFormat
}

func (p *pipeline) Descriptor(module *wgpu.ShaderModule, layout *wgpu.PipelineLayout) (*wgpu.RenderPipelineDescriptor, error) {
	vs, ok := p.shader.EntryPoint(shader.StageVertex)
	if !ok {
		return nil, fmt.Errorf("pipeline: %s has no vertex entry point", p.label)
	}
	fs, ok := p.shader.EntryPoint(shader.StageFragment)
	if !ok {
		return nil, fmt.Errorf("pipeline: %s has no fragment entry point", p.label)
	}

	return &wgpu.RenderPipelineDescriptor{
		Label:  p.label + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: vs,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: fs,
			Targets: []wgpu.ColorTargetState{{
				Format:    p.targetFormat,
				Blend:     p.blendState,
				WriteMask: p.writeMask,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.topology,
			FrontFace: p.frontFace,
			CullMode:  p.cullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}, nil
}

func (p *pipeline) Create(device *wgpu.Device) (*Compiled, error) {
	module, err := device.CreateShaderModule(p.shader.Module())
	if err != nil {
		return nil, err
	}
	defer module.Release()

	c := &Compiled{}
	groups := p.shader.Groups()
	if len(groups) > 0 {
		c.Layouts = make([]*wgpu.BindGroupLayout, groups[len(groups)-1]+1)
	}
	for _, g := range groups {
		desc := p.shader.BindGroupLayout(g)
		desc.Label = fmt.Sprintf("%s Group %d", p.label, g)
		layout, err := device.CreateBindGroupLayout(&desc)
		if err != nil {
			c.Release()
			return nil, fmt.Errorf("pipeline: bind group layout %d: %w", g, err)
		}
		c.Layouts[g] = layout
	}

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.label,
		BindGroupLayouts: c.Layouts,
	})
	if err != nil {
		c.Release()
		return nil, err
	}
	defer pipelineLayout.Release()

	desc, err := p.Descriptor(module, pipelineLayout)
	if err != nil {
		c.Release()
		return nil, err
	}
	c.Pipeline, err = device.CreateRenderPipeline(desc)
	if err != nil {
		c.Release()
		return nil, err
	}
	return c, nil
}
