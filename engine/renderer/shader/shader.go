package shader

import (
	_ "embed"
	"fmt"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
)

// Stage identifies a programmable pipeline stage.
type Stage int

const (
	StageVertex Stage = iota
	StageFragment
	StageCompute
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

func (s Stage) visibility() wgpu.ShaderStage {
	switch s {
	case StageVertex:
		return wgpu.ShaderStageVertex
	case StageFragment:
		return wgpu.ShaderStageFragment
	case StageCompute:
		return wgpu.ShaderStageCompute
	}
	return wgpu.ShaderStageNone
}

//go:embed present.wgsl
var presentSource string

// Present returns the shader that samples a frame texture over a fullscreen triangle.
func Present() Shader {
	s, err := NewShader("Present", presentSource)
	if err != nil {
		panic(err)
	}
	return s
}

type shader struct {
	label       string
	source      string
	entryPoints map[Stage]string
	layouts     map[int]wgpu.BindGroupLayoutDescriptor
	varNames    map[int]map[int]string
}

// Shader is a reflected WGSL module: its entry points and the bind group layouts its
// resource declarations imply.
type Shader interface {
	// Label returns the debug label of the module.
	Label() string

	// Source returns the WGSL source.
	Source() string

	// Module returns the descriptor used to create the shader module on a device.
	Module() *wgpu.ShaderModuleDescriptor

	// EntryPoint returns the function name for the given stage.
	//
	// Parameters:
	//   - stage: the pipeline stage
	//
	// Returns:
	//   - string: the entry point name
	//   - bool: false if the module has no entry point for the stage
	EntryPoint(stage Stage) (string, bool)

	// Groups returns the bind group indices the module declares, in ascending order.
	Groups() []int

	// BindGroupLayout returns the layout descriptor of one group. Every entry is visible to
	// each stage the module has an entry point for.
	BindGroupLayout(group int) wgpu.BindGroupLayoutDescriptor

	// Binding looks up a binding index by the variable name it is declared with.
	//
	// Parameters:
	//   - group: the bind group index
	//   - name: the WGSL variable name
	//
	// Returns:
	//   - int: the binding index, or -1
	//   - bool: true if the variable was found
	Binding(group int, name string) (int, bool)
}

var _ Shader = &shader{}

// NewShader reflects a WGSL source.
//
// Parameters:
//   - label: the debug label
//   - source: the WGSL source
//
// Returns:
//   - Shader: the reflected module
//   - error: an error if the source declares no entry point
func NewShader(label, source string) (Shader, error) {
	cleaned := stripComments(source)
	s := &shader{
		label:       label,
		source:      source,
		entryPoints: make(map[Stage]string),
	}

	var visibility wgpu.ShaderStage
	for _, stage := range []Stage{StageVertex, StageFragment, StageCompute} {
		if name := parseEntryPoint(cleaned, stage); name != "" {
			s.entryPoints[stage] = name
			visibility |= stage.visibility()
		}
	}
	if len(s.entryPoints) == 0 {
		return nil, fmt.Errorf("shader: %s declares no entry point", label)
	}

	s.layouts, s.varNames = parseBindGroupLayouts(cleaned, visibility)
	return s, nil
}

func (s *shader) Label() string {
	return s.label
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return &wgpu.ShaderModuleDescriptor{
		Label: s.label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.source,
		},
	}
}

func (s *shader) EntryPoint(stage Stage) (string, bool) {
	name, ok := s.entryPoints[stage]
	return name, ok
}

func (s *shader) Groups() []int {
	groups := make([]int, 0, len(s.layouts))
	for g := range s.layouts {
		groups = append(groups, g)
	}
	slices.Sort(groups)
	return groups
}

func (s *shader) BindGroupLayout(group int) wgpu.BindGroupLayoutDescriptor {
	return s.layouts[group]
}

func (s *shader) Binding(group int, name string) (int, bool) {
	for binding, n := range s.varNames[group] {
		if n == name {
			return binding, true
		}
	}
	return -1, false
}
