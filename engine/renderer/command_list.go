package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// BlendMode selects how a draw combines its output with the target.
type BlendMode int

const (
	// BlendNone overwrites the target.
	BlendNone BlendMode = iota
	// BlendAlpha computes src*a + dst*(1-a) on the first color target.
	BlendAlpha
)

// Fragment is the interpolated surface data handed to a FragmentShader.
type Fragment struct {
	X, Y     int
	Depth    float32
	Position common.Vec3
	Normal   common.Vec3
}

// FragmentShader computes one output per color target. Returning false discards the fragment.
type FragmentShader func(f *Fragment, out []common.Color) bool

// DrawCall rasterizes a mesh into the bound targets.
type DrawCall struct {
	Label          string
	Object         int
	Mesh           *Mesh
	World          common.Mat4
	ViewProjection common.Mat4
	Colors         []*Target
	Depth          *Target
	DepthTest      bool
	DepthWrite     bool
	Blend          BlendMode
	Shade          FragmentShader
}

// Kernel computes the outputs of a full-screen pass at pixel (x, y).
type Kernel func(x, y int, out []common.Color)

// Pass runs a Kernel over every pixel of its outputs. All outputs must share one extent.
type Pass struct {
	Label   string
	Inputs  []*Target
	Outputs []*Target
	Kernel  Kernel
}

type command interface {
	label() string
}

type clearCommand struct {
	target *Target
	value  common.Color
}

type barrierCommand struct {
	target   *Target
	from, to ResourceState
}

type drawCommand struct {
	call DrawCall
}

type passCommand struct {
	pass Pass
}

func (c *clearCommand) label() string   { return "clear " + c.target.label }
func (c *barrierCommand) label() string { return "barrier " + c.target.label }
func (c *drawCommand) label() string    { return "draw " + c.call.Label }
func (c *passCommand) label() string    { return "pass " + c.pass.Label }

// CommandList records work for one frame slot. It is recorded by a single goroutine and
// becomes read-only once submitted until its slot is reacquired.
type CommandList struct {
	name      string
	commands  []command
	drawCount int
	passCount int
}

// NewCommandList creates an empty command list.
//
// Parameters:
//   - name: debug name
//
// Returns:
//   - *CommandList: the command list
func NewCommandList(name string) *CommandList {
	return &CommandList{name: name, commands: make([]command, 0, 64)}
}

// Name returns the debug name.
func (c *CommandList) Name() string { return c.name }

// Reset drops every recorded command so the list can be reused.
func (c *CommandList) Reset() {
	clear(c.commands)
	c.commands = c.commands[:0]
	c.drawCount = 0
	c.passCount = 0
}

// Len returns the number of recorded commands.
func (c *CommandList) Len() int { return len(c.commands) }

// DrawCount returns the number of recorded draw calls.
func (c *CommandList) DrawCount() int { return c.drawCount }

// PassCount returns the number of recorded full-screen passes.
func (c *CommandList) PassCount() int { return c.passCount }

// Empty reports whether nothing has been recorded.
func (c *CommandList) Empty() bool { return len(c.commands) == 0 }

// Barrier transitions t to a new state. Redundant transitions are not recorded.
//
// Parameters:
//   - t: the target
//   - to: the state the following commands need
func (c *CommandList) Barrier(t *Target, to ResourceState) {
	if t.state == to {
		return
	}
	c.commands = append(c.commands, &barrierCommand{target: t, from: t.state, to: to})
	t.state = to
}

// Require checks that t was transitioned to want. With Debug set a mismatch panics;
// otherwise it returns false and recording continues.
//
// Parameters:
//   - t: the target
//   - want: the required state
//
// Returns:
//   - bool: true when the state matches
func (c *CommandList) Require(t *Target, want ResourceState) bool {
	if t.state == want {
		return true
	}
	if Debug {
		panic(fmt.Sprintf("renderer: %s: target %q is %s, need %s", c.name, t.label, t.state, want))
	}
	return false
}

// Clear fills t with value. t must be a render target or depth target.
func (c *CommandList) Clear(t *Target, value common.Color) {
	if t.format.IsDepth() {
		c.Require(t, StateDepthWrite)
	} else {
		c.Require(t, StateRenderTarget)
	}
	c.commands = append(c.commands, &clearCommand{target: t, value: value})
}

// Draw records a draw call. Color targets must be in StateRenderTarget and the depth
// target in StateDepthWrite.
func (c *CommandList) Draw(d DrawCall) {
	if d.Mesh == nil || d.Shade == nil {
		return
	}
	for _, t := range d.Colors {
		c.Require(t, StateRenderTarget)
	}
	if d.Depth != nil {
		c.Require(d.Depth, StateDepthWrite)
	}
	c.commands = append(c.commands, &drawCommand{call: d})
	c.drawCount++
}

// Fullscreen records a full-screen pass. Inputs must be in StateShaderRead and outputs in
// StateRenderTarget. Passes whose outputs cover no pixels are dropped.
func (c *CommandList) Fullscreen(p Pass) {
	if len(p.Outputs) == 0 || p.Outputs[0].Extent().IsZero() || p.Kernel == nil {
		return
	}
	for _, t := range p.Inputs {
		c.Require(t, StateShaderRead)
	}
	for _, t := range p.Outputs {
		c.Require(t, StateRenderTarget)
	}
	c.commands = append(c.commands, &passCommand{pass: p})
	c.passCount++
}

// Labels returns a description of each recorded command, for diagnostics.
func (c *CommandList) Labels() []string {
	out := make([]string, len(c.commands))
	for i, cmd := range c.commands {
		out[i] = cmd.label()
	}
	return out
}
