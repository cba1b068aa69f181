package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/chewxy/math32"
)

// Kind tags the Renderable variant chosen when an object is created.
type Kind int

const (
	// KindStatic is a fixed mesh placed by its batch transform.
	KindStatic Kind = iota
	// KindCharacter is a mesh driven by a root track, with meshes linked to its bones.
	KindCharacter
)

func (k Kind) String() string {
	if k == KindCharacter {
		return "character"
	}
	return "static"
}

// DrawItem is one mesh draw produced by a Renderable.
type DrawItem struct {
	Object   int
	Name     string
	Mesh     *renderer.Mesh
	Material Material
	Class    MaterialClass

	// World places the mesh this frame.
	World common.Mat4

	// Reproject maps a world position of this frame to the object's clip position in
	// the previous frame, for motion vectors.
	Reproject common.Mat4
}

// Pass receives the draws a Renderable issues.
type Pass interface {
	// Draw records one mesh draw.
	//
	// Parameters:
	//   - cmd: the command list being recorded
	//   - item: the draw
	Draw(cmd *renderer.CommandList, item DrawItem)
}

// MatrixState holds the current and previous frame matrices of an object.
type MatrixState struct {
	World     common.Mat4
	PrevWorld common.Mat4
	WVP       common.Mat4
	PrevWVP   common.Mat4
	valid     bool
}

// Advance starts a new frame with the given world and view-projection matrices. On the
// first frame the previous matrices equal the current ones.
//
// Parameters:
//   - world: the object's world matrix this frame
//   - viewProj: the unjittered camera view-projection this frame
func (s *MatrixState) Advance(world, viewProj common.Mat4) {
	wvp := common.Mul(viewProj, world)
	if s.valid {
		s.PrevWorld = s.World
		s.PrevWVP = s.WVP
	} else {
		s.PrevWorld = world
		s.PrevWVP = wvp
		s.valid = true
	}
	s.World = world
	s.WVP = wvp
}

// Reproject returns PrevWVP * World⁻¹.
func (s *MatrixState) Reproject() common.Mat4 {
	return common.Mul(s.PrevWVP, common.Inverse(s.World))
}

// Renderable is the capability set every drawable object provides.
type Renderable interface {
	// Name retrieves the object identifier.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Kind reports which variant this object is.
	//
	// Returns:
	//   - Kind: the variant tag
	Kind() Kind

	// Index returns the object index used in draw queues.
	//
	// Returns:
	//   - int: the index
	Index() int

	// Bounds returns the world-space bounds used for culling. Animated objects return
	// bounds covering their whole motion so a static spatial index stays valid.
	//
	// Returns:
	//   - common.BoundingVolume: the bounds
	Bounds() common.BoundingVolume

	// Class returns the render queue class.
	//
	// Returns:
	//   - MaterialClass: the class
	Class() MaterialClass

	// CastsShadow reports whether the object is drawn into the shadow maps.
	//
	// Returns:
	//   - bool: true if the object casts a shadow
	CastsShadow() bool

	// Update advances animation to scene time t.
	//
	// Parameters:
	//   - t: scene time in seconds
	Update(t float32)

	// SetMatrices starts a new frame of matrices for the given camera.
	//
	// Parameters:
	//   - viewProj: the unjittered camera view-projection
	SetMatrices(viewProj common.Mat4)

	// Matrices returns the current matrix state.
	//
	// Returns:
	//   - MatrixState: the matrices
	Matrices() MatrixState

	// Render issues the object's draws into pass.
	//
	// Parameters:
	//   - cmd: the command list being recorded
	//   - pass: the receiving pass
	Render(cmd *renderer.CommandList, pass Pass)

	// Constants returns the per-object constant block for this frame.
	//
	// Returns:
	//   - GPUObjectConstants: the constants
	Constants() GPUObjectConstants
}

// staticModel draws one mesh at its batch transform.
type staticModel struct {
	index    int
	batch    GeometryBatch
	mesh     *renderer.Mesh
	matrices MatrixState
}

// character draws a root-animated mesh and the meshes linked to its bones.
type character struct {
	staticModel
	track  RootTrack
	links  []linkedMesh
	bounds common.BoundingVolume
	world  common.Mat4
}

type linkedMesh struct {
	bone   string
	mesh   *renderer.Mesh
	offset common.Mat4
}

var _ Renderable = &staticModel{}
var _ Renderable = &character{}

// New creates the Renderable variant matching the options: a character when a root
// track or bone links are given, a static model otherwise.
//
// Parameters:
//   - index: the object index used in draw queues
//   - batch: the object's geometry record
//   - meshes: the table batch.Mesh and any bone link meshes resolve against
//   - options: a variadic list of ModelBuilderOption functions
//
// Returns:
//   - Renderable: the object
//   - error: ErrUnresolvedMesh if a mesh reference cannot be resolved
func New(index int, batch GeometryBatch, meshes *MeshTable, options ...ModelBuilderOption) (Renderable, error) {
	cfg := &modelConfig{}
	for _, opt := range options {
		opt(cfg)
	}

	ref, err := meshes.Resolve(batch.Mesh)
	if err != nil {
		return nil, fmt.Errorf("object %q: %w", batch.Name, err)
	}
	batch.Mesh = ref
	base := staticModel{index: index, batch: batch, mesh: meshes.Mesh(ref)}

	if cfg.track == nil && len(cfg.links) == 0 {
		return &base, nil
	}

	c := &character{staticModel: base, world: batch.Transform}
	if cfg.track != nil {
		c.track = *cfg.track
	}
	for _, l := range cfg.links {
		lref, err := meshes.Resolve(l.Mesh)
		if err != nil {
			return nil, fmt.Errorf("character %q bone %q: %w", batch.Name, l.Bone, err)
		}
		c.links = append(c.links, linkedMesh{
			bone:   l.Bone,
			mesh:   meshes.Mesh(lref),
			offset: common.Translation(l.Offset[0], l.Offset[1], l.Offset[2]),
		})
	}
	c.bounds = c.sweptBounds()
	c.Update(0)
	return c, nil
}

func (m *staticModel) Name() string                  { return m.batch.Name }
func (m *staticModel) Kind() Kind                    { return KindStatic }
func (m *staticModel) Index() int                    { return m.index }
func (m *staticModel) Bounds() common.BoundingVolume { return m.batch.Bounds }
func (m *staticModel) Class() MaterialClass          { return m.batch.Class }
func (m *staticModel) CastsShadow() bool             { return m.batch.CastsShadow }
func (m *staticModel) Update(float32)                {}
func (m *staticModel) Matrices() MatrixState         { return m.matrices }
func (m *staticModel) SetMatrices(viewProj common.Mat4) {
	m.matrices.Advance(m.batch.Transform, viewProj)
}

func (m *staticModel) Render(cmd *renderer.CommandList, pass Pass) {
	if m.mesh == nil {
		return
	}
	pass.Draw(cmd, m.item(m.mesh, m.matrices.World, m.matrices.Reproject()))
}

func (m *staticModel) Constants() GPUObjectConstants {
	return GPUObjectConstants{
		World:     m.matrices.World,
		WVP:       m.matrices.WVP,
		PrevWVP:   m.matrices.PrevWVP,
		BaseColor: m.batch.Material.BaseColor,
		Params: [4]float32{
			m.batch.Material.Metallic,
			m.batch.Material.Roughness,
			m.batch.Material.AlphaCutoff,
			float32(m.batch.Class),
		},
	}
}

func (m *staticModel) item(mesh *renderer.Mesh, world, reproject common.Mat4) DrawItem {
	return DrawItem{
		Object:    m.index,
		Name:      m.batch.Name,
		Mesh:      mesh,
		Material:  m.batch.Material,
		Class:     m.batch.Class,
		World:     world,
		Reproject: reproject,
	}
}

func (c *character) Kind() Kind                    { return KindCharacter }
func (c *character) Bounds() common.BoundingVolume { return c.bounds }

func (c *character) Update(t float32) {
	pos, yaw := c.track.Sample(t)
	var root common.Mat4
	common.BuildModelMatrix(root[:], pos[0], pos[1], pos[2], 0, yaw, 0, 1, 1, 1)
	c.world = common.Mul(root, c.batch.Transform)
}

func (c *character) SetMatrices(viewProj common.Mat4) {
	c.matrices.Advance(c.world, viewProj)
}

func (c *character) Render(cmd *renderer.CommandList, pass Pass) {
	reproject := c.matrices.Reproject()
	if c.mesh != nil {
		pass.Draw(cmd, c.item(c.mesh, c.matrices.World, reproject))
	}
	for _, l := range c.links {
		if l.mesh == nil {
			continue
		}
		// The link offset is constant, so the body's reprojection applies unchanged.
		pass.Draw(cmd, c.item(l.mesh, common.Mul(c.matrices.World, l.offset), reproject))
	}
}

// sweptBounds covers the body and linked meshes at every heading and every position
// along the root track.
func (c *character) sweptBounds() common.BoundingVolume {
	var local common.BoundingVolume
	first := true
	add := func(b common.BoundingVolume) {
		if first {
			local, first = b, false
			return
		}
		local = local.Union(b)
	}
	if c.mesh != nil {
		add(c.mesh.Bounds().Transform(c.batch.Transform))
	}
	for _, l := range c.links {
		if l.mesh != nil {
			add(l.mesh.Bounds().Transform(common.Mul(c.batch.Transform, l.offset)))
		}
	}
	if first {
		return c.batch.Bounds
	}

	// Yaw only rotates about +Y, so a cylinder around the root axis holds every heading.
	var radius float32
	for _, p := range local.Corners() {
		radius = math32.Max(radius, math32.Hypot(p[0], p[2]))
	}
	lo, hi := local.Min(), local.Max()
	spun := common.BoundsFromMinMax(common.Vec3{-radius, lo[1], -radius}, common.Vec3{radius, hi[1], radius})

	positions := c.track.Positions()
	if len(positions) == 0 {
		positions = []common.Vec3{{}}
	}
	out := common.NewBoundingVolume(common.Add3(spun.Center, positions[0]), spun.Extents)
	for _, p := range positions[1:] {
		out = out.Union(common.NewBoundingVolume(common.Add3(spun.Center, p), spun.Extents))
	}
	return out
}
