package model

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// ErrUnresolvedMesh is returned when a mesh reference names a mesh the table does not hold.
var ErrUnresolvedMesh = errors.New("model: unresolved mesh reference")

// MaterialClass selects the render queue an object is drawn in.
type MaterialClass int

const (
	// ClassOpaque objects are written to the GBuffer.
	ClassOpaque MaterialClass = iota
	// ClassAlphaTested objects are written to the GBuffer with a coverage test.
	ClassAlphaTested
	// ClassAlphaBlended objects are shaded in the forward pass back to front.
	ClassAlphaBlended
)

// ParseMaterialClass maps a scene document class name to a MaterialClass.
func ParseMaterialClass(s string) (MaterialClass, error) {
	switch s {
	case "", "opaque":
		return ClassOpaque, nil
	case "alpha-tested", "cutout":
		return ClassAlphaTested, nil
	case "alpha", "alpha-blended", "transparent":
		return ClassAlphaBlended, nil
	}
	return 0, fmt.Errorf("model: unknown material class %q", s)
}

func (c MaterialClass) String() string {
	switch c {
	case ClassAlphaTested:
		return "alpha-tested"
	case ClassAlphaBlended:
		return "alpha-blended"
	default:
		return "opaque"
	}
}

// Blended reports whether the class is drawn in the forward alpha pass.
func (c MaterialClass) Blended() bool { return c == ClassAlphaBlended }

// Material holds the surface parameters used by the GBuffer and forward passes.
type Material struct {
	// Name is the material identifier.
	Name string

	// BaseColor is the albedo as RGBA. Alpha is opacity for blended objects
	// and the coverage value for alpha-tested ones.
	BaseColor common.Color

	// Metallic is 0 for dielectrics and 1 for metals.
	Metallic float32

	// Roughness is 0 for a mirror and 1 for a fully rough surface.
	Roughness float32

	// AlphaCutoff discards alpha-tested fragments whose coverage is below it.
	AlphaCutoff float32
}

// DefaultMaterial is a mid-gray rough dielectric.
var DefaultMaterial = Material{
	Name:        "default",
	BaseColor:   common.Color{0.7, 0.7, 0.7, 1},
	Roughness:   0.6,
	AlphaCutoff: 0.5,
}

// MeshRef identifies a mesh. A reference built from a document carries only a name;
// Resolve turns it into an index into the owning MeshTable. Draw code only ever sees
// resolved references.
type MeshRef struct {
	name  string
	index int
}

// NamedMesh returns an unresolved reference to the mesh called name.
func NamedMesh(name string) MeshRef {
	return MeshRef{name: name, index: -1}
}

// Name returns the referenced mesh name.
func (r MeshRef) Name() string { return r.name }

// Index returns the table index and whether the reference has been resolved.
func (r MeshRef) Index() (int, bool) {
	return r.index, r.index >= 0
}

// MeshTable owns every mesh a scene uses, indexed by insertion order.
type MeshTable struct {
	meshes []*renderer.Mesh
	byName map[string]int
}

// NewMeshTable creates an empty table.
func NewMeshTable() *MeshTable {
	return &MeshTable{byName: make(map[string]int)}
}

// Add registers m under its label and returns a resolved reference to it.
// Adding a label twice replaces nothing and returns the existing reference.
func (t *MeshTable) Add(m *renderer.Mesh) MeshRef {
	if i, ok := t.byName[m.Label]; ok {
		return MeshRef{name: m.Label, index: i}
	}
	t.meshes = append(t.meshes, m)
	t.byName[m.Label] = len(t.meshes) - 1
	return MeshRef{name: m.Label, index: len(t.meshes) - 1}
}

// Resolve converts a named reference into an indexed one.
//
// Parameters:
//   - r: the reference
//
// Returns:
//   - MeshRef: the resolved reference
//   - error: ErrUnresolvedMesh if no mesh has that name
func (t *MeshTable) Resolve(r MeshRef) (MeshRef, error) {
	if i, ok := r.Index(); ok && i < len(t.meshes) {
		return r, nil
	}
	i, ok := t.byName[r.name]
	if !ok {
		return r, fmt.Errorf("%w: %q", ErrUnresolvedMesh, r.name)
	}
	return MeshRef{name: r.name, index: i}, nil
}

// Mesh returns the mesh behind a resolved reference, or nil.
func (t *MeshTable) Mesh(r MeshRef) *renderer.Mesh {
	i, ok := r.Index()
	if !ok || i >= len(t.meshes) {
		return nil
	}
	return t.meshes[i]
}

// Len returns the number of meshes.
func (t *MeshTable) Len() int { return len(t.meshes) }

// GeometryBatch is the immutable per-object record produced at load time.
type GeometryBatch struct {
	// Name is the object identifier.
	Name string

	// Bounds is the world-space bounding volume. For animated objects it covers the
	// whole motion.
	Bounds common.BoundingVolume

	// Transform places the mesh in the world.
	Transform common.Mat4

	// Class selects the render queue.
	Class MaterialClass

	// Material holds the surface parameters.
	Material Material

	// Mesh references the mesh in the scene's MeshTable.
	Mesh MeshRef

	// CastsShadow includes the object in the shadow map passes.
	CastsShadow bool
}

// --- Animation Types ---

// VectorKeyframe stores a 3D vector value at a specific time.
type VectorKeyframe struct {
	// Time is the keyframe timestamp in seconds.
	Time float32

	// Value is the 3D vector value at this keyframe.
	Value common.Vec3
}

// ScalarKeyframe stores a single value at a specific time.
type ScalarKeyframe struct {
	// Time is the keyframe timestamp in seconds.
	Time float32

	// Value is the value at this keyframe.
	Value float32
}

// RootTrack animates a character's root position and heading. Keys must be sorted by time.
type RootTrack struct {
	// PositionKeys are keyframes for the root translation.
	PositionKeys []VectorKeyframe

	// YawKeys are keyframes for the heading around +Y, in radians.
	YawKeys []ScalarKeyframe

	// Loop wraps sampling time by the track duration.
	Loop bool
}

// BoneLink attaches a mesh to a named bone of a character.
type BoneLink struct {
	// Bone is the bone name.
	Bone string

	// Mesh references the attached mesh.
	Mesh MeshRef

	// Offset is the bone position relative to the character root.
	Offset common.Vec3
}
