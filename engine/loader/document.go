package loader

import "github.com/Carmen-Shannon/oxy-deferred/common"

// Document is a decoded scene description. Rotations are Euler angles in degrees.
type Document struct {
	Name       string              `yaml:"name" json:"name"`
	Meshes     map[string]MeshSpec `yaml:"meshes" json:"meshes"`
	Objects    []ObjectSpec        `yaml:"objects" json:"objects"`
	Characters []CharacterSpec     `yaml:"characters" json:"characters"`
	Lighting   LightingSpec        `yaml:"lighting" json:"lighting"`
	Global     GlobalSpec          `yaml:"global" json:"global"`
}

// MeshSpec describes a mesh by primitive shape. File names a mesh binary, which is not
// parsed: the mesh is replaced by a box of Extents.
type MeshSpec struct {
	Primitive string       `yaml:"primitive" json:"primitive"`
	Extents   *common.Vec3 `yaml:"extents" json:"extents"`
	Radius    float32      `yaml:"radius" json:"radius"`
	Rings     int          `yaml:"rings" json:"rings"`
	Segments  int          `yaml:"segments" json:"segments"`
	File      string       `yaml:"file" json:"file"`
}

// MaterialSpec holds the optional surface parameters of an object.
type MaterialSpec struct {
	Name        string    `yaml:"name" json:"name"`
	BaseColor   []float32 `yaml:"base_color" json:"base_color"`
	Metallic    *float32  `yaml:"metallic" json:"metallic"`
	Roughness   *float32  `yaml:"roughness" json:"roughness"`
	AlphaCutoff *float32  `yaml:"alpha_cutoff" json:"alpha_cutoff"`
}

// BoundsSpec is an explicit world-space bounding box.
type BoundsSpec struct {
	Center  common.Vec3 `yaml:"center" json:"center"`
	Extents common.Vec3 `yaml:"extents" json:"extents"`
}

// ObjectSpec places a static mesh in the world.
type ObjectSpec struct {
	Name        string       `yaml:"name" json:"name"`
	Mesh        string       `yaml:"mesh" json:"mesh"`
	Position    common.Vec3  `yaml:"position" json:"position"`
	Rotation    common.Vec3  `yaml:"rotation" json:"rotation"`
	Scale       *common.Vec3 `yaml:"scale" json:"scale"`
	Bounds      *BoundsSpec  `yaml:"bounds" json:"bounds"`
	Class       string       `yaml:"class" json:"class"`
	Material    MaterialSpec `yaml:"material" json:"material"`
	CastsShadow *bool        `yaml:"casts_shadow" json:"casts_shadow"`
}

// BoneLinkSpec attaches a mesh to a named bone.
type BoneLinkSpec struct {
	Bone   string      `yaml:"bone" json:"bone"`
	Mesh   string      `yaml:"mesh" json:"mesh"`
	Offset common.Vec3 `yaml:"offset" json:"offset"`
}

// VectorKeySpec is a timed position.
type VectorKeySpec struct {
	Time  float32     `yaml:"time" json:"time"`
	Value common.Vec3 `yaml:"value" json:"value"`
}

// ScalarKeySpec is a timed angle in degrees.
type ScalarKeySpec struct {
	Time  float32 `yaml:"time" json:"time"`
	Value float32 `yaml:"value" json:"value"`
}

// TrackSpec is a keyframed root animation.
type TrackSpec struct {
	Loop      bool            `yaml:"loop" json:"loop"`
	Positions []VectorKeySpec `yaml:"positions" json:"positions"`
	Yaw       []ScalarKeySpec `yaml:"yaw" json:"yaw"`
}

// CharacterSpec describes an animated object. Animation names an animation binary,
// which is not parsed; the root track drives the motion.
type CharacterSpec struct {
	Name        string         `yaml:"name" json:"name"`
	Mesh        string         `yaml:"mesh" json:"mesh"`
	Animation   string         `yaml:"animation" json:"animation"`
	Position    common.Vec3    `yaml:"position" json:"position"`
	Rotation    common.Vec3    `yaml:"rotation" json:"rotation"`
	Scale       *common.Vec3   `yaml:"scale" json:"scale"`
	Class       string         `yaml:"class" json:"class"`
	Material    MaterialSpec   `yaml:"material" json:"material"`
	CastsShadow *bool          `yaml:"casts_shadow" json:"casts_shadow"`
	Bones       []BoneLinkSpec `yaml:"bones" json:"bones"`
	Track       TrackSpec      `yaml:"track" json:"track"`
}

// LightingSpec configures the directional light.
type LightingSpec struct {
	Direction    *common.Vec3 `yaml:"direction" json:"direction"`
	Color        []float32    `yaml:"color" json:"color"`
	Intensity    *float32     `yaml:"intensity" json:"intensity"`
	Ambient      []float32    `yaml:"ambient" json:"ambient"`
	CastsShadows *bool        `yaml:"casts_shadows" json:"casts_shadows"`
}

// GlobalSpec holds scene-wide settings. Focus and ViewDistance place the initial camera.
type GlobalSpec struct {
	IBL          *bool        `yaml:"ibl" json:"ibl"`
	Focus        *common.Vec3 `yaml:"focus" json:"focus"`
	ViewDistance float32      `yaml:"view_distance" json:"view_distance"`
}
