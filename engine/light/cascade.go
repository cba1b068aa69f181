package light

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/log"
	"github.com/chewxy/math32"
)

var shadowLog = log.New("shadow")

// ErrTooManyCascades is returned by Init when the cascade count is outside 1..MaxCascades.
var ErrTooManyCascades = errors.New("light: cascade count out of range")

// Cascade is one orthographic shadow projection covering a depth slice of the view.
type Cascade struct {
	// ViewProjection maps world space to this cascade's clip space.
	ViewProjection common.Mat4

	// Projection is the orthographic part; ViewProjection = Projection * CascadeSet.ShadowView.
	Projection common.Mat4

	// Near and Far bound the view depth slice the cascade covers.
	Near, Far float32

	// Origin is the light-space xy minimum of the box, snapped to the texel grid.
	Origin [2]float32

	// Size is the light-space xy extent of the box.
	Size [2]float32

	// TexelSize is the world size of one shadow map texel, Size / resolution.
	TexelSize [2]float32

	// Scale and Offset map shadow view space to this cascade's clip space
	// (clip = view*Scale + Offset).
	Scale  [3]float32
	Offset [3]float32

	// BlendWidth is the view depth range, ending at Far, blended into the next cascade.
	BlendWidth float32
}

// CascadeSet is a snapshot of every cascade for one frame.
type CascadeSet struct {
	Cascades       []Cascade
	ShadowView     common.Mat4
	LightDirection common.Vec3
	MapSize        int
	BlendArea      float32
}

// Empty reports whether the set casts no shadow. Shading then applies no shadow term.
func (s CascadeSet) Empty() bool { return len(s.Cascades) == 0 }

// Len returns the number of cascades.
func (s CascadeSet) Len() int { return len(s.Cascades) }

// Splits returns the far depth of every cascade. The last equals the view's far plane.
func (s CascadeSet) Splits() []float32 {
	out := make([]float32, len(s.Cascades))
	for i, c := range s.Cascades {
		out[i] = c.Far
	}
	return out
}

// cascadeManagerImpl is the implementation of the CascadeManager interface.
type cascadeManagerImpl struct {
	numCascades   int
	shadowMapSize float32
	splitBlend    float32
	blendArea     float32

	sceneBounds common.BoundingVolume
	lightDir    common.Vec3
	shadowView  common.Mat4
	cascades    [MaxCascades]Cascade
	active      bool
}

// CascadeManager fits cascaded shadow projections for a directional light to the view.
type CascadeManager interface {
	// Init sizes the manager. The scene bounds default to a cube of side sceneMapSize
	// around the origin until SetSceneBounds is called.
	//
	// Parameters:
	//   - sceneMapSize: the side of the default scene cube in world units
	//   - shadowMapSize: each cascade's shadow map resolution in texels
	//   - numCascades: the cascade count, 1..MaxCascades
	//
	// Returns:
	//   - error: ErrTooManyCascades when numCascades is out of range
	Init(sceneMapSize, shadowMapSize float32, numCascades int) error

	// SetSceneBounds sets the world box every cascade is clipped to.
	//
	// Parameters:
	//   - b: the scene bounds
	SetSceneBounds(b common.BoundingVolume)

	// SceneBounds returns the world box cascades are clipped to.
	//
	// Returns:
	//   - common.BoundingVolume: the bounds
	SceneBounds() common.BoundingVolume

	// Update refits every cascade. The light direction must not be parallel to the
	// up vector StableUp picks for it. A zero direction or a depth range without
	// 0 < near < far leaves the set empty.
	//
	// Parameters:
	//   - view: the camera view matrix
	//   - projection: the unjittered camera perspective projection
	//   - near, far: the camera clip distances the splits partition
	//   - lightDirection: the direction the light travels
	Update(view, projection common.Mat4, near, far float32, lightDirection common.Vec3)

	// ShadowMatrices returns a snapshot of the cascades. It has no side effects.
	//
	// Returns:
	//   - CascadeSet: the cascades
	ShadowMatrices() CascadeSet

	// NumCascades returns the cascade count set by Init.
	//
	// Returns:
	//   - int: the count
	NumCascades() int

	// ShadowMapSize returns each cascade's shadow map resolution in texels.
	//
	// Returns:
	//   - int: the resolution
	ShadowMapSize() int

	// GPUData returns the constant block shaders use to select and sample cascades.
	//
	// Returns:
	//   - GPUCascadeData: the constants
	GPUData() GPUCascadeData
}

var _ CascadeManager = &cascadeManagerImpl{}

// NewCascadeManager creates a CascadeManager. Call Init before Update.
//
// Parameters:
//   - options: variadic list of CascadeBuilderOption functions
//
// Returns:
//   - CascadeManager: the manager
func NewCascadeManager(options ...CascadeBuilderOption) CascadeManager {
	m := &cascadeManagerImpl{
		numCascades:   DefaultCascadeCount,
		shadowMapSize: ShadowMapResolution,
		splitBlend:    DefaultSplitBlend,
		blendArea:     DefaultCascadeBlendArea,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *cascadeManagerImpl) Init(sceneMapSize, shadowMapSize float32, numCascades int) error {
	if numCascades < 1 || numCascades > MaxCascades {
		return fmt.Errorf("%w: %d", ErrTooManyCascades, numCascades)
	}
	if shadowMapSize < 1 {
		return fmt.Errorf("light: shadow map size %v", shadowMapSize)
	}
	m.numCascades = numCascades
	m.shadowMapSize = shadowMapSize
	half := sceneMapSize / 2
	m.sceneBounds = common.NewBoundingVolume(common.Vec3{}, common.Vec3{half, half, half})
	m.active = false
	shadowLog.Debugf("%d cascades at %vx%v texels", numCascades, shadowMapSize, shadowMapSize)
	return nil
}

func (m *cascadeManagerImpl) SetSceneBounds(b common.BoundingVolume) {
	m.sceneBounds = b
}

func (m *cascadeManagerImpl) SceneBounds() common.BoundingVolume {
	return m.sceneBounds
}

func (m *cascadeManagerImpl) NumCascades() int {
	return m.numCascades
}

func (m *cascadeManagerImpl) ShadowMapSize() int {
	return int(m.shadowMapSize)
}

// StableUp returns an up vector usable for a view looking along dir: +Y unless dir is
// within about 8 degrees of vertical, then +X.
//
// Parameters:
//   - dir: the normalized view direction
//
// Returns:
//   - common.Vec3: the up vector
func StableUp(dir common.Vec3) common.Vec3 {
	if math32.Abs(dir[1]) > 0.99 {
		return common.Vec3{1, 0, 0}
	}
	return common.Vec3{0, 1, 0}
}

// SplitDepths returns the far depth of each of n cascades over [near, far] using the
// practical split scheme, blending a logarithmic and a uniform split by lambda. The
// last depth is exactly far.
//
// Parameters:
//   - near, far: the view depth range, 0 < near < far
//   - n: the cascade count
//   - lambda: the logarithmic weight in [0, 1]
//
// Returns:
//   - []float32: n increasing depths
func SplitDepths(near, far float32, n int, lambda float32) []float32 {
	lambda = common.Saturate(lambda)
	out := make([]float32, n)
	for i := 1; i <= n; i++ {
		p := float32(i) / float32(n)
		log := near * math32.Pow(far/near, p)
		uniform := near + (far-near)*p
		out[i-1] = lambda*log + (1-lambda)*uniform
	}
	out[n-1] = far
	return out
}

func (m *cascadeManagerImpl) Update(view, projection common.Mat4, near, far float32, lightDirection common.Vec3) {
	if common.Length3(lightDirection) < 1e-6 || near <= 0 || far <= near {
		m.active = false
		return
	}
	dir := common.Normalize3(lightDirection)
	m.lightDir = dir

	// One light view for every cascade, looking at the scene center from outside the scene.
	center := m.sceneBounds.Center
	radius := math32.Max(common.Length3(m.sceneBounds.Extents), 1e-3)
	eye := common.Sub3(center, common.Scale3(dir, radius*2))
	up := StableUp(dir)
	common.LookAt(m.shadowView[:], eye[0], eye[1], eye[2], center[0], center[1], center[2], up[0], up[1], up[2])

	// The scene box in light space bounds xy and covers every caster in depth.
	sceneMin := common.Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32}
	sceneMax := common.Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32}
	for _, c := range m.sceneBounds.Corners() {
		p := common.TransformPoint(m.shadowView, c)
		for a := 0; a < 3; a++ {
			sceneMin[a] = math32.Min(sceneMin[a], p[a])
			sceneMax[a] = math32.Max(sceneMax[a], p[a])
		}
	}
	// View space looks down -Z, so depth is -z.
	nearPlane := -sceneMax[2] - 1e-3
	farPlane := -sceneMin[2] + 1e-3

	splits := SplitDepths(near, far, m.numCascades, m.splitBlend)
	invView := common.Inverse(view)
	tanX, tanY := 1/projection[0], 1/projection[5]

	begin := near
	for i := 0; i < m.numCascades; i++ {
		end := splits[i]
		corners := sliceCorners(invView, tanX, tanY, begin, end)

		lo := [2]float32{math32.MaxFloat32, math32.MaxFloat32}
		hi := [2]float32{-math32.MaxFloat32, -math32.MaxFloat32}
		for _, c := range corners {
			p := common.TransformPoint(m.shadowView, c)
			for a := 0; a < 2; a++ {
				lo[a] = math32.Min(lo[a], p[a])
				hi[a] = math32.Max(hi[a], p[a])
			}
		}
		// Clip to the scene; a slice that misses the scene keeps its own box.
		for a := 0; a < 2; a++ {
			cl, ch := math32.Max(lo[a], sceneMin[a]), math32.Min(hi[a], sceneMax[a])
			if cl < ch {
				lo[a], hi[a] = cl, ch
			}
		}

		c := &m.cascades[i]
		c.Near, c.Far = begin, end
		for a := 0; a < 2; a++ {
			// One texel of padding keeps the box covering the slice after snapping.
			size := (hi[a] - lo[a]) * m.shadowMapSize / (m.shadowMapSize - 1)
			size = math32.Max(size, 1e-3)
			texel := size / m.shadowMapSize
			c.Origin[a] = math32.Floor(lo[a]/texel) * texel
			c.Size[a] = size
			c.TexelSize[a] = texel
		}

		common.Ortho(c.Projection[:], c.Origin[0], c.Origin[0]+c.Size[0], c.Origin[1], c.Origin[1]+c.Size[1], nearPlane, farPlane)
		c.ViewProjection = common.Mul(c.Projection, m.shadowView)
		c.Scale = [3]float32{c.Projection[0], c.Projection[5], c.Projection[10]}
		c.Offset = [3]float32{c.Projection[12], c.Projection[13], c.Projection[14]}
		c.BlendWidth = (end - begin) * m.blendArea

		begin = end
	}
	m.active = true
}

// sliceCorners returns the world-space corners of the view frustum between two depths.
func sliceCorners(invView common.Mat4, tanX, tanY, begin, end float32) [8]common.Vec3 {
	var out [8]common.Vec3
	for i, d := range [2]float32{begin, end} {
		for j, s := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			v := common.Vec3{s[0] * d * tanX, s[1] * d * tanY, -d}
			out[i*4+j] = common.TransformPoint(invView, v)
		}
	}
	return out
}

func (m *cascadeManagerImpl) ShadowMatrices() CascadeSet {
	if !m.active {
		return CascadeSet{MapSize: int(m.shadowMapSize), BlendArea: m.blendArea}
	}
	out := CascadeSet{
		Cascades:       make([]Cascade, m.numCascades),
		ShadowView:     m.shadowView,
		LightDirection: m.lightDir,
		MapSize:        int(m.shadowMapSize),
		BlendArea:      m.blendArea,
	}
	copy(out.Cascades, m.cascades[:m.numCascades])
	return out
}

func (m *cascadeManagerImpl) GPUData() GPUCascadeData {
	var g GPUCascadeData
	if m.active {
		for i := 0; i < m.numCascades; i++ {
			c := m.cascades[i]
			g.CascadeOffset[i] = [4]float32{c.Offset[0], c.Offset[1], c.Offset[2], 0}
			g.CascadeScale[i] = [4]float32{c.Scale[0], c.Scale[1], c.Scale[2], c.Far}
		}
	}
	g.BorderPadding = [2]float32{1 / m.shadowMapSize, 1 - 1/m.shadowMapSize}
	g.PartitionSize = 1 / float32(m.numCascades)
	g.BlendArea = m.blendArea
	return g
}
