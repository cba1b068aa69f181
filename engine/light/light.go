package light

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	direction    common.Vec3
	color        common.Vec3
	intensity    float32
	ambient      common.Vec3
	ibl          bool
	enabled      bool
	castsShadows bool
}

// Light is the scene's directional light together with its environment term.
//
// The direction is the way the light travels, from the light toward the scene.
type Light interface {
	// Direction returns the normalized direction the light travels.
	//
	// Returns:
	//   - common.Vec3: the direction
	Direction() common.Vec3

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - common.Vec3: color as (r, g, b)
	Color() common.Vec3

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// Radiance returns color scaled by intensity, or zero when disabled.
	//
	// Returns:
	//   - common.Vec3: the radiance
	Radiance() common.Vec3

	// Ambient returns the environment color added to every lit pixel.
	//
	// Returns:
	//   - common.Vec3: the ambient color
	Ambient() common.Vec3

	// IBL reports whether the environment term is image based. With IBL off the
	// ambient term is a flat color.
	//
	// Returns:
	//   - bool: true if image based lighting is on
	IBL() bool

	// Enabled returns whether this light contributes to shading.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// CastsShadows returns whether cascaded shadow maps are rendered for this light.
	//
	// Returns:
	//   - bool: true if the light casts shadows
	CastsShadows() bool

	// SetDirection sets the direction of the light and normalizes it.
	//
	// Parameters:
	//   - x, y, z: direction components (will be normalized)
	SetDirection(x, y, z float32)

	// SetColor sets the RGB color of the light.
	//
	// Parameters:
	//   - r, g, b: color components
	SetColor(r, g, b float32)

	// SetIntensity sets the scalar intensity multiplier.
	//
	// Parameters:
	//   - intensity: the intensity value
	SetIntensity(intensity float32)

	// SetAmbient sets the environment color.
	//
	// Parameters:
	//   - r, g, b: color components
	SetAmbient(r, g, b float32)

	// SetIBL turns image based environment lighting on or off.
	//
	// Parameters:
	//   - on: true to enable
	SetIBL(on bool)

	// SetEnabled enables or disables the light.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// SetCastsShadows sets whether the light casts shadows.
	//
	// Parameters:
	//   - castsShadows: true to enable shadow casting
	SetCastsShadows(castsShadows bool)

	// Params returns a snapshot of the shading parameters.
	//
	// Returns:
	//   - Params: the snapshot
	Params() Params
}

// Params is a value snapshot of a Light used while recording a frame.
type Params struct {
	Direction    common.Vec3
	Radiance     common.Vec3
	Ambient      common.Vec3
	IBL          bool
	CastsShadows bool
}

var _ Light = &lightImpl{}

// NewLight creates a directional Light pointing straight down with any provided options applied.
//
// Parameters:
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(opts ...LightBuilderOption) Light {
	l := &lightImpl{
		direction:    common.Vec3{0, -1, 0},
		color:        common.Vec3{1, 1, 1},
		intensity:    1.0,
		ambient:      common.Vec3{0.1, 0.1, 0.12},
		ibl:          true,
		enabled:      true,
		castsShadows: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Direction() common.Vec3 {
	return l.direction
}

func (l *lightImpl) Color() common.Vec3 {
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) Radiance() common.Vec3 {
	if !l.enabled {
		return common.Vec3{}
	}
	return common.Scale3(l.color, l.intensity)
}

func (l *lightImpl) Ambient() common.Vec3 {
	return l.ambient
}

func (l *lightImpl) IBL() bool {
	return l.ibl
}

func (l *lightImpl) Enabled() bool {
	return l.enabled
}

func (l *lightImpl) CastsShadows() bool {
	return l.castsShadows
}

func (l *lightImpl) SetDirection(x, y, z float32) {
	l.direction = common.Normalize3(common.Vec3{x, y, z})
}

func (l *lightImpl) SetColor(r, g, b float32) {
	l.color = common.Vec3{r, g, b}
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.intensity = intensity
}

func (l *lightImpl) SetAmbient(r, g, b float32) {
	l.ambient = common.Vec3{r, g, b}
}

func (l *lightImpl) SetIBL(on bool) {
	l.ibl = on
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.enabled = enabled
}

func (l *lightImpl) SetCastsShadows(castsShadows bool) {
	l.castsShadows = castsShadows
}

func (l *lightImpl) Params() Params {
	return Params{
		Direction:    l.direction,
		Radiance:     l.Radiance(),
		Ambient:      l.ambient,
		IBL:          l.ibl,
		CastsShadows: l.castsShadows && l.enabled,
	}
}
