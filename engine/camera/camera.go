package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/chewxy/math32"
)

type cameraImpl struct {
	mu *sync.Mutex

	up [3]float32

	fov    float32
	aspect float32
	near   float32
	far    float32
	extent common.Extent

	jitterEnabled bool
	jitter        [2]float32
	frame         uint64

	position                 common.Vec3
	viewMatrix               common.Mat4
	projectionMatrix         common.Mat4
	unjitteredProjection     common.Mat4
	viewProjectionMatrix     common.Mat4
	unjitteredViewProjection common.Mat4
	prevViewProjection       common.Mat4
	inverseViewProjection    common.Mat4
	hasPrevious              bool

	controller CameraController
}

// Camera holds perspective settings and computes view/projection matrices from an
// attached CameraController each frame via Update().
//
// The projection carries a sub-pixel jitter that changes every Update when jitter is
// enabled. The unjittered matrices are kept alongside for culling, shadow fitting, and
// motion vectors.
type Camera interface {
	// Up returns the camera's up vector.
	//
	// Returns:
	//   - x, y, z: up vector components
	Up() (x, y, z float32)

	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// Position returns the eye position from the last Update.
	//
	// Returns:
	//   - common.Vec3: world-space eye position
	Position() common.Vec3

	// ViewMatrix returns the current view matrix.
	//
	// Returns:
	//   - common.Mat4: the view matrix
	ViewMatrix() common.Mat4

	// ProjectionMatrix returns the current projection matrix, jitter included.
	//
	// Returns:
	//   - common.Mat4: the projection matrix
	ProjectionMatrix() common.Mat4

	// UnjitteredProjectionMatrix returns the current projection matrix without jitter.
	//
	// Returns:
	//   - common.Mat4: the projection matrix
	UnjitteredProjectionMatrix() common.Mat4

	// ViewProjectionMatrix returns the jittered view-projection used to rasterize.
	//
	// Returns:
	//   - common.Mat4: the combined view-projection matrix
	ViewProjectionMatrix() common.Mat4

	// UnjitteredViewProjectionMatrix returns the view-projection without jitter.
	//
	// Returns:
	//   - common.Mat4: the combined view-projection matrix
	UnjitteredViewProjectionMatrix() common.Mat4

	// PrevViewProjectionMatrix returns the unjittered view-projection of the previous
	// Update. Before the second Update it equals the current one.
	//
	// Returns:
	//   - common.Mat4: last frame's view-projection matrix
	PrevViewProjectionMatrix() common.Mat4

	// InverseViewProjectionMatrix returns the inverse of the unjittered view-projection.
	//
	// Returns:
	//   - common.Mat4: the inverse matrix
	InverseViewProjectionMatrix() common.Mat4

	// Jitter returns this frame's projection offset in NDC units.
	//
	// Returns:
	//   - [2]float32: the offset, zero when jitter is disabled
	Jitter() [2]float32

	// SetJitterEnabled turns the per-frame projection jitter on or off.
	//
	// Parameters:
	//   - enabled: whether to jitter
	SetJitterEnabled(enabled bool)

	// Controller returns the attached CameraController, or nil.
	//
	// Returns:
	//   - CameraController: the attached controller or nil
	Controller() CameraController

	// Update reads position and target from the controller, promotes the current
	// view-projection to previous, advances the jitter sequence, and recomputes every
	// matrix. Call once per frame. Without a controller it does nothing.
	Update()

	// SetUp sets the camera's up vector.
	//
	// Parameters:
	//   - x, y, z: up vector components
	SetUp(x, y, z float32)

	// SetFov sets the vertical field of view in radians.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// SetExtent sets the render target size, which fixes the aspect ratio and the
	// jitter step. A zero extent keeps the previous aspect ratio.
	//
	// Parameters:
	//   - extent: the target size in pixels
	SetExtent(extent common.Extent)

	// SetNear sets the near clipping plane distance.
	//
	// Parameters:
	//   - near: near plane distance
	SetNear(near float32)

	// SetFar sets the far clipping plane distance.
	//
	// Parameters:
	//   - far: far plane distance
	SetFar(far float32)

	// SetController attaches a CameraController to the camera.
	//
	// Parameters:
	//   - ctrl: the controller to attach
	SetController(ctrl CameraController)

	// Constants returns the camera constant block for this frame.
	//
	// Returns:
	//   - GPUCameraUniform: the constants
	Constants() GPUCameraUniform
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with default perspective settings.
// A controller must be attached via SetController or WithController
// before position and target data are available.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:                       &sync.Mutex{},
		up:                       [3]float32{0, 1, 0},
		fov:                      45.0 * (math32.Pi / 180.0),
		aspect:                   1.0,
		near:                     0.1,
		far:                      100.0,
		jitterEnabled:            true,
		viewMatrix:               common.IdentityMat4(),
		projectionMatrix:         common.IdentityMat4(),
		unjitteredProjection:     common.IdentityMat4(),
		viewProjectionMatrix:     common.IdentityMat4(),
		unjitteredViewProjection: common.IdentityMat4(),
		prevViewProjection:       common.IdentityMat4(),
		inverseViewProjection:    common.IdentityMat4(),
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Up() (x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up[0], c.up[1], c.up[2]
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) Position() common.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) ViewMatrix() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) UnjitteredProjectionMatrix() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unjitteredProjection
}

func (c *cameraImpl) ViewProjectionMatrix() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) UnjitteredViewProjectionMatrix() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unjitteredViewProjection
}

func (c *cameraImpl) PrevViewProjectionMatrix() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prevViewProjection
}

func (c *cameraImpl) InverseViewProjectionMatrix() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inverseViewProjection
}

func (c *cameraImpl) Jitter() [2]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.jitter
}

func (c *cameraImpl) SetJitterEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jitterEnabled = enabled
	c.updateMatrices()
}

func (c *cameraImpl) SetUp(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.up = [3]float32{x, y, z}
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetExtent(extent common.Extent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.extent = extent
	if !extent.IsZero() {
		c.aspect = extent.Aspect()
	}
	c.updateMatrices()
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.updateMatrices()
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.updateMatrices()
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.updateMatrices()
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controller == nil {
		return
	}
	prev := c.unjitteredViewProjection
	c.frame++
	c.updateMatrices()
	if c.hasPrevious {
		c.prevViewProjection = prev
	} else {
		c.prevViewProjection = c.unjitteredViewProjection
	}
	c.hasPrevious = true
}

func (c *cameraImpl) Constants() GPUCameraUniform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return GPUCameraUniform{
		ViewProj:       c.viewProjectionMatrix,
		PrevViewProj:   c.prevViewProjection,
		InvViewProj:    c.inverseViewProjection,
		CameraPosition: c.position,
		Jitter:         c.jitter,
		ScreenSize:     [2]float32{float32(c.extent.Width), float32(c.extent.Height)},
	}
}

// updateMatrices recalculates every matrix from the controller and lens settings.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	if c.controller == nil {
		return
	}

	c.position = c.controller.Position()
	target := c.controller.Target()

	common.LookAt(c.viewMatrix[:],
		c.position[0], c.position[1], c.position[2],
		target[0], target[1], target[2],
		c.up[0], c.up[1], c.up[2],
	)

	common.Perspective(c.unjitteredProjection[:], c.fov, c.aspect, c.near, c.far)
	c.projectionMatrix = c.unjitteredProjection
	c.jitter = [2]float32{}
	if c.jitterEnabled && !c.extent.IsZero() {
		c.jitter = JitterOffset(c.frame, c.extent)
		ApplyJitter(&c.projectionMatrix, c.jitter)
	}

	c.viewProjectionMatrix = common.Mul(c.projectionMatrix, c.viewMatrix)
	c.unjitteredViewProjection = common.Mul(c.unjitteredProjection, c.viewMatrix)
	c.inverseViewProjection = common.Inverse(c.unjitteredViewProjection)
	if !c.hasPrevious {
		c.prevViewProjection = c.unjitteredViewProjection
	}
}
