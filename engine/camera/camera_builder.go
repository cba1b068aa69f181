package camera

import "github.com/Carmen-Shannon/oxy-deferred/common"

type CameraBuilderOption func(*cameraImpl)

// WithUp sets the camera's up vector.
//
// Parameters:
//   - x, y, z: up vector components
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's up vector
func WithUp(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.up = [3]float32{x, y, z}
	}
}

// WithFov sets the camera's vertical field of view in radians.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = fov
	}
}

// WithExtent sets the render target size, and with it the aspect ratio.
//
// Parameters:
//   - extent: the target size in pixels
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's extent
func WithExtent(extent common.Extent) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.extent = extent
		if !extent.IsZero() {
			c.aspect = extent.Aspect()
		}
	}
}

// WithNear sets the near clipping plane distance.
//
// Parameters:
//   - near: near plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the near plane
func WithNear(near float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
	}
}

// WithFar sets the far clipping plane distance.
//
// Parameters:
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: functional option to set the far plane
func WithFar(far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.far = far
	}
}

// WithJitter turns the TAA projection jitter on or off. It is on by default.
//
// Parameters:
//   - enabled: whether to jitter
//
// Returns:
//   - CameraBuilderOption: functional option to set jitter
func WithJitter(enabled bool) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.jitterEnabled = enabled
	}
}

// WithController attaches a controller to the camera.
// After all options are applied, the camera recomputes its matrices from the controller's state.
//
// Parameters:
//   - ctrl: the controller to attach
//
// Returns:
//   - CameraBuilderOption: functional option to set the controller
func WithController(ctrl CameraController) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.controller = ctrl
	}
}
