package camera

import "github.com/Carmen-Shannon/oxy-deferred/common"

// CameraController owns the eye position and the point it looks at. Camera reads from
// the controller and computes view/projection matrices. It combines orbit controls
// around the target with planar panning that moves the target along.
type CameraController interface {
	orbitCameraController
	planarCameraController

	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - common.Vec3: world-space camera position
	Position() common.Vec3

	// Target returns the look-at point.
	//
	// Returns:
	//   - common.Vec3: world-space target position
	Target() common.Vec3

	// SetTarget sets the look-at/pivot point and recomputes position from spherical coordinates.
	//
	// Parameters:
	//   - target: world-space coordinates
	SetTarget(target common.Vec3)

	// Zoom scales the distance to the target by delta/16 of itself. Positive delta
	// moves closer. The result is clamped to the radius bounds.
	//
	// Parameters:
	//   - delta: wheel steps
	Zoom(delta float32)
}

// orbitCameraController defines orbit-specific control methods using spherical
// coordinates (radius, azimuth, elevation) relative to the target.
type orbitCameraController interface {
	// Orbit rotates around the target. Elevation is clamped to its bounds.
	//
	// Parameters:
	//   - dAzimuth: horizontal angle change in radians
	//   - dElevation: vertical angle change in radians
	Orbit(dAzimuth, dElevation float32)

	// Drag rotates around the target by a mouse movement in pixels.
	//
	// Parameters:
	//   - dx, dy: cursor movement since the last call
	Drag(dx, dy float32)

	// Radius returns the current orbit radius (distance from target).
	//
	// Returns:
	//   - float32: current distance from target
	Radius() float32

	// SetRadius sets the orbit radius directly, clamped to min/max bounds.
	//
	// Parameters:
	//   - radius: new distance from target
	SetRadius(radius float32)

	// Azimuth returns the current horizontal angle around the Y axis.
	//
	// Returns:
	//   - float32: azimuth in radians
	Azimuth() float32

	// Elevation returns the current vertical angle from the horizontal plane.
	//
	// Returns:
	//   - float32: elevation in radians
	Elevation() float32
}

// planarCameraController moves the camera and its target together along the camera's
// local axes, preserving the orbit relationship.
type planarCameraController interface {
	// Pan translates along the local right and up axes.
	//
	// Parameters:
	//   - right: movement along the right axis, scaled by the pan speed
	//   - up: movement along the up axis, scaled by the pan speed
	Pan(right, up float32)
}
