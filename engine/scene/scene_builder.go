package scene

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithName sets the scene's identifier.
//
// Parameters:
//   - name: the scene name
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithName(name string) SceneBuilderOption {
	return func(s *scene) {
		s.name = name
	}
}

// WithCamera sets the scene's camera. Without one the scene frames its bounds with an
// orbit camera.
//
// Parameters:
//   - cam: the camera
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCamera(cam camera.Camera) SceneBuilderOption {
	return func(s *scene) {
		s.camera = cam
	}
}

// WithLight sets the scene's directional light.
func WithLight(l light.Light) SceneBuilderOption {
	return func(s *scene) {
		s.light = l
	}
}

// WithCascadeManager sets an initialized cascade manager. The scene sets its bounds.
//
// Parameters:
//   - m: the manager, already passed through Init
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCascadeManager(m light.CascadeManager) SceneBuilderOption {
	return func(s *scene) {
		s.cascades = m
	}
}

// WithOctreeLimits sets the depth limit and split threshold of both octrees.
//
// Parameters:
//   - maxDepth: the deepest level a node may be created at
//   - splitThreshold: the object count below which a node is not split
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithOctreeLimits(maxDepth, splitThreshold int) SceneBuilderOption {
	return func(s *scene) {
		s.maxDepth = maxDepth
		s.splitThreshold = splitThreshold
	}
}

// WithLooseCoefficient sets how far octree node bounds are enlarged. Values below 1
// are raised to 1 by the octree.
func WithLooseCoefficient(k float32) SceneBuilderOption {
	return func(s *scene) {
		s.loose = k
	}
}

// WithCullWorkers sets how many goroutines cull the shadow cascades. 1 culls them on
// the calling goroutine.
//
// Parameters:
//   - n: the number of workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCullWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.cullWorkers = n
	}
}

// WithPaused starts the scene with time frozen.
func WithPaused(paused bool) SceneBuilderOption {
	return func(s *scene) {
		s.paused = paused
	}
}
