package deferred

// RendererBuilderOption is a functional option applied to a Renderer during construction.
type RendererBuilderOption func(*rendererImpl)

// WithAmbientOcclusion turns the ambient occlusion pass on or off. It is on by default.
//
// Parameters:
//   - enabled: whether to run the pass
//
// Returns:
//   - RendererBuilderOption: a function that applies the option
func WithAmbientOcclusion(enabled bool) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.aoEnabled = enabled
	}
}

// WithAORadius sets the world-space search radius of the ambient occlusion pass.
//
// Parameters:
//   - radius: the radius in world units
//   - strength: the occlusion multiplier
//
// Returns:
//   - RendererBuilderOption: a function that applies the option
func WithAORadius(radius, strength float32) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.aoRadius = max(radius, 1e-3)
		r.aoStrength = max(strength, 0)
	}
}

// WithShadowBias sets the depth bias and normal offset scale of shadow lookups.
//
// Parameters:
//   - bias: constant depth bias in clip depth units
//   - normalScale: normal offset in shadow map texels
//
// Returns:
//   - RendererBuilderOption: a function that applies the option
func WithShadowBias(bias, normalScale float32) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.shadowBias = bias
		r.normalBiasScale = normalScale
	}
}

// WithPCFRadius sets the shadow filter radius in texels; 0 takes a single tap.
func WithPCFRadius(radius int) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.pcfRadius = min(max(radius, 0), 3)
	}
}
