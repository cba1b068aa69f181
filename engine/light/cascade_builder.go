package light

// CascadeBuilderOption is a function that configures a CascadeManager during construction.
type CascadeBuilderOption func(*cascadeManagerImpl)

// WithSplitBlend sets the weight of the logarithmic term of the split scheme, clamped to [0, 1].
//
// Parameters:
//   - lambda: the weight
//
// Returns:
//   - CascadeBuilderOption: a function that applies the option
func WithSplitBlend(lambda float32) CascadeBuilderOption {
	return func(m *cascadeManagerImpl) {
		m.splitBlend = min(max(lambda, 0), 1)
	}
}

// WithCascadeBlendArea sets the fraction of each cascade's depth range blended into the next.
//
// Parameters:
//   - area: the fraction, clamped to [0, 0.5]
//
// Returns:
//   - CascadeBuilderOption: a function that applies the option
func WithCascadeBlendArea(area float32) CascadeBuilderOption {
	return func(m *cascadeManagerImpl) {
		m.blendArea = min(max(area, 0), 0.5)
	}
}
