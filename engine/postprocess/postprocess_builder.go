package postprocess

// ChainBuilderOption is a functional option applied to a Chain during construction.
type ChainBuilderOption func(*chainImpl)

// WithExposureKey sets the middle gray the adapted luminance is exposed to.
//
// Parameters:
//   - key: the exposure key, typically 0.18
//
// Returns:
//   - ChainBuilderOption: a function that applies the option
func WithExposureKey(key float32) ChainBuilderOption {
	return func(c *chainImpl) {
		if key > 0 {
			c.key = key
		}
	}
}

// WithAdaptationRate sets how fast exposure follows scene brightness, per second.
func WithAdaptationRate(rate float32) ChainBuilderOption {
	return func(c *chainImpl) {
		c.rate = max(rate, 0)
	}
}

// WithWhitePoint sets the exposed luminance that maps to pure white.
func WithWhitePoint(white float32) ChainBuilderOption {
	return func(c *chainImpl) {
		if white > 0 {
			c.white = white
		}
	}
}

// WithTAA sets the temporal antialiasing settings.
//
// Parameters:
//   - s: the settings; BlendFactor is clamped to 0..1
//
// Returns:
//   - ChainBuilderOption: a function that applies the option
func WithTAA(s TAASettings) ChainBuilderOption {
	return func(c *chainImpl) {
		s.BlendFactor = min(max(s.BlendFactor, 0), 1)
		c.taa = s
	}
}

// WithSharpen sets the unsharp mask radius, clamped to 1..3, and strength.
func WithSharpen(radius int, amount float32) ChainBuilderOption {
	return func(c *chainImpl) {
		c.sharpRadius = min(max(radius, MinSharpenRadius), MaxSharpenRadius)
		c.sharpAmount = max(amount, 0)
	}
}
