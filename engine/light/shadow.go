package light

// MaxCascades is the largest number of shadow cascades a CascadeManager supports.
const MaxCascades = 8

// DefaultCascadeCount is the number of cascades used when a scene does not say otherwise.
const DefaultCascadeCount = 4

// ShadowMapResolution is the default width and height in texels of each cascade's
// shadow map.
const ShadowMapResolution = 1024

// DefaultSplitBlend is the default weight of the logarithmic term in the practical
// split scheme. 0 is a uniform split and 1 a purely logarithmic one.
const DefaultSplitBlend float32 = 0.5

// DefaultCascadeBlendArea is the default fraction of a cascade's depth range, at its
// far end, over which it is blended into the next cascade.
const DefaultCascadeBlendArea float32 = 0.1

// DefaultShadowBias is the constant depth bias applied to shadow comparisons
// to reduce shadow acne artifacts.
const DefaultShadowBias float32 = 0.002

// DefaultShadowNormalBiasScale is the multiplier applied to the shadow map
// texel world-size to compute the normal-offset bias. Typical values are 1.0–3.0.
const DefaultShadowNormalBiasScale float32 = 1.5
