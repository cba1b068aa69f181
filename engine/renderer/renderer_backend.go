package renderer

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// Format is the pixel layout of a render target.
type Format int

const (
	// FormatRGBA16Float holds HDR color.
	FormatRGBA16Float Format = iota
	// FormatRGBA8Unorm holds display-range color.
	FormatRGBA8Unorm
	// FormatRG16Float holds two channel data such as motion vectors.
	FormatRG16Float
	// FormatR32Float holds a single float such as luminance.
	FormatR32Float
	// FormatDepth32Float holds clip-space depth in [0, 1].
	FormatDepth32Float
)

// Channels returns the number of stored channels per pixel.
func (f Format) Channels() int {
	switch f {
	case FormatRG16Float:
		return 2
	case FormatR32Float, FormatDepth32Float:
		return 1
	default:
		return 4
	}
}

// IsDepth reports whether the format is a depth format.
func (f Format) IsDepth() bool {
	return f == FormatDepth32Float
}

func (f Format) String() string {
	switch f {
	case FormatRGBA16Float:
		return "rgba16f"
	case FormatRGBA8Unorm:
		return "rgba8"
	case FormatRG16Float:
		return "rg16f"
	case FormatR32Float:
		return "r32f"
	case FormatDepth32Float:
		return "depth32f"
	}
	return "unknown"
}
