package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Carmen-Shannon/oxy-deferred/engine/deferred"
	"github.com/Carmen-Shannon/oxy-deferred/engine/frame"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/postprocess"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"gopkg.in/yaml.v3"
)

// ErrInvalidSettings wraps settings values outside their allowed range.
var ErrInvalidSettings = errors.New("loader: invalid renderer settings")

// TAASettings is the settings file form of postprocess.TAASettings.
type TAASettings struct {
	Enabled          bool    `yaml:"enabled"`
	BlendFactor      float32 `yaml:"blend_factor"`
	RejectThreshold  float32 `yaml:"reject_threshold"`
	MotionThreshold  float32 `yaml:"motion_threshold"`
	VelocityWeighted bool    `yaml:"velocity_weighted"`
}

// SharpenSettings configures the final unsharp mask.
type SharpenSettings struct {
	Radius int     `yaml:"radius"`
	Amount float32 `yaml:"amount"`
}

// Settings are the renderer tunables read from a YAML settings file.
type Settings struct {
	FrameCount       int     `yaml:"frame_count"`
	Cascades         int     `yaml:"cascades"`
	ShadowMapSize    int     `yaml:"shadow_map_size"`
	SplitBlend       float32 `yaml:"split_blend"`
	CascadeBlendArea float32 `yaml:"cascade_blend_area"`
	LooseCoefficient float32 `yaml:"loose_coefficient"`
	OctreeMaxDepth   int     `yaml:"octree_max_depth"`
	SplitThreshold   int     `yaml:"split_threshold"`
	CullWorkers      int     `yaml:"cull_workers"`

	AmbientOcclusion bool    `yaml:"ambient_occlusion"`
	ShadowBias       float32 `yaml:"shadow_bias"`
	PCFRadius        int     `yaml:"pcf_radius"`
	Jitter           bool    `yaml:"jitter"`

	ExposureKey    float32         `yaml:"exposure_key"`
	AdaptationRate float32         `yaml:"adaptation_rate"`
	WhitePoint     float32         `yaml:"white_point"`
	TAA            TAASettings     `yaml:"taa"`
	Sharpen        SharpenSettings `yaml:"sharpen"`
}

// DefaultSettings returns the settings used for anything a settings file leaves out.
func DefaultSettings() Settings {
	taa := postprocess.DefaultTAASettings()
	return Settings{
		FrameCount:       frame.DefaultFrameCount,
		Cascades:         light.DefaultCascadeCount,
		ShadowMapSize:    light.ShadowMapResolution,
		SplitBlend:       light.DefaultSplitBlend,
		CascadeBlendArea: light.DefaultCascadeBlendArea,
		LooseCoefficient: 1,
		OctreeMaxDepth:   8,
		SplitThreshold:   4,
		CullWorkers:      2,
		AmbientOcclusion: true,
		ShadowBias:       light.DefaultShadowBias,
		PCFRadius:        1,
		Jitter:           true,
		ExposureKey:      postprocess.DefaultExposureKey,
		AdaptationRate:   postprocess.DefaultAdaptationRate,
		WhitePoint:       postprocess.DefaultWhitePoint,
		TAA: TAASettings{
			Enabled:          taa.Enabled,
			BlendFactor:      taa.BlendFactor,
			RejectThreshold:  taa.RejectThreshold,
			MotionThreshold:  taa.MotionThreshold,
			VelocityWeighted: taa.VelocityWeighted,
		},
		Sharpen: SharpenSettings{Radius: postprocess.MinSharpenRadius, Amount: postprocess.DefaultSharpenAmount},
	}
}

// LoadSettings reads a YAML settings file over DefaultSettings.
//
// Parameters:
//   - path: the settings file
//
// Returns:
//   - Settings: the merged settings
//   - error: a read, syntax, or ErrInvalidSettings error
func LoadSettings(path string) (Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("loader: %w", err)
	}
	s, err := ParseSettings(raw)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseSettings decodes YAML settings over DefaultSettings. Unknown keys are errors.
func ParseSettings(raw []byte) (Settings, error) {
	s := DefaultSettings()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && err != io.EOF {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks every value against its allowed range.
func (s Settings) Validate() error {
	switch {
	case s.FrameCount < 2 || s.FrameCount > 3:
		return fmt.Errorf("%w: frame_count %d, want 2 or 3", ErrInvalidSettings, s.FrameCount)
	case s.Cascades < 1 || s.Cascades > light.MaxCascades:
		return fmt.Errorf("%w: cascades %d, want 1..%d", ErrInvalidSettings, s.Cascades, light.MaxCascades)
	case s.ShadowMapSize < 16:
		return fmt.Errorf("%w: shadow_map_size %d", ErrInvalidSettings, s.ShadowMapSize)
	case s.SplitBlend < 0 || s.SplitBlend > 1:
		return fmt.Errorf("%w: split_blend %v, want 0..1", ErrInvalidSettings, s.SplitBlend)
	case s.CascadeBlendArea < 0 || s.CascadeBlendArea > 0.5:
		return fmt.Errorf("%w: cascade_blend_area %v, want 0..0.5", ErrInvalidSettings, s.CascadeBlendArea)
	case s.LooseCoefficient < 1:
		return fmt.Errorf("%w: loose_coefficient %v, want at least 1", ErrInvalidSettings, s.LooseCoefficient)
	case s.TAA.BlendFactor < 0 || s.TAA.BlendFactor > 1:
		return fmt.Errorf("%w: taa.blend_factor %v, want 0..1", ErrInvalidSettings, s.TAA.BlendFactor)
	case s.TAA.RejectThreshold < 0 || s.TAA.MotionThreshold < 0:
		return fmt.Errorf("%w: taa thresholds must not be negative", ErrInvalidSettings)
	case s.ExposureKey <= 0:
		return fmt.Errorf("%w: exposure_key %v", ErrInvalidSettings, s.ExposureKey)
	case s.Sharpen.Radius < postprocess.MinSharpenRadius || s.Sharpen.Radius > postprocess.MaxSharpenRadius:
		return fmt.Errorf("%w: sharpen.radius %d, want %d..%d", ErrInvalidSettings, s.Sharpen.Radius,
			postprocess.MinSharpenRadius, postprocess.MaxSharpenRadius)
	}
	return nil
}

// FrameOptions returns the frame pipeline options.
func (s Settings) FrameOptions() []frame.FramePipelineBuilderOption {
	return []frame.FramePipelineBuilderOption{frame.WithFrameCount(s.FrameCount)}
}

// CascadeManager creates a cascade manager sized for a scene of the given width.
//
// Parameters:
//   - sceneSize: the scene's largest dimension in world units
//
// Returns:
//   - light.CascadeManager: the initialized manager
//   - error: light.ErrTooManyCascades
func (s Settings) CascadeManager(sceneSize float32) (light.CascadeManager, error) {
	m := light.NewCascadeManager(light.WithSplitBlend(s.SplitBlend), light.WithCascadeBlendArea(s.CascadeBlendArea))
	if err := m.Init(sceneSize, float32(s.ShadowMapSize), s.Cascades); err != nil {
		return nil, err
	}
	return m, nil
}

// SceneOptions returns the culling options.
func (s Settings) SceneOptions() []scene.SceneBuilderOption {
	return []scene.SceneBuilderOption{
		scene.WithLooseCoefficient(s.LooseCoefficient),
		scene.WithOctreeLimits(s.OctreeMaxDepth, s.SplitThreshold),
		scene.WithCullWorkers(s.CullWorkers),
	}
}

// RendererOptions returns the deferred renderer options.
func (s Settings) RendererOptions() []deferred.RendererBuilderOption {
	return []deferred.RendererBuilderOption{
		deferred.WithAmbientOcclusion(s.AmbientOcclusion),
		deferred.WithShadowBias(s.ShadowBias, light.DefaultShadowNormalBiasScale),
		deferred.WithPCFRadius(s.PCFRadius),
	}
}

// ChainOptions returns the postprocess chain options.
func (s Settings) ChainOptions() []postprocess.ChainBuilderOption {
	return []postprocess.ChainBuilderOption{
		postprocess.WithExposureKey(s.ExposureKey),
		postprocess.WithAdaptationRate(s.AdaptationRate),
		postprocess.WithWhitePoint(s.WhitePoint),
		postprocess.WithTAA(postprocess.TAASettings{
			Enabled:          s.TAA.Enabled,
			BlendFactor:      s.TAA.BlendFactor,
			RejectThreshold:  s.TAA.RejectThreshold,
			MotionThreshold:  s.TAA.MotionThreshold,
			VelocityWeighted: s.TAA.VelocityWeighted,
		}),
		postprocess.WithSharpen(s.Sharpen.Radius, s.Sharpen.Amount),
	}
}
