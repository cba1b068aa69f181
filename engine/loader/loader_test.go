package loader

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/frame"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForPath(t *testing.T) {
	cases := []struct {
		path string
		want Format
	}{
		{"a.yaml", FormatYAML}, {"b.YML", FormatYAML}, {"dir/c.json", FormatJSON},
	}
	for _, c := range cases {
		got, err := FormatForPath(c.path)
		require.NoError(t, err, c.path)
		assert.Equal(t, c.want, got, c.path)
	}
	_, err := FormatForPath("scene.sdkmesh")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestLoadYAMLDocument(t *testing.T) {
	l := NewLoader()
	path := filepath.Join("testdata", "courtyard.yaml")
	doc, err := l.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "courtyard", doc.Name)
	assert.Len(t, doc.Meshes, 4)
	assert.Len(t, doc.Objects, 4)
	require.Len(t, doc.Characters, 1)
	assert.Equal(t, "alpha-blended", doc.Objects[2].Class)
	assert.Equal(t, float32(14), doc.Global.ViewDistance)
	require.NotNil(t, doc.Global.IBL)
	assert.False(t, *doc.Global.IBL)

	again, err := l.Load(path)
	require.NoError(t, err)
	assert.Same(t, doc, again)
	assert.Same(t, doc, l.Get(path))
	assert.Len(t, l.Documents(), 1)
}

func TestLoadJSONDocumentNamesFromFile(t *testing.T) {
	doc, err := NewLoader().Load(filepath.Join("testdata", "minimal.json"))
	require.NoError(t, err)
	assert.Equal(t, "minimal", doc.Name)
	require.Len(t, doc.Objects, 1)
	require.NotNil(t, doc.Objects[0].Material.Roughness)
	assert.Equal(t, float32(0.2), *doc.Objects[0].Material.Roughness)
}

func TestSchemaRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"unknown key":     "objects: []\nweather: rain\n",
		"missing mesh":    "objects:\n  - name: a\n",
		"bad class":       "objects:\n  - {name: a, mesh: m, class: glowing}\n",
		"short vector":    "objects:\n  - {name: a, mesh: m, position: [1, 2]}\n",
		"negative extent": "objects:\n  - {name: a, mesh: m, bounds: {center: [0,0,0], extents: [1,-1,1]}}\n",
		"empty mesh":      "meshes:\n  m: {}\n",
		"not an object":   "- 1\n- 2\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewLoader().LoadReader(name, strings.NewReader(src), FormatYAML)
			assert.ErrorIs(t, err, ErrInvalidDocument)
		})
	}
}

func TestValidationCanBeDisabled(t *testing.T) {
	l := NewLoader(WithValidation(false))
	doc, err := l.LoadReader("loose", strings.NewReader(`{"objects": [{"name": "a", "mesh": "m", "class": "glowing"}]}`), FormatJSON)
	require.NoError(t, err)

	_, err = l.Build(doc)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestWithDocumentPrepopulatesCache(t *testing.T) {
	doc := &Document{Name: "cached"}
	l := NewLoader(WithDocument("mem", doc))
	got, err := l.LoadReader("mem", strings.NewReader("not: [valid"), FormatYAML)
	require.NoError(t, err)
	assert.Same(t, doc, got)
}

func TestBuildAssets(t *testing.T) {
	l := NewLoader()
	doc, err := l.Load(filepath.Join("testdata", "courtyard.yaml"))
	require.NoError(t, err)
	a, err := l.Build(doc)
	require.NoError(t, err)

	assert.Equal(t, 4, a.Meshes.Len())
	require.Len(t, a.Objects, 5)
	for i, obj := range a.Objects {
		assert.Equal(t, i, obj.Index())
	}

	ground := a.Objects[0]
	assert.Equal(t, model.KindStatic, ground.Kind())
	groundExtents := ground.Bounds().Extents
	assert.InDeltaSlice(t, []float32{20, 0, 20}, groundExtents[:], 1e-5)
	assert.True(t, ground.CastsShadow())

	window := a.Objects[2]
	assert.Equal(t, model.ClassAlphaBlended, window.Class())
	assert.False(t, window.CastsShadow())

	statue := a.Objects[3]
	assert.Equal(t, common.Vec3{0, 2, -6}, statue.Bounds().Center)

	runner := a.Objects[4]
	assert.Equal(t, model.KindCharacter, runner.Kind())
	// Swept bounds cover both ends of the track.
	b := runner.Bounds()
	assert.LessOrEqual(t, b.Min()[0], float32(-8))
	assert.GreaterOrEqual(t, b.Max()[0], float32(8))

	assert.False(t, a.Light.IBL())
	assert.InDelta(t, 3, a.Light.Intensity(), 1e-6)
	assert.True(t, a.HasFocus)
	assert.Equal(t, common.Vec3{0, 1, 0}, a.Focus)
}

func TestBuildRejectsUnknownMesh(t *testing.T) {
	l := NewLoader()
	doc, err := l.LoadReader("bad", strings.NewReader("objects:\n  - {name: a, mesh: nowhere}\n"), FormatYAML)
	require.NoError(t, err)
	_, err = l.Build(doc)
	assert.ErrorIs(t, err, ErrInvalidDocument)
	assert.ErrorIs(t, err, model.ErrUnresolvedMesh)
}

func TestAssetsCamera(t *testing.T) {
	a := &Assets{Name: "x", Light: light.NewLight()}
	assert.Nil(t, a.Camera())
	assert.Len(t, a.SceneOptions(), 2)

	a.Focus, a.ViewDistance, a.HasFocus = common.Vec3{1, 2, 3}, 5, true
	cam := a.Camera()
	require.NotNil(t, cam)
	cam.Update()
	assert.InDelta(t, 5, common.Length3(common.Sub3(cam.Position(), a.Focus)), 1e-4)
	assert.Len(t, a.SceneOptions(), 3)
}

func TestBuildSceneFromAssets(t *testing.T) {
	l := NewLoader()
	doc, err := l.Load(filepath.Join("testdata", "courtyard.yaml"))
	require.NoError(t, err)
	a, err := l.Build(doc)
	require.NoError(t, err)

	settings := DefaultSettings()
	cascades, err := settings.CascadeManager(40)
	require.NoError(t, err)
	opts := append(a.SceneOptions(), settings.SceneOptions()...)
	opts = append(opts, scene.WithCascadeManager(cascades))
	s, err := scene.NewScene(a.Objects, a.Meshes, opts...)
	require.NoError(t, err)
	defer s.Release()

	s.Update(0.016)
	assert.Equal(t, "courtyard", s.Name())
	assert.Equal(t, []int{2}, []int(s.Queues().Alpha))
	assert.Len(t, s.ShadowQueues(), settings.Cascades)
	assert.Equal(t, s.Bounds(), a.Bounds())
}

func TestSettings(t *testing.T) {
	s, err := LoadSettings(filepath.Join("testdata", "settings.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 3, s.FrameCount)
	assert.Equal(t, 3, s.Cascades)
	assert.Equal(t, 512, s.ShadowMapSize)
	assert.Equal(t, float32(0.85), s.TAA.BlendFactor)
	assert.True(t, s.TAA.VelocityWeighted)
	assert.Equal(t, float32(0.25), s.ExposureKey)

	// Unset keys keep their defaults.
	d := DefaultSettings()
	assert.Equal(t, d.TAA.RejectThreshold, s.TAA.RejectThreshold)
	assert.Equal(t, d.SplitBlend, s.SplitBlend)
	assert.Equal(t, frame.DefaultFrameCount, d.FrameCount)
	require.NoError(t, d.Validate())

	m, err := s.CascadeManager(100)
	require.NoError(t, err)
	assert.Equal(t, 3, m.NumCascades())
	assert.Equal(t, 512, m.ShadowMapSize())
	assert.Len(t, s.ChainOptions(), 5)
	assert.Len(t, s.RendererOptions(), 3)
	assert.Len(t, s.FrameOptions(), 1)
}

func TestParseSettingsErrors(t *testing.T) {
	cases := map[string]string{
		"frame count":  "frame_count: 4\n",
		"cascades":     "cascades: 9\n",
		"split blend":  "split_blend: 1.5\n",
		"loose":        "loose_coefficient: 0.5\n",
		"blend factor": "taa:\n  blend_factor: 2\n",
		"sharpen":      "sharpen:\n  radius: 5\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSettings([]byte(src))
			assert.ErrorIs(t, err, ErrInvalidSettings)
		})
	}

	_, err := ParseSettings([]byte("frame_cuont: 2\n"))
	assert.Error(t, err)

	s, err := ParseSettings(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}
