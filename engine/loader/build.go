package loader

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/chewxy/math32"
)

const degToRad = math32.Pi / 180

// Assets are the runtime objects built from a Document.
type Assets struct {
	Name    string
	Objects []model.Renderable
	Meshes  *model.MeshTable
	Light   light.Light

	// Focus and ViewDistance place the initial camera. HasFocus is false when the
	// document leaves the camera to the scene.
	Focus        common.Vec3
	ViewDistance float32
	HasFocus     bool
}

// Camera returns an orbit camera looking at the document's focus point from its view
// distance, or nil when the document sets no focus.
//
// Parameters:
//   - options: additional camera options
//
// Returns:
//   - camera.Camera: the camera
func (a *Assets) Camera(options ...camera.CameraBuilderOption) camera.Camera {
	if !a.HasFocus {
		return nil
	}
	dist := a.ViewDistance
	if dist <= 0 {
		dist = 10
	}
	ctrl := camera.NewCameraController(
		camera.WithTarget(a.Focus),
		camera.WithRadius(dist),
		camera.WithRadiusBounds(dist*0.05, dist*20),
	)
	options = append([]camera.CameraBuilderOption{camera.WithController(ctrl), camera.WithFar(dist * 20)}, options...)
	return camera.NewCamera(options...)
}

// Bounds returns the union of every object's bounds.
func (a *Assets) Bounds() common.BoundingVolume {
	var b common.BoundingVolume
	for i, obj := range a.Objects {
		if i == 0 {
			b = obj.Bounds()
			continue
		}
		b = b.Union(obj.Bounds())
	}
	return b
}

// SceneOptions returns the scene options the assets imply: name, light, and camera.
func (a *Assets) SceneOptions(options ...camera.CameraBuilderOption) []scene.SceneBuilderOption {
	opts := []scene.SceneBuilderOption{scene.WithName(a.Name), scene.WithLight(a.Light)}
	if cam := a.Camera(options...); cam != nil {
		opts = append(opts, scene.WithCamera(cam))
	}
	return opts
}

func (l *loader) Build(doc *Document) (*Assets, error) {
	meshes := model.NewMeshTable()

	// Sorted so mesh indices do not depend on map order.
	names := make([]string, 0, len(doc.Meshes))
	for name := range doc.Meshes {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		meshes.Add(buildMesh(name, doc.Meshes[name]))
	}

	a := &Assets{Name: doc.Name, Meshes: meshes, Light: buildLight(doc)}
	if doc.Global.Focus != nil {
		a.Focus = *doc.Global.Focus
		a.ViewDistance = doc.Global.ViewDistance
		a.HasFocus = true
	}

	for _, spec := range doc.Objects {
		obj, err := buildObject(len(a.Objects), spec, meshes)
		if err != nil {
			return nil, err
		}
		a.Objects = append(a.Objects, obj)
	}
	for _, spec := range doc.Characters {
		obj, err := buildCharacter(len(a.Objects), spec, meshes)
		if err != nil {
			return nil, err
		}
		a.Objects = append(a.Objects, obj)
	}

	loaderLog.Infof("built scene %q: %d meshes, %d objects", a.Name, meshes.Len(), len(a.Objects))
	return a, nil
}

func buildMesh(name string, spec MeshSpec) *renderer.Mesh {
	ext := common.Vec3{0.5, 0.5, 0.5}
	if spec.Extents != nil {
		ext = *spec.Extents
	}
	switch spec.Primitive {
	case "sphere":
		radius := spec.Radius
		if radius <= 0 {
			radius = 0.5
		}
		return renderer.NewSphereMesh(name, radius, max(spec.Rings, 12), max(spec.Segments, 24))
	case "plane":
		if spec.Extents == nil {
			ext = common.Vec3{1, 0, 1}
		}
		return renderer.NewPlaneMesh(name, ext[0], ext[2])
	case "box":
		return renderer.NewBoxMesh(name, ext)
	}
	loaderLog.Warningf("mesh %q: %q is not parsed, drawing its extents as a box", name, spec.File)
	return renderer.NewBoxMesh(name, ext)
}

func buildLight(doc *Document) light.Light {
	ls := doc.Lighting
	var opts []light.LightBuilderOption
	if ls.Direction != nil {
		d := *ls.Direction
		opts = append(opts, light.WithDirection(d[0], d[1], d[2]))
	}
	if len(ls.Color) >= 3 {
		opts = append(opts, light.WithColor(ls.Color[0], ls.Color[1], ls.Color[2]))
	}
	if ls.Intensity != nil {
		opts = append(opts, light.WithIntensity(*ls.Intensity))
	}
	if len(ls.Ambient) >= 3 {
		opts = append(opts, light.WithAmbient(ls.Ambient[0], ls.Ambient[1], ls.Ambient[2]))
	}
	if ls.CastsShadows != nil {
		opts = append(opts, light.WithCastsShadows(*ls.CastsShadows))
	}
	ibl := true
	if doc.Global.IBL != nil {
		ibl = *doc.Global.IBL
	}
	opts = append(opts, light.WithIBL(ibl))
	return light.NewLight(opts...)
}

func buildMaterial(spec MaterialSpec) model.Material {
	m := model.DefaultMaterial
	if spec.Name != "" {
		m.Name = spec.Name
	}
	if len(spec.BaseColor) >= 3 {
		m.BaseColor = common.Color{spec.BaseColor[0], spec.BaseColor[1], spec.BaseColor[2], 1}
		if len(spec.BaseColor) == 4 {
			m.BaseColor[3] = spec.BaseColor[3]
		}
	}
	if spec.Metallic != nil {
		m.Metallic = *spec.Metallic
	}
	if spec.Roughness != nil {
		m.Roughness = *spec.Roughness
	}
	if spec.AlphaCutoff != nil {
		m.AlphaCutoff = *spec.AlphaCutoff
	}
	return m
}

func transform(pos, rotDeg common.Vec3, scale *common.Vec3) common.Mat4 {
	s := common.Vec3{1, 1, 1}
	if scale != nil {
		s = *scale
	}
	var m common.Mat4
	common.BuildModelMatrix(m[:], pos[0], pos[1], pos[2],
		rotDeg[0]*degToRad, rotDeg[1]*degToRad, rotDeg[2]*degToRad, s[0], s[1], s[2])
	return m
}

func castsShadow(v *bool, class model.MaterialClass) bool {
	if v != nil {
		return *v
	}
	return !class.Blended()
}

func buildObject(index int, spec ObjectSpec, meshes *model.MeshTable) (model.Renderable, error) {
	class, err := model.ParseMaterialClass(spec.Class)
	if err != nil {
		return nil, fmt.Errorf("%w: object %q: %w", ErrInvalidDocument, spec.Name, err)
	}
	ref, err := meshes.Resolve(model.NamedMesh(spec.Mesh))
	if err != nil {
		return nil, fmt.Errorf("%w: object %q: %w", ErrInvalidDocument, spec.Name, err)
	}
	world := transform(spec.Position, spec.Rotation, spec.Scale)

	var bounds common.BoundingVolume
	if spec.Bounds != nil {
		bounds = common.NewBoundingVolume(spec.Bounds.Center, spec.Bounds.Extents)
	} else {
		bounds = meshes.Mesh(ref).Bounds().Transform(world)
	}

	return model.New(index, model.GeometryBatch{
		Name:        spec.Name,
		Bounds:      bounds,
		Transform:   world,
		Class:       class,
		Material:    buildMaterial(spec.Material),
		Mesh:        ref,
		CastsShadow: castsShadow(spec.CastsShadow, class),
	}, meshes)
}

func buildCharacter(index int, spec CharacterSpec, meshes *model.MeshTable) (model.Renderable, error) {
	class, err := model.ParseMaterialClass(spec.Class)
	if err != nil {
		return nil, fmt.Errorf("%w: character %q: %w", ErrInvalidDocument, spec.Name, err)
	}
	if spec.Animation != "" {
		loaderLog.Debugf("character %q: animation %q is not parsed, using the root track", spec.Name, spec.Animation)
	}

	track := model.RootTrack{Loop: spec.Track.Loop}
	for _, k := range spec.Track.Positions {
		track.PositionKeys = append(track.PositionKeys, model.VectorKeyframe{Time: k.Time, Value: k.Value})
	}
	for _, k := range spec.Track.Yaw {
		track.YawKeys = append(track.YawKeys, model.ScalarKeyframe{Time: k.Time, Value: k.Value * degToRad})
	}
	slices.SortStableFunc(track.PositionKeys, func(a, b model.VectorKeyframe) int { return cmp.Compare(a.Time, b.Time) })
	slices.SortStableFunc(track.YawKeys, func(a, b model.ScalarKeyframe) int { return cmp.Compare(a.Time, b.Time) })

	links := make([]model.BoneLink, 0, len(spec.Bones))
	for _, b := range spec.Bones {
		links = append(links, model.BoneLink{Bone: b.Bone, Mesh: model.NamedMesh(b.Mesh), Offset: b.Offset})
	}

	obj, err := model.New(index, model.GeometryBatch{
		Name:        spec.Name,
		Transform:   transform(spec.Position, spec.Rotation, spec.Scale),
		Class:       class,
		Material:    buildMaterial(spec.Material),
		Mesh:        model.NamedMesh(spec.Mesh),
		CastsShadow: castsShadow(spec.CastsShadow, class),
	}, meshes, model.WithRootTrack(track), model.WithBoneLinks(links))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return obj, nil
}
