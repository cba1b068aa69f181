package scene

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/culling"
	"github.com/Carmen-Shannon/oxy-deferred/engine/deferred"
	"github.com/Carmen-Shannon/oxy-deferred/engine/frame"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/postprocess"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/log"
)

var sceneLog = log.New("scene")

// ErrObjectIndex is returned when an object's index does not match its position.
var ErrObjectIndex = errors.New("scene: object index does not match its position")

// Stats summarizes the culling work of the last Update.
type Stats struct {
	Objects       int
	VisibleOpaque int
	VisibleAlpha  int
	Culled        int
	ShadowCasters []int
	NodesVisited  int
	CascadeCount  int
	SceneTime     float32
	Paused        bool
}

// Scene owns the objects of a loaded scene and prepares each frame for the deferred
// renderer: it advances animation, updates the camera and shadow cascades, culls and
// sorts the view and every cascade, and records the frame's passes.
// It is used from the recording goroutine only.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Objects returns every renderable, indexed by Renderable.Index.
	Objects() []model.Renderable

	// Meshes returns the table the objects' meshes resolve against.
	Meshes() *model.MeshTable

	// Bounds returns the union of every object's bounds.
	Bounds() common.BoundingVolume

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Light returns the directional light.
	Light() light.Light

	// Cascades returns the shadow cascade manager.
	Cascades() light.CascadeManager

	// Time returns the scene time in seconds.
	Time() float32

	// Paused reports whether scene time is frozen.
	Paused() bool

	// SetPaused freezes or resumes scene time. The camera keeps updating while paused.
	SetPaused(paused bool)

	// TogglePause flips the paused state.
	TogglePause()

	// Update advances scene time by dt unless paused, then refreshes the camera, object
	// matrices, shadow cascades, and every draw queue.
	//
	// Parameters:
	//   - dt: elapsed time since the last frame in seconds
	Update(dt float32)

	// Queues returns the view's draw queues from the last Update.
	Queues() culling.Queues

	// ShadowQueues returns one draw queue per cascade from the last Update.
	ShadowQueues() []culling.DrawQueue

	// CascadeSet returns the cascades from the last Update. It is empty when the light
	// casts no shadows.
	CascadeSet() light.CascadeSet

	// Record records the deferred passes and the postprocess chain for the current
	// frame into cmd.
	//
	// Parameters:
	//   - cmd: the command list of the acquired frame slot
	//   - constants: the slot's constant arena, or nil
	//   - r: the deferred renderer
	//   - chain: the postprocess chain
	//   - dt: elapsed time since the last frame in seconds
	//
	// Returns:
	//   - *renderer.Target: the final LDR image, nil when nothing was rendered
	//   - error: renderer.ErrTargetCreation from lazily allocated shadow maps
	Record(cmd *renderer.CommandList, constants *frame.ConstantArena, r deferred.Renderer, chain postprocess.Chain, dt float32) (*renderer.Target, error)

	// Stats returns the culling statistics of the last Update.
	Stats() Stats

	// Release stops the culling workers.
	Release()
}

type scene struct {
	name    string
	objects []model.Renderable
	meshes  *model.MeshTable
	bounds  common.BoundingVolume

	camera   camera.Camera
	light    light.Light
	cascades light.CascadeManager

	opaque *culling.Octree
	alpha  *culling.Octree

	maxDepth       int
	splitThreshold int
	loose          float32

	viewCtx      *culling.CullContext
	cascadeCtx   []*culling.CullContext
	queues       culling.Queues
	shadowQueues []culling.DrawQueue
	set          light.CascadeSet

	cullWorkers int
	cullPool    worker.DynamicWorkerPool

	time   float32
	paused bool
	stats  Stats
}

var _ Scene = &scene{}

// NewScene builds the culling structures for objects. Opaque and alpha-tested objects
// go into one octree, blended objects into another. A scene with no objects of a class
// gets an empty, always-visible tree for it.
//
// Parameters:
//   - objects: the renderables; objects[i].Index() must be i
//   - meshes: the mesh table the objects resolve against
//   - options: variadic list of SceneBuilderOption functions
//
// Returns:
//   - Scene: the scene
//   - error: ErrObjectIndex, light.ErrTooManyCascades, or a culling build error
func NewScene(objects []model.Renderable, meshes *model.MeshTable, options ...SceneBuilderOption) (Scene, error) {
	s := &scene{
		name:           "scene",
		objects:        objects,
		meshes:         meshes,
		maxDepth:       8,
		splitThreshold: 4,
		loose:          1,
		cullWorkers:    2,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.light == nil {
		s.light = light.NewLight()
	}

	var opaqueBounds, alphaBounds []common.BoundingVolume
	var opaqueIDs, alphaIDs []int
	for i, obj := range objects {
		if obj.Index() != i {
			return nil, fmt.Errorf("%w: %q has index %d at position %d", ErrObjectIndex, obj.Name(), obj.Index(), i)
		}
		b := obj.Bounds()
		if i == 0 {
			s.bounds = b
		} else {
			s.bounds = s.bounds.Union(b)
		}
		if obj.Class().Blended() {
			alphaBounds = append(alphaBounds, b)
			alphaIDs = append(alphaIDs, i)
		} else {
			opaqueBounds = append(opaqueBounds, b)
			opaqueIDs = append(opaqueIDs, i)
		}
	}

	if s.camera == nil {
		s.camera = DefaultCamera(s.bounds)
	}

	var err error
	if s.opaque, err = s.buildTree(opaqueBounds, opaqueIDs, culling.QueueOpaque); err != nil {
		return nil, err
	}
	if s.alpha, err = s.buildTree(alphaBounds, alphaIDs, culling.QueueAlpha); err != nil {
		return nil, err
	}

	if s.cascades == nil {
		s.cascades = light.NewCascadeManager()
		size := max(s.bounds.Extents[0], s.bounds.Extents[1], s.bounds.Extents[2]) * 2
		if err := s.cascades.Init(size, light.ShadowMapResolution, light.DefaultCascadeCount); err != nil {
			return nil, err
		}
	}
	s.cascades.SetSceneBounds(s.bounds)

	s.viewCtx = culling.NewCullContext(common.IdentityMat4())
	if s.cullWorkers > 1 {
		s.cullPool = worker.NewDynamicWorkerPool(s.cullWorkers, light.MaxCascades*2, time.Second)
	}

	sceneLog.Infof("scene %q: %d opaque, %d blended, %d+%d octree nodes", s.name,
		len(opaqueIDs), len(alphaIDs), s.opaque.NodeCount(), s.alpha.NodeCount())
	return s, nil
}

// DefaultCamera returns a camera orbiting the center of bounds from far enough away to
// see all of it.
//
// Parameters:
//   - bounds: the region to frame
//
// Returns:
//   - camera.Camera: the camera with an attached orbit controller
func DefaultCamera(bounds common.BoundingVolume) camera.Camera {
	radius := max(common.Length3(bounds.Extents)*2, 1)
	ctrl := camera.NewCameraController(
		camera.WithTarget(bounds.Center),
		camera.WithRadius(radius),
		camera.WithRadiusBounds(radius*0.05, radius*10),
	)
	return camera.NewCamera(camera.WithController(ctrl), camera.WithFar(radius*4))
}

func (s *scene) buildTree(bounds []common.BoundingVolume, ids []int, q culling.QueueType) (*culling.Octree, error) {
	t, err := culling.Build(bounds,
		culling.WithIDs(ids),
		culling.WithQueue(q),
		culling.WithMaxDepth(s.maxDepth),
		culling.WithSplitThreshold(s.splitThreshold),
		culling.WithLooseCoefficient(s.loose),
	)
	if err != nil {
		if !errors.Is(err, culling.ErrEmptyBuild) {
			return nil, fmt.Errorf("scene: building %s octree: %w", q, err)
		}
		sceneLog.Debugf("no %s objects, using an empty octree", q)
	}
	return t, nil
}

func (s *scene) Name() string                      { return s.name }
func (s *scene) Objects() []model.Renderable       { return s.objects }
func (s *scene) Meshes() *model.MeshTable          { return s.meshes }
func (s *scene) Bounds() common.BoundingVolume     { return s.bounds }
func (s *scene) Camera() camera.Camera             { return s.camera }
func (s *scene) Light() light.Light                { return s.light }
func (s *scene) Cascades() light.CascadeManager    { return s.cascades }
func (s *scene) Time() float32                     { return s.time }
func (s *scene) Paused() bool                      { return s.paused }
func (s *scene) Queues() culling.Queues            { return s.queues }
func (s *scene) ShadowQueues() []culling.DrawQueue { return s.shadowQueues }
func (s *scene) CascadeSet() light.CascadeSet      { return s.set }
func (s *scene) Stats() Stats                      { return s.stats }

func (s *scene) SetCamera(cam camera.Camera) {
	if cam == nil {
		panic("scene: SetCamera requires a camera")
	}
	s.camera = cam
}

func (s *scene) SetPaused(paused bool) {
	s.paused = paused
}

func (s *scene) TogglePause() {
	s.paused = !s.paused
	sceneLog.Debugf("scene time paused: %t", s.paused)
}

func (s *scene) Update(dt float32) {
	if !s.paused {
		s.time += dt
	}
	for _, obj := range s.objects {
		obj.Update(s.time)
	}

	s.camera.Update()
	vp := s.camera.UnjitteredViewProjectionMatrix()
	for _, obj := range s.objects {
		obj.SetMatrices(vp)
	}

	s.set = light.CascadeSet{}
	if s.light.Enabled() && s.light.CastsShadows() {
		s.cascades.Update(s.camera.ViewMatrix(), s.camera.UnjitteredProjectionMatrix(), s.camera.Near(), s.camera.Far(), s.light.Direction())
		s.set = s.cascades.ShadowMatrices()
	}

	s.viewCtx.Reset(vp)
	s.queues = culling.SortQueues(s.opaque, s.alpha, s.viewCtx, false)
	s.cullCascades()

	s.stats = Stats{
		Objects:       len(s.objects),
		VisibleOpaque: len(s.queues.Opaque),
		VisibleAlpha:  len(s.queues.Alpha),
		Culled:        len(s.objects) - len(s.queues.Opaque) - len(s.queues.Alpha),
		NodesVisited:  s.viewCtx.Stats.NodesVisited,
		CascadeCount:  s.set.Len(),
		SceneTime:     s.time,
		Paused:        s.paused,
	}
	for _, q := range s.shadowQueues {
		s.stats.ShadowCasters = append(s.stats.ShadowCasters, len(q))
	}
}

// cullCascades culls the opaque tree in each cascade's light space. Each cascade has
// its own CullContext so the cascades are culled concurrently.
func (s *scene) cullCascades() {
	n := s.set.Len()
	for len(s.cascadeCtx) < n {
		s.cascadeCtx = append(s.cascadeCtx, culling.NewCullContext(common.IdentityMat4()))
	}
	s.shadowQueues = s.shadowQueues[:0]
	if n == 0 {
		return
	}
	queues := make([]culling.DrawQueue, n)

	cull := func(i int) {
		ctx := s.cascadeCtx[i]
		ctx.Reset(s.set.Cascades[i].ViewProjection)
		q := s.opaque.Sort(s.opaque.Cull(ctx), ctx.ViewProjection, true)
		casters := q[:0]
		for _, id := range q {
			if s.objects[id].CastsShadow() {
				casters = append(casters, id)
			}
		}
		queues[i] = casters
	}

	if s.cullPool == nil || n == 1 {
		for i := 0; i < n; i++ {
			cull(i)
		}
	} else {
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			s.cullPool.SubmitTask(worker.Task{
				ID: i,
				Do: func() (any, error) {
					defer wg.Done()
					cull(i)
					return nil, nil
				},
			})
		}
		wg.Wait()
	}
	s.shadowQueues = append(s.shadowQueues, queues...)
}

func (s *scene) Record(cmd *renderer.CommandList, constants *frame.ConstantArena, r deferred.Renderer, chain postprocess.Chain, dt float32) (*renderer.Target, error) {
	if r.Extent().IsZero() {
		return nil, nil
	}
	cam := s.camera
	r.BeginFrame(deferred.View{
		Objects:        s.objects,
		View:           cam.ViewMatrix(),
		ViewProjection: cam.ViewProjectionMatrix(),
		Unjittered:     cam.UnjitteredViewProjectionMatrix(),
		Eye:            cam.Position(),
		Constants:      constants,
	})
	if constants != nil {
		uniform := cam.Constants()
		constants.Push(&uniform)
	}

	lp := s.light.Params()
	r.RenderGBuffer(cmd, s.queues.Opaque, s.set)
	if _, err := r.RenderShadowMaps(cmd, s.set, s.shadowQueues); err != nil {
		return nil, err
	}
	gbuf := r.GBuffer()
	gbuf.TransitionToRead(cmd)
	r.RenderAO(cmd, cam.UnjitteredProjectionMatrix())
	shaded := r.ComposeShading(cmd, gbuf, s.set, lp)
	r.RenderAlpha(cmd, s.queues.Alpha, s.set, lp)

	out, ok := chain.Process(cmd, postprocess.Inputs{
		Color:           shaded,
		Motion:          gbuf.Motion,
		Depth:           gbuf.Depth,
		PrevFromCurrent: common.Mul(cam.PrevViewProjectionMatrix(), cam.InverseViewProjectionMatrix()),
		DeltaTime:       dt,
	})
	if !ok {
		return nil, nil
	}
	return out, nil
}

func (s *scene) Release() {
	if s.cullPool != nil {
		s.cullPool.Stop()
		s.cullPool = nil
	}
}
