package culling

import (
	"cmp"
	"slices"

	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// CullStats counts the work done by one Cull call.
type CullStats struct {
	NodesVisited  int
	NodesCulled   int
	ObjectsTested int
	Visible       int
}

// CullContext carries everything a cull and sort needs for one view. A context belongs
// to one goroutine; reuse it across frames to keep its scratch buffers.
type CullContext struct {
	// Frustum holds the view's planes.
	Frustum common.Frustum

	// ViewProjection is the matrix the planes and depth keys come from.
	ViewProjection common.Mat4

	// FrustumBounds is the world-space box around the frustum, used to reject nodes
	// before the plane test.
	FrustumBounds common.BoundingVolume

	// Stats is reset by every Cull.
	Stats CullStats

	entries []Entry
}

// NewCullContext prepares a context for the view described by viewProj.
//
// Parameters:
//   - viewProj: the view-projection matrix
//
// Returns:
//   - *CullContext: the context
func NewCullContext(viewProj common.Mat4) *CullContext {
	ctx := &CullContext{}
	ctx.Reset(viewProj)
	return ctx
}

// Reset points the context at a new view, keeping its scratch buffers.
func (c *CullContext) Reset(viewProj common.Mat4) {
	c.ViewProjection = viewProj
	c.Frustum = common.ExtractFrustumFromMatrix(viewProj[:])
	b := ComputeFrustumBounds(common.Inverse(viewProj))
	// Slack for the precision lost inverting the projection.
	b.Extents = common.Add3(common.Scale3(b.Extents, 1.001), common.Vec3{1e-3, 1e-3, 1e-3})
	c.FrustumBounds = b
	c.Stats = CullStats{}
}

// ComputeFrustumBounds returns the world-space box enclosing the clip volume.
//
// Parameters:
//   - viewProjInverse: the inverse view-projection matrix
//
// Returns:
//   - common.BoundingVolume: the bounds
func ComputeFrustumBounds(viewProjInverse common.Mat4) common.BoundingVolume {
	corners := common.FrustumCorners(viewProjInverse)
	return common.BoundsFromPoints(corners[:])
}

// Entry is one visible object and the depth of the node it was found in.
type Entry struct {
	Object    int
	NodeDepth float32
}

// VisibleSet lists the objects that passed culling, in traversal order.
type VisibleSet struct {
	Entries []Entry
}

// Len returns the number of visible objects.
func (v VisibleSet) Len() int { return len(v.Entries) }

// DrawQueue is an ordered list of object ids.
type DrawQueue []int

// Queues holds the draw queues of one view.
type Queues struct {
	Opaque DrawQueue
	Alpha  DrawQueue
}

// Cull collects the objects of t visible in ctx. Outside nodes are pruned with their
// whole subtree, Inside nodes contribute every object below them untested, and
// Intersecting nodes test their own objects and recurse. Children are visited nearest
// first so the traversal order is already roughly front to back.
//
// Parameters:
//   - ctx: the view
//
// Returns:
//   - VisibleSet: the visible objects; valid until the next Cull with ctx
func (t *Octree) Cull(ctx *CullContext) VisibleSet {
	ctx.Stats = CullStats{}
	ctx.entries = ctx.entries[:0]
	if len(t.bounds) > 0 {
		t.cullNode(ctx, t.root, false)
	}
	ctx.Stats.Visible = len(ctx.entries)
	return VisibleSet{Entries: ctx.entries}
}

func (t *Octree) cullNode(ctx *CullContext, n *Node, inside bool) {
	ctx.Stats.NodesVisited++
	key := viewDepth(ctx.ViewProjection, n.center)

	if !inside {
		loose := t.LooseBounds(n)
		if !overlaps(loose, ctx.FrustumBounds) {
			ctx.Stats.NodesCulled++
			return
		}
		switch t.Classify(n, &ctx.Frustum) {
		case Outside:
			ctx.Stats.NodesCulled++
			return
		case Inside:
			inside = true
		}
	}

	for _, i := range n.objects {
		if !inside {
			ctx.Stats.ObjectsTested++
			b := t.bounds[i]
			if ctx.Frustum.ClassifyAABB(b.Center, b.Extents) == Outside {
				continue
			}
		}
		ctx.entries = append(ctx.entries, Entry{Object: i, NodeDepth: key})
	}

	var order [8]int
	var keys [8]float32
	count := 0
	for oct, c := range n.children {
		if c == nil {
			continue
		}
		order[count] = oct
		keys[oct] = viewDepth(ctx.ViewProjection, c.center)
		count++
	}
	visit := order[:count]
	slices.SortFunc(visit, func(a, b int) int { return cmp.Compare(keys[a], keys[b]) })
	for _, oct := range visit {
		t.cullNode(ctx, n.children[oct], inside)
	}
}

func overlaps(a, b common.BoundingVolume) bool {
	for i := 0; i < 3; i++ {
		if a.Center[i]-a.Extents[i] > b.Center[i]+b.Extents[i] || a.Center[i]+a.Extents[i] < b.Center[i]-b.Extents[i] {
			return false
		}
	}
	return true
}

// viewDepth returns a key that grows with distance along the view direction: clip w for
// perspective projections and clip z for orthographic ones.
func viewDepth(viewProj common.Mat4, p common.Vec3) float32 {
	c := common.TransformVec4(viewProj, [4]float32{p[0], p[1], p[2], 1})
	if viewProj[3] == 0 && viewProj[7] == 0 && viewProj[11] == 0 {
		return c[2]
	}
	return c[3]
}

// Sort orders a visible set into a draw queue. Opaque trees sort by the depth of the
// node each object was found in; alpha trees sort by each object's own view depth.
// Ties keep ascending id order.
//
// Parameters:
//   - visible: the result of Cull on this tree
//   - viewProj: the view-projection depth is measured with
//   - nearToFar: true for front to back, false for back to front
//
// Returns:
//   - DrawQueue: object ids in draw order
func (t *Octree) Sort(visible VisibleSet, viewProj common.Mat4, nearToFar bool) DrawQueue {
	type keyed struct {
		id    int
		depth float32
	}
	items := make([]keyed, len(visible.Entries))
	for i, e := range visible.Entries {
		d := e.NodeDepth
		if t.queue == QueueAlpha {
			d = viewDepth(viewProj, t.bounds[e.Object].Center)
		}
		items[i] = keyed{id: t.ID(e.Object), depth: d}
	}

	slices.SortStableFunc(items, func(a, b keyed) int {
		c := cmp.Compare(a.depth, b.depth)
		if !nearToFar {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})

	out := make(DrawQueue, len(items))
	for i, it := range items {
		out[i] = it.id
	}
	return out
}

// SortQueues culls and sorts both trees for one view: opaque front to back, alpha back
// to front unless alphaNearToFar is set. Either tree may be nil.
//
// Parameters:
//   - opaque: the opaque tree
//   - alpha: the alpha tree
//   - ctx: the view
//   - alphaNearToFar: order the alpha queue front to back
//
// Returns:
//   - Queues: the draw queues
func SortQueues(opaque, alpha *Octree, ctx *CullContext, alphaNearToFar bool) Queues {
	var q Queues
	var stats CullStats
	if opaque != nil {
		q.Opaque = opaque.Sort(opaque.Cull(ctx), ctx.ViewProjection, true)
		stats = ctx.Stats
	}
	if alpha != nil {
		q.Alpha = alpha.Sort(alpha.Cull(ctx), ctx.ViewProjection, alphaNearToFar)
		stats.NodesVisited += ctx.Stats.NodesVisited
		stats.NodesCulled += ctx.Stats.NodesCulled
		stats.ObjectsTested += ctx.Stats.ObjectsTested
		stats.Visible += ctx.Stats.Visible
	}
	ctx.Stats = stats
	return q
}
