package culling

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/log"
	"github.com/chewxy/math32"
)

var cullLog = log.New("culling")

// ErrEmptyBuild is wrapped by the BuildError returned when Build is given no objects.
var ErrEmptyBuild = errors.New("culling: no objects to build from")

// BuildError reports why an octree could not be built from its input. The tree returned
// alongside it is still usable.
type BuildError struct {
	Count int
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("culling: build over %d objects: %v", e.Count, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// QueueType names the draw queue an octree feeds.
type QueueType int

const (
	// QueueOpaque objects are sorted by node so early depth rejection does most of the work.
	QueueOpaque QueueType = iota
	// QueueAlpha objects are sorted exactly by view depth for back-to-front blending.
	QueueAlpha
)

func (q QueueType) String() string {
	if q == QueueAlpha {
		return "alpha"
	}
	return "opaque"
}

// Visibility is the result of testing a node or object against a frustum.
type Visibility = common.Containment

const (
	Outside      = common.Outside
	Inside       = common.Inside
	Intersecting = common.Intersecting
)

// Node is one cell of the octree. Its test bounds are the cube of half size
// HalfSize()*looseCoefficient around Center().
type Node struct {
	center   common.Vec3
	halfSize float32
	depth    int
	children [8]*Node
	objects  []int
}

// Center returns the cell center.
func (n *Node) Center() common.Vec3 { return n.center }

// HalfSize returns half the cell diameter.
func (n *Node) HalfSize() float32 { return n.halfSize }

// Depth returns the level of the node, 0 for the root.
func (n *Node) Depth() int { return n.depth }

// Objects returns the indices stored directly at this node.
func (n *Node) Objects() []int { return n.objects }

// Child returns the child in octant i (bit 0 x, bit 1 y, bit 2 z), or nil.
func (n *Node) Child(i int) *Node { return n.children[i] }

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	for _, c := range n.children {
		if c != nil {
			return false
		}
	}
	return true
}

func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		if c != nil {
			c.walk(fn)
		}
	}
}

// Octree is a static loose octree over object bounds.
type Octree struct {
	root   *Node
	bounds []common.BoundingVolume
	ids    []int

	maxDepth       int
	splitThreshold int
	loose          float32
	queue          QueueType

	nodeCount int
}

// Build partitions objects into a loose octree. Each object is stored in exactly one
// node: the deepest one along its center's octant path whose loose bounds contain it.
//
// Parameters:
//   - objects: world-space bounds, indexed by object
//   - options: a variadic list of OctreeBuilderOption functions
//
// Returns:
//   - *Octree: the tree; with no objects a single always-visible empty node
//   - error: a *BuildError wrapping ErrEmptyBuild when objects is empty
func Build(objects []common.BoundingVolume, options ...OctreeBuilderOption) (*Octree, error) {
	t := &Octree{
		bounds:         objects,
		maxDepth:       8,
		splitThreshold: 4,
		loose:          1,
	}
	for _, opt := range options {
		opt(t)
	}
	if t.ids != nil && len(t.ids) != len(objects) {
		return nil, fmt.Errorf("culling: %d ids for %d objects", len(t.ids), len(objects))
	}

	if len(objects) == 0 {
		t.root = &Node{}
		t.nodeCount = 1
		return t, &BuildError{Count: 0, Err: ErrEmptyBuild}
	}

	all := objects[0]
	for _, b := range objects[1:] {
		all = all.Union(b)
	}
	half := math32.Max(all.Extents[0], math32.Max(all.Extents[1], all.Extents[2]))
	// Pad so objects touching the scene boundary still fit the root.
	half = half*1.001 + 1e-4

	t.root = &Node{center: all.Center, halfSize: half}
	indices := make([]int, len(objects))
	for i := range indices {
		indices[i] = i
	}
	t.nodeCount = 1
	t.split(t.root, indices)

	cullLog.Debugf("built %s octree: %d objects, %d nodes, loose %.2f", t.queue, len(objects), t.nodeCount, t.loose)
	return t, nil
}

func (t *Octree) split(n *Node, indices []int) {
	if len(indices) < t.splitThreshold || n.depth >= t.maxDepth {
		n.objects = indices
		return
	}

	childHalf := n.halfSize / 2
	var lists [8][]int
	for _, i := range indices {
		b := t.bounds[i]
		oct := octant(n.center, b.Center)
		if b.ContainedIn(childCenter(n.center, childHalf, oct), childHalf*t.loose) {
			lists[oct] = append(lists[oct], i)
			continue
		}
		n.objects = append(n.objects, i)
	}

	for oct, list := range lists {
		if len(list) == 0 {
			continue
		}
		c := &Node{center: childCenter(n.center, childHalf, oct), halfSize: childHalf, depth: n.depth + 1}
		n.children[oct] = c
		t.nodeCount++
		t.split(c, list)
	}
}

func octant(center, p common.Vec3) int {
	oct := 0
	for axis := 0; axis < 3; axis++ {
		if p[axis] >= center[axis] {
			oct |= 1 << axis
		}
	}
	return oct
}

func childCenter(center common.Vec3, childHalf float32, oct int) common.Vec3 {
	out := center
	for axis := 0; axis < 3; axis++ {
		if oct&(1<<axis) != 0 {
			out[axis] += childHalf
		} else {
			out[axis] -= childHalf
		}
	}
	return out
}

// Root returns the root node.
func (t *Octree) Root() *Node { return t.root }

// Len returns the number of objects in the tree.
func (t *Octree) Len() int { return len(t.bounds) }

// NodeCount returns the number of nodes in the tree.
func (t *Octree) NodeCount() int { return t.nodeCount }

// Queue returns the draw queue this tree feeds.
func (t *Octree) Queue() QueueType { return t.queue }

// LooseCoefficient returns the factor node test bounds are enlarged by.
func (t *Octree) LooseCoefficient() float32 { return t.loose }

// ID returns the id reported for object index i.
func (t *Octree) ID(i int) int {
	if t.ids == nil {
		return i
	}
	return t.ids[i]
}

// Bounds returns the bounds of object index i.
func (t *Octree) Bounds(i int) common.BoundingVolume { return t.bounds[i] }

// Walk visits every node depth first.
func (t *Octree) Walk(fn func(*Node)) { t.root.walk(fn) }

// LooseBounds returns the test bounds of n.
func (t *Octree) LooseBounds(n *Node) common.BoundingVolume {
	h := n.halfSize * t.loose
	return common.BoundingVolume{Center: n.center, Extents: common.Vec3{h, h, h}}
}

// Classify tests the loose bounds of n against all six planes of f.
//
// Parameters:
//   - n: the node
//   - f: the frustum
//
// Returns:
//   - Visibility: Outside, Inside or Intersecting
func (t *Octree) Classify(n *Node, f *common.Frustum) Visibility {
	if n.halfSize == 0 {
		// The empty tree's root holds nothing and is always visible.
		return Inside
	}
	b := t.LooseBounds(n)
	return f.ClassifyAABB(b.Center, b.Extents)
}
