package culling

// OctreeBuilderOption is a functional option applied to an Octree during Build.
type OctreeBuilderOption func(*Octree)

// WithMaxDepth limits how deep the tree may subdivide.
//
// Parameters:
//   - depth: the deepest level, clamped to at least 0
//
// Returns:
//   - OctreeBuilderOption: a function that applies the depth limit
func WithMaxDepth(depth int) OctreeBuilderOption {
	return func(t *Octree) {
		t.maxDepth = max(depth, 0)
	}
}

// WithSplitThreshold sets the object count below which a node is not subdivided.
//
// Parameters:
//   - n: the threshold, clamped to at least 1
//
// Returns:
//   - OctreeBuilderOption: a function that applies the threshold
func WithSplitThreshold(n int) OctreeBuilderOption {
	return func(t *Octree) {
		t.splitThreshold = max(n, 1)
	}
}

// WithLooseCoefficient enlarges node test bounds so fewer objects straddling a
// boundary are kept at the parent.
//
// Parameters:
//   - k: the factor, clamped to at least 1
//
// Returns:
//   - OctreeBuilderOption: a function that applies the coefficient
func WithLooseCoefficient(k float32) OctreeBuilderOption {
	return func(t *Octree) {
		t.loose = max(k, 1)
	}
}

// WithQueue sets which draw queue the tree feeds, which selects how Sort orders it.
func WithQueue(q QueueType) OctreeBuilderOption {
	return func(t *Octree) {
		t.queue = q
	}
}

// WithIDs reports ids[i] instead of i for object i in draw queues.
func WithIDs(ids []int) OctreeBuilderOption {
	return func(t *Octree) {
		t.ids = ids
	}
}
