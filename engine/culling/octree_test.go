package culling

import (
	"math/rand"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cameraViewProj(eye, target common.Vec3, far float32) common.Mat4 {
	var view, proj common.Mat4
	common.LookAt(view[:], eye[0], eye[1], eye[2], target[0], target[1], target[2], 0, 1, 0)
	common.Perspective(proj[:], math32.Pi/3, 16.0/9.0, 0.1, far)
	return common.Mul(proj, view)
}

func randomObjects(r *rand.Rand, n int, spread float32) []common.BoundingVolume {
	out := make([]common.BoundingVolume, n)
	for i := range out {
		c := common.Vec3{
			(r.Float32()*2 - 1) * spread,
			(r.Float32()*2 - 1) * spread,
			(r.Float32()*2 - 1) * spread,
		}
		e := common.Vec3{r.Float32() * 2, r.Float32() * 2, r.Float32() * 2}
		if i%17 == 0 {
			e = common.Vec3{}
		}
		out[i] = common.NewBoundingVolume(c, e)
	}
	return out
}

func TestBuild_EmptyInput(t *testing.T) {
	tree, err := Build(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyBuild)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, 0, buildErr.Count)

	require.NotNil(t, tree)
	assert.Equal(t, 1, tree.NodeCount())
	assert.True(t, tree.Root().IsLeaf())

	ctx := NewCullContext(cameraViewProj(common.Vec3{0, 0, 10}, common.Vec3{}, 100))
	assert.Equal(t, Inside, tree.Classify(tree.Root(), &ctx.Frustum))
	assert.Zero(t, tree.Cull(ctx).Len())
}

func TestBuild_EveryObjectStoredOnce(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	objects := randomObjects(r, 500, 50)

	for _, loose := range []float32{1, 1.5, 2} {
		tree, err := Build(objects, WithLooseCoefficient(loose), WithSplitThreshold(4), WithMaxDepth(6))
		require.NoError(t, err)

		seen := make(map[int]int)
		tree.Walk(func(n *Node) {
			assert.LessOrEqual(t, n.Depth(), 6)
			for _, i := range n.Objects() {
				seen[i]++
				assert.True(t, objects[i].ContainedIn(n.Center(), n.HalfSize()*tree.LooseCoefficient()),
					"object %d escapes its node", i)
			}
		})
		assert.Len(t, seen, len(objects))
		for i, c := range seen {
			assert.Equal(t, 1, c, "object %d stored %d times", i, c)
		}
	}
}

func TestBuild_LooseCoefficientClamped(t *testing.T) {
	tree, err := Build([]common.BoundingVolume{common.NewBoundingVolume(common.Vec3{}, common.Vec3{1, 1, 1})}, WithLooseCoefficient(0.25))
	require.NoError(t, err)
	assert.Equal(t, float32(1), tree.LooseCoefficient())
}

func TestCull_Soundness(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	objects := randomObjects(r, 800, 60)
	tree, err := Build(objects, WithLooseCoefficient(1.5))
	require.NoError(t, err)

	for trial := 0; trial < 8; trial++ {
		eye := common.Vec3{(r.Float32()*2 - 1) * 80, (r.Float32()*2 - 1) * 20, (r.Float32()*2 - 1) * 80}
		ctx := NewCullContext(cameraViewProj(eye, common.Vec3{}, 70))
		visible := tree.Cull(ctx)

		got := make(map[int]int)
		for _, e := range visible.Entries {
			got[e.Object]++
		}

		// Nothing below an Outside node is reported.
		var pruned func(n *Node)
		pruned = func(n *Node) {
			if tree.Classify(n, &ctx.Frustum) == Outside {
				n.walk(func(m *Node) {
					for _, i := range m.Objects() {
						assert.Zero(t, got[i], "object %d under an outside node is visible", i)
					}
				})
				return
			}
			for i := 0; i < 8; i++ {
				if c := n.Child(i); c != nil {
					pruned(c)
				}
			}
		}
		pruned(tree.Root())

		// Every object fully inside the frustum is reported exactly once.
		for i, b := range objects {
			if ctx.Frustum.ClassifyAABB(b.Center, b.Extents) == Inside {
				assert.Equal(t, 1, got[i], "inside object %d", i)
			}
			assert.LessOrEqual(t, got[i], 1, "object %d duplicated", i)
		}
		assert.Equal(t, len(visible.Entries), ctx.Stats.Visible)
	}
}

func TestCull_CubeOutsideFrustum(t *testing.T) {
	cube := common.NewBoundingVolume(common.Vec3{0, 0, 50}, common.Vec3{1, 1, 1})
	tree, err := Build([]common.BoundingVolume{cube})
	require.NoError(t, err)

	// The camera looks down -Z from the origin, away from the cube.
	ctx := NewCullContext(cameraViewProj(common.Vec3{}, common.Vec3{0, 0, -1}, 100))
	queue := tree.Sort(tree.Cull(ctx), ctx.ViewProjection, true)
	assert.Empty(t, queue)
}

func TestSort_AlphaBackToFront(t *testing.T) {
	objects := make([]common.BoundingVolume, 10)
	for i := range objects {
		objects[i] = common.NewBoundingVolume(common.Vec3{0, 0, float32(i + 1)}, common.Vec3{0.2, 0.2, 0.2})
	}
	tree, err := Build(objects, WithQueue(QueueAlpha), WithSplitThreshold(2))
	require.NoError(t, err)

	// Looking down +Z from just behind the origin.
	ctx := NewCullContext(cameraViewProj(common.Vec3{0, 0, -0.5}, common.Vec3{0, 0, 1}, 100))
	queue := tree.Sort(tree.Cull(ctx), ctx.ViewProjection, false)

	assert.Equal(t, DrawQueue{9, 8, 7, 6, 5, 4, 3, 2, 1, 0}, queue)
}

func TestSort_AlphaMonotonicWithStableTies(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	objects := randomObjects(r, 300, 30)
	// Duplicate centers so ties have to fall back to the original index.
	for i := 100; i < 120; i++ {
		objects[i] = objects[i-100]
	}
	tree, err := Build(objects, WithQueue(QueueAlpha))
	require.NoError(t, err)

	vp := cameraViewProj(common.Vec3{0, 10, 70}, common.Vec3{}, 200)
	ctx := NewCullContext(vp)
	queue := tree.Sort(tree.Cull(ctx), vp, false)
	require.NotEmpty(t, queue)

	for i := 1; i < len(queue); i++ {
		prev := viewDepth(vp, objects[queue[i-1]].Center)
		cur := viewDepth(vp, objects[queue[i]].Center)
		assert.GreaterOrEqual(t, prev, cur)
		if prev == cur {
			assert.Less(t, queue[i-1], queue[i])
		}
	}
}

func TestSortQueues_ReportsIDs(t *testing.T) {
	opaqueObjects := []common.BoundingVolume{
		common.NewBoundingVolume(common.Vec3{0, 0, -5}, common.Vec3{1, 1, 1}),
		common.NewBoundingVolume(common.Vec3{0, 0, -20}, common.Vec3{1, 1, 1}),
	}
	alphaObjects := []common.BoundingVolume{
		common.NewBoundingVolume(common.Vec3{0, 0, -3}, common.Vec3{0.5, 0.5, 0.5}),
		common.NewBoundingVolume(common.Vec3{0, 0, -9}, common.Vec3{0.5, 0.5, 0.5}),
	}
	opaque, err := Build(opaqueObjects, WithIDs([]int{10, 11}))
	require.NoError(t, err)
	alpha, err := Build(alphaObjects, WithIDs([]int{12, 13}), WithQueue(QueueAlpha))
	require.NoError(t, err)

	ctx := NewCullContext(cameraViewProj(common.Vec3{0, 0, 5}, common.Vec3{}, 100))
	q := SortQueues(opaque, alpha, ctx, false)

	assert.ElementsMatch(t, DrawQueue{10, 11}, q.Opaque)
	assert.Equal(t, DrawQueue{13, 12}, q.Alpha)
	assert.Equal(t, 4, ctx.Stats.Visible)
}

func TestComputeFrustumBounds(t *testing.T) {
	vp := cameraViewProj(common.Vec3{}, common.Vec3{0, 0, -1}, 10)
	b := ComputeFrustumBounds(common.Inverse(vp))
	assert.InDelta(t, -10, b.Min()[2], 1e-2)
	assert.InDelta(t, -0.1, b.Max()[2], 1e-2)
}
