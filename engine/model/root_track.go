package model

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/chewxy/math32"
)

// Duration returns the time of the last keyframe across both channels.
func (r *RootTrack) Duration() float32 {
	var d float32
	if n := len(r.PositionKeys); n > 0 {
		d = r.PositionKeys[n-1].Time
	}
	if n := len(r.YawKeys); n > 0 {
		d = math32.Max(d, r.YawKeys[n-1].Time)
	}
	return d
}

// Sample returns the root position and yaw at time t. Times outside the track clamp
// to the first or last key unless the track loops.
//
// Parameters:
//   - t: the sample time in seconds
//
// Returns:
//   - common.Vec3: the root position
//   - float32: the yaw in radians
func (r *RootTrack) Sample(t float32) (common.Vec3, float32) {
	if d := r.Duration(); r.Loop && d > 0 {
		t = math32.Mod(t, d)
		if t < 0 {
			t += d
		}
	}
	return sampleVector(r.PositionKeys, t), sampleScalar(r.YawKeys, t)
}

// Positions returns every keyed root position.
func (r *RootTrack) Positions() []common.Vec3 {
	out := make([]common.Vec3, len(r.PositionKeys))
	for i, k := range r.PositionKeys {
		out[i] = k.Value
	}
	return out
}

// keySpan finds the pair of keys bracketing t and the blend weight between them.
func keySpan(n int, time func(int) float32, t float32) (int, int, float32) {
	if n == 1 || t <= time(0) {
		return 0, 0, 0
	}
	if t >= time(n-1) {
		return n - 1, n - 1, 0
	}
	i := 0
	for i+1 < n && time(i+1) <= t {
		i++
	}
	span := time(i+1) - time(i)
	if span <= 0 {
		return i + 1, i + 1, 0
	}
	return i, i + 1, (t - time(i)) / span
}

func sampleVector(keys []VectorKeyframe, t float32) common.Vec3 {
	if len(keys) == 0 {
		return common.Vec3{}
	}
	a, b, w := keySpan(len(keys), func(i int) float32 { return keys[i].Time }, t)
	va, vb := keys[a].Value, keys[b].Value
	return common.Vec3{
		common.Lerp(va[0], vb[0], w),
		common.Lerp(va[1], vb[1], w),
		common.Lerp(va[2], vb[2], w),
	}
}

func sampleScalar(keys []ScalarKeyframe, t float32) float32 {
	if len(keys) == 0 {
		return 0
	}
	a, b, w := keySpan(len(keys), func(i int) float32 { return keys[i].Time }, t)
	return common.Lerp(keys[a].Value, keys[b].Value, w)
}
