package deferred

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/chewxy/math32"
)

// EncodeNormal packs a unit vector into two components in [-1, 1] with an octahedral mapping.
//
// Parameters:
//   - n: the unit normal
//
// Returns:
//   - [2]float32: the encoded normal
func EncodeNormal(n common.Vec3) [2]float32 {
	l1 := math32.Abs(n[0]) + math32.Abs(n[1]) + math32.Abs(n[2])
	if l1 == 0 {
		return [2]float32{0, 0}
	}
	x, y := n[0]/l1, n[1]/l1
	if n[2] < 0 {
		x, y = (1-math32.Abs(y))*signNotZero(x), (1-math32.Abs(x))*signNotZero(y)
	}
	return [2]float32{x, y}
}

// DecodeNormal reverses EncodeNormal.
//
// Parameters:
//   - e: the encoded normal
//
// Returns:
//   - common.Vec3: the unit normal
func DecodeNormal(e [2]float32) common.Vec3 {
	n := common.Vec3{e[0], e[1], 1 - math32.Abs(e[0]) - math32.Abs(e[1])}
	if n[2] < 0 {
		n[0], n[1] = (1-math32.Abs(e[1]))*signNotZero(e[0]), (1-math32.Abs(e[0]))*signNotZero(e[1])
	}
	return common.Normalize3(n)
}

func signNotZero(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}
