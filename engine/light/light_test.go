package light

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/stretchr/testify/assert"
)

func TestNewLightDefaults(t *testing.T) {
	l := NewLight()
	assert.Equal(t, common.Vec3{0, -1, 0}, l.Direction())
	assert.True(t, l.Enabled())
	assert.True(t, l.CastsShadows())
	assert.True(t, l.IBL())
}

func TestParamsRespectEnabled(t *testing.T) {
	l := NewLight(WithColor(1, 0.5, 0.25), WithIntensity(2))
	assert.Equal(t, common.Vec3{2, 1, 0.5}, l.Params().Radiance)

	l.SetEnabled(false)
	p := l.Params()
	assert.False(t, p.CastsShadows)
	assert.Equal(t, common.Vec3{}, p.Radiance)
}

func TestSetDirectionNormalizes(t *testing.T) {
	l := NewLight()
	l.SetDirection(0, 0, -4)
	dir := l.Direction()
	assert.InDeltaSlice(t, []float32{0, 0, -1}, dir[:], 1e-6)
}
