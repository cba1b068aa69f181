package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestProfiler(clock *fakeClock) *Profiler {
	return NewProfiler(WithClock(clock.now), WithMemoryStats(false), WithQuiet(true))
}

func TestTickReportsOncePerInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := newTestProfiler(clock)

	for i := 0; i < 9; i++ {
		clock.advance(100 * time.Millisecond)
		assert.False(t, p.Tick(Sample{DeltaTime: 100 * time.Millisecond, InFlight: 1}))
	}
	clock.advance(100 * time.Millisecond)
	require.True(t, p.Tick(Sample{DeltaTime: 100 * time.Millisecond, InFlight: 2, Visible: 5, Culled: 3}))

	st := p.Latest()
	assert.Equal(t, 10, st.Frames)
	assert.InDelta(t, 10.0, st.FPS, 1e-9)
	assert.Equal(t, 100*time.Millisecond, st.FrameTime)
	assert.Equal(t, 2, st.MaxInFlight)
	assert.InDelta(t, 1.1, st.AvgInFlight, 1e-9)
	assert.Equal(t, 5, st.Visible)
	assert.Equal(t, 3, st.Culled)
	assert.Equal(t, 1, p.Reports())
}

func TestWindowResetsAfterReport(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithClock(clock.now), WithInterval(500*time.Millisecond), WithMemoryStats(false), WithQuiet(true))

	clock.advance(500 * time.Millisecond)
	require.True(t, p.Tick(Sample{InFlight: 3}))

	clock.advance(250 * time.Millisecond)
	assert.False(t, p.Tick(Sample{}))
	clock.advance(250 * time.Millisecond)
	require.True(t, p.Tick(Sample{}))

	st := p.Latest()
	assert.Equal(t, 2, st.Frames)
	assert.InDelta(t, 4.0, st.FPS, 1e-9)
	assert.Zero(t, st.MaxInFlight)
	assert.Equal(t, 2, p.Reports())
}

func TestInvalidIntervalKeepsDefault(t *testing.T) {
	p := NewProfiler(WithInterval(-time.Second), WithQuiet(true))
	assert.Equal(t, DefaultInterval, p.interval)
}

func TestLastSample(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := newTestProfiler(clock)
	s := Sample{DeltaTime: time.Millisecond, InFlight: 1, Visible: 7}
	p.Tick(s)
	assert.Equal(t, s, p.Last())
	assert.Zero(t, p.Latest().Frames)
}
