package renderer

import (
	"errors"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresentQueueKeepsEveryFrameInOrder(t *testing.T) {
	q := newPresentQueue(4)
	for i := 0; i < 3; i++ {
		require.True(t, q.push(packedFrame{extent: common.Extent{Width: i + 1, Height: 1}}))
	}

	var shown []uint64
	var widths []int
	require.NoError(t, q.drain(func(f packedFrame) error {
		shown = append(shown, f.frame)
		widths = append(widths, f.extent.Width)
		return nil
	}))
	assert.Equal(t, []uint64{1, 2, 3}, shown)
	assert.Equal(t, []int{1, 2, 3}, widths)

	require.NoError(t, q.drain(func(packedFrame) error {
		t.Fatal("drained an empty queue")
		return nil
	}))
}

func TestPresentQueueBlocksWhenFull(t *testing.T) {
	q := newPresentQueue(1)
	require.True(t, q.push(packedFrame{}))

	pushed := make(chan bool)
	go func() { pushed <- q.push(packedFrame{}) }()

	select {
	case <-pushed:
		t.Fatal("push returned while the queue was full")
	case <-time.After(50 * time.Millisecond):
	}

	var shown []uint64
	require.NoError(t, q.drain(func(f packedFrame) error {
		shown = append(shown, f.frame)
		return nil
	}))
	assert.True(t, <-pushed)
	require.NoError(t, q.drain(func(f packedFrame) error {
		shown = append(shown, f.frame)
		return nil
	}))
	assert.Equal(t, []uint64{1, 2}, shown)
}

func TestPresentQueueCloseReleasesProducer(t *testing.T) {
	q := newPresentQueue(1)
	require.True(t, q.push(packedFrame{}))

	pushed := make(chan bool)
	go func() { pushed <- q.push(packedFrame{}) }()
	q.close()
	assert.False(t, <-pushed)
	q.close()
}

func TestPresentQueueDrainStopsOnError(t *testing.T) {
	q := newPresentQueue(4)
	q.push(packedFrame{})
	q.push(packedFrame{})

	boom := errors.New("surface gone")
	calls := 0
	err := q.drain(func(packedFrame) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.Len(t, q.frames, 1)
}
