package frame

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice completes submissions only when the test says so.
type fakeDevice struct {
	mu        sync.Mutex
	submitted []uint64
	completed uint64
	changed   chan struct{}
	finished  map[uint64]bool
	lost      bool
	resized   []common.Extent
	presents  int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{changed: make(chan struct{})}
}

func (d *fakeDevice) Backend() renderer.BackendType { return renderer.BackendSoft }

func (d *fakeDevice) CreateTarget(string, common.Extent, renderer.Format) (*renderer.Target, error) {
	return nil, nil
}

func (d *fakeDevice) Submit(_ *renderer.CommandList, signal uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lost {
		return renderer.ErrDeviceLost
	}
	d.submitted = append(d.submitted, signal)
	return nil
}

func (d *fakeDevice) CompletedValue() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.completed
}

func (d *fakeDevice) WaitForValue(ctx context.Context, value uint64) error {
	for {
		d.mu.Lock()
		if d.lost {
			d.mu.Unlock()
			return renderer.ErrDeviceLost
		}
		if d.completed >= value {
			d.mu.Unlock()
			return nil
		}
		ch := d.changed
		d.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (d *fakeDevice) Present(*renderer.Target) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lost {
		return renderer.ErrDeviceLost
	}
	d.presents++
	return nil
}

func (d *fakeDevice) Resize(e common.Extent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resized = append(d.resized, e)
	return nil
}

func (d *fakeDevice) ReadTarget(*renderer.Target, int) ([]byte, error) { return nil, nil }

func (d *fakeDevice) Release() {}

func (d *fakeDevice) complete(v uint64) {
	d.mu.Lock()
	if v > d.completed {
		d.completed = v
	}
	close(d.changed)
	d.changed = make(chan struct{})
	d.mu.Unlock()
}

// signal marks v finished in any order. The completed value only advances over an
// unbroken run of finished signals, the way a timeline fence reports progress.
func (d *fakeDevice) signal(v uint64) {
	d.mu.Lock()
	if d.finished == nil {
		d.finished = map[uint64]bool{}
	}
	d.finished[v] = true
	for d.finished[d.completed+1] {
		d.completed++
		delete(d.finished, d.completed)
	}
	close(d.changed)
	d.changed = make(chan struct{})
	d.mu.Unlock()
}

func (d *fakeDevice) lose() {
	d.mu.Lock()
	d.lost = true
	close(d.changed)
	d.changed = make(chan struct{})
	d.mu.Unlock()
}

func submitFrame(t *testing.T, p FramePipeline) *Slot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s, err := p.AcquireSlot(ctx)
	require.NoError(t, err)
	require.NoError(t, p.Submit(s, s.Commands()))
	return s
}

func TestFrameCountValidation(t *testing.T) {
	_, err := NewFramePipeline(newFakeDevice(), WithFrameCount(4))
	assert.ErrorIs(t, err, ErrFrameCount)
	_, err = NewFramePipeline(newFakeDevice(), WithFrameCount(1))
	assert.ErrorIs(t, err, ErrFrameCount)
	p, err := NewFramePipeline(newFakeDevice(), WithFrameCount(3))
	require.NoError(t, err)
	assert.Equal(t, 3, p.FrameCount())
}

func TestSlotsRotateWithMonotonicSignals(t *testing.T) {
	dev := newFakeDevice()
	p, err := NewFramePipeline(dev)
	require.NoError(t, err)

	s0 := submitFrame(t, p)
	s1 := submitFrame(t, p)
	assert.Equal(t, 0, s0.Index())
	assert.Equal(t, 1, s1.Index())
	assert.Equal(t, []uint64{1, 2}, dev.submitted)
	assert.Equal(t, 2, p.InFlight())
	assert.Equal(t, SlotSubmitted, p.SlotState(0))

	dev.complete(1)
	assert.Equal(t, SlotCompleted, p.SlotState(0))
	s2 := submitFrame(t, p)
	assert.Same(t, s0, s2)
	assert.Equal(t, uint64(3), s2.Target())
	assert.Equal(t, uint64(3), p.FrameNumber())
	assert.Equal(t, SlotSubmitted, p.SlotState(0))
}

func TestSlotLifecycleReturnsToIdle(t *testing.T) {
	dev := newFakeDevice()
	p, err := NewFramePipeline(dev)
	require.NoError(t, err)
	assert.Equal(t, SlotIdle, p.SlotState(0))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s, err := p.AcquireSlot(ctx)
	require.NoError(t, err)
	assert.Equal(t, SlotRecording, p.SlotState(0))
	require.NoError(t, p.Submit(s, s.Commands()))
	assert.Equal(t, SlotSubmitted, p.SlotState(0))
	submitFrame(t, p)

	dev.complete(2)
	assert.Equal(t, SlotCompleted, p.SlotState(0))
	assert.Equal(t, SlotCompleted, p.SlotState(1))

	require.NoError(t, p.WaitForIdle())
	assert.Equal(t, SlotIdle, p.SlotState(0))
	assert.Equal(t, SlotIdle, p.SlotState(1))
	assert.Equal(t, SlotIdle, s.State())
	assert.Equal(t, 0, p.InFlight())

	again, err := p.AcquireSlot(ctx)
	require.NoError(t, err)
	assert.Same(t, s, again)
	assert.Equal(t, SlotRecording, again.State())
}

func TestOlderSlotWaitsForItsOwnSignal(t *testing.T) {
	dev := newFakeDevice()
	p, err := NewFramePipeline(dev, WithFrameCount(3))
	require.NoError(t, err)
	s0 := submitFrame(t, p)
	s1 := submitFrame(t, p)
	s2 := submitFrame(t, p)
	require.Equal(t, []uint64{1, 2, 3}, dev.submitted)

	dev.signal(1)
	s3 := submitFrame(t, p)
	assert.Same(t, s0, s3)
	assert.Equal(t, uint64(4), s3.Target())

	// Slot 2 and the reused slot 0 finish while slot 1 is still executing.
	dev.signal(3)
	dev.signal(4)
	assert.Equal(t, uint64(1), dev.CompletedValue())
	assert.Equal(t, SlotSubmitted, p.SlotState(1))

	acquired := make(chan *Slot)
	go func() {
		s, err := p.AcquireSlot(context.Background())
		if err == nil {
			acquired <- s
		}
	}()

	select {
	case <-acquired:
		t.Fatal("slot 1 acquired before signal 2 finished")
	case <-time.After(30 * time.Millisecond):
	}

	dev.signal(2)
	select {
	case s := <-acquired:
		assert.Same(t, s1, s)
		assert.Equal(t, SlotRecording, s.State())
	case <-time.After(time.Second):
		t.Fatal("slot 1 never acquired")
	}
	assert.Equal(t, uint64(4), dev.CompletedValue())
	assert.Equal(t, SlotCompleted, p.SlotState(2))
	assert.Equal(t, uint64(3), s2.Target())
}

func TestAcquireBlocksUntilSlotCompletes(t *testing.T) {
	dev := newFakeDevice()
	p, err := NewFramePipeline(dev)
	require.NoError(t, err)
	submitFrame(t, p)
	submitFrame(t, p)

	acquired := make(chan *Slot)
	go func() {
		s, err := p.AcquireSlot(context.Background())
		if err == nil {
			acquired <- s
		}
	}()

	select {
	case <-acquired:
		t.Fatal("slot 0 acquired before its work completed")
	case <-time.After(30 * time.Millisecond):
	}

	// Completing the later submission covers the earlier one as well.
	dev.complete(2)
	select {
	case s := <-acquired:
		assert.Equal(t, 0, s.Index())
		assert.Equal(t, SlotRecording, s.State())
		assert.True(t, s.Commands().Empty())
	case <-time.After(time.Second):
		t.Fatal("slot 0 never acquired")
	}
}

func TestSubmitRequiresAcquiredSlot(t *testing.T) {
	dev := newFakeDevice()
	p, err := NewFramePipeline(dev)
	require.NoError(t, err)

	s := submitFrame(t, p)
	assert.ErrorIs(t, p.Submit(s, s.Commands()), ErrSlotNotAcquired)
	assert.ErrorIs(t, p.Submit(nil, renderer.NewCommandList("x")), ErrSlotNotAcquired)

	renderer.Debug = true
	defer func() { renderer.Debug = false }()
	assert.Panics(t, func() { _ = p.Submit(s, s.Commands()) })
}

func TestConstantsResetOnAcquire(t *testing.T) {
	dev := newFakeDevice()
	p, err := NewFramePipeline(dev)
	require.NoError(t, err)

	s, err := p.AcquireSlot(context.Background())
	require.NoError(t, err)
	off := s.Constants().Push(rawBlock(make([]byte, 224)))
	assert.Equal(t, 0, off)
	assert.Equal(t, ConstantAlignment, s.Constants().Push(rawBlock{1, 2, 3}))
	assert.Equal(t, []byte{1, 2, 3}, s.Constants().At(ConstantAlignment, 3))
	require.NoError(t, p.Submit(s, s.Commands()))
	submitFrame(t, p)

	dev.complete(2)
	s, err = p.AcquireSlot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Constants().Len())
	assert.Empty(t, s.Constants().Bytes())
}

type rawBlock []byte

func (r rawBlock) Marshal() []byte { return r }

func TestWaitForIdleAndResize(t *testing.T) {
	dev := newFakeDevice()
	p, err := NewFramePipeline(dev)
	require.NoError(t, err)
	submitFrame(t, p)
	submitFrame(t, p)

	go func() {
		time.Sleep(10 * time.Millisecond)
		dev.complete(1)
		time.Sleep(10 * time.Millisecond)
		dev.complete(2)
	}()

	var got common.Extent
	require.NoError(t, p.Resize(320, 200, func(e common.Extent) error {
		got = e
		assert.Equal(t, uint64(2), dev.CompletedValue())
		return nil
	}))
	assert.Equal(t, common.Extent{Width: 320, Height: 200}, got)
	assert.Equal(t, []common.Extent{got}, dev.resized)
	assert.Equal(t, 0, p.InFlight())
}

func TestDeviceLossPropagates(t *testing.T) {
	dev := newFakeDevice()
	p, err := NewFramePipeline(dev)
	require.NoError(t, err)
	submitFrame(t, p)
	submitFrame(t, p)

	dev.lose()
	_, err = p.AcquireSlot(context.Background())
	assert.ErrorIs(t, err, renderer.ErrDeviceLost)
	assert.ErrorIs(t, p.Present(nil), renderer.ErrDeviceLost)
	assert.ErrorIs(t, p.WaitForIdle(), renderer.ErrDeviceLost)
}

func TestAcquireHonorsShutdown(t *testing.T) {
	dev := newFakeDevice()
	p, err := NewFramePipeline(dev)
	require.NoError(t, err)
	submitFrame(t, p)
	submitFrame(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.AcquireSlot(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithSoftDevice(t *testing.T) {
	dev := renderer.NewSoftDevice(renderer.WithWorkers(1))
	defer dev.Release()
	p, err := NewFramePipeline(dev, WithFrameCount(3))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		submitFrame(t, p)
	}
	require.NoError(t, p.WaitForIdle())
	assert.Equal(t, uint64(10), dev.CompletedValue())
}
