// Package frame paces the CPU against the device with a ring of frame slots.
package frame

import (
	"context"
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/log"
)

var frameLog = log.New("frame")

var (
	// ErrSlotNotAcquired is returned by Submit for a slot that is not the one currently recording.
	ErrSlotNotAcquired = errors.New("frame: slot not acquired")

	// ErrFrameCount is returned by NewFramePipeline for frame counts other than 2 or 3.
	ErrFrameCount = errors.New("frame: frame count must be 2 or 3")
)

// DefaultFrameCount is the number of frames the CPU may record ahead of the device.
const DefaultFrameCount = 2

type framePipelineImpl struct {
	device     renderer.Device
	ctx        context.Context
	slots      []*Slot
	recording  *Slot
	frame      uint64
	lastSignal uint64
}

// FramePipeline hands out frame slots in ring order and keeps the CPU at most
// FrameCount frames ahead of the device. It is used from a single goroutine.
type FramePipeline interface {
	// AcquireSlot returns the slot for the next frame with its command list and constants
	// reset. It blocks until the device has finished the work last submitted from the slot.
	// This is the only point at which the recording goroutine waits on the device.
	//
	// Parameters:
	//   - ctx: cancellation for shutdown only
	//
	// Returns:
	//   - *Slot: the slot, in SlotRecording
	//   - error: ctx.Err() or renderer.ErrDeviceLost
	AcquireSlot(ctx context.Context) (*Slot, error)

	// Submit sends a recorded command list and schedules the next completion value
	// to be signaled for the slot.
	//
	// Parameters:
	//   - slot: the slot returned by the last AcquireSlot
	//   - cmds: the recorded commands, normally slot.Commands()
	//
	// Returns:
	//   - error: ErrSlotNotAcquired, or the device's submission error
	Submit(slot *Slot, cmds *renderer.CommandList) error

	// Present queues display of t after the last submission.
	//
	// Parameters:
	//   - t: the final LDR image
	//
	// Returns:
	//   - error: renderer.ErrDeviceLost once the device is gone
	Present(t *renderer.Target) error

	// WaitForIdle blocks until every submitted slot has completed and returns them to SlotIdle.
	//
	// Returns:
	//   - error: renderer.ErrDeviceLost once the device is gone
	WaitForIdle() error

	// Resize waits for the device to go idle, reconfigures the surface, and then runs
	// fn so targets can be reallocated before the next frame records.
	//
	// Parameters:
	//   - width, height: the new size in pixels
	//   - fn: reallocation callback, may be nil
	//
	// Returns:
	//   - error: the first failure of waiting, surface configuration, or fn
	Resize(width, height int, fn func(common.Extent) error) error

	// SlotState returns the state of slot i, reporting SlotCompleted for submitted slots
	// the device has finished. A completed slot returns to SlotIdle when it is next
	// acquired or when WaitForIdle observes it.
	//
	// Parameters:
	//   - i: the slot index
	//
	// Returns:
	//   - SlotState: the state
	SlotState(i int) SlotState

	// FrameCount returns the number of slots.
	FrameCount() int

	// FrameNumber returns how many slots have been acquired.
	FrameNumber() uint64

	// InFlight returns how many submissions the device has not completed yet.
	InFlight() int

	// Device returns the device frames are submitted to.
	Device() renderer.Device
}

var _ FramePipeline = &framePipelineImpl{}

// NewFramePipeline creates a pipeline over device.
//
// Parameters:
//   - device: the device to submit to
//   - options: variadic list of FramePipelineBuilderOption functions
//
// Returns:
//   - FramePipeline: the pipeline
//   - error: ErrFrameCount
func NewFramePipeline(device renderer.Device, options ...FramePipelineBuilderOption) (FramePipeline, error) {
	if device == nil {
		panic("frame: nil device")
	}
	cfg := &pipelineConfig{frameCount: DefaultFrameCount, ctx: context.Background()}
	for _, opt := range options {
		opt(cfg)
	}
	if cfg.frameCount < 2 || cfg.frameCount > 3 {
		return nil, fmt.Errorf("%w: %d", ErrFrameCount, cfg.frameCount)
	}

	p := &framePipelineImpl{
		device:     device,
		ctx:        cfg.ctx,
		slots:      make([]*Slot, cfg.frameCount),
		lastSignal: device.CompletedValue(),
	}
	for i := range p.slots {
		p.slots[i] = newSlot(i)
		p.slots[i].target = p.lastSignal
	}
	return p, nil
}

func (p *framePipelineImpl) AcquireSlot(ctx context.Context) (*Slot, error) {
	if p.recording != nil {
		if renderer.Debug {
			panic(fmt.Sprintf("frame: slot %d acquired while still recording", p.recording.index))
		}
		frameLog.Warningf("slot %d acquired again before submit", p.recording.index)
		return p.recording, nil
	}

	s := p.slots[p.frame%uint64(len(p.slots))]
	if err := p.device.WaitForValue(ctx, s.target); err != nil {
		return nil, fmt.Errorf("frame: waiting for slot %d: %w", s.index, err)
	}
	p.retire(s)

	s.commands.Reset()
	s.constants.Reset()
	s.state = SlotRecording
	s.frame = p.frame
	p.frame++
	p.recording = s
	return s, nil
}

func (p *framePipelineImpl) Submit(slot *Slot, cmds *renderer.CommandList) error {
	if slot == nil || slot != p.recording || slot.state != SlotRecording {
		if renderer.Debug {
			panic("frame: submit of a slot that is not recording")
		}
		return ErrSlotNotAcquired
	}

	signal := p.lastSignal + 1
	if err := p.device.Submit(cmds, signal); err != nil {
		return fmt.Errorf("frame: submit slot %d: %w", slot.index, err)
	}
	p.lastSignal = signal
	slot.target = signal
	slot.state = SlotSubmitted
	p.recording = nil
	frameLog.Debugf("slot %d submitted frame %d with signal %d (%d commands)", slot.index, slot.frame, signal, cmds.Len())
	return nil
}

func (p *framePipelineImpl) Present(t *renderer.Target) error {
	if err := p.device.Present(t); err != nil {
		if errors.Is(err, renderer.ErrDeviceLost) {
			frameLog.Errorf("present failed: %v", err)
		}
		return fmt.Errorf("frame: present: %w", err)
	}
	return nil
}

func (p *framePipelineImpl) WaitForIdle() error {
	if err := p.device.WaitForValue(p.ctx, p.lastSignal); err != nil {
		return fmt.Errorf("frame: wait for idle: %w", err)
	}
	for _, s := range p.slots {
		p.retire(s)
	}
	return nil
}

// retire moves a slot whose work the device has finished through Completed back to Idle.
func (p *framePipelineImpl) retire(s *Slot) {
	if s.state == SlotSubmitted && p.device.CompletedValue() >= s.target {
		s.state = SlotCompleted
	}
	if s.state == SlotCompleted {
		s.state = SlotIdle
		frameLog.Debugf("slot %d retired after signal %d", s.index, s.target)
	}
}

func (p *framePipelineImpl) Resize(width, height int, fn func(common.Extent) error) error {
	if err := p.WaitForIdle(); err != nil {
		return err
	}
	extent := common.Extent{Width: max(width, 0), Height: max(height, 0)}
	if err := p.device.Resize(extent); err != nil {
		return fmt.Errorf("frame: resize surface: %w", err)
	}
	frameLog.Debugf("resized to %dx%d", extent.Width, extent.Height)
	if fn != nil {
		return fn(extent)
	}
	return nil
}

func (p *framePipelineImpl) SlotState(i int) SlotState {
	s := p.slots[i]
	if s.state == SlotSubmitted && p.device.CompletedValue() >= s.target {
		return SlotCompleted
	}
	return s.state
}

func (p *framePipelineImpl) FrameCount() int { return len(p.slots) }

func (p *framePipelineImpl) FrameNumber() uint64 { return p.frame }

func (p *framePipelineImpl) InFlight() int {
	done := p.device.CompletedValue()
	if done >= p.lastSignal {
		return 0
	}
	return int(p.lastSignal - done)
}

func (p *framePipelineImpl) Device() renderer.Device { return p.device }
