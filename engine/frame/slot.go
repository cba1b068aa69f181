package frame

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// SlotState is where a Slot is in its frame lifecycle.
type SlotState int

const (
	// SlotIdle slots hold no outstanding work and may be acquired.
	SlotIdle SlotState = iota
	// SlotRecording slots have been acquired and are being recorded.
	SlotRecording
	// SlotSubmitted slots have been submitted and may still be executing.
	SlotSubmitted
	// SlotCompleted slots have finished executing on the device. The pipeline retires them
	// to SlotIdle once it observes the completion.
	SlotCompleted
)

func (s SlotState) String() string {
	switch s {
	case SlotRecording:
		return "recording"
	case SlotSubmitted:
		return "submitted"
	case SlotCompleted:
		return "completed"
	default:
		return "idle"
	}
}

// Slot is one in-flight frame: its command list, its constant allocations, and the
// completion value after which both may be reused.
type Slot struct {
	index     int
	state     SlotState
	target    uint64
	frame     uint64
	commands  *renderer.CommandList
	constants *ConstantArena
}

func newSlot(index int) *Slot {
	return &Slot{
		index:     index,
		commands:  renderer.NewCommandList(fmt.Sprintf("frame_slot_%d", index)),
		constants: NewConstantArena(),
	}
}

// Index returns the slot's position in the ring.
func (s *Slot) Index() int { return s.index }

// State returns the slot's lifecycle state.
func (s *Slot) State() SlotState { return s.state }

// Target returns the completion value the slot is waiting on. The slot is safe to
// reuse once the device has completed at least this value.
func (s *Slot) Target() uint64 { return s.target }

// Frame returns the number of the frame the slot was last acquired for.
func (s *Slot) Frame() uint64 { return s.frame }

// Commands returns the slot's command list. It is empty right after AcquireSlot.
func (s *Slot) Commands() *renderer.CommandList { return s.commands }

// Constants returns the slot's constant arena. It is empty right after AcquireSlot.
func (s *Slot) Constants() *ConstantArena { return s.constants }
