package renderer

import (
	"context"
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// Debug enables contract checks that panic on caller misuse, such as composing from a
// target that was never transitioned to StateShaderRead or submitting an unacquired slot.
// With Debug off those checks are skipped.
var Debug = false

var (
	// ErrDeviceLost is returned once the device has been lost or removed. It is fatal;
	// nothing in the engine attempts to recover from it.
	ErrDeviceLost = errors.New("renderer: device lost")

	// ErrNoAdapter is returned when no GPU adapter could be found.
	ErrNoAdapter = errors.New("renderer: no adapter found")

	// ErrTargetCreation is returned when a render target cannot be allocated.
	ErrTargetCreation = errors.New("renderer: target creation failed")

	// ErrRowPitch is returned by ReadTarget when the requested row pitch cannot hold a row.
	ErrRowPitch = errors.New("renderer: row pitch too small")

	// ErrReleased is returned by calls made after Release.
	ErrReleased = errors.New("renderer: device released")
)

// BackendType identifies the Device implementation.
type BackendType int

const (
	// BackendSoft executes command lists on the CPU on its own queue goroutine.
	BackendSoft BackendType = iota

	// BackendWGPU presents through a WebGPU surface.
	BackendWGPU
)

// ParseBackendType maps a backend name to its BackendType.
//
// Parameters:
//   - name: "soft" or "wgpu"
//
// Returns:
//   - BackendType: the parsed backend
//   - error: an error for unknown names
func ParseBackendType(name string) (BackendType, error) {
	switch name {
	case "soft", "cpu":
		return BackendSoft, nil
	case "wgpu", "webgpu":
		return BackendWGPU, nil
	}
	return 0, fmt.Errorf("renderer: unknown backend %q", name)
}

func (b BackendType) String() string {
	if b == BackendWGPU {
		return "wgpu"
	}
	return "soft"
}

// ResourceState is the usage a target has been transitioned to by a barrier.
type ResourceState int

const (
	StateUndefined ResourceState = iota
	StateRenderTarget
	StateDepthWrite
	StateShaderRead
	StateCopySource
	StatePresent
)

func (s ResourceState) String() string {
	switch s {
	case StateRenderTarget:
		return "render-target"
	case StateDepthWrite:
		return "depth-write"
	case StateShaderRead:
		return "shader-read"
	case StateCopySource:
		return "copy-source"
	case StatePresent:
		return "present"
	default:
		return "undefined"
	}
}

// Device is the queue a frame's command lists are submitted to.
//
// The device executes submissions asynchronously and in submission order. Every Submit
// carries a completion value which the device publishes once the submission has
// finished executing; published values never decrease.
type Device interface {
	// Backend reports which implementation this device is.
	//
	// Returns:
	//   - BackendType: the backend
	Backend() BackendType

	// CreateTarget allocates a render target. A zero extent is allowed and yields an empty target.
	//
	// Parameters:
	//   - label: debug name
	//   - extent: size in pixels
	//   - format: pixel format
	//
	// Returns:
	//   - *Target: the target
	//   - error: ErrTargetCreation on invalid sizes
	CreateTarget(label string, extent common.Extent, format Format) (*Target, error)

	// Submit queues a recorded command list and schedules signal to be published once it completes.
	//
	// Parameters:
	//   - cmds: the command list
	//   - signal: completion value; must be greater than every previously submitted value
	//
	// Returns:
	//   - error: ErrDeviceLost if the device is gone
	Submit(cmds *CommandList, signal uint64) error

	// CompletedValue returns the highest completion value published so far.
	//
	// Returns:
	//   - uint64: the completed value
	CompletedValue() uint64

	// WaitForValue blocks until CompletedValue() >= value. It returns early only when ctx
	// is cancelled or the device is lost.
	//
	// Parameters:
	//   - ctx: cancellation for shutdown
	//   - value: the value to wait for
	//
	// Returns:
	//   - error: ctx.Err() or ErrDeviceLost
	WaitForValue(ctx context.Context, value uint64) error

	// Present queues display of t after all previously submitted work.
	//
	// Parameters:
	//   - t: an LDR target in StatePresent
	//
	// Returns:
	//   - error: ErrDeviceLost if the device is gone
	Present(t *Target) error

	// Resize reconfigures the presentation surface. Callers must be idle.
	//
	// Parameters:
	//   - extent: the new surface size
	//
	// Returns:
	//   - error: configuration failures
	Resize(extent common.Extent) error

	// ReadTarget copies t into CPU memory as 8-bit RGBA rows spaced rowPitch bytes apart.
	// It waits for all previously submitted work first.
	//
	// Parameters:
	//   - t: the target to read
	//   - rowPitch: bytes between row starts, at least width*4
	//
	// Returns:
	//   - []byte: rowPitch*height bytes
	//   - error: ErrRowPitch or ErrDeviceLost
	ReadTarget(t *Target, rowPitch int) ([]byte, error)

	// Release stops the queue and frees backend resources.
	Release()
}

// NewDevice creates a Device for the requested backend.
//
// Parameters:
//   - backend: which implementation to create
//   - options: variadic list of DeviceBuilderOption functions
//
// Returns:
//   - Device: the device
//   - error: ErrNoAdapter or backend initialization failures
func NewDevice(backend BackendType, options ...DeviceBuilderOption) (Device, error) {
	cfg := defaultDeviceConfig()
	for _, opt := range options {
		opt(cfg)
	}

	switch backend {
	case BackendWGPU:
		return newWGPUDevice(cfg)
	default:
		return newSoftDevice(cfg), nil
	}
}
