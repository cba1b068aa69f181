package renderer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/log"
)

var softLog = log.New("device")

// minParallelPixels is the pass size below which kernels run on the queue goroutine.
const minParallelPixels = 4096

type readbackRequest struct {
	target   *Target
	rowPitch int
	reply    chan readbackResult
}

type readbackResult struct {
	data []byte
	err  error
}

type queueItem struct {
	cmds     *CommandList
	signal   uint64
	present  *Target
	readback *readbackRequest
}

// SoftDevice executes command lists on the CPU.
//
// Submissions are drained in order by a single queue goroutine, which plays the part of
// the GPU: the recording goroutine never waits on it except through WaitForValue,
// ReadTarget, or a full queue. Full-screen passes are split into row bands and fanned
// out over a worker pool.
type SoftDevice struct {
	mu        sync.Mutex
	sendMu    sync.RWMutex
	completed uint64
	submitted uint64
	changed   chan struct{}
	lost      bool
	released  bool

	queue chan queueItem
	done  chan struct{}

	pool    worker.DynamicWorkerPool
	workers int

	presented    *Image
	presentCount uint64
	onPresent    func(*Image)

	extent common.Extent
}

var _ Device = &SoftDevice{}

// NewSoftDevice creates a CPU device and starts its queue goroutine.
//
// Parameters:
//   - options: variadic list of DeviceBuilderOption functions
//
// Returns:
//   - *SoftDevice: the device
func NewSoftDevice(options ...DeviceBuilderOption) *SoftDevice {
	cfg := defaultDeviceConfig()
	for _, opt := range options {
		opt(cfg)
	}
	return newSoftDevice(cfg)
}

func newSoftDevice(cfg *deviceConfig) *SoftDevice {
	d := &SoftDevice{
		changed: make(chan struct{}),
		queue:   make(chan queueItem, cfg.queueDepth),
		done:    make(chan struct{}),
		workers: cfg.workers,
		extent:  cfg.surfaceExtent,
	}
	if d.workers > 1 {
		// Queue sized so a whole pass's bands fit without blocking the queue goroutine.
		d.pool = worker.NewDynamicWorkerPool(d.workers, d.workers*8, 5*time.Second)
	}
	go d.run()
	softLog.Debugf("soft device started with %d workers, queue depth %d", d.workers, cfg.queueDepth)
	return d
}

func (d *SoftDevice) Backend() BackendType { return BackendSoft }

func (d *SoftDevice) CreateTarget(label string, extent common.Extent, format Format) (*Target, error) {
	if extent.Width < 0 || extent.Height < 0 {
		return nil, fmt.Errorf("%w: %s has size %dx%d", ErrTargetCreation, label, extent.Width, extent.Height)
	}
	if extent.IsZero() {
		extent = common.Extent{}
	}
	return newTarget(label, extent, format), nil
}

func (d *SoftDevice) Submit(cmds *CommandList, signal uint64) error {
	d.mu.Lock()
	if d.lost {
		d.mu.Unlock()
		return ErrDeviceLost
	}
	if d.released {
		d.mu.Unlock()
		return ErrReleased
	}
	if signal <= d.submitted {
		d.mu.Unlock()
		if Debug {
			panic(fmt.Sprintf("renderer: completion value %d does not follow %d", signal, d.submitted))
		}
		return fmt.Errorf("renderer: completion value %d does not follow %d", signal, d.submitted)
	}
	d.submitted = signal
	d.mu.Unlock()

	return d.send(queueItem{cmds: cmds, signal: signal})
}

func (d *SoftDevice) CompletedValue() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.completed
}

func (d *SoftDevice) WaitForValue(ctx context.Context, value uint64) error {
	for {
		d.mu.Lock()
		if d.lost {
			d.mu.Unlock()
			return ErrDeviceLost
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

func (d *SoftDevice) Present(t *Target) error {
	d.mu.Lock()
	if d.lost {
		d.mu.Unlock()
		return ErrDeviceLost
	}
	if d.released {
		d.mu.Unlock()
		return ErrReleased
	}
	d.mu.Unlock()

	return d.send(queueItem{present: t})
}

func (d *SoftDevice) Resize(extent common.Extent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.extent = extent
	return nil
}

func (d *SoftDevice) ReadTarget(t *Target, rowPitch int) ([]byte, error) {
	if rowPitch < t.Width()*4 {
		return nil, fmt.Errorf("%w: %d bytes for %d pixels", ErrRowPitch, rowPitch, t.Width())
	}
	d.mu.Lock()
	if d.lost {
		d.mu.Unlock()
		return nil, ErrDeviceLost
	}
	d.mu.Unlock()

	req := &readbackRequest{target: t, rowPitch: rowPitch, reply: make(chan readbackResult, 1)}
	if err := d.send(queueItem{readback: req}); err != nil {
		return nil, err
	}
	res := <-req.reply
	return res.data, res.err
}

func (d *SoftDevice) Release() {
	d.mu.Lock()
	if d.released {
		d.mu.Unlock()
		return
	}
	d.released = true
	d.mu.Unlock()

	d.sendMu.Lock()
	close(d.queue)
	d.sendMu.Unlock()
	<-d.done
	if d.pool != nil {
		d.pool.Stop()
	}
}

// send queues an item unless the device has been released.
func (d *SoftDevice) send(item queueItem) error {
	d.sendMu.RLock()
	defer d.sendMu.RUnlock()
	d.mu.Lock()
	released := d.released
	d.mu.Unlock()
	if released {
		return ErrReleased
	}
	d.queue <- item
	return nil
}

// Lose marks the device as lost. Pending and future waits fail with ErrDeviceLost.
func (d *SoftDevice) Lose() {
	d.mu.Lock()
	d.lost = true
	close(d.changed)
	d.changed = make(chan struct{})
	d.mu.Unlock()
	softLog.Error("device lost")
}

// Presented returns a copy of the most recently presented image and how many frames
// have been presented.
func (d *SoftDevice) Presented() (*Image, uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.presented == nil {
		return nil, d.presentCount
	}
	return d.presented.Clone(), d.presentCount
}

// Extent returns the surface size last passed to Resize.
func (d *SoftDevice) Extent() common.Extent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.extent
}

func (d *SoftDevice) run() {
	defer close(d.done)
	for item := range d.queue {
		switch {
		case item.cmds != nil:
			d.execute(item.cmds)
			d.publish(item.signal)
		case item.present != nil:
			img := item.present.image.Clone()
			d.mu.Lock()
			d.presented = img
			d.presentCount++
			hook := d.onPresent
			d.mu.Unlock()
			if hook != nil {
				hook(img)
			}
		case item.readback != nil:
			data, err := packRGBA8(item.readback.target.image, item.readback.rowPitch)
			item.readback.reply <- readbackResult{data: data, err: err}
		}
	}
}

func (d *SoftDevice) publish(value uint64) {
	d.mu.Lock()
	if value > d.completed {
		d.completed = value
	}
	close(d.changed)
	d.changed = make(chan struct{})
	d.mu.Unlock()
}

func (d *SoftDevice) execute(cmds *CommandList) {
	for _, c := range cmds.commands {
		switch c := c.(type) {
		case *clearCommand:
			c.target.image.Fill(c.value)
		case *barrierCommand:
			// Execution on this queue is already serialized.
		case *drawCommand:
			rasterize(&c.call)
		case *passCommand:
			d.runPass(&c.pass)
		}
	}
}

func (d *SoftDevice) runPass(p *Pass) {
	extent := p.Outputs[0].Extent()
	images := make([]*Image, len(p.Outputs))
	for i, t := range p.Outputs {
		images[i] = t.image
	}

	rows := func(y0, y1 int) {
		out := make([]common.Color, len(images))
		for y := y0; y < y1; y++ {
			for x := 0; x < extent.Width; x++ {
				p.Kernel(x, y, out)
				for i, img := range images {
					img.Set(x, y, out[i])
				}
			}
		}
	}

	if d.pool == nil || extent.Width*extent.Height < minParallelPixels {
		rows(0, extent.Height)
		return
	}

	// More bands than workers so an idle pool is always repopulated by SubmitTask.
	bands := d.workers * 4
	step := (extent.Height + bands - 1) / bands
	var wg sync.WaitGroup
	for b := 0; b < bands; b++ {
		y0 := min(b*step, extent.Height)
		y1 := min(y0+step, extent.Height)
		wg.Add(1)
		d.pool.SubmitTask(worker.Task{
			ID: b,
			Do: func() (any, error) {
				defer wg.Done()
				rows(y0, y1)
				return nil, nil
			},
		})
	}
	wg.Wait()
}
