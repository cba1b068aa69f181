package renderer

import "github.com/Carmen-Shannon/oxy-deferred/common"

// PresentBacklog bounds the packed frames waiting for the window thread. The recording
// side can queue at most one present per frame slot beyond the last signaled frame, so
// four covers triple buffering; the rest is headroom.
const PresentBacklog = 8

type packedFrame struct {
	extent common.Extent
	data   []byte
	frame  uint64
}

// presentQueue hands finished frames from the queue goroutine to the window thread in
// order. Nothing is ever dropped: a full queue blocks the producer, which shows up as a
// stalled device queue rather than a skipped frame.
type presentQueue struct {
	frames  chan packedFrame
	closing chan struct{}
	next    uint64
}

func newPresentQueue(capacity int) *presentQueue {
	return &presentQueue{
		frames:  make(chan packedFrame, max(capacity, 1)),
		closing: make(chan struct{}),
	}
}

// push queues f, numbering it. It returns false if the queue was closed while waiting.
func (q *presentQueue) push(f packedFrame) bool {
	q.next++
	f.frame = q.next
	select {
	case q.frames <- f:
		return true
	case <-q.closing:
		return false
	}
}

// drain calls fn for every queued frame, oldest first, and stops at the first error.
func (q *presentQueue) drain(fn func(packedFrame) error) error {
	for {
		select {
		case f := <-q.frames:
			if err := fn(f); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// close releases a producer blocked in push.
func (q *presentQueue) close() {
	select {
	case <-q.closing:
	default:
		close(q.closing)
	}
}
