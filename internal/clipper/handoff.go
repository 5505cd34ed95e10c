package clipper

import "sync"

// handoff is an unbounded FIFO between AddJob and the executor. push never
// blocks; pop blocks until a job is available or the handoff is closed and
// drained.
type handoff struct {
	mu     sync.Mutex
	items  []Job
	closed bool
	wake   chan struct{}
}

func newHandoff() *handoff {
	return &handoff{wake: make(chan struct{}, 1)}
}

func (h *handoff) push(job Job) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrQueueClosed
	}
	h.items = append(h.items, job)
	h.mu.Unlock()

	h.signal()
	return nil
}

func (h *handoff) pop() (Job, bool) {
	for {
		h.mu.Lock()
		if len(h.items) > 0 {
			job := h.items[0]
			h.items[0] = Job{}
			h.items = h.items[1:]
			h.mu.Unlock()
			return job, true
		}
		if h.closed {
			h.mu.Unlock()
			return Job{}, false
		}
		h.mu.Unlock()

		<-h.wake
	}
}

func (h *handoff) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *handoff) close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	h.signal()
}

func (h *handoff) signal() {
	select {
	case h.wake <- struct{}{}:
	default:
	}
}
