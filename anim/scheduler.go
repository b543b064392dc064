package anim

import "sync"

// FrameHandle identifies a requested frame so it can be cancelled.
type FrameHandle uint64

// Scheduler is the display-refresh callback provider.
type Scheduler interface {
	RequestFrame(fn func()) FrameHandle
	CancelFrame(h FrameHandle)
}

// FrameQueue is a Scheduler driven by the host calling Flush once per
// display refresh. Callbacks requested during a Flush run on the next one.
type FrameQueue struct {
	mu    sync.Mutex
	next  FrameHandle
	order []FrameHandle
	fns   map[FrameHandle]func()
}

func NewFrameQueue() *FrameQueue {
	return &FrameQueue{fns: make(map[FrameHandle]func())}
}

func (q *FrameQueue) RequestFrame(fn func()) FrameHandle {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.next++
	q.order = append(q.order, q.next)
	q.fns[q.next] = fn
	return q.next
}

// CancelFrame drops a pending callback. Unknown or already run handles are ignored.
func (q *FrameQueue) CancelFrame(h FrameHandle) {
	q.mu.Lock()
	delete(q.fns, h)
	q.mu.Unlock()
}

// Flush runs the callbacks that were pending when it was called, in request
// order, and returns how many ran.
func (q *FrameQueue) Flush() int {
	q.mu.Lock()
	batch := q.order
	q.order = nil
	q.mu.Unlock()

	ran := 0
	for _, h := range batch {
		q.mu.Lock()
		fn, ok := q.fns[h]
		delete(q.fns, h)
		q.mu.Unlock()
		if !ok {
			continue
		}
		fn()
		ran++
	}
	return ran
}

// Len returns the number of callbacks waiting for the next Flush.
func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.fns)
}
