// Package loop drives one tick and paint per host frame.
package loop

import (
	"sync"
	"sync/atomic"
)

// Scheduler is the host's redraw-on-next-frame primitive
type Scheduler interface {
	RequestFrame(fn func())
}

// Queue is a Scheduler whose callbacks run on the next Flush. Callbacks
// requested while a Flush is running wait for the following one.
type Queue struct {
	mu      sync.Mutex
	pending []func()
}

// RequestFrame queues fn for the next Flush
func (q *Queue) RequestFrame(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, fn)
}

// Flush runs the callbacks queued before it was called and returns how many ran
func (q *Queue) Flush() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Len returns the number of queued callbacks
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Loop runs frame once per scheduled host frame until stopped. The next
// frame is requested only after the current one returns, so frames never
// overlap. A stopped Loop cannot be restarted.
type Loop struct {
	scheduler Scheduler
	frame     func()

	started atomic.Bool
	stopped atomic.Bool
	frames  atomic.Uint64
}

// New creates a loop calling frame on every frame granted by scheduler
func New(scheduler Scheduler, frame func()) *Loop {
	return &Loop{scheduler: scheduler, frame: frame}
}

// Start requests the first frame. Calls after the first are ignored.
func (l *Loop) Start() {
	if l.stopped.Load() || !l.started.CompareAndSwap(false, true) {
		return
	}
	l.scheduler.RequestFrame(l.run)
}

// Stop prevents any further frame. A callback already queued with the
// scheduler becomes a no-op.
func (l *Loop) Stop() {
	l.stopped.Store(true)
}

// Stopped reports whether Stop has been called
func (l *Loop) Stopped() bool {
	return l.stopped.Load()
}

// Frames returns the number of completed frames
func (l *Loop) Frames() uint64 {
	return l.frames.Load()
}

func (l *Loop) run() {
	if l.stopped.Load() {
		return
	}
	l.frame()
	l.frames.Add(1)

	if l.stopped.Load() {
		return
	}
	l.scheduler.RequestFrame(l.run)
}
