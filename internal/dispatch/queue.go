// Package dispatch provides a serial execution context.
//
// A Queue runs submitted functions one at a time, in submission order, on a
// single goroutine. Browsing state is owned by one Queue: listings mutate
// their state and notify listeners only from functions running on it, and
// background work posts its results back with Async.
package dispatch

import (
	"sync"
)

// Queue is a serial executor. The zero value is not usable; call NewQueue.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []func()
	closed bool
	done   chan struct{}
}

// NewQueue starts a queue goroutine.
func NewQueue() *Queue {
	q := &Queue{
		done: make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.loop()
	return q
}

// Async schedules fn and returns immediately. Functions submitted after
// Close are dropped.
func (q *Queue) Async(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.tasks = append(q.tasks, fn)
	q.cond.Signal()
}

// Sync runs fn on the queue and waits for it to finish. It must not be
// called from a function already running on q. Returns false if the queue
// was closed before fn could run.
func (q *Queue) Sync(fn func()) bool {
	ran := make(chan struct{})
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.tasks = append(q.tasks, func() {
		fn()
		close(ran)
	})
	q.cond.Signal()
	q.mu.Unlock()

	select {
	case <-ran:
		return true
	case <-q.done:
		select {
		case <-ran:
			return true
		default:
			return false
		}
	}
}

// Flush waits until every function submitted before the call has run.
func (q *Queue) Flush() {
	q.Sync(func() {})
}

// Close stops accepting work, runs what is already queued, and waits for
// the queue goroutine to exit. Like Sync, it must not be called from q.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		q.cond.Signal()
	}
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) loop() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.tasks) == 0 && q.closed {
			q.mu.Unlock()
			return
		}
		tasks := q.tasks
		q.tasks = nil
		q.mu.Unlock()

		for _, fn := range tasks {
			fn()
		}
	}
}
