package pool

// boundedQueue is the fixed-capacity FIFO holding tasks that could not be
// handed to a worker directly. It is a thin wrapper around a buffered
// channel: the channel gives FIFO ordering, bounds the length at capacity,
// and lets idle workers block on arrival together with their keep-alive
// timer. With capacity zero a push succeeds only while a worker is already
// waiting on the other end, which degenerates to a synchronous handoff.
//
// All pushes happen under the pool controller's lock; workers only consume.
type boundedQueue struct {
	tasks chan Task
}

func newBoundedQueue(capacity int) *boundedQueue {
	return &boundedQueue{tasks: make(chan Task, capacity)}
}

// tryPush enqueues the task without blocking. Returns false when the queue
// is full and no worker is waiting to receive.
func (q *boundedQueue) tryPush(t Task) bool {
	select {
	case q.tasks <- t:
		return true
	default:
		return false
	}
}

// tryPop removes the oldest queued task without blocking.
func (q *boundedQueue) tryPop() (Task, bool) {
	select {
	case t := <-q.tasks:
		return t, true
	default:
		return nil, false
	}
}

// recv exposes the receive end for worker select loops.
func (q *boundedQueue) recv() <-chan Task {
	return q.tasks
}

func (q *boundedQueue) len() int {
	return len(q.tasks)
}

func (q *boundedQueue) cap() int {
	return cap(q.tasks)
}
