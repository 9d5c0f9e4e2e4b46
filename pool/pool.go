package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Pool is a bounded, dynamically sized worker pool. It keeps up to coreSize
// persistent workers, absorbs bursts in a fixed-capacity FIFO queue, grows
// to maxSize overflow workers once the queue is full, and applies the
// configured RejectionPolicy when all of that is exhausted.
//
// A Pool is created with New, owned by its creator, and shared by reference;
// there is no process-wide instance. All methods are safe for concurrent use.
type Pool struct {
	conf *poolConfig

	// mu guards worker-count bookkeeping and serializes producers, so two
	// submitters cannot both claim the last queue slot or spawn an overflow
	// worker beyond maxSize.
	mu      sync.Mutex
	workers int
	idSeq   int64
	drain   bool

	state atomic.Int32

	queue *boundedQueue
	stop  chan struct{} // closed when shutdown begins; wakes waiting workers
	done  chan struct{} // closed when the last worker has exited

	g      errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	busy      atomic.Int64
	submitted atomic.Uint64
	completed atomic.Uint64
	rejected  atomic.Uint64
}

// New creates a pool from the given options. Configuration is validated up
// front: an inconsistent size or capacity fails with ErrInvalidConfiguration
// and no pool is created. The pool starts in StateRunning with zero workers;
// workers are spawned on demand by Submit (or eagerly by Prestart).
func New(opts ...Option) (*Pool, error) {
	conf := defaultConfig()
	for _, opt := range opts {
		opt(conf)
	}
	if err := conf.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		conf:   conf,
		queue:  newBoundedQueue(conf.queueCapacity),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
	p.state.Store(int32(StateRunning))
	return p, nil
}

// Submit hands a task to the pool. In order, it: spawns a core worker and
// dispatches directly while fewer than coreSize workers exist; enqueues while
// the queue has room (an idle worker blocked on the queue picks the task up
// immediately); spawns an overflow worker while below maxSize; and finally
// applies the rejection policy.
//
// Submit never blocks the caller except under RunInline, where the caller's
// goroutine executes the task before Submit returns. Tasks routed through
// the queue execute in FIFO submission order; directly dispatched tasks
// bypass the queue and may run before earlier-queued ones.
//
// After shutdown has begun Submit reports SubmissionInvalidState with
// ErrPoolShutdown; under RunInline the task is still executed inline and the
// task's own error is returned instead.
func (p *Pool) Submit(task Task) (SubmissionResult, error) {
	if task == nil {
		return SubmissionRejected, ErrNilTask
	}

	p.mu.Lock()
	if p.State() != StateRunning {
		p.mu.Unlock()
		if p.conf.policy == RunInline {
			p.submitted.Add(1)
			err := task()
			p.completed.Add(1)
			return SubmissionInvalidState, err
		}
		return SubmissionInvalidState, ErrPoolShutdown
	}

	if p.workers < p.conf.coreSize {
		p.spawnLocked(task)
		p.mu.Unlock()
		p.submitted.Add(1)
		return SubmissionAccepted, nil
	}

	if p.queue.tryPush(task) {
		p.mu.Unlock()
		p.submitted.Add(1)
		return SubmissionAccepted, nil
	}

	if p.workers < p.conf.maxSize {
		p.spawnLocked(task)
		p.mu.Unlock()
		p.submitted.Add(1)
		return SubmissionAccepted, nil
	}

	return p.saturated(task)
}

// saturated applies the configured rejection policy. Called with p.mu held;
// the lock is released before any task code runs on the caller's goroutine.
func (p *Pool) saturated(task Task) (SubmissionResult, error) {
	switch p.conf.policy {
	case RunInline:
		p.mu.Unlock()
		p.submitted.Add(1)
		err := task()
		p.completed.Add(1)
		return SubmissionAccepted, err

	case Discard:
		p.mu.Unlock()
		p.rejected.Add(1)
		return SubmissionRejected, nil

	case DiscardOldest:
		evicted, ok := p.queue.tryPop()
		if !ok {
			p.mu.Unlock()
			p.rejected.Add(1)
			return SubmissionRejected, nil
		}
		// The freed slot cannot be claimed by anyone else: producers are
		// serialized by p.mu and workers only consume.
		p.queue.tryPush(task)
		p.mu.Unlock()
		p.rejected.Add(1)
		p.submitted.Add(1)
		if p.conf.onTaskRejected != nil {
			p.conf.onTaskRejected(evicted)
		}
		return SubmissionAccepted, nil

	default: // Abort
		p.mu.Unlock()
		p.rejected.Add(1)
		return SubmissionRejected, ErrPoolSaturated
	}
}

// spawnLocked registers and starts one worker, optionally seeded with a
// first task that bypasses the queue. Caller holds p.mu.
func (p *Pool) spawnLocked(first Task) {
	id := p.idSeq
	p.idSeq++
	p.workers++

	w := &worker{
		id:    id,
		name:  fmt.Sprintf("%s-%d", p.conf.namePrefix, id),
		pool:  p,
		first: first,
	}
	p.g.Go(w.run)
}

// Prestart eagerly spawns idle core workers up to coreSize and returns the
// number started. Without it, core workers are created lazily as tasks
// arrive.
func (p *Pool) Prestart() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.State() != StateRunning {
		return 0
	}

	started := 0
	for p.workers < p.conf.coreSize {
		p.spawnLocked(nil)
		started++
	}
	return started
}

// Shutdown transitions the pool to StateShuttingDown and stops accepting
// tasks. With drain, workers keep consuming the queue until it is empty and
// then retire; without it, queued-but-not-started tasks are discarded and
// reported to the rejection observer. Tasks already executing always run to
// completion. Shutdown is idempotent; the first call wins and later calls
// (with either mode) have no effect.
func (p *Pool) Shutdown(drain bool) {
	p.mu.Lock()
	if p.State() != StateRunning {
		p.mu.Unlock()
		return
	}
	p.state.Store(int32(StateShuttingDown))
	p.drain = drain

	var discarded []Task
	if !drain {
		for {
			t, ok := p.queue.tryPop()
			if !ok {
				break
			}
			discarded = append(discarded, t)
		}
	}
	close(p.stop)
	p.mu.Unlock()

	for _, t := range discarded {
		p.rejected.Add(1)
		if p.conf.onTaskRejected != nil {
			p.conf.onTaskRejected(t)
		}
	}

	go func() {
		_ = p.g.Wait()
		p.state.Store(int32(StateTerminated))
		p.cancel()
		close(p.done)
	}()
}

// AwaitTermination blocks until the pool reaches StateTerminated or the
// timeout elapses, and reports whether termination completed in time. A
// timeout of zero or less waits without bound. AwaitTermination does not
// initiate shutdown.
func (p *Pool) AwaitTermination(timeout time.Duration) bool {
	if timeout <= 0 {
		<-p.done
		return true
	}

	select {
	case <-p.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// State returns the current lifecycle state.
func (p *Pool) State() State {
	return State(p.state.Load())
}

// WorkerCount returns the current number of live workers. Diagnostic only:
// the value may be stale by the time it is observed.
func (p *Pool) WorkerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workers
}

// QueueLength returns the number of tasks currently queued. Diagnostic only.
func (p *Pool) QueueLength() int {
	return p.queue.len()
}

// QueueCapacity returns the configured queue capacity.
func (p *Pool) QueueCapacity() int {
	return p.queue.cap()
}

// Stats is a point-in-time snapshot of pool activity, intended for metrics
// export by the host process rather than for control decisions.
type Stats struct {
	State   State
	Workers int
	Busy    int
	Queued  int

	// Submitted counts tasks the pool accepted, Completed those that finished
	// executing (successfully or not), Rejected those dropped, evicted, or
	// refused by the saturation policy or an immediate shutdown.
	Submitted uint64
	Completed uint64
	Rejected  uint64
}

// Stats returns a snapshot of the pool's counters. The fields are sampled
// independently and may not be mutually consistent under load.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	workers := p.workers
	p.mu.Unlock()

	return Stats{
		State:     p.State(),
		Workers:   workers,
		Busy:      int(p.busy.Load()),
		Queued:    p.queue.len(),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Rejected:  p.rejected.Load(),
	}
}
