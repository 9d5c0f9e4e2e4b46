// Package pool provides a bounded, dynamically sized worker pool with an
// explicit queueing stage and a configurable saturation policy.
//
// The pool keeps up to a core number of persistent workers, absorbs bursts
// in a fixed-capacity FIFO queue, and grows with short-lived overflow
// workers up to a hard ceiling. Only when all three stages are exhausted
// does the rejection policy decide the task's fate.
//
// # Basic Usage
//
//	p, err := pool.New(
//	    pool.WithCoreSize(4),
//	    pool.WithMaxSize(8),
//	    pool.WithQueueCapacity(64),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer func() {
//	    p.Shutdown(true)
//	    p.AwaitTermination(10 * time.Second)
//	}()
//
//	res, err := p.Submit(func() error {
//	    return process(item)
//	})
//
// # Sizing
//
// Submission favors the cheapest stage first: steady-state concurrency stays
// at the core size, the queue absorbs bursts, and overflow workers (which
// retire after the keep-alive timeout once idle) are a last resort before
// the rejection policy fires. Defaults are 2 x GOMAXPROCS core workers,
// 4 x GOMAXPROCS maximum, and a queue of four times the maximum; these are
// tuning defaults, not contracts.
//
// # Rejection Policies
//
//   - Abort: Submit fails with ErrPoolSaturated (the default)
//   - RunInline: the submitting goroutine executes the task itself
//   - Discard: the task is dropped silently
//   - DiscardOldest: the oldest queued task is evicted to make room
//
// # Ordering
//
// Tasks routed through the queue execute in FIFO submission order. Tasks
// dispatched directly to a newly spawned core or overflow worker bypass the
// queue and may execute before earlier-queued tasks; there is deliberately
// no global ordering guarantee.
//
// # Shutdown
//
// Shutdown(drain) stops intake immediately. With drain, workers finish the
// queued backlog before retiring; without it, queued tasks are handed to the
// rejection observer and never run. Tasks already executing always run to
// completion. AwaitTermination blocks until every worker has exited.
//
// # Error Handling
//
// Configuration and lifecycle errors surface synchronously from the call
// that caused them. Task failures, including recovered panics, are isolated:
// they are reported to the failure observer and never destabilize a worker
// or the pool. Nothing is retried automatically.
package pool
