package pool_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alexvia/dynpool/pool"
)

// saturate builds a pool with one core worker, one max worker, and the given
// queue capacity, then fills the worker and the queue so the next submission
// hits the rejection policy. The returned release channel unblocks the worker.
func saturate(t *testing.T, queueCap int, opts ...pool.Option) (*pool.Pool, chan struct{}) {
	t.Helper()

	opts = append([]pool.Option{
		pool.WithCoreSize(1),
		pool.WithMaxSize(1),
		pool.WithQueueCapacity(queueCap),
	}, opts...)
	p, err := pool.New(opts...)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	if _, err := p.Submit(func() error {
		close(started)
		<-release
		return nil
	}); err != nil {
		t.Fatalf("blocking submission failed: %v", err)
	}
	recvOrFail(t, started, "worker never started")

	for i := 0; i < queueCap; i++ {
		res, err := p.Submit(func() error { return nil })
		if res != pool.SubmissionAccepted || err != nil {
			t.Fatalf("queue fill %d: got %v / %v", i, res, err)
		}
	}
	return p, release
}

func TestPolicy_Discard(t *testing.T) {
	p, release := saturate(t, 1, pool.WithRejectionPolicy(pool.Discard))

	var ran atomic.Bool
	res, err := p.Submit(func() error {
		ran.Store(true)
		return nil
	})
	if res != pool.SubmissionRejected {
		t.Errorf("expected SubmissionRejected, got %v", res)
	}
	if err != nil {
		t.Errorf("discard should report no error, got %v", err)
	}
	if got := p.QueueLength(); got != 1 {
		t.Errorf("discard should leave the queue untouched, got length %d", got)
	}

	close(release)
	p.Shutdown(true)
	if !p.AwaitTermination(2 * time.Second) {
		t.Fatal("pool never terminated")
	}
	if ran.Load() {
		t.Error("discarded task must never execute")
	}
}

func TestPolicy_DiscardOldest(t *testing.T) {
	var mu sync.Mutex
	var evictions int

	var order []string
	mark := func(id string) pool.Task {
		return func() error {
			mu.Lock()
			order = append(order, id)
			mu.Unlock()
			return nil
		}
	}

	p, err := pool.New(
		pool.WithCoreSize(1),
		pool.WithMaxSize(1),
		pool.WithQueueCapacity(2),
		pool.WithRejectionPolicy(pool.DiscardOldest),
		pool.WithRejectionObserver(func(pool.Task) {
			mu.Lock()
			evictions++
			mu.Unlock()
		}),
	)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	if _, err := p.Submit(func() error {
		close(started)
		<-release
		return nil
	}); err != nil {
		t.Fatalf("blocking submission failed: %v", err)
	}
	recvOrFail(t, started, "worker never started")

	for _, id := range []string{"a", "b"} {
		if res, err := p.Submit(mark(id)); res != pool.SubmissionAccepted || err != nil {
			t.Fatalf("queueing %s: got %v / %v", id, res, err)
		}
	}

	// Queue is [a b]; this evicts a and enqueues c.
	res, err := p.Submit(mark("c"))
	if res != pool.SubmissionAccepted {
		t.Errorf("expected SubmissionAccepted, got %v", res)
	}
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if got := p.QueueLength(); got != 2 {
		t.Errorf("queue length should be unchanged, got %d", got)
	}

	close(release)
	p.Shutdown(true)
	if !p.AwaitTermination(2 * time.Second) {
		t.Fatal("pool never terminated")
	}

	mu.Lock()
	defer mu.Unlock()
	if evictions != 1 {
		t.Errorf("expected 1 eviction reported, got %d", evictions)
	}
	if len(order) != 2 || order[0] != "b" || order[1] != "c" {
		t.Errorf("expected executions [b c], got %v", order)
	}
}

// With nothing queued to evict, DiscardOldest degrades to Discard: the new
// task is dropped and no eviction is reported.
func TestPolicy_DiscardOldestEmptyQueue(t *testing.T) {
	var mu sync.Mutex
	var evictions int

	p, release := saturate(t, 0,
		pool.WithRejectionPolicy(pool.DiscardOldest),
		pool.WithRejectionObserver(func(pool.Task) {
			mu.Lock()
			evictions++
			mu.Unlock()
		}),
	)

	var ran atomic.Bool
	res, err := p.Submit(func() error {
		ran.Store(true)
		return nil
	})
	if res != pool.SubmissionRejected {
		t.Errorf("expected SubmissionRejected, got %v", res)
	}
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	close(release)
	p.Shutdown(true)
	if !p.AwaitTermination(2 * time.Second) {
		t.Fatal("pool never terminated")
	}

	if ran.Load() {
		t.Error("dropped task must never execute")
	}
	mu.Lock()
	if evictions != 0 {
		t.Errorf("nothing was evicted, got %d reports", evictions)
	}
	mu.Unlock()
	if got := p.Stats().Rejected; got != 1 {
		t.Errorf("expected 1 rejection counted, got %d", got)
	}
}

func TestPolicy_RunInline(t *testing.T) {
	p, release := saturate(t, 1, pool.WithRejectionPolicy(pool.RunInline))

	var ran atomic.Bool
	res, err := p.Submit(func() error {
		ran.Store(true)
		return nil
	})
	if res != pool.SubmissionAccepted {
		t.Errorf("expected SubmissionAccepted, got %v", res)
	}
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	// The worker is still blocked, so only the caller could have run it.
	if !ran.Load() {
		t.Error("task should have executed inline before Submit returned")
	}
	if got := p.WorkerCount(); got != 1 {
		t.Errorf("inline execution should not grow the pool, got %d workers", got)
	}
	if got := p.QueueLength(); got != 1 {
		t.Errorf("inline execution should not touch the queue, got length %d", got)
	}

	close(release)
	p.Shutdown(true)
	if !p.AwaitTermination(2 * time.Second) {
		t.Fatal("pool never terminated")
	}
}

func TestPolicy_RunInlinePropagatesTaskError(t *testing.T) {
	p, release := saturate(t, 0, pool.WithRejectionPolicy(pool.RunInline))
	defer func() {
		close(release)
		p.Shutdown(true)
		p.AwaitTermination(2 * time.Second)
	}()

	errTask := errors.New("payload failure")
	res, err := p.Submit(func() error { return errTask })
	if res != pool.SubmissionAccepted {
		t.Errorf("expected SubmissionAccepted, got %v", res)
	}
	if !errors.Is(err, errTask) {
		t.Errorf("expected the task's error, got %v", err)
	}
}

// Inline execution happens on the caller's goroutine outside the worker's
// recovery wrapper, so a panicking task panics the submitter.
func TestPolicy_RunInlinePropagatesTaskPanic(t *testing.T) {
	p, release := saturate(t, 0, pool.WithRejectionPolicy(pool.RunInline))

	var recovered any
	func() {
		defer func() {
			recovered = recover()
		}()
		_, _ = p.Submit(func() error {
			panic("inline boom")
		})
	}()

	if recovered == nil {
		t.Fatal("expected the panic to reach the caller")
	}
	if recovered != "inline boom" {
		t.Errorf("expected the task's panic value, got %v", recovered)
	}

	// The pool is undamaged: it keeps serving and shuts down cleanly.
	close(release)
	p.Shutdown(true)
	if !p.AwaitTermination(2 * time.Second) {
		t.Fatal("pool never terminated")
	}
}
