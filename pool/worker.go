package pool

import (
	"fmt"
	"runtime"
	"time"

	"github.com/alexvia/dynpool/internal/cpu"
)

// worker is a single long-lived execution unit owned by the pool controller.
// It cycles Idle -> Busy -> Idle until it retires: on shutdown, or after
// sitting idle past the keep-alive timeout while eligible. Retired is
// terminal. The worker holds a back-reference to the pool for reporting and
// task intake only; lifecycle ownership stays with the controller.
type worker struct {
	id       int64
	name     string
	pool     *Pool
	first    Task
	detached bool
}

// run is the worker main loop. It executes the seed task it was spawned
// with, then alternates between draining the queue and waiting for work.
func (w *worker) run() error {
	p := w.pool
	defer w.detach()

	if p.conf.pinWorkers {
		unpin := cpu.PinWorker(int(w.id))
		defer unpin()
	}

	if w.first != nil {
		w.exec(w.first)
		w.first = nil
	}

	idle := time.NewTimer(p.conf.keepAlive)
	defer idle.Stop()

	for {
		// Take queued work before consulting lifecycle state, so a draining
		// shutdown finishes the backlog first.
		if t, ok := p.queue.tryPop(); ok {
			w.exec(t)
			continue
		}

		// Queue is empty. An immediate shutdown has already discarded the
		// backlog; a draining one has nothing left. Either way, retire.
		if p.State() != StateRunning {
			return nil
		}

		if p.idleTimeoutEligible() {
			resetTimer(idle, p.conf.keepAlive)
			select {
			case t := <-p.queue.recv():
				w.exec(t)
			case <-p.stop:
				// Loop around; the state check decides.
			case <-idle.C:
				if w.tryRetire() {
					return nil
				}
			}
		} else {
			select {
			case t := <-p.queue.recv():
				w.exec(t)
			case <-p.stop:
			}
		}
	}
}

// exec runs one task, bracketing it with busy accounting and the optional
// rate limiter. Task failures are reported, never propagated.
func (w *worker) exec(t Task) {
	p := w.pool
	p.busy.Add(1)
	defer func() {
		p.busy.Add(-1)
		p.completed.Add(1)
	}()

	if p.conf.rateLimiter != nil {
		// p.ctx is cancelled only at termination, which cannot be reached
		// while this worker still holds a task.
		_ = p.conf.rateLimiter.Wait(p.ctx)
	}

	if err := w.safeRun(t); err != nil && p.conf.onTaskFailure != nil {
		p.conf.onTaskFailure(w.name, err)
	}
}

// safeRun executes the task, converting a panic into an error with a stack
// trace so a failing task cannot take down the worker.
func (w *worker) safeRun(t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			err = fmt.Errorf("%s: task panic: %v\nstack trace:\n%s", w.name, r, buf[:n])
		}
	}()
	return t()
}

// idleTimeoutEligible reports whether a worker entering its wait may retire
// on timeout: always with allowCoreTimeout, otherwise only while the pool
// holds more than coreSize workers.
func (p *Pool) idleTimeoutEligible() bool {
	if p.conf.allowCoreTimeout {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workers > p.conf.coreSize
}

// tryRetire removes the worker from the pool after an idle timeout. The
// queue re-check and the count decrement share one critical section with
// Submit, so a task enqueued concurrently can never be stranded without a
// worker: either the push lands first and the retire is refused, or the
// retire lands first and Submit sees the reduced count and spawns.
func (w *worker) tryRetire() bool {
	p := w.pool
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.queue.len() > 0 {
		return false
	}
	if !p.conf.allowCoreTimeout && p.workers <= p.conf.coreSize {
		return false
	}

	p.workers--
	w.detached = true
	return true
}

// detach unregisters the worker on any exit path that did not already do so.
// Runs on the worker goroutine, so the flag needs no synchronization.
func (w *worker) detach() {
	if w.detached {
		return
	}
	p := w.pool
	p.mu.Lock()
	p.workers--
	w.detached = true
	p.mu.Unlock()
}
