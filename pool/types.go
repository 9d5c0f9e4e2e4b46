package pool

import (
	"errors"
	"fmt"
	"strings"
)

// Task is an opaque unit of work executed by the pool. A non-nil error marks
// the task as failed; failures are isolated to the task that produced them
// and reported to the failure observer, they never terminate a worker or the
// pool. Under the RunInline policy the error is returned directly from Submit.
type Task func() error

var (
	// ErrInvalidConfiguration is returned by New when the configured sizes
	// or capacities are inconsistent. No pool is created.
	ErrInvalidConfiguration = errors.New("invalid pool configuration")

	// ErrPoolSaturated is returned by Submit under the Abort policy when all
	// workers are busy, the queue is full, and the worker count is at maxSize.
	ErrPoolSaturated = errors.New("pool saturated")

	// ErrPoolShutdown is returned by Submit once shutdown has begun.
	ErrPoolShutdown = errors.New("pool is shut down")

	// ErrNilTask is returned by Submit for a nil task.
	ErrNilTask = errors.New("task must not be nil")
)

// SubmissionResult reports what the pool did with a submitted task.
type SubmissionResult int

const (
	// SubmissionAccepted means the task was dispatched to a worker, enqueued,
	// or executed inline on the caller under the RunInline policy.
	SubmissionAccepted SubmissionResult = iota

	// SubmissionRejected means the saturation policy declined the task.
	SubmissionRejected

	// SubmissionInvalidState means the task arrived after shutdown began.
	// Under RunInline the task is still executed on the caller; the result
	// signals the pool state for observability.
	SubmissionInvalidState
)

func (r SubmissionResult) String() string {
	switch r {
	case SubmissionAccepted:
		return "accepted"
	case SubmissionRejected:
		return "rejected"
	case SubmissionInvalidState:
		return "invalid-state"
	default:
		return fmt.Sprintf("unknown(%d)", int(r))
	}
}

// State is the pool lifecycle state.
type State int32

const (
	// StateRunning accepts submissions and spawns workers on demand.
	StateRunning State = iota

	// StateShuttingDown no longer accepts submissions; depending on the
	// shutdown mode, workers either drain the queue or exit immediately.
	StateShuttingDown

	// StateTerminated means all workers have exited. Terminal.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting-down"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// RejectionPolicy decides what happens to a task once dispatch, enqueue, and
// overflow-spawn have all failed.
type RejectionPolicy int

const (
	// Abort rejects the task; Submit returns ErrPoolSaturated.
	Abort RejectionPolicy = iota

	// RunInline executes the task synchronously on the submitting goroutine,
	// bypassing the queue. Task errors (and panics) propagate to the caller.
	RunInline

	// Discard drops the task silently; Submit reports the rejection with no
	// error.
	Discard

	// DiscardOldest evicts the oldest queued task and enqueues the new one in
	// its place. The evicted task is reported to the rejection observer and
	// never executed. With an empty queue this behaves as Discard.
	DiscardOldest
)

func (p RejectionPolicy) String() string {
	switch p {
	case Abort:
		return "abort"
	case RunInline:
		return "run-inline"
	case Discard:
		return "discard"
	case DiscardOldest:
		return "discard-oldest"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// ParseRejectionPolicy converts a configuration string into a
// RejectionPolicy. Matching is case-insensitive.
func ParseRejectionPolicy(s string) (RejectionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "abort":
		return Abort, nil
	case "run-inline", "caller-runs":
		return RunInline, nil
	case "discard":
		return Discard, nil
	case "discard-oldest":
		return DiscardOldest, nil
	default:
		return Abort, fmt.Errorf("unknown rejection policy: %q", s)
	}
}
