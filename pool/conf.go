package pool

import (
	"fmt"
	"runtime"
	"time"

	"golang.org/x/time/rate"
)

// Option is a functional option for configuring the pool.
type Option func(*poolConfig)

// poolConfig is the immutable configuration record a pool is built from.
// Values are validated once in New; the zero-config defaults follow the
// common sizing guidance for mixed workloads: steady-state concurrency of
// 2x the CPU count, burst ceiling of 4x, and a queue of four times the
// ceiling to absorb bursts before overflow workers spawn.
type poolConfig struct {
	coreSize         int
	maxSize          int
	queueCapacity    int
	keepAlive        time.Duration
	allowCoreTimeout bool
	namePrefix       string
	policy           RejectionPolicy
	rateLimiter      *rate.Limiter
	pinWorkers       bool

	onTaskFailure  func(worker string, err error)
	onTaskRejected func(Task)
}

func defaultConfig() *poolConfig {
	cpus := runtime.GOMAXPROCS(0)
	return &poolConfig{
		coreSize:      2 * cpus,
		maxSize:       4 * cpus,
		queueCapacity: 16 * cpus,
		keepAlive:     60 * time.Second,
		namePrefix:    "worker",
		policy:        Abort,
	}
}

func (c *poolConfig) validate() error {
	if c.coreSize < 1 {
		return fmt.Errorf("%w: core size must be at least 1, got %d", ErrInvalidConfiguration, c.coreSize)
	}
	if c.maxSize < c.coreSize {
		return fmt.Errorf("%w: max size %d is below core size %d", ErrInvalidConfiguration, c.maxSize, c.coreSize)
	}
	if c.queueCapacity < 0 {
		return fmt.Errorf("%w: queue capacity must not be negative, got %d", ErrInvalidConfiguration, c.queueCapacity)
	}
	if c.keepAlive < 0 {
		return fmt.Errorf("%w: keep-alive must not be negative, got %v", ErrInvalidConfiguration, c.keepAlive)
	}
	return nil
}

// WithCoreSize sets the number of persistent workers kept at steady state.
// Core workers are retired only on shutdown, unless WithAllowCoreTimeout is
// enabled. Default: 2 x GOMAXPROCS.
func WithCoreSize(n int) Option {
	return func(c *poolConfig) {
		c.coreSize = n
	}
}

// WithMaxSize sets the burst ceiling: the total worker count, core plus
// overflow, never exceeds it. Default: 4 x GOMAXPROCS.
func WithMaxSize(n int) Option {
	return func(c *poolConfig) {
		c.maxSize = n
	}
}

// WithQueueCapacity sets the capacity of the bounded task queue. A capacity
// of zero disables queueing entirely: a submission is either handed straight
// to a waiting worker or triggers an overflow spawn. Default: 16 x GOMAXPROCS.
func WithQueueCapacity(n int) Option {
	return func(c *poolConfig) {
		c.queueCapacity = n
	}
}

// WithKeepAlive sets how long an idle overflow worker survives before it
// retires itself. Default: 60s.
func WithKeepAlive(d time.Duration) Option {
	return func(c *poolConfig) {
		c.keepAlive = d
	}
}

// WithAllowCoreTimeout lets core workers retire on the keep-alive timeout as
// well, so a fully idle pool eventually shrinks to zero workers.
func WithAllowCoreTimeout(allow bool) Option {
	return func(c *poolConfig) {
		c.allowCoreTimeout = allow
	}
}

// WithNamePrefix sets the diagnostic name prefix for workers. Worker names
// appear in failure reports and have no behavioral effect. Default: "worker".
func WithNamePrefix(prefix string) Option {
	return func(c *poolConfig) {
		if prefix != "" {
			c.namePrefix = prefix
		}
	}
}

// WithRejectionPolicy selects the saturation policy applied when dispatch,
// enqueue, and overflow-spawn have all failed. Default: Abort.
func WithRejectionPolicy(p RejectionPolicy) Option {
	return func(c *poolConfig) {
		c.policy = p
	}
}

// WithRateLimit sets a rate limiter for controlling task throughput.
// tasksPerSecond specifies the maximum number of tasks to execute per second;
// burst the maximum executed back to back. Workers wait on the limiter before
// running each task, so Submit itself stays non-blocking.
// If not specified, no rate limiting is applied.
func WithRateLimit(tasksPerSecond float64, burst int) Option {
	return func(c *poolConfig) {
		if tasksPerSecond > 0 && burst > 0 {
			c.rateLimiter = rate.NewLimiter(rate.Limit(tasksPerSecond), burst)
		}
	}
}

// WithCPUAffinity pins each worker's OS thread to a CPU core chosen by
// worker id. Only effective on platforms with a thread affinity syscall;
// elsewhere workers are merely locked to their OS thread.
func WithCPUAffinity() Option {
	return func(c *poolConfig) {
		c.pinWorkers = true
	}
}

// WithFailureObserver registers a callback invoked with the worker name and
// the task error whenever a task fails or panics. The callback runs on the
// worker goroutine and should return quickly.
func WithFailureObserver(fn func(worker string, err error)) Option {
	return func(c *poolConfig) {
		c.onTaskFailure = fn
	}
}

// WithRejectionObserver registers a callback invoked with every task the
// pool gave up on: tasks evicted by DiscardOldest and tasks discarded from
// the queue by an immediate shutdown.
func WithRejectionObserver(fn func(Task)) Option {
	return func(c *poolConfig) {
		c.onTaskRejected = fn
	}
}
