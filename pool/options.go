package pool

import (
	"log/slog"
	"time"

	"github.com/jacobsa/timeutil"

	"github.com/pgvanniekerk/ezpool/cfg"
	"github.com/pgvanniekerk/ezpool/internal/pool"
)

// Option configures a pool created by NewPool.
type Option func(*pool.Options)

// WithStartPaused creates workers with their run-flag cleared. Nothing runs until StartAll
// or StartWorker is called.
func WithStartPaused() Option {
	return func(o *pool.Options) {
		o.StartPaused = true
	}
}

// WithAwaitPollInterval sets how often AwaitIdle re-checks the pool. Defaults to 10ms.
func WithAwaitPollInterval(d time.Duration) Option {
	return func(o *pool.Options) {
		o.AwaitPollInterval = d
	}
}

// WithAwaitTimeout bounds every AwaitIdle call.
func WithAwaitTimeout(d time.Duration) Option {
	return func(o *pool.Options) {
		o.AwaitTimeout = d
	}
}

// WithShutdownTimeout bounds the wait for workers in Shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *pool.Options) {
		o.ShutdownTimeout = d
	}
}

// WithPanicHandler sets the function called with the value recovered from a panicking task.
func WithPanicHandler(h func(any)) Option {
	return func(o *pool.Options) {
		o.PanicHandler = h
	}
}

// WithLogger sets the logger the pool and its workers write to. Records carry pool_id and
// worker attributes. Defaults to the process-wide logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *pool.Options) {
		o.Logger = l
	}
}

// WithMetricHandle records pool activity on h. See NewOTelMetrics and NewNoopMetrics.
func WithMetricHandle(h MetricHandle) Option {
	return func(o *pool.Options) {
		o.Metrics = h
	}
}

// WithClock sets the clock task latency is measured with.
func WithClock(c timeutil.Clock) Option {
	return func(o *pool.Options) {
		o.Clock = c
	}
}

// WithConfig applies the pool section of a loaded configuration. The worker count is not
// part of it; pass c.Workers to NewPool.
func WithConfig(c cfg.PoolConfig) Option {
	return func(o *pool.Options) {
		o.StartPaused = c.StartPaused
		o.AwaitPollInterval = c.AwaitPollInterval
		o.AwaitTimeout = c.AwaitTimeout
		o.ShutdownTimeout = c.ShutdownTimeout
	}
}
