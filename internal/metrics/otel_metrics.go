package metrics

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "ezpool"

var (
	// dispatchKey specifies whether a task went straight to a worker or through the queue.
	dispatchKey = attribute.Key("dispatch")
	// statusKey specifies whether a task returned normally or panicked.
	statusKey = attribute.Key("status")
	// reasonKey specifies the operation that discarded queued tasks.
	reasonKey = attribute.Key("reason")

	defaultLatencyDistribution = metric.WithExplicitBucketBoundaries(1, 2, 3, 4, 5, 6, 8, 10, 13, 16, 20, 25, 30, 40, 50, 65, 80, 100, 130, 160, 200, 250, 300, 400, 500, 650, 800, 1000, 2000, 5000, 10000, 20000, 50000, 100000)

	dispatchOptionCache,
	statusOptionCache,
	reasonOptionCache sync.Map
)

func loadOrStoreAttrOption[K comparable](mp *sync.Map, key K, attrSetGenFunc func() attribute.Set) metric.MeasurementOption {
	attrSet, ok := mp.Load(key)
	if ok {
		return attrSet.(metric.MeasurementOption)
	}
	v, _ := mp.LoadOrStore(key, metric.WithAttributeSet(attrSetGenFunc()))
	return v.(metric.MeasurementOption)
}

func dispatchAttrOption(dispatch string) metric.MeasurementOption {
	return loadOrStoreAttrOption(&dispatchOptionCache, dispatch,
		func() attribute.Set {
			return attribute.NewSet(dispatchKey.String(dispatch))
		})
}

func statusAttrOption(status string) metric.MeasurementOption {
	return loadOrStoreAttrOption(&statusOptionCache, status,
		func() attribute.Set {
			return attribute.NewSet(statusKey.String(status))
		})
}

func reasonAttrOption(reason string) metric.MeasurementOption {
	return loadOrStoreAttrOption(&reasonOptionCache, reason,
		func() attribute.Set {
			return attribute.NewSet(reasonKey.String(reason))
		})
}

// otelMetrics maintains the list of all metrics computed by a pool.
type otelMetrics struct {
	tasksSubmitted metric.Int64Counter
	tasksCompleted metric.Int64Counter
	tasksDiscarded metric.Int64Counter
	taskLatency    metric.Float64Histogram

	// gauges is the pool read by the observable gauges. Nil until ObservePool is called.
	gauges *atomic.Pointer[Gauges]
}

func (o *otelMetrics) TaskSubmitted(ctx context.Context, dispatch string) {
	o.tasksSubmitted.Add(ctx, 1, dispatchAttrOption(dispatch))
}

func (o *otelMetrics) TaskFinished(ctx context.Context, latency time.Duration, panicked bool) {
	status := StatusOK
	if panicked {
		status = StatusPanicked
	}
	o.tasksCompleted.Add(ctx, 1, statusAttrOption(status))
	o.taskLatency.Record(ctx, float64(latency.Microseconds()), statusAttrOption(status))
}

func (o *otelMetrics) TasksDiscarded(ctx context.Context, n int64, reason string) {
	if n <= 0 {
		return
	}
	o.tasksDiscarded.Add(ctx, n, reasonAttrOption(reason))
}

func (o *otelMetrics) ObservePool(g Gauges) {
	o.gauges.Store(&g)
}

// observe reports f applied to the observed pool, if there is one.
func (o *otelMetrics) observe(f func(Gauges) int) metric.Int64Callback {
	return func(_ context.Context, obsrv metric.Int64Observer) error {
		g := o.gauges.Load()
		if g == nil {
			return nil
		}
		obsrv.Observe(int64(f(*g)))
		return nil
	}
}

// NewOTelMetrics creates the pool instruments on provider's meter. A nil provider uses the
// global meter provider.
func NewOTelMetrics(provider metric.MeterProvider) (MetricHandle, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)
	o := &otelMetrics{gauges: &atomic.Pointer[Gauges]{}}

	tasksSubmitted, err1 := meter.Int64Counter("pool/tasks_submitted",
		metric.WithDescription("The cumulative number of tasks accepted by the pool along with how they were dispatched - direct/queued"))
	tasksCompleted, err2 := meter.Int64Counter("pool/tasks_completed",
		metric.WithDescription("The cumulative number of tasks that returned along with status - ok/panicked"))
	tasksDiscarded, err3 := meter.Int64Counter("pool/tasks_discarded",
		metric.WithDescription("The cumulative number of queued tasks dropped before execution along with reason - clear/dequeue/shutdown"))
	taskLatency, err4 := meter.Float64Histogram("pool/task_latency",
		metric.WithDescription("The cumulative distribution of task execution latencies"),
		metric.WithUnit("us"),
		defaultLatencyDistribution)
	_, err5 := meter.Int64ObservableGauge("pool/queue_length",
		metric.WithDescription("The number of tasks waiting for a free worker"),
		metric.WithInt64Callback(o.observe(Gauges.QueueLen)))
	_, err6 := meter.Int64ObservableGauge("pool/busy_workers",
		metric.WithDescription("The number of workers holding a task"),
		metric.WithInt64Callback(o.observe(Gauges.BusyWorkers)))
	_, err7 := meter.Int64ObservableGauge("pool/workers",
		metric.WithDescription("The number of workers in the pool"),
		metric.WithInt64Callback(o.observe(Gauges.Size)))

	if err := errors.Join(err1, err2, err3, err4, err5, err6, err7); err != nil {
		return nil, err
	}

	o.tasksSubmitted = tasksSubmitted
	o.tasksCompleted = tasksCompleted
	o.tasksDiscarded = tasksDiscarded
	o.taskLatency = taskLatency
	return o, nil
}
