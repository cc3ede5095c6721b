package pool

import (
	"go.opentelemetry.io/otel/metric"

	"github.com/pgvanniekerk/ezpool/internal/metrics"
)

// MetricHandle records pool activity. Implement it to feed a metrics system of your own, or
// use NewOTelMetrics.
type MetricHandle = metrics.MetricHandle

// Gauges is the live view of a pool handed to MetricHandle.ObservePool.
type Gauges = metrics.Gauges

// Attribute values passed to a MetricHandle.
const (
	DispatchDirect  = metrics.DispatchDirect
	DispatchQueued  = metrics.DispatchQueued
	DiscardClear    = metrics.DiscardClear
	DiscardDequeue  = metrics.DiscardDequeue
	DiscardShutdown = metrics.DiscardShutdown
)

// NewOTelMetrics returns a MetricHandle that records on provider's meter. A nil provider uses
// the global meter provider.
func NewOTelMetrics(provider metric.MeterProvider) (MetricHandle, error) {
	return metrics.NewOTelMetrics(provider)
}

// NewNoopMetrics returns a MetricHandle that discards everything.
func NewNoopMetrics() MetricHandle {
	return metrics.NewNoopMetrics()
}
