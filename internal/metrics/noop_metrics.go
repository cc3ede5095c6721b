package metrics

import (
	"context"
	"time"
)

func NewNoopMetrics() MetricHandle {
	var n noopMetrics
	return &n
}

type noopMetrics struct{}

func (*noopMetrics) TaskSubmitted(_ context.Context, _ string)               {}
func (*noopMetrics) TaskFinished(_ context.Context, _ time.Duration, _ bool) {}
func (*noopMetrics) TasksDiscarded(_ context.Context, _ int64, _ string)     {}
func (*noopMetrics) ObservePool(_ Gauges)                                    {}
