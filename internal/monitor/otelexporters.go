// Package monitor exports pool metrics to the outside world.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/pgvanniekerk/ezpool/cfg"
	"github.com/pgvanniekerk/ezpool/internal/logger"
)

const serviceName = "ezpool"

// ShutdownFn releases what a setup function acquired.
type ShutdownFn func(ctx context.Context) error

// JoinShutdownFunc combines the provided shutdown functions into a single function.
func JoinShutdownFunc(shutdownFns ...ShutdownFn) ShutdownFn {
	return func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFns {
			if fn == nil {
				continue
			}
			err = errors.Join(err, fn(ctx))
		}
		return err
	}
}

// SetupOTelMetricExporters installs the global meter provider, backed by a Prometheus
// exporter when a port is configured.
func SetupOTelMetricExporters(ctx context.Context, c *cfg.Config, version string) (shutdownFn ShutdownFn) {
	shutdownFns := make([]ShutdownFn, 0)
	options := make([]metric.Option, 0)

	opts, shutdownFn := setupPrometheus(c.Metrics.PrometheusPort)
	options = append(options, opts...)
	shutdownFns = append(shutdownFns, shutdownFn)

	res, err := getResource(ctx, version)
	if err != nil {
		logger.Errorf("Error while fetching resource: %v", err)
	} else {
		options = append(options, metric.WithResource(res))
	}

	meterProvider := metric.NewMeterProvider(options...)
	shutdownFns = append(shutdownFns, meterProvider.Shutdown)

	otel.SetMeterProvider(meterProvider)

	return JoinShutdownFunc(shutdownFns...)
}

func setupPrometheus(port int64) ([]metric.Option, ShutdownFn) {
	if port <= 0 {
		return nil, nil
	}
	exporter, err := prometheus.New(prometheus.WithoutUnits(), prometheus.WithoutCounterSuffixes(), prometheus.WithoutScopeInfo(), prometheus.WithoutTargetInfo())
	if err != nil {
		logger.Errorf("Error while creating prometheus exporter: %v", err)
		return nil, nil
	}
	server := serveMetrics(port)
	return []metric.Option{metric.WithReader(exporter)}, func(ctx context.Context) error {
		logger.Infof("Shutting down Prometheus exporter.")
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("error while shutting down Prometheus exporter: %w", err)
		}
		logger.Infof("Prometheus exporter shutdown")
		return nil
	}
}

func newMetricsServer(port int64) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:           fmt.Sprintf(":%d", port),
		Handler:        mux,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
}

func serveMetrics(port int64) *http.Server {
	logger.Infof("Serving metrics at localhost:%d/metrics", port)
	server := newMetricsServer(port)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Failed to start Prometheus server: %v", err)
		}
	}()
	return server
}

func getResource(ctx context.Context, version string) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
}
