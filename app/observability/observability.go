// Package observability wires logging, tracing, metrics and fault reporting.
package observability

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel/trace"
)

// Config is the observability subset of the application config.
type Config struct {
	ServiceName    string
	Environment    string
	Version        string
	LogLevel       string
	MetricsAddress string
	OTLPEndpoint   string
	OTLPInsecure   bool
	SampleRate     float64
	SentryDSN      string
}

// Observability bundles the providers handed to every module.
type Observability struct {
	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
	Registry       *prometheus.Registry
	Metrics        *PrometheusMetrics
	Faults         FaultReporter

	shutdown []func(context.Context) error
}

// Init builds the providers for cfg.
func Init(ctx context.Context, cfg Config) (*Observability, error) {
	logger := NewLogger(cfg)

	tp, tpShutdown, err := NewTracerProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	faults, faultsShutdown, err := NewFaultReporter(cfg, logger)
	if err != nil {
		_ = tpShutdown(ctx)
		return nil, err
	}

	return &Observability{
		Logger:         logger,
		TracerProvider: tp,
		Registry:       registry,
		Metrics:        NewPrometheusMetrics(registry, "hunting_party"),
		Faults:         faults,
		shutdown:       []func(context.Context) error{tpShutdown, faultsShutdown},
	}, nil
}

// Tracer returns a named tracer from the configured provider.
func (o *Observability) Tracer(name string) trace.Tracer {
	return o.TracerProvider.Tracer(name)
}

// Shutdown flushes exporters.
func (o *Observability) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range o.shutdown {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
