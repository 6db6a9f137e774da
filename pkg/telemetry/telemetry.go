// Package telemetry provides in-process OpenTelemetry instrumentation for
// gate and suite runs. Adapted from the teacher's pkg/observability, with
// every OTLP network exporter removed: this core never phones home
// (SPEC_FULL.md §1 Non-goals — no networked execution). Traces and
// metrics live only in the in-process SDK providers for the duration of a
// run; Provider keeps its manual metric reader unexported, so nothing is
// read back or exported.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Provider owns the in-process tracer and meter for one gate run.
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	reader         *sdkmetric.ManualReader
	tracer         trace.Tracer
	meter          metric.Meter

	suiteCounter   metric.Int64Counter
	failureCounter metric.Int64Counter
	durationHist   metric.Float64Histogram
}

// New creates an in-process-only observability provider for serviceName.
// There is no OTLP endpoint to configure — spans and metrics never leave
// the process.
func New(serviceName string) (*Provider, error) {
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	p := &Provider{
		tracerProvider: sdktrace.NewTracerProvider(sdktrace.WithResource(res)),
		reader:         sdkmetric.NewManualReader(),
	}
	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(p.reader),
	)

	p.tracer = p.tracerProvider.Tracer("fnproof.kernel")
	p.meter = p.meterProvider.Meter("fnproof.kernel")

	var err error
	p.suiteCounter, err = p.meter.Int64Counter("fnp.suite.cases_run",
		metric.WithDescription("Total fixture cases evaluated"), metric.WithUnit("{case}"))
	if err != nil {
		return nil, fmt.Errorf("create suite counter: %w", err)
	}
	p.failureCounter, err = p.meter.Int64Counter("fnp.suite.failures",
		metric.WithDescription("Total fixture case failures"), metric.WithUnit("{failure}"))
	if err != nil {
		return nil, fmt.Errorf("create failure counter: %w", err)
	}
	p.durationHist, err = p.meter.Float64Histogram("fnp.gate.duration",
		metric.WithDescription("Gate run duration in seconds"), metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	return p, nil
}

// Tracer returns the run's tracer.
func (p *Provider) Tracer() trace.Tracer { return p.tracer }

// RecordSuite records one suite's case and failure counts.
func (p *Provider) RecordSuite(ctx context.Context, suiteName string, caseCount, failureCount int) {
	attrs := metric.WithAttributes(attribute.String("suite", suiteName))
	p.suiteCounter.Add(ctx, int64(caseCount), attrs)
	p.failureCounter.Add(ctx, int64(failureCount), attrs)
}

// RecordGateDuration records a gate run's wall-clock duration in seconds.
func (p *Provider) RecordGateDuration(ctx context.Context, gateName string, seconds float64) {
	p.durationHist.Record(ctx, seconds, metric.WithAttributes(attribute.String("gate", gateName)))
}

// StartSpan starts a span for a suite or gate run.
func (p *Provider) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, name)
}

// Shutdown flushes and releases the in-process providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	if err := p.tracerProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown tracer provider: %w", err)
	}
	if err := p.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown meter provider: %w", err)
	}
	return nil
}

// SetGlobal installs this provider's tracer/meter as the process-wide
// OpenTelemetry default, matching the teacher's convention of a single
// global provider per process.
func (p *Provider) SetGlobal() {
	otel.SetTracerProvider(p.tracerProvider)
	otel.SetMeterProvider(p.meterProvider)
}
