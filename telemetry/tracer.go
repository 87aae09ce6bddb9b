/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package telemetry installs the process-wide OpenTelemetry tracer provider.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const shutdownTimeout = 5 * time.Second

// Option configures SetupTracer.
type Option func(*options)

type options struct {
	serviceName string
	otlp        bool
	exporter    sdktrace.SpanExporter
}

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(o *options) {
		o.serviceName = name
	}
}

// WithOTLP batches spans to an OTLP/HTTP collector. The exporter reads the
// standard OTEL_EXPORTER_OTLP_* variables for its endpoint and headers.
func WithOTLP(enabled bool) Option {
	return func(o *options) {
		o.otlp = enabled
	}
}

// WithExporter sends every finished span to e synchronously.
func WithExporter(e sdktrace.SpanExporter) Option {
	return func(o *options) {
		o.exporter = e
	}
}

// SetupTracer installs an SDK tracer provider and the W3C trace-context
// propagator as the process globals. Spans are recorded even without an
// exporter so trace and span IDs stay valid in logs and outgoing headers.
//
// The returned function flushes and shuts down the provider.
func SetupTracer(ctx context.Context, opts ...Option) (func(), error) {
	o := &options{serviceName: "provisioner"}
	for _, opt := range opts {
		opt(o)
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", o.serviceName))),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	}
	if o.otlp {
		exp, err := otlptracehttp.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating OTLP trace exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exp))
	}
	if o.exporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithSyncer(o.exporter))
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(sctx); err != nil {
			clog.FromContext(ctx).Warnf("Shutting down tracer provider: %v", err)
		}
	}, nil
}
