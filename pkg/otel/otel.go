package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

const (
	// TracerName is the instrumentation scope of the collect and fetch spans.
	TracerName = "github.com/kyma-project/gpu-pricing-collector"

	serviceName     = "gpu-pricing-collector"
	serviceNameAttr = "service.name"
	runIDAttr       = "gpupc.run_id"
)

// SetupSDK exports the spans of one collection run over OTLP/gRPC. The endpoint comes from the
// OTEL_EXPORTER_OTLP_* variables. Every span carries the run id, so a trace can be matched with the run's logs.
// Call the returned shutdown before exiting or the last batch is lost.
func SetupSDK(ctx context.Context, runID string) (func(context.Context) error, error) {
	exporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient())
	if err != nil {
		return nil, err
	}

	tracerProvider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(runResource(runID)),
	)

	otel.SetTracerProvider(tracerProvider)

	return tracerProvider.Shutdown, nil
}

func runResource(runID string) *resource.Resource {
	return resource.NewSchemaless(
		attribute.String(serviceNameAttr, serviceName),
		attribute.String(runIDAttr, runID),
	)
}
