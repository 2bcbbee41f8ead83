package otel

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	providerAttr = "provider"
	regionAttr   = "region"
)

func SpanAttributes(provider, region string) trace.SpanStartEventOption {
	return trace.WithAttributes(
		attribute.String(providerAttr, provider),
		attribute.String(regionAttr, region),
	)
}
