package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tom2tomtomtom/traffic-manager/pkg/tracing/exporters"
)

type ProviderConfig struct {
	ServiceName string
	// Enabled exports spans over OTLP. When false spans are created and discarded.
	Enabled bool
	OTLP    exporters.OTLPConfig
}

// NewProvider builds a tracer provider, installs it globally and points StartSpan at it.
func NewProvider(ctx context.Context, config ProviderConfig) (*sdktrace.TracerProvider, error) {
	var exporter sdktrace.SpanExporter = exporters.DiscardExporter{}
	if config.Enabled {
		otlpExporter, err := exporters.NewOTLPExporter(ctx, config.OTLP)
		if err != nil {
			return nil, err
		}
		exporter = otlpExporter
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	SetTracer(provider.Tracer(config.ServiceName))

	return provider, nil
}
