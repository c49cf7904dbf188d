package otel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestInit_InstallsProvider(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "persephone-test"})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	_, span := otel.Tracer("test").Start(context.Background(), "probe")
	defer span.End()
	if !span.SpanContext().HasTraceID() {
		t.Fatal("expected a recording tracer provider")
	}
}

func TestInit_OTLPEndpoint(t *testing.T) {
	// The exporter connects lazily, so an unreachable endpoint is accepted.
	shutdown, err := Init(context.Background(), Config{OTLPEndpoint: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
