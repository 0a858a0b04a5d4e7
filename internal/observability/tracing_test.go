package observability

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"

	"NebenkostenConsole/internal/config"
)

func TestDisabledTracingIsNoop(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	shutdown := InitTracing(context.Background(), config.TracingConfig{}, &buf, nil)
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("disabled tracing wrote %q", buf.String())
	}
}

// Not parallel: installs the global tracer provider.
func TestEnabledTracingExportsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	shutdown := InitTracing(context.Background(), config.TracingConfig{Enabled: true, ServiceName: "test-console"}, &buf, logger)

	_, span := otel.Tracer("test").Start(context.Background(), "GET /settlements/{id}")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "GET /settlements/{id}") || !strings.Contains(out, "test-console") {
		t.Fatalf("span not exported: %q", out)
	}
}
