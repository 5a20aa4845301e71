package tracing

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/matchgram/pkg/config"
)

func TestNew_Disabled(t *testing.T) {
	tracer, err := New(config.TracingConfig{Enabled: false})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if tracer.Enabled() {
		t.Error("Enabled() = true, want false")
	}

	ctx, span := tracer.Start(context.Background(), "noop")
	span.End()
	if TraceID(ctx) != "" {
		t.Errorf("TraceID() = %q, want empty for noop span", TraceID(ctx))
	}
	if err := tracer.Flush(context.Background()); err != nil {
		t.Errorf("Flush() = %v", err)
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() = %v", err)
	}
}

func TestNilTracer(t *testing.T) {
	var tracer *Tracer
	_, span := tracer.Start(context.Background(), "nil")
	span.End()
	if tracer.Enabled() {
		t.Error("nil tracer reports enabled")
	}
	if err := tracer.Flush(context.Background()); err != nil {
		t.Errorf("Flush() = %v", err)
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() = %v", err)
	}
}

func TestTracer_ExportsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := NewWithExporter(config.TracingConfig{Enabled: true, SampleRatio: 1}, exporter)
	if err != nil {
		t.Fatalf("NewWithExporter() failed: %v", err)
	}

	ctx, span := tracer.Start(context.Background(), "ruleset.evaluate")
	span.SetAttributes(AttrRuleSet.String("anti-spam"), AttrHits.Int(1))
	if TraceID(ctx) == "" {
		t.Error("TraceID() is empty inside a sampled span")
	}
	End(span, errors.New("rule failed"))

	if err := tracer.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() failed: %v", err)
	}
	defer tracer.Shutdown(context.Background())

	// The in-memory exporter forgets its spans on shutdown.
	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("exported %d spans, want 1", len(spans))
	}
	if spans[0].Name != "ruleset.evaluate" {
		t.Errorf("span name = %q", spans[0].Name)
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("status = %v, want Error", spans[0].Status.Code)
	}
}

func TestPropagation_RoundTrip(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := NewWithExporter(config.TracingConfig{Enabled: true, SampleRatio: 1}, exporter)
	if err != nil {
		t.Fatalf("NewWithExporter() failed: %v", err)
	}
	defer tracer.Shutdown(context.Background())

	ctx, span := tracer.Start(context.Background(), "publish")
	defer span.End()

	headers := http.Header{}
	Inject(ctx, headers)
	if headers.Get("traceparent") == "" {
		t.Fatal("traceparent header not injected")
	}

	remote := Extract(context.Background(), headers)
	_, child := tracer.Start(remote, "consume")
	defer child.End()
	if got, want := child.SpanContext().TraceID(), span.SpanContext().TraceID(); got != want {
		t.Errorf("child trace ID = %v, want %v", got, want)
	}

	if Extract(ctx, nil) != ctx {
		t.Error("Extract(nil headers) should return ctx unchanged")
	}
}
