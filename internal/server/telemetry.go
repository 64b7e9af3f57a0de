package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry records a span and request metrics for every handled request.
type Telemetry struct {
	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// NewTelemetry builds the HTTP telemetry middleware from the given
// providers. Returns nil (a no-op) if either provider is nil.
func NewTelemetry(tp *sdktrace.TracerProvider, mp *sdkmetric.MeterProvider) *Telemetry {
	if tp == nil || mp == nil {
		return nil
	}
	meter := mp.Meter("identity-service/http")
	requests, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Count of handled HTTP requests"))
	if err != nil {
		log.Printf("telemetry: requests counter: %v", err)
		return nil
	}
	duration, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"))
	if err != nil {
		log.Printf("telemetry: duration histogram: %v", err)
		return nil
	}
	return &Telemetry{
		tracer:   tp.Tracer("identity-service/http"),
		requests: requests,
		duration: duration,
	}
}

// Middleware wraps handlers with a server span plus counter and duration
// recordings keyed by route pattern and status class.
func (t *Telemetry) Middleware(next http.Handler) http.Handler {
	if t == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := t.tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))

		route := chi.RouteContext(ctx).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		attrs := metric.WithAttributes(
			attribute.String("http.route", route),
			attribute.String("http.method", r.Method),
			attribute.Int("http.status_code", ww.Status()),
		)
		t.requests.Add(ctx, 1, attrs)
		t.duration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)

		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", ww.Status()),
		)
		if ww.Status() >= 500 {
			span.SetStatus(codes.Error, fmt.Sprintf("status %d", ww.Status()))
		}
	})
}
