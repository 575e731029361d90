package observability

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OtelRecorder implements MetricsRecorder on top of the global OpenTelemetry
// meter provider. Grounded on the teacher's monitor/otel.OtelRecorder,
// trimmed from its channel/user/billing/DB/Redis instruments (none of
// which exist in this gateway) down to HTTP, dispatch, and circuit
// instruments.
type OtelRecorder struct {
	httpRequestDuration metric.Float64Histogram
	httpRequestsTotal   metric.Int64Counter
	httpActiveRequests  metric.Float64UpDownCounter

	dispatchAttemptDuration metric.Float64Histogram
	dispatchAttemptsTotal   metric.Int64Counter

	circuitOpen metric.Int64Gauge

	errorsTotal metric.Int64Counter
}

// NewOtelRecorder builds an OtelRecorder against the process-wide meter.
func NewOtelRecorder() (*OtelRecorder, error) {
	meter := otel.Meter("llm-router")
	r := &OtelRecorder{}

	var err error
	if r.httpRequestDuration, err = meter.Float64Histogram("llm_router_http_request_duration_seconds",
		metric.WithDescription("Duration of HTTP requests in seconds")); err != nil {
		return nil, err
	}
	if r.httpRequestsTotal, err = meter.Int64Counter("llm_router_http_requests_total",
		metric.WithDescription("Total number of HTTP requests")); err != nil {
		return nil, err
	}
	if r.httpActiveRequests, err = meter.Float64UpDownCounter("llm_router_http_active_requests",
		metric.WithDescription("Number of active HTTP requests")); err != nil {
		return nil, err
	}
	if r.dispatchAttemptDuration, err = meter.Float64Histogram("llm_router_dispatch_attempt_duration_seconds",
		metric.WithDescription("Duration of a single dispatcher candidate attempt")); err != nil {
		return nil, err
	}
	if r.dispatchAttemptsTotal, err = meter.Int64Counter("llm_router_dispatch_attempts_total",
		metric.WithDescription("Total number of dispatcher candidate attempts")); err != nil {
		return nil, err
	}
	if r.circuitOpen, err = meter.Int64Gauge("llm_router_circuit_open",
		metric.WithDescription("1 when the circuit for a candidate key is open, else 0")); err != nil {
		return nil, err
	}
	if r.errorsTotal, err = meter.Int64Counter("llm_router_errors_total",
		metric.WithDescription("Total number of classified failures")); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *OtelRecorder) RecordHTTPRequest(startTime time.Time, path, method, statusCode string) {
	ctx := context.Background()
	attrs := []attribute.KeyValue{
		attribute.String("path", path),
		attribute.String("method", method),
		attribute.String("status_code", statusCode),
	}
	r.httpRequestDuration.Record(ctx, time.Since(startTime).Seconds(), metric.WithAttributes(attrs...))
	r.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (r *OtelRecorder) RecordHTTPActiveRequest(path, method string, delta float64) {
	ctx := context.Background()
	attrs := []attribute.KeyValue{
		attribute.String("path", path),
		attribute.String("method", method),
	}
	r.httpActiveRequests.Add(ctx, delta, metric.WithAttributes(attrs...))
}

func (r *OtelRecorder) RecordDispatchAttempt(startTime time.Time, providerID, modelID, targetFormat string, success bool, statusCode int) {
	ctx := context.Background()
	attrs := []attribute.KeyValue{
		attribute.String("provider_id", providerID),
		attribute.String("model_id", modelID),
		attribute.String("target_format", targetFormat),
		attribute.String("success", strconv.FormatBool(success)),
		attribute.Int("status_code", statusCode),
	}
	r.dispatchAttemptDuration.Record(ctx, time.Since(startTime).Seconds(), metric.WithAttributes(attrs...))
	r.dispatchAttemptsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (r *OtelRecorder) RecordCircuitState(providerID, modelID, targetFormat string, open bool) {
	ctx := context.Background()
	attrs := []attribute.KeyValue{
		attribute.String("provider_id", providerID),
		attribute.String("model_id", modelID),
		attribute.String("target_format", targetFormat),
	}
	v := int64(0)
	if open {
		v = 1
	}
	r.circuitOpen.Record(ctx, v, metric.WithAttributes(attrs...))
}

func (r *OtelRecorder) RecordError(errorType, component string) {
	ctx := context.Background()
	attrs := []attribute.KeyValue{
		attribute.String("error_type", errorType),
		attribute.String("component", component),
	}
	r.errorsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}
