package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements MetricsRecorder against a local Prometheus
// registry, exposed on the /internal/metrics endpoint (spec §6). The
// teacher's own monitor/prometheus recorder wasn't part of the retrieved
// pack, so this is built directly against client_golang's promauto idiom,
// matching the instrument names chosen for OtelRecorder so both backends
// describe the same signals.
type PrometheusRecorder struct {
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
	httpActiveRequests  *prometheus.GaugeVec

	dispatchAttemptDuration *prometheus.HistogramVec
	dispatchAttemptsTotal   *prometheus.CounterVec

	circuitOpen *prometheus.GaugeVec

	errorsTotal *prometheus.CounterVec
}

// NewPrometheusRecorder registers the gateway's collectors against reg and
// returns the recorder.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name: "llm_router_http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		}, []string{"path", "method", "status_code"}),
		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_router_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"path", "method", "status_code"}),
		httpActiveRequests: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "llm_router_http_active_requests",
			Help: "Number of active HTTP requests",
		}, []string{"path", "method"}),
		dispatchAttemptDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name: "llm_router_dispatch_attempt_duration_seconds",
			Help: "Duration of a single dispatcher candidate attempt",
		}, []string{"provider_id", "model_id", "target_format", "success"}),
		dispatchAttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_router_dispatch_attempts_total",
			Help: "Total number of dispatcher candidate attempts",
		}, []string{"provider_id", "model_id", "target_format", "success", "status_code"}),
		circuitOpen: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "llm_router_circuit_open",
			Help: "1 when the circuit for a candidate key is open, else 0",
		}, []string{"provider_id", "model_id", "target_format"}),
		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_router_errors_total",
			Help: "Total number of classified failures",
		}, []string{"error_type", "component"}),
	}
}

func (r *PrometheusRecorder) RecordHTTPRequest(startTime time.Time, path, method, statusCode string) {
	r.httpRequestDuration.WithLabelValues(path, method, statusCode).Observe(time.Since(startTime).Seconds())
	r.httpRequestsTotal.WithLabelValues(path, method, statusCode).Inc()
}

func (r *PrometheusRecorder) RecordHTTPActiveRequest(path, method string, delta float64) {
	r.httpActiveRequests.WithLabelValues(path, method).Add(delta)
}

func (r *PrometheusRecorder) RecordDispatchAttempt(startTime time.Time, providerID, modelID, targetFormat string, success bool, statusCode int) {
	successStr := strconv.FormatBool(success)
	r.dispatchAttemptDuration.WithLabelValues(providerID, modelID, targetFormat, successStr).Observe(time.Since(startTime).Seconds())
	r.dispatchAttemptsTotal.WithLabelValues(providerID, modelID, targetFormat, successStr, strconv.Itoa(statusCode)).Inc()
}

func (r *PrometheusRecorder) RecordCircuitState(providerID, modelID, targetFormat string, open bool) {
	v := 0.0
	if open {
		v = 1.0
	}
	r.circuitOpen.WithLabelValues(providerID, modelID, targetFormat).Set(v)
}

func (r *PrometheusRecorder) RecordError(errorType, component string) {
	r.errorsTotal.WithLabelValues(errorType, component).Inc()
}

// Handler returns the HTTP handler to mount at /internal/metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
