package observability

import "time"

// MetricsRecorder records operational metrics for the gateway. Grounded
// on the teacher's common/metrics.MetricsRecorder, trimmed to this
// gateway's surface: no DB, Redis, billing, user, or token dimensions,
// since none of those exist here.
type MetricsRecorder interface {
	// HTTP metrics, one sample per inbound request.
	RecordHTTPRequest(startTime time.Time, path, method, statusCode string)
	RecordHTTPActiveRequest(path, method string, delta float64)

	// RecordDispatchAttempt records one candidate attempt made by the
	// dispatcher (spec §4.4), successful or not.
	RecordDispatchAttempt(startTime time.Time, providerID, modelID, targetFormat string, success bool, statusCode int)

	// RecordCircuitState records a circuit breaker transition for a
	// (providerId/modelId, targetFormat) key (spec §4.4).
	RecordCircuitState(providerID, modelID, targetFormat string, open bool)

	// RecordError tags a failure by classification (spec §4.6) and the
	// component that raised it.
	RecordError(errorType, component string)
}

// GlobalRecorder holds the active metrics recorder implementation. Callers
// that don't need metrics, such as tests, can leave it at the default
// NoOpRecorder.
var GlobalRecorder MetricsRecorder = &NoOpRecorder{}

// NoOpRecorder is a no-operation implementation used when no Prometheus
// registry has been wired (e.g. outside cmd/router).
type NoOpRecorder struct{}

func (n *NoOpRecorder) RecordHTTPRequest(startTime time.Time, path, method, statusCode string) {}
func (n *NoOpRecorder) RecordHTTPActiveRequest(path, method string, delta float64)              {}
func (n *NoOpRecorder) RecordDispatchAttempt(startTime time.Time, providerID, modelID, targetFormat string, success bool, statusCode int) {
}
func (n *NoOpRecorder) RecordCircuitState(providerID, modelID, targetFormat string, open bool) {}
func (n *NoOpRecorder) RecordError(errorType, component string)                                {}
