package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MultiRecorder fans out each MetricsRecorder call to every wrapped
// recorder, letting the Prometheus and OpenTelemetry backends run side by
// side (spec's dual otel+Prometheus monitoring stack, SPEC_FULL.md §2).
type MultiRecorder struct {
	Recorders []MetricsRecorder
}

func (m *MultiRecorder) RecordHTTPRequest(startTime time.Time, path, method, statusCode string) {
	for _, r := range m.Recorders {
		r.RecordHTTPRequest(startTime, path, method, statusCode)
	}
}

func (m *MultiRecorder) RecordHTTPActiveRequest(path, method string, delta float64) {
	for _, r := range m.Recorders {
		r.RecordHTTPActiveRequest(path, method, delta)
	}
}

func (m *MultiRecorder) RecordDispatchAttempt(startTime time.Time, providerID, modelID, targetFormat string, success bool, statusCode int) {
	for _, r := range m.Recorders {
		r.RecordDispatchAttempt(startTime, providerID, modelID, targetFormat, success, statusCode)
	}
}

func (m *MultiRecorder) RecordCircuitState(providerID, modelID, targetFormat string, open bool) {
	for _, r := range m.Recorders {
		r.RecordCircuitState(providerID, modelID, targetFormat, open)
	}
}

func (m *MultiRecorder) RecordError(errorType, component string) {
	for _, r := range m.Recorders {
		r.RecordError(errorType, component)
	}
}

// MonitoringConfig selects which metrics backends cmd/router wires up.
type MonitoringConfig struct {
	EnablePrometheus bool
	Telemetry        TelemetryConfig
}

// InitMonitoring builds GlobalRecorder from the enabled backends and
// returns the Prometheus registry (nil if Prometheus is disabled) so
// cmd/router can mount its HTTP handler. Grounded on the teacher's
// monitor.InitMonitoring, trimmed of its system/channel/user/dashboard
// background collectors (nothing here to collect: no DB, no channels).
func InitMonitoring(cfg MonitoringConfig) (*prometheus.Registry, error) {
	var recorders []MetricsRecorder
	var reg *prometheus.Registry

	if cfg.EnablePrometheus {
		reg = prometheus.NewRegistry()
		recorders = append(recorders, NewPrometheusRecorder(reg))
	}

	if cfg.Telemetry.Enabled {
		otelRecorder, err := NewOtelRecorder()
		if err != nil {
			return nil, err
		}
		recorders = append(recorders, otelRecorder)
	}

	switch len(recorders) {
	case 0:
		GlobalRecorder = &NoOpRecorder{}
	case 1:
		GlobalRecorder = recorders[0]
	default:
		GlobalRecorder = &MultiRecorder{Recorders: recorders}
	}

	return reg, nil
}
