package prometheus

import (
	"time"

	"github.com/marmos91/tnfsd/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// tnfsMetrics is the Prometheus implementation of metrics.Metrics.
type tnfsMetrics struct {
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	sessionsActive    prometheus.Gauge
	sessionsCreated   prometheus.Counter
	sessionsReaped    prometheus.Counter
	handlesOpen       *prometheus.GaugeVec
	bytesTransferred  *prometheus.CounterVec
}

// New creates a new Prometheus-backed metrics.Metrics instance.
//
// Returns nil if metrics are not enabled (metrics.InitRegistry not called),
// so callers can pass the result straight through without a branch.
func New() metrics.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &tnfsMetrics{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tnfsd_requests_total",
				Help: "Total number of requests processed by command and status",
			},
			[]string{"command", "status"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "tnfsd_request_duration_milliseconds",
				Help: "Duration of request processing in milliseconds",
				Buckets: []float64{
					0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000,
				},
			},
			[]string{"command"},
		),
		sessionsActive: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "tnfsd_sessions_active",
				Help: "Current number of mounted sessions",
			},
		),
		sessionsCreated: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "tnfsd_sessions_created_total",
				Help: "Total number of sessions created by mount",
			},
		),
		sessionsReaped: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "tnfsd_sessions_reaped_total",
				Help: "Total number of sessions reclaimed for idling past the timeout",
			},
		),
		handlesOpen: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tnfsd_handles_open",
				Help: "Current number of open handles by kind",
			},
			[]string{"kind"}, // "file", "dir"
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tnfsd_bytes_total",
				Help: "Total payload bytes transferred by direction",
			},
			[]string{"direction"}, // "read", "write"
		),
	}
}

func (m *tnfsMetrics) RecordRequest(command string, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(command, status).Inc()
	m.requestDuration.WithLabelValues(command).Observe(float64(duration.Microseconds()) / 1000.0)
}

func (m *tnfsMetrics) SetActiveSessions(count int) {
	if m == nil {
		return
	}
	m.sessionsActive.Set(float64(count))
}

func (m *tnfsMetrics) RecordSessionCreated() {
	if m == nil {
		return
	}
	m.sessionsCreated.Inc()
}

func (m *tnfsMetrics) RecordSessionReaped() {
	if m == nil {
		return
	}
	m.sessionsReaped.Inc()
}

func (m *tnfsMetrics) SetOpenHandles(kind string, count int) {
	if m == nil {
		return
	}
	m.handlesOpen.WithLabelValues(kind).Set(float64(count))
}

func (m *tnfsMetrics) RecordBytesTransferred(direction string, bytes uint64) {
	if m == nil {
		return
	}
	m.bytesTransferred.WithLabelValues(direction).Add(float64(bytes))
}
