package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the lifecycle engine.
type Metrics struct {
	ScansTotal   *prometheus.CounterVec
	ScanDuration prometheus.Histogram
	RecordsTotal *prometheus.CounterVec
	ScanErrors   prometheus.Counter
	CertFailures prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		ScansTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sentra_lifecycle_scans_total",
			Help: "Total lifecycle scan runs by outcome",
		}, []string{"status"}),

		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentra_lifecycle_scan_duration_seconds",
			Help:    "Duration of full lifecycle scan runs",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}),

		RecordsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sentra_lifecycle_records_total",
			Help: "Records moved through each lifecycle stage",
		}, []string{"stage"}),

		ScanErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentra_lifecycle_scan_errors_total",
			Help: "Per-policy errors collected during scans",
		}),

		CertFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentra_lifecycle_certificate_failures_total",
			Help: "Certificate generation failures after successful erasure",
		}),
	}
}

func (m *Metrics) ObserveScan(status string, d time.Duration) {
	if m != nil {
		m.ScansTotal.WithLabelValues(status).Inc()
		m.ScanDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) AddStage(stage string, n int) {
	if m != nil && n > 0 {
		m.RecordsTotal.WithLabelValues(stage).Add(float64(n))
	}
}

func (m *Metrics) IncScanError() {
	if m != nil {
		m.ScanErrors.Inc()
	}
}

func (m *Metrics) IncCertFailure() {
	if m != nil {
		m.CertFailures.Inc()
	}
}
