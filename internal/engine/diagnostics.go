package engine

import (
	"time"

	"github.com/mj1618/desktop-uia/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exports engine activity to Prometheus.
type Metrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	nodesScanned      prometheus.Counter
	identities        prometheus.Gauge
}

// NewMetrics registers the engine metrics with reg. A nil reg creates
// unregistered collectors.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of engine operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Engine operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		nodesScanned: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nodes_scanned_total",
				Help:      "Accessibility nodes visited by tree walks",
			},
		),
		identities: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "registered_identities",
				Help:      "Element identities currently held by the registry",
			},
		),
	}
}

// RecordOperation records one finished operation. kind is empty on success.
func (m *Metrics) RecordOperation(op string, kind Kind, d time.Duration, diag *model.Diagnostics) {
	outcome := "ok"
	if kind != "" {
		outcome = string(kind)
	}
	m.operationsTotal.WithLabelValues(op, outcome).Inc()
	m.operationDuration.WithLabelValues(op).Observe(d.Seconds())
	if diag != nil {
		m.nodesScanned.Add(float64(diag.ElementsScanned))
	}
}

// SetIdentities reports the registry size.
func (m *Metrics) SetIdentities(n int) {
	m.identities.Set(float64(n))
}

// diagnosticsBuilder accumulates what a single walk observed.
type diagnosticsBuilder struct {
	start     time.Time
	framework Framework
	stats     walkStats
}

func beginDiagnostics() *diagnosticsBuilder {
	return &diagnosticsBuilder{start: time.Now(), framework: Unknown}
}

func (b *diagnosticsBuilder) finish(matched int) model.Diagnostics {
	return model.Diagnostics{
		ElementsScanned:   b.stats.scanned,
		Matched:           matched,
		DurationMs:        time.Since(b.start).Milliseconds(),
		DetectedFramework: b.framework.Label,
		Truncated:         b.stats.truncated,
		Skipped:           b.stats.skipped,
	}
}
