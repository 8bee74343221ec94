package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	channelsActive    prometheus.Gauge
	sweepDeletedTotal prometheus.Counter

	operationsTotal         *prometheus.CounterVec
	operationsRejectedTotal *prometheus.CounterVec
	operationDuration       prometheus.Histogram

	voiceEventsTotal *prometheus.CounterVec
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		channelsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "tempvoice_channels_active",
			Help: "Number of currently provisioned temporary channels",
		}),

		sweepDeletedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tempvoice_sweep_deleted_total",
			Help: "Total number of channels removed by the orphan sweep",
		}),

		operationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tempvoice_operations_total",
			Help: "Total number of executed channel operations",
		}, []string{"action"}),

		operationsRejectedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tempvoice_operations_rejected_total",
			Help: "Total number of rejected channel operations",
		}, []string{"action", "reason"}),

		operationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tempvoice_operation_duration_seconds",
			Help:    "Duration of channel operations",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),

		voiceEventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tempvoice_voice_events_total",
			Help: "Total number of classified voice presence transitions",
		}, []string{"kind"}),
	}
}

func (p *PrometheusCollector) RecordSweepDeleted(count int) {
	p.sweepDeletedTotal.Add(float64(count))
}

func (p *PrometheusCollector) RecordOperation(action string, duration time.Duration) {
	p.operationsTotal.WithLabelValues(action).Inc()
	p.operationDuration.Observe(duration.Seconds())
}

func (p *PrometheusCollector) RecordOperationRejected(action, reason string) {
	p.operationsRejectedTotal.WithLabelValues(action, reason).Inc()
}

func (p *PrometheusCollector) RecordVoiceEvent(kind string) {
	p.voiceEventsTotal.WithLabelValues(kind).Inc()
}

func (p *PrometheusCollector) SetActiveChannels(n int) {
	p.channelsActive.Set(float64(n))
}
