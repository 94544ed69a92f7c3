package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes Prometheus instruments for the collection pipeline.
type Recorder struct {
	messagesSent *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	bubbleRisk   *prometheus.GaugeVec
	categoryRisk *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		messagesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bubblewatch_messages_sent_total",
				Help: "Total number of scored snapshots sent to backend",
			},
			[]string{"backend", "ticker"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bubblewatch_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		bubbleRisk: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bubblewatch_bubble_risk",
				Help: "Latest composite bubble risk score per ticker",
			},
			[]string{"ticker"},
		),
		categoryRisk: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bubblewatch_category_risk",
				Help: "Latest per-category risk score per ticker",
			},
			[]string{"ticker", "category"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bubblewatch_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordMessageSent records a scored snapshot sent to a backend.
func (r *Recorder) RecordMessageSent(backend, ticker string) {
	r.messagesSent.WithLabelValues(backend, ticker).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordRiskScore records the latest composite score for a ticker.
func (r *Recorder) RecordRiskScore(ticker string, composite float64) {
	r.bubbleRisk.WithLabelValues(ticker).Set(composite)
}

// RecordCategoryScore records one category score for a ticker.
func (r *Recorder) RecordCategoryScore(ticker, category string, score float64) {
	r.categoryRisk.WithLabelValues(ticker, category).Set(score)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
