package metrics

import (
	"BubbleWatch/internal/domain/models"
	domrepo "BubbleWatch/internal/domain/repository"
	pkgmetrics "BubbleWatch/pkg/metrics"
)

// Recorder adapts the Prometheus recorder to the domain Metrics interface.
type Recorder struct {
	rec *pkgmetrics.Recorder
}

func NewRecorder(rec *pkgmetrics.Recorder) *Recorder {
	return &Recorder{rec: rec}
}

func (r *Recorder) RecordMessageSent(backend, ticker string) {
	r.rec.RecordMessageSent(backend, ticker)
}

func (r *Recorder) RecordError(kind string) {
	r.rec.RecordError(kind)
}

func (r *Recorder) RecordRisk(res *models.CompositeRiskResult) {
	r.rec.RecordRiskScore(res.Ticker, res.Composite)
	for cat, score := range res.Categories {
		r.rec.RecordCategoryScore(res.Ticker, string(cat), score)
	}
}

func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.rec.RecordLatency(op, seconds)
}

var _ domrepo.Metrics = (*Recorder)(nil)
