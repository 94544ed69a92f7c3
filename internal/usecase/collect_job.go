package usecase

import (
	"context"
	"fmt"

	pkgqueue "BubbleWatch/pkg/queue"
)

// CollectJobType is the queue message type for on-demand collection.
const CollectJobType = "collect"

type collectPayload struct {
	Ticker string `json:"ticker"`
}

// CollectJob runs a queued on-demand collection cycle for one ticker.
type CollectJob struct {
	collector *SnapshotCollector
}

func NewCollectJob(collector *SnapshotCollector) *CollectJob {
	return &CollectJob{collector: collector}
}

func (j *CollectJob) Name() string { return "collect-ticker" }

func (j *CollectJob) Type() string { return CollectJobType }

func (j *CollectJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := pkgqueue.ParsePayload[collectPayload](payload)
	if err != nil {
		return fmt.Errorf("collect payload: %w", err)
	}
	if p.Ticker == "" {
		return fmt.Errorf("collect payload: ticker empty")
	}
	return j.collector.Refresh(ctx, p.Ticker)
}

var _ pkgqueue.Job = (*CollectJob)(nil)
