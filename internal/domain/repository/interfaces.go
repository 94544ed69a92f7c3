package repository

import (
	"context"

	"BubbleWatch/internal/domain/models"
)

// Publisher pushes scored snapshots to the streaming backend.
type Publisher interface {
	Publish(ctx context.Context, snap *models.RawTickerSnapshot, res *models.CompositeRiskResult) error
	Close() error
}

// Storage persists raw snapshots together with their scored results.
type Storage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, snap *models.RawTickerSnapshot, res *models.CompositeRiskResult) error
	Health(ctx context.Context) error // ping
	Close() error
}

// Metrics records operational and scoring metrics.
type Metrics interface {
	RecordMessageSent(backend, ticker string)
	RecordError(kind string)
	RecordRisk(res *models.CompositeRiskResult)
	RecordLatency(op string, seconds float64)
}
