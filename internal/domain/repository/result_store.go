package repository

import (
	"context"
	"time"

	"BubbleWatch/internal/domain/models"
)

// ResultStore provides read-only access to scored results and raw snapshots
// for the API layer.
type ResultStore interface {
	GetLatestResult(ctx context.Context, ticker string) (*models.CompositeRiskResult, error)
	GetResultHistory(ctx context.Context, ticker string, from, to time.Time, limit int) ([]models.CompositeRiskResult, error)
	GetLatestSnapshots(ctx context.Context, ticker string, limit int) ([]models.RawTickerSnapshot, error)
}
