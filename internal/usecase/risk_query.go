package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"BubbleWatch/internal/domain/models"
	domrepo "BubbleWatch/internal/domain/repository"
	icache "BubbleWatch/internal/service/cache"
)

// RiskQueryUseCase provides business logic for reading scored results and
// raw snapshots out of storage, fronted by the latest-result cache.
type RiskQueryUseCase struct {
	store domrepo.ResultStore
	cache icache.BytesCache
	ttl   time.Duration
}

func NewRiskQueryUseCase(store domrepo.ResultStore) *RiskQueryUseCase {
	return &RiskQueryUseCase{store: store}
}

// SetCache wires the read-through cache shared with the processor.
func (uc *RiskQueryUseCase) SetCache(c icache.BytesCache, ttl time.Duration) {
	uc.cache = c
	uc.ttl = ttl
}

// Latest returns the most recent result for a ticker, preferring the cache
// populated at scoring time over a storage round trip.
func (uc *RiskQueryUseCase) Latest(ctx context.Context, ticker string) (*models.CompositeRiskResult, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker required")
	}
	if uc.cache != nil {
		if b, ok, err := uc.cache.GetBytes(LatestCacheKey(ticker)); err == nil && ok {
			var res models.CompositeRiskResult
			if json.Unmarshal(b, &res) == nil {
				return &res, nil
			}
		}
	}

	res, err := uc.store.GetLatestResult(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("latest result: %w", err)
	}
	if res != nil && uc.cache != nil {
		if b, err := json.Marshal(res); err == nil {
			_ = uc.cache.SetBytes(LatestCacheKey(ticker), b, uc.ttl)
		}
	}
	return res, nil
}

type HistoryParams struct {
	Ticker string
	From   time.Time
	To     time.Time
	Limit  int
}

type HistoryResult struct {
	Ticker  string
	From    time.Time
	To      time.Time
	Count   int
	Results []models.CompositeRiskResult
}

// History returns scored results for a ticker over a time window, newest first.
func (uc *RiskQueryUseCase) History(ctx context.Context, p HistoryParams) (*HistoryResult, error) {
	if p.Ticker == "" {
		return nil, fmt.Errorf("ticker required")
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 1000
	}
	if p.Limit > 10000 {
		p.Limit = 10000
	}

	results, err := uc.store.GetResultHistory(ctx, p.Ticker, p.From, p.To, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("result history: %w", err)
	}
	return &HistoryResult{
		Ticker:  p.Ticker,
		From:    p.From,
		To:      p.To,
		Count:   len(results),
		Results: results,
	}, nil
}

// Snapshots returns the most recent raw snapshots for a ticker.
func (uc *RiskQueryUseCase) Snapshots(ctx context.Context, ticker string, limit int) ([]models.RawTickerSnapshot, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker required")
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 500 {
		limit = 500
	}
	snaps, err := uc.store.GetLatestSnapshots(ctx, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("latest snapshots: %w", err)
	}
	return snaps, nil
}
