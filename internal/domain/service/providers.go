package service

import (
	"context"

	"BubbleWatch/internal/domain/models"
)

// MarketDataProvider fetches quote-level market data for a ticker, including
// derived price changes where history is available.
type MarketDataProvider interface {
	MarketData(ctx context.Context, ticker string) (*models.MarketData, error)
}

// FundamentalsProvider fetches AI-exposure fundamentals for a ticker.
type FundamentalsProvider interface {
	AIMetrics(ctx context.Context, ticker string) (*models.AIMetrics, error)
}

// NewsProvider fetches recent news items for a ticker.
type NewsProvider interface {
	News(ctx context.Context, ticker string, limit int) ([]models.NewsItem, error)
}

// FilingsProvider fetches recent SEC filing form types for a ticker.
type FilingsProvider interface {
	Filings(ctx context.Context, ticker string, limit int) ([]string, error)
}

// ForumProvider fetches recent social posts mentioning a ticker.
type ForumProvider interface {
	ForumPosts(ctx context.Context, ticker string) ([]models.ForumPost, error)
}

// RiskScorer turns one raw snapshot into a composite risk result. Pure and
// side-effect free; implementations must be safe for concurrent use.
type RiskScorer interface {
	Score(snap *models.RawTickerSnapshot) models.CompositeRiskResult
}
