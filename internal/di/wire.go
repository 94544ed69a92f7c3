//go:build wireinject
// +build wireinject

package di

import (
	"BubbleWatch/pkg/config"
	"BubbleWatch/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Metrics
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisClient,
		ProvideResultCache,

		// Scoring engine
		ProvideScoringEngine,

		// Repositories and providers
		ProvideStorage,
		ProvidePublisher,
		ProvideMarketProviders,
		ProvideForumProvider,

		// Use cases
		ProvideSnapshotProcessor,
		ProvideSnapshotCollector,
		ProvideKafkaResultsHandler,
		ProvideRiskQuery,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
