package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"BubbleWatch/internal/domain/models"
	"BubbleWatch/internal/domain/repository"
	domsvc "BubbleWatch/internal/domain/service"
	mid "BubbleWatch/internal/middleware"
	internalrepo "BubbleWatch/internal/repository"
	icache "BubbleWatch/internal/service/cache"
	"BubbleWatch/internal/service/fmp"
	svcmetrics "BubbleWatch/internal/service/metrics"
	"BubbleWatch/internal/service/reddit"
	"BubbleWatch/internal/services/scoring"
	"BubbleWatch/internal/usecase"
	pkgcache "BubbleWatch/pkg/cache"
	pkgch "BubbleWatch/pkg/clickhouse"
	"BubbleWatch/pkg/config"
	pkgkafka "BubbleWatch/pkg/kafka"
	"BubbleWatch/pkg/metrics"
	"BubbleWatch/pkg/server"
)

// resultsTable returns the fully qualified results table name.
func resultsTable(cfg *config.Config) string {
	return cfg.ClickHouse.Database + ".bubble_risk"
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := append(
		[]string{"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database},
		internalrepo.SchemaStatements(resultsTable(cfg))...,
	)
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer. Nil when snapshots are
// written straight to ClickHouse.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return svcmetrics.NewRecorder(metrics.New())
}

// ProvideScoringEngine builds the risk engine: built-in constants merged with
// any YAML overrides, validated before anything else starts.
func ProvideScoringEngine(cfg *config.Config) (*scoring.Engine, error) {
	sc := scoring.DefaultConfig()
	for name, w := range cfg.Scoring.Weights {
		sc.Weights[models.Category(name)] = w
	}
	for name, v := range cfg.Scoring.Caps {
		if !sc.Caps.Set(name, v) {
			return nil, fmt.Errorf("scoring engine: unknown cap %q", name)
		}
	}
	if t := cfg.Scoring.Thresholds; t.Extreme != 0 || t.High != 0 || t.Moderate != 0 || t.Low != 0 {
		sc.Thresholds = scoring.Thresholds{
			Extreme:  t.Extreme,
			High:     t.High,
			Moderate: t.Moderate,
			Low:      t.Low,
		}
	}
	engine, err := scoring.NewEngine(sc)
	if err != nil {
		return nil, fmt.Errorf("scoring engine: %w", err)
	}
	return engine, nil
}

// ProvideStorage creates ClickHouse storage repository.
func ProvideStorage(chClient *pkgch.Client, cfg *config.Config) *internalrepo.ClickHouseStorage {
	return internalrepo.NewClickHouseStorage(chClient.DB(), resultsTable(cfg))
}

// ProvidePublisher creates Kafka publisher repository.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
// Nil when snapshots are written straight to ClickHouse.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaResultsHandler registers the handler for the results topic.
func ProvideKafkaResultsHandler(store *internalrepo.ClickHouseStorage, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaResultsHandler {
	return usecase.NewKafkaResultsHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideRedisClient creates the shared Redis client, or nil when disabled.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Cache.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})
}

// ProvideResultCache creates the latest-result cache: a memory+Redis
// layered cache when Redis is configured, in-process LRU otherwise.
func ProvideResultCache(cfg *config.Config) (icache.BytesCache, error) {
	if !cfg.Cache.Redis.Enabled {
		return icache.NewServiceCache(pkgcache.NewMemoryCache()), nil
	}

	host, port := splitRedisAddr(cfg.Cache.Redis.Addr)
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
		pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("result cache: %w", err)
	}
	return icache.NewServiceCache(pkgcache.NewLayeredCache(rc)), nil
}

func splitRedisAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}

// ProvideMarketProviders creates the FMP client used for market data,
// fundamentals, news, and filings.
func ProvideMarketProviders(cfg *config.Config) *fmp.Client {
	return fmp.New(cfg.Providers.FMP.BaseURL, cfg.Providers.FMP.APIKey, cfg.Providers.FMP.Timeout)
}

// ProvideForumProvider creates the Reddit client.
func ProvideForumProvider(cfg *config.Config) domsvc.ForumProvider {
	return reddit.New(
		cfg.Providers.Reddit.BaseURL,
		cfg.Providers.Reddit.UserAgent,
		cfg.Providers.Reddit.Subreddits,
		cfg.Providers.Reddit.TimeFilter,
		cfg.Providers.Reddit.Timeout,
	)
}

// ProvideSnapshotProcessor creates the scoring processor use case.
func ProvideSnapshotProcessor(
	engine *scoring.Engine,
	pub repository.Publisher,
	store *internalrepo.ClickHouseStorage,
	metrics repository.Metrics,
	cache icache.BytesCache,
	cfg *config.Config,
) *usecase.SnapshotProcessor {
	proc := usecase.NewSnapshotProcessor(engine, pub, store, metrics, cfg.Backend.Type)
	proc.SetCache(cache, cfg.Cache.ResultTTL)
	return proc
}

// ProvideSnapshotCollector creates the collection-loop use case.
func ProvideSnapshotCollector(
	cfg *config.Config,
	fmpClient *fmp.Client,
	forum domsvc.ForumProvider,
	proc *usecase.SnapshotProcessor,
	metrics repository.Metrics,
) *usecase.SnapshotCollector {
	// Pipeline between collector and backend: spacing per ticker well under
	// the loop interval, buffer sized for one full cycle.
	pipe := mid.NewScorePipeline(proc, metrics,
		mid.WithMinInterval(cfg.Collection.Interval/10),
		mid.WithBufferSize(2*len(cfg.Collection.Tickers)+16),
	)
	return usecase.NewSnapshotCollector(
		usecase.CollectorConfig{
			Tickers:         cfg.Collection.Tickers,
			Interval:        cfg.Collection.Interval,
			ProviderTimeout: cfg.Collection.ProviderTimeout,
			MaxConcurrent:   cfg.Collection.MaxConcurrent,
			NewsLimit:       cfg.Collection.NewsLimit,
			FilingsLimit:    cfg.Collection.FilingsLimit,
			AIKeywords:      cfg.Providers.AIKeywords,
		},
		fmpClient, fmpClient, fmpClient, fmpClient,
		forum,
		proc,
		metrics,
		pipe,
	)
}

// ProvideRiskQuery creates the read-side use case.
func ProvideRiskQuery(store *internalrepo.ClickHouseStorage, cache icache.BytesCache, cfg *config.Config) *usecase.RiskQueryUseCase {
	q := usecase.NewRiskQueryUseCase(store)
	q.SetCache(cache, cfg.Cache.ResultTTL)
	return q
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.SnapshotCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaResultsHandler,
	chClient *pkgch.Client,
	storage *internalrepo.ClickHouseStorage,
	query *usecase.RiskQueryUseCase,
	rdb *redis.Client,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, collector, consumer, kh, chClient)
	app.SetStorage(storage)
	app.SetQuery(query)
	app.SetRedis(rdb)
	return app
}
