package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"BubbleWatch/internal/handler/api"
	internalrepo "BubbleWatch/internal/repository"
	"BubbleWatch/internal/usecase"
	pkgch "BubbleWatch/pkg/clickhouse"
	"BubbleWatch/pkg/config"
	xhttp "BubbleWatch/pkg/http"
	pkgkafka "BubbleWatch/pkg/kafka"
	applogger "BubbleWatch/pkg/logger"
	pkgqueue "BubbleWatch/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	collector   *usecase.SnapshotCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	storage     *internalrepo.ClickHouseStorage
	query       *usecase.RiskQueryUseCase
	rdb         *redis.Client
	queue       *pkgqueue.RedisQueue
	stream      *api.RiskStreamHandler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	collector *usecase.SnapshotCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetStorage wires ClickHouse storage for health checks and logging.
func (a *App) SetStorage(s *internalrepo.ClickHouseStorage) { a.storage = s }

// SetQuery wires the read-side use case serving the HTTP API.
func (a *App) SetQuery(q *usecase.RiskQueryUseCase) { a.query = q }

// SetRedis wires the shared Redis client used by the job queue.
func (a *App) SetRedis(c *redis.Client) { a.rdb = c }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, err := applogger.New(&applogger.Config{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		Output: a.cfg.Logging.Output,
	})
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return err
	}
	a.collector.SetLogger(l)
	if a.storage != nil {
		a.storage.SetLogger(l)
	}

	// Setup Echo HTTP server using pkg/http and register routes via handler
	var httpHandler xhttp.Handler
	if a.httpHandler != nil {
		httpHandler = a.httpHandler
	} else if a.query != nil {
		rh := api.NewRiskEchoHandler(l, a.query, a.collector.Tickers())
		if a.storage != nil {
			rh.SetHealthChecker(a.storage)
		}
		rh.SetRefresher(a.collector)

		// On-demand collect jobs go through Redis when available.
		if a.cfg.Queue.Enabled && a.rdb != nil {
			a.queue = pkgqueue.NewRedisConsumer(l,
				&pkgqueue.QueueConfig{
					Workers:    a.cfg.Queue.Workers,
					QueueSize:  a.cfg.Queue.QueueSize,
					RetryLimit: a.cfg.Queue.RetryLimit,
					RetryDelay: a.cfg.Queue.RetryDelay,
				},
				a.rdb,
				[]pkgqueue.Job{usecase.NewCollectJob(a.collector)},
			)
			if err := a.queue.Start(); err != nil {
				l.Warn("queue start error", applogger.Error(err))
			} else {
				rh.SetQueue(a.queue)
				// aggregate repeated log lines through the same queue
				l.AddCollector(&applogger.CollectionConfig{
					TimeInterval:   30 * time.Second,
					CountThreshold: 100,
					Topic:          "logs",
					Publisher:      a.queue,
				})
			}
		}
		httpHandler = rh
	}

	a.httpServer = xhttp.NewServer(httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Websocket stream fed by the processor
	a.stream = api.NewRiskStreamHandler(l)
	a.stream.RegisterRoutes(a.httpServer.Echo())
	a.collector.Processor().AddSink(a.stream)

	// Start collector loop
	if err := a.collector.Start(ctx); err != nil {
		l.Error("collector start error", applogger.Error(err))
		return err
	}
	l.Info("collector started", applogger.Strings("tickers", a.collector.Tickers()))

	// Start consumer when snapshots flow through Kafka
	if a.cfg.Backend.Type == "kafka" && a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx, l)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context, l *applogger.Logger) error {
	l.Info("shutting down...")

	// Stop collector (loop + pipeline)
	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if a.stream != nil {
		a.stream.Close()
	}
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop queue workers
	if a.queue != nil {
		if err := a.queue.Stop(shutdownCtx); err != nil {
			l.Warn("queue stop error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close processor resources (publisher/storage)
	if proc := a.collector.Processor(); proc != nil {
		proc.Close()
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			l.Warn("redis close error", applogger.Error(err))
		}
	}

	l.RemoveCollector()
	l.Info("shutdown complete")
	return nil
}
