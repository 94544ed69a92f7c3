package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"BubbleWatch/internal/domain/models"
	domrepo "BubbleWatch/internal/domain/repository"
	pkgkafka "BubbleWatch/pkg/kafka"
)

// KafkaResultsHandler consumes scored-snapshot envelopes and writes to storage.
type KafkaResultsHandler struct {
	topic   string
	storage domrepo.Storage
	metrics domrepo.Metrics
}

func NewKafkaResultsHandler(topic string, storage domrepo.Storage, metrics domrepo.Metrics) *KafkaResultsHandler {
	return &KafkaResultsHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaResultsHandler) Topic() string { return h.topic }

func (h *KafkaResultsHandler) Handle(ctx context.Context, b []byte) error {
	var env models.ScoredSnapshot
	if err := json.Unmarshal(b, &env); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if env.Snapshot == nil || env.Snapshot.Ticker == "" {
		h.metrics.RecordError("consumer_empty")
		return fmt.Errorf("envelope missing snapshot")
	}
	// E2E latency from collection time to storage write (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(env.Snapshot.Timestamp).Seconds())

	start := time.Now()
	err := h.storage.Store(ctx, env.Snapshot, &env.Result)
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordMessageSent("clickhouse", env.Snapshot.Ticker)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaResultsHandler)(nil)
