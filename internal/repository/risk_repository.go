package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"BubbleWatch/internal/domain/models"
	"BubbleWatch/internal/domain/repository"
	pkgkafka "BubbleWatch/pkg/kafka"
	applogger "BubbleWatch/pkg/logger"
)

// SchemaStatements returns the idempotent DDL for the results table.
func SchemaStatements(table string) []string {
	return []string{
		fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            ts              DateTime64(3),
            ticker          LowCardinality(String),
            composite       Float64,
            label           LowCardinality(String),
            category_scores String,
            snapshot        String
        ) ENGINE = MergeTree()
        PARTITION BY toYYYYMM(ts)
        ORDER BY (ticker, ts)
        TTL toDateTime(ts) + INTERVAL 180 DAY
    `, table),
	}
}

// ClickHouseStorage implements Storage and ResultStore for ClickHouse.
// Snapshot payload and category scores are stored as JSON strings so the
// row schema stays stable as optional metrics come and go.
type ClickHouseStorage struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

// NewClickHouseStorage creates ClickHouse storage.
func NewClickHouseStorage(db *sql.DB, table string) *ClickHouseStorage {
	return &ClickHouseStorage{db: db, table: table}
}

// SetLogger injects a structured logger.
func (s *ClickHouseStorage) SetLogger(l *applogger.Logger) { s.l = l }

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	for _, stmt := range SchemaStatements(s.table) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseStorage) Store(ctx context.Context, snap *models.RawTickerSnapshot, res *models.CompositeRiskResult) error {
	cats, err := json.Marshal(res.Categories)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	q := fmt.Sprintf("INSERT INTO %s (ts, ticker, composite, label, category_scores, snapshot) VALUES (?, ?, ?, ?, ?, ?)", s.table)
	_, err = s.db.ExecContext(ctx, q,
		res.Timestamp,
		res.Ticker,
		res.Composite,
		string(res.Label),
		string(cats),
		string(raw),
	)
	if err != nil && s.l != nil {
		s.l.Error("clickhouse insert error",
			applogger.String("ticker", res.Ticker),
			applogger.Error(err),
		)
	}
	return err
}

func (s *ClickHouseStorage) GetLatestResult(ctx context.Context, ticker string) (*models.CompositeRiskResult, error) {
	q := fmt.Sprintf("SELECT ts, ticker, composite, label, category_scores FROM %s WHERE ticker = ? ORDER BY ts DESC LIMIT 1", s.table)
	row := s.db.QueryRowContext(ctx, q, ticker)

	res, err := scanResult(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest result: %w", err)
	}
	return res, nil
}

func (s *ClickHouseStorage) GetResultHistory(ctx context.Context, ticker string, from, to time.Time, limit int) ([]models.CompositeRiskResult, error) {
	q := fmt.Sprintf("SELECT ts, ticker, composite, label, category_scores FROM %s WHERE ticker = ? AND ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, ticker, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("result history: %w", err)
	}
	defer rows.Close()

	out := make([]models.CompositeRiskResult, 0, 64)
	for rows.Next() {
		res, err := scanResult(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

func (s *ClickHouseStorage) GetLatestSnapshots(ctx context.Context, ticker string, limit int) ([]models.RawTickerSnapshot, error) {
	q := fmt.Sprintf("SELECT snapshot FROM %s WHERE ticker = ? ORDER BY ts DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("latest snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]models.RawTickerSnapshot, 0, limit)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		var snap models.RawTickerSnapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func scanResult(scan func(...any) error) (*models.CompositeRiskResult, error) {
	var (
		res   models.CompositeRiskResult
		label string
		cats  string
	)
	if err := scan(&res.Timestamp, &res.Ticker, &res.Composite, &label, &cats); err != nil {
		return nil, err
	}
	res.Label = models.RiskLabel(label)
	if cats != "" {
		if err := json.Unmarshal([]byte(cats), &res.Categories); err != nil {
			return nil, fmt.Errorf("decode categories: %w", err)
		}
	}
	return &res, nil
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // Managed by pkg
}

var (
	_ repository.Storage     = (*ClickHouseStorage)(nil)
	_ repository.ResultStore = (*ClickHouseStorage)(nil)
)

// KafkaPublisher implements Publisher for Kafka.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, snap *models.RawTickerSnapshot, res *models.CompositeRiskResult) error {
	return p.producer.Publish(ctx, p.topic, []byte(snap.Ticker), models.ScoredSnapshot{
		Snapshot: snap,
		Result:   *res,
	})
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
