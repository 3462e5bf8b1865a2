package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ZPulse/internal/domain/models"
	"ZPulse/internal/domain/repository"
	pkgkafka "ZPulse/pkg/kafka"
)

// ClickHouseResultStore implements ResultStore for ClickHouse.
type ClickHouseResultStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseResultStore creates ClickHouse result storage.
func NewClickHouseResultStore(db *sql.DB, table string) repository.ResultStore {
	return &ClickHouseResultStore{db: db, table: table}
}

func (s *ClickHouseResultStore) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

const resultColumns = "ticker, quarter_end, model, z_score, x1, x2, x3, x4, x5, diagnostic, valid, error, override_context"

func (s *ClickHouseResultStore) Store(ctx context.Context, row *models.QuarterRow) error {
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table, resultColumns)
	_, err := s.db.ExecContext(ctx, q, rowArgs(row)...)
	return err
}

func (s *ClickHouseResultStore) StoreBatch(ctx context.Context, rows []*models.QuarterRow) error {
	if len(rows) == 0 {
		return nil
	}
	// Multi-row VALUES insert, chunked to keep statements bounded.
	const chunkSize = 500
	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*13)
		for _, row := range rows[start:end] {
			if row == nil || row.Ticker == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, rowArgs(row)...)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, resultColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseResultStore) Query(ctx context.Context, ticker string, from, to time.Time, limit int) ([]*models.QuarterRow, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE ticker = ? AND quarter_end >= ? AND quarter_end <= ? ORDER BY quarter_end DESC LIMIT ?", resultColumns, s.table)
	rows, err := s.db.QueryContext(ctx, q, ticker, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.QuarterRow
	for rows.Next() {
		var (
			r        models.QuarterRow
			validInt uint8
			ctxJSON  string
		)
		if err := rows.Scan(
			&r.Ticker, &r.QuarterEnd, &r.Model,
			&r.ZScore, &r.X1, &r.X2, &r.X3, &r.X4, &r.X5,
			&r.Diagnostic, &validInt, &r.Error, &ctxJSON,
		); err != nil {
			return nil, err
		}
		r.Valid = validInt != 0
		if ctxJSON != "" {
			if err := json.Unmarshal([]byte(ctxJSON), &r.OverrideContext); err != nil {
				return nil, fmt.Errorf("bad override_context for %s %s: %w", r.Ticker, r.QuarterEnd.Format("2006-01-02"), err)
			}
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *ClickHouseResultStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseResultStore) Close() error {
	return nil // Managed by pkg
}

// rowArgs flattens a row into insert arguments. Decimals travel as strings
// so the driver never coerces them through float64.
func rowArgs(row *models.QuarterRow) []interface{} {
	valid := uint8(0)
	if row.Valid {
		valid = 1
	}
	ctxJSON := ""
	if len(row.OverrideContext) > 0 {
		if b, err := json.Marshal(row.OverrideContext); err == nil {
			ctxJSON = string(b)
		}
	}
	return []interface{}{
		row.Ticker,
		row.QuarterEnd,
		row.Model,
		decArg(row.ZScore),
		decArg(row.X1),
		decArg(row.X2),
		decArg(row.X3),
		decArg(row.X4),
		decArg(row.X5),
		row.Diagnostic,
		valid,
		row.Error,
		ctxJSON,
	}
}

func decArg(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

// KafkaResultPublisher implements Publisher for Kafka.
type KafkaResultPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaResultPublisher creates a Kafka result publisher.
func NewKafkaResultPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaResultPublisher{producer: producer, topic: topic}
}

func (p *KafkaResultPublisher) Publish(ctx context.Context, row *models.QuarterRow) error {
	return p.producer.Publish(ctx, p.topic, []byte(row.Ticker), row)
}

func (p *KafkaResultPublisher) PublishBatch(ctx context.Context, rows []*models.QuarterRow) error {
	if len(rows) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(rows))
	for i, row := range rows {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(row.Ticker),
			Value: row,
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaResultPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
