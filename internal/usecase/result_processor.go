package usecase

import (
	"context"
	"fmt"
	"time"

	"ZPulse/internal/domain/models"
	drepo "ZPulse/internal/domain/repository"
)

// ResultProcessor routes computed result rows to the configured backend.
type ResultProcessor struct {
	pub     drepo.Publisher
	store   drepo.ResultStore
	metrics drepo.Metrics
	backend string
	batchSz int
	batchTO time.Duration
}

// NewResultProcessor creates a new ResultProcessor instance.
func NewResultProcessor(
	pub drepo.Publisher,
	store drepo.ResultStore,
	metrics drepo.Metrics,
	backend string,
	batchSz int,
	batchTO time.Duration,
) *ResultProcessor {
	return &ResultProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
		batchSz: batchSz,
		batchTO: batchTO,
	}
}

// Process routes a single result row to the configured backend.
func (p *ResultProcessor) Process(ctx context.Context, row *models.QuarterRow) error {
	if row == nil {
		return fmt.Errorf("row is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, row)
	case "clickhouse":
		err = p.store.Store(ctx, row)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process row: %w", err)
	}

	p.metrics.RecordRowSent(p.backend, row.Ticker)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())

	return nil
}

// ProcessBatch routes multiple result rows in a batch.
func (p *ResultProcessor) ProcessBatch(ctx context.Context, rows []*models.QuarterRow) error {
	if len(rows) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, rows)
	case "clickhouse":
		err = p.store.StoreBatch(ctx, rows)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for _, row := range rows {
		p.metrics.RecordRowSent(p.backend, row.Ticker)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())

	return nil
}

// Close closes underlying resources if available.
func (p *ResultProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
