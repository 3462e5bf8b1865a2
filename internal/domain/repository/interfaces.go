package repository

import (
	"context"
	"time"

	"ZPulse/internal/domain/models"
)

// QuoteStream is a live market data feed supplying quotes for tickers.
type QuoteStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Quote, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher sends computed result rows to a message backend.
type Publisher interface {
	Publish(ctx context.Context, row *models.QuarterRow) error
	PublishBatch(ctx context.Context, rows []*models.QuarterRow) error
	Close() error
}

// ResultStore persists computed result rows.
type ResultStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, row *models.QuarterRow) error
	StoreBatch(ctx context.Context, rows []*models.QuarterRow) error
	Query(ctx context.Context, ticker string, from, to time.Time, limit int) ([]*models.QuarterRow, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// Metrics records operational metrics.
type Metrics interface {
	RecordRowSent(backend, ticker string)
	RecordError(kind string)
	RecordLastScore(ticker, model string, score float64)
	RecordLatency(op string, seconds float64)
}
