package marketdata

import (
	"context"
	"sync"
	"time"

	"ZPulse/internal/domain/models"
)

// Book keeps the latest accepted quote per ticker. The trend analyzer reads
// it to supplement statement periods with a live market value of equity.
type Book struct {
	mu     sync.RWMutex
	latest map[string]*models.Quote
	maxAge time.Duration
}

// NewBook creates a quote book. Quotes older than maxAge are treated as
// absent; maxAge <= 0 disables the staleness check.
func NewBook(maxAge time.Duration) *Book {
	return &Book{latest: make(map[string]*models.Quote), maxAge: maxAge}
}

// Process records the quote as the latest for its ticker.
func (b *Book) Process(ctx context.Context, q *models.Quote) error {
	b.mu.Lock()
	b.latest[q.Ticker] = q
	b.mu.Unlock()
	return nil
}

// LastMarketCap returns the most recent market cap for the ticker, if the
// feed supplied one and it is still fresh.
func (b *Book) LastMarketCap(ticker string) (float64, bool) {
	b.mu.RLock()
	q, ok := b.latest[ticker]
	b.mu.RUnlock()
	if !ok || q.MarketCap <= 0 {
		return 0, false
	}
	if b.maxAge > 0 && time.Since(time.Unix(q.Timestamp, 0)) > b.maxAge {
		return 0, false
	}
	return q.MarketCap, true
}

// LastPrice returns the most recent price for the ticker.
func (b *Book) LastPrice(ticker string) (float64, bool) {
	b.mu.RLock()
	q, ok := b.latest[ticker]
	b.mu.RUnlock()
	if !ok {
		return 0, false
	}
	return q.Price, true
}
