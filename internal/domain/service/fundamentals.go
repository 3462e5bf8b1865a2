package service

import (
	"context"

	"ZPulse/internal/domain/models"
	"ZPulse/internal/zscore"
)

// FundamentalsProvider fetches company classification data and statement
// line items from an external provider. The core only requires that the
// returned line-item maps carry the canonical (or synonym) field names.
type FundamentalsProvider interface {
	Profile(ctx context.Context, ticker string) (zscore.CompanyProfile, error)
	QuarterlyStatements(ctx context.Context, ticker string, limit int) ([]models.StatementPeriod, error)
}

// QuoteBook exposes the last observed market cap per ticker, fed by the live
// quote stream.
type QuoteBook interface {
	LastMarketCap(ticker string) (float64, bool)
}
