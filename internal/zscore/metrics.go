package zscore

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Canonical field names of the input mapping.
const (
	FieldCurrentAssets      = "current_assets"
	FieldCurrentLiabilities = "current_liabilities"
	FieldRetainedEarnings   = "retained_earnings"
	FieldEBIT               = "ebit"
	FieldMarketValueEquity  = "market_value_equity"
	FieldBookValueEquity    = "book_value_equity"
	FieldTotalAssets        = "total_assets"
	FieldTotalLiabilities   = "total_liabilities"
	FieldSales              = "sales"
)

// requiredFields is the canonical set every period must carry. The equity
// measure is validated separately: at least one of market/book value must be
// present.
var requiredFields = []string{
	FieldCurrentAssets,
	FieldCurrentLiabilities,
	FieldRetainedEarnings,
	FieldEBIT,
	FieldTotalAssets,
	FieldTotalLiabilities,
	FieldSales,
}

// MetricsFromMap builds a FinancialMetrics snapshot from a raw line-item
// mapping. Field names are resolved through the tables' synonym map. A
// non-zero marketValueEquity argument supplies the market equity measure
// (typically from the live quote book) when the statement mapping lacks one.
// Absent required fields fail with *MissingFieldError; no partial snapshot
// is produced.
func MetricsFromMap(t *Tables, raw map[string]decimal.Decimal, marketValueEquity decimal.Decimal, periodEnd time.Time) (FinancialMetrics, error) {
	fields := make(map[string]decimal.Decimal, len(raw))
	for k, v := range raw {
		fields[t.CanonicalField(k)] = v
	}
	if !marketValueEquity.IsZero() {
		if _, ok := fields[FieldMarketValueEquity]; !ok {
			fields[FieldMarketValueEquity] = marketValueEquity
		}
	}

	var missing []string
	for _, f := range requiredFields {
		if _, ok := fields[f]; !ok {
			missing = append(missing, f)
		}
	}
	_, hasMVE := fields[FieldMarketValueEquity]
	_, hasBVE := fields[FieldBookValueEquity]
	if !hasMVE && !hasBVE {
		missing = append(missing, FieldMarketValueEquity+" (or "+FieldBookValueEquity+")")
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return FinancialMetrics{}, &MissingFieldError{Fields: missing}
	}

	return FinancialMetrics{
		CurrentAssets:      fields[FieldCurrentAssets],
		CurrentLiabilities: fields[FieldCurrentLiabilities],
		RetainedEarnings:   fields[FieldRetainedEarnings],
		EBIT:               fields[FieldEBIT],
		MarketValueEquity:  fields[FieldMarketValueEquity],
		BookValueEquity:    fields[FieldBookValueEquity],
		TotalAssets:        fields[FieldTotalAssets],
		TotalLiabilities:   fields[FieldTotalLiabilities],
		Sales:              fields[FieldSales],
		PeriodEnd:          periodEnd,
		hasMarketEquity:    hasMVE,
		hasBookEquity:      hasBVE,
	}, nil
}

// MetricsFromFloats is MetricsFromMap for float-valued inputs (the usual JSON
// boundary shape). Values convert through decimal.NewFromFloat, which is
// exact for every float64.
func MetricsFromFloats(t *Tables, raw map[string]float64, marketValueEquity float64, periodEnd time.Time) (FinancialMetrics, error) {
	dm := make(map[string]decimal.Decimal, len(raw))
	for k, v := range raw {
		dm[k] = decimal.NewFromFloat(v)
	}
	return MetricsFromMap(t, dm, decimal.NewFromFloat(marketValueEquity), periodEnd)
}
