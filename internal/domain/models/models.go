package models

import (
	"time"

	"github.com/shopspring/decimal"

	"ZPulse/internal/zscore"
)

// Quote is one market data tick for a ticker. MarketCap supplies the market
// value of equity when statement data lacks one.
type Quote struct {
	Ticker    string
	Timestamp int64 // unix seconds
	Price     float64
	MarketCap float64
}

// StatementPeriod is one reporting period of raw statement line items as the
// fundamentals provider returns them.
type StatementPeriod struct {
	PeriodEnd time.Time          `json:"period_end"`
	Items     map[string]float64 `json:"items"`
}

// QuarterRow is the flat per-quarter output record: one ClickHouse row, one
// Kafka message, one JSON object. A period that failed validation carries
// Valid=false plus the error message and empty score fields.
type QuarterRow struct {
	Ticker          string              `json:"ticker"`
	QuarterEnd      time.Time           `json:"quarter_end"`
	Model           string              `json:"model"`
	ZScore          decimal.NullDecimal `json:"z_score"`
	X1              decimal.NullDecimal `json:"x1"`
	X2              decimal.NullDecimal `json:"x2"`
	X3              decimal.NullDecimal `json:"x3"`
	X4              decimal.NullDecimal `json:"x4"`
	X5              decimal.NullDecimal `json:"x5"`
	Diagnostic      string              `json:"diagnostic"`
	Valid           bool                `json:"valid"`
	Error           string              `json:"error,omitempty"`
	OverrideContext map[string]string   `json:"override_context,omitempty"`
}

// RowFromResult flattens a computed result into its QuarterRow.
func RowFromResult(ticker string, res *zscore.Result) *QuarterRow {
	row := &QuarterRow{
		Ticker:          ticker,
		QuarterEnd:      res.PeriodEnd,
		Model:           res.Model,
		ZScore:          decimal.NullDecimal{Decimal: res.ZScore, Valid: true},
		Diagnostic:      string(res.Diagnostic),
		Valid:           true,
		OverrideContext: res.OverrideContext,
	}
	comps := map[string]*decimal.NullDecimal{
		zscore.RatioX1: &row.X1,
		zscore.RatioX2: &row.X2,
		zscore.RatioX3: &row.X3,
		zscore.RatioX4: &row.X4,
		zscore.RatioX5: &row.X5,
	}
	for name, dst := range comps {
		if v, ok := res.Components[name]; ok {
			*dst = decimal.NullDecimal{Decimal: v, Valid: true}
		}
	}
	return row
}

// FailedRow records a period that could not be scored.
func FailedRow(ticker string, quarterEnd time.Time, model string, err error) *QuarterRow {
	return &QuarterRow{
		Ticker:     ticker,
		QuarterEnd: quarterEnd,
		Model:      model,
		Valid:      false,
		Error:      err.Error(),
	}
}
