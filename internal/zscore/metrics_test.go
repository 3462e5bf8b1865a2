package zscore

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func rawPrivateFixture() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"current_assets":      d("1000"),
		"current_liabilities": d("400"),
		"retained_earnings":   d("200"),
		"ebit":                d("150"),
		"book_value_equity":   d("500"),
		"total_assets":        d("1200"),
		"total_liabilities":   d("700"),
		"sales":               d("900"),
	}
}

func TestMetricsFromMapRoundTrip(t *testing.T) {
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	m, err := MetricsFromMap(DefaultTables(), rawPrivateFixture(), decimal.Zero, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.CurrentAssets.Equal(d("1000")) {
		t.Fatalf("current_assets = %s", m.CurrentAssets)
	}
	if !m.BookValueEquity.Equal(d("500")) {
		t.Fatalf("book_value_equity = %s", m.BookValueEquity)
	}
	if !m.PeriodEnd.Equal(end) {
		t.Fatalf("period_end = %v", m.PeriodEnd)
	}
	if m.HasMarketEquity() {
		t.Fatalf("expected no market equity")
	}
	if !m.HasBookEquity() {
		t.Fatalf("expected book equity")
	}
}

func TestMetricsFromMapMissingFields(t *testing.T) {
	raw := rawPrivateFixture()
	delete(raw, "ebit")
	delete(raw, "sales")

	_, err := MetricsFromMap(DefaultTables(), raw, decimal.Zero, time.Now())
	var mfe *MissingFieldError
	if !errors.As(err, &mfe) {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
	if len(mfe.Fields) != 2 {
		t.Fatalf("expected 2 missing fields, got %v", mfe.Fields)
	}
	if !strings.Contains(mfe.Error(), "ebit") || !strings.Contains(mfe.Error(), "sales") {
		t.Fatalf("error should name missing fields: %v", mfe)
	}
}

func TestMetricsFromMapMissingEquity(t *testing.T) {
	raw := rawPrivateFixture()
	delete(raw, "book_value_equity")

	_, err := MetricsFromMap(DefaultTables(), raw, decimal.Zero, time.Now())
	var mfe *MissingFieldError
	if !errors.As(err, &mfe) {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
	if !strings.Contains(mfe.Error(), "market_value_equity") {
		t.Fatalf("error should name the equity measure: %v", mfe)
	}
}

func TestMetricsFromMapSupplementedMarketEquity(t *testing.T) {
	raw := rawPrivateFixture()
	delete(raw, "book_value_equity")

	m, err := MetricsFromMap(DefaultTables(), raw, d("1234.56"), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.HasMarketEquity() || !m.MarketValueEquity.Equal(d("1234.56")) {
		t.Fatalf("market equity not supplemented: %s", m.MarketValueEquity)
	}
}

func TestMetricsFromMapSynonyms(t *testing.T) {
	raw := map[string]decimal.Decimal{
		"total_current_assets":      d("1000"),
		"total_current_liabilities": d("400"),
		"retained_earnings":         d("200"),
		"operating_income":          d("150"),
		"total_stockholders_equity": d("500"),
		"total_assets":              d("1200"),
		"total_liabilities":         d("700"),
		"total_revenue":             d("900"),
	}
	m, err := MetricsFromMap(DefaultTables(), raw, decimal.Zero, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.EBIT.Equal(d("150")) {
		t.Fatalf("operating_income synonym not resolved, ebit = %s", m.EBIT)
	}
	if !m.Sales.Equal(d("900")) {
		t.Fatalf("total_revenue synonym not resolved, sales = %s", m.Sales)
	}
}

func TestMetricsFromFloatsExactConversion(t *testing.T) {
	raw := map[string]float64{
		"current_assets":      453.0,
		"current_liabilities": 286.9,
		"retained_earnings":   -12.8,
		"ebit":                -69.7,
		"total_assets":        453.0,
		"total_liabilities":   344.5,
		"sales":               259.8,
	}
	m, err := MetricsFromFloats(DefaultTables(), raw, 1031.5, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.RetainedEarnings.Equal(d("-12.8")) {
		t.Fatalf("retained_earnings = %s", m.RetainedEarnings)
	}
	if !m.MarketValueEquity.Equal(d("1031.5")) {
		t.Fatalf("market_value_equity = %s", m.MarketValueEquity)
	}
}
