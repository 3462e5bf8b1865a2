package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"ZPulse/internal/domain/models"
	"ZPulse/internal/zscore"
)

type fakeProvider struct {
	profile zscore.CompanyProfile
	periods []models.StatementPeriod
	err     error
}

func (f *fakeProvider) Profile(ctx context.Context, ticker string) (zscore.CompanyProfile, error) {
	if f.err != nil {
		return zscore.CompanyProfile{}, f.err
	}
	return f.profile, nil
}

func (f *fakeProvider) QuarterlyStatements(ctx context.Context, ticker string, limit int) ([]models.StatementPeriod, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.periods, nil
}

type fakeMetrics struct {
	errors map[string]int
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{errors: make(map[string]int)} }

func (m *fakeMetrics) RecordRowSent(backend, ticker string)     {}
func (m *fakeMetrics) RecordError(kind string)                  { m.errors[kind]++ }
func (m *fakeMetrics) RecordLastScore(t, mdl string, s float64) {}
func (m *fakeMetrics) RecordLatency(op string, seconds float64) {}

type fakeQuoteBook struct {
	caps map[string]float64
}

func (b *fakeQuoteBook) LastMarketCap(ticker string) (float64, bool) {
	v, ok := b.caps[ticker]
	return v, ok
}

func privateItems() map[string]float64 {
	return map[string]float64{
		"current_assets":      1000,
		"current_liabilities": 400,
		"retained_earnings":   200,
		"ebit":                150,
		"book_value_equity":   500,
		"total_assets":        1200,
		"total_liabilities":   700,
		"sales":               900,
	}
}

func quarterEnds(n int) []time.Time {
	ends := make([]time.Time, n)
	cur := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	for i := range ends {
		ends[i] = cur
		cur = cur.AddDate(0, -3, 0)
	}
	return ends
}

func TestAnalyzeTickerPrivateManufacturer(t *testing.T) {
	ends := quarterEnds(3)
	periods := make([]models.StatementPeriod, 0, len(ends))
	for _, end := range ends {
		periods = append(periods, models.StatementPeriod{PeriodEnd: end, Items: privateItems()})
	}
	provider := &fakeProvider{
		profile: zscore.CompanyProfile{Ticker: "ACME", IsManufacturing: true},
		periods: periods,
	}
	a := NewTrendAnalyzer(zscore.NewEngine(zscore.DefaultTables(), nil), provider, newFakeMetrics())

	rows, err := a.AnalyzeTicker(context.Background(), "ACME", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	for i, row := range rows {
		if !row.Valid {
			t.Fatalf("row %d invalid: %s", i, row.Error)
		}
		if row.Model != string(zscore.ModelPrivate) {
			t.Fatalf("row %d model = %s, want private", i, row.Model)
		}
		if row.Diagnostic != string(zscore.ZoneGrey) {
			t.Fatalf("row %d diagnostic = %s, want grey", i, row.Diagnostic)
		}
		if !row.QuarterEnd.Equal(ends[i]) {
			t.Fatalf("row %d quarter_end = %v, want %v", i, row.QuarterEnd, ends[i])
		}
	}
}

func TestAnalyzePeriodsBadPeriodIsIsolated(t *testing.T) {
	ends := quarterEnds(3)
	broken := privateItems()
	delete(broken, "ebit")
	periods := []models.StatementPeriod{
		{PeriodEnd: ends[0], Items: privateItems()},
		{PeriodEnd: ends[1], Items: broken},
		{PeriodEnd: ends[2], Items: privateItems()},
	}
	m := newFakeMetrics()
	a := NewTrendAnalyzer(zscore.NewEngine(zscore.DefaultTables(), nil), &fakeProvider{}, m)

	rows, err := a.AnalyzePeriods(zscore.CompanyProfile{Ticker: "ACME", IsManufacturing: true}, periods)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if !rows[0].Valid || !rows[2].Valid {
		t.Fatalf("good periods must survive a bad neighbor")
	}
	if rows[1].Valid {
		t.Fatalf("period without ebit must be invalid")
	}
	if rows[1].Error == "" {
		t.Fatalf("invalid row must carry the error")
	}
	if m.errors["period_invalid"] != 1 {
		t.Fatalf("period_invalid = %d, want 1", m.errors["period_invalid"])
	}
}

func TestAnalyzePeriodsExcludedProfileFails(t *testing.T) {
	a := NewTrendAnalyzer(zscore.NewEngine(zscore.DefaultTables(), nil), &fakeProvider{}, newFakeMetrics())

	_, err := a.AnalyzePeriods(zscore.CompanyProfile{
		Ticker:          "FNORD",
		IsExcluded:      true,
		ExclusionReason: "financial holding company",
	}, []models.StatementPeriod{{PeriodEnd: time.Now(), Items: privateItems()}})
	var excl *zscore.ExclusionError
	if !errors.As(err, &excl) {
		t.Fatalf("err = %v, want exclusion", err)
	}
}

func TestAnalyzePeriodsSICOnlyProfile(t *testing.T) {
	a := NewTrendAnalyzer(zscore.NewEngine(zscore.DefaultTables(), nil), &fakeProvider{}, newFakeMetrics())

	rows, err := a.AnalyzePeriods(zscore.CompanyProfile{Ticker: "BANK", SICCode: "6021"}, []models.StatementPeriod{
		{PeriodEnd: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), Items: privateItems()},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows[0].Model != string(zscore.ModelService) {
		t.Fatalf("model = %s, want service", rows[0].Model)
	}
}

func TestAnalyzePeriodsQuoteBookSuppliesMarketCap(t *testing.T) {
	items := privateItems()
	delete(items, "book_value_equity")

	a := NewTrendAnalyzer(zscore.NewEngine(zscore.DefaultTables(), nil), &fakeProvider{}, newFakeMetrics())
	a.SetQuoteBook(&fakeQuoteBook{caps: map[string]float64{"SVCE": 600}})

	profile := zscore.CompanyProfile{Ticker: "SVCE", SICCode: "7011"}
	periods := []models.StatementPeriod{
		{PeriodEnd: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), Items: items},
	}
	rows, err := a.AnalyzePeriods(profile, periods)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rows[0].Valid {
		t.Fatalf("row invalid: %s", rows[0].Error)
	}
	if rows[0].OverrideContext["equity_measure"] != "market" {
		t.Fatalf("equity_measure = %q, want market", rows[0].OverrideContext["equity_measure"])
	}

	// Without the quote book the same period has no equity at all.
	a2 := NewTrendAnalyzer(zscore.NewEngine(zscore.DefaultTables(), nil), &fakeProvider{}, newFakeMetrics())
	rows, err = a2.AnalyzePeriods(profile, periods)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows[0].Valid {
		t.Fatalf("period without any equity measure must be invalid")
	}
}
