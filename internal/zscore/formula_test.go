package zscore

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func metricsFromFixture(t *testing.T, raw map[string]decimal.Decimal) FinancialMetrics {
	t.Helper()
	m, err := MetricsFromMap(DefaultTables(), raw, decimal.Zero, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("fixture metrics: %v", err)
	}
	return m
}

func rawOriginalFixture() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"current_assets":      d("453.0"),
		"current_liabilities": d("286.9"),
		"retained_earnings":   d("-12.8"),
		"ebit":                d("-69.7"),
		"market_value_equity": d("1031.5"),
		"total_assets":        d("453.0"),
		"total_liabilities":   d("344.5"),
		"sales":               d("259.8"),
	}
}

func within(t *testing.T, got decimal.Decimal, want, tol string) {
	t.Helper()
	if got.Sub(d(want)).Abs().GreaterThan(d(tol)) {
		t.Fatalf("got %s, want %s within %s", got, want, tol)
	}
}

func TestPrivateModelReferenceScenario(t *testing.T) {
	m := metricsFromFixture(t, rawPrivateFixture())
	res := NewEngine(DefaultTables(), nil).Compute(m, "private", nil)

	wantComponents := map[string]string{
		RatioX1: "0.500",
		RatioX2: "0.167",
		RatioX3: "0.125",
		RatioX4: "0.714",
		RatioX5: "0.750",
	}
	for name, want := range wantComponents {
		got, ok := res.Components[name]
		if !ok {
			t.Fatalf("component %s missing", name)
		}
		if !got.Equal(d(want)) {
			t.Fatalf("%s = %s, want %s", name, got, want)
		}
	}
	if res.Diagnostic != ZoneGrey {
		t.Fatalf("diagnostic = %q, want Grey Zone", res.Diagnostic)
	}
	within(t, res.ZScore, "1.94", "0.01")
}

func TestOriginalModelReferenceScenario(t *testing.T) {
	m := metricsFromFixture(t, rawOriginalFixture())
	res := NewEngine(DefaultTables(), nil).Compute(m, "original", nil)

	within(t, res.ZScore, "2.262", "0.01")
	if res.Diagnostic != ZoneGrey {
		t.Fatalf("diagnostic = %q, want Grey Zone", res.Diagnostic)
	}
	if res.Model != "original" {
		t.Fatalf("model = %q", res.Model)
	}
}

// Every variant's score must equal the documented weighted sum of its own
// components, and X1..X4 must always be present for complete inputs.
func TestWeightedSumProperty(t *testing.T) {
	tables := DefaultTables()
	eng := NewEngine(tables, nil)

	raw := rawPrivateFixture()
	raw["market_value_equity"] = d("800")
	m := metricsFromFixture(t, raw)

	for _, kind := range []ModelKind{ModelOriginal, ModelPrivate, ModelPublic, ModelService, ModelEM} {
		res := eng.Compute(m, string(kind), nil)
		c, _ := tables.Coefficients(string(kind))

		for _, name := range []string{RatioX1, RatioX2, RatioX3, RatioX4} {
			if _, ok := res.Components[name]; !ok {
				t.Fatalf("%s: component %s missing", kind, name)
			}
		}
		if c.OmitX5 {
			if _, ok := res.Components[RatioX5]; ok {
				t.Fatalf("%s: X5 should be omitted", kind)
			}
		}

		weights := map[string]decimal.Decimal{
			RatioX1: c.X1, RatioX2: c.X2, RatioX3: c.X3, RatioX4: c.X4, RatioX5: c.X5,
		}
		sum := c.Constant
		for name, v := range res.Components {
			sum = sum.Add(weights[name].Mul(v))
		}
		if res.ZScore.Sub(sum).Abs().GreaterThan(d("0.01")) {
			t.Fatalf("%s: z=%s does not match weighted sum %s", kind, res.ZScore, sum)
		}
	}
}

func TestEmergingMarketConstantShift(t *testing.T) {
	eng := NewEngine(DefaultTables(), nil)
	m := metricsFromFixture(t, rawPrivateFixture())

	em := eng.Compute(m, "em", nil)
	orig := eng.Compute(m, "original", nil)

	// em uses book equity where original uses market; compare via the
	// shared terms: the shift must equal the constant plus the X4 swap.
	if !em.Thresholds.DistressZone.Equal(d("5.06")) || !em.Thresholds.SafeZone.Equal(d("6.24")) {
		t.Fatalf("em thresholds = %+v", em.Thresholds)
	}
	if em.ZScore.LessThanOrEqual(orig.ZScore) {
		t.Fatalf("em score %s should exceed original %s by the constant", em.ZScore, orig.ZScore)
	}
}

func TestServiceModelEquityMeasurePerCall(t *testing.T) {
	eng := NewEngine(DefaultTables(), nil)

	bookOnly := metricsFromFixture(t, rawPrivateFixture())
	res := eng.Compute(bookOnly, "service", nil)
	if res.OverrideContext["equity_measure"] != "book" {
		t.Fatalf("equity_measure = %q, want book", res.OverrideContext["equity_measure"])
	}

	raw := rawPrivateFixture()
	raw["market_value_equity"] = d("800")
	both := metricsFromFixture(t, raw)
	res = eng.Compute(both, "service", nil)
	if res.OverrideContext["equity_measure"] != "market" {
		t.Fatalf("equity_measure = %q, want market", res.OverrideContext["equity_measure"])
	}
}

func TestZeroDenominatorYieldsUnavailableNotZero(t *testing.T) {
	raw := rawPrivateFixture()
	raw["total_liabilities"] = d("0")
	m := metricsFromFixture(t, raw)

	res := NewEngine(DefaultTables(), nil).Compute(m, "private", nil)
	if _, ok := res.Components[RatioX4]; ok {
		t.Fatalf("X4 should be absent from components, got %s", res.Components[RatioX4])
	}
	if len(res.Unavailable) != 1 || res.Unavailable[0] != RatioX4 {
		t.Fatalf("unavailable = %v, want [X4]", res.Unavailable)
	}
	if !res.Incomplete() {
		t.Fatalf("result should be incomplete")
	}
	if res.OverrideContext["incomplete"] == "" {
		t.Fatalf("incomplete marker missing from override context")
	}

	// The remaining terms still sum deterministically.
	c, _ := DefaultTables().Coefficients("private")
	sum := c.X1.Mul(res.Components[RatioX1]).
		Add(c.X2.Mul(res.Components[RatioX2])).
		Add(c.X3.Mul(res.Components[RatioX3])).
		Add(c.X5.Mul(res.Components[RatioX5]))
	if res.ZScore.Sub(sum).Abs().GreaterThan(d("0.01")) {
		t.Fatalf("z=%s does not match partial sum %s", res.ZScore, sum)
	}
}

func TestUnsuppliedEquityMeasureYieldsUnavailableNotZero(t *testing.T) {
	// A book-equity model scored from a period that only carried market
	// equity must not compute X4 with a zero numerator.
	raw := rawPrivateFixture()
	delete(raw, "book_value_equity")
	raw["market_value_equity"] = d("1031.5")
	m := metricsFromFixture(t, raw)

	for _, key := range []string{"private", "em"} {
		res := NewEngine(DefaultTables(), nil).Compute(m, key, nil)
		if _, ok := res.Components[RatioX4]; ok {
			t.Fatalf("%s: X4 should be absent, got %s", key, res.Components[RatioX4])
		}
		if len(res.Unavailable) != 1 || res.Unavailable[0] != RatioX4 {
			t.Fatalf("%s: unavailable = %v, want [X4]", key, res.Unavailable)
		}
		if !res.Incomplete() {
			t.Fatalf("%s: result should be incomplete", key)
		}
		if res.OverrideContext["incomplete"] == "" {
			t.Fatalf("%s: incomplete marker missing", key)
		}
	}

	// And the mirror case: a market-equity model over a book-only period.
	res := NewEngine(DefaultTables(), nil).Compute(metricsFromFixture(t, rawPrivateFixture()), "original", nil)
	if _, ok := res.Components[RatioX4]; ok {
		t.Fatalf("original: X4 should be absent, got %s", res.Components[RatioX4])
	}
	if len(res.Unavailable) != 1 || res.Unavailable[0] != RatioX4 {
		t.Fatalf("original: unavailable = %v, want [X4]", res.Unavailable)
	}
}
