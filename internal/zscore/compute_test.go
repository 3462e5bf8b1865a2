package zscore

import (
	"testing"
)

func TestComputeUnknownModelFallsBackToOriginal(t *testing.T) {
	eng := NewEngine(DefaultTables(), nil)
	m := metricsFromFixture(t, rawOriginalFixture())

	res := eng.Compute(m, "foobar", nil)
	if res.Model != "original" {
		t.Fatalf("model = %q, want original", res.Model)
	}
	if res.OverrideContext["dynamic_model_override"] != "foobar" {
		t.Fatalf("override context missing dynamic_model_override: %v", res.OverrideContext)
	}
	if !res.Thresholds.DistressZone.Equal(d("1.81")) {
		t.Fatalf("thresholds = %+v, want original bands", res.Thresholds)
	}
	within(t, res.ZScore, "2.262", "0.01")
}

func TestComputeSICPrefixedKeyReusesOriginalFormula(t *testing.T) {
	tables := DefaultTables().WithModel("sic_industrial",
		Coefficients{X1: d("1.2"), X2: d("1.4"), X3: d("3.3"), X4: d("0.6"), X5: d("1.0")},
		Thresholds{DistressZone: d("1.50"), SafeZone: d("2.80")},
	)
	eng := NewEngine(tables, nil)
	m := metricsFromFixture(t, rawOriginalFixture())

	res := eng.Compute(m, "sic_industrial", nil)
	if res.Model != "sic_industrial" {
		t.Fatalf("model = %q, want table key preserved", res.Model)
	}
	if res.OverrideContext["sic_override"] != "sic_industrial" {
		t.Fatalf("override context missing sic_override: %v", res.OverrideContext)
	}
	if !res.Thresholds.SafeZone.Equal(d("2.80")) {
		t.Fatalf("thresholds = %+v, want registered bands", res.Thresholds)
	}
}

func TestComputeDynamicTableOnlyKey(t *testing.T) {
	tables := DefaultTables().WithModel("airlines",
		Coefficients{X1: d("1.0"), X2: d("1.0"), X3: d("3.0"), X4: d("0.5"), X5: d("1.0")},
		Thresholds{DistressZone: d("1.00"), SafeZone: d("2.00")},
	)
	eng := NewEngine(tables, nil)
	m := metricsFromFixture(t, rawOriginalFixture())

	res := eng.Compute(m, "airlines", nil)
	if res.Model != "airlines" {
		t.Fatalf("model = %q", res.Model)
	}
	if res.OverrideContext["dynamic_model_override"] != "airlines" {
		t.Fatalf("override context missing dynamic_model_override: %v", res.OverrideContext)
	}
}

func TestComputePreservesCallerOverrideContext(t *testing.T) {
	eng := NewEngine(DefaultTables(), nil)
	m := metricsFromFixture(t, rawOriginalFixture())

	res := eng.Compute(m, "original", map[string]string{"source": "backfill"})
	if res.OverrideContext["source"] != "backfill" {
		t.Fatalf("caller context lost: %v", res.OverrideContext)
	}
}

func TestComputeStrategyUsesStageThresholds(t *testing.T) {
	tables := DefaultTables()
	eng := NewEngine(tables, nil)

	s, err := SelectStrategy(tables, CompanyProfile{IsTechOrAI: true, CompanyStage: StageEarly})
	if err != nil {
		t.Fatalf("select: %v", err)
	}

	raw := rawPrivateFixture()
	raw["market_value_equity"] = d("800")
	m := metricsFromFixture(t, raw)

	res := eng.ComputeStrategy(m, s, nil)
	if !res.Thresholds.DistressZone.Equal(d("0.80")) || !res.Thresholds.SafeZone.Equal(d("2.20")) {
		t.Fatalf("thresholds = %+v, want tech_early bands", res.Thresholds)
	}
	if res.Diagnostic != Classify(res.ZScore, res.Thresholds) {
		t.Fatalf("diagnostic not classified against strategy thresholds")
	}
	if res.OverrideContext["threshold_key"] != ThresholdTechEarly {
		t.Fatalf("threshold_key missing: %v", res.OverrideContext)
	}
	if res.OverrideContext["adjustments"] == "" {
		t.Fatalf("adjustments missing: %v", res.OverrideContext)
	}
}
