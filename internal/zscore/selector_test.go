package zscore

import (
	"errors"
	"reflect"
	"testing"
)

func TestSelectStrategyExcluded(t *testing.T) {
	p := CompanyProfile{Ticker: "XYZ", IsExcluded: true, ExclusionReason: "shell company"}
	_, err := SelectStrategy(DefaultTables(), p)
	var ee *ExclusionError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExclusionError, got %v", err)
	}
	if ee.Reason != "shell company" {
		t.Fatalf("reason = %q", ee.Reason)
	}
}

func TestSelectStrategyTechStages(t *testing.T) {
	tables := DefaultTables()
	cases := []struct {
		stage        CompanyStage
		thresholdKey string
		adjustments  []string
	}{
		{StageEarly, ThresholdTechEarly, []string{AdjRDCapitalization, AdjOperatingLease}},
		{StageGrowth, ThresholdTechGrowth, []string{AdjRDAdjustment, AdjOperatingLease}},
		{StageMature, string(ModelPublic), []string{AdjOperatingLease}},
	}
	for _, c := range cases {
		s, err := SelectStrategy(tables, CompanyProfile{IsTechOrAI: true, CompanyStage: c.stage})
		if err != nil {
			t.Fatalf("stage %s: %v", c.stage, err)
		}
		if s.Model != ModelPublic {
			t.Fatalf("stage %s: model = %s", c.stage, s.Model)
		}
		if s.ThresholdKey != c.thresholdKey {
			t.Fatalf("stage %s: threshold key = %s, want %s", c.stage, s.ThresholdKey, c.thresholdKey)
		}
		if !reflect.DeepEqual(s.Adjustments, c.adjustments) {
			t.Fatalf("stage %s: adjustments = %v, want %v", c.stage, s.Adjustments, c.adjustments)
		}
	}
}

func TestSelectStrategyTechWinsOverManufacturing(t *testing.T) {
	// First match wins: a tech flag takes precedence over manufacturing.
	s, err := SelectStrategy(DefaultTables(), CompanyProfile{
		IsTechOrAI:      true,
		IsManufacturing: true,
		CompanyStage:    StageMature,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Model != ModelPublic {
		t.Fatalf("model = %s, want public", s.Model)
	}
}

func TestSelectStrategyManufacturing(t *testing.T) {
	s, err := SelectStrategy(DefaultTables(), CompanyProfile{IsManufacturing: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Model != ModelOriginal {
		t.Fatalf("model = %s, want original", s.Model)
	}
	want := []string{AdjInventory, AdjOperatingLease}
	if !reflect.DeepEqual(s.Adjustments, want) {
		t.Fatalf("adjustments = %v, want %v", s.Adjustments, want)
	}
}

func TestSelectStrategyManufacturingEmergingMarket(t *testing.T) {
	s, err := SelectStrategy(DefaultTables(), CompanyProfile{
		IsManufacturing: true,
		MarketCategory:  MarketEmerging,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Model != ModelEM {
		t.Fatalf("model = %s, want em", s.Model)
	}
	want := []string{AdjInventory, AdjOperatingLease, AdjCountryRisk}
	if !reflect.DeepEqual(s.Adjustments, want) {
		t.Fatalf("adjustments = %v, want %v", s.Adjustments, want)
	}
}

func TestSelectStrategyServiceDefault(t *testing.T) {
	s, err := SelectStrategy(DefaultTables(), CompanyProfile{Industry: "retail banking"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Model != ModelService {
		t.Fatalf("model = %s, want service", s.Model)
	}
	if !reflect.DeepEqual(s.Adjustments, []string{AdjOperatingLease}) {
		t.Fatalf("adjustments = %v", s.Adjustments)
	}
}

func TestSelectStrategyIsDeterministic(t *testing.T) {
	p := CompanyProfile{IsTechOrAI: true, CompanyStage: StageGrowth}
	tables := DefaultTables()
	first, err := SelectStrategy(tables, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := SelectStrategy(tables, p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("selection not deterministic: %+v vs %+v", first, again)
		}
	}
}

func TestSelectBySIC(t *testing.T) {
	tables := DefaultTables()
	cases := []struct {
		sic      string
		isPublic bool
		want     ModelKind
	}{
		{"3571", true, ModelPublic}, // computer hardware resolves to the tech family
		{"3674", false, ModelPublic},
		{"7372", true, ModelPublic},
		{"2800", true, ModelOriginal},
		{"2800", false, ModelPrivate},
		{"3999", true, ModelOriginal},
		{"6021", true, ModelService},
		{"8742", false, ModelService},
	}
	for _, c := range cases {
		s := SelectBySIC(tables, c.sic, c.isPublic)
		if s.Model != c.want {
			t.Fatalf("SIC %s public=%v: model = %s, want %s", c.sic, c.isPublic, s.Model, c.want)
		}
	}
}

// Unknown or missing SIC codes fall back to the original model. This is the
// documented conservative default, not an accident.
func TestSelectBySICUnknownFallsBackToOriginal(t *testing.T) {
	tables := DefaultTables()
	for _, sic := range []string{"", "abc", "0", "9999", "1500"} {
		s := SelectBySIC(tables, sic, true)
		if s.Model != ModelOriginal {
			t.Fatalf("SIC %q: model = %s, want original fallback", sic, s.Model)
		}
	}
}
