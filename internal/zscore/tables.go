package zscore

import (
	"github.com/shopspring/decimal"
)

// Threshold table keys. Model kinds double as threshold keys; the tech
// stage-specific sets exist only in the threshold table.
const (
	ThresholdTechEarly  = "tech_early"
	ThresholdTechGrowth = "tech_growth"
)

// Adjustment tags attached by the selector. Downstream consumers treat them
// as opaque audit strings.
const (
	AdjRDCapitalization = "rd_capitalization"
	AdjRDAdjustment     = "rd_adjustment"
	AdjOperatingLease   = "operating_lease_capitalization"
	AdjInventory        = "inventory_adjustment"
	AdjCountryRisk      = "country_risk_adjustment"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Tables is the process-wide read-only configuration of the scoring engine:
// coefficients and thresholds per model, SIC classification ranges, and
// accepted field-name synonyms. Built once at startup and injected into the
// Engine; tests inject alternates.
type Tables struct {
	coefficients map[string]Coefficients
	thresholds   map[string]Thresholds
	synonyms     map[string]string
}

// DefaultTables returns the built-in model tables.
func DefaultTables() *Tables {
	emShift := d("3.25")
	return &Tables{
		coefficients: map[string]Coefficients{
			string(ModelOriginal): {
				X1: d("1.2"), X2: d("1.4"), X3: d("3.3"), X4: d("0.6"), X5: d("1.0"),
			},
			string(ModelPrivate): {
				X1: d("0.717"), X2: d("0.847"), X3: d("3.107"), X4: d("0.420"), X5: d("0.998"),
			},
			string(ModelPublic): {
				X1: d("6.56"), X2: d("3.26"), X3: d("6.72"), X4: d("1.05"), OmitX5: true,
			},
			string(ModelService): {
				X1: d("6.56"), X2: d("3.26"), X3: d("6.72"), X4: d("1.05"), OmitX5: true,
			},
			string(ModelEM): {
				X1: d("1.2"), X2: d("1.4"), X3: d("3.3"), X4: d("0.6"), X5: d("1.0"),
				Constant: emShift,
			},
		},
		thresholds: map[string]Thresholds{
			string(ModelOriginal): {DistressZone: d("1.81"), SafeZone: d("2.99")},
			string(ModelPrivate):  {DistressZone: d("1.23"), SafeZone: d("2.90")},
			string(ModelPublic):   {DistressZone: d("1.10"), SafeZone: d("2.60")},
			string(ModelService):  {DistressZone: d("1.10"), SafeZone: d("2.60")},
			// Emerging-market bands are the original bands shifted by the
			// model's fixed constant so zone semantics stay aligned.
			string(ModelEM):     {DistressZone: d("1.81").Add(emShift), SafeZone: d("2.99").Add(emShift)},
			ThresholdTechEarly:  {DistressZone: d("0.80"), SafeZone: d("2.20")},
			ThresholdTechGrowth: {DistressZone: d("0.95"), SafeZone: d("2.40")},
		},
		synonyms: map[string]string{
			"total_current_assets":      FieldCurrentAssets,
			"total_current_liabilities": FieldCurrentLiabilities,
			"retained_earnings_deficit": FieldRetainedEarnings,
			"operating_income":          FieldEBIT,
			"ebit_ttm":                  FieldEBIT,
			"market_cap":                FieldMarketValueEquity,
			"market_capitalization":     FieldMarketValueEquity,
			"total_stockholders_equity": FieldBookValueEquity,
			"shareholders_equity":       FieldBookValueEquity,
			"total_revenue":             FieldSales,
			"revenue":                   FieldSales,
			"net_sales":                 FieldSales,
		},
	}
}

// Coefficients returns the coefficient set for key, if present.
func (t *Tables) Coefficients(key string) (Coefficients, bool) {
	c, ok := t.coefficients[key]
	return c, ok
}

// Thresholds returns the threshold set for key, if present.
func (t *Tables) Thresholds(key string) (Thresholds, bool) {
	th, ok := t.thresholds[key]
	return th, ok
}

// CanonicalField resolves a synonym to its canonical field name; unknown
// names pass through unchanged.
func (t *Tables) CanonicalField(name string) string {
	if c, ok := t.synonyms[name]; ok {
		return c
	}
	return name
}

// WithModel returns a copy of the tables with an extra coefficient/threshold
// set registered under key. Keys outside the built-in formula mapping are
// dispatched through the original formula and flagged in the override
// context; this is the extensibility escape hatch, not an error path.
func (t *Tables) WithModel(key string, c Coefficients, th Thresholds) *Tables {
	nt := &Tables{
		coefficients: make(map[string]Coefficients, len(t.coefficients)+1),
		thresholds:   make(map[string]Thresholds, len(t.thresholds)+1),
		synonyms:     t.synonyms,
	}
	for k, v := range t.coefficients {
		nt.coefficients[k] = v
	}
	for k, v := range t.thresholds {
		nt.thresholds[k] = v
	}
	nt.coefficients[key] = c
	nt.thresholds[key] = th
	return nt
}

// ModelKeys lists every key with a registered coefficient set.
func (t *Tables) ModelKeys() []string {
	keys := make([]string, 0, len(t.coefficients))
	for k := range t.coefficients {
		keys = append(keys, k)
	}
	return keys
}
