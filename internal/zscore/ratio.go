package zscore

import "github.com/shopspring/decimal"

// Ratio names used as component keys.
const (
	RatioX1 = "X1" // working capital / total assets
	RatioX2 = "X2" // retained earnings / total assets
	RatioX3 = "X3" // EBIT / total assets
	RatioX4 = "X4" // equity measure / total liabilities
	RatioX5 = "X5" // sales / total assets
)

// equityMeasure selects the numerator of X4.
type equityMeasure int

const (
	equityMarket equityMeasure = iota
	equityBook
)

// safeDiv divides num by den. A zero denominator is not an error and not a
// zero substitute: ok=false marks the ratio unavailable and the caller
// propagates that explicitly.
func safeDiv(num, den decimal.Decimal) (decimal.Decimal, bool) {
	if den.IsZero() {
		return decimal.Decimal{}, false
	}
	return num.Div(den), true
}

// ratioSet holds the computed ratios keyed by name, plus the names of ratios
// whose denominator was zero.
type ratioSet struct {
	values      map[string]decimal.Decimal
	unavailable []string
}

func (rs *ratioSet) put(name string, v decimal.Decimal, ok bool) {
	if ok {
		rs.values[name] = v
		return
	}
	rs.unavailable = append(rs.unavailable, name)
}

// computeRatios derives the five standard ratios from a metrics snapshot.
// omitX5 drops the asset-turnover term entirely (service-family models).
func computeRatios(m FinancialMetrics, eq equityMeasure, omitX5 bool) ratioSet {
	rs := ratioSet{values: make(map[string]decimal.Decimal, 5)}

	workingCapital := m.CurrentAssets.Sub(m.CurrentLiabilities)
	x1, ok := safeDiv(workingCapital, m.TotalAssets)
	rs.put(RatioX1, x1, ok)

	x2, ok := safeDiv(m.RetainedEarnings, m.TotalAssets)
	rs.put(RatioX2, x2, ok)

	x3, ok := safeDiv(m.EBIT, m.TotalAssets)
	rs.put(RatioX3, x3, ok)

	num, have := m.MarketValueEquity, m.hasMarketEquity
	if eq == equityBook {
		num, have = m.BookValueEquity, m.hasBookEquity
	}
	if !have {
		// The model's equity measure was never supplied; a zero numerator
		// would silently drag the score toward distress.
		rs.put(RatioX4, decimal.Decimal{}, false)
	} else {
		x4, ok := safeDiv(num, m.TotalLiabilities)
		rs.put(RatioX4, x4, ok)
	}

	if !omitX5 {
		x5, ok := safeDiv(m.Sales, m.TotalAssets)
		rs.put(RatioX5, x5, ok)
	}

	return rs
}
