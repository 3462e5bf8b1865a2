package zscore

import "github.com/shopspring/decimal"

// Rounding applied to every result: components to 3 decimal places, the
// final score to 2. All arithmetic stays in exact decimal.
const (
	componentPlaces = 3
	scorePlaces     = 2
)

// formula computes one model variant's score from a metrics snapshot.
// One implementation per variant; the only difference between them is the
// equity measure feeding X4 (and bookkeeping recorded in the result).
type formula interface {
	Kind() ModelKind
	Score(m FinancialMetrics, c Coefficients, th Thresholds) *Result
}

// formulaFor returns the formula for a built-in model kind. Keys outside the
// mapping are the dispatcher's problem (it falls back to the original
// formula and flags the override).
func formulaFor(kind ModelKind) (formula, bool) {
	switch kind {
	case ModelOriginal:
		return originalFormula{}, true
	case ModelPrivate:
		return privateFormula{}, true
	case ModelPublic:
		return publicFormula{}, true
	case ModelService:
		return serviceFormula{}, true
	case ModelEM:
		return emFormula{}, true
	default:
		return nil, false
	}
}

// weightedScore is the shared scoring path: compute ratios, apply weights to
// every available term, round, classify. Unavailable ratios are excluded
// from the sum and surfaced on the result, never silently zeroed.
func weightedScore(kind ModelKind, m FinancialMetrics, eq equityMeasure, c Coefficients, th Thresholds) *Result {
	rs := computeRatios(m, eq, c.OmitX5)

	weights := map[string]decimal.Decimal{
		RatioX1: c.X1,
		RatioX2: c.X2,
		RatioX3: c.X3,
		RatioX4: c.X4,
		RatioX5: c.X5,
	}

	sum := c.Constant
	components := make(map[string]decimal.Decimal, len(rs.values))
	for name, ratio := range rs.values {
		sum = sum.Add(weights[name].Mul(ratio))
		components[name] = ratio.Round(componentPlaces)
	}

	score := sum.Round(scorePlaces)
	return &Result{
		ZScore:          score,
		Model:           string(kind),
		Components:      components,
		Unavailable:     rs.unavailable,
		Diagnostic:      Classify(score, th),
		Thresholds:      th,
		OverrideContext: map[string]string{},
		PeriodEnd:       m.PeriodEnd,
	}
}

// originalFormula is the 1968 public-manufacturing model; X4 uses market
// value of equity.
type originalFormula struct{}

func (originalFormula) Kind() ModelKind { return ModelOriginal }

func (originalFormula) Score(m FinancialMetrics, c Coefficients, th Thresholds) *Result {
	return weightedScore(ModelOriginal, m, equityMarket, c, th)
}

// privateFormula is the re-estimated private-firm model; X4 uses book value.
type privateFormula struct{}

func (privateFormula) Kind() ModelKind { return ModelPrivate }

func (privateFormula) Score(m FinancialMetrics, c Coefficients, th Thresholds) *Result {
	return weightedScore(ModelPrivate, m, equityBook, c, th)
}

// publicFormula is the non-manufacturing variant: asset turnover omitted,
// market equity in X4.
type publicFormula struct{}

func (publicFormula) Kind() ModelKind { return ModelPublic }

func (publicFormula) Score(m FinancialMetrics, c Coefficients, th Thresholds) *Result {
	return weightedScore(ModelPublic, m, equityMarket, c, th)
}

// serviceFormula shares the non-manufacturing family but takes whichever
// equity measure the period supplies, preferring market value when both are
// present. The choice is recorded for audit.
type serviceFormula struct{}

func (serviceFormula) Kind() ModelKind { return ModelService }

func (serviceFormula) Score(m FinancialMetrics, c Coefficients, th Thresholds) *Result {
	eq := equityMarket
	measure := "market"
	if !m.HasMarketEquity() && m.HasBookEquity() {
		eq = equityBook
		measure = "book"
	}
	res := weightedScore(ModelService, m, eq, c, th)
	res.OverrideContext["equity_measure"] = measure
	return res
}

// emFormula is the emerging-market variant: original weights shifted by a
// fixed constant, book equity in X4.
type emFormula struct{}

func (emFormula) Kind() ModelKind { return ModelEM }

func (emFormula) Score(m FinancialMetrics, c Coefficients, th Thresholds) *Result {
	return weightedScore(ModelEM, m, equityBook, c, th)
}
