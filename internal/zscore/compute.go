package zscore

import (
	"strings"

	applogger "ZPulse/pkg/logger"
)

// Override context keys recorded by the dispatcher.
const (
	ctxDynamicOverride = "dynamic_model_override"
	ctxSICOverride     = "sic_override"
	ctxIncomplete      = "incomplete"
	ctxThresholdKey    = "threshold_key"
	ctxAdjustments     = "adjustments"
)

// Engine dispatches computations against an injected table set. It is a pure
// function of its inputs aside from warning logs.
type Engine struct {
	tables *Tables
	l      *applogger.Logger
}

// NewEngine builds an engine over the given tables. The logger is optional.
func NewEngine(t *Tables, l *applogger.Logger) *Engine {
	return &Engine{tables: t, l: l}
}

// Tables returns the engine's table set.
func (e *Engine) Tables() *Tables { return e.tables }

// Compute scores one period under the named model. Unknown keys fall back to
// the original model's tables and are recorded in the override context, never
// swallowed. Keys present in the coefficient table but outside the built-in
// formula mapping (including dynamically registered and sic_-prefixed keys)
// reuse the original formula and flag the override; that is the extensibility
// escape hatch, not an error.
func (e *Engine) Compute(m FinancialMetrics, modelKey string, overrideCtx map[string]string) *Result {
	ctx := make(map[string]string, len(overrideCtx)+2)
	for k, v := range overrideCtx {
		ctx[k] = v
	}

	key := modelKey
	coeffs, haveCoeffs := e.tables.Coefficients(key)
	th, haveTh := e.tables.Thresholds(key)
	if !haveCoeffs || !haveTh {
		if e.l != nil {
			e.l.Warn("unknown model key, falling back to original",
				applogger.String("model", modelKey))
		}
		ctx[ctxDynamicOverride] = modelKey
		key = string(ModelOriginal)
		coeffs, _ = e.tables.Coefficients(key)
		th, _ = e.tables.Thresholds(key)
	}

	f, known := formulaFor(ModelKind(key))
	if !known {
		// Table-only key: score with the original formula, keep the key.
		if strings.HasPrefix(key, "sic_") {
			ctx[ctxSICOverride] = key
		} else {
			ctx[ctxDynamicOverride] = key
		}
		f = originalFormula{}
	}

	res := f.Score(m, coeffs, th)
	res.Model = key
	for k, v := range ctx {
		res.OverrideContext[k] = v
	}
	if res.Incomplete() {
		res.OverrideContext[ctxIncomplete] = "unavailable ratios: " + strings.Join(res.Unavailable, ", ")
	}
	return res
}

// ComputeStrategy scores one period under a selected strategy, honoring its
// threshold set (which may differ from the model's default, e.g. the tech
// stage bands) and recording the strategy choices for audit.
func (e *Engine) ComputeStrategy(m FinancialMetrics, s Strategy, overrideCtx map[string]string) *Result {
	ctx := make(map[string]string, len(overrideCtx)+2)
	for k, v := range overrideCtx {
		ctx[k] = v
	}
	ctx[ctxThresholdKey] = s.ThresholdKey
	if len(s.Adjustments) > 0 {
		ctx[ctxAdjustments] = strings.Join(s.Adjustments, ",")
	}

	res := e.Compute(m, string(s.Model), ctx)
	if s.ThresholdKey != string(s.Model) {
		res.Thresholds = s.Thresholds
		res.Diagnostic = Classify(res.ZScore, s.Thresholds)
	}
	return res
}
