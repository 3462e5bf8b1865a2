package zscore

import "strconv"

// SIC classification ranges. Tech ranges sit inside the manufacturing band
// and are checked first.
var sicTechRanges = [][2]int{
	{3570, 3579}, // computer and office equipment
	{3670, 3679}, // electronic components
	{7370, 7379}, // computer programming and data processing
}

const (
	sicManufacturingLo = 2000
	sicManufacturingHi = 3999
	sicServiceLo       = 6000
	sicServiceHi       = 8999
)

// SelectStrategy deterministically picks a model and adjustment list from a
// company profile. First match wins; the order is part of the contract.
func SelectStrategy(t *Tables, p CompanyProfile) (Strategy, error) {
	if p.IsExcluded {
		return Strategy{}, &ExclusionError{Ticker: p.Ticker, Reason: p.ExclusionReason}
	}

	if p.IsTechOrAI {
		return techStrategy(t, p.CompanyStage), nil
	}

	if p.IsManufacturing {
		if p.MarketCategory == MarketEmerging {
			return strategyFor(t, ModelEM, string(ModelEM),
				AdjInventory, AdjOperatingLease, AdjCountryRisk), nil
		}
		return strategyFor(t, ModelOriginal, string(ModelOriginal),
			AdjInventory, AdjOperatingLease), nil
	}

	// Service / default.
	return strategyFor(t, ModelService, string(ModelService), AdjOperatingLease), nil
}

func techStrategy(t *Tables, stage CompanyStage) Strategy {
	switch stage {
	case StageEarly:
		return strategyFor(t, ModelPublic, ThresholdTechEarly,
			AdjRDCapitalization, AdjOperatingLease)
	case StageGrowth:
		return strategyFor(t, ModelPublic, ThresholdTechGrowth,
			AdjRDAdjustment, AdjOperatingLease)
	default:
		// Mature tech runs on the plain non-manufacturing bands.
		return strategyFor(t, ModelPublic, string(ModelPublic), AdjOperatingLease)
	}
}

// SelectBySIC is the parallel selector for profiles lacking explicit stage
// and category flags. Unrecognized or missing SIC codes fall back to the
// original model; that conservative default is deliberate.
func SelectBySIC(t *Tables, sic string, isPublic bool) Strategy {
	code, err := strconv.Atoi(sic)
	if err != nil || code <= 0 {
		return strategyFor(t, ModelOriginal, string(ModelOriginal))
	}

	for _, r := range sicTechRanges {
		if code >= r[0] && code <= r[1] {
			return strategyFor(t, ModelPublic, string(ModelPublic), AdjOperatingLease)
		}
	}
	if code >= sicManufacturingLo && code <= sicManufacturingHi {
		if isPublic {
			return strategyFor(t, ModelOriginal, string(ModelOriginal), AdjInventory, AdjOperatingLease)
		}
		return strategyFor(t, ModelPrivate, string(ModelPrivate), AdjInventory, AdjOperatingLease)
	}
	if code >= sicServiceLo && code <= sicServiceHi {
		return strategyFor(t, ModelService, string(ModelService), AdjOperatingLease)
	}
	return strategyFor(t, ModelOriginal, string(ModelOriginal))
}

func strategyFor(t *Tables, model ModelKind, thresholdKey string, adjustments ...string) Strategy {
	th, ok := t.Thresholds(thresholdKey)
	if !ok {
		th, _ = t.Thresholds(string(ModelOriginal))
		thresholdKey = string(ModelOriginal)
	}
	return Strategy{
		Model:            model,
		ThresholdKey:     thresholdKey,
		Thresholds:       th,
		Adjustments:      adjustments,
		DataRequirements: dataRequirements(model),
	}
}

func dataRequirements(model ModelKind) []string {
	base := []string{
		FieldCurrentAssets,
		FieldCurrentLiabilities,
		FieldRetainedEarnings,
		FieldEBIT,
		FieldTotalAssets,
		FieldTotalLiabilities,
		FieldSales,
	}
	switch model {
	case ModelPrivate, ModelEM:
		return append(base, FieldBookValueEquity)
	default:
		return append(base, FieldMarketValueEquity)
	}
}
