package zscore

import "github.com/shopspring/decimal"

// Classify maps a score to its three-zone diagnostic. The boundary policy is
// deliberate and load-bearing: strictly above the safe boundary is Safe, the
// inclusive band [distress, safe] is Grey, strictly below distress is
// Distress. A score exactly on either boundary is Grey.
func Classify(score decimal.Decimal, th Thresholds) Zone {
	switch {
	case score.GreaterThan(th.SafeZone):
		return ZoneSafe
	case score.LessThan(th.DistressZone):
		return ZoneDistress
	default:
		return ZoneGrey
	}
}
