package zscore

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestClassifyBoundariesAreExact(t *testing.T) {
	th := Thresholds{DistressZone: d("1.81"), SafeZone: d("2.99")}

	cases := []struct {
		score string
		want  Zone
	}{
		{"2.99", ZoneGrey}, // exactly on safe boundary is Grey, not Safe
		{"1.81", ZoneGrey}, // exactly on distress boundary is Grey, not Distress
		{"3.00", ZoneSafe},
		{"2.991", ZoneSafe},
		{"1.80", ZoneDistress},
		{"2.00", ZoneGrey},
		{"-5.00", ZoneDistress},
	}
	for _, c := range cases {
		got := Classify(decimal.RequireFromString(c.score), th)
		if got != c.want {
			t.Fatalf("Classify(%s) = %q, want %q", c.score, got, c.want)
		}
	}
}
