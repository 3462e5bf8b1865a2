package zscore

import (
	"fmt"
	"strings"
)

// MissingFieldError reports required financial fields absent from one
// period's input. It is local to that period: callers mark the period
// invalid and continue with the rest of the trend.
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required financial fields: %s", strings.Join(e.Fields, ", "))
}

// ExclusionError reports a profile flagged as excluded from analysis.
// It is fatal for the whole ticker; no computation is attempted.
type ExclusionError struct {
	Ticker string
	Reason string
}

func (e *ExclusionError) Error() string {
	if e.Ticker == "" {
		return fmt.Sprintf("company excluded from analysis: %s", e.Reason)
	}
	return fmt.Sprintf("%s excluded from analysis: %s", e.Ticker, e.Reason)
}
