package util

import (
	"strconv"
	"time"
)

// ParseTime tries RFC3339, plain dates (statement period ends come as
// YYYY-MM-DD), and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// QuarterEnd returns the last calendar day of the quarter containing t, UTC.
func QuarterEnd(t time.Time) time.Time {
	t = t.UTC()
	q := (int(t.Month()) - 1) / 3
	firstOfNext := time.Date(t.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 3, 0)
	return firstOfNext.AddDate(0, 0, -1)
}

// prevQuarterEnd steps from one quarter end to the one before it: the day
// before the first day of cur's quarter.
func prevQuarterEnd(cur time.Time) time.Time {
	q := (int(cur.Month()) - 1) / 3
	qStart := time.Date(cur.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
	return qStart.AddDate(0, 0, -1)
}

// QuarterLabel formats t as its calendar quarter label, e.g. "2024Q3".
func QuarterLabel(t time.Time) string {
	q := (int(t.UTC().Month())-1)/3 + 1
	return strconv.Itoa(t.UTC().Year()) + "Q" + strconv.Itoa(q)
}

// PrevQuarterEnds returns the n most recent quarter ends at or before t,
// newest first.
func PrevQuarterEnds(t time.Time, n int) []time.Time {
	ends := make([]time.Time, 0, n)
	cur := QuarterEnd(t)
	if cur.After(t.UTC()) {
		cur = prevQuarterEnd(cur)
	}
	for i := 0; i < n; i++ {
		ends = append(ends, cur)
		cur = prevQuarterEnd(cur)
	}
	return ends
}
