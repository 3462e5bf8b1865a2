package util

import (
	"testing"
	"time"
)

func TestParseTimePlainDate(t *testing.T) {
	got, ok := ParseTime("2024-12-31")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Year() != 2024 || got.Month() != time.December || got.Day() != 31 {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestQuarterEnd(t *testing.T) {
	cases := map[string]string{
		"2024-01-15": "2024-03-31",
		"2024-03-31": "2024-03-31",
		"2024-05-10": "2024-06-30",
		"2024-12-01": "2024-12-31",
	}
	for in, want := range cases {
		ti, _ := ParseTime(in)
		got := QuarterEnd(ti)
		if got.Format("2006-01-02") != want {
			t.Fatalf("QuarterEnd(%s) = %s, want %s", in, got.Format("2006-01-02"), want)
		}
	}
}

func TestPrevQuarterEnds(t *testing.T) {
	ti, _ := ParseTime("2024-05-10")
	ends := PrevQuarterEnds(ti, 4)
	want := []string{"2024-03-31", "2023-12-31", "2023-09-30", "2023-06-30"}
	if len(ends) != len(want) {
		t.Fatalf("got %d ends", len(ends))
	}
	for i, w := range want {
		if ends[i].Format("2006-01-02") != w {
			t.Fatalf("ends[%d] = %s, want %s", i, ends[i].Format("2006-01-02"), w)
		}
	}
}

func TestQuarterLabel(t *testing.T) {
	ti, _ := ParseTime("2024-09-30")
	if got := QuarterLabel(ti); got != "2024Q3" {
		t.Fatalf("label = %s", got)
	}
}
