package models

import "ZPulse/internal/zscore"

// ScoreRequest scores a single reporting period under a named model.
type ScoreRequest struct {
	Ticker            string             `json:"ticker" validate:"required"`
	Model             string             `json:"model" default:"original"`
	PeriodEnd         string             `json:"period_end" validate:"required"`
	Metrics           map[string]float64 `json:"metrics" validate:"required"`
	MarketValueEquity float64            `json:"market_value_equity"`
}

// PeriodInput is one reporting period inside an analyze request.
type PeriodInput struct {
	PeriodEnd string             `json:"period_end" validate:"required"`
	Metrics   map[string]float64 `json:"metrics" validate:"required"`
}

// AnalyzeRequest runs a full multi-period trend for one company profile.
type AnalyzeRequest struct {
	Profile zscore.CompanyProfile `json:"profile" validate:"required"`
	Periods []PeriodInput         `json:"periods" validate:"required,min=1,dive"`
	Store   bool                  `json:"store"`
}

// ResultsRequest reads stored rows for a ticker.
type ResultsRequest struct {
	Ticker string `query:"ticker" validate:"required"`
	From   string `query:"from"`
	To     string `query:"to"`
	Limit  int    `query:"limit" default:"48" validate:"gte=0,lte=1000"`
}

// AnalyzeJobPayload is the queued form of an async analysis request.
type AnalyzeJobPayload struct {
	Ticker   string `json:"ticker"`
	Quarters int    `json:"quarters"`
}
