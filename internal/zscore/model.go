package zscore

import (
	"time"

	"github.com/shopspring/decimal"
)

// ModelKind identifies a Z-score model variant. The set of built-in kinds is
// closed; additional coefficient sets can still be registered on a Tables
// value under arbitrary keys and are dispatched through the original formula.
type ModelKind string

const (
	ModelOriginal ModelKind = "original" // public manufacturing
	ModelPrivate  ModelKind = "private"  // private manufacturing
	ModelPublic   ModelKind = "public"   // public non-manufacturing
	ModelService  ModelKind = "service"  // financial and service firms
	ModelEM       ModelKind = "em"       // emerging market
)

// Coefficients holds the per-ratio weights of one model variant.
// Constant is zero for every model except the emerging-market one.
type Coefficients struct {
	X1       decimal.Decimal
	X2       decimal.Decimal
	X3       decimal.Decimal
	X4       decimal.Decimal
	X5       decimal.Decimal
	Constant decimal.Decimal
	OmitX5   bool // service-family variants exclude sales/total assets
}

// Thresholds defines the two zone boundaries of a model variant.
type Thresholds struct {
	DistressZone decimal.Decimal `json:"distress_zone"`
	SafeZone     decimal.Decimal `json:"safe_zone"`
}

// Zone is the three-bucket diagnostic label.
type Zone string

const (
	ZoneSafe     Zone = "Safe Zone"
	ZoneGrey     Zone = "Grey Zone"
	ZoneDistress Zone = "Distress Zone"
)

// CompanyStage is the maturity bucket used by the tech strategy split.
type CompanyStage string

const (
	StageEarly  CompanyStage = "early"
	StageGrowth CompanyStage = "growth"
	StageMature CompanyStage = "mature"
)

// MarketCategory distinguishes developed and emerging listings.
type MarketCategory string

const (
	MarketDeveloped MarketCategory = "developed"
	MarketEmerging  MarketCategory = "emerging"
)

// CompanyProfile carries the classification attributes the selector branches
// on. It is built once per ticker from provider data and read-only afterward.
type CompanyProfile struct {
	Ticker           string         `json:"ticker"`
	Industry         string         `json:"industry"`
	SICCode          string         `json:"sic_code"`
	IsPublic         bool           `json:"is_public"`
	IsEmergingMarket bool           `json:"is_emerging_market"`
	CompanyStage     CompanyStage   `json:"company_stage"`
	MarketCategory   MarketCategory `json:"market_category"`
	IsTechOrAI       bool           `json:"is_tech_or_ai"`
	IsManufacturing  bool           `json:"is_manufacturing"`
	IsExcluded       bool           `json:"is_excluded"`
	ExclusionReason  string         `json:"exclusion_reason,omitempty"`
}

// Strategy is the per-profile bundle the selector produces: the model to run,
// its thresholds, the adjustment tags to apply, and the fields the model needs.
type Strategy struct {
	Model            ModelKind  `json:"model"`
	ThresholdKey     string     `json:"threshold_key"`
	Thresholds       Thresholds `json:"thresholds"`
	Adjustments      []string   `json:"adjustments"`
	DataRequirements []string   `json:"data_requirements"`
}

// FinancialMetrics is an immutable snapshot of one reporting period. Monetary
// fields are exact decimals; MarketValueEquity or BookValueEquity may be zero
// when the corresponding model does not need it.
type FinancialMetrics struct {
	CurrentAssets      decimal.Decimal
	CurrentLiabilities decimal.Decimal
	RetainedEarnings   decimal.Decimal
	EBIT               decimal.Decimal
	MarketValueEquity  decimal.Decimal
	BookValueEquity    decimal.Decimal
	TotalAssets        decimal.Decimal
	TotalLiabilities   decimal.Decimal
	Sales              decimal.Decimal
	PeriodEnd          time.Time

	hasMarketEquity bool
	hasBookEquity   bool
}

// HasMarketEquity reports whether market value of equity was supplied.
func (m FinancialMetrics) HasMarketEquity() bool { return m.hasMarketEquity }

// HasBookEquity reports whether book value of equity was supplied.
func (m FinancialMetrics) HasBookEquity() bool { return m.hasBookEquity }

// Result is the output of one Compute call. It is never mutated after
// construction except for append-only enrichment of OverrideContext.
type Result struct {
	ZScore          decimal.Decimal            `json:"z_score"`
	Model           string                     `json:"model"`
	Components      map[string]decimal.Decimal `json:"components"`
	Unavailable     []string                   `json:"unavailable,omitempty"`
	Diagnostic      Zone                       `json:"diagnostic"`
	Thresholds      Thresholds                 `json:"thresholds"`
	OverrideContext map[string]string          `json:"override_context"`
	PeriodEnd       time.Time                  `json:"period_end"`
}

// Incomplete reports whether any ratio was unavailable for this period.
func (r *Result) Incomplete() bool { return len(r.Unavailable) > 0 }
