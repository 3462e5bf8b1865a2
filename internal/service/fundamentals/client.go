package fundamentals

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"ZPulse/internal/domain/models"
	domsvc "ZPulse/internal/domain/service"
	"ZPulse/internal/service/cache"
	"ZPulse/internal/zscore"
	xhttp "ZPulse/pkg/http"
)

// Client fetches company profiles and quarterly statement line items from
// the fundamentals REST API, with an optional byte cache in front.
type Client struct {
	baseURL  string
	apiKey   string
	client   *xhttp.Client
	cache    cache.BytesCache
	cacheTTL time.Duration
}

type Option func(*Client)

// WithCache puts a byte cache in front of provider calls.
func WithCache(c cache.BytesCache, ttl time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		cl.cacheTTL = ttl
	}
}

// New creates a fundamentals provider client.
func New(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// profileDTO is the provider's company profile payload.
type profileDTO struct {
	Ticker           string `json:"ticker"`
	Industry         string `json:"industry"`
	SICCode          string `json:"sic_code"`
	IsPublic         bool   `json:"is_public"`
	IsEmergingMarket bool   `json:"is_emerging_market"`
	CompanyStage     string `json:"company_stage"`
	MarketCategory   string `json:"market_category"`
	IsTechOrAI       bool   `json:"is_tech_or_ai"`
	IsManufacturing  bool   `json:"is_manufacturing"`
	IsExcluded       bool   `json:"is_excluded"`
	ExclusionReason  string `json:"exclusion_reason"`
}

// statementDTO is one reporting period from the provider.
type statementDTO struct {
	PeriodEnd string             `json:"period_end"`
	Items     map[string]float64 `json:"items"`
}

// Profile fetches the classification profile for a ticker.
func (c *Client) Profile(ctx context.Context, ticker string) (zscore.CompanyProfile, error) {
	var dto profileDTO
	if err := c.getJSON(ctx, "/v1/profile/"+ticker, nil, &dto); err != nil {
		return zscore.CompanyProfile{}, fmt.Errorf("fetch profile: %w", err)
	}
	return zscore.CompanyProfile{
		Ticker:           dto.Ticker,
		Industry:         dto.Industry,
		SICCode:          dto.SICCode,
		IsPublic:         dto.IsPublic,
		IsEmergingMarket: dto.IsEmergingMarket,
		CompanyStage:     zscore.CompanyStage(dto.CompanyStage),
		MarketCategory:   zscore.MarketCategory(dto.MarketCategory),
		IsTechOrAI:       dto.IsTechOrAI,
		IsManufacturing:  dto.IsManufacturing,
		IsExcluded:       dto.IsExcluded,
		ExclusionReason:  dto.ExclusionReason,
	}, nil
}

// QuarterlyStatements fetches up to limit quarterly reporting periods,
// newest first.
func (c *Client) QuarterlyStatements(ctx context.Context, ticker string, limit int) ([]models.StatementPeriod, error) {
	if limit <= 0 {
		limit = 12
	}
	var dtos []statementDTO
	params := map[string][]string{
		"period": {"quarter"},
		"limit":  {strconv.Itoa(limit)},
	}
	if err := c.getJSON(ctx, "/v1/statements/"+ticker, params, &dtos); err != nil {
		return nil, fmt.Errorf("fetch statements: %w", err)
	}

	periods := make([]models.StatementPeriod, 0, len(dtos))
	for _, d := range dtos {
		end, err := time.Parse("2006-01-02", d.PeriodEnd)
		if err != nil {
			return nil, fmt.Errorf("bad period_end %q: %w", d.PeriodEnd, err)
		}
		periods = append(periods, models.StatementPeriod{PeriodEnd: end, Items: d.Items})
	}
	return periods, nil
}

// getJSON performs a GET under baseURL, consulting the cache first.
func (c *Client) getJSON(ctx context.Context, path string, params map[string][]string, dest interface{}) error {
	if c.client == nil || c.baseURL == "" {
		return fmt.Errorf("fundamentals http client not initialized")
	}

	key := cacheKey(path, params)
	if c.cache != nil {
		if b, ok, err := c.cache.GetBytes(key); err == nil && ok {
			return json.Unmarshal(b, dest)
		}
	}

	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + path,
		Headers: map[string]string{
			"Authorization": "Bearer " + c.apiKey,
		},
		QueryParams: params,
	}, dest)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}

	if c.cache != nil && c.cacheTTL > 0 {
		if b, err := json.Marshal(dest); err == nil {
			_ = c.cache.SetBytes(key, b, c.cacheTTL)
		}
	}
	return nil
}

func cacheKey(path string, params map[string][]string) string {
	key := "fundamentals:" + path
	for _, k := range []string{"period", "limit"} {
		if vs, ok := params[k]; ok && len(vs) > 0 {
			key += ":" + vs[0]
		}
	}
	return key
}

var _ domsvc.FundamentalsProvider = (*Client)(nil)
