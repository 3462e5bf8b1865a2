package usecase

import (
	"context"
	"fmt"
	"time"

	"ZPulse/internal/domain/models"
	domrepo "ZPulse/internal/domain/repository"
	domsvc "ZPulse/internal/domain/service"
	"ZPulse/internal/zscore"
	applogger "ZPulse/pkg/logger"

	"github.com/shopspring/decimal"
)

// TrendAnalyzer orchestrates multi-period distress scoring for one ticker:
// one strategy per profile, one independent computation per reporting period.
type TrendAnalyzer struct {
	engine   *zscore.Engine
	provider domsvc.FundamentalsProvider
	quotes   domsvc.QuoteBook // optional live market cap source
	metrics  domrepo.Metrics
	l        *applogger.Logger
}

// NewTrendAnalyzer creates a new TrendAnalyzer instance.
func NewTrendAnalyzer(engine *zscore.Engine, provider domsvc.FundamentalsProvider, metrics domrepo.Metrics) *TrendAnalyzer {
	return &TrendAnalyzer{engine: engine, provider: provider, metrics: metrics}
}

// SetQuoteBook injects the live quote book for market cap supplementation.
func (a *TrendAnalyzer) SetQuoteBook(qb domsvc.QuoteBook) { a.quotes = qb }

// SetLogger injects a structured logger.
func (a *TrendAnalyzer) SetLogger(l *applogger.Logger) { a.l = l }

// Engine returns the underlying scoring engine.
func (a *TrendAnalyzer) Engine() *zscore.Engine { return a.engine }

// AnalyzeTicker fetches the profile and the last n quarterly statements from
// the provider and scores them. An excluded profile aborts the whole ticker;
// a single bad period never does.
func (a *TrendAnalyzer) AnalyzeTicker(ctx context.Context, ticker string, quarters int) ([]*models.QuarterRow, error) {
	profile, err := a.provider.Profile(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("fetch profile %s: %w", ticker, err)
	}
	periods, err := a.provider.QuarterlyStatements(ctx, ticker, quarters)
	if err != nil {
		return nil, fmt.Errorf("fetch statements %s: %w", ticker, err)
	}
	return a.AnalyzePeriods(profile, periods)
}

// AnalyzePeriods scores the supplied reporting periods under one profile.
// The strategy is selected once; each period is computed independently and a
// period failing field validation is emitted as an invalid row rather than
// aborting the trend.
func (a *TrendAnalyzer) AnalyzePeriods(profile zscore.CompanyProfile, periods []models.StatementPeriod) ([]*models.QuarterRow, error) {
	strategy, err := a.selectStrategy(profile)
	if err != nil {
		return nil, err
	}

	rows := make([]*models.QuarterRow, 0, len(periods))
	for _, p := range periods {
		rows = append(rows, a.scorePeriod(profile.Ticker, strategy, p))
	}
	return rows, nil
}

// selectStrategy prefers the explicit profile flags; a profile carrying only
// a SIC code goes through the SIC selector instead.
func (a *TrendAnalyzer) selectStrategy(profile zscore.CompanyProfile) (zscore.Strategy, error) {
	if profile.IsExcluded {
		return zscore.Strategy{}, &zscore.ExclusionError{Ticker: profile.Ticker, Reason: profile.ExclusionReason}
	}
	if !profile.IsTechOrAI && !profile.IsManufacturing && profile.CompanyStage == "" && profile.SICCode != "" {
		return zscore.SelectBySIC(a.engine.Tables(), profile.SICCode, profile.IsPublic), nil
	}
	return zscore.SelectStrategy(a.engine.Tables(), profile)
}

func (a *TrendAnalyzer) scorePeriod(ticker string, strategy zscore.Strategy, p models.StatementPeriod) *models.QuarterRow {
	start := time.Now()

	mve := decimal.Zero
	if a.quotes != nil {
		if mc, ok := a.quotes.LastMarketCap(ticker); ok {
			mve = decimal.NewFromFloat(mc)
		}
	}

	raw := make(map[string]decimal.Decimal, len(p.Items))
	for k, v := range p.Items {
		raw[k] = decimal.NewFromFloat(v)
	}

	m, err := zscore.MetricsFromMap(a.engine.Tables(), raw, mve, p.PeriodEnd)
	if err != nil {
		if a.l != nil {
			a.l.Warn("period skipped",
				applogger.String("ticker", ticker),
				applogger.String("quarter_end", p.PeriodEnd.Format("2006-01-02")),
				applogger.Error(err),
			)
		}
		if a.metrics != nil {
			a.metrics.RecordError("period_invalid")
		}
		return models.FailedRow(ticker, p.PeriodEnd, string(strategy.Model), err)
	}

	res := a.engine.ComputeStrategy(m, strategy, nil)
	row := models.RowFromResult(ticker, res)
	if a.metrics != nil {
		a.metrics.RecordLastScore(ticker, row.Model, res.ZScore.InexactFloat64())
		a.metrics.RecordLatency("compute", time.Since(start).Seconds())
	}
	return row
}
