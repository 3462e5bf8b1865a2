package api

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"ZPulse/internal/domain/models"
	domrepo "ZPulse/internal/domain/repository"
	icache "ZPulse/internal/service/cache"
	"ZPulse/internal/service/metrics"
	"ZPulse/internal/service/ratelimit"
	"ZPulse/internal/usecase"
	"ZPulse/internal/zscore"
	xhttp "ZPulse/pkg/http"
	applogger "ZPulse/pkg/logger"
	pkgqueue "ZPulse/pkg/queue"
	"ZPulse/pkg/util"
)

// AnalysisHandler exposes the scoring engine over HTTP.
type AnalysisHandler struct {
	analyzer *usecase.TrendAnalyzer
	proc     *usecase.ResultProcessor
	store    domrepo.ResultStore
	cache    icache.BytesCache
	jobs     *pkgqueue.RedisQueue
	rl       *ratelimit.Limiter
	l        *applogger.Logger
	cacheTTL time.Duration
}

func NewAnalysisHandler(analyzer *usecase.TrendAnalyzer, proc *usecase.ResultProcessor, store domrepo.ResultStore) *AnalysisHandler {
	metrics.Register()
	return &AnalysisHandler{
		analyzer: analyzer,
		proc:     proc,
		store:    store,
		rl:       ratelimit.New(),
		cacheTTL: 30 * time.Second,
	}
}

// SetCache injects a byte cache for results responses.
func (h *AnalysisHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetLogger injects a structured logger.
func (h *AnalysisHandler) SetLogger(l *applogger.Logger) { h.l = l }

// SetJobQueue enables async full-ticker analyses.
func (h *AnalysisHandler) SetJobQueue(q *pkgqueue.RedisQueue) { h.jobs = q }

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.POST("/score", h.Score)
	g.POST("/analyze", h.Analyze)
	g.POST("/analyze/:ticker", h.AnalyzeAsync)
	g.GET("/models", h.Models)
	g.GET("/results", h.Results)
}

// Score computes one period under a named model.
func (h *AnalysisHandler) Score(c echo.Context) error {
	start := time.Now()
	endpoint := "score"
	defer func() { metrics.AnalysisLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.ScoreRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":score", 10, 5) {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_RATE_LIMITED", "", "rate limited", 429))
	}

	periodEnd, ok := util.ParseTime(req.PeriodEnd)
	if !ok {
		return xhttp.BadRequestResponse(c, "bad period_end: "+req.PeriodEnd)
	}

	engine := h.analyzer.Engine()
	m, err := zscore.MetricsFromFloats(engine.Tables(), req.Metrics, req.MarketValueEquity, periodEnd)
	if err != nil {
		var missing *zscore.MissingFieldError
		if errors.As(err, &missing) {
			return xhttp.BadRequestResponse(c, missing.Error())
		}
		return xhttp.AppErrorResponse(c, err)
	}

	res := engine.Compute(m, req.Model, nil)
	return xhttp.SuccessResponse(c, models.RowFromResult(req.Ticker, res))
}

// Analyze scores a full multi-period trend for one company profile.
func (h *AnalysisHandler) Analyze(c echo.Context) error {
	start := time.Now()
	endpoint := "analyze"
	defer func() { metrics.AnalysisLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":analyze", 5, 2) {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_RATE_LIMITED", "", "rate limited", 429))
	}

	periods := make([]models.StatementPeriod, 0, len(req.Periods))
	for _, p := range req.Periods {
		end, ok := util.ParseTime(p.PeriodEnd)
		if !ok {
			return xhttp.BadRequestResponse(c, "bad period_end: "+p.PeriodEnd)
		}
		periods = append(periods, models.StatementPeriod{PeriodEnd: end, Items: p.Metrics})
	}

	rows, err := h.analyzer.AnalyzePeriods(req.Profile, periods)
	if err != nil {
		var excl *zscore.ExclusionError
		if errors.As(err, &excl) {
			return xhttp.BadRequestResponse(c, excl.Error())
		}
		metrics.AnalysisErrors.WithLabelValues(endpoint).Inc()
		if h.l != nil {
			h.l.Error("analyze usecase error", applogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, err)
	}

	if req.Store && h.proc != nil {
		if err := h.proc.ProcessBatch(c.Request().Context(), rows); err != nil {
			metrics.AnalysisErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("analyze store error", applogger.Error(err))
			}
			return xhttp.AppErrorResponse(c, err)
		}
	}
	return xhttp.SuccessResponse(c, rows)
}

// AnalyzeAsync queues a full-ticker analysis job: fetch fundamentals, score
// every quarter, route rows to the backend.
func (h *AnalysisHandler) AnalyzeAsync(c echo.Context) error {
	if h.jobs == nil {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_QUEUE_DISABLED", "", "async analysis disabled", 503))
	}
	ticker := c.Param("ticker")
	if ticker == "" {
		return xhttp.BadRequestResponse(c, "ticker required")
	}
	quarters := util.ParseIntDefault(c.QueryParam("quarters"), 0)

	payload := models.AnalyzeJobPayload{Ticker: ticker, Quarters: quarters}
	if err := h.jobs.Enqueue(c.Request().Context(), usecase.AnalyzeJobType, payload); err != nil {
		if h.l != nil {
			h.l.Error("analyze enqueue error", applogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, map[string]string{"ticker": ticker, "status": "queued"})
}

// modelInfo is one entry of the models listing.
type modelInfo struct {
	Key        string             `json:"key"`
	Thresholds *zscore.Thresholds `json:"thresholds,omitempty"`
}

// Models lists the configured model and threshold table.
func (h *AnalysisHandler) Models(c echo.Context) error {
	tables := h.analyzer.Engine().Tables()
	keys := tables.ModelKeys()
	out := make([]modelInfo, 0, len(keys))
	for _, k := range keys {
		info := modelInfo{Key: k}
		if th, ok := tables.Thresholds(k); ok {
			info.Thresholds = &th
		}
		out = append(out, info)
	}
	return xhttp.SuccessResponse(c, out)
}

// Results reads stored rows for a ticker, newest first.
func (h *AnalysisHandler) Results(c echo.Context) error {
	start := time.Now()
	endpoint := "results"
	defer func() { metrics.AnalysisLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.ResultsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.store == nil {
		return xhttp.AppErrorResponse(c, xhttp.InternalError("result store not configured"))
	}

	from := util.ParseTimeDefault(req.From, time.Time{})
	to := util.ParseTimeDefault(req.To, time.Now())
	limit := req.Limit
	if limit <= 0 {
		limit = 48
	}

	cacheKey := "results:" + req.Ticker + ":" + req.From + ":" + req.To + ":" + strconv.Itoa(limit)
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
			if h.l != nil {
				h.l.Warn("results cache_get_error", applogger.Error(err))
			}
		} else if ok {
			if h.l != nil {
				h.l.Debug("results cache_hit", applogger.String("key", cacheKey))
			}
			return c.JSONBlob(200, b)
		}
	}

	rows, err := h.store.Query(c.Request().Context(), req.Ticker, from, to, limit)
	if err != nil {
		metrics.AnalysisErrors.WithLabelValues(endpoint).Inc()
		if h.l != nil {
			h.l.Error("results query error", applogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, err)
	}

	if h.cache != nil {
		payload := xhttp.APIResponse{
			Status:  200,
			Message: "OK",
			Data:    &xhttp.ListDataResponse{Rows: rows, Total: int64(len(rows))},
		}
		if b, err := json.Marshal(payload); err == nil {
			if err := h.cache.SetBytes(cacheKey, b, h.cacheTTL); err != nil && h.l != nil {
				h.l.Warn("results cache_set_error", applogger.Error(err))
			}
		}
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}
