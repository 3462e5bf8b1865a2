package usecase

import (
	"context"
	"fmt"
	"time"

	"ZPulse/internal/domain/models"
	"ZPulse/pkg/queue"
)

// Locker is the distributed lock the job handler takes per ticker, typically
// backed by redis.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// AnalyzeJobType identifies queued full-ticker analysis jobs.
const AnalyzeJobType = "analyze_ticker"

// AnalysisJobHandler executes queued ticker analyses: run the trend, route
// every row to the backend.
type AnalysisJobHandler struct {
	analyzer *TrendAnalyzer
	proc     *ResultProcessor
	quarters int
	locker   Locker
}

func NewAnalysisJobHandler(analyzer *TrendAnalyzer, proc *ResultProcessor, quarters int) *AnalysisJobHandler {
	if quarters <= 0 {
		quarters = 12
	}
	return &AnalysisJobHandler{analyzer: analyzer, proc: proc, quarters: quarters}
}

// SetLocker enables a distributed lock so concurrent workers never analyze
// the same ticker twice.
func (h *AnalysisJobHandler) SetLocker(l Locker) { h.locker = l }

// Name returns the job identifier.
func (h *AnalysisJobHandler) Name() string { return "analysis" }

// Type returns the message type the job handles.
func (h *AnalysisJobHandler) Type() string { return AnalyzeJobType }

// Handle processes one queued analysis job.
func (h *AnalysisJobHandler) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[models.AnalyzeJobPayload](payload)
	if err != nil {
		return fmt.Errorf("parse analyze payload: %w", err)
	}
	quarters := p.Quarters
	if quarters <= 0 {
		quarters = h.quarters
	}

	if h.locker != nil {
		lockKey := "analyze:" + p.Ticker
		ok, err := h.locker.TryLock(ctx, lockKey, 5*time.Minute)
		if err != nil {
			return fmt.Errorf("lock %s: %w", p.Ticker, err)
		}
		if !ok {
			return nil // another worker holds the ticker
		}
		defer func() { _ = h.locker.Unlock(ctx, lockKey) }()
	}

	rows, err := h.analyzer.AnalyzeTicker(ctx, p.Ticker, quarters)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", p.Ticker, err)
	}
	if err := h.proc.ProcessBatch(ctx, rows); err != nil {
		return fmt.Errorf("store %s results: %w", p.Ticker, err)
	}
	return nil
}

var _ queue.Job = (*AnalysisJobHandler)(nil)
