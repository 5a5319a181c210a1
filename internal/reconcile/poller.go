package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"simwatch/internal/config"
	"simwatch/internal/logging"
	"simwatch/internal/services/voiceapi"
)

// Store is the slice of the backend client a poller needs.
type Store interface {
	AnalyzeBatch(ctx context.Context, batchID string, forceRefresh bool) (*voiceapi.BatchAnalyzeReceipt, error)
	BatchAnalysis(ctx context.Context, batchID string) (*voiceapi.BatchAnalysis, error)
}

// Outcome classifies how a session ended.
type Outcome string

const (
	// OutcomeConverged means every expected call had a result.
	OutcomeConverged Outcome = "converged"
	// OutcomeTimedOut means the poll ceiling was hit first.
	OutcomeTimedOut Outcome = "timed_out"
	// OutcomeCanceled means the caller canceled the context.
	OutcomeCanceled Outcome = "canceled"
	// OutcomeNothingToAnalyze means the backend reported no eligible calls.
	OutcomeNothingToAnalyze Outcome = "nothing_to_analyze"
)

// Progress is a point-in-time report emitted once per poll.
type Progress struct {
	SessionID string
	Poll      int
	Analyzed  int
	Total     int
}

// Result summarizes a finished session.
type Result struct {
	SessionID string
	Outcome   Outcome
	Analyzed  int
	Total     int
	Polls     int
	Duration  time.Duration
	// Final holds the last successfully fetched analysis, nil when every
	// fetch failed or nothing was analyzed.
	Final *voiceapi.BatchAnalysis
}

// Poller runs re-analysis sessions against one backend store.
type Poller struct {
	store    Store
	logger   *slog.Logger
	interval time.Duration
	maxPolls int
}

// Option adjusts poller behavior.
type Option func(*Poller)

// WithInterval overrides the poll cadence.
func WithInterval(interval time.Duration) Option {
	return func(p *Poller) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithMaxPolls overrides the poll ceiling.
func WithMaxPolls(maxPolls int) Option {
	return func(p *Poller) {
		if maxPolls > 0 {
			p.maxPolls = maxPolls
		}
	}
}

// New creates a poller with cadence taken from cfg.
func New(store Store, cfg *config.Config, logger *slog.Logger, opts ...Option) *Poller {
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Poller{
		store:    store,
		logger:   logger.With(logging.String(logging.FieldComponent, "reconcile")),
		interval: 3 * time.Second,
		maxPolls: 100,
	}
	if cfg != nil {
		if cfg.Analysis.PollIntervalSeconds > 0 {
			p.interval = time.Duration(cfg.Analysis.PollIntervalSeconds) * time.Second
		}
		if cfg.Analysis.MaxPolls > 0 {
			p.maxPolls = cfg.Analysis.MaxPolls
		}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run triggers re-analysis of batchID and polls until convergence, ceiling,
// or cancellation. expectedTotal bounds convergence when positive; otherwise
// the backend's receipt decides. onProgress, when non-nil, is invoked after
// every poll with monotonically non-decreasing analyzed counts.
func (p *Poller) Run(ctx context.Context, batchID string, expectedTotal int, forceRefresh bool, onProgress func(Progress)) (*Result, error) {
	sessionID := uuid.NewString()
	logger := p.logger.With(
		logging.String(logging.FieldSessionID, sessionID),
		logging.String(logging.FieldBatchID, batchID),
	)
	started := time.Now()

	receipt, err := p.store.AnalyzeBatch(ctx, batchID, forceRefresh)
	if err != nil {
		return nil, err
	}
	if receipt.Status == voiceapi.BatchAnalyzeStatusNoCalls {
		logger.Info("no calls eligible for analysis")
		return &Result{
			SessionID: sessionID,
			Outcome:   OutcomeNothingToAnalyze,
			Duration:  time.Since(started),
		}, nil
	}

	total := expectedTotal
	if total <= 0 {
		total = receipt.TotalCalls
	}
	logger.Info("analysis started",
		logging.Int("total_calls", total),
		logging.Duration("interval", p.interval),
		logging.Int("max_polls", p.maxPolls))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var final *voiceapi.BatchAnalysis
	analyzed := 0
	polls := 0

	result := func(outcome Outcome) *Result {
		return &Result{
			SessionID: sessionID,
			Outcome:   outcome,
			Analyzed:  analyzed,
			Total:     total,
			Polls:     polls,
			Duration:  time.Since(started),
			Final:     final,
		}
	}

	for polls < p.maxPolls {
		if ctx.Err() != nil {
			logger.Info("analysis polling canceled", logging.Int("polls", polls))
			return result(OutcomeCanceled), ctx.Err()
		}
		select {
		case <-ctx.Done():
			logger.Info("analysis polling canceled", logging.Int("polls", polls))
			return result(OutcomeCanceled), ctx.Err()
		case <-ticker.C:
		}
		polls++

		analysis, err := p.store.BatchAnalysis(ctx, batchID)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return result(OutcomeCanceled), ctx.Err()
			}
			logger.Warn("analysis fetch failed, will retry",
				logging.Int("poll", polls),
				logging.Error(err))
			continue
		}
		final = analysis

		// Clamp so momentary shorter result lists never regress progress.
		if count := len(analysis.Results); count > analyzed {
			analyzed = count
		}
		if onProgress != nil {
			onProgress(Progress{SessionID: sessionID, Poll: polls, Analyzed: analyzed, Total: total})
		}
		logger.Debug("analysis progress",
			logging.Int("poll", polls),
			logging.Int("analyzed", analyzed),
			logging.Int("total", total))

		if total > 0 && analyzed >= total {
			logger.Info("analysis converged",
				logging.Int("polls", polls),
				logging.Duration("elapsed", time.Since(started)))
			return result(OutcomeConverged), nil
		}
	}

	logger.Warn("analysis polling hit ceiling",
		logging.Int("analyzed", analyzed),
		logging.Int("total", total),
		logging.Int("polls", polls))
	return result(OutcomeTimedOut), nil
}
