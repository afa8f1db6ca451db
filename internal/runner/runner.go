// Package runner ranks competing NZB candidates, fetches their payloads
// under a bounded concurrency and time budget, hands the survivors to the
// Analyzer, and assembles the per-candidate summary the caller sees.
package runner

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/sourcegraph/conc/pool"

	"nzbtriage/internal/domain"
	"nzbtriage/internal/httpclient"
	"nzbtriage/internal/logger"
)

// Config is the Runner's recognized option set (spec §4.1/§6).
type Config struct {
	TimeBudgetMs        int
	MaxCandidates       int
	DownloadConcurrency int
	DownloadTimeoutMs   int
	PreferredSizeBytes  int64
	PreferredIndexerIDs []string
}

func DefaultConfig() Config {
	return Config{
		TimeBudgetMs:        12000,
		MaxCandidates:       25,
		DownloadConcurrency: 8,
		DownloadTimeoutMs:   10000,
	}
}

// Analyzer is the capability the Runner hands fetched payloads to.
type Analyzer interface {
	AnalyzeBatch(ctx context.Context, payloads []string) ([]*domain.NZBDecision, error)
}

// Result is the Runner's output (spec §4.1).
type Result struct {
	RunID                string
	Decisions            map[string]domain.CandidateSummary
	ElapsedMs            int64
	TimedOut             bool
	CandidatesConsidered int
	EvaluatedCount       int
	FetchFailures        int
}

// Runner orchestrates ranking, fetch, and analysis for one triage batch.
type Runner struct {
	cfg      Config
	fetcher  httpclient.Fetcher
	analyzer Analyzer
	log      *logger.Logger
}

func New(cfg Config, fetcher httpclient.Fetcher, analyzer Analyzer, log *logger.Logger) *Runner {
	return &Runner{cfg: cfg, fetcher: fetcher, analyzer: analyzer, log: log}
}

type fetchOutcome struct {
	candidate domain.Candidate
	payload   string
	err       error
}

// Run executes one triage batch end to end. It never returns an error to
// the caller: every failure mode is folded into the returned Result.
func (r *Runner) Run(ctx context.Context, candidates []domain.Candidate) Result {
	runID := ksuid.New().String()
	log := r.log
	if log != nil {
		log = log.With("run", runID)
	}

	start := time.Now()
	ranked := rank(candidates, r.cfg)

	byURL := make(map[string]domain.Candidate, len(ranked))
	for _, c := range ranked {
		byURL[c.DownloadURL] = c
	}

	result := Result{
		RunID:                runID,
		Decisions:            make(map[string]domain.CandidateSummary, len(ranked)),
		CandidatesConsidered: len(ranked),
	}

	budget := time.Duration(r.cfg.TimeBudgetMs) * time.Millisecond

	if budget <= 0 {
		result.TimedOut = true
		for _, c := range ranked {
			result.Decisions[c.DownloadURL] = pendingSummary(c)
		}
		result.ElapsedMs = time.Since(start).Milliseconds()
		return result
	}

	batchCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	fetched, pending, timedOutAtFetch := r.fetchStage(batchCtx, ranked, start, budget, log)

	if timedOutAtFetch {
		result.TimedOut = true
	}

	var payloads []string
	var order []domain.Candidate
	for _, f := range fetched {
		if f.err != nil {
			result.FetchFailures++
			result.Decisions[f.candidate.DownloadURL] = fetchErrorSummary(f.candidate)
			continue
		}
		payloads = append(payloads, f.payload)
		order = append(order, f.candidate)
	}

	elapsed := time.Since(start)
	remaining := budget - elapsed

	if remaining <= 0 {
		result.TimedOut = true
		for _, c := range order {
			result.Decisions[c.DownloadURL] = pendingSummary(c)
		}
		for _, c := range pending {
			result.Decisions[c.DownloadURL] = pendingSummary(c)
		}
		result.ElapsedMs = time.Since(start).Milliseconds()
		return result
	}

	if len(payloads) > 0 {
		analyzeCtx, analyzeCancel := context.WithTimeout(batchCtx, remaining)
		decisions, err := r.runAnalysis(analyzeCtx, payloads)
		analyzeCancel()

		if err != nil {
			result.TimedOut = true
		}

		for i, c := range order {
			var dec *domain.NZBDecision
			if i < len(decisions) {
				dec = decisions[i]
			}
			if dec == nil {
				result.Decisions[c.DownloadURL] = pendingSummary(c)
				continue
			}
			result.EvaluatedCount++
			result.Decisions[c.DownloadURL] = augmentSummary(domain.SummarizeDecision(dec), c)
		}
	}

	for _, c := range pending {
		result.Decisions[c.DownloadURL] = pendingSummary(c)
	}

	for url, c := range byURL {
		if _, ok := result.Decisions[url]; !ok {
			result.Decisions[url] = skippedSummary(c)
		}
	}

	result.ElapsedMs = time.Since(start).Milliseconds()
	if result.ElapsedMs >= budget.Milliseconds() {
		result.TimedOut = true
	}
	return result
}

// fetchStage downloads payloads with bounded concurrency, stopping new
// dispatches once the time budget is exhausted but letting in-flight
// requests finish. Candidates never dispatched are returned as pending.
func (r *Runner) fetchStage(ctx context.Context, candidates []domain.Candidate, start time.Time, budget time.Duration, log *logger.Logger) ([]fetchOutcome, []domain.Candidate, bool) {
	concurrency := r.cfg.DownloadConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]fetchOutcome, 0, len(candidates))
	var pending []domain.Candidate
	var mu sync.Mutex
	var timedOut bool

	p := pool.New().WithMaxGoroutines(concurrency)
	for _, c := range candidates {
		c := c

		if time.Since(start) >= budget {
			mu.Lock()
			timedOut = true
			pending = append(pending, c)
			mu.Unlock()
			continue
		}

		p.Go(func() {
			reqTimeout := time.Duration(r.cfg.DownloadTimeoutMs) * time.Millisecond
			if reqTimeout <= 0 {
				reqTimeout = 10 * time.Second
			}
			reqCtx, cancel := context.WithTimeout(ctx, reqTimeout)
			defer cancel()

			payload, err := r.fetcher.FetchNZB(reqCtx, c.DownloadURL)
			if err == nil && payload == "" {
				err = errEmptyBody
			}
			if err != nil && log != nil {
				log.Warn("fetch failed url=%s err=%v", c.DownloadURL, err)
			}

			mu.Lock()
			results = append(results, fetchOutcome{candidate: c, payload: payload, err: err})
			mu.Unlock()
		})
	}
	p.Wait()

	return results, pending, timedOut
}

func (r *Runner) runAnalysis(ctx context.Context, payloads []string) ([]*domain.NZBDecision, error) {
	return r.analyzer.AnalyzeBatch(ctx, payloads)
}
