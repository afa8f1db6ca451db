package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"nzbtriage/internal/domain"
)

type fakeFetcher struct {
	payloads map[string]string
	errs     map[string]error
}

func (f *fakeFetcher) FetchNZB(ctx context.Context, url string) (string, error) {
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	return f.payloads[url], nil
}

type fakeAnalyzer struct {
	decisions []*domain.NZBDecision
	err       error
}

func (a *fakeAnalyzer) AnalyzeBatch(ctx context.Context, payloads []string) ([]*domain.NZBDecision, error) {
	return a.decisions, a.err
}

func verifiedDecision(index int, title string) *domain.NZBDecision {
	return &domain.NZBDecision{
		Decision: domain.DecisionAccept,
		NZBIndex: index,
		NZBTitle: title,
		ArchiveFindings: []domain.ArchiveFinding{
			{Status: domain.StatusRarStored},
		},
	}
}

func TestRunZeroBudgetMarksEverythingPending(t *testing.T) {
	r := New(Config{TimeBudgetMs: 0, DownloadConcurrency: 2, MaxCandidates: 10}, &fakeFetcher{}, &fakeAnalyzer{}, nil)
	cands := []domain.Candidate{{DownloadURL: "http://a", Title: "a"}}

	res := r.Run(context.Background(), cands)
	require.True(t, res.TimedOut)
	require.Equal(t, domain.SummaryPending, res.Decisions["http://a"].Status)
}

func TestRunFetchErrorProducesFetchErrorSummary(t *testing.T) {
	fetcher := &fakeFetcher{errs: map[string]error{"http://a": errors.New("boom")}}
	r := New(Config{TimeBudgetMs: 5000, DownloadConcurrency: 2, MaxCandidates: 10}, fetcher, &fakeAnalyzer{}, nil)
	cands := []domain.Candidate{{DownloadURL: "http://a", Title: "a"}}

	res := r.Run(context.Background(), cands)
	require.Equal(t, 1, res.FetchFailures)
	require.Equal(t, domain.SummaryFetchError, res.Decisions["http://a"].Status)
}

func TestRunEmptyBodyTreatedAsFetchError(t *testing.T) {
	fetcher := &fakeFetcher{payloads: map[string]string{"http://a": ""}}
	r := New(Config{TimeBudgetMs: 5000, DownloadConcurrency: 2, MaxCandidates: 10}, fetcher, &fakeAnalyzer{}, nil)
	cands := []domain.Candidate{{DownloadURL: "http://a", Title: "a"}}

	res := r.Run(context.Background(), cands)
	require.Equal(t, 1, res.FetchFailures)
	require.Equal(t, domain.SummaryFetchError, res.Decisions["http://a"].Status)
}

func TestRunSuccessfulFetchAndAnalysisProducesVerified(t *testing.T) {
	fetcher := &fakeFetcher{payloads: map[string]string{"http://a": "<nzb/>"}}
	analyzer := &fakeAnalyzer{decisions: []*domain.NZBDecision{verifiedDecision(0, "Some Release")}}
	r := New(Config{TimeBudgetMs: 5000, DownloadConcurrency: 2, MaxCandidates: 10}, fetcher, analyzer, nil)
	cands := []domain.Candidate{{DownloadURL: "http://a", Title: "Some Release"}}

	res := r.Run(context.Background(), cands)
	require.Equal(t, 1, res.EvaluatedCount)
	require.Equal(t, domain.SummaryVerified, res.Decisions["http://a"].Status)
	require.False(t, res.TimedOut)
}

func TestRunAnalyzerTimeoutMarksRunTimedOut(t *testing.T) {
	fetcher := &fakeFetcher{payloads: map[string]string{"http://a": "<nzb/>"}}
	analyzer := &fakeAnalyzer{err: domain.NewTriageError(domain.ErrHealthCheckTimeout, false, "deadline exceeded")}
	r := New(Config{TimeBudgetMs: 5000, DownloadConcurrency: 2, MaxCandidates: 10}, fetcher, analyzer, nil)
	cands := []domain.Candidate{{DownloadURL: "http://a", Title: "a"}}

	res := r.Run(context.Background(), cands)
	require.True(t, res.TimedOut)
	require.Equal(t, domain.SummaryPending, res.Decisions["http://a"].Status)
}

func TestRunAssignsDistinctRunIDsAcrossCalls(t *testing.T) {
	r := New(Config{TimeBudgetMs: 5000, MaxCandidates: 10}, &fakeFetcher{}, &fakeAnalyzer{}, nil)
	r1 := r.Run(context.Background(), nil)
	r2 := r.Run(context.Background(), nil)
	require.NotEqual(t, r1.RunID, r2.RunID)
	require.NotEmpty(t, r1.RunID)
}
