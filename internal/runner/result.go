package runner

import (
	"errors"

	"nzbtriage/internal/domain"
)

var errEmptyBody = errors.New("runner: empty NZB body")

func augmentSummary(s domain.CandidateSummary, c domain.Candidate) domain.CandidateSummary {
	s.Title = firstNonEmpty(c.Title, s.Title)
	s.NormalizedTitle = c.NormalizedTitle()
	s.IndexerID = c.IndexerID
	s.IndexerName = c.IndexerName
	return s
}

func fetchErrorSummary(c domain.Candidate) domain.CandidateSummary {
	return domain.CandidateSummary{
		Status:          domain.SummaryFetchError,
		Blockers:        []string{"fetch-error"},
		Title:           c.Title,
		NormalizedTitle: c.NormalizedTitle(),
		IndexerID:       c.IndexerID,
		IndexerName:     c.IndexerName,
	}
}

func pendingSummary(c domain.Candidate) domain.CandidateSummary {
	return domain.CandidateSummary{
		Status:          domain.SummaryPending,
		Title:           c.Title,
		NormalizedTitle: c.NormalizedTitle(),
		IndexerID:       c.IndexerID,
		IndexerName:     c.IndexerName,
	}
}

func skippedSummary(c domain.Candidate) domain.CandidateSummary {
	return domain.CandidateSummary{
		Status:          domain.SummarySkipped,
		Title:           c.Title,
		NormalizedTitle: c.NormalizedTitle(),
		IndexerID:       c.IndexerID,
		IndexerName:     c.IndexerName,
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
