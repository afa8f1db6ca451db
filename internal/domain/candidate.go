package domain

import "strings"

// Candidate is a single competing NZB payload offered to the Runner.
// Identity within a batch is DownloadURL.
type Candidate struct {
	DownloadURL string
	Title       string
	IndexerID   string
	IndexerName string
	Size        int64
}

// NormalizedTitle lowercases and trims Title for dedupe purposes. Titles
// that normalize to empty never collide with each other.
func (c Candidate) NormalizedTitle() string {
	return strings.ToLower(strings.TrimSpace(c.Title))
}

// PrefersIndexer reports whether this candidate's indexer (by id or name,
// case-insensitively) appears in the preferred set.
func (c Candidate) PrefersIndexer(preferred map[string]struct{}) bool {
	if len(preferred) == 0 {
		return false
	}
	if _, ok := preferred[strings.ToLower(c.IndexerID)]; ok {
		return true
	}
	if _, ok := preferred[strings.ToLower(c.IndexerName)]; ok {
		return true
	}
	return false
}
