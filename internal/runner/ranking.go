package runner

import (
	"sort"
	"strings"

	"nzbtriage/internal/domain"
)

// rank implements spec §4.1's ranking/dedupe pipeline: drop entries without
// a download URL, dedupe by URL, partition preferred/fallback, sort each
// partition by proximity to preferredSizeBytes (or descending size),
// concatenate preferred before fallback, dedupe by normalized title, then
// truncate to maxCandidates.
func rank(candidates []domain.Candidate, cfg Config) []domain.Candidate {
	byURL := make(map[string]struct{}, len(candidates))
	var deduped []domain.Candidate
	for _, c := range candidates {
		if c.DownloadURL == "" {
			continue
		}
		if _, ok := byURL[c.DownloadURL]; ok {
			continue
		}
		byURL[c.DownloadURL] = struct{}{}
		deduped = append(deduped, c)
	}

	preferredSet := make(map[string]struct{}, len(cfg.PreferredIndexerIDs))
	for _, id := range cfg.PreferredIndexerIDs {
		preferredSet[strings.ToLower(strings.TrimSpace(id))] = struct{}{}
	}

	var preferred, fallback []domain.Candidate
	if len(preferredSet) == 0 {
		fallback = deduped
	} else {
		for _, c := range deduped {
			if c.PrefersIndexer(preferredSet) {
				preferred = append(preferred, c)
			} else {
				fallback = append(fallback, c)
			}
		}
	}

	sortPartition(preferred, cfg.PreferredSizeBytes)
	sortPartition(fallback, cfg.PreferredSizeBytes)

	ordered := append(preferred, fallback...)

	seenTitle := make(map[string]struct{}, len(ordered))
	var deduped2 []domain.Candidate
	for _, c := range ordered {
		nt := c.NormalizedTitle()
		if nt != "" {
			if _, ok := seenTitle[nt]; ok {
				continue
			}
			seenTitle[nt] = struct{}{}
		}
		deduped2 = append(deduped2, c)
	}

	if cfg.MaxCandidates > 0 && len(deduped2) > cfg.MaxCandidates {
		deduped2 = deduped2[:cfg.MaxCandidates]
	}
	return deduped2
}

// sortPartition sorts in place, stably preserving input order for equal
// keys (spec P3).
func sortPartition(cands []domain.Candidate, preferredSize int64) {
	if len(cands) < 2 {
		return
	}
	if preferredSize > 0 {
		sort.SliceStable(cands, func(i, j int) bool {
			di := distance(cands[i].Size, preferredSize)
			dj := distance(cands[j].Size, preferredSize)
			if di != dj {
				return di < dj
			}
			return cands[i].Size > cands[j].Size
		})
		return
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Size > cands[j].Size
	})
}

func distance(size, preferred int64) int64 {
	d := size - preferred
	if d < 0 {
		d = -d
	}
	return d
}
