package triage

import "nzbtriage/internal/domain"

// selectArchiveCandidates walks an NZB document's files in order and keeps
// the first file for each canonical archive key, the way a multi-volume
// RAR set collapses onto one representative volume.
func selectArchiveCandidates(doc *domain.NZBDocument) []domain.ArchiveCandidate {
	seen := make(map[string]struct{})
	var out []domain.ArchiveCandidate

	for i := range doc.Files {
		f := &doc.Files[i]
		if f.Filename == "" || !domain.IsArchiveExtension(f.Extension) {
			continue
		}
		key := domain.CanonicalArchiveKey(f.Filename)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, domain.ArchiveCandidate{File: f, CanonicalKey: key})
	}
	return out
}

// expandCandidateFilenames returns the filenames the local check should try
// in a directory: the original name, plus the canonical ".rar" form for
// multi-volume sets (e.g. "foo.r01" -> "foo.rar").
func expandCandidateFilenames(filename string) []string {
	canonical := domain.CanonicalArchiveKey(filename)
	if canonical == filename {
		return []string{filename}
	}
	return []string{filename, canonical}
}
