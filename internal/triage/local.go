package triage

import (
	"io"
	"os"
	"path/filepath"

	"nzbtriage/internal/archive"
	"nzbtriage/internal/domain"
)

const localReadCap = 256 * 1024

// checkLocal tests each archive candidate against the configured archive
// directories, in order, returning the first finding produced by a regular-
// file hit. ENOENT silently advances to the next directory/filename; other
// IO errors are recorded as io-error findings.
func (a *Analyzer) checkLocal(cand domain.ArchiveCandidate) (domain.ArchiveFinding, bool) {
	names := expandCandidateFilenames(cand.File.Filename)

	for _, dir := range a.cfg.ArchiveDirs {
		for _, name := range names {
			path := filepath.Join(dir, name)

			info, err := os.Stat(path)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return domain.ArchiveFinding{
					Source:   "local",
					Filename: cand.File.Filename,
					Subject:  cand.File.Subject,
					Status:   domain.StatusIOError,
					Details:  err.Error(),
					Path:     path,
				}, true
			}
			if !info.Mode().IsRegular() {
				continue
			}

			f, err := os.Open(path)
			if err != nil {
				return domain.ArchiveFinding{
					Source:   "local",
					Filename: cand.File.Filename,
					Subject:  cand.File.Subject,
					Status:   domain.StatusIOError,
					Details:  err.Error(),
					Path:     path,
				}, true
			}
			buf := make([]byte, localReadCap)
			n, _ := io.ReadFull(f, buf)
			f.Close()

			result := archive.Inspect(buf[:n])
			return domain.ArchiveFinding{
				Source:   "local",
				Filename: cand.File.Filename,
				Subject:  cand.File.Subject,
				Status:   result.Status,
				Details:  result.Details,
				Path:     path,
			}, true
		}
	}

	return domain.ArchiveFinding{}, false
}
