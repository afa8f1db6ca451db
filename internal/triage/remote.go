package triage

import (
	"context"
	"io"

	"nzbtriage/internal/archive"
	"nzbtriage/internal/domain"
	"nzbtriage/internal/yenc"
)

// checkRemote runs the primary remote probe against cand's first segment:
// STAT, then on success BODY, then a bounded yEnc decode handed to the
// archive inspector.
func (a *Analyzer) checkRemote(ctx context.Context, cand domain.ArchiveCandidate) domain.ArchiveFinding {
	base := domain.ArchiveFinding{
		Source:   "nntp",
		Filename: cand.File.Filename,
		Subject:  cand.File.Subject,
	}
	segID := cand.File.Segments[0].ID

	cl, err := a.pool.Acquire(ctx)
	if err != nil {
		base.Status = domain.StatusStatError
		base.Details = err.Error()
		return base
	}
	drop := false
	defer func() { a.pool.Release(cl, drop) }()

	if err := cl.Stat(ctx, segID); err != nil {
		terr, _ := err.(*domain.TriageError)
		if terr != nil {
			drop = terr.DropClient
			if terr.Kind == domain.ErrStatMissing {
				base.Status = domain.StatusStatMissing
			} else {
				base.Status = domain.StatusStatError
			}
			base.Details = terr.Message
		} else {
			base.Status = domain.StatusStatError
			base.Details = err.Error()
		}
		return base
	}

	body, err := cl.Body(ctx, segID)
	if err != nil {
		terr, _ := err.(*domain.TriageError)
		if terr != nil {
			drop = terr.DropClient
			if terr.Kind == domain.ErrBodyMissing {
				base.Status = domain.StatusBodyMissing
			} else {
				base.Status = domain.StatusBodyError
			}
			base.Details = terr.Message
		} else {
			base.Status = domain.StatusBodyError
			base.Details = err.Error()
		}
		return base
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil || len(raw) == 0 {
		base.Status = domain.StatusBodyError
		if err != nil {
			base.Details = err.Error()
		}
		return base
	}

	maxBytes := a.cfg.MaxDecodedBytes
	if maxBytes <= 0 {
		maxBytes = 16384
	}
	decoded, err := yenc.Decode(raw, maxBytes)
	if err != nil {
		base.Status = domain.StatusDecodeError
		base.Details = err.Error()
		return base
	}

	result := archive.Inspect(decoded.Data)
	base.Status = result.Status
	base.Details = result.Details
	return base
}

// statSegment issues a bare STAT for extra liveness sampling and maps the
// outcome onto the segment-ok/segment-missing/segment-error triad.
func (a *Analyzer) statSegment(ctx context.Context, seg domain.Segment, filename, subject string) domain.ArchiveFinding {
	finding := domain.ArchiveFinding{Source: "nntp-stat", Filename: filename, Subject: subject}

	cl, err := a.pool.Acquire(ctx)
	if err != nil {
		finding.Status = domain.StatusSegmentError
		finding.Details = err.Error()
		return finding
	}
	drop := false
	defer func() { a.pool.Release(cl, drop) }()

	if err := cl.Stat(ctx, seg.ID); err != nil {
		terr, _ := err.(*domain.TriageError)
		if terr != nil {
			drop = terr.DropClient
			if terr.Kind == domain.ErrStatMissing {
				finding.Status = domain.StatusSegmentMissing
			} else {
				finding.Status = domain.StatusSegmentError
			}
			finding.Details = terr.Message
		} else {
			finding.Status = domain.StatusSegmentError
			finding.Details = err.Error()
		}
		return finding
	}

	finding.Status = domain.StatusSegmentOK
	return finding
}
