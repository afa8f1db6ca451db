// Package triage implements the per-NZB analysis algorithm: parse, select
// archive candidates, run local and remote probes, and classify the
// findings into an accept/reject decision.
package triage

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"nzbtriage/internal/domain"
	"nzbtriage/internal/logger"
	"nzbtriage/internal/nzbxml"
)

// Pool is the capability the analyzer borrows NNTP clients from. *nntp.Pool
// satisfies this; a nil Pool means "NNTP unavailable for this batch".
type Pool interface {
	Acquire(ctx context.Context) (domain.NNTPClient, error)
	Release(c domain.NNTPClient, drop bool)
}

// Config is the analyzer's recognized option set (external interfaces §6).
type Config struct {
	ArchiveDirs          []string
	HealthCheckTimeoutMs int
	MaxDecodedBytes      int
	MaxParallelNZBs      int // 0 means unbounded
	StatSampleCount      int
	ArchiveSampleCount   int
}

// Analyzer runs the per-NZB triage algorithm across a batch of payloads.
type Analyzer struct {
	cfg  Config
	pool Pool
	log  *logger.Logger

	poolErr error // set once, when pool construction failed for this batch
}

func New(cfg Config, p Pool, poolErr error, log *logger.Logger) *Analyzer {
	return &Analyzer{cfg: cfg, pool: p, poolErr: poolErr, log: log}
}

// AnalyzeBatch analyzes each payload (in order) under a shared
// healthCheckTimeoutMs deadline, with min(MaxParallelNZBs, len(payloads))
// workers in flight. Results are returned in input order; a nil entry
// means the batch deadline expired before that NZB was reached.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, payloads []string) ([]*domain.NZBDecision, error) {
	if len(payloads) == 0 {
		return nil, nil
	}

	timeout := time.Duration(a.cfg.HealthCheckTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 35 * time.Second
	}
	batchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	maxPar := a.cfg.MaxParallelNZBs
	if maxPar <= 0 || maxPar > len(payloads) {
		maxPar = len(payloads)
	}

	results := make([]*domain.NZBDecision, len(payloads))
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(maxPar)
	for i, payload := range payloads {
		i, payload := i, payload
		p.Go(func() {
			if batchCtx.Err() != nil {
				return
			}
			dec := a.analyzeOne(batchCtx, i, payload)
			mu.Lock()
			results[i] = dec
			mu.Unlock()
		})
	}
	p.Wait()

	if batchCtx.Err() != nil {
		return results, domain.NewTriageError(domain.ErrHealthCheckTimeout, false, batchCtx.Err().Error())
	}
	return results, nil
}

// analyzeOne implements the seven-step per-NZB algorithm. A panic or parse
// error is converted into a reject decision with blocker analysis-error
// rather than propagating, so one bad NZB never sinks the batch.
func (a *Analyzer) analyzeOne(ctx context.Context, index int, payload string) (result *domain.NZBDecision) {
	dec := &domain.NZBDecision{Decision: domain.DecisionAccept, NZBIndex: index}
	result = dec

	defer func() {
		if r := recover(); r != nil {
			dec.Decision = domain.DecisionReject
			dec.AddBlocker("analysis-error")
			dec.AddWarning(fmt.Sprintf("%v", r))
		}
	}()

	doc, err := nzbxml.Parse(strings.NewReader(payload))
	if err != nil {
		dec.Decision = domain.DecisionReject
		dec.AddBlocker("analysis-error")
		dec.AddWarning("code:parse-error")
		dec.AddWarning(err.Error())
		return dec
	}

	dec.NZBTitle = doc.Title
	dec.FileCount = len(doc.Files)

	archives := selectArchiveCandidates(doc)
	rng := rand.New(rand.NewSource(int64(index) + 1))

	if len(archives) == 0 {
		dec.AddWarning("no-archive-candidates")
		a.sampleBareSegments(ctx, doc, dec, rng)
		return dec
	}

	confirmedStored := false
	checkedSegments := make(map[*domain.NZBFile]map[string]struct{})
	markChecked := func(f *domain.NZBFile, id string) {
		set, ok := checkedSegments[f]
		if !ok {
			set = make(map[string]struct{})
			checkedSegments[f] = set
		}
		set[id] = struct{}{}
	}

	// Step 4: local check.
	if len(a.cfg.ArchiveDirs) > 0 {
		for _, cand := range archives {
			finding, ok := a.checkLocal(cand)
			if !ok {
				continue
			}
			dec.ArchiveFindings = append(dec.ArchiveFindings, finding)
			applyFinding(dec, finding.Status)
			if domain.IsStoredConfirmation(finding.Status) {
				confirmedStored = true
			}
		}
	}

	// Step 5: remote check against the first archive candidate with segments.
	var primary *domain.ArchiveCandidate
	for i := range archives {
		if len(archives[i].File.Segments) > 0 {
			primary = &archives[i]
			break
		}
	}

	if !confirmedStored && primary != nil {
		if a.pool == nil {
			dec.AddWarning(a.poolWarning())
		} else {
			finding := a.checkRemote(ctx, *primary)
			dec.ArchiveFindings = append(dec.ArchiveFindings, finding)
			applyFinding(dec, finding.Status)
			markChecked(primary.File, primary.File.Segments[0].ID)
			if domain.IsStoredConfirmation(finding.Status) {
				confirmedStored = true
			}
		}
	}

	for _, cand := range archives {
		if len(cand.File.Segments) == 0 {
			dec.AddWarning("archive-no-segments")
		}
	}

	// Step 6: extra STAT sampling once a stored archive is confirmed and no
	// blockers have accumulated.
	if confirmedStored && len(dec.Blockers) == 0 && a.pool != nil && primary != nil {
		a.extraSampling(ctx, *primary, archives, checkedSegments, dec, rng)
	}

	if !confirmedStored && len(dec.Blockers) == 0 {
		dec.AddWarning("rar-m0-unverified")
	}

	return dec
}

func (a *Analyzer) poolWarning() string {
	if a.poolErr != nil {
		return fmt.Sprintf("nntp-error:%v", a.poolErr)
	}
	return "nntp-disabled"
}

// applyFinding classifies a finding's status onto the decision's
// blockers/warnings per the collapsed table in the data model.
func applyFinding(dec *domain.NZBDecision, status domain.ArchiveStatus) {
	if domain.IsStoredConfirmation(status) {
		return
	}
	if blocker, isBlocker := domain.ClassifyFinding(status); isBlocker {
		dec.AddBlocker(blocker)
		return
	}
	if status == domain.StatusSegmentError {
		dec.AddWarning("nntp-stat-error")
		return
	}
	dec.AddWarning(string(status))
}

// sampleBareSegments handles step 3's no-archive-candidates fallback:
// sample statSampleCount unique segments across every file and STAT them.
func (a *Analyzer) sampleBareSegments(ctx context.Context, doc *domain.NZBDocument, dec *domain.NZBDecision, rng *rand.Rand) {
	if a.pool == nil {
		dec.AddWarning(a.poolWarning())
		return
	}

	segs := sampleUnique(allSegments(doc), a.cfg.StatSampleCount, rng)
	for _, ref := range segs {
		finding := a.statSegment(ctx, ref.segment, ref.file.Filename, ref.file.Subject)
		dec.ArchiveFindings = append(dec.ArchiveFindings, finding)
		applyFinding(dec, finding.Status)
	}
}

// extraSampling broadens liveness evidence once a stored archive is
// confirmed: statSampleCount-1 more segments from the primary archive, then
// the first unchecked segment of up to archiveSampleCount other candidates.
func (a *Analyzer) extraSampling(ctx context.Context, primary domain.ArchiveCandidate, all []domain.ArchiveCandidate, checked map[*domain.NZBFile]map[string]struct{}, dec *domain.NZBDecision, rng *rand.Rand) {
	remaining := make([]segmentRef, 0, len(primary.File.Segments))
	for _, s := range primary.File.Segments {
		if _, done := checked[primary.File][s.ID]; done {
			continue
		}
		remaining = append(remaining, segmentRef{file: primary.File, segment: s})
	}

	extra := sampleUnique(remaining, a.cfg.StatSampleCount-1, rng)
	for _, ref := range extra {
		finding := a.statSegment(ctx, ref.segment, ref.file.Filename, ref.file.Subject)
		dec.ArchiveFindings = append(dec.ArchiveFindings, finding)
		applyFinding(dec, finding.Status)
	}

	sampled := 0
	for i := range all {
		if sampled >= a.cfg.ArchiveSampleCount {
			break
		}
		cand := all[i]
		if cand.File == primary.File || len(cand.File.Segments) == 0 {
			continue
		}
		seg := cand.File.Segments[0]
		if _, done := checked[cand.File][seg.ID]; done {
			continue
		}
		finding := a.statSegment(ctx, seg, cand.File.Filename, cand.File.Subject)
		dec.ArchiveFindings = append(dec.ArchiveFindings, finding)
		applyFinding(dec, finding.Status)
		sampled++
	}
}
