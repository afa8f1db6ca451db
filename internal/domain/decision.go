package domain

// Decision is either "accept" or "reject". Invariant: Decision == Accept
// iff Blockers is empty.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// NZBDecision is the Analyzer's per-NZB verdict.
type NZBDecision struct {
	Decision        Decision
	Blockers        map[string]struct{}
	Warnings        map[string]struct{}
	FileCount       int
	NZBTitle        string
	NZBIndex        int
	ArchiveFindings []ArchiveFinding
}

// AddBlocker records a blocker and flips Decision to reject.
func (d *NZBDecision) AddBlocker(name string) {
	if d.Blockers == nil {
		d.Blockers = make(map[string]struct{})
	}
	d.Blockers[name] = struct{}{}
	d.Decision = DecisionReject
}

// AddWarning records a non-fatal warning.
func (d *NZBDecision) AddWarning(name string) {
	if d.Warnings == nil {
		d.Warnings = make(map[string]struct{})
	}
	d.Warnings[name] = struct{}{}
}

func (d *NZBDecision) blockerList() []string {
	out := make([]string, 0, len(d.Blockers))
	for b := range d.Blockers {
		out = append(out, b)
	}
	return out
}

func (d *NZBDecision) warningList() []string {
	out := make([]string, 0, len(d.Warnings))
	for w := range d.Warnings {
		out = append(out, w)
	}
	return out
}

// SummaryStatus is the closed set of outcomes surfaced in a CandidateSummary.
type SummaryStatus string

const (
	SummaryVerified   SummaryStatus = "verified"
	SummaryUnverified SummaryStatus = "unverified"
	SummaryBlocked    SummaryStatus = "blocked"
	SummaryFetchError SummaryStatus = "fetch-error"
	SummarySkipped    SummaryStatus = "skipped"
	SummaryPending    SummaryStatus = "pending"
	SummaryError      SummaryStatus = "error"
)

// CandidateSummary is the Runner's per-candidate output.
type CandidateSummary struct {
	Status          SummaryStatus
	Blockers        []string
	Warnings        []string
	NZBIndex        *int
	FileCount       *int
	ArchiveFindings []ArchiveFinding
	Title           string
	NormalizedTitle string
	IndexerID       string
	IndexerName     string
}

// SummarizeDecision maps a settled NZBDecision onto a CandidateSummary,
// applying the verified/unverified/blocked classification from the data
// model: verified requires an accept decision plus at least one finding
// confirming a stored archive or a live segment.
func SummarizeDecision(dec *NZBDecision) CandidateSummary {
	s := CandidateSummary{
		Blockers:        dec.blockerList(),
		Warnings:        dec.warningList(),
		NZBIndex:        intPtr(dec.NZBIndex),
		FileCount:       intPtr(dec.FileCount),
		ArchiveFindings: dec.ArchiveFindings,
		Title:           dec.NZBTitle,
	}

	if dec.Decision == DecisionReject {
		s.Status = SummaryBlocked
		return s
	}

	for _, f := range dec.ArchiveFindings {
		if IsStoredConfirmation(f.Status) {
			s.Status = SummaryVerified
			return s
		}
	}
	s.Status = SummaryUnverified
	return s
}

func intPtr(v int) *int { return &v }
