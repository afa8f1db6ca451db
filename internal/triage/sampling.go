package triage

import (
	"math/rand"

	"nzbtriage/internal/domain"
)

// segmentRef locates a segment within an NZB document for sampling.
type segmentRef struct {
	file    *domain.NZBFile
	segment domain.Segment
}

// allSegments flattens every segment across every file in input order.
func allSegments(doc *domain.NZBDocument) []segmentRef {
	var out []segmentRef
	for i := range doc.Files {
		f := &doc.Files[i]
		for _, s := range f.Segments {
			out = append(out, segmentRef{file: f, segment: s})
		}
	}
	return out
}

// sampleUnique picks up to k distinct segments from pool uniformly without
// replacement, preserving relative order for reproducible-looking output.
func sampleUnique(pool []segmentRef, k int, rng *rand.Rand) []segmentRef {
	if k <= 0 || len(pool) == 0 {
		return nil
	}
	if k >= len(pool) {
		return append([]segmentRef(nil), pool...)
	}

	idx := rng.Perm(len(pool))[:k]
	chosen := make(map[int]struct{}, k)
	for _, i := range idx {
		chosen[i] = struct{}{}
	}

	out := make([]segmentRef, 0, k)
	for i, s := range pool {
		if _, ok := chosen[i]; ok {
			out = append(out, s)
		}
	}
	return out
}
