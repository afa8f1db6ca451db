package domain

import (
	"regexp"
	"strings"
)

// NZBDocument is a parsed NZB manifest: an ordered sequence of files.
type NZBDocument struct {
	Title string
	Files []NZBFile
}

// NZBFile is one <file> element: a subject line and its segments.
type NZBFile struct {
	Subject   string
	Filename  string // derived from Subject, may be empty
	Extension string // lowercased suffix after the last dot, may be empty
	Groups    []string
	Segments  []Segment
}

// Segment is one <segment> element: a message-id fragment of a file.
type Segment struct {
	Number int
	Bytes  int64
	ID     string // NNTP message-id, stored without angle brackets
}

// TotalSize sums the declared segment sizes.
func (f *NZBFile) TotalSize() int64 {
	var total int64
	for _, s := range f.Segments {
		total += s.Bytes
	}
	return total
}

var rarPartExt = regexp.MustCompile(`^r\d{2}$`)

// IsArchiveExtension reports whether ext (already lowercased, no leading dot)
// belongs to the closed archive-candidate set {.rar, .r00-.r99, .7z}.
func IsArchiveExtension(ext string) bool {
	if ext == "7z" || ext == "rar" {
		return true
	}
	return rarPartExt.MatchString(ext)
}

var (
	partSuffixRe = regexp.MustCompile(`\.part\d+\.rar$`)
	rNNSuffixRe  = regexp.MustCompile(`\.r\d{2}$`)
)

// CanonicalArchiveKey collapses multi-volume naming so that all volumes of
// the same archive dedupe onto one candidate. It lowercases the filename and
// collapses ".partNNN.rar" and ".rNN" suffixes to ".rar". The function is
// idempotent: CanonicalArchiveKey(CanonicalArchiveKey(x)) == CanonicalArchiveKey(x).
func CanonicalArchiveKey(filename string) string {
	key := strings.ToLower(filename)
	key = partSuffixRe.ReplaceAllString(key, ".rar")
	key = rNNSuffixRe.ReplaceAllString(key, ".rar")
	return key
}

// ArchiveCandidate is an NZBFile selected as a representative archive volume,
// deduplicated within an NZBDocument by CanonicalArchiveKey.
type ArchiveCandidate struct {
	File         *NZBFile
	CanonicalKey string
}
