// Package nzbxml parses untrusted NZB documents and derives the filename
// and extension metadata the Triage Analyzer needs, without ever resolving
// external entities.
package nzbxml

import (
	"bytes"
	"encoding/xml"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"nzbtriage/internal/domain"
)

// xmlNZB, xmlFile, xmlSegment are the raw wire shapes decoded from the NZB
// XML. Unknown attributes are ignored by encoding/xml by default.
type xmlNZB struct {
	XMLName xml.Name  `xml:"nzb"`
	Head    xmlHead   `xml:"head"`
	Files   []xmlFile `xml:"file"`
}

type xmlHead struct {
	Metas []xmlMeta `xml:"meta"`
}

type xmlMeta struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type xmlFile struct {
	Subject  string       `xml:"subject,attr"`
	Groups   []string     `xml:"groups>group"`
	Segments []xmlSegment `xml:"segments>segment"`
}

type xmlSegment struct {
	Number    int    `xml:"number,attr"`
	Bytes     int64  `xml:"bytes,attr"`
	MessageID string `xml:",chardata"`
}

// Parse decodes r as an NZB document. The decoder is never asked to resolve
// external entities or DTDs: encoding/xml does not support XXE by default,
// which satisfies the "non-resolving, non-expanding" contract for this
// untrusted input.
func Parse(r io.Reader) (*domain.NZBDocument, error) {
	var raw xmlNZB
	dec := xml.NewDecoder(r)
	dec.Strict = false
	// NZBs commonly declare iso-8859-1. Input that is valid UTF-8 is passed
	// through as is; anything else is read as Latin-1, byte for code point.
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		data, err := io.ReadAll(input)
		if err != nil || utf8.Valid(data) {
			return bytes.NewReader(data), err
		}
		runes := make([]rune, len(data))
		for i, b := range data {
			runes[i] = rune(b)
		}
		return strings.NewReader(string(runes)), nil
	}
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	doc := &domain.NZBDocument{}
	for _, m := range raw.Head.Metas {
		if strings.EqualFold(m.Type, "title") {
			doc.Title = strings.TrimSpace(m.Value)
			break
		}
	}

	for _, f := range raw.Files {
		nf := domain.NZBFile{
			Subject: strings.TrimSpace(f.Subject),
			Groups:  f.Groups,
		}
		for _, s := range f.Segments {
			nf.Segments = append(nf.Segments, domain.Segment{
				Number: s.Number,
				Bytes:  s.Bytes,
				ID:     strings.Trim(strings.TrimSpace(s.MessageID), "<>"),
			})
		}
		nf.Filename, nf.Extension = DeriveFilename(nf.Subject)
		doc.Files = append(doc.Files, nf)
	}

	return doc, nil
}

// filenamePattern matches a bare filename ending in one of the extensions
// the analyzer cares about, used as the fallback when no quoted substring
// is present in the subject line.
var filenamePattern = regexp.MustCompile(`(?i)[\w\-.()\[\]]+\.(rar|r\d{2}|7z|par2|sfv|nfo|mkv|mp4|avi|mov|wmv)`)

// DeriveFilename extracts a filename and its lowercased extension from an
// NZB subject line: first the first double-quoted substring, else the
// first regex match of a recognized filename shape, else ("", "").
func DeriveFilename(subject string) (filename, extension string) {
	if first := strings.Index(subject, `"`); first != -1 {
		if n := strings.Index(subject[first+1:], `"`); n != -1 {
			filename = subject[first+1 : first+1+n]
		}
	}
	if filename == "" {
		filename = filenamePattern.FindString(subject)
	}
	if filename == "" {
		return "", ""
	}
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	return filename, strings.ToLower(ext)
}
