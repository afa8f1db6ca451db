package nzbxml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleNZB = `<?xml version="1.0" encoding="iso-8859-1"?>
<!DOCTYPE nzb PUBLIC "-//newzBin//DTD NZB 1.1//EN" "http://www.newzbin.com/DTD/nzb/nzb-1.1.dtd">
<nzb xmlns="http://www.newzbin.com/DTD/2003/nzb">
  <head>
    <meta type="title">Some.Release.2024</meta>
  </head>
  <file subject='[1/2] - "movie.rar" yEnc (1/50)' poster="x" date="1">
    <groups><group>alt.binaries.test</group></groups>
    <segments>
      <segment bytes="500000" number="1">abc123@example</segment>
      <segment bytes="500000" number="2">def456@example</segment>
    </segments>
  </file>
  <file subject="loose subject with no quotes movie.r01 trailing" poster="x" date="1">
    <segments>
      <segment bytes="100" number="1">&lt;ghi789@example&gt;</segment>
    </segments>
  </file>
  <file subject="no filename here at all" poster="x" date="1">
    <segments></segments>
  </file>
</nzb>`

func TestParseExtractsTitleAndFiles(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleNZB))
	require.NoError(t, err)
	require.Equal(t, "Some.Release.2024", doc.Title)
	require.Len(t, doc.Files, 3)

	require.Equal(t, "movie.rar", doc.Files[0].Filename)
	require.Equal(t, "rar", doc.Files[0].Extension)
	require.Len(t, doc.Files[0].Segments, 2)
	require.Equal(t, "abc123@example", doc.Files[0].Segments[0].ID)

	require.Equal(t, "movie.r01", doc.Files[1].Filename)
	require.Equal(t, "r01", doc.Files[1].Extension)
	require.Equal(t, "ghi789@example", doc.Files[1].Segments[0].ID)

	require.Equal(t, "", doc.Files[2].Filename)
	require.Equal(t, "", doc.Files[2].Extension)
}

func TestDeriveFilenamePrefersQuotedSubstring(t *testing.T) {
	filename, ext := DeriveFilename(`[1/1] - "My Show S01E01.mkv" yEnc`)
	require.Equal(t, "My Show S01E01.mkv", filename)
	require.Equal(t, "mkv", ext)
}

func TestDeriveFilenameFallsBackToRegex(t *testing.T) {
	filename, ext := DeriveFilename("random text release.name.7z more text")
	require.Equal(t, "release.name.7z", filename)
	require.Equal(t, "7z", ext)
}

func TestDeriveFilenameNoMatch(t *testing.T) {
	filename, ext := DeriveFilename("nothing useful in this subject line")
	require.Equal(t, "", filename)
	require.Equal(t, "", ext)
}

func TestParseRejectsMalformedXML(t *testing.T) {
	_, err := Parse(strings.NewReader("<nzb><file"))
	require.Error(t, err)
}
