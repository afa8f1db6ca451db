package domain

import "testing"

import "github.com/stretchr/testify/require"

func TestIsArchiveExtension(t *testing.T) {
	require.True(t, IsArchiveExtension("rar"))
	require.True(t, IsArchiveExtension("7z"))
	require.True(t, IsArchiveExtension("r00"))
	require.True(t, IsArchiveExtension("r99"))
	require.False(t, IsArchiveExtension("nfo"))
	require.False(t, IsArchiveExtension("mkv"))
	require.False(t, IsArchiveExtension(""))
}

func TestCanonicalArchiveKeyCollapsesVolumes(t *testing.T) {
	require.Equal(t, "movie.rar", CanonicalArchiveKey("Movie.rar"))
	require.Equal(t, "movie.rar", CanonicalArchiveKey("movie.r01"))
	require.Equal(t, "movie.rar", CanonicalArchiveKey("Movie.part003.rar"))
}

func TestCanonicalArchiveKeyIsIdempotent(t *testing.T) {
	inputs := []string{"movie.rar", "Movie.part012.rar", "movie.r07", "plain.7z", "weird..name.r5"}
	for _, in := range inputs {
		once := CanonicalArchiveKey(in)
		twice := CanonicalArchiveKey(once)
		require.Equal(t, once, twice, in)
	}
}

func TestTotalSize(t *testing.T) {
	f := NZBFile{Segments: []Segment{{Bytes: 100}, {Bytes: 250}, {Bytes: 1}}}
	require.Equal(t, int64(351), f.TotalSize())
}
