package domain

import "testing"

import "github.com/stretchr/testify/require"

func TestIsStoredConfirmation(t *testing.T) {
	cases := []struct {
		status ArchiveStatus
		want   bool
	}{
		{StatusRarStored, true},
		{StatusSevenZipStored, true},
		{StatusSegmentOK, true},
		{StatusRarCompressed, false},
		{StatusStatMissing, false},
	}
	for _, c := range cases {
		require.Equal(t, c.want, IsStoredConfirmation(c.status), c.status)
	}
}

func TestClassifyFinding(t *testing.T) {
	cases := []struct {
		status      ArchiveStatus
		wantBlocker string
		wantIsOne   bool
	}{
		{StatusRarEncrypted, "rar-encrypted", true},
		{StatusRarSolid, "rar-solid", true},
		{StatusRarCompressed, "rar-compressed", true},
		{StatusStatMissing, "missing-articles", true},
		{StatusBodyMissing, "missing-articles", true},
		{StatusSegmentMissing, "missing-articles", true},
		{StatusBodyError, "", false},
		{StatusDecodeError, "", false},
		{StatusRarStored, "", false},
	}
	for _, c := range cases {
		blocker, isBlocker := ClassifyFinding(c.status)
		require.Equal(t, c.wantIsOne, isBlocker, c.status)
		require.Equal(t, c.wantBlocker, blocker, c.status)
	}
}
