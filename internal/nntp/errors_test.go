package nntp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"nzbtriage/internal/domain"
)

func TestCodeToErrorMissingArticle(t *testing.T) {
	err := codeToError("STAT", 430, "430 No such article")
	require.NotNil(t, err)
	require.Equal(t, domain.ErrStatMissing, err.Kind)
	require.False(t, err.DropClient)

	err = codeToError("BODY", 430, "430 No such article")
	require.Equal(t, domain.ErrBodyMissing, err.Kind)
	require.False(t, err.DropClient)
}

func TestCodeToErrorTransportSeriesDropsClientButIsNotMissing(t *testing.T) {
	err := codeToError("STAT", 503, "503 internal server error")
	require.NotNil(t, err)
	require.Equal(t, domain.ErrBodyError, err.Kind)
	require.Equal(t, "STAT", err.TransportOp)
	require.True(t, err.DropClient)
	require.NotEqual(t, domain.ErrStatMissing, err.Kind)
}

func TestCodeToErrorSuccessIsNil(t *testing.T) {
	require.Nil(t, codeToError("STAT", 223, "223 0 <id>"))
}

func TestClassifyTransportErr(t *testing.T) {
	cases := []struct {
		msg  string
		kind domain.ErrorKind
	}{
		{"read tcp: i/o timeout", domain.ErrTransportTimeout},
		{"read: connection reset by peer", domain.ErrTransportConnReset},
		{"write: broken pipe", domain.ErrTransportBrokenPipe},
		{"use of closed network connection", domain.ErrTransportConnAbort},
		{"something else entirely", domain.ErrBodyError},
	}
	for _, c := range cases {
		terr := classifyTransportErr(errors.New(c.msg))
		require.Equal(t, c.kind, terr.Kind, c.msg)
		require.True(t, terr.DropClient, c.msg)
	}
}
