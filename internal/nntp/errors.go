package nntp

import (
	"strings"

	"nzbtriage/internal/domain"
)

// codeToError maps an NNTP response code (and, for STAT/BODY, its context)
// onto the tagged error the rest of the engine understands. 430 is the
// well-defined "missing article" outcome and never drops the client; the
// 400/500 series is a transport-level failure and does drop it.
func codeToError(op string, code int, msg string) *domain.TriageError {
	switch {
	case code == 430 || strings.Contains(msg, "430"):
		if op == "BODY" {
			return domain.NewTriageError(domain.ErrBodyMissing, false, msg)
		}
		return domain.NewTriageError(domain.ErrStatMissing, false, msg)
	case code >= 400:
		terr := domain.NewTriageError(domain.ErrBodyError, true, msg)
		terr.TransportOp = op
		return terr
	default:
		return nil
	}
}

// classifyTransportErr maps a raw transport error (timeouts, reset sockets)
// onto the corresponding ErrorKind; every case drops the client.
func classifyTransportErr(err error) *domain.TriageError {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "i/o timeout"):
		return domain.NewTriageError(domain.ErrTransportTimeout, true, msg)
	case strings.Contains(msg, "connection reset"):
		return domain.NewTriageError(domain.ErrTransportConnReset, true, msg)
	case strings.Contains(msg, "broken pipe"):
		return domain.NewTriageError(domain.ErrTransportBrokenPipe, true, msg)
	case strings.Contains(msg, "connection aborted") || strings.Contains(msg, "use of closed"):
		return domain.NewTriageError(domain.ErrTransportConnAbort, true, msg)
	default:
		return domain.NewTriageError(domain.ErrBodyError, true, msg)
	}
}
