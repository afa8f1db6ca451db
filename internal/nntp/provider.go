package nntp

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"time"

	"nzbtriage/internal/domain"
)

// client is the wire-level NNTP session: dial, AUTHINFO, STAT, BODY, QUIT
// over net/textproto. It implements domain.NNTPClient, the capability the
// pool hands out.
type client struct {
	cfg  domain.ServerConfig
	conn *textproto.Conn
	raw  net.Conn
}

// dial opens and authenticates one NNTP session.
func dial(cfg domain.ServerConfig) (*client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	dialTimeout := 10 * time.Second
	if cfg.ConnTimeout > 0 {
		dialTimeout = time.Duration(cfg.ConnTimeout) * time.Millisecond
	}

	var raw net.Conn
	var err error
	if cfg.TLS {
		d := &net.Dialer{Timeout: dialTimeout}
		raw, err = tls.DialWithDialer(d, "tcp", addr, &tls.Config{
			ServerName: cfg.Host,
			MinVersion: tls.VersionTLS12,
		})
	} else {
		raw, err = net.DialTimeout("tcp", addr, dialTimeout)
	}
	if err != nil {
		return nil, err
	}

	c := &client{cfg: cfg, conn: textproto.NewConn(raw), raw: raw}

	if _, _, err := c.conn.ReadCodeLine(200); err != nil {
		if _, _, err2 := c.conn.ReadCodeLine(201); err2 != nil {
			c.conn.Close()
			return nil, err
		}
	}

	if err := c.authenticate(); err != nil {
		c.conn.Close()
		return nil, err
	}

	return c, nil
}

func (c *client) authenticate() error {
	if c.cfg.Username == "" {
		return nil
	}

	if _, err := c.conn.Cmd("AUTHINFO USER %s", c.cfg.Username); err != nil {
		return err
	}
	if _, _, err := c.conn.ReadCodeLine(381); err != nil {
		return err
	}

	if _, err := c.conn.Cmd("AUTHINFO PASS %s", c.cfg.Password); err != nil {
		return err
	}
	_, _, err := c.conn.ReadCodeLine(281)
	return err
}

func (c *client) withDeadline(ctx context.Context, d time.Duration) func() {
	deadline := time.Now().Add(d)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	c.raw.SetDeadline(deadline)
	return func() { c.raw.SetDeadline(time.Time{}) }
}

// Stat issues STAT <message-id> with a hard 5s timeout, per the pool's
// per-op timeout contract. Response codes and transport errors are mapped
// onto the tagged error shape.
func (c *client) Stat(ctx context.Context, messageID string) error {
	cancel := c.withDeadline(ctx, 5*time.Second)
	defer cancel()

	id := ensureAngleBrackets(messageID)
	if _, err := c.conn.Cmd("STAT %s", id); err != nil {
		if isTimeout(err) {
			return domain.NewTriageError(domain.ErrStatTimeout, true, err.Error())
		}
		return classifyTransportErr(err)
	}

	code, msg, err := c.conn.ReadCodeLine(0)
	if err != nil {
		if isTimeout(err) {
			return domain.NewTriageError(domain.ErrStatTimeout, true, err.Error())
		}
		if pe, ok := err.(*textproto.Error); ok {
			if terr := codeToError("STAT", pe.Code, pe.Msg); terr != nil {
				return terr
			}
		}
		return classifyTransportErr(err)
	}
	if code < 200 || code >= 300 {
		if terr := codeToError("STAT", code, msg); terr != nil {
			return terr
		}
	}
	return nil
}

// Body issues BODY <message-id> and returns the dot-stuffed body reader.
// There is no per-call timeout beyond the transport; an empty body is
// reported as BODY_ERROR once the caller reads it.
func (c *client) Body(ctx context.Context, messageID string) (io.ReadCloser, error) {
	c.raw.SetReadDeadline(time.Time{})
	if dl, ok := ctx.Deadline(); ok {
		c.raw.SetDeadline(dl)
	}

	id := ensureAngleBrackets(messageID)
	if _, err := c.conn.Cmd("BODY %s", id); err != nil {
		return nil, classifyTransportErr(err)
	}

	code, msg, err := c.conn.ReadCodeLine(222)
	if err != nil {
		if pe, ok := err.(*textproto.Error); ok {
			if terr := codeToError("BODY", pe.Code, pe.Msg); terr != nil {
				return nil, terr
			}
		}
		if terr := codeToError("BODY", code, msg); terr != nil {
			return nil, terr
		}
		return nil, classifyTransportErr(err)
	}

	return io.NopCloser(c.conn.DotReader()), nil
}

func (c *client) Quit() error {
	c.conn.Cmd("QUIT")
	return c.conn.Close()
}

func ensureAngleBrackets(id string) string {
	if len(id) > 0 && id[0] == '<' {
		return id
	}
	return "<" + id + ">"
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
