package domain

import (
	"context"
	"io"
)

// ServerConfig describes one NNTP article store the pool can connect to.
type ServerConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	TLS         bool
	Connections int
	ConnTimeout int // milliseconds
}

// NNTPClient is the capability interface the pool hands out. It abstracts
// the wire transport behind connect/stat/body/quit so the pool never talks
// textproto directly. Implementations map to the chosen transport library;
// socket-field error-listener wiring is an adapter-internal detail.
type NNTPClient interface {
	Stat(ctx context.Context, messageID string) error
	Body(ctx context.Context, messageID string) (io.ReadCloser, error)
	Quit() error
}

// PoolKey identifies a shared pool record; a mismatch forces rebuild.
type PoolKey string
