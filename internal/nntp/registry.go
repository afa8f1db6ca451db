package nntp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"nzbtriage/internal/domain"
	"nzbtriage/internal/logger"
)

const staleIdleThreshold = 5 * time.Minute

// Registry owns the at-most-one shared pool record for a process. Unlike
// the original module-scope singleton, it is a value the top-level engine
// constructs once and passes down — nothing here is a package-level
// global except the registry's own fields, which are themselves just an
// explicit state owner.
type Registry struct {
	mu      sync.Mutex
	key     domain.PoolKey
	pool    *Pool
	keepMs  int
	log     *logger.Logger
	pending chan struct{} // non-nil while a build is in flight
}

func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{log: log}
}

// Key hashes the connection parameters that identify a shared pool record;
// a mismatch against the registry's current key forces rebuild.
func Key(cfg domain.ServerConfig, size int, keepAliveMs int) domain.PoolKey {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%s|%t|%d|%d", cfg.Host, cfg.Port, cfg.Username, cfg.TLS, size, keepAliveMs)
	return domain.PoolKey(hex.EncodeToString(h.Sum(nil)))
}

// Acquire returns the shared pool for cfg, reusing it when reuse is true,
// the key matches, and it is not stale; otherwise it closes any stale
// record and builds a new one. Concurrent callers building the same key
// coalesce onto a single in-flight build.
func (r *Registry) Acquire(ctx context.Context, cfg domain.ServerConfig, size, keepAliveMs int, reuse bool) (*Pool, error) {
	key := Key(cfg, size, keepAliveMs)

	for {
		r.mu.Lock()
		if reuse && r.pool != nil && r.key == key && !r.isStaleLocked() {
			p := r.pool
			r.mu.Unlock()
			p.Touch()
			return p, nil
		}

		if r.pending != nil {
			ch := r.pending
			r.mu.Unlock()
			select {
			case <-ch:
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if r.pool != nil {
			old := r.pool
			r.pool = nil
			r.mu.Unlock()
			old.Close()
			r.mu.Lock()
		}

		pending := make(chan struct{})
		r.pending = pending
		r.mu.Unlock()

		p, err := New(ctx, cfg, size, keepAliveMs, r.log)

		r.mu.Lock()
		r.pending = nil
		close(pending)
		if err == nil {
			r.pool = p
			r.key = key
			r.keepMs = keepAliveMs
		}
		r.mu.Unlock()

		return p, err
	}
}

// isStaleLocked implements: no triage activity in the last 5 minutes AND
// (now - lastUsed >= 5 minutes OR lastUsed unknown). Must be called with
// r.mu held.
func (r *Registry) isStaleLocked() bool {
	if r.pool == nil {
		return true
	}
	lastUsed := r.pool.LastUsed()
	if lastUsed.IsZero() {
		return true
	}
	return time.Since(lastUsed) >= staleIdleThreshold
}

// PreWarm opens the shared pool idempotently; concurrent callers coalesce
// onto the same in-flight build via Acquire.
func (r *Registry) PreWarm(ctx context.Context, cfg domain.ServerConfig, size, keepAliveMs int) error {
	_, err := r.Acquire(ctx, cfg, size, keepAliveMs, true)
	return err
}

// Close tears down the shared pool, if any.
func (r *Registry) Close() {
	r.mu.Lock()
	p := r.pool
	r.pool = nil
	r.mu.Unlock()
	if p != nil {
		p.Close()
	}
}
