// Package nntp owns the long-lived, authenticated connection pool the
// analyzer borrows clients from, plus the wire-level session underneath it.
// The pool is the only shared, long-lived, mutable component in the
// engine: its acquire/release/keep-alive/replacement state lives on one
// explicit struct guarded by a single mutex, not in a web of closures.
package nntp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"nzbtriage/internal/domain"
	"nzbtriage/internal/logger"
)

const (
	idleKeepAliveInterval = 30 * time.Second
	idleKeepAliveTimeout  = 6 * time.Second
)

// idleEntry pairs an idle client with the cancel channel for its 30s
// keep-alive timer goroutine.
type idleEntry struct {
	c    *client
	stop chan struct{}
}

// waiter is a pending Acquire call; it receives exactly one result.
type waiter struct {
	result chan acquireResult
}

type acquireResult struct {
	c   *client
	err error
}

// Pool is the explicit state owner behind acquire/release/keep-alive/
// replacement. Every mutation happens under mu; timers reference the pool
// by pointer and the client they were armed for, never by closing over
// mutable pool fields directly.
type Pool struct {
	cfg         domain.ServerConfig
	size        int
	keepAliveMs int
	log         *logger.Logger

	mu           sync.Mutex
	idle         []idleEntry
	waiters      []waiter
	allClients   map[*client]struct{}
	closing      bool
	lastUsed     time.Time
	lastActivity time.Time

	rotateStop chan struct{}
	rotateWG   sync.WaitGroup
}

// New opens size authenticated sessions concurrently. If any fails, the
// successes are closed and the failure is surfaced — the pool either comes
// up fully warm or not at all.
func New(ctx context.Context, cfg domain.ServerConfig, size int, keepAliveMs int, log *logger.Logger) (*Pool, error) {
	if size < 1 {
		size = 1
	}

	type dialResult struct {
		c   *client
		err error
	}
	results := make(chan dialResult, size)
	for i := 0; i < size; i++ {
		go func() {
			c, err := dial(cfg)
			results <- dialResult{c, err}
		}()
	}

	clients := make([]*client, 0, size)
	var firstErr error
	for i := 0; i < size; i++ {
		r := <-results
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		clients = append(clients, r.c)
	}

	if firstErr != nil {
		for _, c := range clients {
			c.Quit()
		}
		return nil, fmt.Errorf("nntp pool: %w", firstErr)
	}

	p := &Pool{
		cfg:          cfg,
		size:         size,
		keepAliveMs:  keepAliveMs,
		log:          log,
		allClients:   make(map[*client]struct{}, size),
		lastUsed:     time.Now(),
		lastActivity: time.Now(),
		rotateStop:   make(chan struct{}),
	}

	for _, c := range clients {
		p.allClients[c] = struct{}{}
		p.idle = append(p.idle, p.armIdle(c))
	}

	if keepAliveMs > 0 {
		p.rotateWG.Add(1)
		go p.rotateLoop()
	}

	return p, nil
}

// TotalCapacity is the configured connection count.
func (p *Pool) TotalCapacity() int { return p.size }

// Acquire pops an idle client, or blocks on a FIFO waiter until one is
// released or the pool closes.
func (p *Pool) Acquire(ctx context.Context) (domain.NNTPClient, error) {
	p.mu.Lock()
	p.touchLocked()

	if p.closing {
		p.mu.Unlock()
		return nil, fmt.Errorf("nntp pool is closed")
	}

	if n := len(p.idle); n > 0 {
		entry := p.idle[n-1]
		p.idle = p.idle[:n-1]
		close(entry.stop)
		p.mu.Unlock()
		return entry.c, nil
	}

	w := waiter{result: make(chan acquireResult, 1)}
	p.waiters = append(p.waiters, w)
	p.mu.Unlock()

	select {
	case r := <-w.result:
		return r.c, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a client to the pool. If drop is set (the client failed
// transport-fatally or timed out a STAT), it is closed and a replacement is
// built asynchronously instead.
func (p *Pool) Release(c domain.NNTPClient, drop bool) {
	cl, ok := c.(*client)
	if !ok || cl == nil {
		return
	}

	p.mu.Lock()
	p.touchLocked()

	if drop {
		delete(p.allClients, cl)
		p.mu.Unlock()
		cl.Quit()
		p.replace()
		return
	}

	if n := len(p.waiters); n > 0 {
		w := p.waiters[0]
		p.waiters = p.waiters[1:]
		p.mu.Unlock()
		w.result <- acquireResult{c: cl}
		return
	}

	entry := p.armIdle(cl)
	p.idle = append(p.idle, entry)
	p.mu.Unlock()
}

// Close cancels every keep-alive timer, resolves waiters with a closed
// error, and closes every member client.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closing {
		p.mu.Unlock()
		return
	}
	p.closing = true
	close(p.rotateStop)

	for _, entry := range p.idle {
		close(entry.stop)
	}
	idle := p.idle
	p.idle = nil

	waiters := p.waiters
	p.waiters = nil

	all := p.allClients
	p.allClients = make(map[*client]struct{})
	p.mu.Unlock()

	for _, w := range waiters {
		w.result <- acquireResult{err: fmt.Errorf("nntp pool closed")}
	}
	_ = idle
	for c := range all {
		c.Quit()
	}
	p.rotateWG.Wait()
}

// Touch records pool activity, used by the registry's staleness check.
func (p *Pool) Touch() {
	p.mu.Lock()
	p.touchLocked()
	p.mu.Unlock()
}

func (p *Pool) touchLocked() {
	p.lastUsed = time.Now()
	p.lastActivity = time.Now()
}

// LastUsed backs the registry's staleness policy.
func (p *Pool) LastUsed() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastUsed
}

// armIdle starts the 30s idle keep-alive timer for c and returns the entry
// tracking its cancel channel.
func (p *Pool) armIdle(c *client) idleEntry {
	stop := make(chan struct{})
	go func() {
		t := time.NewTimer(idleKeepAliveInterval)
		defer t.Stop()
		select {
		case <-stop:
			return
		case <-t.C:
			p.probeIdle(c)
		}
	}()
	return idleEntry{c: c, stop: stop}
}

// probeIdle fires the synthetic-message-id STAT keep-alive: either a
// success or a 430 is fine, anything else removes the client and triggers
// replacement.
func (p *Pool) probeIdle(c *client) {
	ctx, cancel := context.WithTimeout(context.Background(), idleKeepAliveTimeout)
	defer cancel()

	msgID := fmt.Sprintf("keepalive-%d-%s@invalid", time.Now().UnixNano(), uuid.NewString())
	err := c.Stat(ctx, msgID)

	p.mu.Lock()
	if p.closing {
		p.mu.Unlock()
		return
	}
	if err != nil {
		if terr, ok := err.(*domain.TriageError); ok && domain.IsMissingArticle(terr) {
			// Expected: the probe id does not exist. Re-arm while idle.
			for i, e := range p.idle {
				if e.c == c {
					p.idle[i] = p.armIdle(c)
					p.mu.Unlock()
					return
				}
			}
			p.mu.Unlock()
			return
		}

		for i, e := range p.idle {
			if e.c == c {
				p.idle = append(p.idle[:i], p.idle[i+1:]...)
				break
			}
		}
		delete(p.allClients, c)
		p.mu.Unlock()
		if p.log != nil {
			p.log.Warn("nntp keepalive failed, replacing client: %v", err)
		}
		c.Quit()
		p.replace()
		return
	}

	for i, e := range p.idle {
		if e.c == c {
			p.idle[i] = p.armIdle(c)
			break
		}
	}
	p.mu.Unlock()
}

// replace builds one new authenticated client, retrying every 1s on
// failure, and routes it to a waiter if one is queued, else to idle.
func (p *Pool) replace() {
	go func() {
		var nc *client
		err := retry.Do(
			func() error {
				c, err := dial(p.cfg)
				if err != nil {
					return err
				}
				nc = c
				return nil
			},
			retry.Delay(1*time.Second),
			retry.Attempts(0),
			retry.DelayType(retry.FixedDelay),
		)

		p.mu.Lock()
		if p.closing {
			p.mu.Unlock()
			if err == nil && nc != nil {
				nc.Quit()
			}
			return
		}
		if err != nil {
			p.mu.Unlock()
			return
		}

		p.allClients[nc] = struct{}{}
		if n := len(p.waiters); n > 0 {
			w := p.waiters[0]
			p.waiters = p.waiters[1:]
			p.mu.Unlock()
			w.result <- acquireResult{c: nc}
			return
		}
		p.idle = append(p.idle, p.armIdle(nc))
		p.mu.Unlock()
	}()
}

// rotateLoop implements the second keep-alive mechanism: every keepAliveMs,
// proactively rotate one idle client, unless the pool has been idle, has
// waiters, or was used more recently than keepAliveMs ago.
func (p *Pool) rotateLoop() {
	defer p.rotateWG.Done()
	interval := time.Duration(p.keepAliveMs) * time.Millisecond
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-p.rotateStop:
			return
		case <-t.C:
			p.maybeRotate(interval)
		}
	}
}

func (p *Pool) maybeRotate(interval time.Duration) {
	p.mu.Lock()
	if p.closing || len(p.waiters) > 0 || len(p.idle) == 0 {
		p.mu.Unlock()
		return
	}
	if time.Since(p.lastActivity) > 5*time.Minute {
		p.mu.Unlock()
		return
	}
	if time.Since(p.lastUsed) < interval {
		p.mu.Unlock()
		return
	}

	entry := p.idle[0]
	p.idle = p.idle[1:]
	close(entry.stop)
	delete(p.allClients, entry.c)
	p.mu.Unlock()

	entry.c.Quit()
	p.replace()
}
