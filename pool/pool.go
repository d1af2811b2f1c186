// Package pool implements the bounded connection pool spec.md §4.5
// describes: idle connections held LIFO for cache locality, acquire
// either reusing an idle connection, creating a new one up to max, or
// queueing a waiter bounded by an acquire timeout. The pool is the only
// piece of mutable shared state in this module (spec.md §5); every other
// package's state is per-builder or per-call.
package pool

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	sqldriver "github.com/sqlkit/sequel/driver"
	sqlerr "github.com/sqlkit/sequel/errors"
)

// Config mirrors spec.md §4.5's pool parameter set.
type Config struct {
	Min                  int
	Max                  int
	IdleTimeout          time.Duration
	AcquireTimeout       time.Duration
	CreateTimeout        time.Duration
	DestroyTimeout       time.Duration
	CreateRetryInterval  time.Duration
	PropagateCreateError bool
	AfterCreate          func(ctx context.Context, conn *Connection) error
}

func (c Config) withDefaults() Config {
	if c.Max <= 0 {
		c.Max = 10
	}
	if c.AcquireTimeout <= 0 {
		c.AcquireTimeout = 30 * time.Second
	}
	if c.CreateTimeout <= 0 {
		c.CreateTimeout = 30 * time.Second
	}
	if c.DestroyTimeout <= 0 {
		c.DestroyTimeout = 5 * time.Second
	}
	if c.CreateRetryInterval <= 0 {
		c.CreateRetryInterval = 200 * time.Millisecond
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 30 * time.Second
	}
	return c
}

// Connection is the process-unique handle spec.md §3 describes: a raw
// *sql.Conn plus a UID for logging and, once bound to a transaction, a
// TxID and a savepoint depth.
type Connection struct {
	UID  string
	Conn *sql.Conn

	mu       sync.Mutex
	txID     string
	txDepth  int
	lastIdle time.Time
}

// TxID reports the transaction this connection is pinned to, "" if none.
func (c *Connection) TxID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.txID
}

// BindTx pins conn to a transaction id, or clears the binding when id == "".
func (c *Connection) BindTx(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txID = id
	if id == "" {
		c.txDepth = 0
	}
}

// SavepointDepth returns and, via the delta, adjusts the nested-savepoint
// reference count spec.md §3 "Connection" mentions.
func (c *Connection) SavepointDepth(delta int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txDepth += delta
	return c.txDepth
}

// Pool is the bounded resource pool spec.md §4.5 specifies.
type Pool struct {
	adapter sqldriver.Adapter
	db      *sql.DB
	cfg     Config

	mu      sync.Mutex
	idle    []*Connection // LIFO: append/pop from the tail
	inUse   map[string]*Connection
	waiters []chan acquireResult
	sem     *semaphore.Weighted

	reaperGroup  *errgroup.Group
	reaperCancel context.CancelFunc
}

type acquireResult struct {
	conn *Connection
	err  error
}

// New builds a Pool bound to db via adapter, ready to serve Acquire calls.
// It does not pre-create Min connections; that happens lazily on the
// first acquires, matching the teacher's MustPing-on-demand style rather
// than an eager warmup (simpler, and min is rarely > 0 in practice).
func New(db *sql.DB, adapter sqldriver.Adapter, cfg Config) *Pool {
	cfg = cfg.withDefaults()
	p := &Pool{
		adapter: adapter,
		db:      db,
		cfg:     cfg,
		inUse:   make(map[string]*Connection),
		sem:     semaphore.NewWeighted(int64(cfg.Max)),
	}
	return p
}

// Stats reports idle/inUse/waiter counts so spec.md §8's pool invariants
// (`in_use + idle <= max`, `len(waiters) == 0 when in_use < max`) can be
// asserted directly in tests.
type Stats struct {
	Idle    int
	InUse   int
	Waiters int
}

func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{Idle: len(p.idle), InUse: len(p.inUse), Waiters: len(p.waiters)}
}

// Acquire returns an idle connection, creates one when the semaphore has a
// free slot (fewer than Max live connections; the slot is taken without
// blocking), or otherwise waits in FIFO order for a release, bounded by
// cfg.AcquireTimeout.
func (p *Pool) Acquire(ctx context.Context) (*Connection, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.AcquireTimeout)
	defer cancel()

	if conn, ok := p.popIdle(); ok {
		if p.adapter.ValidateConnection(ctx, conn.Conn) {
			p.markInUse(conn)
			return conn, nil
		}
		p.destroy(conn)
	}

	if p.sem.TryAcquire(1) {
		conn, err := p.create(ctx)
		if err != nil {
			p.sem.Release(1)
			if p.cfg.PropagateCreateError {
				return nil, err
			}
			return p.waitForRelease(ctx)
		}
		p.markInUse(conn)
		return conn, nil
	}

	return p.waitForRelease(ctx)
}

// waitForRelease enqueues a FIFO waiter and blocks until Release hands it
// a connection, the context is cancelled, or AcquireTimeout elapses.
func (p *Pool) waitForRelease(ctx context.Context) (*Connection, error) {
	ch := make(chan acquireResult, 1)
	p.mu.Lock()
	p.waiters = append(p.waiters, ch)
	p.mu.Unlock()

	select {
	case res := <-ch:
		return res.conn, res.err
	case <-ctx.Done():
		return nil, sqlerr.Wrap(sqlerr.Timeout, ctx.Err(), "pool: acquire timed out")
	}
}

func (p *Pool) create(ctx context.Context) (*Connection, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.CreateTimeout)
	defer cancel()

	var raw *sql.Conn
	op := func() error {
		c, err := p.adapter.AcquireRawConnection(ctx, p.db)
		if err != nil {
			return err
		}
		raw = c
		return nil
	}
	policy := backoff.WithContext(backoff.NewConstantBackOff(p.cfg.CreateRetryInterval), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, sqlerr.Wrap(sqlerr.Connection, err, "pool: creating connection")
	}

	conn := &Connection{UID: uuid.NewString(), Conn: raw}
	if p.cfg.AfterCreate != nil {
		if err := p.cfg.AfterCreate(ctx, conn); err != nil {
			_ = p.adapter.DestroyRawConnection(raw)
			return nil, sqlerr.Wrap(sqlerr.Connection, err, "pool: afterCreate hook")
		}
	}
	return conn, nil
}

func (p *Pool) popIdle() (*Connection, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.idle) == 0 {
		return nil, false
	}
	conn := p.idle[len(p.idle)-1]
	p.idle = p.idle[:len(p.idle)-1]
	return conn, true
}

func (p *Pool) markInUse(conn *Connection) {
	p.mu.Lock()
	p.inUse[conn.UID] = conn
	p.mu.Unlock()
}

// Release returns conn to an idle waiter (if one is queued) or the idle
// set. A transaction-bound connection must never be released while its
// transaction is open (spec.md §3 invariant 2); callers enforce that by
// only calling Release once the transaction has committed or rolled back.
func (p *Pool) Release(conn *Connection) {
	conn.BindTx("")

	p.mu.Lock()
	delete(p.inUse, conn.UID)
	if len(p.waiters) > 0 {
		ch := p.waiters[0]
		p.waiters = p.waiters[1:]
		p.inUse[conn.UID] = conn
		p.mu.Unlock()
		ch <- acquireResult{conn: conn}
		return
	}
	conn.lastIdle = idleStamp()
	p.idle = append(p.idle, conn)
	p.mu.Unlock()
}

// destroy tears conn down and releases its semaphore slot, without
// returning it to idle or to a waiter.
func (p *Pool) destroy(conn *Connection) {
	_ = p.adapter.DestroyRawConnection(conn.Conn)
	p.sem.Release(1)
}

// Destroy removes conn from the pool entirely (used when validation fails
// after use, or the caller explicitly discards a connection).
func (p *Pool) Destroy(conn *Connection) {
	p.mu.Lock()
	delete(p.inUse, conn.UID)
	p.mu.Unlock()
	p.destroy(conn)
}

// StartReaper launches the idle-connection reaper as a managed goroutine,
// evicting idle connections past cfg.IdleTimeout while keeping at least
// Min alive (spec.md §4.5 "Eviction"). It stops when ctx is cancelled or
// when the returned stop func is called; stop also waits for it to exit.
func (p *Pool) StartReaper(ctx context.Context) (stop func() error) {
	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(p.cfg.IdleTimeout / 2)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				p.reapIdle()
			}
		}
	})
	p.reaperGroup = g
	p.reaperCancel = cancel
	return func() error {
		cancel()
		return g.Wait()
	}
}

func (p *Pool) reapIdle() {
	p.mu.Lock()
	cutoff := idleStamp().Add(-p.cfg.IdleTimeout)
	kept := p.idle[:0]
	var evicted []*Connection
	for _, c := range p.idle {
		if c.lastIdle.Before(cutoff) && len(kept)+len(p.inUse) >= p.cfg.Min {
			evicted = append(evicted, c)
			continue
		}
		kept = append(kept, c)
	}
	p.idle = kept
	p.mu.Unlock()

	for _, c := range evicted {
		p.destroy(c)
	}
}

// idleStamp is the pool's only use of wall-clock time outside caller-
// supplied contexts, isolated so tests can monkey with it if ever needed.
var idleStamp = time.Now

// WaitForConnectivity pings db with an exponential backoff until it
// succeeds or ctx is done, for callers that want to block process startup
// until the database is reachable rather than let the first Acquire fail.
func WaitForConnectivity(ctx context.Context, db *sql.DB) error {
	op := func() error { return db.PingContext(ctx) }
	policy := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return sqlerr.Wrap(sqlerr.Connection, err, "pool: database unreachable")
	}
	return nil
}
