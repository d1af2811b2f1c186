// Package sequel is the facade spec.md §2 calls the "Knex instance": it
// resolves a Config into a registered Dialect, opens a pooled connection,
// and ties query.Builder, compile.Compile, driver.Adapter, pool.Pool,
// runner.Runner, and txn.Manager together behind a small Client API.
package sequel

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sqlkit/sequel/compile"
	"github.com/sqlkit/sequel/dialect"
	sqldriver "github.com/sqlkit/sequel/driver"
	sqlerr "github.com/sqlkit/sequel/errors"
	"github.com/sqlkit/sequel/events"
	"github.com/sqlkit/sequel/pool"
	"github.com/sqlkit/sequel/query"
	"github.com/sqlkit/sequel/runner"
	"github.com/sqlkit/sequel/txn"
	"github.com/sqlkit/sequel/value"
)

// Client is the entry point an application holds for the lifetime of the
// process, analogous to a single knex(config) instance.
type Client struct {
	cfg     Config
	dialect dialect.Dialect
	adapter sqldriver.Adapter
	db      *sql.DB
	pool    *pool.Pool
	runner  *runner.Runner
	txns    *txn.Manager
	bus     *events.Bus
}

// New resolves cfg.Client to a registered dialect, opens cfg.Connection,
// and wires a Client ready to compile and run queries.
func New(cfg Config) (*Client, error) {
	d, err := dialect.Get(cfg.Client)
	if err != nil {
		return nil, err
	}
	if cfg.WrapIdentifier != nil {
		d = wrapIdentifierDialect{Dialect: d, wrap: cfg.WrapIdentifier}
	}
	adapter := sqldriver.New(d)

	db, err := adapter.Open(cfg.Connection)
	if err != nil {
		return nil, err
	}

	bus := events.NewBus()
	poolCfg := cfg.Pool.toPoolConfig()
	if cfg.AcquireConnectionTimeoutMS > 0 {
		poolCfg.AcquireTimeout = time.Duration(cfg.AcquireConnectionTimeoutMS) * time.Millisecond
	}
	p := pool.New(db, adapter, poolCfg)

	r := runner.New(adapter, bus)
	r.CompileSQLOnError = cfg.CompileSQLOnError

	c := &Client{
		cfg:     cfg,
		dialect: d,
		adapter: adapter,
		db:      db,
		pool:    p,
		runner:  r,
		txns:    txn.New(p, adapter, bus),
		bus:     bus,
	}
	return c, nil
}

// wrapIdentifierDialect overrides QuoteIdentifier with a caller-supplied
// function (spec.md §6 "wrapIdentifier"), delegating everything else to
// the registered dialect it decorates.
type wrapIdentifierDialect struct {
	dialect.Dialect
	wrap func(segment string) string
}

func (w wrapIdentifierDialect) QuoteIdentifier(segment string) string {
	return w.Dialect.QuoteIdentifier(w.wrap(segment))
}

// Dialect exposes the resolved dialect, useful for callers assembling
// dialect-dependent DDL outside the query builder.
func (c *Client) Dialect() dialect.Dialect { return c.dialect }

// Pool exposes pool.Stats() for the testable invariants spec.md §8 names.
func (c *Client) Pool() *pool.Pool { return c.pool }

// Close shuts the underlying *sql.DB down. Any open transaction handles
// must be resolved by the caller first.
func (c *Client) Close() error { return c.db.Close() }

// Result is what Exec returns: a terminal shape the caller narrows further
// (Rows, First, Pluck, Scalar — see result.go).
type Result struct {
	Rows         []map[string]interface{}
	Affected     int64
	LastInsertID int64
	HasInsertID  bool
}

// compileBuilder renders b's current Statement against c's dialect,
// cloning first so the caller's Builder is left exactly as they built it
// (spec.md §3 invariant 5 — compiling never mutates).
func (c *Client) compileBuilder(b *query.Builder) (*compile.Compiled, error) {
	if err := b.Err(); err != nil {
		return nil, err
	}
	return compile.Compile(b.Clone().Statement(), c.dialect)
}

// Exec compiles and runs b against the pool, post-processing the outcome
// into a Result (spec.md §4.4 points 4-5: pluck/first/affected-count
// shaping is the caller's job on top of this, via the helpers in result.go).
// When cfg.Cache is set, a select statement's Result is served from cache
// on a repeat of the same rendered SQL + bindings instead of re-running it.
func (c *Client) Exec(ctx context.Context, b *query.Builder) (*Result, error) {
	compiled, err := c.compileBuilder(b)
	if err != nil {
		return nil, err
	}
	if c.cfg.Cache == nil || compiled.Method != "select" {
		return c.run(ctx, &runner.PoolSource{Pool: c.pool}, compiled, b.Statement().TimeoutMS, b.Statement().CancelOnStop)
	}

	key := cacheKey(compiled)
	if cached, ok := c.cfg.Cache.Get(key); ok {
		return cached, nil
	}
	res, err := c.run(ctx, &runner.PoolSource{Pool: c.pool}, compiled, b.Statement().TimeoutMS, b.Statement().CancelOnStop)
	if err != nil {
		return nil, err
	}
	c.cfg.Cache.Set(key, res)
	return res, nil
}

// cacheKey renders the compiled statement's SQL and bindings into the
// memoization key Config.Cache is looked up by.
func cacheKey(compiled *compile.Compiled) string {
	return fmt.Sprintf("%s|%v", compiled.SQL, compiled.Bindings)
}

// ExecIn runs b inside an open transaction handle instead of the pool,
// reusing its pinned connection (spec.md §3 invariant 2).
func (c *Client) ExecIn(ctx context.Context, t *txn.Tx, b *query.Builder) (*Result, error) {
	compiled, err := c.compileBuilder(b)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, t.Source(), compiled, b.Statement().TimeoutMS, b.Statement().CancelOnStop)
}

func (c *Client) run(ctx context.Context, src runner.Source, compiled *compile.Compiled, timeoutMS int, cancel bool) (*Result, error) {
	out, err := c.runner.Run(ctx, src, compiled, timeoutMS, cancel)
	if err != nil {
		return nil, err
	}

	res := &Result{Affected: out.Affected, LastInsertID: out.LastInsertID, HasInsertID: out.HasInsertID}
	if out.Rows == nil {
		return res, nil
	}

	rows, err := value.ScanRows(out.Rows)
	if err != nil {
		return nil, sqlerr.Wrap(sqlerr.Stream, err, "scanning result rows")
	}
	if c.cfg.PostProcessResponse != nil {
		for i, row := range rows {
			processed, err := c.cfg.PostProcessResponse(row)
			if err != nil {
				return nil, sqlerr.Wrap(sqlerr.Syntax, err, "postProcessResponse")
			}
			rows[i] = processed
		}
	}
	res.Rows = rows
	return res, nil
}

// Into compiles and runs b like Exec, but scans rows directly into dest (a
// pointer to a slice of db-tagged structs) via value.ScanRowsInto instead
// of building a map-based Result. Use this when a caller's struct declares
// value.Null* fields and wants NULL columns to scan straight into them,
// the way the teacher's own struct-scan layer consumed its Null* types.
func (c *Client) Into(ctx context.Context, b *query.Builder, dest interface{}) error {
	compiled, err := c.compileBuilder(b)
	if err != nil {
		return err
	}
	out, err := c.runner.Run(ctx, &runner.PoolSource{Pool: c.pool}, compiled, b.Statement().TimeoutMS, b.Statement().CancelOnStop)
	if err != nil {
		return err
	}
	if out.Rows == nil {
		return nil
	}
	return value.ScanRowsInto(out.Rows, dest)
}

// Stream runs b and forwards each row to sink as it arrives, without
// buffering the full result set (spec.md §4.4 "Streaming").
func (c *Client) Stream(ctx context.Context, b *query.Builder, sink sqldriver.RowSink) error {
	compiled, err := c.compileBuilder(b)
	if err != nil {
		return err
	}
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer c.pool.Release(conn)
	return c.adapter.Stream(ctx, conn.Conn, compiled, sink)
}

// Raw starts a raw SQL statement, matching spec.md §6's "core exposes a
// raw(sql, bindings) entry".
func (c *Client) Raw(sql string, bindings ...interface{}) *query.Builder {
	return query.RawQuery(sql, bindings...)
}

// Transaction runs scope inside a BEGIN/COMMIT-or-ROLLBACK scope (spec.md
// §4.6 "Scoped transaction").
func (c *Client) Transaction(ctx context.Context, cfg txn.Config, scope func(ctx context.Context, t *txn.Tx) error) error {
	return c.txns.Run(ctx, cfg, scope)
}

// Begin opens a manually-managed transaction handle (spec.md §4.6
// "Transaction provider"): the caller must call t.Commit() or t.Rollback().
func (c *Client) Begin(ctx context.Context, cfg txn.Config) (*txn.Tx, error) {
	return c.txns.Begin(ctx, cfg)
}
