// Package runner implements the protocol spec.md §4.4 describes: acquire
// a connection (or reuse a transaction's), execute a compiled query
// through the driver adapter, post-process the result, and release. It is
// the only package that touches both compile.Compiled and pool.Connection.
package runner

import (
	"context"
	"database/sql"
	"time"

	"github.com/sqlkit/sequel/compile"
	sqldriver "github.com/sqlkit/sequel/driver"
	"github.com/sqlkit/sequel/errors"
	"github.com/sqlkit/sequel/events"
	"github.com/sqlkit/sequel/pool"
)

// LogQueriesThreshold is the duration past which a query is logged as
// slow, matching the teacher's sqlx-runner threshold knob.
var LogQueriesThreshold = 500 * time.Millisecond

// Source supplies the connection a Runner executes against: either the
// pool (a fresh acquire per call) or a transaction (the same pinned
// connection every time).
type Source interface {
	// Acquire returns the Execer to run against plus its uid/txId for
	// event payloads, and a release func to call when done (a pool-backed
	// Source releases the connection back to the pool; a transaction-
	// backed Source's release is a no-op — the transaction owns it).
	Acquire(ctx context.Context) (ex sqldriver.Execer, uid, txID string, release func(), err error)
}

// PoolSource adapts a *pool.Pool into a Source: every call acquires a
// fresh connection and releases it back on completion.
type PoolSource struct {
	Pool *pool.Pool
}

func (s *PoolSource) Acquire(ctx context.Context) (sqldriver.Execer, string, string, func(), error) {
	conn, err := s.Pool.Acquire(ctx)
	if err != nil {
		return nil, "", "", nil, err
	}
	return conn.Conn, conn.UID, conn.TxID(), func() { s.Pool.Release(conn) }, nil
}

// TxSource adapts an open *sql.Tx pinned to a connection into a Source:
// every call reuses the same Tx and never releases anything (spec.md §3
// invariant 2 — a transaction-bound connection is never returned to the
// pool while the transaction is open).
type TxSource struct {
	Tx   *sql.Tx
	UID  string
	TxID string
}

func (s *TxSource) Acquire(context.Context) (sqldriver.Execer, string, string, func(), error) {
	return s.Tx, s.UID, s.TxID, func() {}, nil
}

// Runner shepherds a compiled query from a Source through the driver
// Adapter to a post-processed result (spec.md §4.4).
type Runner struct {
	Adapter             sqldriver.Adapter
	Bus                 *events.Bus
	PostProcessResponse func(result interface{}, ctx interface{}) (interface{}, error)
	CompileSQLOnError   bool
}

// New builds a Runner. bus may be nil, in which case events.NewBus() (the
// default logxi sink) is used.
func New(adapter sqldriver.Adapter, bus *events.Bus) *Runner {
	if bus == nil {
		bus = events.NewBus()
	}
	return &Runner{Adapter: adapter, Bus: bus}
}

// Outcome is what Run returns before any row shaping: the caller (the
// root package's Client) scans Rows into a Result, on which the
// First/Pluck/Scalar helpers narrow it further.
type Outcome struct {
	Rows         *sql.Rows // select, or DML with native RETURNING
	Affected     int64
	LastInsertID int64
	HasInsertID  bool
}

// Run executes q against src, applying an optional per-call timeout
// (spec.md §5 "Cancellation"): cancel=true asks the driver to abort the
// in-flight statement by cancelling ctx, which every database/sql driver
// in this module's stack (pq, go-sql-driver/mysql, go-mssqldb, modernc
// sqlite) honors natively — there is no separate cancel hook to call.
func (r *Runner) Run(ctx context.Context, src Source, q *compile.Compiled, timeoutMS int, cancelOnTimeout bool) (*Outcome, error) {
	if timeoutMS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeoutMS)*time.Millisecond)
		defer cancel()
		if !cancelOnTimeout {
			// Detach: let the statement keep running server-side, but stop
			// waiting on it from here (spec.md §5's best-effort semantics).
			ctx = context.WithoutCancel(ctx)
		}
	}

	ex, uid, txID, release, err := src.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	r.Bus.Emit(events.Event{Kind: events.Query, UID: uid, TxID: txID, SQL: q.SQL, Bindings: q.Bindings, Method: q.Method})

	start := time.Now()
	res, err := r.Adapter.Execute(ctx, ex, q)
	elapsed := time.Since(start)

	if err != nil {
		derr := decorate(err, q.SQL, r.CompileSQLOnError)
		r.Bus.Emit(events.Event{Kind: events.QueryError, UID: uid, TxID: txID, SQL: q.SQL, Method: q.Method, Err: derr})
		return nil, derr
	}

	r.Bus.Emit(events.Event{Kind: events.QueryResponse, UID: uid, TxID: txID, SQL: q.SQL, Method: q.Method, Elapsed: elapsed})
	if elapsed > LogQueriesThreshold {
		r.Bus.Emit(events.Event{Kind: events.QueryResponse, UID: uid, TxID: txID, SQL: q.SQL, Method: "slow:" + q.Method, Elapsed: elapsed})
	}

	out := &Outcome{Rows: res.Rows}
	if res.SQLResult != nil {
		if n, aerr := res.SQLResult.RowsAffected(); aerr == nil {
			out.Affected = n
		}
		if id, ierr := res.SQLResult.LastInsertId(); ierr == nil {
			out.LastInsertID, out.HasInsertID = id, true
		}
	}
	return out, nil
}

func decorate(err error, sql string, compileSQLOnError bool) error {
	se, ok := err.(*errors.Error)
	if !ok {
		se = errors.Wrap(errors.Syntax, err, "%s", err.Error())
	}
	if compileSQLOnError {
		return se.WithSQL(sql)
	}
	return se
}
