// Package driver implements the driver-adapter contract spec.md §6
// describes on top of database/sql: acquiring and validating raw
// connections, executing a compiled query, streaming rows, and shepherding
// transaction/savepoint lifecycle. Go's database/sql already normalizes
// most of what spec.md's JS-shaped contract asks for explicitly —
// `positionBindings` collapses into the dialect's own Placeholder
// rendering (package compile), and `prepBindings` collapses into
// database/sql/driver.Valuer, which value.Null* already implements — so
// this package only adds what's left: open/acquire/validate/execute/
// stream/tx, exactly as spec.md's contract lists them.
package driver

import (
	"context"
	"database/sql"

	"github.com/sqlkit/sequel/compile"
	"github.com/sqlkit/sequel/dialect"
	sqlerr "github.com/sqlkit/sequel/errors"
)

// Execer is satisfied by both *sql.Conn and *sql.Tx, letting Adapter
// methods run against either a bare connection or one pinned to a
// transaction without a type switch at every call site.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// ExecResult is what Execute returns: exactly one of Rows (select, or an
// insert/update/delete with RETURNING) or SQLResult (insert/update/delete
// without RETURNING) is populated.
type ExecResult struct {
	Rows      *sql.Rows
	SQLResult sql.Result
}

// RowSink receives rows from Stream one at a time. Back-pressure comes from
// Write blocking: the adapter pulls the next row only after Write returns.
// A non-nil error from Write aborts the stream, and Stream returns it
// wrapped as a Stream-kind error.
type RowSink interface {
	Write(cols []string, values []interface{}) error
}

// TxConfig carries BEGIN-time options (spec.md §4.6).
type TxConfig struct {
	Isolation sql.IsolationLevel
	ReadOnly  bool
}

// Adapter is the driver contract spec.md §6 lists, scoped to what this
// module needs from a database/sql driver.
type Adapter interface {
	// Open opens the underlying *sql.DB for dsn. Pool sizing is the pool
	// package's job (spec.md §4.5); Adapter never calls SetMaxOpenConns.
	Open(dsn string) (*sql.DB, error)

	// AcquireRawConnection pins one physical connection out of db's own
	// pool so the pool package can track and reuse it by identity
	// (spec.md §3 "Connection").
	AcquireRawConnection(ctx context.Context, db *sql.DB) (*sql.Conn, error)
	DestroyRawConnection(conn *sql.Conn) error
	ValidateConnection(ctx context.Context, conn *sql.Conn) bool

	Execute(ctx context.Context, ex Execer, q *compile.Compiled) (*ExecResult, error)
	Stream(ctx context.Context, ex Execer, q *compile.Compiled, sink RowSink) error

	BeginTransaction(ctx context.Context, conn *sql.Conn, cfg TxConfig) (*sql.Tx, error)
	Commit(tx *sql.Tx) error
	Rollback(tx *sql.Tx) error
	Savepoint(ctx context.Context, ex Execer, name string) error
	ReleaseSavepoint(ctx context.Context, ex Execer, name string) error
	RollbackToSavepoint(ctx context.Context, ex Execer, name string) error
}

// sqlAdapter is the one Adapter implementation every registered dialect
// shares: database/sql's query/exec/tx surface is identical across
// postgres/mysql/sqlite/mssql drivers, so only the savepoint statement
// syntax and the dialect's own error translator vary.
type sqlAdapter struct {
	d dialect.Dialect
}

// New builds the Adapter for a registered dialect.
func New(d dialect.Dialect) Adapter {
	return &sqlAdapter{d: d}
}

func (a *sqlAdapter) Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open(a.d.DriverName(), dsn)
	if err != nil {
		return nil, sqlerr.Wrap(sqlerr.Config, err, "opening %s connection", a.d.Name())
	}
	return db, nil
}

func (a *sqlAdapter) AcquireRawConnection(ctx context.Context, db *sql.DB) (*sql.Conn, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, a.d.TranslateError(err)
	}
	return conn, nil
}

func (a *sqlAdapter) DestroyRawConnection(conn *sql.Conn) error {
	if err := conn.Close(); err != nil {
		return a.d.TranslateError(err)
	}
	return nil
}

func (a *sqlAdapter) ValidateConnection(ctx context.Context, conn *sql.Conn) bool {
	return conn.PingContext(ctx) == nil
}

// Execute runs q.SQL/q.Bindings and returns rows or a result, per
// q.Method (spec.md §4.4 point 3).
func (a *sqlAdapter) Execute(ctx context.Context, ex Execer, q *compile.Compiled) (*ExecResult, error) {
	if q.Method == "select" || len(q.Returning) > 0 && !q.ReturningEmulated {
		rows, err := ex.QueryContext(ctx, q.SQL, q.Bindings...)
		if err != nil {
			return nil, a.d.TranslateError(err)
		}
		return &ExecResult{Rows: rows}, nil
	}
	res, err := ex.ExecContext(ctx, q.SQL, q.Bindings...)
	if err != nil {
		return nil, a.d.TranslateError(err)
	}
	return &ExecResult{SQLResult: res}, nil
}

// Stream opens a cursor via QueryContext and forwards rows to sink one at
// a time. database/sql's *sql.Rows already streams from the wire without
// buffering the full result set, so no driver-specific cursor API is
// needed (spec.md §4.4 "Streaming": "when the driver supports cursors").
func (a *sqlAdapter) Stream(ctx context.Context, ex Execer, q *compile.Compiled, sink RowSink) error {
	rows, err := ex.QueryContext(ctx, q.SQL, q.Bindings...)
	if err != nil {
		return a.d.TranslateError(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return sqlerr.Wrap(sqlerr.Stream, err, "reading column names")
	}

	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return sqlerr.Wrap(sqlerr.Stream, err, "scanning row")
		}
		if err := sink.Write(cols, values); err != nil {
			return sqlerr.Wrap(sqlerr.Stream, err, "sink rejected row")
		}
	}
	if err := rows.Err(); err != nil {
		return a.d.TranslateError(err)
	}
	return nil
}

func (a *sqlAdapter) BeginTransaction(ctx context.Context, conn *sql.Conn, cfg TxConfig) (*sql.Tx, error) {
	tx, err := conn.BeginTx(ctx, &sql.TxOptions{Isolation: cfg.Isolation, ReadOnly: cfg.ReadOnly})
	if err != nil {
		return nil, sqlerr.Wrap(sqlerr.Transaction, err, "BEGIN")
	}
	return tx, nil
}

func (a *sqlAdapter) Commit(tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		return sqlerr.Wrap(sqlerr.Transaction, err, "COMMIT")
	}
	return nil
}

func (a *sqlAdapter) Rollback(tx *sql.Tx) error {
	if err := tx.Rollback(); err != nil {
		return sqlerr.Wrap(sqlerr.Transaction, err, "ROLLBACK")
	}
	return nil
}

// Savepoint/ReleaseSavepoint/RollbackToSavepoint implement spec.md §4.6's
// nested-transaction model. MSSQL has no RELEASE SAVEPOINT statement — a
// savepoint there is only ever consumed by a matching rollback, so
// ReleaseSavepoint is a no-op rather than an error (spec.md leaves this an
// adapter hook; a no-op is the least surprising choice since the caller's
// scope still completes normally).
func (a *sqlAdapter) Savepoint(ctx context.Context, ex Execer, name string) error {
	sql := "SAVEPOINT " + a.d.QuoteIdentifier(name)
	if a.d.Name() == "mssql" {
		sql = "SAVE TRANSACTION " + a.d.QuoteIdentifier(name)
	}
	if _, err := ex.ExecContext(ctx, sql); err != nil {
		return a.d.TranslateError(err)
	}
	return nil
}

func (a *sqlAdapter) ReleaseSavepoint(ctx context.Context, ex Execer, name string) error {
	if a.d.Name() == "mssql" {
		return nil
	}
	sql := "RELEASE SAVEPOINT " + a.d.QuoteIdentifier(name)
	if _, err := ex.ExecContext(ctx, sql); err != nil {
		return a.d.TranslateError(err)
	}
	return nil
}

func (a *sqlAdapter) RollbackToSavepoint(ctx context.Context, ex Execer, name string) error {
	sql := "ROLLBACK TO SAVEPOINT " + a.d.QuoteIdentifier(name)
	if a.d.Name() == "mssql" {
		sql = "ROLLBACK TRANSACTION " + a.d.QuoteIdentifier(name)
	}
	if _, err := ex.ExecContext(ctx, sql); err != nil {
		return a.d.TranslateError(err)
	}
	return nil
}
