// Package txn implements the Transaction Manager spec.md §4.6 describes:
// a scoped `transaction(scope)` API built as a small state machine over a
// single pinned pool.Connection, plus nested savepoints and a manually
// managed non-scoped provider. It is the one package that mutates a
// pool.Connection's transaction binding.
package txn

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	sqldriver "github.com/sqlkit/sequel/driver"
	sqlerr "github.com/sqlkit/sequel/errors"
	"github.com/sqlkit/sequel/events"
	"github.com/sqlkit/sequel/pool"
)

// state names the nodes of the state machine spec.md §4.6 draws.
type state int

const (
	idle state = iota
	open
	committed
	rolledBack
)

// Config carries BEGIN-time options (spec.md §4.6 "readOnly and
// isolationLevel are issued as part of BEGIN/SET TRANSACTION per dialect").
type Config struct {
	Isolation sql.IsolationLevel
	ReadOnly  bool
	// DoNotRejectOnRollback controls whether a rollback without an explicit
	// scope error resolves Run's return value as nil or surfaces
	// ErrRolledBack (spec.md §4.6).
	DoNotRejectOnRollback bool
}

// ErrRolledBack is returned by Run when the scope completed without error
// but an explicit Rollback call inside it rolled the transaction back, and
// cfg.DoNotRejectOnRollback is false. A RollbackToSavepoint leaves the
// transaction open and does not trigger it.
var ErrRolledBack = sqlerr.New(sqlerr.Transaction, "transaction: rolled back")

// Manager opens and supervises transactions against one pool.
type Manager struct {
	Pool    *pool.Pool
	Adapter sqldriver.Adapter
	Bus     *events.Bus
}

// New builds a Manager. bus may be nil, falling back to the default sink.
func New(p *pool.Pool, adapter sqldriver.Adapter, bus *events.Bus) *Manager {
	if bus == nil {
		bus = events.NewBus()
	}
	return &Manager{Pool: p, Adapter: adapter, Bus: bus}
}

// Tx is the handle a scope or a transaction-provider caller manipulates: a
// single BEGIN'd sql.Tx pinned to one pool.Connection, plus the savepoint
// depth counter spec.md §4.6's nested-transaction diagram tracks.
type Tx struct {
	mu    sync.Mutex
	st    state
	tx    *sql.Tx
	conn  *pool.Connection
	mgr   *Manager
	txID  string
	depth int
}

// Source adapts Tx into a runner.Source so queries run inside it reuse the
// same pinned connection (spec.md §3 invariant 2).
func (t *Tx) Source() *txSource { return &txSource{t} }

type txSource struct{ t *Tx }

func (s *txSource) Acquire(context.Context) (sqldriver.Execer, string, string, func(), error) {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	if s.t.st != open {
		return nil, "", "", nil, sqlerr.New(sqlerr.Transaction, "transaction: use of closed handle")
	}
	return s.t.tx, s.t.conn.UID, s.t.txID, func() {}, nil
}

// Begin opens a transaction on a freshly acquired connection and returns
// the manually-managed handle spec.md §4.6's "Transaction provider"
// describes: the caller must call Commit or Rollback themselves.
func (m *Manager) Begin(ctx context.Context, cfg Config) (*Tx, error) {
	conn, err := m.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	sqlTx, err := m.Adapter.BeginTransaction(ctx, conn.Conn, sqldriver.TxConfig{Isolation: cfg.Isolation, ReadOnly: cfg.ReadOnly})
	if err != nil {
		m.Pool.Release(conn)
		return nil, err
	}
	conn.BindTx(conn.UID)
	t := &Tx{st: open, tx: sqlTx, conn: conn, mgr: m, txID: conn.UID}
	m.Bus.Emit(events.Event{Kind: events.Start, UID: conn.UID, TxID: t.txID, Method: "begin"})
	return t, nil
}

// Commit commits the transaction and releases its connection back to the
// pool. Calling Commit on an already-resolved handle is an error.
func (t *Tx) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.st != open {
		return sqlerr.New(sqlerr.Transaction, "transaction: commit of non-open handle")
	}
	err := t.mgr.Adapter.Commit(t.tx)
	t.st = committed
	t.conn.BindTx("")
	t.mgr.Pool.Release(t.conn)
	return err
}

// Rollback rolls the whole transaction back (depth 0; a nested savepoint
// rollback goes through RollbackToSavepoint instead) and releases its
// connection.
func (t *Tx) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.st != open {
		return sqlerr.New(sqlerr.Transaction, "transaction: rollback of non-open handle")
	}
	err := t.mgr.Adapter.Rollback(t.tx)
	t.st = rolledBack
	t.conn.BindTx("")
	t.mgr.Pool.Release(t.conn)
	return err
}

// Savepoint pushes a nested savepoint (spec.md §4.6's `open
// --savepoint(n)--> open (depth += 1)` transition) and returns its name,
// which the caller passes back to Release or RollbackTo.
func (t *Tx) Savepoint(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.st != open {
		return "", sqlerr.New(sqlerr.Transaction, "transaction: savepoint on non-open handle")
	}
	depth := t.conn.SavepointDepth(1)
	name := fmt.Sprintf("sp_%d", depth)
	if err := t.mgr.Adapter.Savepoint(ctx, t.tx, name); err != nil {
		t.conn.SavepointDepth(-1)
		return "", err
	}
	return name, nil
}

// ReleaseSavepoint commits a nested savepoint's work (depth -= 1).
func (t *Tx) ReleaseSavepoint(ctx context.Context, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.mgr.Adapter.ReleaseSavepoint(ctx, t.tx, name); err != nil {
		return err
	}
	t.conn.SavepointDepth(-1)
	return nil
}

// RollbackToSavepoint reverts only the nested work since name was opened
// (spec.md §4.6 "Nested transactions": "a savepoint's rollback reverts
// only its nested work"), leaving the outer transaction open.
func (t *Tx) RollbackToSavepoint(ctx context.Context, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.mgr.Adapter.RollbackToSavepoint(ctx, t.tx, name); err != nil {
		return err
	}
	t.conn.SavepointDepth(-1)
	return nil
}

// Scope is the callback Run invokes with an open Tx. Returning a non-nil
// error rolls the transaction back; returning nil commits it. A scope may
// also call t.Rollback itself (e.g. after catching and swallowing its own
// error) and return nil — Run detects that the handle already resolved
// and skips the redundant commit.
type Scope func(ctx context.Context, t *Tx) error

// Run implements spec.md §4.6's "Scoped transaction": acquire, BEGIN,
// invoke scope, COMMIT on success or ROLLBACK on failure/panic. A panic
// inside scope is recovered just long enough to roll back, then re-panics
// — the caller's panic is never swallowed.
func (m *Manager) Run(ctx context.Context, cfg Config, scope Scope) (err error) {
	t, err := m.Begin(ctx, cfg)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			t.mu.Lock()
			stillOpen := t.st == open
			t.mu.Unlock()
			if stillOpen {
				_ = t.Rollback()
			}
			panic(p)
		}
	}()

	scopeErr := scope(ctx, t)

	t.mu.Lock()
	st := t.st
	t.mu.Unlock()

	if st != open {
		// The scope already resolved the handle itself (explicit
		// Commit/Rollback inside scope).
		if st == rolledBack && scopeErr == nil && !cfg.DoNotRejectOnRollback {
			return ErrRolledBack
		}
		return scopeErr
	}

	if scopeErr != nil {
		if rerr := t.Rollback(); rerr != nil {
			return rerr
		}
		return scopeErr
	}
	return t.Commit()
}
