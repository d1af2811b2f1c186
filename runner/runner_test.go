package runner_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlkit/sequel/compile"
	sqldriver "github.com/sqlkit/sequel/driver"
	"github.com/sqlkit/sequel/events"
	"github.com/sqlkit/sequel/runner"
)

type fakeSource struct {
	ex       sqldriver.Execer
	released bool
	err      error
}

func (f *fakeSource) Acquire(context.Context) (sqldriver.Execer, string, string, func(), error) {
	if f.err != nil {
		return nil, "", "", nil, f.err
	}
	return f.ex, "conn-1", "", func() { f.released = true }, nil
}

type fakeAdapter struct {
	result *sqldriver.ExecResult
	err    error
	delay  time.Duration
}

func (a *fakeAdapter) Open(string) (*sql.DB, error) { return nil, nil }
func (a *fakeAdapter) AcquireRawConnection(context.Context, *sql.DB) (*sql.Conn, error) {
	return nil, nil
}
func (a *fakeAdapter) DestroyRawConnection(*sql.Conn) error   { return nil }
func (a *fakeAdapter) ValidateConnection(context.Context, *sql.Conn) bool { return true }

func (a *fakeAdapter) Execute(ctx context.Context, ex sqldriver.Execer, q *compile.Compiled) (*sqldriver.ExecResult, error) {
	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if a.err != nil {
		return nil, a.err
	}
	return a.result, nil
}
func (a *fakeAdapter) Stream(context.Context, sqldriver.Execer, *compile.Compiled, sqldriver.RowSink) error {
	return nil
}
func (a *fakeAdapter) BeginTransaction(context.Context, *sql.Conn, sqldriver.TxConfig) (*sql.Tx, error) {
	return nil, nil
}
func (a *fakeAdapter) Commit(*sql.Tx) error   { return nil }
func (a *fakeAdapter) Rollback(*sql.Tx) error { return nil }
func (a *fakeAdapter) Savepoint(context.Context, sqldriver.Execer, string) error { return nil }
func (a *fakeAdapter) ReleaseSavepoint(context.Context, sqldriver.Execer, string) error {
	return nil
}
func (a *fakeAdapter) RollbackToSavepoint(context.Context, sqldriver.Execer, string) error {
	return nil
}

type fakeResult struct {
	affected, lastID int64
}

func (r fakeResult) LastInsertId() (int64, error) { return r.lastID, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.affected, nil }

func TestRunReturnsAffectedAndInsertID(t *testing.T) {
	adapter := &fakeAdapter{result: &sqldriver.ExecResult{SQLResult: fakeResult{affected: 1, lastID: 42}}}
	var captured []events.Event
	bus := events.NewBus(func(e events.Event) { captured = append(captured, e) })
	r := runner.New(adapter, bus)

	src := &fakeSource{}
	out, err := r.Run(context.Background(), src, &compile.Compiled{Method: "insert", SQL: "insert into x"}, 0, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Affected)
	assert.True(t, out.HasInsertID)
	assert.Equal(t, int64(42), out.LastInsertID)
	assert.True(t, src.released, "the source's release func must run")

	var kinds []events.Kind
	for _, e := range captured {
		kinds = append(kinds, e.Kind)
	}
	assert.Contains(t, kinds, events.Query)
	assert.Contains(t, kinds, events.QueryResponse)
}

func TestRunPropagatesAcquireError(t *testing.T) {
	adapter := &fakeAdapter{}
	src := &fakeSource{err: errors.New("pool exhausted")}
	r := runner.New(adapter, nil)

	_, err := r.Run(context.Background(), src, &compile.Compiled{SQL: "select 1"}, 0, false)
	assert.Error(t, err)
}

func TestRunDecoratesExecuteErrorAndEmitsQueryError(t *testing.T) {
	adapter := &fakeAdapter{err: errors.New("syntax error")}
	var captured []events.Event
	bus := events.NewBus(func(e events.Event) { captured = append(captured, e) })
	r := runner.New(adapter, bus)

	_, err := r.Run(context.Background(), &fakeSource{}, &compile.Compiled{SQL: "select bad"}, 0, false)
	require.Error(t, err)

	var sawErr bool
	for _, e := range captured {
		if e.Kind == events.QueryError {
			sawErr = true
		}
	}
	assert.True(t, sawErr)
}

func TestRunAppliesTimeoutAndSurfacesContextDeadline(t *testing.T) {
	adapter := &fakeAdapter{delay: 50 * time.Millisecond}
	r := runner.New(adapter, nil)

	_, err := r.Run(context.Background(), &fakeSource{}, &compile.Compiled{SQL: "select pg_sleep(1)"}, 5, true)
	assert.Error(t, err)
}

func TestPoolSourceAndTxSourceSatisfyRunnerSource(t *testing.T) {
	var _ runner.Source = (*runner.PoolSource)(nil)
	var _ runner.Source = (*runner.TxSource)(nil)
}
