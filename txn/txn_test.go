package txn_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlkit/sequel/dialect"
	sqldriver "github.com/sqlkit/sequel/driver"
	"github.com/sqlkit/sequel/pool"
	"github.com/sqlkit/sequel/txn"
)

// newManager wires a Manager against a real in-memory SQLite database via
// the genuine driver.Adapter, so Begin/Commit/Rollback/Savepoint exercise
// actual BEGIN/SAVEPOINT/COMMIT statements rather than a hand-rolled fake.
func newManager(t *testing.T) *txn.Manager {
	t.Helper()
	d, err := dialect.Get("sqlite")
	require.NoError(t, err)
	a := sqldriver.New(d)

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	p := pool.New(db, a, pool.Config{Max: 1, AcquireTimeout: 2 * time.Second})
	return txn.New(p, a, nil)
}

func TestBeginCommitReleasesConnection(t *testing.T) {
	mgr := newManager(t)
	tx, err := mgr.Begin(context.Background(), txn.Config{})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.Equal(t, 1, mgr.Pool.Stats().Idle)
}

func TestCommitOfNonOpenHandleErrors(t *testing.T) {
	mgr := newManager(t)
	tx, err := mgr.Begin(context.Background(), txn.Config{})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.Error(t, tx.Commit())
}

func TestRollbackReleasesConnection(t *testing.T) {
	mgr := newManager(t)
	tx, err := mgr.Begin(context.Background(), txn.Config{})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
	assert.Equal(t, 1, mgr.Pool.Stats().Idle)
}

func TestSavepointLifecycle(t *testing.T) {
	mgr := newManager(t)
	tx, err := mgr.Begin(context.Background(), txn.Config{})
	require.NoError(t, err)
	defer tx.Rollback()

	name, err := tx.Savepoint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sp_1", name)

	require.NoError(t, tx.ReleaseSavepoint(context.Background(), name))
}

func TestNestedSavepointNaming(t *testing.T) {
	mgr := newManager(t)
	tx, err := mgr.Begin(context.Background(), txn.Config{})
	require.NoError(t, err)
	defer tx.Rollback()

	sp1, err := tx.Savepoint(context.Background())
	require.NoError(t, err)
	sp2, err := tx.Savepoint(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, sp1, sp2)

	require.NoError(t, tx.RollbackToSavepoint(context.Background(), sp2))
	require.NoError(t, tx.ReleaseSavepoint(context.Background(), sp1))
}

func TestRunCommitsOnSuccess(t *testing.T) {
	mgr := newManager(t)
	err := mgr.Run(context.Background(), txn.Config{}, func(ctx context.Context, tx *txn.Tx) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, mgr.Pool.Stats().Idle)
}

func TestRunRollsBackOnScopeError(t *testing.T) {
	mgr := newManager(t)
	boom := assert.AnError
	err := mgr.Run(context.Background(), txn.Config{}, func(ctx context.Context, tx *txn.Tx) error {
		return boom
	})
	assert.Equal(t, boom, err)
}

func TestRunHonorsExplicitInScopeRollback(t *testing.T) {
	mgr := newManager(t)
	err := mgr.Run(context.Background(), txn.Config{}, func(ctx context.Context, tx *txn.Tx) error {
		return tx.Rollback()
	})
	assert.ErrorIs(t, err, txn.ErrRolledBack)
}

func TestRunDoNotRejectOnRollbackSuppressesSentinel(t *testing.T) {
	mgr := newManager(t)
	err := mgr.Run(context.Background(), txn.Config{DoNotRejectOnRollback: true}, func(ctx context.Context, tx *txn.Tx) error {
		return tx.Rollback()
	})
	assert.NoError(t, err)
}

func TestRunRepanicsAfterRollingBack(t *testing.T) {
	mgr := newManager(t)
	assert.Panics(t, func() {
		_ = mgr.Run(context.Background(), txn.Config{}, func(ctx context.Context, tx *txn.Tx) error {
			panic("boom")
		})
	})
	assert.Equal(t, 1, mgr.Pool.Stats().Idle, "the panicking scope's connection must still be released")
}

func TestTxSourceRejectsUseAfterClose(t *testing.T) {
	mgr := newManager(t)
	tx, err := mgr.Begin(context.Background(), txn.Config{})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	_, _, _, _, err = tx.Source().Acquire(context.Background())
	assert.Error(t, err)
}
