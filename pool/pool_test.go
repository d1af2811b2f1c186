package pool_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlkit/sequel/compile"
	sqldriver "github.com/sqlkit/sequel/driver"
	"github.com/sqlkit/sequel/pool"
)

// fakeAdapter satisfies driver.Adapter without exercising a dialect's own
// Execute/Stream/transaction logic (driver_test.go already covers that),
// handing Acquire a fresh *sql.Conn off a real in-memory SQLite database so
// the pool's bookkeeping runs against genuine *sql.Conn lifecycles.
type fakeAdapter struct {
	mu      sync.Mutex
	created int
	destroyed int
	valid   bool
}

func (f *fakeAdapter) Open(dsn string) (*sql.DB, error) { return sql.Open("sqlite", dsn) }

func (f *fakeAdapter) AcquireRawConnection(ctx context.Context, db *sql.DB) (*sql.Conn, error) {
	f.mu.Lock()
	f.created++
	f.mu.Unlock()
	return db.Conn(ctx)
}

func (f *fakeAdapter) DestroyRawConnection(conn *sql.Conn) error {
	f.mu.Lock()
	f.destroyed++
	f.mu.Unlock()
	return conn.Close()
}

func (f *fakeAdapter) ValidateConnection(ctx context.Context, conn *sql.Conn) bool { return true }

func (f *fakeAdapter) Execute(ctx context.Context, ex sqldriver.Execer, q *compile.Compiled) (*sqldriver.ExecResult, error) {
	return nil, nil
}
func (f *fakeAdapter) Stream(ctx context.Context, ex sqldriver.Execer, q *compile.Compiled, sink sqldriver.RowSink) error {
	return nil
}
func (f *fakeAdapter) BeginTransaction(ctx context.Context, conn *sql.Conn, cfg sqldriver.TxConfig) (*sql.Tx, error) {
	return nil, nil
}
func (f *fakeAdapter) Commit(tx *sql.Tx) error                                   { return nil }
func (f *fakeAdapter) Rollback(tx *sql.Tx) error                                 { return nil }
func (f *fakeAdapter) Savepoint(ctx context.Context, ex sqldriver.Execer, name string) error { return nil }
func (f *fakeAdapter) ReleaseSavepoint(ctx context.Context, ex sqldriver.Execer, name string) error {
	return nil
}
func (f *fakeAdapter) RollbackToSavepoint(ctx context.Context, ex sqldriver.Execer, name string) error {
	return nil
}

func TestPoolAcquireReleaseKeepsInvariant(t *testing.T) {
	db, err := sql.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	defer db.Close()

	adapter := &fakeAdapter{}
	p := pool.New(db, adapter, pool.Config{Max: 2, AcquireTimeout: time.Second})

	c1, err := p.Acquire(context.Background())
	require.NoError(t, err)
	stats := p.Stats()
	assert.Equal(t, 1, stats.InUse)
	assert.LessOrEqual(t, stats.InUse+stats.Idle, 2)

	p.Release(c1)
	stats = p.Stats()
	assert.Equal(t, 0, stats.InUse)
	assert.Equal(t, 1, stats.Idle)
}

func TestPoolReusesIdleConnectionBeforeCreatingNew(t *testing.T) {
	db, err := sql.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	defer db.Close()

	adapter := &fakeAdapter{}
	p := pool.New(db, adapter, pool.Config{Max: 2, AcquireTimeout: time.Second})

	c1, err := p.Acquire(context.Background())
	require.NoError(t, err)
	p.Release(c1)

	c2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, c1.UID, c2.UID, "idle connection should be reused rather than a new one created")
}

func TestPoolBlocksWaiterUntilRelease(t *testing.T) {
	db, err := sql.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	defer db.Close()

	adapter := &fakeAdapter{}
	p := pool.New(db, adapter, pool.Config{Max: 1, AcquireTimeout: 2 * time.Second})

	c1, err := p.Acquire(context.Background())
	require.NoError(t, err)

	var c2 *pool.Connection
	done := make(chan struct{})
	go func() {
		c2, err = p.Acquire(context.Background())
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	stats := p.Stats()
	assert.Equal(t, 1, stats.Waiters)

	p.Release(c1)
	<-done
	require.NoError(t, err)
	assert.Equal(t, c1.UID, c2.UID)
}

func TestPoolAcquireTimesOutWhenExhausted(t *testing.T) {
	db, err := sql.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	defer db.Close()

	adapter := &fakeAdapter{}
	p := pool.New(db, adapter, pool.Config{Max: 1, AcquireTimeout: 50 * time.Millisecond})

	_, err = p.Acquire(context.Background())
	require.NoError(t, err)

	_, err = p.Acquire(context.Background())
	assert.Error(t, err)
}

func TestPoolDestroyRemovesFromInUseWithoutIdling(t *testing.T) {
	db, err := sql.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	defer db.Close()

	adapter := &fakeAdapter{}
	p := pool.New(db, adapter, pool.Config{Max: 2, AcquireTimeout: time.Second})

	c1, err := p.Acquire(context.Background())
	require.NoError(t, err)
	p.Destroy(c1)

	stats := p.Stats()
	assert.Equal(t, 0, stats.InUse)
	assert.Equal(t, 0, stats.Idle)
}

func TestConnectionSavepointDepthAndTxBinding(t *testing.T) {
	c := &pool.Connection{UID: "x"}
	c.BindTx("tx-1")
	assert.Equal(t, "tx-1", c.TxID())
	assert.Equal(t, 1, c.SavepointDepth(1))
	assert.Equal(t, 2, c.SavepointDepth(1))
	assert.Equal(t, 1, c.SavepointDepth(-1))
	c.BindTx("")
	assert.Equal(t, 0, c.SavepointDepth(0))
}
