package sqliteconn

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newTestDatabase(t *testing.T) *SQLiteDatabase {
	t.Helper()
	ctx := context.Background()

	db, err := sql.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	handle, err := NewSQLiteDatabase(ctx, db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = handle.Close() })

	require.NoError(t, handle.Exec(ctx, createFoo))
	return handle
}

func countFoo(t *testing.T, d *SQLiteDatabase) int64 {
	t.Helper()
	stmt, err := d.CompileStatement(context.Background(), "SELECT COUNT(*) FROM foo")
	require.NoError(t, err)
	defer func() { _ = stmt.Close() }()

	n, err := stmt.SimpleQueryForLong(context.Background())
	require.NoError(t, err)
	return n
}

func TestSQLiteDatabase_NestedTransactions(t *testing.T) {
	tests := []struct {
		name      string
		innerOK   bool
		outerOK   bool
		wantCount int64
	}{
		{name: "both successful", innerOK: true, outerOK: true, wantCount: 1},
		{name: "inner failed", innerOK: false, outerOK: true, wantCount: 0},
		{name: "outer failed", innerOK: true, outerOK: false, wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			d := newTestDatabase(t)

			require.NoError(t, d.BeginTransaction(ctx))
			require.NoError(t, d.BeginTransaction(ctx))
			require.NoError(t, d.Exec(ctx, "INSERT INTO foo (name) VALUES ('x')"))
			if tt.innerOK {
				require.NoError(t, d.SetTransactionSuccessful())
			}
			require.NoError(t, d.EndTransaction(ctx))

			inTx, err := d.InTransaction()
			require.NoError(t, err)
			assert.True(t, inTx)

			if tt.outerOK {
				require.NoError(t, d.SetTransactionSuccessful())
			}
			require.NoError(t, d.EndTransaction(ctx))

			inTx, err = d.InTransaction()
			require.NoError(t, err)
			assert.False(t, inTx)
			assert.Equal(t, tt.wantCount, countFoo(t, d))
		})
	}
}

func TestSQLiteDatabase_TransactionMisuse(t *testing.T) {
	ctx := context.Background()
	d := newTestDatabase(t)

	assert.ErrorIs(t, d.EndTransaction(ctx), ErrNoTransaction)
	assert.ErrorIs(t, d.SetTransactionSuccessful(), ErrNoTransaction)

	require.NoError(t, d.BeginTransaction(ctx))
	require.NoError(t, d.SetTransactionSuccessful())
	assert.ErrorIs(t, d.SetTransactionSuccessful(), ErrTransactionMarked)
	require.NoError(t, d.EndTransaction(ctx))
}

func TestSQLiteDatabase_StatementBindings(t *testing.T) {
	ctx := context.Background()
	d := newTestDatabase(t)

	stmt, err := d.CompileStatement(ctx, "INSERT INTO foo (name, val, score, data) VALUES (?, ?, ?, ?)")
	require.NoError(t, err)
	stmt.BindString(1, "a")
	stmt.BindLong(2, 3)
	stmt.BindDouble(3, 1.5)
	stmt.BindBlob(4, []byte{0xff})
	id, err := stmt.ExecuteInsert(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	stmt.ClearBindings()
	stmt.BindString(1, "b")
	stmt.BindNull(2)
	stmt.BindNull(3)
	stmt.BindNull(4)
	id, err = stmt.ExecuteInsert(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)
	require.NoError(t, stmt.Close())

	sum, err := d.CompileStatement(ctx, "SELECT SUM(val) FROM foo WHERE name = ?")
	require.NoError(t, err)
	defer func() { _ = sum.Close() }()

	sum.BindString(1, "b")
	n, err := sum.SimpleQueryForLong(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "NULL reads as zero")

	sum.BindString(1, "a")
	n, err = sum.SimpleQueryForLong(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestSQLiteDatabase_ExecuteReportsRowsAffected(t *testing.T) {
	ctx := context.Background()
	d := newTestDatabase(t)
	require.NoError(t, d.Exec(ctx, "INSERT INTO foo (name) VALUES ('a'), ('b'), ('c')"))

	stmt, err := d.CompileStatement(ctx, "DELETE FROM foo WHERE name <> ?")
	require.NoError(t, err)
	defer func() { _ = stmt.Close() }()

	stmt.BindString(1, "a")
	n, err := stmt.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSQLiteDatabase_Closed(t *testing.T) {
	ctx := context.Background()
	d := newTestDatabase(t)

	assert.True(t, d.IsOpen())
	require.NoError(t, d.Close())
	assert.False(t, d.IsOpen())

	assert.ErrorIs(t, d.Close(), ErrDatabaseClosed)
	assert.ErrorIs(t, d.BeginTransaction(ctx), ErrDatabaseClosed)
	assert.ErrorIs(t, d.SetTransactionSuccessful(), ErrDatabaseClosed)
	assert.ErrorIs(t, d.EndTransaction(ctx), ErrDatabaseClosed)
	assert.ErrorIs(t, d.Exec(ctx, "SELECT 1"), ErrDatabaseClosed)

	_, err := d.InTransaction()
	assert.ErrorIs(t, err, ErrDatabaseClosed)
	_, err = d.CompileStatement(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrDatabaseClosed)
	_, err = d.RawQuery(ctx, "SELECT 1", nil)
	assert.ErrorIs(t, err, ErrDatabaseClosed)
}

func TestSQLiteDatabase_CloseWithOpenCursorInTransaction(t *testing.T) {
	ctx := context.Background()
	d := newTestDatabase(t)
	require.NoError(t, d.Exec(ctx, "INSERT INTO foo (name) VALUES ('a'), ('b')"))

	require.NoError(t, d.BeginTransaction(ctx))
	cursor, err := d.RawQuery(ctx, "SELECT name FROM foo", nil)
	require.NoError(t, err)
	require.True(t, cursor.Next())

	require.NoError(t, closeWithin(t, d.Close))
	assert.False(t, d.IsOpen())
	assert.NoError(t, cursor.Close())
}

func TestSQLiteDatabase_CursorCloseUnregisters(t *testing.T) {
	ctx := context.Background()
	d := newTestDatabase(t)

	cursor, err := d.RawQuery(ctx, "SELECT 1", nil)
	require.NoError(t, err)
	assert.Len(t, d.cursors, 1)

	require.NoError(t, cursor.Close())
	assert.Empty(t, d.cursors)
}
