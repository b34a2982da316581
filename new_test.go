package sqliteconn

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_DriverError(t *testing.T) {
	openErr := errors.New("driver not available")
	orig := sqlOpen
	sqlOpen = func(driverName, dsn string) (*sql.DB, error) {
		assert.Equal(t, "sqlite", driverName)
		return nil, openErr
	}
	t.Cleanup(func() { sqlOpen = orig })

	_, err := Open(context.Background())
	assert.ErrorIs(t, err, openErr)
}

func TestOpen_PingError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "app.db")
	_, err := Open(context.Background(), Options{Path: path})
	assert.Error(t, err)
}

func TestOpen_File(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "app.db")

	conn, err := Open(ctx, Options{
		Path:        path,
		JournalMode: "TRUNCATE",
		ForeignKeys: true,
		Logger:      newTestLogger(t),
	})
	require.NoError(t, err)
	assert.True(t, conn.IsReadWrite())

	fk, err := conn.QueryForLong(ctx, "PRAGMA foreign_keys")
	require.NoError(t, err)
	assert.Equal(t, int64(1), fk)

	_, err = conn.Update(ctx, createFoo, nil, nil)
	require.NoError(t, err)
	insertFoo(t, conn, "persisted", 1)
	require.NoError(t, conn.Close())

	ro, err := Open(ctx, Options{Path: path, ReadOnly: true, Logger: newTestLogger(t)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ro.Close() })
	assert.False(t, ro.IsReadWrite())

	n, err := ro.QueryForLong(ctx, "SELECT COUNT(*) FROM foo")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = ro.Insert(ctx, "INSERT INTO foo (name) VALUES ('x')", nil, nil, nil)
	assert.ErrorIs(t, err, &SQLError{})
}
