package sqliteconn

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

const createFoo = `CREATE TABLE foo (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT,
	val INTEGER,
	score REAL,
	data BLOB
)`

// newTestLogger returns a logger that writes to t.Log().
// Logs only appear on test failure or when running with -v.
func newTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// openTestConnection opens an in-memory database with the foo table.
func openTestConnection(t *testing.T) *Connection {
	t.Helper()
	conn, err := Open(context.Background(), Options{Logger: newTestLogger(t)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Update(context.Background(), createFoo, nil, nil)
	require.NoError(t, err)
	return conn
}

// newMockConnection returns a connection over a sqlmock database matching
// statements exactly.
func newMockConnection(t *testing.T) (*Connection, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	handle, err := NewSQLiteDatabase(context.Background(), db)
	require.NoError(t, err)
	return NewConnection(handle, true, Options{Logger: newTestLogger(t)}), mock
}

func insertFoo(t *testing.T, conn *Connection, name string, val int64) int64 {
	t.Helper()
	keys := &KeyHolder{}
	_, err := conn.Insert(context.Background(),
		"INSERT INTO foo (name, val) VALUES (?, ?)",
		[]any{name, val}, FieldTypes(String, Long), keys)
	require.NoError(t, err)
	return keys.Last().(int64)
}

// recordingStmt is a Statement that records bindings and executes nothing.
type recordingStmt struct {
	bound    map[int]any
	nulls    []int
	executed int
	closed   bool
}

func newRecordingStmt() *recordingStmt {
	return &recordingStmt{bound: make(map[int]any)}
}

func (s *recordingStmt) BindNull(index int) {
	s.nulls = append(s.nulls, index)
	s.bound[index] = nil
}
func (s *recordingStmt) BindString(index int, value string)  { s.bound[index] = value }
func (s *recordingStmt) BindLong(index int, value int64)     { s.bound[index] = value }
func (s *recordingStmt) BindDouble(index int, value float64) { s.bound[index] = value }
func (s *recordingStmt) BindBlob(index int, value []byte)    { s.bound[index] = value }
func (s *recordingStmt) ClearBindings()                      { s.bound = make(map[int]any) }

func (s *recordingStmt) Execute(ctx context.Context) (int64, error) {
	s.executed++
	return 1, nil
}

func (s *recordingStmt) ExecuteInsert(ctx context.Context) (int64, error) {
	s.executed++
	return 1, nil
}

func (s *recordingStmt) SimpleQueryForLong(ctx context.Context) (int64, error) {
	s.executed++
	return 0, nil
}

func (s *recordingStmt) Close() error {
	s.closed = true
	return nil
}

// closeWithin runs closeFn and fails the test if it does not return in time.
func closeWithin(t *testing.T, closeFn func() error) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- closeFn() }()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("close blocked")
		return nil
	}
}
