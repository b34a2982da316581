package sqliteconn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// Database is the embedded database handle the connection adapter forwards
// to. It exposes coarse begin/mark/end transactions rather than named
// savepoints.
type Database interface {
	BeginTransaction(ctx context.Context) error
	SetTransactionSuccessful() error
	EndTransaction(ctx context.Context) error
	InTransaction() (bool, error)
	CompileStatement(ctx context.Context, query string) (Statement, error)
	RawQuery(ctx context.Context, query string, args []any) (Cursor, error)
	IsOpen() bool
	Close() error
}

// Statement is a compiled statement with 1-based positional bindings.
type Statement interface {
	BindNull(index int)
	BindString(index int, value string)
	BindLong(index int, value int64)
	BindDouble(index int, value float64)
	BindBlob(index int, value []byte)
	ClearBindings()
	Execute(ctx context.Context) (int64, error)
	ExecuteInsert(ctx context.Context) (int64, error)
	SimpleQueryForLong(ctx context.Context) (int64, error)
	Close() error
}

// Cursor is the row iterator returned by RawQuery. *sql.Rows satisfies it.
type Cursor interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

type querier interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// txLevel is one BeginTransaction call on the stack.
type txLevel struct {
	successful  bool
	childFailed bool
}

// SQLiteDatabase implements Database over a single pinned connection of a
// *sql.DB. Only the outermost BeginTransaction opens a real transaction;
// inner levels are tracked so that EndTransaction commits only when every
// level was marked successful.
type SQLiteDatabase struct {
	mu      sync.Mutex
	db      *sql.DB
	conn    *sql.Conn
	tx      *sql.Tx
	levels  []txLevel
	cursors map[*cursor]struct{} // Open cursors, closed before the connection.
	closed  bool
}

// NewSQLiteDatabase pins one connection of db. Close releases the connection
// and closes db.
func NewSQLiteDatabase(ctx context.Context, db *sql.DB) (*SQLiteDatabase, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &SQLiteDatabase{db: db, conn: conn, cursors: make(map[*cursor]struct{})}, nil
}

// current returns the transaction when one is active and the pinned
// connection otherwise.
func (d *SQLiteDatabase) current() (querier, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDatabaseClosed
	}
	if d.tx != nil {
		return d.tx, nil
	}
	return d.conn, nil
}

// BeginTransaction opens a transaction level. Only the outermost level
// begins a real transaction.
func (d *SQLiteDatabase) BeginTransaction(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDatabaseClosed
	}
	if d.tx == nil {
		// The transaction lives until EndTransaction, not until ctx is done.
		tx, err := d.conn.BeginTx(context.WithoutCancel(ctx), nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		d.tx = tx
	}
	d.levels = append(d.levels, txLevel{})
	return nil
}

// SetTransactionSuccessful marks the innermost level successful.
func (d *SQLiteDatabase) SetTransactionSuccessful() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDatabaseClosed
	}
	if len(d.levels) == 0 {
		return ErrNoTransaction
	}
	top := &d.levels[len(d.levels)-1]
	if top.successful {
		return ErrTransactionMarked
	}
	top.successful = true
	return nil
}

// EndTransaction closes the innermost level. The outermost level commits
// when it and every inner level were marked successful and rolls back
// otherwise.
func (d *SQLiteDatabase) EndTransaction(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDatabaseClosed
	}
	if len(d.levels) == 0 {
		return ErrNoTransaction
	}
	top := d.levels[len(d.levels)-1]
	d.levels = d.levels[:len(d.levels)-1]
	failed := !top.successful || top.childFailed
	if len(d.levels) > 0 {
		if failed {
			d.levels[len(d.levels)-1].childFailed = true
		}
		return nil
	}

	tx := d.tx
	d.tx = nil
	if failed {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback transaction: %w", err)
		}
		return nil
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// InTransaction reports whether a transaction is open.
func (d *SQLiteDatabase) InTransaction() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false, ErrDatabaseClosed
	}
	return d.tx != nil, nil
}

// CompileStatement prepares query on the current transaction or connection.
func (d *SQLiteDatabase) CompileStatement(ctx context.Context, query string) (Statement, error) {
	q, err := d.current()
	if err != nil {
		return nil, err
	}
	stmt, err := q.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	return &sqliteStmt{stmt: stmt}, nil
}

// RawQuery runs query with args and returns its cursor. Cursors still open
// when the handle is closed are closed with it.
func (d *SQLiteDatabase) RawQuery(ctx context.Context, query string, args []any) (Cursor, error) {
	q, err := d.current()
	if err != nil {
		return nil, err
	}
	//nolint:rowserrcheck // the cursor is handed to the caller, which checks Err after iterating
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	c := &cursor{Rows: rows, db: d}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		_ = rows.Close()
		return nil, ErrDatabaseClosed
	}
	d.cursors[c] = struct{}{}
	return c, nil
}

// Exec runs a statement without bindings. It is used for one-off statements
// such as pragmas.
func (d *SQLiteDatabase) Exec(ctx context.Context, query string) error {
	q, err := d.current()
	if err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// IsOpen reports whether Close has not been called yet.
func (d *SQLiteDatabase) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.closed
}

// Close closes open cursors, rolls back any open transaction, releases the
// pinned connection and closes the underlying *sql.DB. Closing twice returns
// ErrDatabaseClosed.
func (d *SQLiteDatabase) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDatabaseClosed
	}
	d.closed = true
	cursors := d.cursors
	tx := d.tx
	d.cursors = nil
	d.tx = nil
	d.levels = nil
	d.mu.Unlock()

	// An open cursor holds the pinned connection and would block conn.Close.
	var errs []error
	for c := range cursors {
		if err := c.Rows.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if tx != nil {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, err)
		}
	}
	if err := d.conn.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := d.db.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// cursor is a *sql.Rows registered with the handle until it is closed.
type cursor struct {
	*sql.Rows
	db *SQLiteDatabase
}

func (c *cursor) Close() error {
	c.db.mu.Lock()
	delete(c.db.cursors, c)
	c.db.mu.Unlock()
	return c.Rows.Close()
}

type sqliteStmt struct {
	stmt *sql.Stmt
	args []any
}

func (s *sqliteStmt) bind(index int, value any) {
	for len(s.args) < index {
		s.args = append(s.args, nil)
	}
	s.args[index-1] = value
}

func (s *sqliteStmt) BindNull(index int)                  { s.bind(index, nil) }
func (s *sqliteStmt) BindString(index int, value string)  { s.bind(index, value) }
func (s *sqliteStmt) BindLong(index int, value int64)     { s.bind(index, value) }
func (s *sqliteStmt) BindDouble(index int, value float64) { s.bind(index, value) }
func (s *sqliteStmt) BindBlob(index int, value []byte)    { s.bind(index, value) }
func (s *sqliteStmt) ClearBindings()                      { s.args = s.args[:0] }

func (s *sqliteStmt) Execute(ctx context.Context) (int64, error) {
	res, err := s.stmt.ExecContext(ctx, s.args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *sqliteStmt) ExecuteInsert(ctx context.Context) (int64, error) {
	res, err := s.stmt.ExecContext(ctx, s.args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// SimpleQueryForLong returns the first column of the first row. No row and
// a NULL value both read as zero.
func (s *sqliteStmt) SimpleQueryForLong(ctx context.Context) (int64, error) {
	var v sql.NullInt64
	err := s.stmt.QueryRowContext(ctx, s.args...).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return v.Int64, nil
}

func (s *sqliteStmt) Close() error {
	return s.stmt.Close()
}
