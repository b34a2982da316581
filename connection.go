// Package sqliteconn implements a generic database-connection contract on
// top of an embedded SQLite handle. Every operation forwards to the handle
// and reports handle failures as *SQLError.
package sqliteconn

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// moreThanOne is the type of the MoreThanOne sentinel.
type moreThanOne struct{}

// MoreThanOne is returned by QueryForOne in place of a row when the query
// produced more than one result.
var MoreThanOne any = moreThanOne{}

// DatabaseConnection is the contract the ORM layers talk to.
type DatabaseConnection interface {
	IsAutoCommitSupported() bool
	AutoCommit(ctx context.Context) (bool, error)
	SetAutoCommit(autoCommit bool)
	SetSavepoint(ctx context.Context, name string) (Savepoint, error)
	Commit(ctx context.Context, sp Savepoint) error
	Rollback(ctx context.Context, sp Savepoint) error
	IsReadWrite() bool
	CompileStatement(statement string, kind StatementType, argTypes []FieldType) (CompiledStatement, error)
	Insert(ctx context.Context, statement string, args []any, argTypes []FieldType, keys GeneratedKeyHolder) (int, error)
	Update(ctx context.Context, statement string, args []any, argTypes []FieldType) (int, error)
	Delete(ctx context.Context, statement string, args []any, argTypes []FieldType) (int, error)
	QueryForOne(ctx context.Context, statement string, args []any, argTypes []FieldType, mapper RowMapper, cache ObjectCache) (any, error)
	QueryForLong(ctx context.Context, statement string) (int64, error)
	QueryForLongArgs(ctx context.Context, statement string, args []any, argTypes []FieldType) (int64, error)
	Close() error
	IsClosed() (bool, error)
	IsTableExists(ctx context.Context, tableName string) (bool, error)
}

// Connection implements DatabaseConnection by forwarding to a single
// Database handle. It holds no mutable state of its own; concurrency and
// transaction semantics are those of the handle.
type Connection struct {
	db        Database     // The handle every call is forwarded to.
	readWrite bool         // Reported by IsReadWrite.
	codec     Codec        // Encodes Serializable arguments.
	logger    *slog.Logger // Debug log of every forwarded call.
}

var _ DatabaseConnection = (*Connection)(nil)

// NewConnection wraps db. Only the Logger and Codec fields of opts are used.
func NewConnection(db Database, readWrite bool, opts ...Options) *Connection {
	opt := defaultOptions(opts...)
	return &Connection{
		db:        db,
		readWrite: readWrite,
		codec:     opt.Codec,
		logger:    opt.Logger,
	}
}

// IsAutoCommitSupported is always false: the handle has to be committed
// explicitly.
func (c *Connection) IsAutoCommitSupported() bool {
	return false
}

// AutoCommit reports whether the handle is outside a transaction.
func (c *Connection) AutoCommit(ctx context.Context) (bool, error) {
	inTransaction, err := c.db.InTransaction()
	if err != nil {
		return false, NewError("problems getting auto-commit from database", err)
	}
	c.logger.Debug("database in transaction", "in_transaction", inTransaction)
	return !inTransaction, nil
}

// SetAutoCommit does nothing; auto-commit cannot be toggled.
func (c *Connection) SetAutoCommit(autoCommit bool) {}

// SetSavepoint begins a transaction and returns a marker carrying name. An
// empty name is replaced by a generated one.
func (c *Connection) SetSavepoint(ctx context.Context, name string) (Savepoint, error) {
	if name == "" {
		name = "sp_" + uuid.NewString()
	}
	if err := c.db.BeginTransaction(ctx); err != nil {
		return nil, NewError("problems beginning transaction "+name, err)
	}
	c.logger.Debug("save-point set", "name", name)
	return savepoint{name: name}, nil
}

// IsReadWrite reports whether the connection was opened for writing.
func (c *Connection) IsReadWrite() bool {
	return c.readWrite
}

// Commit marks the current transaction successful and ends it.
func (c *Connection) Commit(ctx context.Context, sp Savepoint) error {
	name := savepointName(sp)
	if err := c.db.SetTransactionSuccessful(); err != nil {
		return NewError("problems committing transaction "+name, err)
	}
	if err := c.db.EndTransaction(ctx); err != nil {
		return NewError("problems committing transaction "+name, err)
	}
	c.logger.Debug("database transaction is successfully ended", "name", name)
	return nil
}

// Rollback ends the current transaction without marking it successful.
func (c *Connection) Rollback(ctx context.Context, sp Savepoint) error {
	name := savepointName(sp)
	if err := c.db.EndTransaction(ctx); err != nil {
		return NewError("problems rolling back transaction "+name, err)
	}
	c.logger.Debug("database transaction is ended, unsuccessfully", "name", name)
	return nil
}

// CompileStatement returns a reusable statement of the given kind. Nothing
// is sent to the handle until the statement is run.
func (c *Connection) CompileStatement(statement string, kind StatementType, argTypes []FieldType) (CompiledStatement, error) {
	stmt := newCompiledStatement(c.db, statement, kind, c.codec, c.logger)
	c.logger.Debug("compiled statement", "statement", statement)
	return stmt, nil
}

// Insert runs statement and hands the new row id to keys when it is not
// nil. It reports 1 on success regardless of how many rows changed.
func (c *Connection) Insert(ctx context.Context, statement string, args []any, argTypes []FieldType, keys GeneratedKeyHolder) (int, error) {
	stmt, err := c.db.CompileStatement(ctx, statement)
	if err != nil {
		return 0, NewError("inserting to database failed: "+statement, err)
	}
	defer func() { _ = stmt.Close() }()

	if err := bindArgs(stmt, args, argTypes, c.codec); err != nil {
		return 0, err
	}
	rowID, err := stmt.ExecuteInsert(ctx)
	if err != nil {
		return 0, NewError("inserting to database failed: "+statement, err)
	}
	if keys != nil {
		if err := keys.AddKey(rowID); err != nil {
			return 0, NewError("inserting to database failed: "+statement, err)
		}
	}
	c.logger.Debug("insert statement is compiled and executed", "statement", statement, "row_id", rowID)
	return 1, nil
}

// Update runs statement and reports 1 on success regardless of how many
// rows changed.
func (c *Connection) Update(ctx context.Context, statement string, args []any, argTypes []FieldType) (int, error) {
	return c.update(ctx, statement, args, argTypes, "updated")
}

// Delete is executed exactly like Update.
func (c *Connection) Delete(ctx context.Context, statement string, args []any, argTypes []FieldType) (int, error) {
	return c.update(ctx, statement, args, argTypes, "deleted")
}

// QueryForOne returns nil when the query yields no row, the mapped row when
// it yields exactly one and MoreThanOne otherwise. Arguments are bound as
// strings.
func (c *Connection) QueryForOne(ctx context.Context, statement string, args []any, argTypes []FieldType, mapper RowMapper, cache ObjectCache) (any, error) {
	cursor, err := c.db.RawQuery(ctx, statement, toStrings(args))
	if err != nil {
		return nil, NewError("queryForOne from database failed: "+statement, err)
	}
	results := newResults(cursor, cache, c.codec)
	defer func() { _ = results.Close() }()
	c.logger.Debug("queried for one result", "statement", statement)

	ok, err := results.Next()
	if err != nil {
		return nil, NewError("queryForOne from database failed: "+statement, err)
	}
	if !ok {
		return nil, nil
	}
	first, err := mapper.MapRow(results)
	if err != nil {
		return nil, NewError("queryForOne from database failed: "+statement, err)
	}
	more, err := results.Next()
	if err != nil {
		return nil, NewError("queryForOne from database failed: "+statement, err)
	}
	if more {
		return MoreThanOne, nil
	}
	return first, nil
}

// QueryForLong runs a compiled single-value query and returns the first
// column of the first row, or 0 when there is none.
func (c *Connection) QueryForLong(ctx context.Context, statement string) (int64, error) {
	stmt, err := c.db.CompileStatement(ctx, statement)
	if err != nil {
		return 0, NewError("queryForLong from database failed: "+statement, err)
	}
	defer func() { _ = stmt.Close() }()

	result, err := stmt.SimpleQueryForLong(ctx)
	if err != nil {
		return 0, NewError("queryForLong from database failed: "+statement, err)
	}
	c.logger.Debug("query for long simple query returned", "result", result, "statement", statement)
	return result, nil
}

// QueryForLongArgs is QueryForLong for a parameterized raw query.
func (c *Connection) QueryForLongArgs(ctx context.Context, statement string, args []any, argTypes []FieldType) (int64, error) {
	cursor, err := c.db.RawQuery(ctx, statement, toStrings(args))
	if err != nil {
		return 0, NewError("queryForLong from database failed: "+statement, err)
	}
	results := newResults(cursor, nil, c.codec)
	defer func() { _ = results.Close() }()
	c.logger.Debug("query for long raw query executed", "statement", statement)

	ok, err := results.Next()
	if err != nil {
		return 0, NewError("queryForLong from database failed: "+statement, err)
	}
	if !ok {
		return 0, nil
	}
	v, err := results.GetLong(0)
	if err != nil {
		return 0, NewError("queryForLong from database failed: "+statement, err)
	}
	return v, nil
}

// Close closes the handle. A second Close fails.
func (c *Connection) Close() error {
	if err := c.db.Close(); err != nil {
		return NewError("problems closing the database connection", err)
	}
	c.logger.Debug("database closed")
	return nil
}

// IsClosed reports whether the handle has been closed.
func (c *Connection) IsClosed() (bool, error) {
	isOpen := c.db.IsOpen()
	c.logger.Debug("database is open returned", "is_open", isOpen)
	return !isOpen, nil
}

// IsTableExists always reports true. The schema is created by higher
// layers on open, so no lookup is made here.
func (c *Connection) IsTableExists(ctx context.Context, tableName string) (bool, error) {
	return true, nil
}

func (c *Connection) update(ctx context.Context, statement string, args []any, argTypes []FieldType, label string) (int, error) {
	stmt, err := c.db.CompileStatement(ctx, statement)
	if err != nil {
		return 0, NewError("updating database failed: "+statement, err)
	}
	defer func() { _ = stmt.Close() }()

	if err := bindArgs(stmt, args, argTypes, c.codec); err != nil {
		return 0, err
	}
	if _, err := stmt.Execute(ctx); err != nil {
		return 0, NewError("updating database failed: "+statement, err)
	}
	c.logger.Debug(label+" statement is compiled and executed", "statement", statement)
	return 1, nil
}
