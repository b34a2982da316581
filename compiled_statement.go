package sqliteconn

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
)

// CompiledStatement is a reusable statement whose arguments are set by
// 0-based index before it is run.
type CompiledStatement interface {
	Type() StatementType
	SetObject(index int, value any, sqlType SQLType) error
	SetMaxRows(max int) error
	ColumnCount(ctx context.Context) (int, error)
	ColumnName(ctx context.Context, column int) (string, error)
	RunQuery(ctx context.Context, cache ObjectCache) (*Results, error)
	RunUpdate(ctx context.Context) (int, error)
	RunExecute(ctx context.Context) (int, error)
	Close() error
}

type compiledStatement struct {
	db       Database
	sql      string
	kind     StatementType
	codec    Codec
	logger   *slog.Logger
	args     []any
	argTypes []FieldType
	maxRows  int
	cursor   Cursor
	columns  []string
}

var _ CompiledStatement = (*compiledStatement)(nil)

func newCompiledStatement(db Database, sql string, kind StatementType, codec Codec, logger *slog.Logger) *compiledStatement {
	return &compiledStatement{db: db, sql: sql, kind: kind, codec: codec, logger: logger}
}

func (s *compiledStatement) Type() StatementType { return s.kind }

func (s *compiledStatement) SetObject(index int, value any, sqlType SQLType) error {
	if index < 0 {
		return NewError("problems setting argument: "+s.sql, fmt.Errorf("invalid argument index %d", index))
	}
	if s.cursor != nil {
		return NewError("problems setting argument: "+s.sql, fmt.Errorf("cannot set argument %d after the query has run", index))
	}
	for len(s.args) <= index {
		s.args = append(s.args, nil)
		s.argTypes = append(s.argTypes, Unknown)
	}
	s.args[index] = value
	s.argTypes[index] = sqlType
	return nil
}

func (s *compiledStatement) SetMaxRows(max int) error {
	if max < 0 {
		return NewError("problems setting max rows: "+s.sql, fmt.Errorf("invalid max rows %d", max))
	}
	s.maxRows = max
	return nil
}

func (s *compiledStatement) query() string {
	if s.maxRows > 0 {
		return s.sql + " LIMIT " + strconv.Itoa(s.maxRows)
	}
	return s.sql
}

// openCursor runs the query once; column metadata and RunQuery share it.
func (s *compiledStatement) openCursor(ctx context.Context) (Cursor, error) {
	if s.cursor != nil {
		return s.cursor, nil
	}
	if !s.kind.OkForQuery() {
		return nil, NewError("problems executing query: "+s.sql, fmt.Errorf("%w: %s cannot be queried", ErrStatementType, s.kind))
	}
	cursor, err := s.db.RawQuery(ctx, s.query(), toStrings(s.args))
	if err != nil {
		return nil, NewError("problems executing query: "+s.sql, err)
	}
	s.cursor = cursor
	return cursor, nil
}

func (s *compiledStatement) loadColumns(ctx context.Context) error {
	if s.columns != nil {
		return nil
	}
	cursor, err := s.openCursor(ctx)
	if err != nil {
		return err
	}
	cols, err := cursor.Columns()
	if err != nil {
		return NewError("problems reading columns: "+s.sql, err)
	}
	s.columns = cols
	return nil
}

func (s *compiledStatement) ColumnCount(ctx context.Context) (int, error) {
	if err := s.loadColumns(ctx); err != nil {
		return 0, err
	}
	return len(s.columns), nil
}

func (s *compiledStatement) ColumnName(ctx context.Context, column int) (string, error) {
	if err := s.loadColumns(ctx); err != nil {
		return "", err
	}
	if column < 0 || column >= len(s.columns) {
		return "", NewError("problems reading columns: "+s.sql, fmt.Errorf("column index %d out of range [0,%d)", column, len(s.columns)))
	}
	return s.columns[column], nil
}

// RunQuery returns results over the statement's cursor. The cursor stays
// owned by the statement and is released by Close.
func (s *compiledStatement) RunQuery(ctx context.Context, cache ObjectCache) (*Results, error) {
	cursor, err := s.openCursor(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("compiled query executed", "statement", s.sql)
	return newResults(cursor, cache, s.codec), nil
}

func (s *compiledStatement) RunUpdate(ctx context.Context) (int, error) {
	if !s.kind.OkForUpdate() {
		return 0, NewError("problems executing update: "+s.sql, fmt.Errorf("%w: %s cannot be run as an update", ErrStatementType, s.kind))
	}
	stmt, err := s.db.CompileStatement(ctx, s.sql)
	if err != nil {
		return 0, NewError("problems compiling statement: "+s.sql, err)
	}
	defer func() { _ = stmt.Close() }()

	if err := bindArgs(stmt, s.args, s.argTypes, s.codec); err != nil {
		return 0, err
	}
	if _, err := stmt.Execute(ctx); err != nil {
		return 0, NewError("problems executing update: "+s.sql, err)
	}
	s.logger.Debug("compiled update executed", "statement", s.sql)
	return 1, nil
}

func (s *compiledStatement) RunExecute(ctx context.Context) (int, error) {
	if !s.kind.OkForExecute() {
		return 0, NewError("problems executing statement: "+s.sql, fmt.Errorf("%w: %s cannot be executed", ErrStatementType, s.kind))
	}
	stmt, err := s.db.CompileStatement(ctx, s.sql)
	if err != nil {
		return 0, NewError("problems compiling statement: "+s.sql, err)
	}
	defer func() { _ = stmt.Close() }()

	if err := bindArgs(stmt, s.args, s.argTypes, s.codec); err != nil {
		return 0, err
	}
	if _, err := stmt.Execute(ctx); err != nil {
		return 0, NewError("problems executing statement: "+s.sql, err)
	}
	s.logger.Debug("compiled statement executed", "statement", s.sql)
	return 1, nil
}

func (s *compiledStatement) Close() error {
	if s.cursor == nil {
		return nil
	}
	cursor := s.cursor
	s.cursor = nil
	s.columns = nil
	if err := cursor.Close(); err != nil {
		return NewError("problems closing cursor", err)
	}
	return nil
}
