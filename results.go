package sqliteconn

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// Results is a forward-only view over a cursor. Each call to Next loads one
// row; getters read columns of that row by 0-based index. NULL reads as the
// zero value of the requested type.
type Results struct {
	cursor  Cursor
	cache   ObjectCache
	codec   Codec
	columns []string
	row     []any
	hasRow  bool
}

func newResults(cursor Cursor, cache ObjectCache, codec Codec) *Results {
	if codec == nil {
		codec = MsgpackCodec{}
	}
	return &Results{cursor: cursor, cache: cache, codec: codec}
}

// Next advances to the next row. It returns false with a nil error once the
// rows are exhausted.
func (r *Results) Next() (bool, error) {
	if !r.cursor.Next() {
		r.hasRow = false
		return false, r.cursor.Err()
	}
	if err := r.loadColumns(); err != nil {
		return false, err
	}
	dest := make([]any, len(r.columns))
	for i := range r.row {
		r.row[i] = nil
		dest[i] = &r.row[i]
	}
	if err := r.cursor.Scan(dest...); err != nil {
		r.hasRow = false
		return false, fmt.Errorf("failed to scan row: %w", err)
	}
	r.hasRow = true
	return true, nil
}

func (r *Results) loadColumns() error {
	if r.columns != nil {
		return nil
	}
	cols, err := r.cursor.Columns()
	if err != nil {
		return fmt.Errorf("failed to read columns: %w", err)
	}
	r.columns = cols
	r.row = make([]any, len(cols))
	return nil
}

// ColumnCount returns the number of result columns.
func (r *Results) ColumnCount() (int, error) {
	if err := r.loadColumns(); err != nil {
		return 0, err
	}
	return len(r.columns), nil
}

// ColumnNames returns the result column names in order.
func (r *Results) ColumnNames() ([]string, error) {
	if err := r.loadColumns(); err != nil {
		return nil, err
	}
	return append([]string(nil), r.columns...), nil
}

// FindColumn returns the index of the named column, ignoring case.
func (r *Results) FindColumn(name string) (int, error) {
	if err := r.loadColumns(); err != nil {
		return 0, err
	}
	for i, col := range r.columns {
		if strings.EqualFold(col, name) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown column %q", name)
}

// ObjectCache returns the cache handed to the query, which may be nil.
func (r *Results) ObjectCache() ObjectCache { return r.cache }

func (r *Results) value(column int) (any, error) {
	if !r.hasRow {
		return nil, ErrNoCurrentRow
	}
	if column < 0 || column >= len(r.row) {
		return nil, fmt.Errorf("column index %d out of range [0,%d)", column, len(r.row))
	}
	return r.row[column], nil
}

// IsNull reports whether column holds NULL.
func (r *Results) IsNull(column int) (bool, error) {
	v, err := r.value(column)
	if err != nil {
		return false, err
	}
	return v == nil, nil
}

// GetString returns column as a string.
func (r *Results) GetString(column int) (string, error) {
	v, err := r.value(column)
	if err != nil || v == nil {
		return "", err
	}
	return cast.ToStringE(v)
}

// GetLong returns column as an int64. Text holding a number is parsed.
func (r *Results) GetLong(column int) (int64, error) {
	v, err := r.value(column)
	if err != nil || v == nil {
		return 0, err
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	return cast.ToInt64E(v)
}

// GetInt is GetLong converted to int.
func (r *Results) GetInt(column int) (int, error) {
	v, err := r.GetLong(column)
	return int(v), err
}

// GetDouble returns column as a float64. Text holding a number is parsed.
func (r *Results) GetDouble(column int) (float64, error) {
	v, err := r.value(column)
	if err != nil || v == nil {
		return 0, err
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	return cast.ToFloat64E(v)
}

// GetBoolean reports whether column holds a non-zero integer.
func (r *Results) GetBoolean(column int) (bool, error) {
	v, err := r.GetLong(column)
	return v != 0, err
}

// GetBytes returns column as raw bytes. Text is returned as its bytes.
func (r *Results) GetBytes(column int) ([]byte, error) {
	v, err := r.value(column)
	if err != nil || v == nil {
		return nil, err
	}
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	}
	return nil, fmt.Errorf("unable to cast %#v of type %T to []byte", v, v)
}

// GetObject decodes a column written as Serializable into dst. A NULL column
// leaves dst untouched.
func (r *Results) GetObject(column int, dst any) error {
	b, err := r.GetBytes(column)
	if err != nil || b == nil {
		return err
	}
	if err := r.codec.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("failed to decode column %d: %w", column, err)
	}
	return nil
}

// Close releases the cursor. It is safe to call more than once.
func (r *Results) Close() error {
	r.hasRow = false
	if err := r.cursor.Close(); err != nil && !errors.Is(err, ErrDatabaseClosed) {
		return err
	}
	return nil
}
