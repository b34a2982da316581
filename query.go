package sqliteconn

import "context"

// RowMapper converts the current row of results into an application value.
type RowMapper interface {
	MapRow(results *Results) (any, error)
}

// RowMapperFunc adapts a function to RowMapper.
type RowMapperFunc func(results *Results) (any, error)

// MapRow calls f(results).
func (f RowMapperFunc) MapRow(results *Results) (any, error) { return f(results) }

// QueryOne runs QueryForOne and converts its outcome for a typed caller:
// nil when there is no row, ErrMoreThanOne when there are several.
func QueryOne[T any](
	ctx context.Context,
	conn DatabaseConnection,
	statement string,
	args []any,
	argTypes []FieldType,
	mapRow func(results *Results) (T, error),
) (*T, error) {
	mapper := RowMapperFunc(func(results *Results) (any, error) {
		return mapRow(results)
	})

	res, err := conn.QueryForOne(ctx, statement, args, argTypes, mapper, nil)
	if err != nil {
		return nil, err
	}
	switch v := res.(type) {
	case nil:
		return nil, nil
	case moreThanOne:
		return nil, ErrMoreThanOne
	case T:
		return &v, nil
	}
	return nil, nil
}
