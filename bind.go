package sqliteconn

import (
	"errors"
	"fmt"

	"github.com/spf13/cast"
)

// bindArgs binds args to stmt by the category of the matching field type.
// A nil argument always binds as NULL. Categories without a bind strategy
// fail with a BindError before anything is executed.
func bindArgs(stmt Statement, args []any, argTypes []FieldType, codec Codec) error {
	if args == nil {
		return nil
	}
	for i, arg := range args {
		if arg == nil {
			stmt.BindNull(i + 1)
			continue
		}
		if i >= len(argTypes) || argTypes[i] == nil {
			return &BindError{Index: i, Type: Unknown, Err: errors.New("missing field type")}
		}

		sqlType := argTypes[i].SQLType()
		switch sqlType {
		case Char:
			if r, ok := arg.(rune); ok {
				stmt.BindString(i+1, string(r))
			} else {
				stmt.BindString(i+1, toString(arg))
			}
		case String, LongString:
			stmt.BindString(i+1, toString(arg))
		case Boolean, Byte, Short, Integer, Long:
			v, err := cast.ToInt64E(arg)
			if err != nil {
				return &BindError{Index: i, Type: sqlType, Err: err}
			}
			stmt.BindLong(i+1, v)
		case Float, Double:
			v, err := cast.ToFloat64E(arg)
			if err != nil {
				return &BindError{Index: i, Type: sqlType, Err: err}
			}
			stmt.BindDouble(i+1, v)
		case ByteArray, Serializable:
			v, err := toBytes(arg, sqlType, codec)
			if err != nil {
				return &BindError{Index: i, Type: sqlType, Err: err}
			}
			stmt.BindBlob(i+1, v)
		default:
			return &BindError{Index: i, Type: sqlType, Err: ErrUnsupportedType}
		}
	}
	return nil
}

func toBytes(arg any, sqlType SQLType, codec Codec) ([]byte, error) {
	switch v := arg.(type) {
	case []byte:
		return v, nil
	case string:
		if sqlType == ByteArray {
			return []byte(v), nil
		}
	}
	if sqlType != Serializable {
		return nil, fmt.Errorf("unable to cast %#v of type %T to []byte", arg, arg)
	}
	if codec == nil {
		codec = MsgpackCodec{}
	}
	return codec.Marshal(arg)
}

func toString(arg any) string {
	if s, err := cast.ToStringE(arg); err == nil {
		return s
	}
	return fmt.Sprint(arg)
}

// toStrings converts raw query arguments to their string form. Nil entries
// stay nil so they bind as NULL.
func toStrings(args []any) []any {
	if args == nil {
		return nil
	}
	out := make([]any, len(args))
	for i, arg := range args {
		if arg == nil {
			continue
		}
		out[i] = toString(arg)
	}
	return out
}
