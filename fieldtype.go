package sqliteconn

import "strconv"

// SQLType classifies how a bound argument's in-memory value maps to a
// SQLite storage class.
type SQLType int

const (
	Unknown SQLType = iota
	String
	LongString
	Date
	Boolean
	Char
	Byte
	ByteArray
	Short
	Integer
	Long
	Float
	Double
	Serializable
	Blob
	BigDecimal
	UUID
	Other
)

var sqlTypeNames = [...]string{
	Unknown:      "UNKNOWN",
	String:       "STRING",
	LongString:   "LONG_STRING",
	Date:         "DATE",
	Boolean:      "BOOLEAN",
	Char:         "CHAR",
	Byte:         "BYTE",
	ByteArray:    "BYTE_ARRAY",
	Short:        "SHORT",
	Integer:      "INTEGER",
	Long:         "LONG",
	Float:        "FLOAT",
	Double:       "DOUBLE",
	Serializable: "SERIALIZABLE",
	Blob:         "BLOB",
	BigDecimal:   "BIG_DECIMAL",
	UUID:         "UUID",
	Other:        "OTHER",
}

// String returns the upper-case name of the category.
func (t SQLType) String() string {
	if t >= 0 && int(t) < len(sqlTypeNames) {
		return sqlTypeNames[t]
	}
	return "SQLType(" + strconv.Itoa(int(t)) + ")"
}

// SQLType lets a bare SQLType be used wherever a FieldType is expected.
func (t SQLType) SQLType() SQLType { return t }

// FieldType describes a bound argument. Only its SQL category is consulted
// when binding.
type FieldType interface {
	SQLType() SQLType
}

// FieldTypes is shorthand for building the argument type slice passed next
// to the argument values.
func FieldTypes(types ...SQLType) []FieldType {
	out := make([]FieldType, len(types))
	for i, t := range types {
		out[i] = t
	}
	return out
}
