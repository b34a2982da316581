package sqliteconn

// StatementType tags a compiled statement with the kind of SQL it holds.
type StatementType int

const (
	Select StatementType = iota
	SelectLong
	SelectRaw
	Insert
	Update
	Delete
	Execute
)

// String returns the upper-case name of the statement type.
func (t StatementType) String() string {
	switch t {
	case Select:
		return "SELECT"
	case SelectLong:
		return "SELECT_LONG"
	case SelectRaw:
		return "SELECT_RAW"
	case Insert:
		return "INSERT"
	case Update:
		return "UPDATE"
	case Delete:
		return "DELETE"
	case Execute:
		return "EXECUTE"
	}
	return "UNKNOWN"
}

// OkForQuery reports whether the statement may be run with RunQuery.
func (t StatementType) OkForQuery() bool {
	return t == Select || t == SelectLong || t == SelectRaw
}

// OkForUpdate reports whether the statement may be run with RunUpdate.
func (t StatementType) OkForUpdate() bool {
	return t == Insert || t == Update || t == Delete
}

// OkForExecute reports whether the statement may be run with RunExecute.
func (t StatementType) OkForExecute() bool {
	return t == Execute
}
