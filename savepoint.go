package sqliteconn

// Savepoint labels a transaction scope. The handle supports a single
// begin/commit|rollback scope, so the name is only used for logging.
type Savepoint interface {
	SavepointID() int
	SavepointName() string
}

type savepoint struct {
	name string
}

func (s savepoint) SavepointID() int      { return 0 }
func (s savepoint) SavepointName() string { return s.name }

func savepointName(sp Savepoint) string {
	if sp == nil {
		return ""
	}
	return sp.SavepointName()
}
