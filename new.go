package sqliteconn

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// sqlOpen is replaced in tests.
var sqlOpen = sql.Open

// Open opens the SQLite database described by opts and returns a Connection
// over a handle pinned to one of its connections.
func Open(ctx context.Context, opts ...Options) (*Connection, error) {
	opt := defaultOptions(opts...)

	db, err := sqlOpen("sqlite", opt.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// The handle pins a single connection; more would only hold separate
	// in-memory databases.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	handle, err := NewSQLiteDatabase(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	opt.Logger.Debug("database opened", "dsn", opt.ConnectionString, "read_only", opt.ReadOnly)
	return NewConnection(handle, !opt.ReadOnly, opt), nil
}
