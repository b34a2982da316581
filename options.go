package sqliteconn

import (
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"time"
)

// Options configures Open and NewConnection.
// All fields are optional; zero values use sensible defaults.
// When ConnectionString is provided, the path and pragma fields are ignored.
type Options struct {
	// Database location
	Path     string `koanf:"path"`      // Database file path, or ":memory:" (default: ":memory:")
	ReadOnly bool   `koanf:"read_only"` // Open the file read-only; IsReadWrite reports false

	// Pragmas applied to every connection
	BusyTimeout time.Duration `koanf:"busy_timeout"` // How long a locked database is retried (default: 5s)
	JournalMode string        `koanf:"journal_mode"` // e.g. "WAL" or "DELETE" (default: driver default)
	ForeignKeys bool          `koanf:"foreign_keys"` // Enforce foreign key constraints

	// Serialization
	Codec Codec `koanf:"-"` // Codec for Serializable arguments (nil uses MessagePack)

	// Logging
	Logger *slog.Logger `koanf:"-"` // Debug logger (nil discards)

	// Advanced
	ConnectionString string `koanf:"connection_string"` // Pre-built DSN; if set, overrides the fields above
}

const memoryPath = ":memory:"

// defaultOptions merges the first of opts over the defaults and builds the
// connection string when none was given.
func defaultOptions(opts ...Options) Options {
	options := Options{
		Path:        memoryPath,
		BusyTimeout: 5 * time.Second,
	}

	if len(opts) > 0 {
		userOpts := opts[0]

		if userOpts.Path != "" {
			options.Path = userOpts.Path
		}
		if userOpts.BusyTimeout > 0 {
			options.BusyTimeout = userOpts.BusyTimeout
		}
		if userOpts.JournalMode != "" {
			options.JournalMode = userOpts.JournalMode
		}

		options.ReadOnly = userOpts.ReadOnly
		options.ForeignKeys = userOpts.ForeignKeys
		options.Codec = userOpts.Codec
		options.Logger = userOpts.Logger
		options.ConnectionString = userOpts.ConnectionString
	}

	if options.Codec == nil {
		options.Codec = MsgpackCodec{}
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if options.ConnectionString == "" {
		options.ConnectionString = connectionString(options)
	}
	return options
}

// connectionString builds a modernc.org/sqlite DSN with pragmas passed as
// _pragma query parameters.
func connectionString(opts Options) string {
	params := url.Values{}
	if opts.BusyTimeout > 0 {
		params.Add("_pragma", "busy_timeout("+strconv.FormatInt(opts.BusyTimeout.Milliseconds(), 10)+")")
	}
	if opts.ForeignKeys {
		params.Add("_pragma", "foreign_keys(1)")
	}
	if opts.JournalMode != "" {
		params.Add("_pragma", "journal_mode("+opts.JournalMode+")")
	}
	if opts.ReadOnly {
		params.Set("mode", "ro")
	}

	dsn := "file:" + opts.Path
	if opts.Path == memoryPath {
		dsn = "file::memory:"
	}
	if len(params) > 0 {
		dsn += "?" + params.Encode()
	}
	return dsn
}
