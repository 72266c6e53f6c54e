package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/rs/zerolog"
)

// Options configures how the store is opened.
type Options struct {
	// Driver is one of DriverSQLite, DriverPostgres or DriverLibSQL.
	// Empty means DriverSQLite.
	Driver string
	// DSN is a file path or file: URI for the file-based drivers and a
	// connection string for postgres.
	DSN string
	// MaxOpenConns caps the connection pool (0 = 25)
	MaxOpenConns int
	// Logger receives store lifecycle messages. Nil disables logging.
	Logger *zerolog.Logger
}

// DB wraps the pooled database handle shared by every unit of work.
type DB struct {
	conn    *sql.DB
	dialect *dialect
	dsn     string
	logger  zerolog.Logger
}

// Open connects to the store described by opts without touching its schema.
//
// The caller MUST call Close() when done to release the pool.
func Open(ctx context.Context, opts Options) (*DB, error) {
	d, err := lookupDialect(opts.Driver)
	if err != nil {
		return nil, err
	}
	if opts.DSN == "" {
		return nil, fmt.Errorf("store dsn cannot be empty")
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "db").Logger()
	}

	connStr := opts.DSN
	if d.fileBased {
		// Ensure parent directory exists
		if dir := filepath.Dir(FilePath(opts.DSN)); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		if d.name == DriverSQLite {
			connStr = sqliteDSN(opts.DSN)
		}
	}

	conn, err := sql.Open(d.driverName, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen, maxIdle, lifetime := d.poolLimits(opts.MaxOpenConns)
	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(maxIdle)
	conn.SetConnMaxLifetime(lifetime)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{
		conn:    conn,
		dialect: d,
		dsn:     opts.DSN,
		logger:  logger,
	}

	// Only singleConn dialects carry pragmas, so these reach every query.
	for _, pragma := range d.connPragmas {
		// journal_mode answers with a row, so every pragma goes through Query.
		rows, err := db.conn.QueryContext(ctx, pragma)
		if err == nil {
			err = rows.Close()
		}
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return db, nil
}

// Initialize is the schema manager: it destroys any store at the configured
// location, opens a fresh one and creates the folders and documents tables.
//
// For file-based drivers the database file and its WAL/SHM/journal siblings
// are removed. For postgres both tables are dropped. Any failure is logged and
// returned so callers can abort startup.
func Initialize(ctx context.Context, opts Options) (*DB, error) {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "db").Logger()
	}

	d, err := lookupDialect(opts.Driver)
	if err != nil {
		logger.Error().Err(err).Msg("Store initialization failed")
		return nil, err
	}

	if d.fileBased && opts.DSN != "" {
		removed, err := removeStoreFiles(FilePath(opts.DSN))
		if err != nil {
			logger.Error().Err(err).Msg("Store initialization failed")
			return nil, err
		}
		if removed {
			logger.Info().Str("path", FilePath(opts.DSN)).Msg("Existing store removed")
		}
	}

	db, err := Open(ctx, opts)
	if err != nil {
		logger.Error().Err(err).Msg("Store initialization failed")
		return nil, err
	}

	if err := db.ResetContext(ctx); err != nil {
		_ = db.Close()
		logger.Error().Err(err).Msg("Store initialization failed")
		return nil, err
	}

	logger.Info().Str("driver", d.name).Msg("Store initialized and tables created")
	return db, nil
}

// removeStoreFiles deletes a SQLite database and its sidecar files.
func removeStoreFiles(path string) (bool, error) {
	removed := false
	for _, p := range []string{path, path + "-wal", path + "-shm", path + "-journal"} {
		err := os.Remove(p)
		switch {
		case err == nil:
			removed = true
		case errors.Is(err, os.ErrNotExist):
		default:
			return removed, fmt.Errorf("failed to remove existing store %s: %w", p, err)
		}
	}
	return removed, nil
}

// InitSchema creates the folders and documents tables if they don't exist.
//
// This is idempotent - safe to call multiple times.
func (db *DB) InitSchema() error {
	return db.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the schema with context support.
func (db *DB) InitSchemaContext(ctx context.Context) error {
	for _, stmt := range db.dialect.schema {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// Reset drops both tables and recreates them empty.
func (db *DB) Reset() error {
	return db.ResetContext(context.Background())
}

// ResetContext drops and recreates the schema with context support.
func (db *DB) ResetContext(ctx context.Context) error {
	for _, stmt := range dropSchema {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to drop schema: %w", err)
		}
	}
	return db.InitSchemaContext(ctx)
}

// Driver returns the store driver name.
func (db *DB) Driver() string {
	return db.dialect.name
}

// Location returns the file path of a file-based store, or the driver name
// for server-based stores so that connection strings never reach the logs.
func (db *DB) Location() string {
	if db.dialect.fileBased {
		return FilePath(db.dsn)
	}
	return db.dialect.name
}

// Close closes the database connection.
// File-based stores get a WAL checkpoint first so the main file is complete.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	if db.dialect.fileBased {
		if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			db.logger.Warn().Err(err).Msg("failed to checkpoint WAL")
		}
	}

	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	db.conn = nil
	return nil
}
