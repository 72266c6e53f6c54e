package db

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Supported store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverLibSQL   = "libsql"
)

// dialect captures what differs between the supported databases.
type dialect struct {
	name string
	// driverName is the name registered with database/sql.
	driverName string
	// fileBased stores are reset by removing their files.
	fileBased bool
	schema    []string
	// bindDollar rewrites ? placeholders to $1, $2, ...
	bindDollar bool

	// singleConn pins the pool to one long-lived connection. Used when
	// connPragmas cannot be carried in the DSN, since pragmas are
	// per-connection.
	singleConn  bool
	connPragmas []string
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS folders (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		parent_id INTEGER REFERENCES folders(id)
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY,
		filename TEXT NOT NULL,
		content TEXT NOT NULL,
		folder_id INTEGER NOT NULL REFERENCES folders(id),
		updated_at TEXT NOT NULL,
		UNIQUE (filename, folder_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_filename ON documents(filename)`,
	`CREATE INDEX IF NOT EXISTS idx_folders_parent ON folders(parent_id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS folders (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		parent_id BIGINT REFERENCES folders(id)
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id BIGSERIAL PRIMARY KEY,
		filename TEXT NOT NULL,
		content TEXT NOT NULL,
		folder_id BIGINT NOT NULL REFERENCES folders(id),
		updated_at TEXT NOT NULL,
		UNIQUE (filename, folder_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_filename ON documents(filename)`,
	`CREATE INDEX IF NOT EXISTS idx_folders_parent ON folders(parent_id)`,
}

// dropSchema removes both tables, children first.
var dropSchema = []string{
	`DROP TABLE IF EXISTS documents`,
	`DROP TABLE IF EXISTS folders`,
}

var dialects = map[string]*dialect{
	DriverSQLite: {
		name:       DriverSQLite,
		driverName: "sqlite3",
		fileBased:  true,
		schema:     sqliteSchema,
	},
	DriverLibSQL: {
		name:       DriverLibSQL,
		driverName: "libsql",
		fileBased:  true,
		schema:     sqliteSchema,
		singleConn: true,
		connPragmas: []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA busy_timeout=5000",
			"PRAGMA foreign_keys=ON",
		},
	},
	DriverPostgres: {
		name:       DriverPostgres,
		driverName: "pgx",
		schema:     postgresSchema,
		bindDollar: true,
	},
}

func lookupDialect(driver string) (*dialect, error) {
	if driver == "" {
		driver = DriverSQLite
	}
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
	return d, nil
}

// poolLimits returns the max open connections, max idle connections and
// connection lifetime for a pool. maxOpen <= 0 means 25.
func (d *dialect) poolLimits(maxOpen int) (int, int, time.Duration) {
	if d.singleConn {
		return 1, 1, 0
	}
	if maxOpen <= 0 {
		maxOpen = 25
	}
	return maxOpen, min(5, maxOpen), 5 * time.Minute
}

// rebind rewrites a query written with ? placeholders for the dialect.
func (d *dialect) rebind(query string) string {
	if !d.bindDollar {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// sqliteDSN turns a path or file: URI into a DSN with the pragmas every
// pooled connection needs.
func sqliteDSN(dsn string) string {
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(wal)"
}

// FilePath extracts the filesystem path from a file-based DSN.
func FilePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}
