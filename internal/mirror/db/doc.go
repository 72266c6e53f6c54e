// Package db is the relational store behind docmirror.
//
// The store holds two tables, folders and documents (see package schema), and
// runs against one of three database/sql drivers:
//
//   - sqlite (default): embedded SQLite through ncruces/go-sqlite3, WAL mode
//   - postgres: PostgreSQL through the pgx stdlib driver
//   - libsql: embedded libSQL, compiled in with the "libsql" build tag
//
// Initialize is the schema manager. It wipes whatever store exists at the
// configured location, opens a fresh one and creates both tables. It returns
// an error instead of carrying on against a missing or partial store:
//
//	store, err := db.Initialize(ctx, db.Options{DSN: "documents.db"})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
// Open and InitSchema are the non-destructive counterparts used by readers.
//
// A DB owns a single pooled *sql.DB handle. Multi-statement units of work go
// through WithTx, which commits on success and rolls back on every other exit
// path.
package db
