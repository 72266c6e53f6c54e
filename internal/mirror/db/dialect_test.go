package db

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func TestRebind(t *testing.T) {
	pg := dialects[DriverPostgres]
	got := pg.rebind(`SELECT id FROM documents WHERE filename = ? AND folder_id = ?`)
	want := `SELECT id FROM documents WHERE filename = $1 AND folder_id = $2`
	if got != want {
		t.Errorf("rebind() = %q, want %q", got, want)
	}

	lite := dialects[DriverSQLite]
	query := `SELECT 1 WHERE ? = ?`
	if got := lite.rebind(query); got != query {
		t.Errorf("sqlite rebind() = %q, want unchanged", got)
	}
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		in         string
		wantPrefix string
	}{
		{"documents.db", "file:documents.db?_pragma="},
		{"file:documents.db", "file:documents.db?_pragma="},
		{"file:documents.db?cache=shared", "file:documents.db?cache=shared&_pragma="},
	}
	for _, tt := range tests {
		got := sqliteDSN(tt.in)
		if !strings.HasPrefix(got, tt.wantPrefix) {
			t.Errorf("sqliteDSN(%q) = %q, want prefix %q", tt.in, got, tt.wantPrefix)
		}
		if !strings.Contains(got, "foreign_keys(1)") {
			t.Errorf("sqliteDSN(%q) does not enable foreign keys", tt.in)
		}
	}
}

func TestFilePath(t *testing.T) {
	if got := FilePath("file:/tmp/x.db?mode=rwc"); got != "/tmp/x.db" {
		t.Errorf("FilePath() = %q, want /tmp/x.db", got)
	}
	if got := FilePath("x.db"); got != "x.db" {
		t.Errorf("FilePath() = %q, want x.db", got)
	}
}

func TestLookupDialect(t *testing.T) {
	d, err := lookupDialect("")
	if err != nil || d.name != DriverSQLite {
		t.Errorf("lookupDialect(\"\") = %v, %v; want sqlite", d, err)
	}
	if _, err := lookupDialect("mysql"); err == nil {
		t.Error("lookupDialect(mysql) should fail")
	}
}

func TestPoolLimits(t *testing.T) {
	tests := []struct {
		driver       string
		maxOpen      int
		wantOpen     int
		wantIdle     int
		wantLifetime time.Duration
	}{
		{DriverSQLite, 0, 25, 5, 5 * time.Minute},
		{DriverSQLite, 3, 3, 3, 5 * time.Minute},
		{DriverPostgres, 40, 40, 5, 5 * time.Minute},
		{DriverLibSQL, 25, 1, 1, 0},
	}

	for _, tt := range tests {
		d, err := lookupDialect(tt.driver)
		if err != nil {
			t.Fatalf("lookupDialect(%q) failed: %v", tt.driver, err)
		}
		open, idle, lifetime := d.poolLimits(tt.maxOpen)
		if open != tt.wantOpen || idle != tt.wantIdle || lifetime != tt.wantLifetime {
			t.Errorf("%s poolLimits(%d) = %d, %d, %v; want %d, %d, %v",
				tt.driver, tt.maxOpen, open, idle, lifetime, tt.wantOpen, tt.wantIdle, tt.wantLifetime)
		}
	}
}

func TestConnPragmas_OnlyOnSingleConnDialects(t *testing.T) {
	for name, d := range dialects {
		if len(d.connPragmas) > 0 && !d.singleConn {
			t.Errorf("%s sets per-connection pragmas on a multi-connection pool", name)
		}
	}

	libsql := dialects[DriverLibSQL]
	joined := strings.Join(libsql.connPragmas, ";")
	for _, want := range []string{"journal_mode=WAL", "busy_timeout", "foreign_keys=ON"} {
		if !strings.Contains(joined, want) {
			t.Errorf("libsql pragmas %q missing %s", joined, want)
		}
	}
}

// TestPostgres_RoundTrip runs against a real server when DOCMIRROR_TEST_POSTGRES_DSN is set.
func TestPostgres_RoundTrip(t *testing.T) {
	dsn := os.Getenv("DOCMIRROR_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DOCMIRROR_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	db, err := Initialize(ctx, Options{Driver: DriverPostgres, DSN: dsn})
	if err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	defer db.Close()

	seedDocument(t, db, "finance", "q1", "report.txt", "draft")
	seedDocument(t, db, "finance", "q1", "report.txt", "final")

	docs, err := db.ListDocuments(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("ListDocuments() failed: %v", err)
	}
	if len(docs) != 1 || docs[0].Content != "final" || docs[0].Folder != "q1" {
		t.Errorf("ListDocuments() = %+v", docs)
	}

	n, err := db.DeleteDocumentsByFilename(ctx, "report.txt")
	if err != nil || n != 1 {
		t.Errorf("DeleteDocumentsByFilename() = %d, %v; want 1, nil", n, err)
	}
}
