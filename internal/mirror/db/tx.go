package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/docmirror/docmirror/internal/mirror/schema"
)

// Tx is one unit of work against the store.
type Tx struct {
	tx      *sql.Tx
	dialect *dialect
}

// WithTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back on error or panic.
func (db *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{tx: sqlTx, dialect: db.dialect}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// EnsureFolder inserts a folder if no folder with that name exists and
// returns its id.
//
// parentID is only written on the first insert. An existing folder keeps the
// parent it was created with (first writer wins).
func (t *Tx) EnsureFolder(ctx context.Context, name string, parentID *int64) (int64, error) {
	folder := schema.Folder{Name: name, ParentID: parentID}
	if err := folder.Validate(); err != nil {
		return 0, fmt.Errorf("invalid folder: %w", err)
	}

	parent := sql.NullInt64{}
	if parentID != nil {
		parent = sql.NullInt64{Int64: *parentID, Valid: true}
	}

	insert := `INSERT INTO folders (name, parent_id) VALUES (?, ?) ON CONFLICT (name) DO NOTHING`
	if _, err := t.tx.ExecContext(ctx, t.dialect.rebind(insert), name, parent); err != nil {
		return 0, fmt.Errorf("failed to insert folder %s: %w", name, err)
	}

	var id int64
	query := `SELECT id FROM folders WHERE name = ?`
	if err := t.tx.QueryRowContext(ctx, t.dialect.rebind(query), name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to resolve folder %s: %w", name, err)
	}
	return id, nil
}

// UpsertDocument inserts a document or, when a document with the same
// filename already exists in the same folder, replaces its content.
// It returns the document id.
func (t *Tx) UpsertDocument(ctx context.Context, doc *schema.Document) (int64, error) {
	if err := doc.Validate(); err != nil {
		return 0, fmt.Errorf("invalid document: %w", err)
	}

	query := `
	INSERT INTO documents (filename, content, folder_id, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (filename, folder_id) DO UPDATE SET
		content = excluded.content,
		updated_at = excluded.updated_at
	`
	_, err := t.tx.ExecContext(ctx, t.dialect.rebind(query),
		doc.Filename,
		doc.Content,
		doc.FolderID,
		formatTime(doc.UpdatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert document %s: %w", doc.Filename, err)
	}

	var id int64
	lookup := `SELECT id FROM documents WHERE filename = ? AND folder_id = ?`
	if err := t.tx.QueryRowContext(ctx, t.dialect.rebind(lookup), doc.Filename, doc.FolderID).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to resolve document %s: %w", doc.Filename, err)
	}
	return id, nil
}

// formatTime stores timestamps as RFC 3339 in UTC so they compare as strings.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime is the inverse of formatTime. Unparseable values become zero.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
