package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/docmirror/docmirror/internal/mirror/schema"
)

// DeleteDocumentsByFilename removes every document with the given filename,
// whatever folder it belongs to. It returns the number of rows removed and
// nil when nothing matched (idempotent).
func (db *DB) DeleteDocumentsByFilename(ctx context.Context, filename string) (int64, error) {
	query := `DELETE FROM documents WHERE filename = ?`
	res, err := db.conn.ExecContext(ctx, db.dialect.rebind(query), filename)
	if err != nil {
		return 0, fmt.Errorf("failed to delete documents named %s: %w", filename, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted documents: %w", err)
	}
	return n, nil
}

// DeleteDocumentInFolder removes the document with the given filename from
// the named folder only.
func (db *DB) DeleteDocumentInFolder(ctx context.Context, filename, folder string) (int64, error) {
	query := `
	DELETE FROM documents
	WHERE filename = ?
	  AND folder_id IN (SELECT id FROM folders WHERE name = ?)
	`
	res, err := db.conn.ExecContext(ctx, db.dialect.rebind(query), filename, folder)
	if err != nil {
		return 0, fmt.Errorf("failed to delete document %s in %s: %w", filename, folder, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted documents: %w", err)
	}
	return n, nil
}

// ListFilter configures the ListDocuments query.
type ListFilter struct {
	// Folder restricts results to one folder (empty = all folders)
	Folder string
	// Since keeps documents updated at or after this time (zero = no limit)
	Since time.Time
	// Limit restricts the number of results (0 = no limit)
	Limit int
}

// ListDocuments returns documents joined with their folder name, ordered by
// folder then filename.
func (db *DB) ListDocuments(ctx context.Context, filter ListFilter) ([]schema.DocumentView, error) {
	var conditions []string
	var args []interface{}

	if filter.Folder != "" {
		conditions = append(conditions, "f.name = ?")
		args = append(args, filter.Folder)
	}

	if !filter.Since.IsZero() {
		conditions = append(conditions, "d.updated_at >= ?")
		args = append(args, formatTime(filter.Since))
	}

	query := `
	SELECT d.filename, d.content, f.name, d.updated_at
	FROM documents d
	JOIN folders f ON d.folder_id = f.id
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY f.name ASC, d.filename ASC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := db.conn.QueryContext(ctx, db.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := []schema.DocumentView{}
	for rows.Next() {
		var doc schema.DocumentView
		var updatedAt string
		if err := rows.Scan(&doc.Filename, &doc.Content, &doc.Folder, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.UpdatedAt = parseTime(updatedAt)
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}
	return docs, nil
}

// GetFolder retrieves a folder by name.
// Returns sql.ErrNoRows if the folder is not found.
func (db *DB) GetFolder(ctx context.Context, name string) (*schema.Folder, error) {
	query := `SELECT id, name, parent_id FROM folders WHERE name = ?`

	var folder schema.Folder
	var parent sql.NullInt64
	err := db.conn.QueryRowContext(ctx, db.dialect.rebind(query), name).Scan(&folder.ID, &folder.Name, &parent)
	if err != nil {
		return nil, err
	}
	if parent.Valid {
		folder.ParentID = &parent.Int64
	}
	return &folder, nil
}

// ListFolders returns every folder ordered by id.
func (db *DB) ListFolders(ctx context.Context) ([]schema.Folder, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, parent_id FROM folders ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer rows.Close()

	var folders []schema.Folder
	for rows.Next() {
		var folder schema.Folder
		var parent sql.NullInt64
		if err := rows.Scan(&folder.ID, &folder.Name, &parent); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		if parent.Valid {
			id := parent.Int64
			folder.ParentID = &id
		}
		folders = append(folders, folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating folders: %w", err)
	}
	return folders, nil
}

// GetDocumentCount returns the total number of documents in the store.
func (db *DB) GetDocumentCount() (int, error) {
	return db.GetDocumentCountContext(context.Background())
}

// GetDocumentCountContext returns the document count with context support.
func (db *DB) GetDocumentCountContext(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get document count: %w", err)
	}
	return count, nil
}

// GetFolderCount returns the total number of folders in the store.
func (db *DB) GetFolderCount() (int, error) {
	return db.GetFolderCountContext(context.Background())
}

// GetFolderCountContext returns the folder count with context support.
func (db *DB) GetFolderCountContext(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM folders").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get folder count: %w", err)
	}
	return count, nil
}
