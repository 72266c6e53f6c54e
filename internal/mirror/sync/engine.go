package sync

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/docmirror/docmirror/internal/mirror/db"
	"github.com/docmirror/docmirror/internal/mirror/schema"
	"github.com/rs/zerolog"
)

// DeleteScope selects which documents a delete event removes.
type DeleteScope string

const (
	// DeleteByFilename removes every document with the deleted file's name,
	// in any folder. Two same-named files in different folders are
	// indistinguishable under this scope.
	DeleteByFilename DeleteScope = "filename"
	// DeleteInFolder removes only the document in the deleted file's folder.
	DeleteInFolder DeleteScope = "folder"
)

// DefaultMaxFileBytes is the read limit used when Options.MaxFileBytes is 0.
const DefaultMaxFileBytes = 10 << 20

// Options configures an Engine.
type Options struct {
	// Root is the watched directory. Files directly inside it have no parent folder.
	Root string
	// MaxFileBytes rejects larger files (0 = DefaultMaxFileBytes, <0 = unlimited)
	MaxFileBytes int64
	// DeleteScope defaults to DeleteByFilename.
	DeleteScope DeleteScope
	// Ignore is applied by FullSync to file and directory names.
	Ignore IgnoreList
	// Listener is notified after every handled event.
	Listener Listener
	// Logger for engine activity (nil = no logging)
	Logger *zerolog.Logger
	// Now is the clock used for updated_at (nil = time.Now)
	Now func() time.Time
}

// Engine implements Syncer against a db.DB.
type Engine struct {
	db       *db.DB
	root     string
	maxBytes int64
	scope    DeleteScope
	ignore   IgnoreList
	listener Listener
	logger   zerolog.Logger
	now      func() time.Time
}

var _ Syncer = (*Engine)(nil)

// New creates an Engine. The store must already be initialized.
func New(database *db.DB, opts Options) *Engine {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "sync").Logger()
	}

	maxBytes := opts.MaxFileBytes
	if maxBytes == 0 {
		maxBytes = DefaultMaxFileBytes
	}

	scope := opts.DeleteScope
	if scope == "" {
		scope = DeleteByFilename
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	root := opts.Root
	if root != "" {
		root = filepath.Clean(root)
	}

	return &Engine{
		db:       database,
		root:     root,
		maxBytes: maxBytes,
		scope:    scope,
		ignore:   opts.Ignore,
		listener: opts.Listener,
		logger:   logger,
		now:      now,
	}
}

// Handle implements Syncer.Handle.
func (e *Engine) Handle(ctx context.Context, ev Event) bool {
	if ev.IsDir {
		return false
	}

	start := time.Now()
	var outcome Outcome

	switch ev.Op {
	case OpCreate, OpModify:
		if ev.Op == OpCreate {
			e.logger.Info().Str("path", ev.Path).Msg("Created file")
		} else {
			e.logger.Info().Str("path", ev.Path).Msg("Modified file")
		}
		doc, err := e.upsert(ctx, ev.Path)
		if err != nil {
			outcome.Err = err
			e.logger.Error().Err(err).Str("path", ev.Path).Msg("Failed to update store for file")
		} else {
			outcome.Document = &doc
			e.logger.Info().
				Str("filename", doc.Filename).
				Str("folder", doc.Folder).
				Msg("Updated store with file")
		}

	case OpDelete:
		e.logger.Info().Str("path", ev.Path).Msg("Deleted file")
		removed, err := e.ApplyDelete(ctx, ev.Path)
		if err != nil {
			outcome.Err = err
			e.logger.Error().Err(err).Str("path", ev.Path).Msg("Failed to delete from store for file")
		} else {
			outcome.Removed = removed
			e.logger.Info().
				Str("filename", schema.Filename(ev.Path)).
				Int64("removed", removed).
				Msg("Removed file from store")
		}

	default:
		outcome.Err = fmt.Errorf("unsupported operation %s", ev.Op)
		e.logger.Warn().Str("path", ev.Path).Str("op", ev.Op.String()).Msg("Ignoring event")
	}

	outcome.Duration = time.Since(start)
	if e.listener != nil {
		e.listener.OnEvent(ev, outcome)
	}
	return outcome.Err == nil
}

// ApplyUpsert implements Syncer.ApplyUpsert.
func (e *Engine) ApplyUpsert(ctx context.Context, path string) error {
	_, err := e.upsert(ctx, path)
	return err
}

func (e *Engine) upsert(ctx context.Context, path string) (schema.DocumentView, error) {
	content, err := schema.ReadText(path, e.maxBytes)
	if err != nil {
		return schema.DocumentView{}, err
	}

	loc, err := schema.Locate(e.root, path)
	if err != nil {
		return schema.DocumentView{}, err
	}

	updatedAt := e.now().UTC()
	err = e.db.WithTx(ctx, func(tx *db.Tx) error {
		var parentID *int64
		if loc.HasParent() {
			id, err := tx.EnsureFolder(ctx, loc.Parent, nil)
			if err != nil {
				return err
			}
			parentID = &id
		}

		folderID, err := tx.EnsureFolder(ctx, loc.Folder, parentID)
		if err != nil {
			return err
		}

		_, err = tx.UpsertDocument(ctx, &schema.Document{
			Filename:  loc.Filename,
			Content:   content,
			FolderID:  folderID,
			UpdatedAt: updatedAt,
		})
		return err
	})
	if err != nil {
		return schema.DocumentView{}, fmt.Errorf("failed to sync %s: %w", path, err)
	}

	return schema.DocumentView{
		Filename:  loc.Filename,
		Content:   content,
		Folder:    loc.Folder,
		UpdatedAt: updatedAt,
	}, nil
}

// ApplyDelete implements Syncer.ApplyDelete.
func (e *Engine) ApplyDelete(ctx context.Context, path string) (int64, error) {
	if e.scope == DeleteInFolder {
		loc, err := schema.Locate(e.root, path)
		if err != nil {
			return 0, err
		}
		return e.db.DeleteDocumentInFolder(ctx, loc.Filename, loc.Folder)
	}

	filename := schema.Filename(path)
	if filename == "" {
		return 0, fmt.Errorf("%w: %q has no filename", schema.ErrMalformedPath, path)
	}
	return e.db.DeleteDocumentsByFilename(ctx, filename)
}

// FullSync implements Syncer.FullSync.
func (e *Engine) FullSync(ctx context.Context) (Stats, error) {
	var stats Stats
	if e.root == "" {
		return stats, fmt.Errorf("full sync requires a root directory")
	}

	e.logger.Info().Str("root", e.root).Msg("Starting full sync")

	err := filepath.WalkDir(e.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == e.root {
				return err
			}
			// Unreadable subtree: count it and keep walking.
			e.logger.Warn().Err(err).Str("path", path).Msg("Skipping unreadable path")
			stats.Failed++
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if path != e.root && e.ignore.Match(path) {
			stats.Ignored++
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		if e.Handle(ctx, Event{Path: path, Op: OpCreate}) {
			stats.Synced++
		} else {
			stats.Failed++
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("failed to walk %s: %w", e.root, err)
	}

	e.logger.Info().
		Int("synced", stats.Synced).
		Int("failed", stats.Failed).
		Int("ignored", stats.Ignored).
		Msg("Full sync complete")
	return stats, nil
}
