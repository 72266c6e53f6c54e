// Package sync applies filesystem change events to the docmirror store.
//
// # Events
//
// The engine consumes Event values (path, operation, is-directory flag)
// delivered one at a time by the daemon's watcher. Directory events are
// ignored; only regular files are mirrored.
//
// # Upsert
//
// OpCreate and OpModify run ApplyUpsert:
//
//  1. The file is read as text. A missing, unreadable, oversized or binary
//     file aborts the event before anything is written.
//  2. The path is split into filename, folder and optional parent folder
//     (schema.Locate).
//  3. In a single transaction the parent folder and the folder are ensured
//     (insert if absent, first writer wins for the parent link) and the
//     document is upserted on (filename, folder).
//
// Applying the same event twice leaves the store unchanged.
//
// # Delete
//
// OpDelete runs ApplyDelete. With the default DeleteByFilename scope every
// document carrying the deleted file's name is removed, in whatever folder it
// was filed. DeleteInFolder narrows the match to the folder located from the
// deleted path. Folders are never removed.
//
// # Failures
//
// Handle never returns an error: failures are logged with the offending path,
// reported to the Listener and the event is dropped. There is no retry.
//
// # Example
//
//	engine := sync.New(store, sync.Options{Root: "/srv/docs"})
//	engine.Handle(ctx, sync.Event{Path: "/srv/docs/finance/q1/report.txt", Op: sync.OpCreate})
package sync
