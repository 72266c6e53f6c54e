package sync

import "context"

// Syncer keeps the store in sync with a watched directory tree.
//
// The daemon depends on this interface rather than on Engine so that the
// event loop can be exercised without a database.
type Syncer interface {
	// Handle applies one event. Directory events are ignored. Failures are
	// logged and the event is dropped; the return value reports whether the
	// event was applied.
	Handle(ctx context.Context, ev Event) bool

	// ApplyUpsert reads the file at path and stores its folder hierarchy and
	// content. Returns an error if the file cannot be read as text, the path
	// is malformed, or the database update fails. Nothing is written on error.
	ApplyUpsert(ctx context.Context, path string) error

	// ApplyDelete removes the documents matching the deleted path and returns
	// how many rows were removed. Returns 0 and nil when nothing matched.
	ApplyDelete(ctx context.Context, path string) (int64, error)

	// FullSync upserts every regular file under the watched root. Individual
	// file failures are counted but do not stop the walk; an error is returned
	// only if the root cannot be walked.
	FullSync(ctx context.Context) (Stats, error)
}

// Stats summarizes a FullSync.
type Stats struct {
	Synced  int
	Failed  int
	Ignored int
}
