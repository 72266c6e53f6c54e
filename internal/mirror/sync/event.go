package sync

import (
	"time"

	"github.com/docmirror/docmirror/internal/mirror/schema"
)

// Op represents the type of file system operation.
type Op int

const (
	// OpCreate indicates a new file was created.
	OpCreate Op = iota
	// OpModify indicates an existing file was modified.
	OpModify
	// OpDelete indicates a file was deleted.
	OpDelete
)

// String returns a human-readable representation of the operation.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Event is one filesystem change.
type Event struct {
	// Path is the absolute path of the file or directory that changed.
	Path string
	// Op is the operation that occurred.
	Op Op
	// IsDir is set when Path denotes a directory.
	IsDir bool
}

// Outcome describes how an event was applied.
type Outcome struct {
	// Document is the stored document after a successful upsert.
	Document *schema.DocumentView
	// Removed is the number of documents a delete removed.
	Removed int64
	// Err is set when the event was dropped.
	Err error
	// Duration is the time spent applying the event.
	Duration time.Duration
}

// Listener observes every event the engine handles.
type Listener interface {
	OnEvent(ev Event, outcome Outcome)
}

// Listeners fans an event out to several listeners in order.
type Listeners []Listener

// OnEvent implements Listener.
func (ls Listeners) OnEvent(ev Event, outcome Outcome) {
	for _, l := range ls {
		if l != nil {
			l.OnEvent(ev, outcome)
		}
	}
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(ev Event, outcome Outcome)

// OnEvent implements Listener.
func (f ListenerFunc) OnEvent(ev Event, outcome Outcome) {
	f(ev, outcome)
}
