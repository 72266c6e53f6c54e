package dashboard

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	mirror "github.com/docmirror/docmirror/internal/mirror/sync"
)

// DocumentUpdateData describes a stored document after a create or modify.
type DocumentUpdateData struct {
	Filename  string    `json:"filename"`
	Folder    string    `json:"folder"`
	Action    string    `json:"action"` // created, modified
	Bytes     int       `json:"bytes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentDeleteData describes a delete event.
type DocumentDeleteData struct {
	Path    string `json:"path"`
	Removed int64  `json:"removed"`
}

// SyncFailureData describes a dropped event.
type SyncFailureData struct {
	Path  string `json:"path"`
	Op    string `json:"op"`
	Error string `json:"error"`
}

// Broadcaster is the part of Server the Handler needs.
type Broadcaster interface {
	Broadcast(msg Message)
}

// Handler turns sync outcomes into dashboard messages.
type Handler struct {
	server Broadcaster
	logger zerolog.Logger
}

var _ mirror.Listener = (*Handler)(nil)

// NewHandler creates a new event handler connected to a dashboard server
func NewHandler(server Broadcaster, logger *zerolog.Logger) *Handler {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "dashboard").Logger()
	}
	return &Handler{server: server, logger: l}
}

// OnEvent implements sync.Listener.
func (h *Handler) OnEvent(ev mirror.Event, outcome mirror.Outcome) {
	switch {
	case outcome.Err != nil:
		h.send(MessageTypeSyncFailure, SyncFailureData{
			Path:  ev.Path,
			Op:    ev.Op.String(),
			Error: outcome.Err.Error(),
		})

	case ev.Op == mirror.OpDelete:
		h.send(MessageTypeDocumentDelete, DocumentDeleteData{
			Path:    ev.Path,
			Removed: outcome.Removed,
		})

	case outcome.Document != nil:
		action := "modified"
		if ev.Op == mirror.OpCreate {
			action = "created"
		}
		doc := outcome.Document
		h.send(MessageTypeDocumentUpdate, DocumentUpdateData{
			Filename:  doc.Filename,
			Folder:    doc.Folder,
			Action:    action,
			Bytes:     len(doc.Content),
			UpdatedAt: doc.UpdatedAt,
		})
	}
}

func (h *Handler) send(typ MessageType, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		h.logger.Error().Err(err).Str("type", string(typ)).Msg("Failed to marshal message data")
		return
	}
	h.server.Broadcast(Message{
		Type:      typ,
		Timestamp: time.Now(),
		Data:      raw,
	})
}
